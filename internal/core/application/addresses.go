package application

import (
	"context"

	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// SaveAddress stores the given metadata for an address not owned by the
// keyring. The meta is merged into the one of an existing entry, and the
// entry stops being flagged as recent.
func (ks *KeyringService) SaveAddress(
	ctx context.Context, address string, meta domain.Meta,
) error {
	if !keypair.IsValidAddress(address) {
		return domain.ErrInvalidAddress
	}

	defer ks.lockMutations()()

	newMeta := domain.Meta{}
	if entry, ok := ks.addresses.Get(address); ok {
		newMeta = entry.Meta
	} else {
		newMeta.Stamp(domain.MetaWhenCreated)
	}
	newMeta = newMeta.Merge(meta)
	delete(newMeta, domain.MetaIsRecent)

	record := domain.NewAddressRecord(address, newMeta)
	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, record,
	); err != nil {
		return err
	}

	ks.setAddress(singleAddressFromRecord(record))
	ks.log("saved address %s", address)
	return nil
}

// SaveRecent flags the given address as recent and stamps its usage time,
// creating the entry if unknown.
func (ks *KeyringService) SaveRecent(
	ctx context.Context, address string,
) (*SingleAddress, error) {
	if !keypair.IsValidAddress(address) {
		return nil, domain.ErrInvalidAddress
	}

	defer ks.lockMutations()()

	meta := domain.Meta{}
	if entry, ok := ks.addresses.Get(address); ok {
		meta = entry.Meta
	} else {
		meta.Stamp(domain.MetaWhenCreated)
	}
	meta[domain.MetaIsRecent] = true
	meta.Stamp(domain.MetaWhenUsed)

	record := domain.NewAddressRecord(address, meta)
	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, record,
	); err != nil {
		return nil, err
	}

	entry := singleAddressFromRecord(record)
	ks.setAddress(entry)
	return &entry, nil
}

// ForgetAddress deletes the entry of the given address. It is a no-op for
// unknown addresses.
func (ks *KeyringService) ForgetAddress(ctx context.Context, address string) error {
	defer ks.lockMutations()()

	if err := ks.repoManager.RecordRepository().RemoveRecord(
		ctx, domain.AddressesNamespace, address,
	); err != nil {
		return err
	}

	ks.removeAddress(address)
	ks.log("forgot address %s", address)
	return nil
}

// GetAddress returns the entry of the given address, regardless of the test
// mode.
func (ks *KeyringService) GetAddress(address string) (*SingleAddress, error) {
	entry, ok := ks.addresses.Get(address)
	if !ok {
		return nil, domain.ErrAddressNotFound
	}
	return &entry, nil
}
