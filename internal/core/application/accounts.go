package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// GenSeed returns a new random 24-words mnemonic.
func (ks *KeyringService) GenSeed(_ context.Context) ([]string, error) {
	return keypair.NewMnemonic(keypair.NewMnemonicArgs{})
}

// CreateAccount derives a new pair from the given 32-byte seed, persists it
// encrypted with the optional password and adds it to the accounts registry.
// The returned pair is unlocked.
func (ks *KeyringService) CreateAccount(
	ctx context.Context, seed []byte, password string, meta domain.Meta,
) (*domain.Pair, error) {
	defer ks.lockMutations()()

	pair, err := domain.NewPair(domain.NewPairArgs{
		Seed:     seed,
		KeyType:  ks.keyType,
		Password: password,
		Meta:     meta,
		Prefix:   ks.prefix,
		Cypher:   ks.cypher,
	})
	if err != nil {
		return nil, err
	}

	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, pair.ToRecord(),
	); err != nil {
		pair.Destroy()
		return nil, err
	}

	ks.addAccount(pair)
	ks.log("created account %s", pair.Address())
	return pair, nil
}

// CreateAccountFromMnemonic is like CreateAccount, with the seed derived from
// the given mnemonic.
func (ks *KeyringService) CreateAccountFromMnemonic(
	ctx context.Context, mnemonic []string, password string, meta domain.Meta,
) (*domain.Pair, error) {
	seed, err := keypair.SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer keypair.ClearBytes(seed)

	return ks.CreateAccount(ctx, seed, password, meta)
}

// LoadAccount registers the pair of an encoded json without decrypting it.
// The pair is locked and nothing is persisted.
func (ks *KeyringService) LoadAccount(
	_ context.Context, address string, encoded *keypair.PairJSON, meta domain.Meta,
) (*domain.Pair, error) {
	if encoded == nil {
		return nil, domain.ErrMissingRecord
	}
	if err := encoded.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
	}
	if address != encoded.Address {
		return nil, domain.ErrInvalidAddress
	}

	record, err := domain.RecordFromPairJSON(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
	}
	record.Meta = record.Meta.Merge(meta)

	defer ks.lockMutations()()

	pair, err := domain.NewPairFromRecord(record, ks.cypher)
	if err != nil {
		return nil, err
	}

	ks.addAccount(pair)
	ks.log("loaded account %s", address)
	return pair, nil
}

// RestoreAccount imports the given backup json after verifying it can be
// decrypted with the passphrase, which becomes the password of the account.
// It returns false if the json is malformed or the passphrase is wrong.
func (ks *KeyringService) RestoreAccount(
	ctx context.Context, json []byte, passphrase string,
) (bool, error) {
	encoded, err := keypair.ParsePairJSON(json)
	if err != nil {
		ks.warn(err, "failed to parse backup")
		return false, nil
	}
	record, err := domain.RecordFromPairJSON(encoded)
	if err != nil {
		ks.warn(err, "failed to parse backup")
		return false, nil
	}
	pair, err := domain.NewPairFromRecord(record, ks.cypher)
	if err != nil {
		ks.warn(err, "failed to restore account %s", record.Address)
		return false, nil
	}
	if err := pair.Unlock(passphrase); err != nil {
		ks.warn(err, "failed to restore account %s", record.Address)
		return false, nil
	}
	pair.Lock()

	defer ks.lockMutations()()

	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, pair.ToRecord(),
	); err != nil {
		return false, err
	}

	ks.addAccount(pair)
	ks.log("restored account %s", pair.Address())
	return true, nil
}

// BackupAccount exports the pair of the given address, encrypted with
// passphrase, which must be the current password of the account. It returns
// nil if the address is unknown.
func (ks *KeyringService) BackupAccount(
	_ context.Context, address, passphrase string,
) (*keypair.PairJSON, error) {
	defer ks.lockMutations()()

	pair, err := ks.pairStore.GetPair(address)
	if err != nil {
		return nil, nil
	}

	wasLocked := pair.IsLocked()
	if err := pair.Unlock(passphrase); err != nil {
		return nil, err
	}
	if wasLocked {
		defer pair.Lock()
	}

	return pair.ToJSON(passphrase)
}

// ChangeAccountPassword re-encrypts the pair of the given address with
// newPassword. It returns false if oldPassword is wrong, leaving everything
// untouched. Otherwise, the new record is persisted before the pair is
// updated in place, so that they never diverge and existing handles of the
// pair stay valid.
func (ks *KeyringService) ChangeAccountPassword(
	ctx context.Context, address, oldPassword, newPassword string,
) (bool, error) {
	defer ks.lockMutations()()

	pair, err := ks.pairStore.GetPair(address)
	if err != nil {
		return false, err
	}

	reencoded, err := pair.WithPassword(oldPassword, newPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPassword) {
			return false, nil
		}
		return false, err
	}
	defer reencoded.Destroy()
	reencoded.SetMeta(domain.Meta{domain.MetaWhenEdited: domain.Now()})

	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, reencoded.ToRecord(),
	); err != nil {
		return false, err
	}

	if err := pair.Assign(reencoded); err != nil {
		return false, err
	}
	ks.setAccount(pair)
	ks.log("changed password of account %s", address)
	return true, nil
}

// ForgetAccount deletes the pair and the record of the given address. It is
// a no-op for unknown addresses.
func (ks *KeyringService) ForgetAccount(ctx context.Context, address string) error {
	defer ks.lockMutations()()

	if err := ks.repoManager.RecordRepository().RemoveRecord(
		ctx, domain.AccountsNamespace, address,
	); err != nil {
		return err
	}

	ks.removeAccount(address)
	ks.log("forgot account %s", address)
	return nil
}

// SaveAccount persists the given pair, re-encrypting it with password if not
// empty, which requires the pair to be unlocked. A pair that has been
// replaced in the keyring is rejected with ErrStalePair.
func (ks *KeyringService) SaveAccount(
	ctx context.Context, pair *domain.Pair, password string,
) error {
	defer ks.lockMutations()()

	if err := ks.checkCurrent(pair); err != nil {
		return err
	}

	if len(password) > 0 {
		if err := pair.Encode(password); err != nil {
			return err
		}
	}
	pair.SetMeta(domain.Meta{domain.MetaWhenEdited: domain.Now()})

	if err := ks.repoManager.RecordRepository().SetRecord(
		ctx, pair.ToRecord(),
	); err != nil {
		return err
	}

	ks.addAccount(pair)
	return nil
}

// SaveAccountMeta merges meta into the one of the given pair, both in memory
// and in the persisted record. A pair that has been replaced in the keyring
// is rejected with ErrStalePair.
func (ks *KeyringService) SaveAccountMeta(
	ctx context.Context, pair *domain.Pair, meta domain.Meta,
) error {
	defer ks.lockMutations()()

	if err := ks.checkCurrent(pair); err != nil {
		return err
	}

	repo := ks.repoManager.RecordRepository()
	record, err := repo.GetRecord(ctx, domain.AccountsNamespace, pair.Address())
	if err != nil {
		return err
	}
	if record == nil {
		record = pair.ToRecord()
	}

	meta = meta.Merge(domain.Meta{domain.MetaWhenEdited: domain.Now()})
	record.Meta = record.Meta.Merge(meta)
	if err := repo.SetRecord(ctx, record); err != nil {
		return err
	}

	pair.SetMeta(meta)
	ks.addAccount(pair)
	return nil
}

// Unlock unlocks the pair of the given address.
func (ks *KeyringService) Unlock(address, password string) error {
	defer ks.lockMutations()()

	pair, err := ks.pairStore.GetPair(address)
	if err != nil {
		return err
	}
	if err := pair.Unlock(password); err != nil {
		return err
	}
	ks.setAccount(pair)
	return nil
}

// Lock wipes the secret of the pair of the given address from memory.
func (ks *KeyringService) Lock(address string) error {
	defer ks.lockMutations()()

	pair, err := ks.pairStore.GetPair(address)
	if err != nil {
		return err
	}
	if !pair.IsLocked() {
		pair.Lock()
		ks.setAccount(pair)
	}
	return nil
}

// Sign signs msg with the pair of the given address. A locked pair is
// unlocked with password for the time strictly needed.
func (ks *KeyringService) Sign(
	address, password string, msg []byte,
) ([]byte, error) {
	defer ks.lockMutations()()

	pair, err := ks.pairStore.GetPair(address)
	if err != nil {
		return nil, err
	}
	if !pair.IsLocked() {
		return pair.Sign(msg)
	}

	if err := pair.Unlock(password); err != nil {
		return nil, err
	}
	defer pair.Lock()

	return pair.Sign(msg)
}
