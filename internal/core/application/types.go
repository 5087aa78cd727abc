package application

import (
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// SingleAddress is the public view of an entry of the accounts or addresses
// registry.
type SingleAddress struct {
	Address   string
	PublicKey []byte
	KeyType   string
	Meta      domain.Meta
	IsLocked  bool
}

func (a SingleAddress) IsTesting() bool {
	return a.Meta.IsTesting()
}

type SingleAddresses []SingleAddress

func (l SingleAddresses) Addresses() []string {
	addresses := make([]string, 0, len(l))
	for _, a := range l {
		addresses = append(addresses, a.Address)
	}
	return addresses
}

func singleAddressFromPair(pair *domain.Pair) SingleAddress {
	return SingleAddress{
		Address:   pair.Address(),
		PublicKey: pair.PublicKey(),
		KeyType:   pair.KeyType().String(),
		Meta:      pair.Meta(),
		IsLocked:  pair.IsLocked(),
	}
}

// singleAddressFromRecord builds the view of an address-only record. The
// public key is recovered from the address, if possible.
func singleAddressFromRecord(record *domain.Record) SingleAddress {
	_, accountID, _ := keypair.DecodeAddress(record.Address)
	return SingleAddress{
		Address:   record.Address,
		PublicKey: accountID,
		Meta:      record.Meta.Copy(),
		IsLocked:  true,
	}
}
