package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/vulpemventures/keyring/pkg/keypair"
)

const (
	AccountsNamespace  = "accounts"
	AddressesNamespace = "addresses"
)

var Namespaces = []string{AccountsNamespace, AddressesNamespace}

// Record is the durable counterpart of either a pair (accounts namespace) or
// of address-only metadata (addresses namespace).
type Record struct {
	Namespace string
	Address   string
	PublicKey []byte
	KeyType   string
	Encoded   []byte
	Encoding  keypair.Encoding
	Meta      Meta
}

func NewAddressRecord(address string, meta Meta) *Record {
	return &Record{
		Namespace: AddressesNamespace,
		Address:   address,
		Meta:      meta.Copy(),
	}
}

func IsKnownNamespace(namespace string) bool {
	return namespace == AccountsNamespace || namespace == AddressesNamespace
}

// ValidateRecord checks that the record can be persisted.
func ValidateRecord(record *Record) error {
	if record == nil {
		return ErrMissingRecord
	}
	if !IsKnownNamespace(record.Namespace) {
		return ErrUnknownNamespace
	}
	if record.Address == "" {
		return ErrInvalidAddress
	}
	if record.IsAccount() && len(record.Encoded) <= 0 {
		return fmt.Errorf("%w: missing encoded pair", ErrCorruptRecord)
	}
	return nil
}

// IsAccount returns whether the record holds an encoded pair.
func (r *Record) IsAccount() bool {
	return r.Namespace == AccountsNamespace
}

// ToPairJSON returns the portable form of an account record.
func (r *Record) ToPairJSON() *keypair.PairJSON {
	return &keypair.PairJSON{
		Address:   r.Address,
		PublicKey: hex.EncodeToString(r.PublicKey),
		Encoded:   hex.EncodeToString(r.Encoded),
		Encoding:  r.Encoding,
		Meta:      r.Meta.Copy(),
	}
}

// RecordFromPairJSON turns a parsed backup into an account record.
func RecordFromPairJSON(p *keypair.PairJSON) (*Record, error) {
	pubkey, err := p.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	encoded, err := p.EncodedBytes()
	if err != nil {
		return nil, err
	}
	return &Record{
		Namespace: AccountsNamespace,
		Address:   p.Address,
		PublicKey: pubkey,
		KeyType:   p.Encoding.KeyType().String(),
		Encoded:   encoded,
		Encoding:  p.Encoding,
		Meta:      Meta(p.Meta).Copy(),
	}, nil
}
