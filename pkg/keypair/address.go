package keypair

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultAddressPrefix is the generic substrate network prefix.
	DefaultAddressPrefix = 42

	maxSimplePrefix = 63
	checksumLen     = 2
	accountIDLen    = 32
)

var ss58Prefix = []byte("SS58PRE")

type EncodeAddressArgs struct {
	PublicKey []byte
	KeyType   KeyType
	Prefix    uint8
}

func (a EncodeAddressArgs) validate() error {
	if len(a.PublicKey) == 0 {
		return ErrMissingPublicKey
	}
	s, err := a.keyType().scheme()
	if err != nil {
		return err
	}
	if len(a.PublicKey) != s.publicKeySize() {
		return ErrInvalidPublicKey
	}
	if a.Prefix > maxSimplePrefix {
		return ErrInvalidPrefix
	}
	return nil
}

func (a EncodeAddressArgs) keyType() KeyType {
	if a.KeyType == "" {
		return KeyTypeEd25519
	}
	return a.KeyType
}

// EncodeAddress returns the SS58 address of the given public key:
// base58(prefix || accountID || checksum), where checksum is the first 2
// bytes of blake2b-512("SS58PRE" || prefix || accountID).
func EncodeAddress(args EncodeAddressArgs) (string, error) {
	if err := args.validate(); err != nil {
		return "", err
	}

	s, _ := args.keyType().scheme()
	payload := append([]byte{args.Prefix}, s.accountID(args.PublicKey)...)
	checksum := ss58Checksum(payload)
	return base58.Encode(append(payload, checksum[:checksumLen]...)), nil
}

// DecodeAddress validates the given SS58 address and returns its network
// prefix and account id. For ed25519 keys the account id is the public key.
func DecodeAddress(address string) (uint8, []byte, error) {
	if address == "" {
		return 0, nil, ErrMissingAddress
	}

	buf := base58.Decode(address)
	if len(buf) != 1+accountIDLen+checksumLen {
		return 0, nil, ErrInvalidAddress
	}
	if buf[0] > maxSimplePrefix {
		return 0, nil, ErrInvalidPrefix
	}

	payload := buf[:1+accountIDLen]
	checksum := ss58Checksum(payload)
	if !bytes.Equal(checksum[:checksumLen], buf[1+accountIDLen:]) {
		return 0, nil, ErrInvalidChecksum
	}

	accountID := make([]byte, accountIDLen)
	copy(accountID, payload[1:])
	return buf[0], accountID, nil
}

// IsValidAddress returns whether the given string is a well formed SS58
// address.
func IsValidAddress(address string) bool {
	_, _, err := DecodeAddress(address)
	return err == nil
}

// AddressFromAddressOrKey accepts either an SS58 address or a hex encoded
// (optionally 0x prefixed) public key and returns the corresponding address.
func AddressFromAddressOrKey(
	addressOrKey string, keyType KeyType, prefix uint8,
) (string, error) {
	if IsValidAddress(addressOrKey) {
		return addressOrKey, nil
	}

	pubkey, err := hex.DecodeString(strings.TrimPrefix(addressOrKey, "0x"))
	if err != nil {
		return "", ErrInvalidAddress
	}
	return EncodeAddress(EncodeAddressArgs{
		PublicKey: pubkey,
		KeyType:   keyType,
		Prefix:    prefix,
	})
}

func ss58Checksum(payload []byte) [blake2b.Size]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Prefix...), payload...))
}

func blake2b256(buf []byte) []byte {
	hash := blake2b.Sum256(buf)
	return hash[:]
}
