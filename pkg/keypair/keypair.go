package keypair

import (
	"bytes"
	"fmt"
)

// KeyPair holds the public and secret key of a single identity. The secret
// key must be wiped with Zero once no longer needed.
type KeyPair struct {
	Type      KeyType
	PublicKey []byte
	SecretKey []byte
}

type FromSeedArgs struct {
	Seed    []byte
	KeyType KeyType
}

func (a FromSeedArgs) validate() error {
	if len(a.Seed) == 0 {
		return ErrMissingSeed
	}
	if len(a.Seed) != SeedSize {
		return ErrInvalidSeedSize
	}
	if _, err := a.keyType().scheme(); err != nil {
		return err
	}
	return nil
}

func (a FromSeedArgs) keyType() KeyType {
	if a.KeyType == "" {
		return KeyTypeEd25519
	}
	return a.KeyType
}

// FromSeed deterministically derives a key pair from the given 32-byte seed.
func FromSeed(args FromSeedArgs) (*KeyPair, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	keyType := args.keyType()
	s, _ := keyType.scheme()
	pubkey, seckey, err := s.fromSeed(args.Seed)
	if err != nil {
		return nil, err
	}
	return &KeyPair{keyType, pubkey, seckey}, nil
}

// Address returns the SS58 address of the key pair for the given prefix.
func (k *KeyPair) Address(prefix uint8) (string, error) {
	return EncodeAddress(EncodeAddressArgs{
		PublicKey: k.PublicKey,
		KeyType:   k.Type,
		Prefix:    prefix,
	})
}

// Sign signs msg with the secret key.
func (k *KeyPair) Sign(msg []byte) ([]byte, error) {
	s, err := k.Type.scheme()
	if err != nil {
		return nil, err
	}
	if len(k.SecretKey) != s.secretKeySize() {
		return nil, ErrInvalidEncoded
	}
	return s.sign(k.SecretKey, msg)
}

// Zero wipes the secret key.
func (k *KeyPair) Zero() {
	ClearBytes(k.SecretKey)
	k.SecretKey = nil
}

// Verify checks that sig is a valid signature of msg for the given public key.
func Verify(keyType KeyType, publicKey, msg, sig []byte) error {
	s, err := keyType.scheme()
	if err != nil {
		return err
	}
	if !s.verify(publicKey, msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// serialize returns publicKey || secretKey.
func (k *KeyPair) serialize() []byte {
	buf := make([]byte, 0, len(k.PublicKey)+len(k.SecretKey))
	buf = append(buf, k.PublicKey...)
	return append(buf, k.SecretKey...)
}

func deserialize(keyType KeyType, buf []byte) (*KeyPair, error) {
	s, err := keyType.scheme()
	if err != nil {
		return nil, err
	}
	pubLen, secLen := s.publicKeySize(), s.secretKeySize()
	if len(buf) != pubLen+secLen {
		return nil, ErrInvalidEncoded
	}

	pubkey := make([]byte, pubLen)
	seckey := make([]byte, secLen)
	copy(pubkey, buf[:pubLen])
	copy(seckey, buf[pubLen:])
	return &KeyPair{keyType, pubkey, seckey}, nil
}

type EncodeArgs struct {
	KeyPair  *KeyPair
	Password string
	Cypher   *Cypher
}

func (a EncodeArgs) validate() error {
	if a.KeyPair == nil || len(a.KeyPair.SecretKey) == 0 {
		return fmt.Errorf("missing secret key")
	}
	if len(a.Password) > 0 && a.Cypher == nil {
		return fmt.Errorf("missing cypher")
	}
	return nil
}

// Encode serializes the key pair, encrypting it when a password is given.
// Without password the serialization is stored in clear with encoding type
// "none".
func Encode(args EncodeArgs) ([]byte, Encoding, error) {
	if err := args.validate(); err != nil {
		return nil, Encoding{}, err
	}

	plaintext := args.KeyPair.serialize()
	encoding := NewEncoding(args.KeyPair.Type, EncodingTypeNone)
	if len(args.Password) <= 0 {
		return plaintext, encoding, nil
	}
	defer ClearBytes(plaintext)

	encoded, err := args.Cypher.Encrypt(plaintext, []byte(args.Password))
	if err != nil {
		return nil, Encoding{}, err
	}
	encoding.Type = EncodingTypeScrypt
	return encoded, encoding, nil
}

type DecodeArgs struct {
	Encoded   []byte
	Encoding  Encoding
	PublicKey []byte
	Password  string
	Cypher    *Cypher
}

func (a DecodeArgs) validate() error {
	if len(a.Encoded) == 0 {
		return ErrMissingEncoded
	}
	if !a.Encoding.IsEncrypted() && a.Encoding.Type != EncodingTypeNone {
		return ErrInvalidEncoding
	}
	if a.Encoding.IsEncrypted() && a.Cypher == nil {
		return fmt.Errorf("missing cypher")
	}
	return nil
}

// Decode reverts Encode. When PublicKey is given, the decoded public key must
// match it.
func Decode(args DecodeArgs) (*KeyPair, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	plaintext := args.Encoded
	if args.Encoding.IsEncrypted() {
		buf, err := args.Cypher.Decrypt(args.Encoded, []byte(args.Password))
		if err != nil {
			return nil, err
		}
		defer ClearBytes(buf)
		plaintext = buf
	}

	kp, err := deserialize(args.Encoding.KeyType(), plaintext)
	if err != nil {
		return nil, err
	}
	if len(args.PublicKey) > 0 && !bytes.Equal(kp.PublicKey, args.PublicKey) {
		kp.Zero()
		return nil, ErrInvalidPublicKey
	}
	return kp, nil
}
