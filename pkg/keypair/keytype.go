package keypair

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/cloudflare/circl/sign/ed25519"
)

const (
	// SeedSize is the exact length of the secret seed every key type is
	// derived from.
	SeedSize = 32
)

// KeyType identifies the signature scheme of a key pair.
type KeyType string

const (
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeEcdsa   KeyType = "ecdsa"
)

var schemes = map[KeyType]scheme{
	KeyTypeEd25519: ed25519Scheme{},
	KeyTypeEcdsa:   ecdsaScheme{},
}

// ParseKeyType returns the KeyType for the given name, if supported. An empty
// name defaults to ed25519.
func ParseKeyType(name string) (KeyType, error) {
	if name == "" {
		return KeyTypeEd25519, nil
	}
	t := KeyType(name)
	if _, ok := schemes[t]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, name)
	}
	return t, nil
}

func (t KeyType) String() string {
	return string(t)
}

func (t KeyType) scheme() (scheme, error) {
	s, ok := schemes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, t)
	}
	return s, nil
}

// scheme abstracts the key derivation and signing primitives of a key type.
type scheme interface {
	publicKeySize() int
	secretKeySize() int
	fromSeed(seed []byte) (publicKey, secretKey []byte, err error)
	sign(secretKey, msg []byte) ([]byte, error)
	verify(publicKey, msg, sig []byte) bool
	// accountID returns the bytes an address is built from.
	accountID(publicKey []byte) []byte
}

type ed25519Scheme struct{}

func (ed25519Scheme) publicKeySize() int { return ed25519.PublicKeySize }
func (ed25519Scheme) secretKeySize() int { return ed25519.PrivateKeySize }

func (ed25519Scheme) fromSeed(seed []byte) ([]byte, []byte, error) {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return []byte(pub), []byte(priv), nil
}

func (ed25519Scheme) sign(secretKey, msg []byte) ([]byte, error) {
	return ed25519.Sign(ed25519.PrivateKey(secretKey), msg), nil
}

func (ed25519Scheme) verify(publicKey, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey), msg, sig)
}

func (ed25519Scheme) accountID(publicKey []byte) []byte {
	return publicKey
}

// ecdsaScheme signs the sha256 digest of the message with a secp256k1 key and
// returns DER encoded signatures.
type ecdsaScheme struct{}

func (ecdsaScheme) publicKeySize() int { return btcec.PubKeyBytesLenCompressed }
func (ecdsaScheme) secretKeySize() int { return btcec.PrivKeyBytesLen }

func (ecdsaScheme) fromSeed(seed []byte) ([]byte, []byte, error) {
	priv, pub := btcec.PrivKeyFromBytes(seed)
	if priv.Key.IsZero() {
		return nil, nil, ErrInvalidSeed
	}
	return pub.SerializeCompressed(), priv.Serialize(), nil
}

func (ecdsaScheme) sign(secretKey, msg []byte) ([]byte, error) {
	priv, _ := btcec.PrivKeyFromBytes(secretKey)
	hash := sha256.Sum256(msg)
	return ecdsa.Sign(priv, hash[:]).Serialize(), nil
}

func (ecdsaScheme) verify(publicKey, msg, sig []byte) bool {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	signature, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	hash := sha256.Sum256(msg)
	return signature.Verify(hash[:], pub)
}

func (ecdsaScheme) accountID(publicKey []byte) []byte {
	return blake2b256(publicKey)
}
