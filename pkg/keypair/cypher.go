package keypair

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	SaltSize   = 32
	ParamsSize = 12
	KeySize    = 32
	NonceSize  = 12
	TagSize    = 16

	// DefaultScryptN is the scrypt cost parameter used unless configured
	// otherwise.
	DefaultScryptN = 1 << 15

	scryptR = 8
	scryptP = 1

	maxScryptN = 1 << 20
	maxScryptR = 16
	maxScryptP = 4
)

// Cypher encrypts and decrypts pair secrets with a password-derived key.
// Layout of the produced blob:
// salt || N || r || p || nonce || AES-256-GCM(ciphertext)
// with the scrypt params encoded as big endian uint32, so that a blob can be
// decrypted regardless of the cost the Cypher is configured with.
type Cypher struct {
	n int
}

// NewCypher returns a Cypher with the given scrypt cost, which must be a power
// of 2. Any invalid cost falls back to DefaultScryptN.
func NewCypher(scryptN int) *Cypher {
	if scryptN <= 1 || scryptN > maxScryptN || scryptN&(scryptN-1) != 0 {
		scryptN = DefaultScryptN
	}
	return &Cypher{scryptN}
}

// Encrypt encrypts plaintext with a key derived from password and a fresh
// random salt.
func (c *Cypher) Encrypt(plaintext, password []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	params := scryptParams{c.n, scryptR, scryptP}
	key, err := params.deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, SaltSize+ParamsSize+NonceSize+len(ciphertext))
	result = append(result, salt...)
	result = append(result, params.serialize()...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// Decrypt reverts Encrypt. Any authentication failure is reported as
// ErrDecrypt, so that a wrong password and a tampered blob are
// indistinguishable.
func (c *Cypher) Decrypt(data, password []byte) ([]byte, error) {
	if len(data) < SaltSize+ParamsSize+NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	salt := data[:SaltSize]
	params, err := parseScryptParams(data[SaltSize : SaltSize+ParamsSize])
	if err != nil {
		return nil, err
	}
	offset := SaltSize + ParamsSize
	nonce := data[offset : offset+NonceSize]
	ciphertext := data[offset+NonceSize:]

	key, err := params.deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

type scryptParams struct {
	n, r, p int
}

func parseScryptParams(buf []byte) (scryptParams, error) {
	n := binary.BigEndian.Uint32(buf[0:4])
	r := binary.BigEndian.Uint32(buf[4:8])
	p := binary.BigEndian.Uint32(buf[8:12])
	if n <= 1 || n > maxScryptN || n&(n-1) != 0 ||
		r == 0 || r > maxScryptR || p == 0 || p > maxScryptP {
		return scryptParams{}, ErrInvalidCiphertext
	}
	return scryptParams{int(n), int(r), int(p)}, nil
}

func (s scryptParams) serialize() []byte {
	buf := make([]byte, ParamsSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(s.n))
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.r))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.p))
	return buf
}

func (s scryptParams) deriveKey(password, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, s.n, s.r, s.p, KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ClearBytes zeroes the given buffer in place.
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
