package keypair

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EncodingTypeScrypt = "scrypt-aes256gcm"
	EncodingTypeNone   = "none"
	EncodingVersion    = "1"

	contentPkcs8 = "pkcs8"
)

// Encoding describes how the encoded field of a PairJSON is serialized.
type Encoding struct {
	Content []string `json:"content"`
	Type    string   `json:"type"`
	Version string   `json:"version"`
}

func NewEncoding(keyType KeyType, encodingType string) Encoding {
	return Encoding{
		Content: []string{contentPkcs8, keyType.String()},
		Type:    encodingType,
		Version: EncodingVersion,
	}
}

// IsEncrypted returns whether the encoded content is password protected.
func (e Encoding) IsEncrypted() bool {
	return e.Type == EncodingTypeScrypt
}

// KeyType returns the key type declared by the encoding content, defaulting to
// ed25519.
func (e Encoding) KeyType() KeyType {
	if len(e.Content) > 1 {
		return KeyType(e.Content[1])
	}
	return KeyTypeEd25519
}

// PairJSON is the portable, password protected representation of a key pair
// used for backups.
type PairJSON struct {
	Address   string                 `json:"address"`
	PublicKey string                 `json:"publicKey"`
	Encoded   string                 `json:"encoded"`
	Encoding  Encoding               `json:"encoding"`
	Meta      map[string]interface{} `json:"meta"`
}

// ParsePairJSON decodes and validates a serialized PairJSON.
func ParsePairJSON(buf []byte) (*PairJSON, error) {
	p := &PairJSON{}
	if err := json.Unmarshal(buf, p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoded, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PairJSON) Validate() error {
	if p.Address == "" {
		return ErrMissingAddress
	}
	if !IsValidAddress(p.Address) {
		return ErrInvalidAddress
	}
	if p.Encoded == "" {
		return ErrMissingEncoded
	}
	if _, err := p.EncodedBytes(); err != nil {
		return err
	}
	if p.Encoding.Type != EncodingTypeScrypt && p.Encoding.Type != EncodingTypeNone {
		return ErrInvalidEncoding
	}
	if _, err := p.Encoding.KeyType().scheme(); err != nil {
		return err
	}
	if _, err := p.PublicKeyBytes(); err != nil {
		return err
	}
	return nil
}

// PublicKeyBytes returns the public key of the pair. When the publicKey field
// is empty, it is recovered from the address, which is possible only for
// ed25519 keys.
func (p *PairJSON) PublicKeyBytes() ([]byte, error) {
	if p.PublicKey != "" {
		buf, err := hex.DecodeString(strings.TrimPrefix(p.PublicKey, "0x"))
		if err != nil {
			return nil, ErrInvalidPublicKey
		}
		return buf, nil
	}
	if p.Encoding.KeyType() != KeyTypeEd25519 {
		return nil, ErrMissingPublicKey
	}
	_, accountID, err := DecodeAddress(p.Address)
	if err != nil {
		return nil, err
	}
	return accountID, nil
}

func (p *PairJSON) EncodedBytes() ([]byte, error) {
	buf, err := hex.DecodeString(strings.TrimPrefix(p.Encoded, "0x"))
	if err != nil {
		return nil, ErrInvalidEncoded
	}
	return buf, nil
}

func (p *PairJSON) Serialize() ([]byte, error) {
	return json.Marshal(p)
}
