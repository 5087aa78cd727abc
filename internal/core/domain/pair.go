package domain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vulpemventures/keyring/pkg/keypair"
)

// Pair is a single cryptographic identity of the keyring: the public part is
// always available, while the secret key is held in memory only while the
// pair is unlocked.
type Pair struct {
	address   string
	publicKey []byte
	keyType   keypair.KeyType
	encoded   []byte
	encoding  keypair.Encoding
	meta      Meta
	secret    *keypair.KeyPair

	cypher *keypair.Cypher
	lock   *sync.RWMutex
}

type NewPairArgs struct {
	Seed     []byte
	KeyType  keypair.KeyType
	Password string
	Meta     Meta
	Prefix   uint8
	Cypher   *keypair.Cypher
}

func (a NewPairArgs) validate() error {
	if len(a.Seed) != keypair.SeedSize {
		return ErrInvalidSeedLength
	}
	if len(a.Password) > 0 && a.Cypher == nil {
		return ErrMissingCypher
	}
	return nil
}

// NewPair derives a key pair from the given seed and encodes it with the
// optional password. The returned pair is unlocked, and its meta is stamped
// with the creation time.
func NewPair(args NewPairArgs) (*Pair, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	kp, err := keypair.FromSeed(keypair.FromSeedArgs{
		Seed:    args.Seed,
		KeyType: args.KeyType,
	})
	if err != nil {
		if errors.Is(err, keypair.ErrInvalidSeedSize) {
			return nil, ErrInvalidSeedLength
		}
		return nil, err
	}
	address, err := kp.Address(args.Prefix)
	if err != nil {
		kp.Zero()
		return nil, err
	}
	encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{
		KeyPair:  kp,
		Password: args.Password,
		Cypher:   args.Cypher,
	})
	if err != nil {
		kp.Zero()
		return nil, err
	}

	meta := args.Meta.Copy()
	meta.Stamp(MetaWhenCreated)

	return &Pair{
		address:   address,
		publicKey: append([]byte{}, kp.PublicKey...),
		keyType:   kp.Type,
		encoded:   encoded,
		encoding:  encoding,
		meta:      meta,
		secret:    kp,
		cypher:    args.Cypher,
		lock:      &sync.RWMutex{},
	}, nil
}

// NewPairFromRecord rebuilds a pair from its persisted record without any
// password. The pair is locked unless the record is not encrypted, in which
// case the secret is decoded right away.
func NewPairFromRecord(record *Record, cypher *keypair.Cypher) (*Pair, error) {
	if record == nil {
		return nil, ErrMissingRecord
	}
	if len(record.Encoded) <= 0 {
		return nil, fmt.Errorf("%w: missing encoded pair", ErrCorruptRecord)
	}
	if record.Encoding.IsEncrypted() && cypher == nil {
		return nil, ErrMissingCypher
	}

	keyType := record.Encoding.KeyType()
	if record.KeyType != "" && record.KeyType != keyType.String() {
		return nil, fmt.Errorf("%w: key type mismatch", ErrCorruptRecord)
	}
	if _, err := keypair.ParseKeyType(keyType.String()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, err)
	}
	prefix, accountID, err := keypair.DecodeAddress(record.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, err)
	}
	publicKey := record.PublicKey
	if len(publicKey) <= 0 {
		if keyType != keypair.KeyTypeEd25519 {
			return nil, fmt.Errorf("%w: missing public key", ErrCorruptRecord)
		}
		publicKey = accountID
	}
	// The address must be the one derived from the public key.
	address, err := keypair.EncodeAddress(keypair.EncodeAddressArgs{
		PublicKey: publicKey,
		KeyType:   keyType,
		Prefix:    prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, err)
	}
	if address != record.Address {
		return nil, fmt.Errorf(
			"%w: address does not match public key", ErrCorruptRecord,
		)
	}

	p := &Pair{
		address:   record.Address,
		publicKey: append([]byte{}, publicKey...),
		keyType:   keyType,
		encoded:   append([]byte{}, record.Encoded...),
		encoding:  record.Encoding,
		meta:      record.Meta.Copy(),
		cypher:    cypher,
		lock:      &sync.RWMutex{},
	}

	if !p.encoding.IsEncrypted() {
		if err := p.Unlock(""); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, err)
		}
	}
	return p, nil
}

func (p *Pair) Address() string {
	return p.address
}

func (p *Pair) PublicKey() []byte {
	return append([]byte{}, p.publicKey...)
}

func (p *Pair) KeyType() keypair.KeyType {
	return p.keyType
}

// Meta returns a copy of the pair's metadata.
func (p *Pair) Meta() Meta {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.meta.Copy()
}

// SetMeta merges the given entries into the pair's metadata.
func (p *Pair) SetMeta(meta Meta) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.meta = p.meta.Merge(meta)
}

func (p *Pair) IsEncrypted() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.encoding.IsEncrypted()
}

func (p *Pair) IsLocked() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.secret == nil
}

// Lock wipes the secret key from memory. Locking a locked pair is a no-op.
func (p *Pair) Lock() {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.wipe()
}

// Unlock decrypts the encoded pair with the given password. The password is
// verified even if the pair is already unlocked, and the pair is left
// untouched if that fails.
func (p *Pair) Unlock(password string) error {
	p.lock.RLock()
	encoded, encoding := p.encoded, p.encoding
	p.lock.RUnlock()

	kp, err := p.decode(encoded, encoding, password)
	if err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.wipe()
	p.secret = kp
	return nil
}

// Sign signs the given message, failing with ErrPairLocked if the pair is
// locked.
func (p *Pair) Sign(msg []byte) ([]byte, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.secret == nil {
		return nil, ErrPairLocked
	}
	return p.secret.Sign(msg)
}

// Verify checks the signature of msg against the pair's public key.
func (p *Pair) Verify(msg, sig []byte) error {
	return keypair.Verify(p.keyType, p.publicKey, msg, sig)
}

// Encode re-encodes the unlocked secret under the given password, replacing
// the pair's encoded blob. An empty password stores the pair unencrypted.
func (p *Pair) Encode(password string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.secret == nil {
		return ErrPairLocked
	}
	if len(password) > 0 && p.cypher == nil {
		return ErrMissingCypher
	}

	encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{
		KeyPair:  p.secret,
		Password: password,
		Cypher:   p.cypher,
	})
	if err != nil {
		return err
	}
	p.encoded = encoded
	p.encoding = encoding
	return nil
}

// WithPassword returns a copy of the pair whose secret is encoded under
// newPassword. It fails with ErrInvalidPassword if oldPassword does not
// decrypt the current blob. The copy has the same lock state of p, while p
// itself is never mutated.
func (p *Pair) WithPassword(oldPassword, newPassword string) (*Pair, error) {
	p.lock.RLock()
	encoded, encoding, wasLocked := p.encoded, p.encoding, p.secret == nil
	meta := p.meta.Copy()
	p.lock.RUnlock()

	kp, err := p.decode(encoded, encoding, oldPassword)
	if err != nil {
		return nil, err
	}

	cp := &Pair{
		address:   p.address,
		publicKey: p.PublicKey(),
		keyType:   p.keyType,
		meta:      meta,
		secret:    kp,
		cypher:    p.cypher,
		lock:      &sync.RWMutex{},
	}
	if err := cp.Encode(newPassword); err != nil {
		cp.Destroy()
		return nil, err
	}
	if wasLocked {
		cp.Lock()
	}
	return cp, nil
}

// Assign replaces the encoded secret and the metadata of p with the ones of
// other, a pair of the same key. The lock state of p is kept.
func (p *Pair) Assign(other *Pair) error {
	if other.address != p.address {
		return ErrInvalidAddress
	}

	other.lock.RLock()
	encoded := append([]byte{}, other.encoded...)
	encoding := other.encoding
	meta := other.meta.Copy()
	other.lock.RUnlock()

	p.lock.Lock()
	defer p.lock.Unlock()

	p.encoded = encoded
	p.encoding = encoding
	p.meta = meta
	return nil
}

// ToJSON exports the pair re-encoded under the given passphrase. The pair
// must be unlocked.
func (p *Pair) ToJSON(passphrase string) (*keypair.PairJSON, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.secret == nil {
		return nil, ErrPairLocked
	}
	encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{
		KeyPair:  p.secret,
		Password: passphrase,
		Cypher:   p.cypher,
	})
	if err != nil {
		return nil, err
	}

	record := p.toRecord()
	record.Encoded = encoded
	record.Encoding = encoding
	return record.ToPairJSON(), nil
}

// ToRecord returns the account record persisting the pair.
func (p *Pair) ToRecord() *Record {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.toRecord()
}

// Destroy wipes the secret key. Unlike Lock, it is meant for pairs that are
// being discarded.
func (p *Pair) Destroy() {
	p.Lock()
}

func (p *Pair) toRecord() *Record {
	return &Record{
		Namespace: AccountsNamespace,
		Address:   p.address,
		PublicKey: append([]byte{}, p.publicKey...),
		KeyType:   p.keyType.String(),
		Encoded:   append([]byte{}, p.encoded...),
		Encoding:  p.encoding,
		Meta:      p.meta.Copy(),
	}
}

func (p *Pair) decode(
	encoded []byte, encoding keypair.Encoding, password string,
) (*keypair.KeyPair, error) {
	kp, err := keypair.Decode(keypair.DecodeArgs{
		Encoded:   encoded,
		Encoding:  encoding,
		PublicKey: p.publicKey,
		Password:  password,
		Cypher:    p.cypher,
	})
	if err != nil {
		if errors.Is(err, keypair.ErrDecrypt) ||
			errors.Is(err, keypair.ErrInvalidCiphertext) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	return kp, nil
}

func (p *Pair) wipe() {
	if p.secret != nil {
		p.secret.Zero()
		p.secret = nil
	}
}
