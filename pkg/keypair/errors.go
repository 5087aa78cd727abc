package keypair

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSeed      = errors.New("missing seed")
	ErrMissingMnemonic  = errors.New("missing mnemonic")
	ErrMissingAddress   = errors.New("missing address")
	ErrMissingPublicKey = errors.New("missing public key")
	ErrMissingEncoded   = errors.New("missing encoded pair")

	ErrInvalidSeedSize = fmt.Errorf(
		"invalid seed length, must be exactly %d bytes", SeedSize,
	)
	ErrInvalidSeed        = errors.New("seed does not produce a valid private key")
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	ErrInvalidMnemonic  = errors.New("mnemonic is invalid")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidChecksum  = errors.New("invalid address checksum")
	ErrInvalidPrefix    = errors.New("address prefix must be in range [0, 63]")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidEncoding  = errors.New("unsupported pair encoding")
	ErrInvalidEncoded   = errors.New("malformed encoded pair")

	ErrUnsupportedKeyType = errors.New("unsupported key type")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
	ErrDecrypt            = errors.New("unable to decrypt, wrong password or corrupted data")
	ErrInvalidSignature   = errors.New("invalid signature")
)
