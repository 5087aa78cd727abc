package keypair

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

type NewMnemonicArgs struct {
	EntropySize uint32
}

func (a NewMnemonicArgs) validate() error {
	if a.EntropySize > 0 {
		if a.EntropySize < 128 || a.EntropySize > 256 || a.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	return nil
}

// NewMnemonic returns a new mnemonic as a list of words:
//   - EntropySize: 256 -> 24-words mnemonic.
//   - EntropySize: 128 -> 12-words mnemonic.
func NewMnemonic(args NewMnemonicArgs) ([]string, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	if args.EntropySize == 0 {
		args.EntropySize = 256
	}

	entropy, err := bip39.NewEntropy(int(args.EntropySize))
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// SeedFromMnemonic returns the 32-byte seed for the given mnemonic, ie. the
// first half of its BIP39 seed.
func SeedFromMnemonic(mnemonic []string) ([]byte, error) {
	if len(mnemonic) == 0 {
		return nil, ErrMissingMnemonic
	}
	m := strings.Join(mnemonic, " ")
	if !bip39.IsMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(m, "")
	defer ClearBytes(seed)

	out := make([]byte, SeedSize)
	copy(out, seed[:SeedSize])
	return out, nil
}
