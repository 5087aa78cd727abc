package keypair_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

func TestPairJSON(t *testing.T) {
	t.Parallel()

	kp, err := keypair.FromSeed(keypair.FromSeedArgs{Seed: zeroSeed})
	require.NoError(t, err)
	addr, err := kp.Address(keypair.DefaultAddressPrefix)
	require.NoError(t, err)
	encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{
		KeyPair: kp, Password: password, Cypher: testCypher,
	})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		p := keypair.PairJSON{
			Address:  addr,
			Encoded:  hex.EncodeToString(encoded),
			Encoding: encoding,
			Meta:     map[string]interface{}{"name": "alice"},
		}
		buf, err := p.Serialize()
		require.NoError(t, err)

		parsed, err := keypair.ParsePairJSON(buf)
		require.NoError(t, err)
		require.Equal(t, addr, parsed.Address)
		require.Equal(t, "alice", parsed.Meta["name"])

		pubkey, err := parsed.PublicKeyBytes()
		require.NoError(t, err)
		require.Equal(t, kp.PublicKey, pubkey)

		parsedEncoded, err := parsed.EncodedBytes()
		require.NoError(t, err)
		require.Equal(t, encoded, parsedEncoded)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			json string
			err  error
		}{
			{"malformed", `{"address":`, keypair.ErrInvalidEncoded},
			{"missing_address", `{"encoded":"00"}`, keypair.ErrMissingAddress},
			{"invalid_address", `{"address":"abc","encoded":"00"}`, keypair.ErrInvalidAddress},
			{"missing_encoded", `{"address":"` + addr + `"}`, keypair.ErrMissingEncoded},
			{"invalid_encoded", `{"address":"` + addr + `","encoded":"zz"}`, keypair.ErrInvalidEncoded},
			{
				"invalid_encoding",
				`{"address":"` + addr + `","encoded":"00","encoding":{"type":"xsalsa20-poly1305"}}`,
				keypair.ErrInvalidEncoding,
			},
		}
		for _, tt := range tests {
			p, err := keypair.ParsePairJSON([]byte(tt.json))
			require.ErrorIs(t, err, tt.err, tt.name)
			require.Nil(t, p)
		}
	})
}

func TestMnemonic(t *testing.T) {
	t.Parallel()

	mnemonic, err := keypair.NewMnemonic(keypair.NewMnemonicArgs{})
	require.NoError(t, err)
	require.Len(t, mnemonic, 24)

	seed, err := keypair.SeedFromMnemonic(mnemonic)
	require.NoError(t, err)
	require.Len(t, seed, keypair.SeedSize)

	otherSeed, err := keypair.SeedFromMnemonic(mnemonic)
	require.NoError(t, err)
	require.Equal(t, seed, otherSeed)

	mnemonic, err = keypair.NewMnemonic(keypair.NewMnemonicArgs{EntropySize: 128})
	require.NoError(t, err)
	require.Len(t, mnemonic, 12)

	_, err = keypair.NewMnemonic(keypair.NewMnemonicArgs{EntropySize: 100})
	require.ErrorIs(t, err, keypair.ErrInvalidEntropySize)

	_, err = keypair.SeedFromMnemonic(nil)
	require.ErrorIs(t, err, keypair.ErrMissingMnemonic)

	_, err = keypair.SeedFromMnemonic([]string{"legal", "winner", "thank"})
	require.ErrorIs(t, err, keypair.ErrInvalidMnemonic)
}
