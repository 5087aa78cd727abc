package keypair_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var (
	zeroSeed        = make([]byte, keypair.SeedSize)
	zeroSeedPubkey  = "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29"
	testCypher      = keypair.NewCypher(1 << 10)
	password        = "password"
	wrongPassword   = "wrongpassword"
	msg             = []byte("message to sign")
	ecdsaSeed       = bytes.Repeat([]byte{1}, keypair.SeedSize)
	supportedTypes  = []keypair.KeyType{keypair.KeyTypeEd25519, keypair.KeyTypeEcdsa}
	seedForKeyTypes = map[keypair.KeyType][]byte{
		keypair.KeyTypeEd25519: zeroSeed,
		keypair.KeyTypeEcdsa:   ecdsaSeed,
	}
)

func TestFromSeed(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		kp, err := keypair.FromSeed(keypair.FromSeedArgs{Seed: zeroSeed})
		require.NoError(t, err)
		require.Equal(t, keypair.KeyTypeEd25519, kp.Type)
		require.Equal(t, zeroSeedPubkey, hex.EncodeToString(kp.PublicKey))

		otherKp, err := keypair.FromSeed(keypair.FromSeedArgs{Seed: zeroSeed})
		require.NoError(t, err)
		require.Equal(t, *kp, *otherKp)

		kp, err = keypair.FromSeed(keypair.FromSeedArgs{
			Seed: ecdsaSeed, KeyType: keypair.KeyTypeEcdsa,
		})
		require.NoError(t, err)
		require.Len(t, kp.PublicKey, 33)
		require.Len(t, kp.SecretKey, 32)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			seed    []byte
			keyType keypair.KeyType
			err     error
		}{
			{"missing_seed", nil, "", keypair.ErrMissingSeed},
			{"short_seed", make([]byte, 16), "", keypair.ErrInvalidSeedSize},
			{"long_seed", make([]byte, 64), "", keypair.ErrInvalidSeedSize},
			{"zero_ecdsa_seed", zeroSeed, keypair.KeyTypeEcdsa, keypair.ErrInvalidSeed},
			{"unknown_type", zeroSeed, "sr25519", keypair.ErrUnsupportedKeyType},
		}
		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				kp, err := keypair.FromSeed(keypair.FromSeedArgs{
					Seed: tt.seed, KeyType: tt.keyType,
				})
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, kp)
			})
		}
	})
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	for _, keyType := range supportedTypes {
		keyType := keyType
		t.Run(keyType.String(), func(t *testing.T) {
			t.Parallel()

			kp, err := keypair.FromSeed(keypair.FromSeedArgs{
				Seed: seedForKeyTypes[keyType], KeyType: keyType,
			})
			require.NoError(t, err)

			sig, err := kp.Sign(msg)
			require.NoError(t, err)

			err = keypair.Verify(keyType, kp.PublicKey, msg, sig)
			require.NoError(t, err)

			err = keypair.Verify(keyType, kp.PublicKey, []byte("other"), sig)
			require.ErrorIs(t, err, keypair.ErrInvalidSignature)

			kp.Zero()
			require.Nil(t, kp.SecretKey)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	for _, keyType := range supportedTypes {
		keyType := keyType
		t.Run(keyType.String(), func(t *testing.T) {
			t.Parallel()

			kp, err := keypair.FromSeed(keypair.FromSeedArgs{
				Seed: seedForKeyTypes[keyType], KeyType: keyType,
			})
			require.NoError(t, err)

			encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{
				KeyPair: kp, Password: password, Cypher: testCypher,
			})
			require.NoError(t, err)
			require.True(t, encoding.IsEncrypted())
			require.Equal(t, keyType, encoding.KeyType())
			require.NotContains(t, string(encoded), string(kp.SecretKey))

			decoded, err := keypair.Decode(keypair.DecodeArgs{
				Encoded:   encoded,
				Encoding:  encoding,
				PublicKey: kp.PublicKey,
				Password:  password,
				Cypher:    testCypher,
			})
			require.NoError(t, err)
			require.Equal(t, *kp, *decoded)

			decoded, err = keypair.Decode(keypair.DecodeArgs{
				Encoded:  encoded,
				Encoding: encoding,
				Password: wrongPassword,
				Cypher:   testCypher,
			})
			require.ErrorIs(t, err, keypair.ErrDecrypt)
			require.Nil(t, decoded)

			plain, encoding, err := keypair.Encode(keypair.EncodeArgs{KeyPair: kp})
			require.NoError(t, err)
			require.False(t, encoding.IsEncrypted())

			decoded, err = keypair.Decode(keypair.DecodeArgs{
				Encoded: plain, Encoding: encoding,
			})
			require.NoError(t, err)
			require.Equal(t, *kp, *decoded)
		})
	}

	t.Run("public_key_mismatch", func(t *testing.T) {
		t.Parallel()

		kp, err := keypair.FromSeed(keypair.FromSeedArgs{Seed: zeroSeed})
		require.NoError(t, err)
		encoded, encoding, err := keypair.Encode(keypair.EncodeArgs{KeyPair: kp})
		require.NoError(t, err)

		decoded, err := keypair.Decode(keypair.DecodeArgs{
			Encoded:   encoded,
			Encoding:  encoding,
			PublicKey: bytes.Repeat([]byte{1}, 32),
		})
		require.ErrorIs(t, err, keypair.ErrInvalidPublicKey)
		require.Nil(t, decoded)
	})
}

func TestCypher(t *testing.T) {
	t.Parallel()

	plaintext := []byte("secret")
	encrypted, err := testCypher.Encrypt(plaintext, []byte(password))
	require.NoError(t, err)
	require.Len(
		t, encrypted,
		keypair.SaltSize+keypair.ParamsSize+keypair.NonceSize+len(plaintext)+keypair.TagSize,
	)

	otherEncrypted, err := testCypher.Encrypt(plaintext, []byte(password))
	require.NoError(t, err)
	require.NotEqual(t, encrypted, otherEncrypted)

	decrypted, err := testCypher.Decrypt(encrypted, []byte(password))
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)

	_, err = testCypher.Decrypt(encrypted, []byte(wrongPassword))
	require.ErrorIs(t, err, keypair.ErrDecrypt)

	_, err = testCypher.Decrypt(encrypted[:10], []byte(password))
	require.ErrorIs(t, err, keypair.ErrInvalidCiphertext)

	// Blobs carry their own cost, so any cypher can decrypt them.
	decrypted, err = keypair.NewCypher(0).Decrypt(encrypted, []byte(password))
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)

	badParams := append([]byte{}, encrypted...)
	badParams[keypair.SaltSize] = 0xff
	_, err = testCypher.Decrypt(badParams, []byte(password))
	require.ErrorIs(t, err, keypair.ErrInvalidCiphertext)

	tampered := append([]byte{}, encrypted...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = testCypher.Decrypt(tampered, []byte(password))
	require.ErrorIs(t, err, keypair.ErrDecrypt)
}
