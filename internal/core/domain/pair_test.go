package domain_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var (
	seed          = make([]byte, keypair.SeedSize)
	password      = "password"
	newPassword   = "newpassword"
	wrongPassword = "wrongpassword"
	cypher        = keypair.NewCypher(1 << 10)
	msg           = []byte("message")
)

func TestNewPair(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		p, err := newTestPair(password)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.True(t, keypair.IsValidAddress(p.Address()))
		require.Equal(t, keypair.KeyTypeEd25519, p.KeyType())
		require.True(t, p.IsEncrypted())
		require.False(t, p.IsLocked())
		require.Equal(t, "alice", p.Meta().Name())

		whenCreated, ok := p.Meta().GetInt64(domain.MetaWhenCreated)
		require.True(t, ok)
		require.NotZero(t, whenCreated)

		p, err = newTestPair("")
		require.NoError(t, err)
		require.False(t, p.IsEncrypted())
		require.False(t, p.IsLocked())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			seed     []byte
			password string
			cypher   *keypair.Cypher
			err      error
		}{
			{"missing_seed", nil, password, cypher, domain.ErrInvalidSeedLength},
			{"short_seed", seed[:31], password, cypher, domain.ErrInvalidSeedLength},
			{"long_seed", append(seed, 0), password, cypher, domain.ErrInvalidSeedLength},
			{"missing_cypher", seed, password, nil, domain.ErrMissingCypher},
		}
		for _, tt := range tests {
			p, err := domain.NewPair(domain.NewPairArgs{
				Seed:     tt.seed,
				Password: tt.password,
				Cypher:   tt.cypher,
			})
			require.ErrorIs(t, err, tt.err, tt.name)
			require.Nil(t, p)
		}
	})
}

func TestLockUnlock(t *testing.T) {
	t.Parallel()

	p, err := newTestPair(password)
	require.NoError(t, err)

	sig, err := p.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, p.Verify(msg, sig))

	p.Lock()
	require.True(t, p.IsLocked())
	p.Lock()
	require.True(t, p.IsLocked())

	sig, err = p.Sign(msg)
	require.ErrorIs(t, err, domain.ErrPairLocked)
	require.Nil(t, sig)

	err = p.Unlock(wrongPassword)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	require.True(t, p.IsLocked())

	err = p.Unlock(password)
	require.NoError(t, err)
	require.False(t, p.IsLocked())

	// Unlocking an unlocked pair still verifies the password.
	err = p.Unlock(wrongPassword)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	require.False(t, p.IsLocked())
}

func TestWithPassword(t *testing.T) {
	t.Parallel()

	p, err := newTestPair(password)
	require.NoError(t, err)
	p.Lock()

	cp, err := p.WithPassword(wrongPassword, newPassword)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	require.Nil(t, cp)

	cp, err = p.WithPassword(password, newPassword)
	require.NoError(t, err)
	require.Equal(t, p.Address(), cp.Address())
	require.Equal(t, p.PublicKey(), cp.PublicKey())
	require.True(t, cp.IsLocked())

	require.ErrorIs(t, cp.Unlock(password), domain.ErrInvalidPassword)
	require.NoError(t, cp.Unlock(newPassword))

	// The original pair is untouched.
	require.NoError(t, p.Unlock(password))

	t.Run("assign", func(t *testing.T) {
		p.Lock()
		cp.SetMeta(domain.Meta{domain.MetaName: "bob"})

		require.NoError(t, p.Assign(cp))
		require.True(t, p.IsLocked())
		require.Equal(t, "bob", p.Meta().Name())
		require.ErrorIs(t, p.Unlock(password), domain.ErrInvalidPassword)
		require.NoError(t, p.Unlock(newPassword))

		other, err := domain.NewPair(domain.NewPairArgs{
			Seed:   bytes.Repeat([]byte{2}, keypair.SeedSize),
			Prefix: keypair.DefaultAddressPrefix,
		})
		require.NoError(t, err)
		require.ErrorIs(t, p.Assign(other), domain.ErrInvalidAddress)
	})
}

func TestRecord(t *testing.T) {
	t.Parallel()

	p, err := newTestPair(password)
	require.NoError(t, err)

	record := p.ToRecord()
	require.True(t, record.IsAccount())
	require.Equal(t, p.Address(), record.Address)
	require.NotEmpty(t, record.Encoded)

	restored, err := domain.NewPairFromRecord(record, cypher)
	require.NoError(t, err)
	require.Equal(t, p.Address(), restored.Address())
	require.Equal(t, p.PublicKey(), restored.PublicKey())
	require.Equal(t, p.Meta(), restored.Meta())
	require.True(t, restored.IsLocked())
	require.NoError(t, restored.Unlock(password))

	plain, err := newTestPair("")
	require.NoError(t, err)
	restored, err = domain.NewPairFromRecord(plain.ToRecord(), nil)
	require.NoError(t, err)
	require.False(t, restored.IsLocked())

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()

		badAddress := p.ToRecord()
		badAddress.Address = "abc"

		badEncoded := plain.ToRecord()
		badEncoded.Encoded = bytes.Repeat([]byte{1}, 10)

		badKeyType := p.ToRecord()
		badKeyType.KeyType = keypair.KeyTypeEcdsa.String()

		other, err := keypair.FromSeed(keypair.FromSeedArgs{
			Seed: bytes.Repeat([]byte{2}, keypair.SeedSize),
		})
		require.NoError(t, err)
		otherAddress, err := other.Address(keypair.DefaultAddressPrefix)
		require.NoError(t, err)
		foreignAddress := p.ToRecord()
		foreignAddress.Address = otherAddress

		for _, r := range []*domain.Record{
			badAddress, badEncoded, badKeyType, foreignAddress,
			{Namespace: domain.AccountsNamespace, Address: p.Address()},
		} {
			pair, err := domain.NewPairFromRecord(r, cypher)
			require.ErrorIs(t, err, domain.ErrCorruptRecord)
			require.Nil(t, pair)
		}
	})
}

func TestToJSON(t *testing.T) {
	t.Parallel()

	p, err := newTestPair(password)
	require.NoError(t, err)

	exported, err := p.ToJSON(newPassword)
	require.NoError(t, err)
	require.Equal(t, p.Address(), exported.Address)
	require.True(t, exported.Encoding.IsEncrypted())
	require.Equal(t, "alice", exported.Meta["name"])

	buf, err := exported.Serialize()
	require.NoError(t, err)
	parsed, err := keypair.ParsePairJSON(buf)
	require.NoError(t, err)
	record, err := domain.RecordFromPairJSON(parsed)
	require.NoError(t, err)

	restored, err := domain.NewPairFromRecord(record, cypher)
	require.NoError(t, err)
	require.ErrorIs(t, restored.Unlock(password), domain.ErrInvalidPassword)
	require.NoError(t, restored.Unlock(newPassword))

	p.Lock()
	exported, err = p.ToJSON(newPassword)
	require.ErrorIs(t, err, domain.ErrPairLocked)
	require.Nil(t, exported)
}

func newTestPair(password string) (*domain.Pair, error) {
	return domain.NewPair(domain.NewPairArgs{
		Seed:     seed,
		Password: password,
		Meta:     domain.Meta{domain.MetaName: "alice"},
		Prefix:   keypair.DefaultAddressPrefix,
		Cypher:   cypher,
	})
}
