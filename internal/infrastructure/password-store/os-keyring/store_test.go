package password_store_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/ports"
	password_store "github.com/vulpemventures/keyring/internal/infrastructure/password-store/os-keyring"
	"github.com/zalando/go-keyring"
)

func TestOSKeyringStore(t *testing.T) {
	keyring.MockInit()

	address := "5DfhGyQdFobKM8NsWvEeAKk5EQQgYe9AydgJ7rMB6E1EqRzV"
	store := password_store.NewOSKeyringStore("")

	password, err := store.Get(address)
	require.ErrorIs(t, err, ports.ErrPasswordNotFound)
	require.Empty(t, password)

	require.NoError(t, store.Set(address, "pw"))
	password, err = store.Get(address)
	require.NoError(t, err)
	require.Equal(t, "pw", password)

	other := password_store.NewOSKeyringStore("other")
	_, err = other.Get(address)
	require.ErrorIs(t, err, ports.ErrPasswordNotFound)

	require.NoError(t, store.Delete(address))
	require.NoError(t, store.Delete(address))
	_, err = store.Get(address)
	require.ErrorIs(t, err, ports.ErrPasswordNotFound)
}
