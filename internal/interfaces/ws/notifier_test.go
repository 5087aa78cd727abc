package ws_interface_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
	pair_store "github.com/vulpemventures/keyring/internal/infrastructure/pair-store/in-memory"
	"github.com/vulpemventures/keyring/internal/infrastructure/storage/db/inmemory"
	ws_interface "github.com/vulpemventures/keyring/internal/interfaces/ws"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var ctx = context.Background()

func TestNotifier(t *testing.T) {
	keyring := application.NewKeyringService(
		inmemory.NewRepoManager(), pair_store.NewInMemoryPairStore(),
		keypair.NewCypher(1<<10), keypair.KeyTypeEd25519, 42, false,
	)
	mux, notifiers := ws_interface.NewHandler(keyring)
	server := httptest.NewServer(mux)
	defer server.Close()
	defer func() {
		for _, n := range notifiers {
			n.Close()
		}
	}()

	pair, err := keyring.CreateAccount(
		ctx, make([]byte, 32), "pw", domain.Meta{domain.MetaName: "alice"},
	)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url+"/accounts", nil)
	require.NoError(t, err)
	defer conn.Close()

	// The current entries are sent right after connecting.
	msg := readMessage(t, conn)
	require.Equal(t, application.SubjectEntryAdded.String(), msg.EventType)
	require.Equal(t, application.AccountsSubject, msg.Subject)
	require.Equal(t, pair.Address(), msg.Address)
	require.Equal(t, "alice", msg.Meta[domain.MetaName])
	require.False(t, msg.IsLocked)

	require.Eventually(t, func() bool {
		return notifiers[0].NumOfClients() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, keyring.Lock(pair.Address()))
	msg = readMessage(t, conn)
	require.Equal(t, application.SubjectEntryUpdated.String(), msg.EventType)
	require.True(t, msg.IsLocked)

	require.NoError(t, keyring.ForgetAccount(ctx, pair.Address()))
	msg = readMessage(t, conn)
	require.Equal(t, application.SubjectEntryRemoved.String(), msg.EventType)
	require.Equal(t, pair.Address(), msg.Address)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return notifiers[0].NumOfClients() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) ws_interface.EventMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, buf, err := conn.ReadMessage()
	require.NoError(t, err)

	msg := ws_interface.EventMessage{}
	require.NoError(t, json.Unmarshal(buf, &msg))
	return msg
}
