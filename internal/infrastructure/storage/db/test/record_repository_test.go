package db_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
	dbbadger "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/badger"
	dbbolt "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/bolt"
	"github.com/vulpemventures/keyring/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var (
	ctx         = context.Background()
	seed        = make([]byte, keypair.SeedSize)
	password    = "password"
	cypher      = keypair.NewCypher(1 << 10)
	pgHostEnv   = "KEYRING_TEST_DB_HOST"
	pgPortEnv   = "KEYRING_TEST_DB_PORT"
	eventsDelay = 2 * time.Second
)

func TestRecordRepository(t *testing.T) {
	repoManagers := newRepoManagers(t)

	for name, repoManager := range repoManagers {
		repoManager := repoManager
		t.Run(name, func(t *testing.T) {
			repoManager.Reset()
			defer repoManager.Close()

			chEvents := make(chan domain.RecordEvent, 10)
			handler := func(event domain.RecordEvent) {
				t.Logf(
					"received event from %s repo: {EventType: %s, Namespace: %s, Address: %s}",
					name, event.EventType, event.Namespace, event.Address,
				)
				chEvents <- event
			}
			repoManager.RegisterHandlerForRecordEvent(domain.RecordSet, handler)
			repoManager.RegisterHandlerForRecordEvent(domain.RecordRemoved, handler)

			testRecordRepository(t, repoManager.RecordRepository(), chEvents)
		})
	}
}

func testRecordRepository(
	t *testing.T, repo domain.RecordRepository, chEvents chan domain.RecordEvent,
) {
	pair, err := domain.NewPair(domain.NewPairArgs{
		Seed:     seed,
		Password: password,
		Meta:     domain.Meta{domain.MetaName: "alice", "custom": "value"},
		Prefix:   keypair.DefaultAddressPrefix,
		Cypher:   cypher,
	})
	require.NoError(t, err)
	address := pair.Address()

	t.Run("set_account_record", func(t *testing.T) {
		record, err := repo.GetRecord(ctx, domain.AccountsNamespace, address)
		require.NoError(t, err)
		require.Nil(t, record)

		err = repo.SetRecord(ctx, pair.ToRecord())
		require.NoError(t, err)
		requireEvent(t, chEvents, domain.RecordSet, address)

		record, err = repo.GetRecord(ctx, domain.AccountsNamespace, address)
		require.NoError(t, err)
		require.NotNil(t, record)
		require.True(t, record.IsAccount())
		require.Equal(t, address, record.Address)
		require.Equal(t, pair.PublicKey(), record.PublicKey)
		require.Equal(t, pair.ToRecord().Encoded, record.Encoded)
		require.Equal(t, pair.ToRecord().Encoding, record.Encoding)
		require.Equal(t, "alice", record.Meta.Name())
		require.Equal(t, "value", record.Meta["custom"])

		whenCreated, _ := pair.Meta().GetInt64(domain.MetaWhenCreated)
		gotWhenCreated, ok := record.Meta.GetInt64(domain.MetaWhenCreated)
		require.True(t, ok)
		require.Equal(t, whenCreated, gotWhenCreated)

		restored, err := domain.NewPairFromRecord(record, cypher)
		require.NoError(t, err)
		require.NoError(t, restored.Unlock(password))

		record, err = repo.GetRecord(ctx, domain.AddressesNamespace, address)
		require.NoError(t, err)
		require.Nil(t, record)
	})

	t.Run("set_address_record", func(t *testing.T) {
		err := repo.SetRecord(ctx, domain.NewAddressRecord(
			address, domain.Meta{domain.MetaIsRecent: true},
		))
		require.NoError(t, err)
		requireEvent(t, chEvents, domain.RecordSet, address)

		err = repo.SetRecord(ctx, domain.NewAddressRecord(
			address, domain.Meta{domain.MetaName: "bob"},
		))
		require.NoError(t, err)
		requireEvent(t, chEvents, domain.RecordSet, address)

		record, err := repo.GetRecord(ctx, domain.AddressesNamespace, address)
		require.NoError(t, err)
		require.NotNil(t, record)
		require.False(t, record.IsAccount())
		require.Empty(t, record.Encoded)
		require.Equal(t, "bob", record.Meta.Name())
		require.False(t, record.Meta.IsRecent())
	})

	t.Run("for_each", func(t *testing.T) {
		for _, ns := range domain.Namespaces {
			count := 0
			err := repo.ForEach(ctx, ns, func(r *domain.Record) error {
				require.Equal(t, ns, r.Namespace)
				require.Equal(t, address, r.Address)
				count++
				return nil
			})
			require.NoError(t, err)
			require.Equal(t, 1, count)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name   string
			record *domain.Record
			err    error
		}{
			{"nil_record", nil, domain.ErrMissingRecord},
			{"unknown_namespace", &domain.Record{Namespace: "x", Address: address}, domain.ErrUnknownNamespace},
			{"missing_address", &domain.Record{Namespace: domain.AddressesNamespace}, domain.ErrInvalidAddress},
			{"missing_encoded", &domain.Record{Namespace: domain.AccountsNamespace, Address: address}, domain.ErrCorruptRecord},
		}
		for _, tt := range tests {
			err := repo.SetRecord(ctx, tt.record)
			require.ErrorIs(t, err, tt.err, tt.name)
		}

		record, err := repo.GetRecord(ctx, "x", address)
		require.ErrorIs(t, err, domain.ErrUnknownNamespace)
		require.Nil(t, record)

		err = repo.RemoveRecord(ctx, "x", address)
		require.ErrorIs(t, err, domain.ErrUnknownNamespace)

		err = repo.ForEach(ctx, "x", func(*domain.Record) error { return nil })
		require.ErrorIs(t, err, domain.ErrUnknownNamespace)
	})

	t.Run("remove_record", func(t *testing.T) {
		for _, ns := range domain.Namespaces {
			err := repo.RemoveRecord(ctx, ns, address)
			require.NoError(t, err)
			requireEvent(t, chEvents, domain.RecordRemoved, address)

			record, err := repo.GetRecord(ctx, ns, address)
			require.NoError(t, err)
			require.Nil(t, record)

			err = repo.RemoveRecord(ctx, ns, address)
			require.NoError(t, err)
		}
	})
}

func requireEvent(
	t *testing.T, chEvents chan domain.RecordEvent,
	eventType domain.RecordEventType, address string,
) {
	select {
	case event := <-chEvents:
		require.Equal(t, eventType, event.EventType)
		require.Equal(t, address, event.Address)
	case <-time.After(eventsDelay):
		t.Fatalf("timeout waiting for %s event", eventType)
	}
}

func newRepoManagers(t *testing.T) map[string]ports.RepoManager {
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	boltRepoManager, err := dbbolt.NewRepoManager(t.TempDir())
	require.NoError(t, err)

	repoManagers := map[string]ports.RepoManager{
		"inmemory": inmemory.NewRepoManager(),
		"badger":   badgerRepoManager,
		"bolt":     boltRepoManager,
	}

	// Postgres runs only against a live db, ie. when the host is set.
	if host := os.Getenv(pgHostEnv); host != "" {
		port, _ := strconv.Atoi(os.Getenv(pgPortEnv))
		if port == 0 {
			port = 5432
		}
		pgRepoManager, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
			DbUser:     "root",
			DbPassword: "secret",
			DbHost:     host,
			DbPort:     port,
			DbName:     "keyring-db-test",
		})
		require.NoError(t, err)
		repoManagers["postgres"] = pgRepoManager
	}

	return repoManagers
}
