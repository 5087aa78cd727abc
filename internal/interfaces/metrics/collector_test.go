package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
	pair_store "github.com/vulpemventures/keyring/internal/infrastructure/pair-store/in-memory"
	"github.com/vulpemventures/keyring/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/keyring/internal/interfaces/metrics"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

func TestCollector(t *testing.T) {
	ctx := context.Background()
	svc := application.NewKeyringService(
		inmemory.NewRepoManager(), pair_store.NewInMemoryPairStore(),
		keypair.NewCypher(1<<10), keypair.KeyTypeEd25519, 42, false,
	)
	collector := metrics.NewCollector(svc)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(collector))

	pair, err := svc.CreateAccount(ctx, make([]byte, 32), "pw", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SaveAddress(ctx, pair.Address(), domain.Meta{}))

	require.Equal(t, float64(1), gauge(t, reg, "keyring_accounts"))
	require.Equal(t, float64(1), gauge(t, reg, "keyring_addresses"))
	require.Equal(t, float64(1), gauge(t, reg, "keyring_unlocked_accounts"))

	require.NoError(t, svc.Lock(pair.Address()))
	require.Equal(t, float64(0), gauge(t, reg, "keyring_unlocked_accounts"))

	require.NoError(t, svc.ForgetAccount(ctx, pair.Address()))
	require.Equal(t, float64(0), gauge(t, reg, "keyring_accounts"))

	// Record events are counted asynchronously.
	require.Eventually(t, func() bool {
		return numOfSeries(t, reg, "keyring_record_writes_total") == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func gauge(t *testing.T, reg *prometheus.Registry, name string) float64 {
	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func numOfSeries(t *testing.T, reg *prometheus.Registry, name string) int {
	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() == name {
			return len(mf.GetMetric())
		}
	}
	return 0
}
