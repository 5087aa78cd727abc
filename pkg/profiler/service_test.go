package profiler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name string
		opts ServiceOpts
	}{
		{"missing_datadir", ServiceOpts{Port: 18101, StatsInterval: time.Second}},
		{"invalid_port", ServiceOpts{Port: 80, StatsInterval: time.Second, Datadir: t.TempDir()}},
		{"missing_interval", ServiceOpts{Port: 18101, Datadir: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.opts)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profiler_test_total",
		Help: "Test counter.",
	})
	counter.Inc()

	svc, err := NewService(ServiceOpts{
		Port:          18101,
		StatsInterval: time.Second,
		Datadir:       t.TempDir(),
		Collectors:    []prometheus.Collector{counter},
	})
	require.NoError(t, err)
	defer prometheus.Unregister(counter)

	server := httptest.NewServer(svc.server.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "profiler_test_total 1")
}
