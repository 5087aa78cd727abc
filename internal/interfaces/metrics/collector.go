package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
)

const namespace = "keyring"

// Collector exposes the size of the keyring registries as gauges, and counts
// the writes to the record repository by namespace and kind.
type Collector struct {
	svc *application.KeyringService

	accounts     *prometheus.Desc
	addresses    *prometheus.Desc
	unlocked     *prometheus.Desc
	recordWrites *prometheus.CounterVec
}

// NewCollector returns a Collector for the given keyring, already counting
// the record events published by its repository.
func NewCollector(svc *application.KeyringService) *Collector {
	c := &Collector{
		svc: svc,
		accounts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "accounts"),
			"Number of accounts held by the keyring.", nil, nil,
		),
		addresses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "addresses"),
			"Number of saved addresses.", nil, nil,
		),
		unlocked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "unlocked_accounts"),
			"Number of accounts whose secret is currently in memory.", nil, nil,
		),
		recordWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_writes_total",
				Help:      "Number of writes to the record repository.",
			},
			[]string{"namespace", "event"},
		),
	}

	svc.RegisterHandlerForRecordEvent(domain.RecordSet, c.countRecordEvent)
	svc.RegisterHandlerForRecordEvent(domain.RecordRemoved, c.countRecordEvent)
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.accounts
	ch <- c.addresses
	ch <- c.unlocked
	c.recordWrites.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	accounts := c.svc.Accounts().All()
	unlocked := 0
	for _, account := range accounts {
		if !account.IsLocked {
			unlocked++
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.accounts, prometheus.GaugeValue, float64(len(accounts)),
	)
	ch <- prometheus.MustNewConstMetric(
		c.addresses, prometheus.GaugeValue, float64(c.svc.Addresses().Len()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.unlocked, prometheus.GaugeValue, float64(unlocked),
	)
	c.recordWrites.Collect(ch)
}

func (c *Collector) countRecordEvent(event domain.RecordEvent) {
	c.recordWrites.WithLabelValues(
		event.Namespace, event.EventType.String(),
	).Inc()
}
