// Package metrics records run metrics in a private prometheus registry.
// A sync run is a short batch job, so metrics are written to a node
// exporter textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all marketsync metrics
type Metrics struct {
	registry *prometheus.Registry

	// Submission metrics
	BatchesTotal  *prometheus.CounterVec
	RecordsTotal  *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec

	// Account pipeline metrics
	AccountsTotal   *prometheus.CounterVec
	AccountDuration *prometheus.HistogramVec
	RemoteOffers    *prometheus.GaugeVec
	SkippedItems    *prometheus.CounterVec

	// Run metrics
	InventoryItems   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// Config holds metrics configuration
type Config struct {
	Namespace string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{Namespace: "marketsync"}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}
	ns := config.Namespace

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "batches_total",
				Help:      "Submitted batches by account, record kind and outcome",
			},
			[]string{"account", "kind", "outcome"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "records_total",
				Help:      "Records carried by submitted batches",
			},
			[]string{"account", "kind", "outcome"},
		),
		BatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "batch_duration_seconds",
				Help:      "Marketplace round trip time per batch",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"account", "kind"},
		),
		AccountsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "accounts_total",
				Help:      "Account pipelines by outcome and failed stage",
			},
			[]string{"account", "outcome", "stage"},
		),
		AccountDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "account_duration_seconds",
				Help:      "Duration of one account pipeline",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"account"},
		),
		RemoteOffers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "remote_offers",
				Help:      "Offers listed in the account's remote catalog",
			},
			[]string{"account"},
		),
		SkippedItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "skipped_items_total",
				Help:      "Inventory items skipped because they could not be normalized",
			},
			[]string{"account", "kind"},
		),
		InventoryItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "inventory_items",
				Help:      "Rows in the loaded inventory feed",
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
	}

	m.registry.MustRegister(
		m.BatchesTotal,
		m.RecordsTotal,
		m.BatchDuration,
		m.AccountsTotal,
		m.AccountDuration,
		m.RemoteOffers,
		m.SkippedItems,
		m.InventoryItems,
		m.LastRunTimestamp,
	)
	return m
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch records one batch submission.
func (m *Metrics) ObserveBatch(account, kind, outcome string, size int, elapsed time.Duration) {
	m.BatchesTotal.WithLabelValues(account, kind, outcome).Inc()
	m.RecordsTotal.WithLabelValues(account, kind, outcome).Add(float64(size))
	if elapsed > 0 {
		m.BatchDuration.WithLabelValues(account, kind).Observe(elapsed.Seconds())
	}
}

// ObserveAccount records a finished account pipeline. stage is empty on success.
func (m *Metrics) ObserveAccount(account string, offers int, stage string, elapsed time.Duration) {
	outcome := "success"
	if stage != "" {
		outcome = "failure"
	}
	m.AccountsTotal.WithLabelValues(account, outcome, stage).Inc()
	m.AccountDuration.WithLabelValues(account).Observe(elapsed.Seconds())
	m.RemoteOffers.WithLabelValues(account).Set(float64(offers))
}

// ObserveSkipped records inventory items skipped for an account.
func (m *Metrics) ObserveSkipped(account, kind string, n int) {
	if n > 0 {
		m.SkippedItems.WithLabelValues(account, kind).Add(float64(n))
	}
}

// ObserveRun records the inventory size and the run completion time.
func (m *Metrics) ObserveRun(items int, finished time.Time) {
	m.InventoryItems.Set(float64(items))
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format to path,
// atomically, for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
