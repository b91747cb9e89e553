package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBatch(t *testing.T) {
	m := New(nil)

	m.ObserveBatch("ozon", "stocks", "success", 100, 30*time.Millisecond)
	m.ObserveBatch("ozon", "stocks", "success", 50, 20*time.Millisecond)
	m.ObserveBatch("ozon", "prices", "failure", 900, time.Second)
	m.ObserveBatch("ozon", "prices", "dry_run", 10, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("ozon", "stocks", "success")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("ozon", "stocks", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("ozon", "prices", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BatchDuration))
}

func TestObserveAccount(t *testing.T) {
	m := New(DefaultConfig())

	m.ObserveAccount("yandex-fbs", 1200, "", 3*time.Second)
	m.ObserveAccount("ozon", 0, "offers", time.Second)
	m.ObserveSkipped("yandex-fbs", "stocks", 2)
	m.ObserveSkipped("yandex-fbs", "prices", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsTotal.WithLabelValues("yandex-fbs", "success", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsTotal.WithLabelValues("ozon", "failure", "offers")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.RemoteOffers.WithLabelValues("yandex-fbs")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedItems.WithLabelValues("yandex-fbs", "stocks")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SkippedItems))
}

func TestWriteTextfile(t *testing.T) {
	m := New(nil)
	m.ObserveRun(4200, time.Unix(1700000000, 0))
	m.ObserveBatch("yandex-fbs", "stocks", "success", 2000, time.Second)

	path := filepath.Join(t.TempDir(), "marketsync.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "marketsync_inventory_items 4200")
	assert.Contains(t, out, "marketsync_last_run_timestamp_seconds ")
	assert.Contains(t, out, `marketsync_batches_total{account="yandex-fbs",kind="stocks",outcome="success"} 1`)
}
