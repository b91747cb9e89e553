package marketsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/marketsync/internal/metrics"
	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/pagination"
	"github.com/agentstation/marketsync/pkg/reconcile"
	"github.com/agentstation/marketsync/pkg/submit"
)

// fakeBackend serves a fixed catalog in pages of two and records batches.
type fakeBackend struct {
	marketplace market.Marketplace
	offers      []market.OfferID
	limits      submit.Limits
	listErr     error
	stockErr    error

	mu           sync.Mutex
	stockBatches [][]market.StockRecord
	priceBatches [][]market.PriceRecord
}

func (f *fakeBackend) FetchPage(_ context.Context, cursor string, _ int) (*pagination.Page, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if cursor != "" {
		_, _ = fmt.Sscanf(cursor, "%d", &start)
	}
	end := min(start+2, len(f.offers))
	page := &pagination.Page{OfferIDs: f.offers[start:end]}
	if end < len(f.offers) {
		page.NextCursor = fmt.Sprint(end)
	}
	return page, nil
}

func (f *fakeBackend) SubmitStocks(_ context.Context, records []market.StockRecord) (market.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	f.stockBatches = append(f.stockBatches, records)
	return json.RawMessage(`{"status":"OK"}`), nil
}

func (f *fakeBackend) SubmitPrices(_ context.Context, records []market.PriceRecord) (market.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceBatches = append(f.priceBatches, records)
	return json.RawMessage(`{"status":"OK"}`), nil
}

func (f *fakeBackend) Marketplace() market.Marketplace { return f.marketplace }
func (f *fakeBackend) Strategy() pagination.Strategy { return pagination.NewCursorStrategy() }
func (f *fakeBackend) PageSize() int { return 2 }
func (f *fakeBackend) Limits() submit.Limits { return f.limits }

var _ sources.Backend = (*fakeBackend)(nil)

func factory(backends map[string]*fakeBackend) Option {
	return WithBackendFactory(func(a market.Account) (sources.Backend, error) {
		b, ok := backends[a.ID]
		if !ok {
			return nil, errors.NewNotFoundError("backend", a.ID)
		}
		return b, nil
	})
}

var (
	yandexFBS = market.Account{ID: "yandex-fbs", Marketplace: market.MarketplaceYandex, CampaignID: "1", WarehouseID: "w1", Token: "t"}
	yandexDBS = market.Account{ID: "yandex-dbs", Marketplace: market.MarketplaceYandex, CampaignID: "2", WarehouseID: "w2", Token: "t"}
	ozonAcct  = market.Account{ID: "ozon", Marketplace: market.MarketplaceOzon, ClientID: "3", Token: "t"}
)

var scenarioInventory = []market.InventoryItem{
	{Code: "A", Quantity: ">10", Price: "100.00 руб"},
	{Code: "B", Quantity: "1", Price: "50.00 руб"},
}

func quietLogger() Option {
	return WithLogger(logging.NewNopLogger())
}

func TestSyncScenario(t *testing.T) {
	backend := &fakeBackend{
		marketplace: market.MarketplaceYandex,
		offers:      []market.OfferID{"A", "B", "C"},
		limits:      submit.Limits{Stocks: 2000, Prices: 500},
	}
	s, err := New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": backend}), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.InventoryItems)

	acct, ok := result.Account("yandex-fbs")
	require.True(t, ok)
	assert.True(t, acct.OK())
	assert.Equal(t, 3, acct.Offers)

	counts := map[market.OfferID]int{}
	for _, r := range acct.Stocks {
		counts[r.OfferID] = r.Count
		assert.Equal(t, "w1", r.WarehouseID)
	}
	assert.Equal(t, map[market.OfferID]int{"A": 100, "B": 0, "C": 0}, counts)
	assert.Len(t, acct.Available, 1)
	assert.Equal(t, []market.PriceRecord{
		{OfferID: "A", Value: 100, Currency: market.CurrencyRUR},
		{OfferID: "B", Value: 50, Currency: market.CurrencyRUR},
	}, acct.Prices)

	assert.Equal(t, 1, acct.StockBatches)
	assert.Equal(t, 1, acct.PriceBatches)
	assert.Len(t, acct.StockAcks, 1)
	require.Len(t, backend.stockBatches, 1)
	assert.Len(t, backend.stockBatches[0], 3)
	require.Len(t, backend.priceBatches, 1)
}

func TestSyncAccountsIndependent(t *testing.T) {
	tl := logging.NewTestLogger(t)
	backends := map[string]*fakeBackend{
		"yandex-fbs": {
			marketplace: market.MarketplaceYandex,
			listErr:     errors.NewTimeoutError("GET offer-mapping-entries", "30s", context.DeadlineExceeded),
			limits:      submit.Limits{Stocks: 2000, Prices: 500},
		},
		"yandex-dbs": {
			marketplace: market.MarketplaceYandex,
			offers:      []market.OfferID{"A", "B"},
			limits:      submit.Limits{Stocks: 2000, Prices: 500},
		},
		"ozon": {
			marketplace: market.MarketplaceOzon,
			offers:      []market.OfferID{"A", "Z"},
			limits:      submit.Limits{Stocks: 1, Prices: 900},
			stockErr:    errors.NewAPIError("ozon", 500, "internal"),
		},
	}
	s, err := New([]market.Account{yandexFBS, yandexDBS, ozonAcct}, factory(backends), WithLogger(tl.Logger))
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	require.Error(t, result.Err())
	require.Len(t, result.Failed(), 2)

	fbs, _ := result.Account("yandex-fbs")
	assert.Equal(t, StageOffers, fbs.Stage)
	assert.True(t, errors.IsTimeout(fbs.Err))
	var pageErr *errors.PaginationError
	assert.ErrorAs(t, fbs.Err, &pageErr)

	dbs, _ := result.Account("yandex-dbs")
	assert.True(t, dbs.OK())
	assert.Len(t, backends["yandex-dbs"].stockBatches, 1)

	oz, _ := result.Account("ozon")
	assert.Equal(t, StageStocks, oz.Stage)
	var subErr *errors.SubmissionError
	require.ErrorAs(t, oz.Err, &subErr)
	assert.Equal(t, 0, subErr.Batch)
	assert.Empty(t, backends["ozon"].priceBatches, "prices are not sent after a stock failure")

	var acctErr *errors.AccountError
	require.ErrorAs(t, result.Err(), &acctErr)

	// one failure record per failed account
	failures := 0
	for _, line := range tl.Lines() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["message"] == "Account sync failed" {
			failures++
			assert.NotEmpty(t, rec["run_id"])
			assert.NotEmpty(t, rec["account"])
		}
	}
	assert.Equal(t, 2, failures)
}

func TestSyncParseAbortSendsNothing(t *testing.T) {
	backend := &fakeBackend{
		marketplace: market.MarketplaceYandex,
		offers:      []market.OfferID{"A", "B"},
		limits:      submit.Limits{Stocks: 2000, Prices: 500},
	}
	inventory := []market.InventoryItem{
		{Code: "A", Quantity: "5", Price: "10"},
		{Code: "B", Quantity: "3", Price: "n/a"},
	}
	s, err := New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": backend}), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), inventory)
	require.NoError(t, err)

	acct, _ := result.Account("yandex-fbs")
	assert.Equal(t, StageReconcile, acct.Stage)
	assert.True(t, errors.IsParse(acct.Err))
	assert.Empty(t, backend.stockBatches)
	assert.Empty(t, backend.priceBatches)
}

func TestSyncParseSkip(t *testing.T) {
	backend := &fakeBackend{
		marketplace: market.MarketplaceOzon,
		offers:      []market.OfferID{"A", "B"},
		limits:      submit.Limits{Stocks: 100, Prices: 900},
	}
	inventory := []market.InventoryItem{
		{Code: "A", Quantity: "lots", Price: "10"},
		{Code: "B", Quantity: "3", Price: "n/a"},
	}
	m := metrics.New(nil)
	s, err := New([]market.Account{ozonAcct}, factory(map[string]*fakeBackend{"ozon": backend}),
		WithPolicy(reconcile.PolicySkip), WithMetrics(m), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), inventory)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	acct, _ := result.Account("ozon")
	assert.Len(t, acct.Skipped, 2)
	assert.Len(t, acct.Stocks, 2)
	assert.Equal(t, []market.PriceRecord{{OfferID: "A", Value: 10, Currency: market.CurrencyRUB}}, acct.Prices)
}

func TestSyncDryRun(t *testing.T) {
	offers := make([]market.OfferID, 5)
	for i := range offers {
		offers[i] = market.OfferID(fmt.Sprintf("SKU-%d", i))
	}
	backend := &fakeBackend{
		marketplace: market.MarketplaceOzon,
		offers:      offers,
		limits:      submit.Limits{Stocks: 2, Prices: 900},
	}
	s, err := New([]market.Account{ozonAcct}, factory(map[string]*fakeBackend{"ozon": backend}), WithDryRun(true), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.DryRun)

	acct, _ := result.Account("ozon")
	assert.Len(t, acct.Stocks, 5)
	assert.Equal(t, 3, acct.StockBatches)
	assert.Equal(t, 0, acct.PriceBatches)
	assert.Empty(t, backend.stockBatches)
}

func TestSyncConcurrentAndFiltered(t *testing.T) {
	backends := map[string]*fakeBackend{}
	for _, id := range []string{"yandex-fbs", "yandex-dbs", "ozon"} {
		backends[id] = &fakeBackend{
			marketplace: market.MarketplaceYandex,
			offers:      []market.OfferID{"A", "B", "C"},
			limits:      submit.Limits{Stocks: 1, Prices: 1},
		}
	}
	s, err := New([]market.Account{yandexFBS, yandexDBS, ozonAcct}, factory(backends),
		WithConcurrency(3), WithAccountFilter("ozon", "yandex-fbs"), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"yandex-fbs", "ozon"}, accountIDs(s.Accounts()))

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Equal(t, []string{"yandex-fbs", "ozon"}, []string{result.Accounts[0].Account, result.Accounts[1].Account})
	assert.Len(t, backends["yandex-fbs"].stockBatches, 3)
	assert.Len(t, backends["ozon"].priceBatches, 2)
	assert.Empty(t, backends["yandex-dbs"].stockBatches)
}

func TestSyncStageToggles(t *testing.T) {
	newBackend := func() *fakeBackend {
		return &fakeBackend{
			marketplace: market.MarketplaceYandex,
			offers:      []market.OfferID{"A", "B"},
			limits:      submit.Limits{Stocks: 10, Prices: 10},
		}
	}

	b := newBackend()
	s, err := New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": b}), WithStocksOnly(), quietLogger())
	require.NoError(t, err)
	_, err = s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	assert.Len(t, b.stockBatches, 1)
	assert.Empty(t, b.priceBatches)

	b = newBackend()
	s, err = New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": b}), WithPricesOnly(), quietLogger())
	require.NoError(t, err)
	_, err = s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	assert.Empty(t, b.stockBatches)
	assert.Len(t, b.priceBatches, 1)
}

func TestSyncStockTimestamp(t *testing.T) {
	backend := &fakeBackend{
		marketplace: market.MarketplaceYandex,
		offers:      []market.OfferID{"A", "C"},
		limits:      submit.Limits{Stocks: 10, Prices: 10},
	}
	now := time.Date(2024, 5, 6, 7, 8, 9, 500, time.UTC)
	s, err := New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": backend}),
		WithClock(func() time.Time { return now }), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	for _, r := range result.Accounts[0].Stocks {
		assert.Equal(t, now.Truncate(time.Second), r.UpdatedAt)
	}
}

func TestOffers(t *testing.T) {
	backend := &fakeBackend{
		marketplace: market.MarketplaceYandex,
		offers:      []market.OfferID{"A", "B", "C", "D", "E"},
		limits:      submit.Limits{Stocks: 10, Prices: 10},
	}
	s, err := New([]market.Account{yandexFBS}, factory(map[string]*fakeBackend{"yandex-fbs": backend}), quietLogger())
	require.NoError(t, err)

	offers, err := s.Offers(context.Background(), "yandex-fbs")
	require.NoError(t, err)
	assert.Equal(t, backend.offers, offers)

	_, err = s.Offers(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = New([]market.Account{yandexFBS, yandexFBS})
	assert.True(t, errors.IsValidationError(err))

	_, err = New([]market.Account{yandexFBS}, WithAccountFilter("ozon"))
	assert.True(t, errors.IsNotFound(err))

	_, err = New([]market.Account{yandexFBS}, WithConcurrency(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = New([]market.Account{yandexFBS}, WithBackendFactory(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestSetupFailureIsolated(t *testing.T) {
	s, err := New([]market.Account{yandexFBS, {ID: "broken", Marketplace: "wildberries"}}, quietLogger(),
		factory(map[string]*fakeBackend{"yandex-fbs": {
			marketplace: market.MarketplaceYandex,
			offers:      []market.OfferID{"A"},
			limits:      submit.Limits{Stocks: 10, Prices: 10},
		}}))
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	broken, _ := result.Account("broken")
	assert.Equal(t, StageSetup, broken.Stage)
	fbs, _ := result.Account("yandex-fbs")
	assert.True(t, fbs.OK())
}

func accountIDs(accounts []market.Account) []string {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return ids
}
