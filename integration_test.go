package marketsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/marketsync/internal/transport"
	"github.com/agentstation/marketsync/pkg/market"
)

// recorder captures request bodies by path.
type recorder struct {
	mu     sync.Mutex
	bodies map[string][]json.RawMessage
}

func (r *recorder) add(path string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bodies == nil {
		r.bodies = map[string][]json.RawMessage{}
	}
	r.bodies[path] = append(r.bodies[path], body)
}

func (r *recorder) get(path string) []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[path]
}

func TestSyncAgainstMarketplaceAPIs(t *testing.T) {
	yandexCalls := &recorder{}
	yandexAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		yandexCalls.add(r.URL.Path, body)
		switch r.URL.Path {
		case "/campaigns/11/offer-mapping-entries":
			if r.URL.Query().Get("page_token") == "" {
				_, _ = w.Write([]byte(`{"result":{"paging":{"nextPageToken":"n"},"offerMappingEntries":[{"offer":{"shopSku":"A"}},{"offer":{"shopSku":"B"}}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"result":{"paging":{},"offerMappingEntries":[{"offer":{"shopSku":"C"}}]}}`))
		default:
			_, _ = w.Write([]byte(`{"status":"OK"}`))
		}
	}))
	defer yandexAPI.Close()

	ozonCalls := &recorder{}
	ozonAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ozonCalls.add(r.URL.Path, body)
		if r.URL.Path == "/v2/product/list" {
			_, _ = w.Write([]byte(`{"result":{"items":[{"product_id":1,"offer_id":"A"},{"product_id":2,"offer_id":"D"}],"total":2,"last_id":"x"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer ozonAPI.Close()

	accounts := []market.Account{
		{ID: "yandex-fbs", Marketplace: market.MarketplaceYandex, CampaignID: "11", WarehouseID: "77", Token: "y", BaseURL: yandexAPI.URL},
		{ID: "ozon", Marketplace: market.MarketplaceOzon, ClientID: "22", Token: "o", BaseURL: ozonAPI.URL},
	}
	s, err := New(accounts, WithTransportOptions(transport.WithRateLimit(0, 0)), quietLogger())
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), scenarioInventory)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	stocks := yandexCalls.get("/campaigns/11/offers/stocks")
	require.Len(t, stocks, 1)
	var stockBody struct {
		SKUs []struct {
			SKU         string `json:"sku"`
			WarehouseID string `json:"warehouseId"`
			Items       []struct {
				Count int `json:"count"`
			} `json:"items"`
		} `json:"skus"`
	}
	require.NoError(t, json.Unmarshal(stocks[0], &stockBody))
	require.Len(t, stockBody.SKUs, 3)
	assert.Equal(t, "A", stockBody.SKUs[0].SKU)
	assert.Equal(t, 100, stockBody.SKUs[0].Items[0].Count)
	assert.Equal(t, "77", stockBody.SKUs[2].WarehouseID)

	prices := yandexCalls.get("/campaigns/11/offer-prices/updates")
	require.Len(t, prices, 1)
	assert.JSONEq(t, `{"offers":[
		{"id":"A","price":{"value":100,"currencyId":"RUR"}},
		{"id":"B","price":{"value":50,"currencyId":"RUR"}}
	]}`, string(prices[0]))

	require.Len(t, ozonCalls.get("/v2/product/list"), 1)
	ozonStocks := ozonCalls.get("/v1/product/import/stocks")
	require.Len(t, ozonStocks, 1)
	assert.JSONEq(t, `{"stocks":[{"offer_id":"A","stock":100},{"offer_id":"D","stock":0}]}`, string(ozonStocks[0]))
	ozonPrices := ozonCalls.get("/v1/product/import/prices")
	require.Len(t, ozonPrices, 1)
	assert.JSONEq(t, `{"prices":[{"auto_action_enabled":"UNKNOWN","currency_code":"RUB","offer_id":"A","old_price":"0","price":"100"}]}`, string(ozonPrices[0]))
}
