// Package ozon implements the Ozon Seller API backend.
package ozon

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/internal/transport"
	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/pagination"
	"github.com/agentstation/marketsync/pkg/submit"
)

// DefaultBaseURL is the Ozon Seller API root.
const DefaultBaseURL = "https://api-seller.ozon.ru"

// Batch limits per request. Price batches default below the API maximum.
var (
	DefaultLimits = submit.Limits{Stocks: constants.OzonStockBatchSize, Prices: constants.OzonDefaultPriceBatchSize}
	MaxLimits     = submit.Limits{Stocks: constants.OzonStockBatchSize, Prices: constants.OzonPriceBatchSize}
)

// Client implements sources.Backend for one Ozon seller.
type Client struct {
	transport *transport.Client
	limits    submit.Limits
}

var _ sources.Backend = (*Client)(nil)

// NewClient creates a client for an Ozon account.
func NewClient(account market.Account, opts ...transport.Option) (*Client, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	limits, err := sources.ResolveLimits(account, DefaultLimits, MaxLimits)
	if err != nil {
		return nil, err
	}

	baseURL := account.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if account.RequestsPerSecond > 0 {
		opts = append([]transport.Option{transport.WithRateLimit(account.RequestsPerSecond, constants.RequestBurst)}, opts...)
	}

	auth := &transport.SellerAuth{ClientID: account.ClientID, APIKey: account.Token}
	return &Client{
		transport: transport.New(market.MarketplaceOzon.String(), baseURL, auth, opts...),
		limits:    limits,
	}, nil
}

// Marketplace implements sources.Backend.
func (c *Client) Marketplace() market.Marketplace {
	return market.MarketplaceOzon
}

// Strategy implements sources.Backend: the listing reports its total size.
func (c *Client) Strategy() pagination.Strategy {
	return pagination.NewCountStrategy()
}

// PageSize implements sources.Backend.
func (c *Client) PageSize() int {
	return constants.OzonPageSize
}

// Limits implements sources.Backend.
func (c *Client) Limits() submit.Limits {
	return c.limits
}

// FetchPage lists one page of the seller's products. The cursor is the
// last_id returned by the previous page.
func (c *Client) FetchPage(ctx context.Context, cursor string, limit int) (*pagination.Page, error) {
	body := productListRequest{
		Filter: productFilter{Visibility: visibilityAll},
		LastID: cursor,
		Limit:  limit,
	}

	var resp productListResponse
	if err := c.transport.Post(ctx, "/v2/product/list", body, &resp); err != nil {
		return nil, err
	}

	page := &pagination.Page{
		OfferIDs:   make([]market.OfferID, 0, len(resp.Result.Items)),
		NextCursor: resp.Result.LastID,
		Total:      resp.Result.Total,
	}
	for _, item := range resp.Result.Items {
		page.OfferIDs = append(page.OfferIDs, market.OfferID(item.OfferID))
	}
	return page, nil
}

// SubmitStocks pushes one batch of stock counts.
func (c *Client) SubmitStocks(ctx context.Context, records []market.StockRecord) (market.Ack, error) {
	body := stocksRequest{Stocks: make([]stockEntry, 0, len(records))}
	for _, r := range records {
		body.Stocks = append(body.Stocks, stockEntry{OfferID: string(r.OfferID), Stock: r.Count})
	}

	var ack json.RawMessage
	if err := c.transport.Post(ctx, "/v1/product/import/stocks", body, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// SubmitPrices pushes one batch of prices. Automatic promotions are left
// as they are and no crossed-out price is set.
func (c *Client) SubmitPrices(ctx context.Context, records []market.PriceRecord) (market.Ack, error) {
	body := pricesRequest{Prices: make([]priceEntry, 0, len(records))}
	for _, r := range records {
		currency := r.Currency
		if currency == "" {
			currency = market.CurrencyRUB
		}
		body.Prices = append(body.Prices, priceEntry{
			AutoActionEnabled: autoActionUnknown,
			CurrencyCode:      string(currency),
			OfferID:           string(r.OfferID),
			OldPrice:          "0",
			Price:             strconv.Itoa(r.Value),
		})
	}

	var ack json.RawMessage
	if err := c.transport.Post(ctx, "/v1/product/import/prices", body, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}
