// Package yandex implements the Yandex Market partner API backend.
package yandex

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/internal/transport"
	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/pagination"
	"github.com/agentstation/marketsync/pkg/submit"
)

// DefaultBaseURL is the Yandex Market partner API root.
const DefaultBaseURL = "https://api.partner.market.yandex.ru"

// Batch limits per request.
var (
	DefaultLimits = submit.Limits{Stocks: constants.YandexStockBatchSize, Prices: constants.YandexPriceBatchSize}
	MaxLimits     = DefaultLimits
)

// Client implements sources.Backend for one Yandex campaign.
type Client struct {
	transport   *transport.Client
	campaignID  string
	warehouseID string
	limits      submit.Limits
}

var _ sources.Backend = (*Client)(nil)

// NewClient creates a client for a Yandex account.
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

	return &Client{
		transport:   transport.New(market.MarketplaceYandex.String(), baseURL, &transport.BearerAuth{Token: account.Token}, opts...),
		campaignID:  account.CampaignID,
		warehouseID: account.WarehouseID,
		limits:      limits,
	}, nil
}

// Marketplace implements sources.Backend.
func (c *Client) Marketplace() market.Marketplace {
	return market.MarketplaceYandex
}

// Strategy implements sources.Backend: the last page has no next page token.
func (c *Client) Strategy() pagination.Strategy {
	return pagination.NewCursorStrategy()
}

// PageSize implements sources.Backend.
func (c *Client) PageSize() int {
	return constants.YandexPageSize
}

// Limits implements sources.Backend.
func (c *Client) Limits() submit.Limits {
	return c.limits
}

// FetchPage lists one page of the campaign's offer mapping entries.
func (c *Client) FetchPage(ctx context.Context, cursor string, limit int) (*pagination.Page, error) {
	query := url.Values{}
	query.Set("page_token", cursor)
	query.Set("limit", strconv.Itoa(limit))

	var resp offerMappingResponse
	if err := c.transport.Get(ctx, c.campaignPath("/offer-mapping-entries"), query, &resp); err != nil {
		return nil, err
	}

	page := &pagination.Page{
		OfferIDs:   make([]market.OfferID, 0, len(resp.Result.OfferMappingEntries)),
		NextCursor: resp.Result.Paging.NextPageToken,
	}
	for _, entry := range resp.Result.OfferMappingEntries {
		page.OfferIDs = append(page.OfferIDs, market.OfferID(entry.Offer.ShopSku))
	}
	return page, nil
}

// SubmitStocks pushes one batch of stock counts to the campaign warehouse.
func (c *Client) SubmitStocks(ctx context.Context, records []market.StockRecord) (market.Ack, error) {
	body := stocksRequest{SKUs: make([]skuStock, 0, len(records))}
	for _, r := range records {
		warehouse := r.WarehouseID
		if warehouse == "" {
			warehouse = c.warehouseID
		}
		body.SKUs = append(body.SKUs, skuStock{
			SKU:         string(r.OfferID),
			WarehouseID: warehouse,
			Items: []stockItem{{
				Count:     r.Count,
				Type:      stockTypeFit,
				UpdatedAt: r.UpdatedAt.UTC().Format(constants.StockTimestampLayout),
			}},
		})
	}

	var ack json.RawMessage
	if err := c.transport.Put(ctx, c.campaignPath("/offers/stocks"), body, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// SubmitPrices pushes one batch of prices.
func (c *Client) SubmitPrices(ctx context.Context, records []market.PriceRecord) (market.Ack, error) {
	body := pricesRequest{Offers: make([]offerPrice, 0, len(records))}
	for _, r := range records {
		currency := r.Currency
		if currency == "" {
			currency = market.CurrencyRUR
		}
		body.Offers = append(body.Offers, offerPrice{
			ID:    string(r.OfferID),
			Price: priceValue{Value: r.Value, CurrencyID: string(currency)},
		})
	}

	var ack json.RawMessage
	if err := c.transport.Post(ctx, c.campaignPath("/offer-prices/updates"), body, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (c *Client) campaignPath(suffix string) string {
	return "/campaigns/" + url.PathEscape(c.campaignID) + suffix
}
