// Package market defines the records exchanged between the local inventory
// feed and the marketplace catalogs: inventory rows, offer identifiers, and
// the stock and price updates pushed back to each marketplace account.
package market

import (
	"encoding/json"
	"time"
)

// Marketplace identifies a marketplace backend.
type Marketplace string

// Supported marketplaces.
const (
	MarketplaceYandex Marketplace = "yandex"
	MarketplaceOzon   Marketplace = "ozon"
)

// String returns the marketplace name.
func (m Marketplace) String() string {
	return string(m)
}

// Currency is the currency code a marketplace expects in price updates.
type Currency string

// Currency codes as each marketplace spells the ruble.
const (
	CurrencyRUR Currency = "RUR" // Yandex Market
	CurrencyRUB Currency = "RUB" // Ozon
)

// CurrencyFor returns the currency a marketplace expects.
func CurrencyFor(m Marketplace) Currency {
	if m == MarketplaceYandex {
		return CurrencyRUR
	}
	return CurrencyRUB
}

// OfferID identifies one offer within a marketplace account's catalog.
type OfferID string

// InventoryItem is one row of the local inventory feed.
// All fields are raw strings as they appear in the feed.
type InventoryItem struct {
	Code     string `json:"code" yaml:"code"`
	Quantity string `json:"quantity" yaml:"quantity"`
	Price    string `json:"price" yaml:"price"`
}

// StockRecord is a stock count to push for one offer.
type StockRecord struct {
	OfferID     OfferID   `json:"offer_id" yaml:"offer_id"`
	Count       int       `json:"count" yaml:"count"`
	WarehouseID string    `json:"warehouse_id,omitempty" yaml:"warehouse_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// PriceRecord is a price to push for one offer.
type PriceRecord struct {
	OfferID  OfferID  `json:"offer_id" yaml:"offer_id"`
	Value    int      `json:"value" yaml:"value"`
	Currency Currency `json:"currency" yaml:"currency"`
}

// Ack is a marketplace acknowledgement payload, kept opaque.
type Ack = json.RawMessage

// Available returns the records with a non-zero count, in order.
func Available(records []StockRecord) []StockRecord {
	out := make([]StockRecord, 0, len(records))
	for _, r := range records {
		if r.Count != 0 {
			out = append(out, r)
		}
	}
	return out
}
