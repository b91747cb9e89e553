// Package sources defines the marketplace backend contract: list an
// account's catalog page by page and accept stock and price batches.
package sources

import (
	"fmt"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/pagination"
	"github.com/agentstation/marketsync/pkg/submit"
)

// Backend is one marketplace account's API.
type Backend interface {
	pagination.PageFetcher
	submit.Backend

	// Marketplace returns the marketplace the backend talks to.
	Marketplace() market.Marketplace

	// Strategy returns how the catalog listing signals its last page.
	Strategy() pagination.Strategy

	// PageSize is the fixed number of offers requested per page.
	PageSize() int

	// Limits are the batch sizes in effect for this account.
	Limits() submit.Limits
}

// ResolveLimits applies an account's batch size overrides to defaults,
// rejecting overrides above the marketplace maximum.
func ResolveLimits(account market.Account, defaults, maximum submit.Limits) (submit.Limits, error) {
	limits := defaults
	if account.StockBatchSize > 0 {
		if account.StockBatchSize > maximum.Stocks {
			return limits, errors.NewValidationError("stock_batch_size", account.StockBatchSize,
				fmt.Sprintf("%s allows at most %d stock records per request", account.Marketplace, maximum.Stocks))
		}
		limits.Stocks = account.StockBatchSize
	}
	if account.PriceBatchSize > 0 {
		if account.PriceBatchSize > maximum.Prices {
			return limits, errors.NewValidationError("price_batch_size", account.PriceBatchSize,
				fmt.Sprintf("%s allows at most %d price records per request", account.Marketplace, maximum.Prices))
		}
		limits.Prices = account.PriceBatchSize
	}
	return limits, nil
}
