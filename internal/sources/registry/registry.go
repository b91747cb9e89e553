// Package registry maps marketplaces to their backend constructors.
// This package is separate from the backends to avoid circular dependencies.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/internal/sources/ozon"
	"github.com/agentstation/marketsync/internal/sources/yandex"
	"github.com/agentstation/marketsync/internal/transport"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
)

// Constructor creates a backend for one account.
type Constructor func(account market.Account, opts ...transport.Option) (sources.Backend, error)

var (
	mu       sync.RWMutex
	registry = map[market.Marketplace]Constructor{
		market.MarketplaceYandex: func(a market.Account, opts ...transport.Option) (sources.Backend, error) {
			c, err := yandex.NewClient(a, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		market.MarketplaceOzon: func(a market.Account, opts ...transport.Option) (sources.Backend, error) {
			c, err := ozon.NewClient(a, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
)

// Get creates a NEW backend for the account's marketplace.
// Each call returns a fresh backend with its own HTTP client and rate limiter.
func Get(account market.Account, opts ...transport.Option) (sources.Backend, error) {
	mu.RLock()
	newBackend, ok := registry[account.Marketplace]
	mu.RUnlock()
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "marketplace",
			Value:   account.Marketplace,
			Message: fmt.Sprintf("unsupported marketplace: %s", account.Marketplace),
		}
	}
	return newBackend(account, opts...)
}

// Register installs or replaces the constructor for a marketplace.
func Register(m market.Marketplace, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[m] = c
}

// Has checks if a marketplace has a backend implementation.
func Has(m market.Marketplace) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[m]
	return ok
}

// List returns all marketplaces with backend implementations, sorted.
func List() []market.Marketplace {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]market.Marketplace, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
