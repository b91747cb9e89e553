// Package marketsync reconciles a local watch inventory against Yandex
// Market and Ozon catalogs and pushes the resulting stock and price updates
// in batches sized to each API's limits.
//
// A Syncer runs one independent pipeline per configured account: list the
// remote offers, reconcile stocks and prices against the inventory, then
// submit stock batches followed by price batches. A failed account is
// reported and the remaining accounts still run.
//
//	s, err := marketsync.New(accounts, marketsync.WithConcurrency(2))
//	if err != nil {
//		return err
//	}
//	result, err := s.Sync(ctx, items)
//	if err != nil {
//		return err
//	}
//	return result.Err()
package marketsync

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/pagination"
)

// Syncer synchronizes inventory to a set of marketplace accounts.
type Syncer struct {
	accounts []market.Account
	config   *config
}

// New creates a Syncer for accounts. Account ids must be unique and every
// id in the account filter must name a configured account.
func New(accounts []market.Account, opts ...Option) (*Syncer, error) {
	if len(accounts) == 0 {
		return nil, errors.NewConfigError("accounts", "no marketplace accounts configured", nil)
	}

	cfg := defaultConfig()
	if err := cfg.apply(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	seen := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		if a.ID == "" {
			return nil, errors.NewValidationError("id", a.ID, "account id is required")
		}
		if _, dup := seen[a.ID]; dup {
			return nil, errors.NewValidationError("id", a.ID, "duplicate account id "+a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	for _, id := range cfg.accountFilter {
		if _, ok := seen[id]; !ok {
			return nil, errors.NewNotFoundError("account", id)
		}
	}

	return &Syncer{
		accounts: slices.Clone(accounts),
		config:   cfg,
	}, nil
}

// Accounts returns the accounts a Sync call will run, in configured order.
func (s *Syncer) Accounts() []market.Account {
	if len(s.config.accountFilter) == 0 {
		return slices.Clone(s.accounts)
	}
	selected := make([]market.Account, 0, len(s.config.accountFilter))
	for _, a := range s.accounts {
		if slices.Contains(s.config.accountFilter, a.ID) {
			selected = append(selected, a)
		}
	}
	return selected
}

// Offers lists the remote offer ids of one account.
func (s *Syncer) Offers(ctx context.Context, accountID string) ([]market.OfferID, error) {
	idx := slices.IndexFunc(s.accounts, func(a market.Account) bool { return a.ID == accountID })
	if idx < 0 {
		return nil, errors.NewNotFoundError("account", accountID)
	}
	account := s.accounts[idx]

	ctx = logging.WithAccount(s.context(ctx), account.ID, account.Marketplace.String())
	backend, err := s.config.newBackend(account)
	if err != nil {
		return nil, errors.WrapAccount(account.ID, StageSetup, err)
	}
	offers, err := fetchOffers(ctx, account, backend)
	if err != nil {
		return nil, errors.WrapAccount(account.ID, StageOffers, err)
	}
	return offers, nil
}

// context attaches the configured logger, if any.
func (s *Syncer) context(ctx context.Context) context.Context {
	if s.config.logger != nil {
		return logging.WithLogger(ctx, s.config.logger)
	}
	return ctx
}

func (s *Syncer) logger(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx)
}

func fetchOffers(ctx context.Context, account market.Account, backend sources.Backend) ([]market.OfferID, error) {
	p, err := pagination.New(backend, backend.Strategy(), backend.PageSize(), pagination.WithAccount(account.ID))
	if err != nil {
		return nil, err
	}
	return p.FetchAll(ctx)
}
