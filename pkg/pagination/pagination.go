// Package pagination walks a marketplace catalog page by page and returns
// every offer identifier in order of first appearance.
//
// The two marketplaces end their listings differently: Yandex returns an
// empty next-page token on the last page, Ozon reports a total item count.
// A Strategy captures that difference so one Paginator serves both.
package pagination

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
)

// Page is one page of a remote catalog listing.
type Page struct {
	// OfferIDs on this page, in listing order.
	OfferIDs []market.OfferID

	// NextCursor is the opaque token for the next page.
	NextCursor string

	// Total is the catalog size reported by count-based listings.
	Total int
}

// PageFetcher fetches a single catalog page.
// An empty cursor requests the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string, limit int) (*Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, cursor string, limit int) (*Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, cursor string, limit int) (*Page, error) {
	return f(ctx, cursor, limit)
}

// Paginator fetches a complete catalog through a PageFetcher.
type Paginator struct {
	fetcher  PageFetcher
	strategy Strategy
	limit    int
	account  string
	maxPages int
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithAccount labels errors and log records with the account id.
func WithAccount(account string) Option {
	return func(p *Paginator) {
		p.account = account
	}
}

// WithMaxPages overrides the page ceiling.
func WithMaxPages(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// New creates a Paginator requesting limit items per page.
func New(fetcher PageFetcher, strategy Strategy, limit int, opts ...Option) (*Paginator, error) {
	if fetcher == nil {
		return nil, errors.NewValidationError("fetcher", nil, "cannot be nil")
	}
	if strategy == nil {
		return nil, errors.NewValidationError("strategy", nil, "cannot be nil")
	}
	if limit <= 0 {
		return nil, errors.NewValidationError("limit", limit, "page size must be positive")
	}
	p := &Paginator{
		fetcher:  fetcher,
		strategy: strategy,
		limit:    limit,
		maxPages: constants.MaxCatalogPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FetchAll requests pages until the strategy reports the listing is complete.
// Duplicate ids across pages are dropped. Any failure discards what was
// collected and returns a *errors.PaginationError.
func (p *Paginator) FetchAll(ctx context.Context) ([]market.OfferID, error) {
	logger := logging.FromContext(ctx)

	var (
		ids   []market.OfferID
		seen  = make(map[market.OfferID]struct{})
		state State
	)

	for state.Page = 1; state.Page <= p.maxPages; state.Page++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewPaginationError(p.account, state.Page, err)
		}

		page, err := p.fetcher.FetchPage(ctx, state.Cursor, p.limit)
		if err != nil {
			return nil, errors.NewPaginationError(p.account, state.Page, err)
		}
		if page == nil {
			page = &Page{}
		}

		state.Fetched += len(page.OfferIDs)
		for _, id := range page.OfferIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		p.logPage(logger, state, page)

		done, err := p.strategy.Done(state, page)
		if err != nil {
			return nil, errors.NewPaginationError(p.account, state.Page, err)
		}
		if done {
			logger.Debug().
				Str("strategy", p.strategy.Name()).
				Int("pages", state.Page).
				Int("offers", len(ids)).
				Msg("Catalog listing complete")
			return ids, nil
		}
		state.Cursor = page.NextCursor
	}

	return nil, errors.NewPaginationError(p.account, p.maxPages,
		errors.New("page limit reached before the listing ended"))
}

func (p *Paginator) logPage(logger *zerolog.Logger, state State, page *Page) {
	logger.Debug().
		Int("page", state.Page).
		Int("items", len(page.OfferIDs)).
		Str("cursor", page.NextCursor).
		Int("total", page.Total).
		Msg("Fetched catalog page")
}
