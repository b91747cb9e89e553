package marketsync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/internal/metrics"
	"github.com/agentstation/marketsync/internal/sources"
	"github.com/agentstation/marketsync/internal/sources/registry"
	"github.com/agentstation/marketsync/internal/transport"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/reconcile"
)

// BackendFactory creates the backend an account is synced through.
type BackendFactory func(account market.Account) (sources.Backend, error)

// config holds Syncer configuration
type config struct {
	concurrency   int
	accountFilter []string
	dryRun        bool
	stocks        bool
	prices        bool
	policy        reconcile.Policy
	clock         func() time.Time
	metrics       *metrics.Metrics
	logger        *zerolog.Logger
	transportOpts []transport.Option
	newBackend    BackendFactory
}

func defaultConfig() *config {
	return &config{
		concurrency: 1,
		stocks:      true,
		prices:      true,
		policy:      reconcile.PolicyAbort,
		clock:       time.Now,
	}
}

// Option is a function that configures a Syncer
type Option func(*config) error

func (c *config) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	if c.newBackend == nil {
		transportOpts := c.transportOpts
		c.newBackend = func(a market.Account) (sources.Backend, error) {
			return registry.Get(a, transportOpts...)
		}
	}
	return nil
}

// WithConcurrency sets how many accounts are synced at once.
// Accounts run one after another by default.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return errors.NewValidationError("concurrency", n, "must be at least 1")
		}
		c.concurrency = n
		return nil
	}
}

// WithAccountFilter restricts a run to the given account ids.
// An empty filter selects every account.
func WithAccountFilter(ids ...string) Option {
	return func(c *config) error {
		c.accountFilter = ids
		return nil
	}
}

// WithDryRun reconciles and batches records without submitting them
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

// WithStocksOnly skips price reconciliation and submission
func WithStocksOnly() Option {
	return func(c *config) error {
		c.stocks, c.prices = true, false
		return nil
	}
}

// WithPricesOnly skips stock reconciliation and submission
func WithPricesOnly() Option {
	return func(c *config) error {
		c.stocks, c.prices = false, true
		return nil
	}
}

// WithPolicy sets how unparseable inventory items are handled
func WithPolicy(policy reconcile.Policy) Option {
	return func(c *config) error {
		if policy != reconcile.PolicyAbort && policy != reconcile.PolicySkip {
			return errors.NewValidationError("policy", policy, "unknown policy")
		}
		c.policy = policy
		return nil
	}
}

// WithClock sets the clock stock records are timestamped with
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		c.clock = now
		return nil
	}
}

// WithMetrics records batch and account outcomes in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithLogger sets the base logger. The logger in the Sync context is used
// when none is set.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithTransportOptions passes options to every marketplace HTTP client
func WithTransportOptions(opts ...transport.Option) Option {
	return func(c *config) error {
		c.transportOpts = append(c.transportOpts, opts...)
		return nil
	}
}

// WithBackendFactory replaces the marketplace registry lookup
func WithBackendFactory(f BackendFactory) Option {
	return func(c *config) error {
		if f == nil {
			return errors.NewValidationError("backend_factory", nil, "cannot be nil")
		}
		c.newBackend = f
		return nil
	}
}
