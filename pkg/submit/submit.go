// Package submit pushes stock and price records to a marketplace in
// size-bounded batches, one request per batch, strictly in order.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/marketsync/pkg/batch"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
)

// Record set kinds, as reported in errors, logs and metrics.
const (
	KindStocks = "stocks"
	KindPrices = "prices"
)

// Batch outcomes reported to a Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDryRun  = "dry_run"
)

// Backend sends one batch to a marketplace.
type Backend interface {
	SubmitStocks(ctx context.Context, records []market.StockRecord) (market.Ack, error)
	SubmitPrices(ctx context.Context, records []market.PriceRecord) (market.Ack, error)
}

// Recorder observes batch submissions.
type Recorder interface {
	ObserveBatch(account, kind, outcome string, size int, elapsed time.Duration)
}

// Limits are the maximum records per request for each record kind.
type Limits struct {
	Stocks int `json:"stocks" yaml:"stocks"`
	Prices int `json:"prices" yaml:"prices"`
}

// Validate checks that both limits are positive.
func (l Limits) Validate() error {
	if l.Stocks <= 0 {
		return errors.NewValidationError("stock_batch_size", l.Stocks, "must be positive")
	}
	if l.Prices <= 0 {
		return errors.NewValidationError("price_batch_size", l.Prices, "must be positive")
	}
	return nil
}

// Submitter submits batches for one account.
type Submitter struct {
	account  string
	backend  Backend
	limits   Limits
	dryRun   bool
	recorder Recorder
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithDryRun counts and logs batches without sending them.
func WithDryRun(dryRun bool) Option {
	return func(s *Submitter) {
		s.dryRun = dryRun
	}
}

// WithRecorder reports every batch outcome to r.
func WithRecorder(r Recorder) Option {
	return func(s *Submitter) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a Submitter for account.
func New(account string, backend Backend, limits Limits, opts ...Option) (*Submitter, error) {
	if backend == nil {
		return nil, errors.NewValidationError("backend", nil, "cannot be nil")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	s := &Submitter{
		account:  account,
		backend:  backend,
		limits:   limits,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Limits returns the batch limits in effect.
func (s *Submitter) Limits() Limits {
	return s.limits
}

// StockBatch submits one batch of stock records.
func (s *Submitter) StockBatch(ctx context.Context, records []market.StockRecord) (market.Ack, error) {
	return send(ctx, s, KindStocks, 0, records, s.limits.Stocks, s.backend.SubmitStocks)
}

// PriceBatch submits one batch of price records.
func (s *Submitter) PriceBatch(ctx context.Context, records []market.PriceRecord) (market.Ack, error) {
	return send(ctx, s, KindPrices, 0, records, s.limits.Prices, s.backend.SubmitPrices)
}

// Stocks splits records into batches and submits them in order. It stops at
// the first failed batch and returns the acknowledgements received before it.
func (s *Submitter) Stocks(ctx context.Context, records []market.StockRecord) ([]market.Ack, error) {
	return sendAll(ctx, s, KindStocks, records, s.limits.Stocks, s.backend.SubmitStocks)
}

// Prices splits records into batches and submits them in order. It stops at
// the first failed batch and returns the acknowledgements received before it.
func (s *Submitter) Prices(ctx context.Context, records []market.PriceRecord) ([]market.Ack, error) {
	return sendAll(ctx, s, KindPrices, records, s.limits.Prices, s.backend.SubmitPrices)
}

func sendAll[T any](ctx context.Context, s *Submitter, kind string, records []T, limit int, fn func(context.Context, []T) (market.Ack, error)) ([]market.Ack, error) {
	chunks, err := batch.Chunk(records, limit)
	if err != nil {
		return nil, err
	}

	total := batch.Count(len(records), limit)
	logging.FromContext(ctx).Info().
		Str("kind", kind).
		Int("records", len(records)).
		Int("batches", total).
		Bool("dry_run", s.dryRun).
		Msg("Submitting batches")

	acks := make([]market.Ack, 0, total)
	i := 0
	for chunk := range chunks {
		ack, err := send(ctx, s, kind, i, chunk, limit, fn)
		if err != nil {
			return acks, err
		}
		if ack != nil {
			acks = append(acks, ack)
		}
		i++
	}
	return acks, nil
}

func send[T any](ctx context.Context, s *Submitter, kind string, index int, records []T, limit int, fn func(context.Context, []T) (market.Ack, error)) (market.Ack, error) {
	if len(records) > limit {
		return nil, errors.NewValidationError("batch", len(records),
			fmt.Sprintf("batch of %d exceeds the maximum of %d %s records", len(records), limit, kind))
	}

	logger := logging.FromContext(ctx).With().
		Str("kind", kind).
		Int("batch", index).
		Int("size", len(records)).
		Logger()

	if s.dryRun {
		logger.Info().Msg("Dry run, batch not sent")
		s.recorder.ObserveBatch(s.account, kind, OutcomeDryRun, len(records), 0)
		return nil, nil
	}

	start := time.Now()
	ack, err := fn(ctx, records)
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.ObserveBatch(s.account, kind, OutcomeFailure, len(records), elapsed)
		logger.Warn().Err(err).Str("error_kind", errors.Kind(err)).Dur("elapsed", elapsed).Msg("Batch rejected")
		return nil, errors.NewSubmissionError(s.account, kind, index, len(records), err)
	}

	s.recorder.ObserveBatch(s.account, kind, OutcomeSuccess, len(records), elapsed)
	logger.Debug().Dur("elapsed", elapsed).Msg("Batch accepted")
	return ack, nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveBatch(string, string, string, int, time.Duration) {}
