package marketsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/marketsync/pkg/batch"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/reconcile"
	"github.com/agentstation/marketsync/pkg/submit"
)

// Sync runs the pipeline for every selected account. Account failures are
// recorded in the Result, not returned; the error is non-nil only when ctx
// ends before the run completes.
func (s *Syncer) Sync(ctx context.Context, inventory []market.InventoryItem) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(s.context(ctx), runID)
	logger := s.logger(ctx)

	accounts := s.Accounts()
	result := &Result{
		RunID:          runID,
		StartedAt:      time.Now(),
		DryRun:         s.config.dryRun,
		InventoryItems: len(inventory),
		Accounts:       make([]AccountResult, len(accounts)),
	}

	logger.Info().
		Int("accounts", len(accounts)).
		Int("inventory_items", len(inventory)).
		Int("concurrency", s.config.concurrency).
		Bool("dry_run", s.config.dryRun).
		Msg("Starting sync")

	// Each pipeline writes only its own slot and never returns an error,
	// so one account cannot cancel another.
	g := new(errgroup.Group)
	g.SetLimit(s.config.concurrency)
	for i, account := range accounts {
		g.Go(func() error {
			result.Accounts[i] = s.syncAccount(ctx, account, inventory)
			return nil
		})
	}
	_ = g.Wait()

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	if s.config.metrics != nil {
		s.config.metrics.ObserveRun(len(inventory), result.FinishedAt)
	}

	failed := len(result.Failed())
	event := logger.Info()
	if failed > 0 {
		event = logger.Warn()
	}
	event.
		Int("accounts", len(accounts)).
		Int("failed", failed).
		Dur("duration", result.Duration).
		Msg("Sync finished")

	return result, ctx.Err()
}

func (s *Syncer) syncAccount(ctx context.Context, account market.Account, inventory []market.InventoryItem) AccountResult {
	start := time.Now()
	ctx = logging.WithAccount(ctx, account.ID, account.Marketplace.String())
	res := AccountResult{Account: account.ID, Marketplace: account.Marketplace}

	stage, err := s.runAccount(ctx, account, inventory, &res)
	res.Duration = time.Since(start)
	if err != nil {
		err = errors.WrapAccount(account.ID, stage, err)
		res.Stage = stage
		res.Err = err
		res.Error = err.Error()

		// one record per failed account
		s.logger(ctx).Error().
			Err(err).
			Str("stage", stage).
			Str("error_kind", errors.Kind(err)).
			Dur("duration", res.Duration).
			Msg("Account sync failed")
	} else {
		s.logger(ctx).Info().
			Int("offers", res.Offers).
			Int("stocks", len(res.Stocks)).
			Int("available", len(res.Available)).
			Int("prices", len(res.Prices)).
			Int("skipped", len(res.Skipped)).
			Dur("duration", res.Duration).
			Msg("Account synced")
	}

	if m := s.config.metrics; m != nil {
		m.ObserveAccount(account.ID, res.Offers, res.Stage, res.Duration)
	}
	return res
}

// runAccount fills res and returns the stage that failed, if any.
func (s *Syncer) runAccount(ctx context.Context, account market.Account, inventory []market.InventoryItem, res *AccountResult) (string, error) {
	backend, err := s.config.newBackend(account)
	if err != nil {
		return StageSetup, err
	}

	offers, err := fetchOffers(logging.WithStage(ctx, StageOffers), account, backend)
	if err != nil {
		return StageOffers, err
	}
	res.Offers = len(offers)

	// Both record sets are built before anything is sent, so an aborted
	// reconciliation leaves the account untouched.
	rctx := logging.WithStage(ctx, StageReconcile)
	r, err := reconcile.New(
		reconcile.WithPolicy(s.config.policy),
		reconcile.WithClock(s.config.clock),
		reconcile.WithLogger(logging.FromContext(rctx)),
	)
	if err != nil {
		return StageReconcile, err
	}

	if s.config.stocks {
		stocks, report, err := r.Stocks(inventory, offers, account.WarehouseID)
		if err != nil {
			return StageReconcile, err
		}
		res.Stocks = stocks
		res.Available = market.Available(stocks)
		s.recordSkipped(account, res, report)
	}
	if s.config.prices {
		prices, report, err := r.Prices(inventory, offers, market.CurrencyFor(account.Marketplace))
		if err != nil {
			return StageReconcile, err
		}
		res.Prices = prices
		s.recordSkipped(account, res, report)
	}

	opts := []submit.Option{submit.WithDryRun(s.config.dryRun)}
	if s.config.metrics != nil {
		opts = append(opts, submit.WithRecorder(s.config.metrics))
	}
	submitter, err := submit.New(account.ID, backend, backend.Limits(), opts...)
	if err != nil {
		return StageSetup, err
	}
	limits := submitter.Limits()

	if s.config.stocks {
		res.StockBatches = batch.Count(len(res.Stocks), limits.Stocks)
		acks, err := submitter.Stocks(logging.WithStage(ctx, StageStocks), res.Stocks)
		res.StockAcks = acks
		if err != nil {
			return StageStocks, err
		}
	}
	if s.config.prices {
		res.PriceBatches = batch.Count(len(res.Prices), limits.Prices)
		acks, err := submitter.Prices(logging.WithStage(ctx, StagePrices), res.Prices)
		res.PriceAcks = acks
		if err != nil {
			return StagePrices, err
		}
	}
	return "", nil
}

func (s *Syncer) recordSkipped(account market.Account, res *AccountResult, report *reconcile.Report) {
	if report == nil || len(report.Skipped) == 0 {
		return
	}
	res.Skipped = append(res.Skipped, report.Skipped...)
	if m := s.config.metrics; m != nil {
		m.ObserveSkipped(account.ID, string(report.Kind), len(report.Skipped))
	}
}
