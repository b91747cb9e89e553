package marketsync

import (
	"time"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/reconcile"
)

// Pipeline stages an account can fail at.
const (
	StageSetup     = "setup"
	StageOffers    = "offers"
	StageReconcile = "reconcile"
	StageStocks    = "stocks"
	StagePrices    = "prices"
)

// Result is the outcome of one sync run.
type Result struct {
	RunID          string          `json:"run_id" yaml:"run_id"`
	StartedAt      time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time       `json:"finished_at" yaml:"finished_at"`
	Duration       time.Duration   `json:"duration" yaml:"duration"`
	DryRun         bool            `json:"dry_run" yaml:"dry_run"`
	InventoryItems int             `json:"inventory_items" yaml:"inventory_items"`
	Accounts       []AccountResult `json:"accounts" yaml:"accounts"`
}

// AccountResult is the outcome of one account pipeline.
type AccountResult struct {
	Account     string             `json:"account" yaml:"account"`
	Marketplace market.Marketplace `json:"marketplace" yaml:"marketplace"`
	Offers      int                `json:"offers" yaml:"offers"`

	// Stocks holds every stock record, Available the non-zero ones.
	Stocks    []market.StockRecord `json:"stocks,omitempty" yaml:"stocks,omitempty"`
	Available []market.StockRecord `json:"available,omitempty" yaml:"available,omitempty"`
	Prices    []market.PriceRecord `json:"prices,omitempty" yaml:"prices,omitempty"`

	StockBatches int `json:"stock_batches" yaml:"stock_batches"`
	PriceBatches int `json:"price_batches" yaml:"price_batches"`

	StockAcks []market.Ack `json:"-" yaml:"-"`
	PriceAcks []market.Ack `json:"-" yaml:"-"`

	Skipped  []reconcile.Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duration time.Duration       `json:"duration" yaml:"duration"`

	// Stage and Error describe a failed pipeline; Err keeps the typed error.
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	Err   error  `json:"-" yaml:"-"`
}

// OK reports whether the account pipeline finished without error.
func (a *AccountResult) OK() bool {
	return a.Err == nil
}

// Err joins the failures of every account, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for i := range r.Accounts {
		if r.Accounts[i].Err != nil {
			errs = append(errs, r.Accounts[i].Err)
		}
	}
	return errors.Join(errs...)
}

// Failed returns the accounts whose pipeline failed.
func (r *Result) Failed() []AccountResult {
	var failed []AccountResult
	for _, a := range r.Accounts {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// Account returns the result for the account with the given id.
func (r *Result) Account(id string) (*AccountResult, bool) {
	for i := range r.Accounts {
		if r.Accounts[i].Account == id {
			return &r.Accounts[i], true
		}
	}
	return nil, false
}
