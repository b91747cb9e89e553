// Package reconcile computes the stock and price updates to push to one
// marketplace account from the local inventory and the account's remote
// catalog.
//
// Local data wins: every remote offer gets a stock record, taken from the
// inventory when the offer is stocked locally and zero otherwise. Prices are
// only pushed for offers present on both sides.
package reconcile

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
	"github.com/agentstation/marketsync/pkg/normalize"
)

// Reconciler matches inventory items against a remote catalog.
// It holds no state between calls and is safe for concurrent use.
type Reconciler struct {
	policy Policy
	now    func() time.Time
	logger *zerolog.Logger
}

// New creates a Reconciler with options.
func New(opts ...Option) (*Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		policy: options.policy,
		now:    options.now,
		logger: options.logger,
	}, nil
}

// Policy returns the parse failure policy in effect.
func (r *Reconciler) Policy() Policy {
	return r.policy
}

// Stocks returns one stock record per remote offer. Offers stocked locally
// come first in inventory order, then the remaining remote offers with a
// zero count in remote order. Every record carries the same timestamp.
func (r *Reconciler) Stocks(inventory []market.InventoryItem, remote []market.OfferID, warehouseID string) ([]market.StockRecord, *Report, error) {
	updatedAt := r.now().UTC().Truncate(time.Second)
	report := &Report{Kind: KindStocks}

	index := remoteIndex(remote)
	records := make([]market.StockRecord, 0, len(index))
	emitted := make(map[market.OfferID]struct{}, len(index))
	seen := make(map[market.OfferID]struct{}, len(inventory))

	for _, item := range inventory {
		id, ok := r.match(item, index, seen, report)
		if !ok {
			continue
		}
		count, err := normalize.Quantity(item.Quantity)
		if err != nil {
			if err := r.fail(item, err, report); err != nil {
				return nil, report, err
			}
			continue
		}
		records = append(records, market.StockRecord{
			OfferID:     id,
			Count:       count,
			WarehouseID: warehouseID,
			UpdatedAt:   updatedAt,
		})
		emitted[id] = struct{}{}
	}
	report.Matched = len(records)

	for _, id := range remote {
		if _, ok := emitted[id]; ok {
			continue
		}
		emitted[id] = struct{}{}
		records = append(records, market.StockRecord{
			OfferID:     id,
			Count:       0,
			WarehouseID: warehouseID,
			UpdatedAt:   updatedAt,
		})
		report.Zeroed++
	}

	return records, report, nil
}

// Prices returns one price record per offer present in both the inventory
// and the remote catalog, in inventory order.
func (r *Reconciler) Prices(inventory []market.InventoryItem, remote []market.OfferID, currency market.Currency) ([]market.PriceRecord, *Report, error) {
	report := &Report{Kind: KindPrices}

	index := remoteIndex(remote)
	records := make([]market.PriceRecord, 0, min(len(index), len(inventory)))
	seen := make(map[market.OfferID]struct{}, len(inventory))

	for _, item := range inventory {
		id, ok := r.match(item, index, seen, report)
		if !ok {
			continue
		}
		value, err := normalize.PriceValue(item.Price)
		if err != nil {
			if err := r.fail(item, err, report); err != nil {
				return nil, report, err
			}
			continue
		}
		records = append(records, market.PriceRecord{
			OfferID:  id,
			Value:    value,
			Currency: currency,
		})
	}
	report.Matched = len(records)

	return records, report, nil
}

// match resolves an inventory item to a remote offer. Items unknown to the
// catalog and repeated codes are counted and rejected.
func (r *Reconciler) match(item market.InventoryItem, index map[market.OfferID]struct{}, seen map[market.OfferID]struct{}, report *Report) (market.OfferID, bool) {
	id := market.OfferID(item.Code)
	if _, ok := index[id]; !ok {
		report.Ignored++
		return "", false
	}
	if _, dup := seen[id]; dup {
		report.Duplicates++
		return "", false
	}
	seen[id] = struct{}{}
	return id, true
}

// fail applies the parse policy. It returns the error to abort with, or nil
// after recording the item as skipped.
func (r *Reconciler) fail(item market.InventoryItem, err error, report *Report) error {
	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) {
		parseErr.Code = item.Code
	}
	if r.policy == PolicyAbort {
		return err
	}

	skipped := Skipped{Code: item.Code, Reason: err.Error()}
	if parseErr != nil {
		skipped.Field = parseErr.Field
		skipped.Value = parseErr.Value
	}
	report.Skipped = append(report.Skipped, skipped)

	r.logger.Warn().
		Str("kind", string(report.Kind)).
		Str("code", item.Code).
		Str("field", skipped.Field).
		Str("value", skipped.Value).
		Msg("Skipping unparseable inventory item")
	return nil
}

func remoteIndex(remote []market.OfferID) map[market.OfferID]struct{} {
	index := make(map[market.OfferID]struct{}, len(remote))
	for _, id := range remote {
		index[id] = struct{}{}
	}
	return index
}
