package output

import (
	"strconv"
	"time"

	"github.com/agentstation/marketsync"
	"github.com/agentstation/marketsync/pkg/market"
)

// ResultTable summarizes a sync run, one row per account.
func ResultTable(result *marketsync.Result) Table {
	data := Table{
		Headers: []string{"Account", "Marketplace", "Offers", "Stocks", "Available", "Prices", "Batches", "Skipped", "Duration", "Status"},
		Align: []Align{
			AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight,
			AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft,
		},
	}
	for _, a := range result.Accounts {
		status := "ok"
		if result.DryRun {
			status = "dry run"
		}
		if a.Err != nil {
			status = "failed at " + a.Stage
		}
		data.Rows = append(data.Rows, []string{
			a.Account,
			a.Marketplace.String(),
			strconv.Itoa(a.Offers),
			strconv.Itoa(len(a.Stocks)),
			strconv.Itoa(len(a.Available)),
			strconv.Itoa(len(a.Prices)),
			strconv.Itoa(a.StockBatches) + "/" + strconv.Itoa(a.PriceBatches),
			strconv.Itoa(len(a.Skipped)),
			a.Duration.Round(time.Millisecond).String(),
			status,
		})
	}
	return data
}

// RecordsTable lists every stock and price record of a run.
func RecordsTable(result *marketsync.Result) Table {
	data := Table{
		Headers: []string{"Account", "Offer", "Stock", "Price"},
		Align:   []Align{AlignLeft, AlignLeft, AlignRight, AlignRight},
	}
	for _, a := range result.Accounts {
		prices := make(map[market.OfferID]market.PriceRecord, len(a.Prices))
		for _, p := range a.Prices {
			prices[p.OfferID] = p
		}
		listed := make(map[market.OfferID]bool, len(a.Stocks))
		for _, s := range a.Stocks {
			listed[s.OfferID] = true
			price := ""
			if p, ok := prices[s.OfferID]; ok {
				price = strconv.Itoa(p.Value) + " " + string(p.Currency)
			}
			data.Rows = append(data.Rows, []string{a.Account, string(s.OfferID), strconv.Itoa(s.Count), price})
		}
		for _, p := range a.Prices {
			if !listed[p.OfferID] {
				data.Rows = append(data.Rows, []string{a.Account, string(p.OfferID), "", strconv.Itoa(p.Value) + " " + string(p.Currency)})
			}
		}
	}
	return data
}

// AccountsTable lists configured accounts with masked tokens.
func AccountsTable(accounts []market.Account) Table {
	data := Table{
		Headers: []string{"ID", "Marketplace", "Campaign / Client", "Warehouse", "Token", "Stock Batch", "Price Batch"},
	}
	for _, a := range accounts {
		ref := a.CampaignID
		if a.Marketplace == market.MarketplaceOzon {
			ref = a.ClientID
		}
		data.Rows = append(data.Rows, []string{
			a.ID,
			a.Marketplace.String(),
			ref,
			a.WarehouseID,
			a.MaskedToken(),
			sizeOrDefault(a.StockBatchSize),
			sizeOrDefault(a.PriceBatchSize),
		})
	}
	return data
}

// OffersTable lists remote offer ids.
func OffersTable(offers []market.OfferID) Table {
	data := Table{Headers: []string{"#", "Offer"}, Align: []Align{AlignRight, AlignLeft}}
	for i, id := range offers {
		data.Rows = append(data.Rows, []string{strconv.Itoa(i + 1), string(id)})
	}
	return data
}

func sizeOrDefault(n int) string {
	if n <= 0 {
		return "default"
	}
	return strconv.Itoa(n)
}
