package ozon

const (
	visibilityAll     = "ALL"
	autoActionUnknown = "UNKNOWN"
)

type productListRequest struct {
	Filter productFilter `json:"filter"`
	LastID string        `json:"last_id"`
	Limit  int           `json:"limit"`
}

type productFilter struct {
	Visibility string `json:"visibility"`
}

type productListResponse struct {
	Result struct {
		Items []struct {
			ProductID int64  `json:"product_id"`
			OfferID   string `json:"offer_id"`
		} `json:"items"`
		Total  int    `json:"total"`
		LastID string `json:"last_id"`
	} `json:"result"`
}

type stocksRequest struct {
	Stocks []stockEntry `json:"stocks"`
}

type stockEntry struct {
	OfferID string `json:"offer_id"`
	Stock   int    `json:"stock"`
}

type pricesRequest struct {
	Prices []priceEntry `json:"prices"`
}

type priceEntry struct {
	AutoActionEnabled string `json:"auto_action_enabled"`
	CurrencyCode      string `json:"currency_code"`
	OfferID           string `json:"offer_id"`
	OldPrice          string `json:"old_price"`
	Price             string `json:"price"`
}
