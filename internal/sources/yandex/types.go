package yandex

// stockTypeFit is the stock type for sellable units.
const stockTypeFit = "FIT"

type offerMappingResponse struct {
	Status string `json:"status"`
	Result struct {
		Paging struct {
			NextPageToken string `json:"nextPageToken"`
		} `json:"paging"`
		OfferMappingEntries []struct {
			Offer struct {
				ShopSku string `json:"shopSku"`
			} `json:"offer"`
		} `json:"offerMappingEntries"`
	} `json:"result"`
}

type stocksRequest struct {
	SKUs []skuStock `json:"skus"`
}

type skuStock struct {
	SKU         string      `json:"sku"`
	WarehouseID string      `json:"warehouseId"`
	Items       []stockItem `json:"items"`
}

type stockItem struct {
	Count     int    `json:"count"`
	Type      string `json:"type"`
	UpdatedAt string `json:"updatedAt"`
}

type pricesRequest struct {
	Offers []offerPrice `json:"offers"`
}

type offerPrice struct {
	ID    string     `json:"id"`
	Price priceValue `json:"price"`
}

type priceValue struct {
	Value      int    `json:"value"`
	CurrencyID string `json:"currencyId"`
}
