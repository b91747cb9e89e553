// Package constants provides shared constants used throughout the marketsync codebase.
// This includes timeouts, marketplace page sizes and batch limits, file permissions,
// and other values that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to marketplace APIs
	DefaultHTTPTimeout = 30 * time.Second

	// InventoryDownloadTimeout is the timeout for downloading the inventory feed
	InventoryDownloadTimeout = 2 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed run
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Yandex Market limits
const (
	// YandexPageSize is the offer-mapping-entries page size
	YandexPageSize = 200

	// YandexStockBatchSize is the maximum number of SKUs per stock update
	YandexStockBatchSize = 2000

	// YandexPriceBatchSize is the maximum number of offers per price update
	YandexPriceBatchSize = 500
)

// Ozon Seller limits
const (
	// OzonPageSize is the product list page size
	OzonPageSize = 1000

	// OzonStockBatchSize is the maximum number of offers per stock import
	OzonStockBatchSize = 100

	// OzonPriceBatchSize is the maximum number of offers per price import
	OzonPriceBatchSize = 1000

	// OzonDefaultPriceBatchSize is the price batch size used unless configured
	OzonDefaultPriceBatchSize = 900
)

// Catalog limits
const (
	// MaxCatalogPages bounds a single catalog walk
	MaxCatalogPages = 10000

	// DefaultRequestsPerSecond is the request pacing applied per account
	DefaultRequestsPerSecond = 5

	// RequestBurst is the token bucket burst size for request pacing
	RequestBurst = 1
)

// Business rules for inventory quantity tokens
const (
	// QuantityMoreThanTen is the feed token for "more than ten units"
	QuantityMoreThanTen = ">10"

	// QuantityMoreThanTenStock is the stock count pushed for QuantityMoreThanTen
	QuantityMoreThanTenStock = 100

	// QuantitySingleUnit is the feed token for a single (display) unit
	QuantitySingleUnit = "1"
)

// Inventory feed defaults
const (
	// DefaultInventoryURL is the archive the feed is downloaded from
	DefaultInventoryURL = "https://timeworld.ru/upload/files/ostatki.zip"

	// InventoryColumnCode is the feed column holding the offer code
	InventoryColumnCode = "Код"

	// InventoryColumnQuantity is the feed column holding the quantity token
	InventoryColumnQuantity = "Количество"

	// InventoryColumnPrice is the feed column holding the formatted price
	InventoryColumnPrice = "Цена"
)

// Yandex stock timestamps use this layout (UTC, seconds precision).
const StockTimestampLayout = "2006-01-02T15:04:05Z"
