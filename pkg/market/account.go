package market

import (
	"fmt"

	"github.com/agentstation/marketsync/pkg/errors"
)

// Account is one marketplace cabinet: a Yandex campaign with its warehouse,
// or an Ozon seller. A marketplace may have several accounts (FBS and DBS
// campaigns are separate accounts).
type Account struct {
	ID          string      `json:"id" yaml:"id" mapstructure:"id"`
	Marketplace Marketplace `json:"marketplace" yaml:"marketplace" mapstructure:"marketplace"`

	// Yandex campaign and warehouse.
	CampaignID  string `json:"campaign_id,omitempty" yaml:"campaign_id,omitempty" mapstructure:"campaign_id"`
	WarehouseID string `json:"warehouse_id,omitempty" yaml:"warehouse_id,omitempty" mapstructure:"warehouse_id"`

	// Ozon seller client id.
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty" mapstructure:"client_id"`

	// Token is the API token; TokenEnv names the variable it was read from.
	Token    string `json:"-" yaml:"-" mapstructure:"token"`
	TokenEnv string `json:"token_env,omitempty" yaml:"token_env,omitempty" mapstructure:"token_env"`

	// Optional overrides.
	BaseURL           string  `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	StockBatchSize    int     `json:"stock_batch_size,omitempty" yaml:"stock_batch_size,omitempty" mapstructure:"stock_batch_size"`
	PriceBatchSize    int     `json:"price_batch_size,omitempty" yaml:"price_batch_size,omitempty" mapstructure:"price_batch_size"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" mapstructure:"requests_per_second"`
}

// String returns a log-friendly account label.
func (a Account) String() string {
	return fmt.Sprintf("%s/%s", a.Marketplace, a.ID)
}

// Validate checks that the account carries the credentials its marketplace needs.
func (a Account) Validate() error {
	if a.ID == "" {
		return errors.NewValidationError("id", a.ID, "account id is required")
	}
	switch a.Marketplace {
	case MarketplaceYandex:
		if a.CampaignID == "" {
			return errors.NewValidationError("campaign_id", a.CampaignID, "required for yandex account "+a.ID)
		}
	case MarketplaceOzon:
		if a.ClientID == "" {
			return errors.NewValidationError("client_id", a.ClientID, "required for ozon account "+a.ID)
		}
	default:
		return errors.NewValidationError("marketplace", a.Marketplace, fmt.Sprintf("unsupported marketplace %q", a.Marketplace))
	}
	if a.Token == "" {
		return errors.NewValidationError("token", "", "API token is required for account "+a.ID)
	}
	if a.StockBatchSize < 0 || a.PriceBatchSize < 0 {
		return errors.NewValidationError("batch_size", nil, "batch sizes cannot be negative")
	}
	return nil
}

// MaskedToken returns the token with all but the last four characters hidden.
func (a Account) MaskedToken() string {
	if len(a.Token) <= 4 {
		return "****"
	}
	return "****" + a.Token[len(a.Token)-4:]
}
