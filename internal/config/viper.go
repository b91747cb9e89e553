// Package config resolves marketplace accounts from viper configuration
// and the environment.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
)

// Environment variables accounts are derived from when the configuration
// carries no accounts list.
const (
	EnvMarketToken    = "MARKET_TOKEN"
	EnvFBSCampaign    = "FBS_ID"
	EnvDBSCampaign    = "DBS_ID"
	EnvFBSWarehouse   = "WAREHOUSE_FBS_ID"
	EnvDBSWarehouse   = "WAREHOUSE_DBS_ID"
	EnvSellerToken    = "SELLER_TOKEN"
	EnvSellerClientID = "CLIENT_ID"
)

// Account ids of the environment-derived accounts.
const (
	AccountYandexFBS = "yandex-fbs"
	AccountYandexDBS = "yandex-dbs"
	AccountOzon      = "ozon"
)

// AccountsKey is the configuration key holding the accounts list.
const AccountsKey = "accounts"

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(v *viper.Viper, key string) string {
	// Check OS env directly first
	osValue := os.Getenv(key)
	viperValue := v.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// Accounts returns the configured accounts with tokens resolved. The
// accounts list in the configuration wins; without one, accounts are
// derived from the environment. Every account is validated.
func Accounts(v *viper.Viper) ([]market.Account, error) {
	var accounts []market.Account
	if v.IsSet(AccountsKey) {
		if err := v.UnmarshalKey(AccountsKey, &accounts); err != nil {
			return nil, errors.NewConfigError(AccountsKey, "cannot decode accounts list", err)
		}
	} else {
		accounts = EnvAccounts(v)
	}

	if len(accounts) == 0 {
		return nil, errors.NewConfigError(AccountsKey,
			"no accounts configured: add an accounts list or set "+EnvMarketToken+" or "+EnvSellerToken, nil)
	}

	for i := range accounts {
		a := &accounts[i]
		if a.Token == "" && a.TokenEnv != "" {
			a.Token = GetString(v, a.TokenEnv)
		}
		if err := a.Validate(); err != nil {
			return nil, errors.NewConfigError(AccountsKey, "invalid account "+a.ID, err)
		}
	}
	return accounts, nil
}

// EnvAccounts derives accounts from the environment: one Yandex account
// per configured campaign (FBS, DBS) and one Ozon seller. Campaigns
// without an id are left out.
func EnvAccounts(v *viper.Viper) []market.Account {
	var accounts []market.Account

	if token := GetString(v, EnvMarketToken); token != "" {
		campaigns := []struct {
			id, campaign, warehouse string
		}{
			{AccountYandexFBS, EnvFBSCampaign, EnvFBSWarehouse},
			{AccountYandexDBS, EnvDBSCampaign, EnvDBSWarehouse},
		}
		for _, c := range campaigns {
			campaignID := GetString(v, c.campaign)
			if campaignID == "" {
				continue
			}
			accounts = append(accounts, market.Account{
				ID:          c.id,
				Marketplace: market.MarketplaceYandex,
				CampaignID:  campaignID,
				WarehouseID: GetString(v, c.warehouse),
				Token:       token,
				TokenEnv:    EnvMarketToken,
			})
		}
	}

	if token := GetString(v, EnvSellerToken); token != "" {
		if clientID := GetString(v, EnvSellerClientID); clientID != "" {
			accounts = append(accounts, market.Account{
				ID:          AccountOzon,
				Marketplace: market.MarketplaceOzon,
				ClientID:    clientID,
				Token:       token,
				TokenEnv:    EnvSellerToken,
			})
		}
	}

	return accounts
}
