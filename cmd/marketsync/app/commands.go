package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/marketsync/internal/cmd/output"
)

// NewOffersCommand creates the offers command.
func (a *App) NewOffersCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "offers <account>",
		GroupID: "core",
		Short:   "List the remote catalog of an account",
		Long: `Offers walks the full remote catalog of one account and prints its
offer ids in the order the marketplace returned them.`,
		Example: `  marketsync offers yandex-fbs
  marketsync offers ozon -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, err := a.Syncer()
			if err != nil {
				return err
			}

			offers, err := syncer.Offers(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format, err := output.Resolve(a.config.Format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, offers, output.OffersTable(offers))
		},
	}
}

// NewAccountsCommand creates the accounts command.
func (a *App) NewAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "accounts",
		GroupID: "management",
		Short:   "List configured marketplace accounts",
		Long: `Accounts lists the accounts read from the configuration file, or derived
from MARKET_TOKEN, FBS_ID, DBS_ID, SELLER_TOKEN and CLIENT_ID when the
file carries no accounts list. Tokens are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := a.Accounts()
			if err != nil {
				return err
			}

			format, err := output.Resolve(a.config.Format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, accounts, output.AccountsTable(accounts))
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("marketsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
