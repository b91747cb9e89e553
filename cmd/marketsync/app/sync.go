package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/marketsync"
	"github.com/agentstation/marketsync/internal/cmd/alerts"
	"github.com/agentstation/marketsync/internal/cmd/output"
	"github.com/agentstation/marketsync/internal/inventory"
	"github.com/agentstation/marketsync/internal/metrics"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/reconcile"
)

// syncFlags holds the flags shared by sync and plan.
type syncFlags struct {
	inventory   string
	policy      string
	concurrency int
	dryRun      bool
	metricsFile string
	stocksOnly  bool
	pricesOnly  bool
}

// NewSyncCommand creates the sync command.
func (a *App) NewSyncCommand() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:     "sync [account...]",
		GroupID: "core",
		Short:   "Push inventory stocks and prices to marketplace accounts",
		Long: `Sync loads the inventory feed once, then for every selected account:

• Fetches the full remote catalog
• Reconciles stock and price records against the inventory
• Submits stocks, then prices, in batches the marketplace accepts

All accounts are synced when none are named. The command exits non-zero
when any account failed; the others still complete.`,
		Example: `  marketsync sync                           # Sync every account
  marketsync sync yandex-fbs ozon           # Sync selected accounts
  marketsync sync --inventory ostatki.csv   # Use a local feed
  marketsync sync --policy skip             # Skip unparseable items
  marketsync sync --stocks-only --concurrency 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, args, flags, false)
		},
	}

	addSyncFlags(cmd, flags, true)
	return cmd
}

// NewPlanCommand creates the plan command.
func (a *App) NewPlanCommand() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:     "plan [account...]",
		GroupID: "core",
		Short:   "Show the records a sync would submit",
		Long: `Plan runs the sync pipeline without submitting anything and prints
every stock and price record per account.`,
		Example: `  marketsync plan
  marketsync plan yandex-dbs -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, args, flags, true)
		},
	}

	addSyncFlags(cmd, flags, false)
	return cmd
}

func addSyncFlags(cmd *cobra.Command, flags *syncFlags, submit bool) {
	cmd.Flags().StringVar(&flags.inventory, "inventory", "", "inventory feed URL or path (zip or csv)")
	cmd.Flags().StringVar(&flags.policy, "policy", "", "unparseable inventory items: abort or skip")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "accounts synced at once")
	cmd.Flags().BoolVar(&flags.stocksOnly, "stocks-only", false, "sync stock counts only")
	cmd.Flags().BoolVar(&flags.pricesOnly, "prices-only", false, "sync prices only")
	cmd.MarkFlagsMutuallyExclusive("stocks-only", "prices-only")
	if submit {
		cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "reconcile and batch without submitting")
		cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	}
}

// resolve fills flags the user left unset from the configuration.
func (f *syncFlags) resolve(cmd *cobra.Command, cfg *Config) {
	changed := cmd.Flags().Changed
	if !changed("inventory") {
		f.inventory = cfg.Inventory
	}
	if !changed("policy") {
		f.policy = cfg.Policy
	}
	if !changed("concurrency") {
		f.concurrency = cfg.Concurrency
	}
	if !changed("dry-run") {
		f.dryRun = cfg.DryRun
	}
	if !changed("metrics-file") {
		f.metricsFile = cfg.MetricsFile
	}
}

func (f *syncFlags) options(plan bool) ([]marketsync.Option, error) {
	policy, err := reconcile.ParsePolicy(f.policy)
	if err != nil {
		return nil, err
	}
	if f.concurrency < 1 {
		return nil, errors.NewValidationError("concurrency", f.concurrency, "must be at least 1")
	}

	opts := []marketsync.Option{
		marketsync.WithPolicy(policy),
		marketsync.WithConcurrency(f.concurrency),
		marketsync.WithDryRun(f.dryRun || plan),
	}
	switch {
	case f.stocksOnly:
		opts = append(opts, marketsync.WithStocksOnly())
	case f.pricesOnly:
		opts = append(opts, marketsync.WithPricesOnly())
	}
	return opts, nil
}

func (a *App) runSync(cmd *cobra.Command, args []string, flags *syncFlags, plan bool) error {
	flags.resolve(cmd, a.config)
	opts, err := flags.options(plan)
	if err != nil {
		return err
	}
	format, err := output.Resolve(a.config.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	m := metrics.New(nil)
	opts = append(opts, marketsync.WithMetrics(m), marketsync.WithAccountFilter(args...))

	syncer, err := a.Syncer(opts...)
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	items, err := inventory.NewLoader().Load(ctx, flags.inventory)
	if err != nil {
		return err
	}

	result, err := syncer.Sync(ctx, items)
	if err != nil {
		return err
	}

	table := output.ResultTable(result)
	if plan || format == output.FormatWide {
		table = output.RecordsTable(result)
	}
	if err := output.Print(cmd.OutOrStdout(), format, result, table); err != nil {
		return err
	}

	if !a.config.Quiet {
		if err := alerts.NewWriter(cmd.ErrOrStderr(), a.config.NoColor).WriteResult(result); err != nil {
			return err
		}
	}

	if flags.metricsFile != "" {
		if err := m.WriteTextfile(flags.metricsFile); err != nil {
			return err
		}
		a.logger.Debug().Str("path", flags.metricsFile).Msg("Metrics written")
	}

	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d accounts failed: %w", len(failed), len(result.Accounts), result.Err())
	}
	return nil
}
