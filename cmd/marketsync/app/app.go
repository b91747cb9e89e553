// Package app provides the application context and dependency management
// for the marketsync CLI. It centralizes configuration, logging and the
// construction of the syncer the commands run.
package app

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/marketsync"
	"github.com/agentstation/marketsync/internal/config"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
)

// App represents the marketsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	viper  *viper.Viper
	config *Config
	flags  globalFlags

	// Logger
	logger *zerolog.Logger

	// Command output, stdout when nil
	out io.Writer

	// Extra syncer options, used by tests
	syncOpts []marketsync.Option
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the default locations; a --config flag
// reloads it before any command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   viper.New(),
	}

	cfg, err := LoadConfig(app.viper, "")
	if err != nil {
		return nil, errors.NewConfigError("app", "cannot load configuration", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Accounts returns the configured marketplace accounts.
func (a *App) Accounts() ([]market.Account, error) {
	return config.Accounts(a.viper)
}

// Syncer creates a syncer over the configured accounts.
func (a *App) Syncer(opts ...marketsync.Option) (*marketsync.Syncer, error) {
	accounts, err := a.Accounts()
	if err != nil {
		return nil, err
	}
	opts = append([]marketsync.Option{marketsync.WithLogger(a.logger)}, opts...)
	return marketsync.New(accounts, append(opts, a.syncOpts...)...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSyncOptions appends options to every syncer the app creates.
func WithSyncOptions(opts ...marketsync.Option) Option {
	return func(a *App) error {
		a.syncOpts = append(a.syncOpts, opts...)
		return nil
	}
}

// WithOutput sets where command output is written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
