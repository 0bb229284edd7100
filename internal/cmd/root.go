// Package cmd implements the flowbind command line.
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowbind/internal/config"
	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/version"
)

// app carries what every subcommand needs once the root has loaded configuration
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	noColor    bool

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCommand builds the command tree. Each call returns an independent tree so
// tests can run commands without shared flag state.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flowbind",
		Short: "Bind business process tasks to OpenAPI endpoints",
		Long: `flowbind resolves every task of a business process to the HTTP endpoint that
implements it and infers how data flows between the mapped tasks.

Tasks are resolved by operationId, declared endpoint hints, explicit
'api.endpoint' properties and text similarity over the OpenAPI catalog.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is $HOME/.flowbind/config.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with FLOWBIND_* overrides")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text, json")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newMapCommand(a),
		newCatalogCommand(a),
		newScoreCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration, applies flag overrides and installs the logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cfg, cmd.ErrOrStderr())
	log.SetDefaultLogger(a.logger)
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.Log.Level)
	lc.Format = log.ParseFormat(cfg.Log.Format)
	lc.Output = w
	lc.ServiceVersion = version.GetInfo().Version
	return log.New(lc)
}

func (a *app) service() *mapping.Service {
	return mapping.NewService(
		mapping.WithThresholds(a.cfg.Thresholds),
		mapping.WithLogger(a.logger),
	)
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a context that commands observe for
// cancellation
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
