// Package cli implements the careflow command line: the API server, the
// event worker and administrative model tooling.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/careflowhq/careflow/internal/app"
	"github.com/careflowhq/careflow/pkg/config"
	"github.com/careflowhq/careflow/pkg/observability"
)

var (
	verbose bool
	logger  *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "careflow",
	Short: "Careflow - clinical task prioritization engine",
	Long: `Careflow learns each provider's working patterns from their task
interactions and orders their clinical worklist accordingly: urgent care
requests, medication refills, patient messages and pending items ranked
by a per-user priority model.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			cfg := observability.DefaultLogConfig()
			cfg.Level = observability.LogLevelDebug
			logger = observability.NewLogger(cfg)
		}
		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("command start", "command", cmd.CommandPath())
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(modelCmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// buildContainer loads configuration and wires the application.
func buildContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return app.New(ctx, cfg, logger)
}
