// Command stroketrain trains, evaluates and inspects stroke risk pipeline artifacts.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/pkg/observability"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "stroketrain",
		Short: "Train and evaluate stroke risk pipelines",
		Long: `stroketrain fits the stroke risk pipeline on a labelled CSV dataset and
publishes it as a single artifact file that riskd serves.

Configuration is read from built-in defaults, an optional YAML file (--config),
STROKETRAIN_* environment variables and flags, in increasing precedence.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTrainCmd(&configPath),
		newEvaluateCmd(&configPath),
		newPredictCmd(&configPath),
		newInspectCmd(&configPath),
	)
	return root
}

// setup resolves configuration and builds the text logger every subcommand writes to.
func setup(cmd *cobra.Command, configPath string) (fileConfig, *slog.Logger, error) {
	cfg, err := loadConfig(configPath, cmd)
	if err != nil {
		return fileConfig{}, nil, err
	}
	logger := observability.InitLogger(observability.LogConfig{
		Output: cmd.ErrOrStderr(),
		Level:  cfg.LogLevel,
		Format: "text",
	})
	return cfg, logger, nil
}
