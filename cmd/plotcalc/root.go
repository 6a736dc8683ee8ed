package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AbhinitBarua/PlottingCalculator/internal/config"
	"github.com/AbhinitBarua/PlottingCalculator/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plotcalc",
	Short: "plotcalc plots functions of x and evaluates expressions",
	Long: `plotcalc keeps a list of functions f(x), samples them over an x range
and renders the curves, next to a one-shot scalar calculator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "plotcalc.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides the config)")
}

// loadConfig reads the configuration named by --config and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.NewWithFormat(cfg.Log.Format, level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
