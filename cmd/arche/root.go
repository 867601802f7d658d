package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche/internal/config"
	"github.com/aretw0/arche/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "arche",
	Short: "Arche assembles geomechanical project trees and aggregates their progress",
	Long: `Arche builds project trees (materials, discontinuities, observation meshes,
boundary conditions) from persisted records, stores them and folds solver
progress events into per-node summaries.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// settings are resolved once per invocation from arche.yaml and flags.
var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().String("store", "", "Project store backend: memory, file or redis (overrides config)")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file store (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	loaded, err := config.Load(path, flags.Changed("config"))
	if err != nil {
		return err
	}

	if v, _ := flags.GetString("store"); v != "" {
		loaded.Store.Backend = v
	}
	if v, _ := flags.GetString("dir"); v != "" {
		loaded.Store.Dir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		loaded.Log.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		loaded.Log.Format = v
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(loaded.Log.Level)
	format, _ := logging.ParseFormat(loaded.Log.Format)
	logger = logging.NewWithFormat(os.Stderr, level, format)
	slog.SetDefault(logger)

	cfg = loaded
	return nil
}
