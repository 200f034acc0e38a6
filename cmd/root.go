package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mixcoach/internal/config"
	"github.com/abhisek/mixcoach/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "mixcoach",
	Short:        "Adaptive learning backend for mixing skills",
	Long:         "MixCoach serves skill assessments and adaptive learning plans for audio mixing.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./mixcoach.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides store.dsn and MIXCOACH_DB)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.DSN = p
	}
	return cfg, nil
}

// resolveDBPath returns the configured DSN, falling back to MIXCOACH_DB and
// then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.DSN; p != "" {
		if err := store.EnsureDir(p); err != nil {
			return "", fmt.Errorf("create database dir: %w", err)
		}
		return p, nil
	}
	return store.DefaultDBPath()
}
