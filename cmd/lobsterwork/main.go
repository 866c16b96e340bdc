package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	lobsterworkroot "github.com/lobsterwork/lobsterwork"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd := &cobra.Command{
		Use:          "lobsterwork",
		Short:        "LobsterWork task marketplace API",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and installs the JSON logger at the
// configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

func runMigrations(cfg *config.Config) error {
	migrationsFS, err := fs.Sub(lobsterworkroot.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		return err
	}
	return nil
}
