package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := runMigrations(cfg); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}
