package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		dialect, url, err := migrationTarget(cfg)
		if err != nil {
			return err
		}
		if err := migrations.Up(dialect, url); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("dialect", dialect))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		dialect, url, err := migrationTarget(cfg)
		if err != nil {
			return err
		}
		if err := migrations.Down(dialect, url); err != nil {
			return err
		}
		logger.Warn("migrations rolled back", zap.String("dialect", dialect))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
