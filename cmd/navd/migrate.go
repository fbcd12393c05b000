package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	migrations "github.com/chatnav/chatnav/db"
	"github.com/chatnav/chatnav/internal/config"
	"github.com/chatnav/chatnav/internal/db"
	"github.com/chatnav/chatnav/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|version|force N>",
	Short: "Apply database migrations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Redaction)

		sub, err := fs.Sub(migrations.MigrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("migrations fs: %w", err)
		}
		return db.RunMigrate(logger.L, cfg.Postgres, sub, args[0], args[1:])
	},
}
