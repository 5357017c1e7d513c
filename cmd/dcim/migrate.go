package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ttani03/goth-dcim/internal/database"
	"github.com/ttani03/goth-dcim/internal/logging"
)

var printSchema bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if printSchema {
			fmt.Print(database.Schema())
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.Setup(cfg.LogLevel, cfg.LogFormat == "json", os.Stderr)
		ctx := cmd.Context()

		if err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, cfg.ConnectRetries, cfg.RetryInterval.Duration, logger); err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(ctx, database.DB); err != nil {
			return err
		}
		logger.Info("schema applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "Print the schema instead of applying it")
}
