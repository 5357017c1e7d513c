package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/config"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "dcim",
	Short: "Data center inventory: racks, assets and IP address pools",
	Long: `dcim serves a web inventory of data centers, racks, assets and IPv4
address pools backed by PostgreSQL.

Settings come from built-in defaults, an optional TOML file (--config or
IPAM_CONFIG) and the environment (DATABASE_URL, PORT, ...), in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Running dcim without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig resolves the configuration and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if jsonOutput {
		cfg.LogFormat = "json"
	}
	return cfg, cfg.Validate()
}

// report prints a failed run's error once and returns the exit status.
func report(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if apperr.Is(err, apperr.KindConfig) {
		fmt.Fprintln(stderr, "configuration error:", err)
		return 2
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func main() {
	os.Exit(report(rootCmd.Execute(), os.Stderr))
}
