package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/config"
	"gastos/internal/logger"
)

var version = "1.0.0"

// cfg is loaded once per invocation before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "gastos",
	Short: "Gastos CLI - expense reports from CFDI invoices",
	Long: `Gastos CLI reads Mexican electronic invoices (CFDI XML), extracts the
fiscal summary of each one and builds a consolidated expense report with
VAT and total sums, duplicate detection by UUID and an Excel export.

Configuration is read from defaults, an optional YAML file (--config) and
environment variables (a .env file in the working directory is loaded first).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("Gastos CLI executed")

		fmt.Fprintln(cmd.OutOrStdout(), "Bienvenido a Gastos CLI.")
		fmt.Fprintln(cmd.OutOrStdout(), "Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
}
