package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/cmd/auth"
	"github.com/fraudcheck/cli/cmd/config"
	"github.com/fraudcheck/cli/cmd/metrics"
	"github.com/fraudcheck/cli/cmd/raw"
	"github.com/fraudcheck/cli/cmd/reports"
	"github.com/fraudcheck/cli/cmd/verify"
	"github.com/fraudcheck/cli/internal/app"
	appConfig "github.com/fraudcheck/cli/internal/config"
)

var (
	cfgFile     string
	debug       bool
	output      string
	showMetrics bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fraudcheck",
	Short: "fraudcheck - check suspicious messages for fraud",
	Long: `fraudcheck is a command-line client for the fraud detection service.

Submit SMS, WhatsApp or email messages for risk scoring, browse your
verification history, and report fraud or wrong verdicts.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize configuration
		if err := appConfig.Initialize(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// Set debug mode
		if debug {
			appConfig.SetDebug(true)
		}

		// Set output format
		if output != "" {
			appConfig.SetOutputFormat(output)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if a := app.Loaded(); showMetrics && a != nil {
			return a.Metrics.Write(os.Stderr)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fraudcheck.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output format (table, json, json-compact, yaml, text)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print client metrics to stderr when done")

	// Add subcommands
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(verify.VerifyCmd)
	rootCmd.AddCommand(reports.ReportsCmd)
	rootCmd.AddCommand(config.ConfigCmd)
	rootCmd.AddCommand(raw.RawCmd)
	rootCmd.AddCommand(metrics.MetricsCmd)
}
