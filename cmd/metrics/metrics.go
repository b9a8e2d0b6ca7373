package metrics

import (
	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/utils"
)

// MetricsCmd represents the metrics command
var MetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show client metrics",
	Long: `Show the client's request, refresh and retry counters in the
Prometheus text format.

Counters cover the current process only. Use --probe to send one
authenticated request first, or pass --metrics to any other command.`,
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	if probe, _ := cmd.Flags().GetBool("probe"); probe {
		if _, err := a.Auth.Profile(cmd.Context()); err != nil {
			format.PrintWarning("Probe failed: %s", utils.Message(err))
		}
	}

	return a.Metrics.Write(cmd.OutOrStdout())
}

func init() {
	MetricsCmd.Flags().Bool("probe", false, "Fetch the profile before printing")
}
