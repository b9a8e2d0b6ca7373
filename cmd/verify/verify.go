package verify

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/config"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/models"
)

// VerifyCmd represents the verify command
var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Message verification commands",
	Long: `Message verification commands for fraudcheck.

This command group submits suspicious messages for risk scoring and
shows past verdicts and statistics.`,
}

// checkCmd scores a message
var checkCmd = &cobra.Command{
	Use:   "check <message>",
	Short: "Check a message for fraud",
	Long:  "Submit a message together with its sender header and show the verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// getCmd shows a past verification
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a past verification",
	Long:  "Fetch a verification result by its id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// historyCmd lists past verifications
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past verifications",
	Long:  "List your verifications, most recent first",
	RunE:  runHistory,
}

// statsCmd shows aggregate counters
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show verification statistics",
	Long:  "Show how many messages you checked and how many were flagged",
	RunE:  runStats,
}

func runCheck(cmd *cobra.Command, args []string) error {
	req := models.VerificationRequest{Content: args[0]}
	req.SenderHeader, _ = cmd.Flags().GetString("sender")
	req.MessageType, _ = cmd.Flags().GetString("type")
	req.PhoneNumber, _ = cmd.Flags().GetString("phone")
	if received, _ := cmd.Flags().GetString("received"); received != "" {
		at, err := time.Parse(time.RFC3339, received)
		if err != nil {
			return err
		}
		req.ReceivedAt = &at
	}

	a, err := app.Current()
	if err != nil {
		return err
	}

	result, err := a.Verification.Verify(cmd.Context(), req)
	if err != nil {
		return app.Failure(a.Verification.VerifyState().Snapshot())
	}

	if humanOutput() {
		if result.IsFraud {
			format.PrintWarning("⚠ Likely fraud (%s risk, score %.2f)", result.RiskLevel, result.FraudScore)
		} else {
			format.PrintSuccess("✓ No fraud detected (%s risk, score %.2f)", result.RiskLevel, result.FraudScore)
		}
	}
	if err := format.Print(result); err != nil {
		return err
	}
	if humanOutput() && len(result.Recommendations) > 0 {
		format.PrintInfo("Recommendations:")
		for _, r := range result.Recommendations {
			format.PrintInfo("  - %s", r)
		}
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	result, err := a.Verification.Get(cmd.Context(), strings.TrimSpace(args[0]))
	if err != nil {
		return app.Failure(a.Verification.LookupState().Snapshot())
	}
	return format.Print(result)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	a, err := app.Current()
	if err != nil {
		return err
	}

	results, err := a.Verification.History(cmd.Context(), limit, offset)
	if err != nil {
		return app.Failure(a.Verification.HistoryState().Snapshot())
	}

	if len(results) == 0 {
		format.PrintInfo("No verifications found")
		return nil
	}
	return format.Print(results)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	stats, err := a.Verification.Stats(cmd.Context())
	if err != nil {
		return app.Failure(a.Verification.StatsState().Snapshot())
	}
	return format.Print(stats)
}

// humanOutput reports whether banners can be mixed into the output
func humanOutput() bool {
	f := config.GetOutputFormat()
	return f == "table" || f == "text"
}

func init() {
	checkCmd.Flags().StringP("sender", "s", "", "Sender header, e.g. VM-HDFCBK")
	checkCmd.Flags().StringP("type", "t", "", "Message type (SMS, WhatsApp, Email)")
	checkCmd.Flags().String("phone", "", "Sender phone number")
	checkCmd.Flags().String("received", "", "When the message was received (RFC3339)")
	_ = checkCmd.MarkFlagRequired("sender")

	historyCmd.Flags().Int("limit", models.DefaultPageLimit, "Number of results (1-100)")
	historyCmd.Flags().Int("offset", 0, "Number of results to skip")

	VerifyCmd.AddCommand(checkCmd)
	VerifyCmd.AddCommand(getCmd)
	VerifyCmd.AddCommand(historyCmd)
	VerifyCmd.AddCommand(statsCmd)
}
