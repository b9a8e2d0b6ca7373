package reports

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/utils"
)

// ReportsCmd represents the reports command
var ReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Fraud report commands",
	Long: `Fraud report commands for fraudcheck.

This command group files fraud reports, false positive reports and
feedback, and lists the reports you filed.`,
}

// submitCmd files a report
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "File a report",
	Long:  "Report a fraudulent message, a wrong verdict, or send feedback",
	RunE:  runSubmit,
}

// listCmd lists reports
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your reports",
	Long:  "List the reports you filed, newest first",
	RunE:  runList,
}

// getCmd shows one report
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a report",
	Long:  "Show one report and its review status",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// statsCmd shows report counters
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show report statistics",
	Long:  "Show report counts by type, priority and status",
	RunE:  runStats,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	in := models.ReportInput{}
	reportType, _ := cmd.Flags().GetString("type")
	in.ReportType = strings.ToUpper(reportType)
	in.Content, _ = cmd.Flags().GetString("content")
	in.SenderHeader, _ = cmd.Flags().GetString("sender")
	in.Description, _ = cmd.Flags().GetString("description")

	var err error
	if in.MessageID, err = optionalID(cmd, "message-id"); err != nil {
		return err
	}
	if in.VerificationID, err = optionalID(cmd, "verification-id"); err != nil {
		return err
	}

	a, err := app.Current()
	if err != nil {
		return err
	}

	report, err := a.Reports.Submit(cmd.Context(), in)
	if err != nil {
		return app.Failure(a.Reports.SubmitState().Snapshot())
	}

	format.PrintSuccess("✓ Report %s filed", report.ID)
	return format.Print(report)
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	a, err := app.Current()
	if err != nil {
		return err
	}

	list, err := a.Reports.List(cmd.Context(), limit, offset)
	if err != nil {
		return app.Failure(a.Reports.ListState().Snapshot())
	}

	if len(list) == 0 {
		format.PrintInfo("No reports found")
		return nil
	}
	return format.Print(list)
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	report, err := a.Reports.Get(cmd.Context(), strings.TrimSpace(args[0]))
	if err != nil {
		return app.Failure(a.Reports.GetState().Snapshot())
	}
	return format.Print(report)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	stats, err := a.Reports.Stats(cmd.Context())
	if err != nil {
		return app.Failure(a.Reports.StatsState().Snapshot())
	}
	return format.Print(stats)
}

func optionalID(cmd *cobra.Command, flag string) (*uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(flag)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, utils.NewValidationError(flag, "must be a valid UUID")
	}
	return &id, nil
}

func init() {
	submitCmd.Flags().StringP("type", "t", models.ReportFraud, "Report type (FRAUD, FALSE_POSITIVE, FEEDBACK)")
	submitCmd.Flags().StringP("content", "c", "", "Message content")
	submitCmd.Flags().StringP("sender", "s", "", "Sender header")
	submitCmd.Flags().StringP("description", "d", "", "What happened")
	submitCmd.Flags().String("message-id", "", "Id of the reported message")
	submitCmd.Flags().String("verification-id", "", "Id of the disputed verification")

	listCmd.Flags().Int("limit", models.DefaultPageLimit, "Number of reports (1-100)")
	listCmd.Flags().Int("offset", 0, "Number of reports to skip")

	ReportsCmd.AddCommand(submitCmd)
	ReportsCmd.AddCommand(listCmd)
	ReportsCmd.AddCommand(getCmd)
	ReportsCmd.AddCommand(statsCmd)
}
