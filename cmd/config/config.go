package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appConfig "github.com/fraudcheck/cli/internal/config"
	"github.com/fraudcheck/cli/internal/format"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "CLI configuration commands",
	Long: `CLI configuration commands for fraudcheck.

Settings live in $HOME/.fraudcheck.yaml and can be overridden with
FRAUDCHECK_* environment variables, e.g. FRAUDCHECK_SERVER_URL.`,
}

// showCmd prints the effective configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long:  "Show the effective configuration after file, .env and environment overrides",
	RunE:  runShow,
}

// setCmd changes one setting
var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long:  "Change a setting and save it to the config file. Known keys: " + strings.Join(appConfig.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

// pathCmd prints the config file location
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Long:  "Print where the configuration file is read from",
	RunE:  runPath,
}

func runShow(cmd *cobra.Command, args []string) error {
	return format.Print(appConfig.Get())
}

func runSet(cmd *cobra.Command, args []string) error {
	if err := appConfig.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to update configuration: %w", err)
	}

	format.PrintSuccess("✓ %s set to %s", args[0], args[1])
	return nil
}

func runPath(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), appConfig.Path())
	return nil
}

func init() {
	ConfigCmd.AddCommand(showCmd)
	ConfigCmd.AddCommand(setCmd)
	ConfigCmd.AddCommand(pathCmd)
}
