package auth

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/models"
)

// AuthCmd represents the auth command
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication and account commands",
	Long: `Authentication and account commands for fraudcheck.

This command group includes login, logout, registration and profile operations.
Credentials are kept in the session file and renewed automatically.`,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the fraud detection service",
	Long:  "Authenticate with email and password and store the issued credentials",
	RunE:  runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and forget stored credentials",
	Long:  "Remove the stored credentials. Running it while logged out is harmless.",
	RunE:  runLogout,
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  "Display current authentication status and user information",
	RunE:  runStatus,
}

// status is what the status command prints
type status struct {
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	Email         string     `json:"email,omitempty" yaml:"email,omitempty"`
	FullName      string     `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Server        string     `json:"server" yaml:"server"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	a, err := app.Current()
	if err != nil {
		return err
	}

	format.PrintInfo("Logging in as %s...", email)
	res, err := a.Auth.Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return app.Failure(a.Auth.LoginState().Snapshot())
	}

	if res.User == nil {
		format.PrintWarning("Logged in, but the profile could not be loaded: %s", a.Auth.ProfileState().Snapshot().Error)
		return nil
	}

	format.PrintSuccess("✓ Successfully logged in as %s", res.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	if err := a.Auth.Logout(); err != nil {
		return err
	}

	format.PrintSuccess("✓ Successfully logged out")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	sess := a.Auth.Session()
	st := status{
		Authenticated: sess.IsAuthenticated,
		Server:        a.Config.Server.URL,
	}
	if sess.User != nil {
		st.Email = sess.User.Email
		st.FullName = sess.User.FullName
	}
	if exp, ok := a.Store.ExpiresAt(); ok {
		st.ExpiresAt = &exp
	}

	return format.Print(st)
}

func init() {
	// Add login command flags
	loginCmd.Flags().StringP("email", "e", "", "Email address")
	loginCmd.Flags().StringP("password", "p", "", "Password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	// Add subcommands
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(registerCmd)
	AuthCmd.AddCommand(profileCmd)
}
