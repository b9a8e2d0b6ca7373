package auth

import (
	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/models"
)

// registerCmd creates a new account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a new account.

Passwords need at least 8 characters with an uppercase letter, a lowercase
letter, a number and a special character.`,
	RunE: runRegister,
}

// profileCmd shows the signed-in user
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Long:  "Fetch the signed-in user's profile from the server",
	RunE:  runProfile,
}

func runRegister(cmd *cobra.Command, args []string) error {
	req := models.RegisterRequest{}
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.FullName, _ = cmd.Flags().GetString("name")
	req.PhoneNumber, _ = cmd.Flags().GetString("phone")

	a, err := app.Current()
	if err != nil {
		return err
	}

	user, err := a.Auth.Register(cmd.Context(), req)
	if err != nil {
		return app.Failure(a.Auth.RegisterState().Snapshot())
	}

	format.PrintSuccess("✓ Account created for %s", user.Email)
	format.PrintInfo("Run 'fraudcheck auth login' to sign in")
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := app.Current()
	if err != nil {
		return err
	}

	user, err := a.Auth.Profile(cmd.Context())
	if err != nil {
		return app.Failure(a.Auth.ProfileState().Snapshot())
	}
	return format.Print(user)
}

func init() {
	registerCmd.Flags().StringP("email", "e", "", "Email address")
	registerCmd.Flags().StringP("password", "p", "", "Password")
	registerCmd.Flags().String("name", "", "Full name")
	registerCmd.Flags().String("phone", "", "Phone number, e.g. +919876543210")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("phone")
}
