package cli

import (
	"github.com/spf13/cobra"

	"github.com/fleetwatch/go-fleet-client/internal/apperrors"
	"github.com/fleetwatch/go-fleet-client/internal/utils"
	"github.com/fleetwatch/go-fleet-client/session"
)

var (
	loginUsername string
	loginPassword string
	logoutAll     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := app.controller.Login(cmd.Context(), session.Credentials{
			Username: loginUsername,
			Password: loginPassword,
		})
		if !result.OK {
			errorf("login failed: %s", result.Message)
			return apperrors.ErrNotAuthenticated
		}
		user := app.controller.User()
		successf("signed in as %s %s (%s)", user.DisplayName, user.FamilyName, user.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session locally and on the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.controller.State() != session.StateAuthenticated {
			warnf("no active session")
		}
		if logoutAll {
			app.controller.LogoutAll(cmd.Context())
		} else {
			app.controller.Logout(cmd.Context())
		}
		successf("signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := app.controller.User()
		if user == nil {
			errorf("not signed in")
			return apperrors.ErrNotAuthenticated
		}
		renderTable(cmd.OutOrStdout(),
			[]string{"ID", "Name", "Username", "Email", "Role", "Active"},
			[][]string{{
				user.ID,
				user.DisplayName + " " + user.FamilyName,
				user.Username,
				user.Email,
				string(user.Role),
				boolLabel(utils.Value(user.IsActive)),
			}},
		)
		return nil
	},
}

func boolLabel(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "revoke every session server-side")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
