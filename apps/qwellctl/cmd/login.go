package cmd

import (
	"fmt"

	"github.com/quatton/qwell/pkg/qsdk"
	"github.com/spf13/cobra"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the qwell API",
	Long: `Fetch the live token pair for your account and store it in the OS keyring.

Expired tokens are renewed by the server during login, so running this again
is also how you recover from an expired session.

Examples:
	qwellctl login --email lee@example.com
	QWELL_EMAIL=lee@example.com qwellctl login`,
	Run: func(cmd *cobra.Command, args []string) {
		sdk := newSdk(cmd)
		email := loginEmail
		if email == "" {
			email = sdk.Email
		}
		if email == "" {
			exitIfSdkError(fmt.Errorf("--email is required"))
		}

		res, err := sdk.Login(cmd.Context(), email)
		exitIfSdkError(err)

		fmt.Println(res.Message)
		fmt.Printf("Logged in as: %s (%s)\n", res.User.Nickname, res.User.Email)
		fmt.Printf("Token expires: %s\n", res.Token.ExpiresAt.Local().Format("2006-01-02 15:04"))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := GetConfig(cmd)
		exitIfSdkError(err)
		exitIfSdkError(qsdk.DeleteCredentials(cfg.GetString(qsdk.BaseUrlKey)))
		fmt.Println("Logged out")
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
