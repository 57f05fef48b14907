package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in account",
	Run: func(cmd *cobra.Command, args []string) {
		u, err := newSdk(cmd).Me(cmd.Context())
		exitIfSdkError(err)

		fmt.Printf("Logged in: %s (%s)\n", u.Nickname, u.Email)
		fmt.Printf("Age: %d, %s, %.1f kg, %.1f cm\n", u.Age, u.Gender, u.Weight, u.Height)
		fmt.Printf("ID: %s\n", u.ID)
	},
}

func init() {
	rootCmd.AddCommand(meCmd)
}
