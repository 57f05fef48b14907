package cmd

import (
	"fmt"

	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/spf13/cobra"
)

var registerReq schemas.RegisterRequest

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Example: `	qwellctl register --email lee@example.com --nickname lee \
		--birthday 1994-03-15 --gender female --weight 60 --height 165`,
	Run: func(cmd *cobra.Command, args []string) {
		sdk := newSdk(cmd)
		res, err := sdk.Register(cmd.Context(), registerReq)
		exitIfSdkError(err)

		fmt.Println(res.Message)
		fmt.Printf("Daily target: %.2f kcal, carbs %.2f g, protein %.2f g, fat %.2f g\n",
			res.Recommendation.Kcal, res.Recommendation.Car, res.Recommendation.Prot, res.Recommendation.Fat)
	},
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerReq.Email, "email", "", "Account email")
	f.StringVar(&registerReq.Nickname, "nickname", "", "Display name")
	f.StringVar(&registerReq.Birthday, "birthday", "", "Date of birth, YYYY-MM-DD")
	f.StringVar(&registerReq.Gender, "gender", "", "male or female")
	f.Float64Var(&registerReq.Weight, "weight", 0, "Weight in kg")
	f.Float64Var(&registerReq.Height, "height", 0, "Height in cm")
	for _, name := range []string{"email", "nickname", "birthday", "gender", "weight", "height"} {
		_ = registerCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(registerCmd)
}
