package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/spf13/cobra"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Compare a day's intake with your target",
	Run: func(cmd *cobra.Command, args []string) {
		sum, err := newSdk(cmd).Today(cmd.Context(), todayDate)
		exitIfSdkError(err)
		printSummary(sum)
	},
}

func printSummary(sum *schemas.DailySummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tEATEN\tTARGET\n", sum.Date)
	fmt.Fprintf(w, "kcal\t%.2f\t%.2f\n", sum.Total.Kcal, sum.Recommendation.Kcal)
	fmt.Fprintf(w, "carbs (g)\t%.2f\t%.2f\n", sum.Total.Car, sum.Recommendation.Car)
	fmt.Fprintf(w, "protein (g)\t%.2f\t%.2f\n", sum.Total.Prot, sum.Recommendation.Prot)
	fmt.Fprintf(w, "fat (g)\t%.2f\t%.2f\n", sum.Total.Fat, sum.Recommendation.Fat)
	_ = w.Flush()

	if sum.Condition {
		fmt.Println("Over today's energy target.")
	}
}

func init() {
	todayCmd.Flags().StringVarP(&todayDate, "date", "d", "", "Day to report, YYYY-MM-DD (default: today)")
	rootCmd.AddCommand(todayCmd)
}
