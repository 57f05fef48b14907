package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/spf13/cobra"
)

var mealsDate string

var mealsCmd = &cobra.Command{
	Use:   "meals",
	Short: "List the meals recorded on a day",
	Run: func(cmd *cobra.Command, args []string) {
		day := mealsDate
		if day == "" {
			day = time.Now().UTC().Format(time.DateOnly)
		}
		meals, err := newSdk(cmd).Meals(cmd.Context(), day)
		exitIfSdkError(err)

		if len(meals) == 0 {
			fmt.Printf("No meals recorded on %s\n", day)
			return
		}
		printMeals(meals)
	},
}

func printMeals(meals []schemas.MealEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMEAL\tFOOD\tKCAL")
	for _, m := range meals {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n", m.HistoryID, m.MealTypeName, m.CategoryName, m.Food.Kcal)
	}
	_ = w.Flush()
}

func init() {
	mealsCmd.Flags().StringVarP(&mealsDate, "date", "d", "", "Day to list, YYYY-MM-DD (default: today, UTC)")
	rootCmd.AddCommand(mealsCmd)
}
