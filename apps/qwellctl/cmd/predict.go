package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/spf13/cobra"
)

var predictSave bool

var predictCmd = &cobra.Command{
	Use:   "predict <photo>",
	Short: "Classify a meal photo",
	Long: `Upload a JPEG or PNG meal photo and print what it was classified as.

With --save the meal is also recorded on the day the photo was taken.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		exitIfSdkError(err)
		defer f.Close()

		sdk := newSdk(cmd)
		info, err := sdk.Predict(cmd.Context(), filepath.Base(args[0]), f)
		exitIfSdkError(err)

		fmt.Printf("%s (%s, taken %s)\n", info.CategoryName, info.MealType, info.Date)
		fmt.Printf("  %.2f kcal, carbs %.2f g, protein %.2f g, fat %.2f g\n",
			info.Food.Kcal, info.Food.Car, info.Food.Prot, info.Food.Fat)

		if !predictSave {
			return
		}
		res, err := sdk.SaveMeal(cmd.Context(), schemas.SaveMealRequest{
			CategoryID: info.CategoryID,
			MealTypeID: info.MealTypeID,
			ImageURL:   info.ImageURL,
			Date:       info.Date,
		})
		exitIfSdkError(err)
		fmt.Println(res.Message)
		printSummary(&res.Summary)
	},
}

var (
	saveCategory int
	saveMealType string
	saveDate     string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Record a meal by food category",
	Run: func(cmd *cobra.Command, args []string) {
		mealType, err := qnutri.ParseMealType(saveMealType)
		exitIfSdkError(err)

		res, err := newSdk(cmd).SaveMeal(cmd.Context(), schemas.SaveMealRequest{
			CategoryID: saveCategory,
			MealTypeID: int(mealType),
			Date:       saveDate,
		})
		exitIfSdkError(err)

		fmt.Println(res.Message)
		printMeals(res.Meals)
		printSummary(&res.Summary)
	},
}

func init() {
	predictCmd.Flags().BoolVar(&predictSave, "save", false, "Also record the meal")
	rootCmd.AddCommand(predictCmd)

	saveCmd.Flags().IntVarP(&saveCategory, "category", "c", 0, "Food category id")
	saveCmd.Flags().StringVarP(&saveMealType, "meal", "m", "other", "breakfast, lunch, dinner or other")
	saveCmd.Flags().StringVarP(&saveDate, "date", "d", "", "Day of the meal, YYYY-MM-DD")
	_ = saveCmd.MarkFlagRequired("category")
	_ = saveCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(saveCmd)
}
