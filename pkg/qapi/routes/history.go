package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/iam"
	"github.com/quatton/qwell/pkg/qapi/services/intake"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
)

type SaveMealInput struct {
	Body schemas.SaveMealRequest
}

type SaveMealOutput struct {
	Status int `json:"-"`
	Body   schemas.SaveMealResponse
}

type ListMealsInput struct {
	Date string `query:"date" required:"true" example:"2024-03-15" doc:"Day to list, YYYY-MM-DD"`
}

type ListMealsOutput struct {
	Body struct {
		Meals []schemas.MealEntry `json:"meals"`
	}
}

func RegisterHistory(api huma.API, svc *intake.Service, logger *qlog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID:   "save-and-get",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/history/save_and_get",
		Summary:       "Save a meal",
		Description:   "Records a classified meal and returns the day's meals. At most 10 meals are accepted per day.",
		Tags:          []string{TagHistory.String()},
		Security:      BearerAuth,
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusTooManyRequests},
	}, func(ctx context.Context, input *SaveMealInput) (*SaveMealOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}

		day, err := qnutri.ParseDay(input.Body.Date)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		sum, err := svc.SaveMeal(ctx, user.ID, day, intake.MealInput{
			CategoryID: input.Body.CategoryID,
			MealType:   qnutri.MealType(input.Body.MealTypeID),
			ImageURL:   input.Body.ImageURL,
		})
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		meals, err := svc.ListMeals(ctx, user.ID, day)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		resp := &SaveMealOutput{Status: http.StatusCreated}
		resp.Body.Message = "meal_list information saved successfully"
		resp.Body.Meals = mealsOut(meals)
		resp.Body.Summary = summaryOut(sum)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-meals",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/history/meals",
		Summary:     "List meals",
		Description: "Returns the meals recorded on a day",
		Tags:        []string{TagHistory.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *ListMealsInput) (*ListMealsOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}
		day, err := qnutri.ParseDay(input.Date)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		meals, err := svc.ListMeals(ctx, user.ID, day)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		resp := &ListMealsOutput{}
		resp.Body.Meals = mealsOut(meals)
		return resp, nil
	})
}
