package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/iam"
	"github.com/quatton/qwell/pkg/qapi/services/intake"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
)

type EatenNutrientInput struct {
	Today string `query:"today" example:"2024-03-15" doc:"Day to report, YYYY-MM-DD. Defaults to the current UTC day"`
}

type EatenNutrientOutput struct {
	Body schemas.DailySummary
}

func RegisterRecommend(api huma.API, svc *intake.Service, logger *qlog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "eaten-nutrient",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/recommend/eaten_nutrient",
		Summary:     "Eaten nutrients",
		Description: "Returns a day's totals against the current nutrition target",
		Tags:        []string{TagRecommend.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *EatenNutrientInput) (*EatenNutrientOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}

		day := qnutri.Day(time.Now().UTC())
		if input.Today != "" {
			if day, err = qnutri.ParseDay(input.Today); err != nil {
				return nil, toHTTP(logger, err)
			}
		}

		sum, err := svc.GetToday(ctx, user.ID, day)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		return &EatenNutrientOutput{Body: summaryOut(sum)}, nil
	})
}
