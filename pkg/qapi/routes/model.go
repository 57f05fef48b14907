package routes

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/classify"
	"github.com/quatton/qwell/pkg/qapi/services/iam"
	"github.com/quatton/qwell/pkg/qapi/services/intake"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qart"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
)

const maxImageBytes = 10 << 20

type PredictInput struct {
	RawBody huma.MultipartFormFiles[struct {
		File huma.FormFile `form:"file" required:"true" doc:"Meal photo, JPEG or PNG"`
	}]
}

type PredictOutput struct {
	Status int `json:"-"`
	Body   struct {
		Message           string                    `json:"message" example:"Image Classify Information saved successfully"`
		WellnessImageInfo schemas.WellnessImageInfo `json:"wellness_image_info"`
	}
}

// ModelDeps are the collaborators of the predict endpoint.
type ModelDeps struct {
	Images      qart.Store
	ImageURLTTL time.Duration
	Classify    *classify.Service
	Intake      *intake.Service
	Recommend   *recommend.Service
	Logger      *qlog.Logger
}

func RegisterModel(api huma.API, deps ModelDeps) {
	huma.Register(api, huma.Operation{
		OperationID:   "predict",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/model/predict",
		Summary:       "Classify a meal photo",
		Description:   "Stores the photo, classifies it and returns the food's nutrients next to the user's target. Nothing is added to the daily totals.",
		Tags:          []string{TagModel.String()},
		Security:      BearerAuth,
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusRequestEntityTooLarge, http.StatusBadGateway},
	}, func(ctx context.Context, input *PredictInput) (*PredictOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}

		file := input.RawBody.Data().File
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			return nil, huma.Error400BadRequest("failed to read upload")
		}
		if len(data) > maxImageBytes {
			return nil, huma.NewError(http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", maxImageBytes))
		}

		contentType := http.DetectContentType(data)
		ext, ok := qart.ImageExt(contentType)
		if !ok {
			return nil, huma.Error403Forbidden("Invalid file type. Allowed types: jpg, jpeg, png.")
		}

		key := qart.MealImageKey(user.ID, ext)
		if _, err := deps.Images.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType, map[string]string{
			"user-id":  user.ID.String(),
			"filename": file.Filename,
		}); err != nil {
			return nil, toHTTP(deps.Logger, qerr.New(qerr.CodeUpstream, fmt.Errorf("failed to upload image: %w", err)))
		}

		captured, ok := classify.CaptureTime(data)
		if !ok {
			captured = time.Now().UTC()
		}
		mealType := qnutri.MealTypeAt(captured)

		imageURL, err := deps.Images.GetPresignedURL(ctx, key, deps.ImageURLTTL)
		if err != nil {
			return nil, toHTTP(deps.Logger, qerr.New(qerr.CodeUpstream, fmt.Errorf("failed to presign image: %w", err)))
		}

		sum := sha256.Sum256(data)
		categoryID, err := deps.Classify.Classify(ctx, hex.EncodeToString(sum[:]), imageURL)
		if err != nil {
			return nil, toHTTP(deps.Logger, err)
		}

		food, err := deps.Intake.Food(ctx, categoryID)
		if err != nil {
			return nil, toHTTP(deps.Logger, err)
		}
		rec, err := deps.Recommend.GetOrRefresh(ctx, user.ID)
		if err != nil {
			return nil, toHTTP(deps.Logger, err)
		}

		resp := &PredictOutput{Status: http.StatusCreated}
		resp.Body.Message = "Image Classify Information saved successfully"
		resp.Body.WellnessImageInfo = schemas.WellnessImageInfo{
			Date:           captured.Format(qnutri.ExifTimeLayout),
			MealType:       mealType.String(),
			MealTypeID:     int(mealType),
			CategoryID:     categoryID,
			CategoryName:   food.CategoryName,
			Food:           macrosOut(food.Macros()),
			Recommendation: macrosOut(rec.Macros()),
			ImageURL:       key,
			PreviewURL:     imageURL,
		}
		return resp, nil
	})
}
