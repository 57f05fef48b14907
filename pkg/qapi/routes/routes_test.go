package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/memstore"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services"
	"github.com/quatton/qwell/pkg/qapi/services/classify"
	"github.com/quatton/qwell/pkg/qart"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	api    humatest.TestAPI
	store  *memstore.Store
	images *qart.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"category_id": 1}`))
	}))
	t.Cleanup(classifier.Close)

	store := memstore.New()
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, r db.Repo) error {
		return r.UpsertFoods(ctx, []models.Food{{
			CategoryID:   1,
			CategoryName: "bibimbap",
			FoodKcal:     decimal.RequireFromString("600"),
			FoodCar:      decimal.RequireFromString("85"),
			FoodProt:     decimal.RequireFromString("20"),
			FoodFat:      decimal.RequireFromString("18"),
		}})
	}))

	cfg := &config.EnvConfig{
		AuthSecret:            "test-secret-0123456789abcdef0123",
		AuthAlgorithm:         "HS256",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
	}
	images := qart.NewMemoryStore("meals")
	svcs, err := services.NewServices(cfg, services.Backends{
		Store:      store,
		KV:         kv.NewMemoryStore(),
		Images:     images,
		Classifier: classify.NewHTTPClassifier(classify.Config{Endpoint: classifier.URL}),
	}, qmetrics.New(), qlog.NewDiscard())
	require.NoError(t, err)

	_, api := humatest.New(t)
	RegisterAPI(api, svcs)
	return &testEnv{api: api, store: store, images: images}
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	resp := e.api.Post("/api/v1/user/register", map[string]any{
		"email":    email,
		"nickname": "lee",
		"birthday": "1994-03-15",
		"gender":   "female",
		"weight":   60,
		"height":   165,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out schemas.RegisterResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token.AccessToken)
	return "Authorization: Bearer " + out.Token.AccessToken
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp := e.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "ok")
}

func TestRegisterThenMe(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "Lee@Example.com")

	resp := e.api.Get("/api/v1/user/me", auth)
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		User schemas.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "lee@example.com", out.User.Email)
	assert.Equal(t, "female", out.User.Gender)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "lee@example.com")

	resp := e.api.Post("/api/v1/user/register", map[string]any{
		"email": "lee@example.com", "nickname": "again", "birthday": "1990-01-01",
		"gender": "male", "weight": 70, "height": 175,
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRegisterRejectsBadMetrics(t *testing.T) {
	e := newTestEnv(t)
	resp := e.api.Post("/api/v1/user/register", map[string]any{
		"email": "x@example.com", "nickname": "x", "birthday": "1990-01-01",
		"gender": "male", "weight": -3, "height": 175,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = e.api.Post("/api/v1/user/register", map[string]any{
		"email": "y@example.com", "nickname": "y", "birthday": "1990-01-01",
		"gender": "male", "weight": 10000, "height": 175,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "lee@example.com")

	resp := e.api.Post("/api/v1/user/login", map[string]any{"email": "lee@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)
	var out schemas.LoginResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "existing", out.Outcome)

	resp = e.api.Post("/api/v1/user/login", map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, e.api.Get("/api/v1/user/me").Code)
	assert.Equal(t, http.StatusUnauthorized, e.api.Get("/api/v1/user/me", "Authorization: Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, e.api.Get("/api/v1/recommend/eaten_nutrient").Code)
}

func TestSaveAndGetCapsMealsPerDay(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "lee@example.com")
	body := map[string]any{"category_id": 1, "meal_type_id": 1, "date": "2024-03-15"}

	for i := 0; i < 10; i++ {
		resp := e.api.Post("/api/v1/history/save_and_get", auth, body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := e.api.Post("/api/v1/history/save_and_get", auth, body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	resp = e.api.Get("/api/v1/history/meals?date=2024-03-15", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		Meals []schemas.MealEntry `json:"meals"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Len(t, out.Meals, 10)
	assert.Equal(t, "bibimbap", out.Meals[0].CategoryName)
}

func TestEatenNutrient(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "lee@example.com")

	resp := e.api.Get("/api/v1/recommend/eaten_nutrient?today=2024-03-15", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var empty schemas.DailySummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &empty))
	assert.Zero(t, empty.Total.Kcal)
	assert.Greater(t, empty.Recommendation.Kcal, 2000.0)
	assert.False(t, empty.Condition)

	for i := 0; i < 5; i++ {
		resp = e.api.Post("/api/v1/history/save_and_get", auth, map[string]any{
			"category_id": 1, "meal_type_id": 2, "date": "2024-03-15",
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp = e.api.Get("/api/v1/recommend/eaten_nutrient?today=2024-03-15", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var sum schemas.DailySummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sum))
	assert.Equal(t, 3000.0, sum.Total.Kcal)
	assert.Equal(t, 425.0, sum.Total.Car)
	assert.True(t, sum.Condition)
	assert.Len(t, sum.HistoryIDs, 5)

	resp = e.api.Get("/api/v1/recommend/eaten_nutrient?today=yesterday", auth)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func multipartFile(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="meal.png"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, "Content-Type: " + w.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestPredict(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "lee@example.com")

	body, contentType := multipartFile(t, pngBytes(t))
	resp := e.api.Post("/api/v1/model/predict", auth, contentType, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out struct {
		WellnessImageInfo schemas.WellnessImageInfo `json:"wellness_image_info"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	info := out.WellnessImageInfo
	assert.Equal(t, 1, info.CategoryID)
	assert.Equal(t, "bibimbap", info.CategoryName)
	assert.Equal(t, 600.0, info.Food.Kcal)
	assert.Greater(t, info.Recommendation.Kcal, 2000.0)
	assert.True(t, e.images.Has(info.ImageURL))
	assert.NotEmpty(t, info.PreviewURL)
}

func TestPredictRejectsNonImages(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "lee@example.com")

	body, contentType := multipartFile(t, []byte("just some text, not a photo"))
	resp := e.api.Post("/api/v1/model/predict", auth, contentType, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestPredictRejectsOversizedUpload(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "lee@example.com")

	data := append(pngBytes(t), make([]byte, maxImageBytes)...)
	body, contentType := multipartFile(t, data)
	resp := e.api.Post("/api/v1/model/predict", auth, contentType, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code, resp.Body.String())
	assert.Zero(t, e.images.Len())
}

func TestOpenAPIWithoutServices(t *testing.T) {
	_, api := humatest.New(t)
	RegisterAPI(api, nil)

	spec := api.OpenAPI()
	for _, path := range []string{
		"/api/v1/user/register",
		"/api/v1/user/login",
		"/api/v1/oauth/kakao/login",
		"/api/v1/recommend/eaten_nutrient",
		"/api/v1/model/predict",
		"/api/v1/history/save_and_get",
	} {
		assert.Contains(t, spec.Paths, path)
	}
}
