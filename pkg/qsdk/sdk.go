package qsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qauth"
	"github.com/quatton/qwell/pkg/qerr"
)

// Sdk is a small typed client for the qwell API with credentials baked in.
// CLI commands use it so they don't need to wire keyring + client + headers
// themselves.
type Sdk struct {
	BaseURL      string
	APIVersion   string
	Email        string
	Token        string
	RefreshToken string

	http *http.Client
}

// NewSdk returns a client for the configured server, loaded with whatever
// credentials the keyring holds for it.
func NewSdk(cfg *Config) (*Sdk, error) {
	baseURL := strings.TrimRight(cfg.GetString(BaseUrlKey), "/")
	access, refresh, err := LoadTokens(baseURL)
	if err != nil {
		return nil, err
	}

	email := cfg.GetString(EmailKey)
	if email == "" {
		if email, err = LoadEmail(baseURL); err != nil {
			return nil, err
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sdk{
		BaseURL:      baseURL,
		APIVersion:   cfg.APIVersion,
		Email:        email,
		Token:        access,
		RefreshToken: refresh,
		http:         &http.Client{Timeout: timeout},
	}, nil
}

// ClearCredentials removes cached tokens for the SDK's base URL from the
// keyring and resets the in-memory copies.
func (s *Sdk) ClearCredentials() {
	if s == nil || s.BaseURL == "" {
		return
	}
	_ = DeleteCredentials(s.BaseURL)
	s.Token = ""
	s.RefreshToken = ""
}

// Register creates an account and stores its first token pair.
func (s *Sdk) Register(ctx context.Context, req schemas.RegisterRequest) (*schemas.RegisterResponse, error) {
	var out schemas.RegisterResponse
	if err := s.doJSON(ctx, http.MethodPost, s.path("/user/register"), req, false, &out); err != nil {
		return nil, err
	}
	if err := s.remember(out.User.Email, out.Token); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login fetches the live token pair for email. The server renews expired
// tokens here, so this is also how the SDK refreshes credentials.
func (s *Sdk) Login(ctx context.Context, email string) (*schemas.LoginResponse, error) {
	var out schemas.LoginResponse
	body := schemas.LoginRequest{Email: email}
	if err := s.doJSON(ctx, http.MethodPost, s.path("/user/login"), body, false, &out); err != nil {
		return nil, err
	}
	if err := s.remember(out.User.Email, out.Token); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Sdk) Me(ctx context.Context) (*schemas.User, error) {
	var out struct {
		User schemas.User `json:"user"`
	}
	if err := s.doJSON(ctx, http.MethodGet, s.path("/user/me"), nil, true, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Today returns the day's totals against the target. An empty day means the
// server's current day.
func (s *Sdk) Today(ctx context.Context, day string) (*schemas.DailySummary, error) {
	path := s.path("/recommend/eaten_nutrient")
	if day != "" {
		path += "?today=" + url.QueryEscape(day)
	}
	var out schemas.DailySummary
	if err := s.doJSON(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Sdk) Meals(ctx context.Context, day string) ([]schemas.MealEntry, error) {
	var out struct {
		Meals []schemas.MealEntry `json:"meals"`
	}
	path := s.path("/history/meals") + "?date=" + url.QueryEscape(day)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out.Meals, nil
}

func (s *Sdk) SaveMeal(ctx context.Context, req schemas.SaveMealRequest) (*schemas.SaveMealResponse, error) {
	var out schemas.SaveMealResponse
	if err := s.doJSON(ctx, http.MethodPost, s.path("/history/save_and_get"), req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict uploads a meal photo for classification.
func (s *Sdk) Predict(ctx context.Context, filename string, photo io.Reader) (*schemas.WellnessImageInfo, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out struct {
		WellnessImageInfo schemas.WellnessImageInfo `json:"wellness_image_info"`
	}
	if err := s.do(ctx, http.MethodPost, s.path("/model/predict"), &buf, w.FormDataContentType(), true, &out); err != nil {
		return nil, err
	}
	return &out.WellnessImageInfo, nil
}

func (s *Sdk) remember(email string, pair schemas.TokenPair) error {
	s.Email = email
	s.Token = pair.AccessToken
	s.RefreshToken = pair.RefreshToken
	if err := SaveTokens(s.BaseURL, s.Token, s.RefreshToken); err != nil {
		return qerr.New(qerr.CodeUnknown, fmt.Errorf("saving tokens: %w", err))
	}
	if err := SaveEmail(s.BaseURL, email); err != nil {
		return qerr.New(qerr.CodeUnknown, fmt.Errorf("saving email: %w", err))
	}
	return nil
}

func (s *Sdk) ensureValidToken(ctx context.Context) error {
	if s.Token != "" {
		expired, err := qauth.IsTokenExpired(s.Token, 30*time.Second)
		if err == nil && !expired {
			return nil
		}
	}
	if s.Email == "" {
		return qerr.Newf(qerr.CodeUnauthorized, "missing credentials")
	}
	if _, err := s.Login(ctx, s.Email); err != nil {
		return err
	}
	return nil
}

func (s *Sdk) doJSON(ctx context.Context, method, path string, in any, auth bool, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return s.do(ctx, method, path, body, contentType, auth, out)
}

func (s *Sdk) path(route string) string {
	return apiPrefixFor(s.APIVersion) + route
}

func (s *Sdk) do(ctx context.Context, method, path string, body io.Reader, contentType string, auth bool, out any) error {
	if auth {
		if err := s.ensureValidToken(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return qerr.New(qerr.CodeUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && auth {
			s.ClearCredentials()
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return qerr.New(qerr.CodeUpstream, fmt.Errorf("decoding %s response: %w", path, err))
	}
	return nil
}

type errorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// decodeError turns a problem+json response into a coded error.
func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || (body.Detail == "" && body.Title == "") {
		body.Detail = strings.TrimSpace(string(raw))
	}
	msg := body.Detail
	if msg == "" {
		msg = body.Title
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return qerr.New(codeForStatus(resp.StatusCode), errors.New(msg))
}

func codeForStatus(status int) qerr.Code {
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return qerr.CodeInvalidInput
	case http.StatusUnauthorized:
		return qerr.CodeUnauthorized
	case http.StatusNotFound:
		return qerr.CodeNotFound
	case http.StatusConflict:
		return qerr.CodeConflict
	case http.StatusTooManyRequests:
		return qerr.CodeTooManyEntries
	case http.StatusServiceUnavailable:
		return qerr.CodeStoreUnavailable
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return qerr.CodeUpstream
	}
	return qerr.CodeUnknown
}
