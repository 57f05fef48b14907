package qapi

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestTimeout bounds a request end to end, including the classifier call
// and the image upload on predict.
const requestTimeout = 60 * time.Second

type Api struct {
	Api    huma.API
	Router *chi.Mux
}

// NewApi builds the router and the huma API on it. A non-nil metrics
// handler is mounted at /metrics, outside the OpenAPI document.
func NewApi(metrics http.Handler) *Api {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.CleanPath)
	router.Use(middleware.Timeout(requestTimeout))

	if metrics != nil {
		router.Handle("/metrics", metrics)
	}

	config := huma.DefaultConfig("qwell API", "1.0.0")
	config.Info.Description = "Meal logging and nutrition recommendations"

	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Access token from /api/v1/user/register or /api/v1/user/login",
		},
	}

	api := humachi.New(router, config)

	return &Api{Api: api, Router: router}
}
