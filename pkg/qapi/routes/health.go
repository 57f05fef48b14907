package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth reports 503 when the database does not answer.
func RegisterHealth(api huma.API, store any) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the API and its database",
		Tags:        []string{TagHealth.String()},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		if p, ok := store.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return nil, huma.Error503ServiceUnavailable("database unreachable")
			}
		}
		resp := &HealthOutput{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}
