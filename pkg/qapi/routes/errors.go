package routes

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
)

// toHTTP translates a service error into the response a client sees. Every
// handler funnels its errors through here.
func toHTTP(logger *qlog.Logger, err error) error {
	if err == nil {
		return nil
	}
	msg := qerr.Message(err)
	switch qerr.CodeOf(err) {
	case qerr.CodeInvalidInput:
		return huma.Error400BadRequest(msg)
	case qerr.CodeInvalidToken, qerr.CodeTokenExpired, qerr.CodeUnauthorized:
		return huma.Error401Unauthorized(msg)
	case qerr.CodeNotFound:
		return huma.Error404NotFound(msg)
	case qerr.CodeConflict:
		return huma.Error409Conflict(msg)
	case qerr.CodeTooManyEntries:
		return huma.Error429TooManyRequests(msg)
	case qerr.CodeUpstream:
		logger.Warn("upstream failure", "error", err)
		return huma.Error502BadGateway(msg)
	case qerr.CodeStoreUnavailable:
		logger.Error("store unavailable", "error", err)
		return huma.Error503ServiceUnavailable("service temporarily unavailable")
	case qerr.CodeUserNotFound:
		logger.Error("account integrity fault", "error", err)
		return huma.Error500InternalServerError("account integrity fault")
	default:
		logger.Error("unhandled error", "error", err)
		return huma.Error500InternalServerError("internal server error")
	}
}
