package routes

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTP(t *testing.T) {
	cases := []struct {
		code   qerr.Code
		status int
	}{
		{qerr.CodeInvalidInput, http.StatusBadRequest},
		{qerr.CodeInvalidToken, http.StatusUnauthorized},
		{qerr.CodeTokenExpired, http.StatusUnauthorized},
		{qerr.CodeUnauthorized, http.StatusUnauthorized},
		{qerr.CodeNotFound, http.StatusNotFound},
		{qerr.CodeConflict, http.StatusConflict},
		{qerr.CodeTooManyEntries, http.StatusTooManyRequests},
		{qerr.CodeUpstream, http.StatusBadGateway},
		{qerr.CodeStoreUnavailable, http.StatusServiceUnavailable},
		{qerr.CodeUserNotFound, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			err := toHTTP(qlog.NewDiscard(), qerr.Newf(tc.code, "boom"))
			var se huma.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.status, se.GetStatus())
		})
	}

	assert.NoError(t, toHTTP(qlog.NewDiscard(), nil))

	var se huma.StatusError
	require.True(t, errors.As(toHTTP(qlog.NewDiscard(), errors.New("plain")), &se))
	assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
}

func TestToHTTPHidesStoreDetails(t *testing.T) {
	err := toHTTP(qlog.NewDiscard(), qerr.Newf(qerr.CodeStoreUnavailable, "dial tcp 10.0.0.3:5432: refused"))
	assert.NotContains(t, err.Error(), "10.0.0.3")
}
