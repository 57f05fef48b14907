package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qlog"
)

type KakaoLoginInput struct {
	RedirectURI string `query:"redirect_uri" doc:"Where the client wants to land after login" example:"http://localhost:3000/oauth"`
	Redirect    bool   `query:"redirect" doc:"Answer with a 302 to Kakao instead of a JSON body" default:"false"`
}

type KakaoLoginOutput struct {
	Status   int    `json:"-"`
	Location string `header:"Location" doc:"Kakao consent URL when redirect=true"`
	Body     *schemas.KakaoLoginResponse
}

type KakaoCodeInput struct {
	Body schemas.KakaoCodeRequest
}

type KakaoCodeOutput struct {
	Body schemas.KakaoCodeResponse
}

func RegisterOAuth(api huma.API, svc *authconfig.AuthService, logger *qlog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "kakao-login",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/oauth/kakao/login",
		Summary:     "Start Kakao login",
		Description: "Issues a single-use state and the Kakao consent URL it belongs to",
		Tags:        []string{TagOAuth.String()},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *KakaoLoginInput) (*KakaoLoginOutput, error) {
		if !svc.KakaoEnabled() {
			return nil, huma.Error502BadGateway("Kakao login is not configured")
		}

		state, err := svc.GenerateState(ctx, input.RedirectURI)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		authorizeURL, err := svc.AuthorizeURL(state)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		if input.Redirect {
			return &KakaoLoginOutput{Status: http.StatusFound, Location: authorizeURL}, nil
		}
		return &KakaoLoginOutput{
			Status: http.StatusOK,
			Body:   &schemas.KakaoLoginResponse{AuthorizeURL: authorizeURL, State: state},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "kakao-code",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/oauth/code/kakao",
		Summary:     "Exchange Kakao code",
		Description: "Consumes the state and trades the authorization code for a Kakao access token",
		Tags:        []string{TagOAuth.String()},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *KakaoCodeInput) (*KakaoCodeOutput, error) {
		claims, err := svc.ValidateState(ctx, input.Body.State)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		tok, err := svc.ExchangeCode(ctx, input.Body.Code)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		resp := &KakaoCodeOutput{}
		resp.Body.AccessToken = tok.AccessToken
		resp.Body.TokenType = tok.TokenType
		resp.Body.RedirectURI = claims.RedirectURI
		if !tok.Expiry.IsZero() {
			exp := tok.Expiry
			resp.Body.ExpiresAt = &exp
		}
		return resp, nil
	})
}
