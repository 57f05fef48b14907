package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qapi/services/iam"
	"github.com/quatton/qwell/pkg/qapi/services/users"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
)

type RegisterInput struct {
	Body schemas.RegisterRequest
}

type RegisterOutput struct {
	Status int `json:"-"`
	Body   schemas.RegisterResponse
}

type LoginInput struct {
	Body schemas.LoginRequest
}

type LoginOutput struct {
	Body schemas.LoginResponse
}

type MeOutput struct {
	Body struct {
		User schemas.User `json:"user"`
	}
}

type ProfileInput struct {
	Body schemas.ProfilePatch
}

func RegisterUsers(api huma.API, svc *users.Service, auth *authconfig.AuthService, logger *qlog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/user/register",
		Summary:       "Register",
		Description:   "Creates an account, its nutrition target and a first token pair",
		Tags:          []string{TagUsers.String()},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		reg, err := registrationFrom(input.Body)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		out, err := svc.Register(ctx, reg)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		resp := &RegisterOutput{Status: http.StatusCreated}
		resp.Body.Message = "Registration is complete."
		resp.Body.Token = tokensOut(out.Tokens)
		resp.Body.User = userOut(out.User)
		resp.Body.Recommendation = macrosOut(out.Recommendation.Macros())
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/user/login",
		Summary:     "Log in",
		Description: "Returns the live token pair, renewing the access token or the whole pair when they have expired",
		Tags:        []string{TagUsers.String()},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		res, err := auth.Login(ctx, input.Body.Email)
		if err != nil {
			return nil, toHTTP(logger, err)
		}

		resp := &LoginOutput{}
		resp.Body.Message = res.Outcome.Message()
		resp.Body.Outcome = string(res.Outcome)
		resp.Body.Token = tokensOut(res.Tokens)
		resp.Body.User = userOut(res.User)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/user/me",
		Summary:     "Get current user",
		Description: "Retrieves the profile of the authenticated user",
		Tags:        []string{TagUsers.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *struct{}) (*MeOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}
		resp := &MeOutput{}
		resp.Body.User = userOut(user)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/user/profile",
		Summary:     "Update profile",
		Description: "Changes body metrics; the nutrition target is recomputed on its next read",
		Tags:        []string{TagUsers.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *ProfileInput) (*MeOutput, error) {
		user, err := iam.Require(ctx)
		if err != nil {
			return nil, err
		}
		patch, err := patchFrom(input.Body)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		updated, err := svc.UpdateProfile(ctx, user.ID, patch)
		if err != nil {
			return nil, toHTTP(logger, err)
		}
		resp := &MeOutput{}
		resp.Body.User = userOut(updated)
		return resp, nil
	})
}

func registrationFrom(req schemas.RegisterRequest) (users.Registration, error) {
	birthday, err := parseDate(req.Birthday)
	if err != nil {
		return users.Registration{}, err
	}
	gender, err := qnutri.ParseGender(req.Gender)
	if err != nil {
		return users.Registration{}, err
	}
	return users.Registration{
		Email:    req.Email,
		Nickname: req.Nickname,
		Birthday: birthday,
		Gender:   gender,
		Weight:   decimal.NewFromFloat(req.Weight),
		Height:   decimal.NewFromFloat(req.Height),
	}, nil
}

func patchFrom(req schemas.ProfilePatch) (users.ProfilePatch, error) {
	var p users.ProfilePatch
	p.Nickname = req.Nickname
	if req.Birthday != nil {
		b, err := parseDate(*req.Birthday)
		if err != nil {
			return p, err
		}
		p.Birthday = &b
	}
	if req.Gender != nil {
		g, err := qnutri.ParseGender(*req.Gender)
		if err != nil {
			return p, err
		}
		p.Gender = &g
	}
	if req.Weight != nil {
		w := decimal.NewFromFloat(*req.Weight)
		p.Weight = &w
	}
	if req.Height != nil {
		h := decimal.NewFromFloat(*req.Height)
		p.Height = &h
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, qerr.Newf(qerr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
