package schemas

import "time"

// TokenPair is the live access/refresh pair of a user.
type TokenPair struct {
	AccessToken      string    `json:"access_token" doc:"Short-lived bearer token for protected endpoints"`
	RefreshToken     string    `json:"refresh_token" doc:"Long-lived token used at login to renew the access token"`
	TokenType        string    `json:"token_type" doc:"Token type descriptor" example:"bearer"`
	ExpiresAt        time.Time `json:"expires_at" doc:"Access token expiry"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" doc:"Refresh token expiry"`
}

// LoginRequest identifies the account to log in to.
type LoginRequest struct {
	Email string `json:"email" format:"email" doc:"Registered email address"`
}

// LoginResponse carries the (possibly renewed) token pair.
type LoginResponse struct {
	Message string    `json:"message" example:"Access token renewed." doc:"What the login did to the stored tokens"`
	Outcome string    `json:"outcome" enum:"issued,existing,access_renewed,pair_reissued" doc:"Token lifecycle transition"`
	Token   TokenPair `json:"token"`
	User    User      `json:"user"`
}

// KakaoLoginResponse is the start of the Kakao authorization-code flow.
type KakaoLoginResponse struct {
	AuthorizeURL string `json:"authorize_url" doc:"URL to send the user to for Kakao consent"`
	State        string `json:"state" doc:"Single-use state to echo back with the code"`
}

// KakaoCodeRequest carries the code Kakao redirected back with.
type KakaoCodeRequest struct {
	Code  string `json:"code" minLength:"1" doc:"Authorization code from Kakao"`
	State string `json:"state" minLength:"1" doc:"State returned by the login endpoint"`
}

// KakaoCodeResponse is the provider token obtained for the code.
type KakaoCodeResponse struct {
	AccessToken string     `json:"access_token" doc:"Kakao access token"`
	TokenType   string     `json:"token_type,omitempty" doc:"Token type reported by Kakao"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" doc:"Provider token expiry"`
	RedirectURI string     `json:"redirect_uri,omitempty" doc:"Where the client asked to land after login"`
}
