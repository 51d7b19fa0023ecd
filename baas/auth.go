package baas

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/util"
)

type User struct {
	Id           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

func authUrl(ctx rcontext.RequestContext, path string, query url.Values) string {
	u := util.MakeUrl(ctx.Config.Backend.Url, "/auth/v1", path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// SignInWithPassword exchanges credentials for a token pair.
func SignInWithPassword(ctx rcontext.RequestContext, email string, password string) (*AuthSession, error) {
	session := &AuthSession{}
	_, err := doBreakerRequest(ctx, ServiceAuth, &request{
		method: http.MethodPost,
		url:    authUrl(ctx, "/token", url.Values{"grant_type": []string{"password"}}),
		body:   passwordGrant{Email: email, Password: password},
	}, session)
	if err != nil {
		var httpErr *ErrorResponse
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
			return nil, ErrInvalidCredentials
		}
		if errors.Is(err, common.ErrAuthInvalid) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, ErrMalformedResponse
	}
	return session, nil
}

// RefreshSession trades a refresh token for a new token pair.
func RefreshSession(ctx rcontext.RequestContext, refreshToken string) (*AuthSession, error) {
	if refreshToken == "" {
		return nil, common.ErrAuthInvalid
	}
	session := &AuthSession{}
	_, err := doBreakerRequest(ctx, ServiceAuth, &request{
		method: http.MethodPost,
		url:    authUrl(ctx, "/token", url.Values{"grant_type": []string{"refresh_token"}}),
		body:   map[string]string{"refresh_token": refreshToken},
	}, session)
	if err != nil {
		var httpErr *ErrorResponse
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
			return nil, common.ErrAuthInvalid
		}
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, ErrMalformedResponse
	}
	return session, nil
}

// SignUp registers a new account. The confirmation mail links to redirectTo.
func SignUp(ctx rcontext.RequestContext, email string, password string, username string, redirectTo string) (*User, error) {
	body := signupRequest{Email: email, Password: password}
	if username != "" {
		body.Data = map[string]interface{}{"username": username}
	}
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}

	user := &User{}
	_, err := doBreakerRequest(ctx, ServiceAuth, &request{
		method: http.MethodPost,
		url:    authUrl(ctx, "/signup", query),
		body:   body,
	}, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser validates accessToken with the identity provider.
func GetUser(ctx rcontext.RequestContext, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, common.ErrAuthInvalid
	}
	user := &User{}
	_, err := doBreakerRequest(ctx, ServiceAuth, &request{
		method:      http.MethodGet,
		url:         authUrl(ctx, "/user", nil),
		accessToken: accessToken,
	}, user)
	if err != nil {
		return nil, err
	}
	if user.Id == "" {
		return nil, common.ErrAuthInvalid
	}
	return user, nil
}

func Logout(ctx rcontext.RequestContext, accessToken string) error {
	_, err := doBreakerRequest(ctx, ServiceAuth, &request{
		method:      http.MethodPost,
		url:         authUrl(ctx, "/logout", nil),
		accessToken: accessToken,
	}, nil)
	return err
}

// ErrorMessage extracts the human readable message of a backend error.
func ErrorMessage(err error) string {
	var httpErr *ErrorResponse
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return ""
}
