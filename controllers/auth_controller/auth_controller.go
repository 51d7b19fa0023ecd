package auth_controller

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/alioygur/is"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/session"
	"github.com/phosio/phosio/util"
	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6
const minUsernameLength = 2
const maxUsernameLength = 32

// FormError is a failure shown back on the login or signup form.
type FormError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string]string
	Err         error
}

func (e *FormError) Error() string {
	return e.Message
}

func (e *FormError) Unwrap() error {
	return e.Err
}

// Login checks the credentials and returns the session to store in the
// cookie.
func Login(ctx rcontext.RequestContext, email string, password string) (*session.Data, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &FormError{StatusCode: http.StatusBadRequest, Message: "Email and password are required."}
	}
	if !is.Email(email) {
		return nil, &FormError{StatusCode: http.StatusBadRequest, Message: "Enter a valid email address."}
	}

	auth, err := baas.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, baas.ErrInvalidCredentials) {
			ctx.Log.Info("Rejected sign in")
			return nil, &FormError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password.", Err: err}
		}
		return nil, err
	}

	ctx.Log.WithFields(logrus.Fields{"userId": auth.User.Id}).Info("User signed in")
	return &session.Data{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		UserId:       auth.User.Id,
	}, nil
}

type SignupRequest struct {
	Email    string
	Password string
	Username string
}

func validateSignup(req *SignupRequest) *FormError {
	fieldErrors := make(map[string]string)
	if !is.Email(req.Email) {
		fieldErrors["email"] = "Enter a valid email address."
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		fieldErrors["password"] = "Password must have at least 6 characters."
	}
	if req.Username != "" {
		n := utf8.RuneCountInString(req.Username)
		if n < minUsernameLength || n > maxUsernameLength {
			fieldErrors["username"] = "Username must have between 2 and 32 characters."
		}
	}
	if len(fieldErrors) > 0 {
		return &FormError{StatusCode: http.StatusBadRequest, Message: "Check the highlighted fields.", FieldErrors: fieldErrors}
	}
	return nil
}

// Signup registers the account. The confirmation mail sends the user back
// to the verify-email page of origin.
func Signup(ctx rcontext.RequestContext, origin string, req *SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validateSignup(req); err != nil {
		return err
	}

	redirectTo := util.MakeUrl(origin, "/verify-email")
	_, err := baas.SignUp(ctx, req.Email, req.Password, req.Username, redirectTo)
	if err != nil {
		var httpErr *baas.ErrorResponse
		if errors.As(err, &httpErr) && httpErr.Status >= 400 && httpErr.Status < 500 {
			message := baas.ErrorMessage(err)
			if message == "" {
				message = "Could not create the account."
			}
			return &FormError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
		}
		return err
	}
	ctx.Log.Info("Account created, awaiting email confirmation")
	return nil
}

// Logout revokes the token upstream. Failures are only logged since the
// cookie is cleared regardless.
func Logout(ctx rcontext.RequestContext, data *session.Data) {
	if !data.HasAccessToken() {
		return
	}
	if err := baas.Logout(ctx, data.AccessToken); err != nil {
		ctx.Log.Warn("Error revoking session upstream: ", err)
	}
}
