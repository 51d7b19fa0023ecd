package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phosio/phosio/common"
	"github.com/rubyist/circuitbreaker"
)

var ErrInvalidCredentials = errors.New("invalid login credentials")
var ErrMalformedResponse = errors.New("malformed response")

// ErrorResponse is any non-2xx answer from the backend. The three services
// disagree on error shapes, so Code and Message are best-effort.
type ErrorResponse struct {
	Service string
	Status  int
	Body    string
	Code    string
	Message string
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Service, e.Status, e.Body)
}

func (e *ErrorResponse) Unwrap() error {
	return common.NewBackendError(e.Service, e.Status, e.Body)
}

func parseErrorResponse(service string, status int, contents []byte) *ErrorResponse {
	res := &ErrorResponse{
		Service: service,
		Status:  status,
		Body:    string(contents),
	}

	fields := make(map[string]interface{})
	if err := json.Unmarshal(contents, &fields); err != nil {
		return res
	}
	for _, k := range []string{"code", "error_code", "error"} {
		if s, ok := fields[k].(string); ok && s != "" {
			res.Code = s
			break
		}
	}
	for _, k := range []string{"message", "msg", "error_description", "error"} {
		if s, ok := fields[k].(string); ok && s != "" {
			res.Message = s
			break
		}
	}
	return res
}

// isAuthFailure reports whether the backend rejected the bearer credential.
// Some services answer 400 with a JWT complaint instead of 401.
func (e *ErrorResponse) isAuthFailure() bool {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(e.Message)
	if strings.Contains(msg, "jwt") && (strings.Contains(msg, "expired") || strings.Contains(msg, "invalid")) {
		return true
	}
	return strings.Contains(msg, "invalid") && strings.Contains(msg, "token")
}

// filterError splits an error into what the circuit breaker should see and
// what the caller should see. Client-side problems never trip the breaker.
func filterError(err error) (error, error) {
	if err == nil {
		return nil, nil
	}

	if errors.Is(err, context.Canceled) {
		return nil, err
	}

	var httpErr *ErrorResponse
	if errors.As(err, &httpErr) {
		if httpErr.isAuthFailure() {
			return nil, common.ErrAuthInvalid
		}
		if httpErr.Status < 500 {
			return nil, httpErr
		}
	}

	return err, err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, common.ErrAuthInvalid) {
		return "auth_invalid"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return "breaker_open"
	}
	var httpErr *ErrorResponse
	if errors.As(err, &httpErr) && httpErr.Status < 500 {
		return "client_error"
	}
	return "server_error"
}
