package _responses

import "github.com/phosio/phosio/common"

type ErrorResponse struct {
	Code         string `json:"errcode"`
	Message      string `json:"error"`
	InternalCode string `json:"-"`
}

func InternalServerError(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, message, common.ErrCodeUnknown}
}

func MethodNotAllowed() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeMethodNotAllowed, "Method Not Allowed", common.ErrCodeMethodNotAllowed}
}

func RateLimitReached() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeRateLimitExceeded, "Rate Limited", common.ErrCodeRateLimitExceeded}
}

func NotFoundError() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, "Not found", common.ErrCodeNotFound}
}

func InvalidId() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeInvalidId, "Invalid id", common.ErrCodeInvalidId}
}

func BadRequest(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeBadRequest, message, common.ErrCodeBadRequest}
}

func BadGatewayError(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeBadGateway, message, common.ErrCodeBadGateway}
}
