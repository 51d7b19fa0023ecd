package common

const ErrCodeInvalidId = "P_INVALID_ID"
const ErrCodeNotFound = "P_NOT_FOUND"
const ErrCodeUnauthorized = "P_UNAUTHORIZED"
const ErrCodeBadRequest = "P_BAD_REQUEST"
const ErrCodeMethodNotAllowed = "P_METHOD_NOT_ALLOWED"
const ErrCodeMediaTooLarge = "P_MEDIA_TOO_LARGE"
const ErrCodeBadGateway = "P_BAD_GATEWAY"
const ErrCodeRateLimitExceeded = "P_LIMIT_EXCEEDED"
const ErrCodeUnknown = "P_UNKNOWN"
