package dto

import (
	"net/http"

	"github.com/hydrospark/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes pass through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeInsufficientData:  http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition: http.StatusConflict,
	shared.CodeDuplicatePeriod:   http.StatusConflict,
	shared.CodeNoUsageData:       http.StatusUnprocessableEntity,
	shared.CodeTimeout:           http.StatusGatewayTimeout,
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeDuplicateReading:  http.StatusConflict,
	shared.CodeAlreadyBilled:     http.StatusConflict,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,

	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
