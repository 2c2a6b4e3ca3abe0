package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors.Is(err, ErrNotFound) holds for any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicatePeriod   = "DUPLICATE_PERIOD"
	CodeNoUsageData       = "NO_USAGE_DATA"
	CodeTimeout           = "TIMEOUT"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicateReading  = "DUPLICATE_READING"
	CodeAlreadyBilled     = "ALREADY_BILLED"
	CodeInvalidState      = "INVALID_STATE"
)

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrInsufficientData  = NewDomainError(CodeInsufficientData, "Not enough usage history to compute statistics")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrDuplicatePeriod   = NewDomainError(CodeDuplicatePeriod, "Billing period overlaps an existing bill")
	ErrNoUsageData       = NewDomainError(CodeNoUsageData, "No usage records in billing period")
	ErrTimeout           = NewDomainError(CodeTimeout, "Storage operation timed out")
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrDuplicateReading  = NewDomainError(CodeDuplicateReading, "Usage reading already recorded for this date")
	ErrAlreadyBilled     = NewDomainError(CodeAlreadyBilled, "Usage date falls inside a billed period")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// ErrorCode extracts the domain error code from err, or returns an empty string
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
