package server

import (
	"errors"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

// Error codes reported in tool responses
const (
	StatusCodeValidationError = "VALIDATION_ERROR"
	StatusCodeConfigError     = "CONFIG_ERROR"
	StatusCodeIOError         = "IO_ERROR"
	StatusCodeNetworkError    = "NETWORK_ERROR"
	StatusCodeFrameworkError  = "FRAMEWORK_ERROR"
	StatusCodeInternalError   = "INTERNAL_ERROR"
	StatusCodeUnknownError    = "UNKNOWN_ERROR"
)

// ErrorCode classifies err for a tool response.
func ErrorCode(err error) string {
	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		return StatusCodeUnknownError
	}

	switch appErr.Type {
	case errortypes.ErrorTypeValidation:
		return StatusCodeValidationError
	case errortypes.ErrorTypeConfig:
		return StatusCodeConfigError
	case errortypes.ErrorTypeIO:
		return StatusCodeIOError
	case errortypes.ErrorTypeNetwork:
		return StatusCodeNetworkError
	case errortypes.ErrorTypeFramework:
		return StatusCodeFrameworkError
	case errortypes.ErrorTypeInternal:
		return StatusCodeInternalError
	default:
		return StatusCodeUnknownError
	}
}

// failure logs err and returns the code and message to put in a response.
// Tool handlers report failures in the response body so the MCP client
// sees them as results rather than transport errors.
func failure(log *logger.Logger, err error) (code, message string) {
	errortypes.LogError(log, err)
	return ErrorCode(err), err.Error()
}
