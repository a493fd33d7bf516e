package server

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

func TestErrorCode(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", errortypes.ValidationError(cause, "bad input"), StatusCodeValidationError},
		{"config", errortypes.ConfigError(cause, "missing key"), StatusCodeConfigError},
		{"io", errortypes.IOError(cause, "read failed"), StatusCodeIOError},
		{"network", errortypes.NetworkError(cause, "timeout"), StatusCodeNetworkError},
		{"framework", errortypes.FrameworkError(cause, "generate failed"), StatusCodeFrameworkError},
		{"internal", errortypes.InternalError(cause, "bug"), StatusCodeInternalError},
		{"plain", cause, StatusCodeUnknownError},
		{"fmt wrapped", fmt.Errorf("stage: %w", errortypes.IOError(cause, "read failed")), StatusCodeIOError},
		{"pkg wrapped", pkgerrors.Wrap(errortypes.NetworkError(cause, "timeout"), "stage"), StatusCodeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %s, want %s", got, tt.want)
			}
		})
	}
}
