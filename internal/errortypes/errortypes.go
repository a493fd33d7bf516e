// Package errortypes provides the error taxonomy shared by every pipeline stage.
package errortypes

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/localrivet/textsummarizer/internal/logger"
)

// ErrorType represents the type of error that occurred
type ErrorType string

// Error types
const (
	// ErrorTypeConfig covers missing or empty YAML documents and absent keys.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeIO covers local filesystem failures: reads, writes, extraction.
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeNetwork covers transport failures while downloading or calling the model backend.
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeValidation covers rejected inputs.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeFramework covers failures reported by the external model, training or metric framework.
	ErrorTypeFramework ErrorType = "framework"
	// ErrorTypeInternal covers everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents an application error with context
type AppError struct {
	Err       error
	Type      ErrorType
	Message   string
	StackInfo string
	Fields    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap unwraps the error to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields adds multiple fields to the error for additional context
func (e *AppError) WithFields(fields map[string]interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// captureStack captures the stack trace at the call site
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "testing/") && !strings.Contains(frame.File, "/go/src/") {
			fmt.Fprintf(&builder, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return builder.String()
}

func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}

	return &AppError{
		Err:       err,
		Type:      errType,
		Message:   message,
		StackInfo: captureStack(),
		Fields:    make(map[string]interface{}),
	}
}

// ConfigError creates a new configuration error
func ConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfig, err, message)
}

// IOError creates a new filesystem error
func IOError(err error, message string) *AppError {
	return newAppError(ErrorTypeIO, err, message)
}

// NetworkError creates a new network error
func NetworkError(err error, message string) *AppError {
	return newAppError(ErrorTypeNetwork, err, message)
}

// ValidationError creates a new validation error
func ValidationError(err error, message string) *AppError {
	return newAppError(ErrorTypeValidation, err, message)
}

// FrameworkError creates a new error originating from the external model framework
func FrameworkError(err error, message string) *AppError {
	return newAppError(ErrorTypeFramework, err, message)
}

// InternalError creates a new internal error
func InternalError(err error, message string) *AppError {
	return newAppError(ErrorTypeInternal, err, message)
}

// LogError logs err on log. AppErrors are logged with their type, cause,
// the top of the stack and any attached fields.
func LogError(log *logger.Logger, err error) {
	if log == nil || err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		fields := map[string]interface{}{
			"error_type":     string(appErr.Type),
			"original_error": appErr.Err.Error(),
		}
		if appErr.StackInfo != "" {
			frames := strings.Split(strings.TrimSpace(appErr.StackInfo), "\n")
			if len(frames) > 3 {
				frames = frames[:3]
			}
			fields["stack"] = strings.Join(frames, " > ")
		}
		keys := make([]string, 0, len(appErr.Fields))
		for k := range appErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields[k] = appErr.Fields[k]
		}
		log.WithFields(fields).Error("%s", err.Error())
		return
	}

	log.Error("Unstructured error: %v", err)
}

// Is reports whether any error in err's chain is an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool { return Is(err, ErrorTypeConfig) }

// IsIOError checks if an error is a filesystem error
func IsIOError(err error) bool { return Is(err, ErrorTypeIO) }

// IsNetworkError checks if an error is a network error
func IsNetworkError(err error) bool { return Is(err, ErrorTypeNetwork) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return Is(err, ErrorTypeValidation) }

// IsFrameworkError checks if an error came from the external framework
func IsFrameworkError(err error) bool { return Is(err, ErrorTypeFramework) }
