// Package errors provides domain-specific error types for the bootstrap host.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// BoundaryError is the single failure kind of a bootstrap run. It covers both
// a module that could not be loaded and an entry operation that failed.
// The message is the cause's message, unmodified.
type BoundaryError struct {
	Err   error
	Stage entities.Stage
}

func (e *BoundaryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Stage)
	}
	return e.Err.Error()
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *BoundaryError) ToErrorDetail() *entities.ErrorDetail {
	var cause *entities.ErrorDetail
	if e.Err != nil {
		cause = ToErrorDetail(e.Err)
	}
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: string(e.Stage)}
	if cause != nil {
		detail.Type = cause.Type
		detail.Details = cause.Details
	}
	return detail
}

// StageOf reports the stage recorded on err, if err wraps a BoundaryError.
func StageOf(err error) (entities.Stage, bool) {
	var be *BoundaryError
	if stdErrors.As(err, &be) {
		return be.Stage, true
	}
	return "", false
}

// PanicError is a panic recovered from a loader or module implementation.
type PanicError struct {
	Value any
}

// NewPanicError wraps a recovered panic value.
func NewPanicError(v any) *PanicError {
	return &PanicError{Value: v}
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return "panic: " + v.Error()
	case string:
		return "panic: " + v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

// Unwrap returns the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ToErrorDetail implements DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "panic"}
}

// GuestError carries a failure reported by the guest module itself,
// as opposed to a trap or a host-side ABI problem.
type GuestError struct {
	Detail *entities.ErrorDetail
	Export string
}

// Error returns the guest's message as it was sent.
func (e *GuestError) Error() string {
	if e.Detail == nil || e.Detail.Message == "" {
		return fmt.Sprintf("%s reported a failure", e.Export)
	}
	return e.Detail.Message
}

func (e *GuestError) Unwrap() error {
	if e.Detail == nil {
		return nil
	}
	return e.Detail
}

// ToErrorDetail implements DetailedError.
func (e *GuestError) ToErrorDetail() *entities.ErrorDetail {
	if e.Detail == nil {
		return &entities.ErrorDetail{Message: e.Error(), Type: "guest", Code: e.Export}
	}
	return e.Detail
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}
