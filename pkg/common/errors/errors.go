package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the scheduling system

var (
	// ErrClosed indicates that an operation was attempted on a shut down component
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidService indicates that an operation requiring pool membership
	// was invoked on a service that is not registered with any pool
	ErrInvalidService = errors.New("service is not present within any service pool")

	// ErrPoolConfiguration indicates that a pool was asked to schedule something
	// its strategy cannot honor, such as a periodic service with a non-positive period
	ErrPoolConfiguration = errors.New("invalid pool configuration")

	// ErrDuplicateService indicates that a pool already holds a different service with the same name
	ErrDuplicateService = errors.New("service name already registered in pool")
)

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure of a named operation inside a module.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ServiceError reports a failure tied to one named service.
type ServiceError struct {
	Service string
	Op      string
	Err     error
	Hint    string
}

// NewServiceError creates a ServiceError for the given service name.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ServiceError) WithHint(hint string) *ServiceError {
	e.Hint = hint
	return e
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Service, e.Err)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsRecoverable returns true if the caller can fix the condition and try again,
// e.g. by registering the service with a pool first.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidService) || errors.Is(err, ErrDuplicateService)
}

// IsFatal returns true for configuration errors that must not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPoolConfiguration) || errors.Is(err, ErrInvalidConfiguration)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
