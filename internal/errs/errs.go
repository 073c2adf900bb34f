// Package errs provides classified errors for the handoff queue.
//
// Construction failures are returned as *ClassifiedError values that carry a
// class, the component and operation that failed, and the sentinel they wrap,
// so callers can branch with errors.Is on the sentinel or with IsInvalid /
// IsFatal / IsTransient on the class.
package errs

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration.
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidCapacity is returned for a zero, negative or non power-of-two capacity.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrUnsupportedElementType is returned for zero-sized element types.
	ErrUnsupportedElementType = errors.New("unsupported element type")

	// ErrAllocationFailure is returned when slot storage cannot be obtained.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrNotCloneable is returned when cloning a handle of a single-producer
	// single-consumer queue.
	ErrNotCloneable = errors.New("handle not cloneable")

	// ErrMetricsRegistration is returned when Prometheus collectors cannot be registered.
	ErrMetricsRegistration = errors.New("metrics registration failed")

	// ErrInvalidConfig is returned by configuration validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message == "" {
		return fmt.Sprintf("%s.%s: %v", ce.Component, ce.Operation, ce.Err)
	}
	return fmt.Sprintf("%s.%s: %s: %v", ce.Component, ce.Operation, ce.Message, ce.Err)
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

func wrap(class ErrorClass, err error, component, operation, message string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// WrapInvalid wraps err as an ErrorInvalid classified error.
func WrapInvalid(err error, component, operation, message string) error {
	return wrap(ErrorInvalid, err, component, operation, message)
}

// WrapFatal wraps err as an ErrorFatal classified error.
func WrapFatal(err error, component, operation, message string) error {
	return wrap(ErrorFatal, err, component, operation, message)
}

// WrapTransient wraps err as an ErrorTransient classified error.
func WrapTransient(err error, component, operation, message string) error {
	return wrap(ErrorTransient, err, component, operation, message)
}

func classOf(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

// IsInvalid reports whether err is classified as invalid input.
func IsInvalid(err error) bool {
	if class, ok := classOf(err); ok {
		return class == ErrorInvalid
	}
	return errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrUnsupportedElementType) ||
		errors.Is(err, ErrNotCloneable) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsFatal reports whether err is classified as fatal.
func IsFatal(err error) bool {
	if class, ok := classOf(err); ok {
		return class == ErrorFatal
	}
	return errors.Is(err, ErrAllocationFailure)
}

// IsTransient reports whether err is classified as transient.
func IsTransient(err error) bool {
	if class, ok := classOf(err); ok {
		return class == ErrorTransient
	}
	return errors.Is(err, ErrMetricsRegistration)
}
