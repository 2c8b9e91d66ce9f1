// Package errors provides centralized error definitions and error handling utilities
// for areavis. It defines domain-specific errors, semantic error types, error
// constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - BusError: errors raised by the event bus while subscribing or publishing
//   - LayoutError: errors loading or interpreting a page layout
//
// Semantic errors represent common error conditions:
//   - NotFoundError: an area or widget is not known
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewBusError("publish failed", errors.ErrQueueFull).WithTopic("didChangeAreaVisibility.main")
//	err := errors.NewNotFoundError("area", "sidebar")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrBusClosed) { ... }
//
//	var busErr *errors.BusError
//	if errors.As(err, &busErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Bus-related sentinel errors
var (
	// ErrBusClosed indicates that the event bus no longer accepts traffic.
	ErrBusClosed = New("event bus closed")
	// ErrQueueFull indicates that the bus dropped a publish because its queue was full.
	ErrQueueFull = New("event bus queue full")
	// ErrNilHandler indicates a subscription without a handler.
	ErrNilHandler = New("nil event handler")
	// ErrInvalidTopic indicates a topic that cannot be routed.
	ErrInvalidTopic = New("invalid topic")
	// ErrNoEventBus indicates a host context without an event bus.
	ErrNoEventBus = New("no event bus in context")
)

// Layout-related sentinel errors
var (
	// ErrUnknownArea indicates that an area is not part of the layout.
	ErrUnknownArea = New("unknown area")
	// ErrUnknownWidget indicates that a widget is not part of the layout.
	ErrUnknownWidget = New("unknown widget")
	// ErrInvalidLayout indicates that a layout document failed validation.
	ErrInvalidLayout = New("invalid layout")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// AreavisError is the base interface for all areavis errors.
type AreavisError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable indicates whether the operation that caused this error
	// might succeed if retried.
	IsRetryable() bool

	// IsUserFacing indicates whether this error message is safe to show to users.
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRetryable() bool {
	return e.retryable
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// BusError represents a failure raised by the event bus.
//
// Example:
//
//	err := errors.NewBusError("publish rejected", errors.ErrBusClosed).WithTopic("changeAreaVisibilityRequest.main.true")
//	fmt.Println(err) // "bus error [topic=changeAreaVisibilityRequest.main.true]: publish rejected: event bus closed"
type BusError struct {
	baseError
	Topic  string
	Client string
}

// NewBusError creates a new BusError. Queue overflow is classified retryable.
func NewBusError(message string, cause error) *BusError {
	return &BusError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  errors.Is(cause, ErrQueueFull),
			userFacing: false,
		},
	}
}

// WithTopic adds the topic to the error context.
func (e *BusError) WithTopic(topic string) *BusError {
	e.Topic = topic
	return e
}

// WithClient adds the publishing or subscribing client to the error context.
func (e *BusError) WithClient(client string) *BusError {
	e.Client = client
	return e
}

// WithSeverity sets the error severity.
func (e *BusError) WithSeverity(s Severity) *BusError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *BusError) Error() string {
	var parts []string
	if e.Topic != "" {
		parts = append(parts, fmt.Sprintf("topic=%s", e.Topic))
	}
	if e.Client != "" {
		parts = append(parts, fmt.Sprintf("client=%s", e.Client))
	}
	return e.format("bus error", parts)
}

// LayoutError represents a failure loading or applying a page layout.
type LayoutError struct {
	baseError
	Path string
}

// NewLayoutError creates a new LayoutError.
func NewLayoutError(message string, cause error) *LayoutError {
	return &LayoutError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithPath adds the layout file path to the error context.
func (e *LayoutError) WithPath(path string) *LayoutError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *LayoutError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("layout error", parts)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents an area or widget that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("area", "sidebar")
//	fmt.Println(err) // "area 'sidebar' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("area name cannot be empty").WithField("areas[0].name")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry, such as a full bus queue.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var areavisErr AreavisError
	if As(err, &areavisErr) {
		return areavisErr.IsRetryable()
	}

	return Is(err, ErrQueueFull)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var areavisErr AreavisError
	if As(err, &areavisErr) {
		return areavisErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement AreavisError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var areavisErr AreavisError
	if As(err, &areavisErr) {
		return areavisErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
