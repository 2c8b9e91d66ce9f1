package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/areavis/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bus.queue_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, level := range levels {
		levels[i] = strings.ToLower(level)
	}
	return levels
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{logging.FormatJSON, logging.FormatText}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Bus config
	errors = append(errors, c.validateBus()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	// Validate Layout config
	errors = append(errors, c.validateLayout()...)

	return errors
}

// validateBus validates the BusConfig
func (c *Config) validateBus() []ValidationError {
	var errors []ValidationError

	if c.Bus.QueueSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bus.queue_size",
			Value:   c.Bus.QueueSize,
			Message: "must be positive",
		})
	}

	// A queue this large hides runaway publish loops
	const maxQueueSize = 65536
	if c.Bus.QueueSize > maxQueueSize {
		errors = append(errors, ValidationError{
			Field:   "bus.queue_size",
			Value:   c.Bus.QueueSize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxQueueSize),
		})
	}

	if c.Bus.DeliverTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bus.deliver_timeout_ms",
			Value:   c.Bus.DeliverTimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	return errors
}

// validateLayout validates the LayoutConfig
func (c *Config) validateLayout() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Layout.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "layout.path",
			Value:   c.Layout.Path,
			Message: "cannot be empty",
		})
	}

	if c.Layout.Watch && strings.TrimSpace(c.Layout.Path) == "-" {
		errors = append(errors, ValidationError{
			Field:   "layout.watch",
			Value:   c.Layout.Watch,
			Message: "cannot watch a layout read from stdin",
		})
	}

	return errors
}
