package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// BusError Tests
// -----------------------------------------------------------------------------

func TestBusError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BusError
		want string
	}{
		{
			name: "no context",
			err:  NewBusError("publish rejected", nil),
			want: "bus error: publish rejected",
		},
		{
			name: "topic and cause",
			err:  NewBusError("publish rejected", ErrBusClosed).WithTopic("changeAreaVisibilityRequest.main.true"),
			want: "bus error [topic=changeAreaVisibilityRequest.main.true]: publish rejected: event bus closed",
		},
		{
			name: "topic and client",
			err:  NewBusError("subscribe failed", nil).WithTopic("a.b").WithClient("w1"),
			want: "bus error [topic=a.b, client=w1]: subscribe failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBusError_Unwrap(t *testing.T) {
	err := NewBusError("publish rejected", ErrBusClosed)
	wrapped := fmt.Errorf("outer: %w", err)

	if !Is(wrapped, ErrBusClosed) {
		t.Error("errors.Is should find ErrBusClosed through BusError")
	}

	var busErr *BusError
	if !As(wrapped, &busErr) {
		t.Fatal("errors.As should find *BusError")
	}
	if busErr.message != "publish rejected" {
		t.Errorf("message = %q, want %q", busErr.message, "publish rejected")
	}
}

func TestBusError_RetryableOnQueueFull(t *testing.T) {
	if !NewBusError("dropped", ErrQueueFull).IsRetryable() {
		t.Error("queue overflow should be retryable")
	}
	if NewBusError("closed", ErrBusClosed).IsRetryable() {
		t.Error("closed bus should not be retryable")
	}
}

// -----------------------------------------------------------------------------
// LayoutError Tests
// -----------------------------------------------------------------------------

func TestLayoutError_Error(t *testing.T) {
	err := NewLayoutError("cannot parse", ErrInvalidLayout).WithPath("page.yaml")
	want := "layout error [path=page.yaml]: cannot parse: invalid layout"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !err.IsUserFacing() {
		t.Error("layout errors should be user facing")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("area", "sidebar")
	if got := err.Error(); got != "area 'sidebar' not found" {
		t.Errorf("Error() = %q", got)
	}

	err = err.WithCause(ErrUnknownArea)
	if !Is(err, ErrUnknownArea) {
		t.Error("NotFoundError should unwrap to its cause")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityWarning)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("area name cannot be empty"),
			want: "validation error: area name cannot be empty",
		},
		{
			name: "field and value",
			err:  NewValidationError("duplicate widget id").WithField("widgets[1].id").WithValue("w1"),
			want: "validation error [field=widgets[1].id, value=w1]: duplicate widget id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"sentinel queue full", ErrQueueFull, true},
		{"wrapped queue full", Wrap(ErrQueueFull, "publish"), true},
		{"bus error queue full", NewBusError("dropped", ErrQueueFull), true},
		{"validation", NewValidationError("bad"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if IsUserFacing(NewBusError("x", nil)) {
		t.Error("bus errors are internal")
	}
	if !IsUserFacing(NewNotFoundError("widget", "w9")) {
		t.Error("not found errors are user facing")
	}
}

func TestGetSeverity_Default(t *testing.T) {
	if got := GetSeverity(errors.New("plain")); got != SeverityError {
		t.Errorf("GetSeverity() = %v, want %v", got, SeverityError)
	}
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want %v", got, SeverityDebug)
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	err := Wrapf(ErrUnknownWidget, "resolve %s", "w1")
	if err.Error() != "resolve w1: unknown widget" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrUnknownWidget) {
		t.Error("Wrapf should preserve the chain")
	}
}
