package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetwork(t *testing.T) {
	t.Parallel()
	err := Network("http://localhost/services", 500)

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected error to match ErrNetwork")
	}
	if err.Error() != "unexpected status 500 from http://localhost/services" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", appErr.StatusCode)
	}
	if appErr.Endpoint != "http://localhost/services" {
		t.Errorf("expected endpoint preserved, got %q", appErr.Endpoint)
	}
}

func TestTransport(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Transport("http://localhost/jobs/j1", cause)

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected error to match ErrNetwork")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.StatusCode != 0 {
		t.Errorf("expected status 0 for transport failure, got %d", appErr.StatusCode)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("could not compile schema", "#/properties/value")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Context != "#/properties/value" {
		t.Errorf("expected context preserved, got %q", appErr.Context)
	}
}

func TestProcessing(t *testing.T) {
	t.Parallel()
	err := Processing("instance does not match schema")

	if !errors.Is(err, ErrProcessing) {
		t.Error("expected error to match ErrProcessing")
	}
	if err.Error() != "instance does not match schema" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestInvalidState(t *testing.T) {
	t.Parallel()
	err := InvalidState("BANANA")

	if !errors.Is(err, ErrInvalidState) {
		t.Error("expected error to match ErrInvalidState")
	}
	if errors.Is(err, ErrProcessing) {
		t.Error("invalid state must not classify as processing error")
	}
}

func TestStatusCodeAndEndpoint(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("iteration failed: %w", Network("http://host/validator", 502))

	if got := StatusCode(err); got != 502 {
		t.Errorf("StatusCode() = %d, want 502", got)
	}
	if got := Endpoint(err); got != "http://host/validator" {
		t.Errorf("Endpoint() = %q, want validator endpoint", got)
	}
	if got := StatusCode(fmt.Errorf("plain")); got != 0 {
		t.Errorf("StatusCode() on plain error = %d, want 0", got)
	}
}

func TestErrorsIsWithWrapping(t *testing.T) {
	t.Parallel()
	original := Processing("bad result")
	wrapped := fmt.Errorf("iteration: %w", original)
	doubleWrapped := fmt.Errorf("worker: %w", wrapped)

	if !errors.Is(doubleWrapped, ErrProcessing) {
		t.Error("expected errors.Is to find ErrProcessing through multiple wraps")
	}
}
