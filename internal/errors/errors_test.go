package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/AndreyAkinshin/conform/internal/result"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with test",
			err:      &Error{Test: "add", Message: "build failed"},
			expected: "[add] build failed",
		},
		{
			name:     "with test and subtest",
			err:      &Error{Test: "add", Subtest: "ints", Message: "mismatch"},
			expected: "[add] ints: mismatch",
		},
		{
			name:     "subtest without test not included",
			err:      &Error{Subtest: "ints", Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with cause",
			err:      &Error{Message: "create buffer", Cause: errors.New("out of memory")},
			expected: "create buffer: out of memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{Message: "wrapper", Cause: cause}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{Message: "no cause"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestError_Result(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected result.Result
	}{
		{"runtime", KindRuntime, result.Fail},
		{"config", KindConfig, result.Warn},
		{"validation", KindValidation, result.Warn},
		{"resource", KindResource, result.Fail},
		{"capability", KindCapability, result.Skip},
		{"environment", KindEnvironment, result.Skip},
		{"not found", KindNotFound, result.Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Kind: tt.kind}
			if got := err.Result(); got != tt.expected {
				t.Errorf("Result() = %v, want %v", got, tt.expected)
			}
			if got := err.ExitCode(); got != tt.expected.ExitCode() {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected.ExitCode())
			}
		})
	}
}

func TestConfigf(t *testing.T) {
	err := Configf("field %q: %s", "name", "is required")

	if err.Kind != KindConfig {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConfig)
	}
	expected := `field "name": is required`
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("original error")
	err := Wrap(cause, "wrapped message")

	if err.Kind != KindRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRuntime)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the original cause")
	}
}

func TestInTest(t *testing.T) {
	base := Configf("bad index")
	labelled := InTest(fmt.Errorf("parse: %w", base), "add", "ints")

	if labelled.Kind != KindConfig {
		t.Errorf("Kind = %v, want %v", labelled.Kind, KindConfig)
	}
	if base.Test != "" {
		t.Error("InTest must not modify the original error")
	}
	if got := labelled.Error(); got != "[add] ints: bad index" {
		t.Errorf("Error() = %q", got)
	}

	plain := InTest(errors.New("boom"), "add", "")
	if plain.Kind != KindRuntime {
		t.Errorf("Kind = %v, want runtime", plain.Kind)
	}
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected result.Result
	}{
		{"nil error", nil, result.Pass},
		{"config", Configf("bad"), result.Warn},
		{"wrapped capability", fmt.Errorf("device: %w", Capabilityf("missing cl_khr_fp64")), result.Skip},
		{"generic error", errors.New("generic"), result.Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultOf(tt.err); got != tt.expected {
				t.Errorf("ResultOf() = %v, want %v", got, tt.expected)
			}
			if got := GetExitCode(tt.err); got != tt.expected.ExitCode() {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected.ExitCode())
			}
		})
	}
}

func TestKindOfAndIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("test", "missing"))
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf() = %v, want not found", KindOf(err))
	}
	if !Is(err, KindNotFound) {
		t.Error("Is(err, KindNotFound) = false")
	}
	if Is(errors.New("x"), KindConfig) {
		t.Error("Is() on a plain error should be false")
	}
	if KindOf(errors.New("x")) != KindRuntime {
		t.Error("KindOf() on a plain error should be runtime")
	}
}

func TestErrorKindConstants(t *testing.T) {
	kinds := []ErrorKind{KindRuntime, KindConfig, KindNotFound, KindValidation, KindResource, KindCapability, KindEnvironment}
	seen := make(map[ErrorKind]bool)

	for _, k := range kinds {
		if seen[k] {
			t.Errorf("Duplicate ErrorKind value: %v", k)
		}
		seen[k] = true
	}
}
