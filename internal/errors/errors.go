// Package errors provides the structured error type used across conform and
// the mapping from error kinds to test results and exit codes.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/AndreyAkinshin/conform/internal/result"
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	// KindRuntime is an unexpected failure while a test was running.
	KindRuntime ErrorKind = iota
	// KindConfig is an invalid test configuration. Fatal, reported as WARN.
	KindConfig
	// KindNotFound is a missing file, test or backend.
	KindNotFound
	// KindValidation is a schema or field validation failure.
	KindValidation
	// KindResource is a failure to create or transfer a device object.
	KindResource
	// KindCapability is a missing extension, version or matching context.
	KindCapability
	// KindEnvironment is a missing system dependency such as an ICD loader.
	KindEnvironment
)

func (k ErrorKind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindResource:
		return "resource"
	case KindCapability:
		return "capability"
	case KindEnvironment:
		return "environment"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the base error type for conform.
type Error struct {
	Kind    ErrorKind
	Message string
	Test    string // Test name if applicable
	Subtest string // Sub-test name if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Test != "" && e.Subtest != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Test, e.Subtest, msg)
	}
	if e.Test != "" {
		return fmt.Sprintf("[%s] %s", e.Test, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Result returns the test result an error of this kind is reported as.
func (e *Error) Result() result.Result {
	switch e.Kind {
	case KindConfig, KindValidation:
		return result.Warn
	case KindCapability, KindEnvironment:
		return result.Skip
	default:
		return result.Fail
	}
}

// ExitCode returns the process exit status for this error.
func (e *Error) ExitCode() int {
	return e.Result().ExitCode()
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{Kind: KindRuntime, Message: message}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{Kind: KindConfig, Message: message}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Resourcef creates a device resource error wrapping cause.
func Resourcef(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindResource, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Capabilityf creates an error for a feature the implementation does not
// claim to support.
func Capabilityf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCapability, Message: fmt.Sprintf(format, args...)}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindEnvironment, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{Kind: KindRuntime, Message: message, Cause: err}
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// NotFound creates a not found error.
func NotFound(what, name string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", what, name)}
}

// InTest returns a copy of err labelled with the test and sub-test names.
// Errors that are not *Error are wrapped as runtime errors.
func InTest(err error, test, subtest string) *Error {
	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Kind: KindRuntime, Message: err.Error()}
	}
	c := *e
	c.Test, c.Subtest = test, subtest
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindRuntime.
func KindOf(err error) ErrorKind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindRuntime
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == kind
}

// ResultOf returns the result an error is reported as. A nil error passes.
func ResultOf(err error) result.Result {
	if err == nil {
		return result.Pass
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Result()
	}
	return result.Fail
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	return ResultOf(err).ExitCode()
}
