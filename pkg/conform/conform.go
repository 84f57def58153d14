// Package conform provides public constants for external test commands that
// report results to the conform runner.
//
// A command reports sub-test results by printing lines that start with
// LinePrefix followed by a JSON object, and its overall result through its
// exit status:
//
//	CONFORM: {"subtest":{"load-store":"pass"}}
//	CONFORM: {"result":"pass"}
package conform

// Exit codes a test command returns for each result.
const (
	// ExitPass indicates every check passed.
	ExitPass = 0

	// ExitFail indicates at least one check failed.
	ExitFail = 1

	// ExitWarn indicates the test could not run as configured or passed with
	// a condition worth flagging.
	ExitWarn = 2

	// ExitSkip indicates the implementation does not support the tested
	// feature.
	ExitSkip = 77
)

// LinePrefix starts every machine-readable line of test output.
const LinePrefix = "CONFORM: "
