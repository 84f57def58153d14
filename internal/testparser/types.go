// Package testparser extracts results from the output of conform test
// processes.
package testparser

import "github.com/AndreyAkinshin/conform/internal/result"

// FailedTest names a failed test or sub-test, e.g. "add/int overflow".
type FailedTest struct {
	Name   string
	Reason string
}

// TestCounts tallies results by kind.
type TestCounts struct {
	Passed  int
	Failed  int
	Warned  int
	Skipped int
	Total   int
	// Parsed is set once any result has been recorded.
	Parsed      bool
	FailedTests []FailedTest
}

// Record counts one result. reason is kept for failures.
func (tc *TestCounts) Record(name string, r result.Result, reason string) {
	switch r {
	case result.Pass:
		tc.Passed++
	case result.Warn:
		tc.Warned++
	case result.Skip:
		tc.Skipped++
	default:
		tc.Failed++
		tc.FailedTests = append(tc.FailedTests, FailedTest{Name: name, Reason: reason})
	}
	tc.Total++
	tc.Parsed = true
}
