// Package result defines the outcome of a conformance test and the rule used
// to aggregate outcomes across platforms, devices and sub-tests.
package result

import (
	"fmt"
	"strings"
)

// Result is the outcome of a single test invocation.
type Result int

const (
	// Skip means nothing was judged: the implementation does not claim to
	// support the tested feature, or no execution context matched.
	Skip Result = iota
	// Pass means every check succeeded.
	Pass
	// Warn means the test could not run as configured, or passed with a
	// condition worth flagging.
	Warn
	// Fail means at least one check failed.
	Fail
)

// Exit codes reported by a test process for each result.
const (
	ExitPass = 0
	ExitFail = 1
	ExitWarn = 2
	ExitSkip = 77
)

// All lists every result, in increasing severity.
var All = []Result{Skip, Pass, Warn, Fail}

func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Warn:
		return "warn"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Parse converts a result name back into a Result. Matching is
// case-insensitive.
func Parse(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return Pass, nil
	case "fail":
		return Fail, nil
	case "warn":
		return Warn, nil
	case "skip":
		return Skip, nil
	}
	return Skip, fmt.Errorf("unknown result %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Result) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ExitCode returns the process exit status used to report r.
func (r Result) ExitCode() int {
	switch r {
	case Pass:
		return ExitPass
	case Warn:
		return ExitWarn
	case Skip:
		return ExitSkip
	default:
		return ExitFail
	}
}

// FromExitCode returns the result a test process reported through its exit
// status. Unknown statuses, such as those of a crashed process, are not ok.
func FromExitCode(code int) (Result, bool) {
	switch code {
	case ExitPass:
		return Pass, true
	case ExitWarn:
		return Warn, true
	case ExitSkip:
		return Skip, true
	case ExitFail:
		return Fail, true
	}
	return Fail, false
}

// Merge folds r into the running aggregate all.
//
// Once a FAIL is merged the aggregate stays FAIL. WARN overrides PASS and
// SKIP. PASS overrides SKIP, so an aggregate is only SKIP when nothing ran.
// Merge is associative and commutative.
func Merge(all, r Result) Result {
	switch r {
	case Fail:
		return Fail
	case Warn:
		if all == Skip || all == Pass {
			return Warn
		}
	case Pass:
		if all == Skip {
			return Pass
		}
	}
	return all
}

// Aggregate merges rs starting from SKIP.
func Aggregate(rs ...Result) Result {
	all := Skip
	for _, r := range rs {
		all = Merge(all, r)
	}
	return all
}
