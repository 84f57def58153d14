package testparser

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/result"
)

// maxReason bounds the length of a failure reason.
const maxReason = 100

// Subtest is one sub-test result line.
type Subtest struct {
	Name   string
	Result result.Result
}

// Report is everything a test process reported about itself.
type Report struct {
	// Result is the final result line, valid when HasResult.
	Result    result.Result
	HasResult bool
	Subtests  []Subtest
	// Counts tallies the sub-tests.
	Counts TestCounts
}

type line struct {
	Result  *result.Result           `json:"result"`
	Subtest map[string]result.Result `json:"subtest"`
}

// Parse extracts result lines from test output. Lines that are not result
// lines, or that are malformed, are treated as log text; the last log line
// before a failing sub-test becomes its failure reason.
func Parse(output string) *Report {
	rep, _ := ParseReader(strings.NewReader(output))
	return rep
}

// ParseReader is Parse over a stream.
func ParseReader(r io.Reader) (*Report, error) {
	rep := &Report{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lastLog string
	for scanner.Scan() {
		text := scanner.Text()
		body, ok := strings.CutPrefix(text, result.LinePrefix)
		if !ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				lastLog = trimmed
			}
			continue
		}

		var l line
		if err := json.Unmarshal([]byte(body), &l); err != nil {
			lastLog = strings.TrimSpace(text)
			continue
		}
		if l.Result != nil {
			rep.Result, rep.HasResult = *l.Result, true
		}
		for name, res := range l.Subtest {
			rep.Subtests = append(rep.Subtests, Subtest{Name: name, Result: res})
			rep.Counts.Record(name, res, truncate(lastLog))
		}
		lastLog = ""
	}
	return rep, scanner.Err()
}

func truncate(s string) string {
	if len(s) > maxReason {
		return s[:maxReason-3] + "..."
	}
	return s
}

// Verdict returns the result of a test process that exited with code.
// A process that crashed, or whose final line disagrees with its exit
// status, fails. Without a final line the exit status decides.
func (r *Report) Verdict(code int) result.Result {
	fromCode, ok := result.FromExitCode(code)
	if !ok {
		return result.Fail
	}
	if !r.HasResult {
		return fromCode
	}
	if r.Result != fromCode {
		return result.Fail
	}
	return r.Result
}
