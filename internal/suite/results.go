package suite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/result"
	"github.com/AndreyAkinshin/conform/internal/testparser"
)

// dataVersion is bumped whenever the results format changes incompatibly.
const dataVersion = 1

// Results holds the results of a suite run.
// The Results structure may be serialized to compare runs.
type Results struct {
	Version  int
	Suite    string
	Error    string `json:",omitempty"`
	Tests    map[string]TestResult
	Duration time.Duration
}

// TestResult holds the result of one test process.
type TestResult struct {
	Test      string
	Result    result.Result
	Subtests  map[string]result.Result `json:",omitempty"`
	TimeTaken time.Duration
	Err       string `json:",omitempty"`
	// Output is kept for tests that did not pass or skip.
	Output string `json:",omitempty"`
}

func (r TestResult) String() string {
	if r.Err != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Test, r.Result, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Test, r.Result)
}

// NewResults returns empty results of the current data version.
func NewResults(suite string) *Results {
	return &Results{Version: dataVersion, Suite: suite, Tests: map[string]TestResult{}}
}

// LoadResults loads saved suite results from disk.
func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errors.Error{Kind: errors.KindNotFound, Message: fmt.Sprintf("failed to open '%s' for loading test results", path), Cause: err}
	}
	defer f.Close()

	var out Results
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		return nil, errors.Wrapf(err, "failed to decode test results '%s'", path)
	}
	if out.Version != dataVersion {
		return nil, errors.Newf("test results '%s' are version %d, want %d", path, out.Version, dataVersion)
	}
	return &out, nil
}

// Save saves test results to disk.
func (r *Results) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to make '%s' for saving test results: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open '%s' for saving test results: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode test results: %w", err)
	}
	return f.Close()
}

// Names returns the test names in sorted order.
func (r *Results) Names() []string {
	names := make([]string, 0, len(r.Tests))
	for name := range r.Tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts tallies the results of every test.
func (r *Results) Counts() testparser.TestCounts {
	var counts testparser.TestCounts
	for _, name := range r.Names() {
		t := r.Tests[name]
		counts.Record(name, t.Result, t.Err)
	}
	return counts
}

// Result merges the results of every test. A run that recorded an error
// fails.
func (r *Results) Result() result.Result {
	res := result.Skip
	for _, t := range r.Tests {
		res = result.Merge(res, t.Result)
	}
	if r.Error != "" {
		res = result.Merge(res, result.Fail)
	}
	return res
}
