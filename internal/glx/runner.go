package glx

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/output"
	"github.com/AndreyAkinshin/conform/internal/result"
)

// Test is a GLX conformance test. It reports one sub-test per pixel format
// through r and returns the merged result. A returned error aborts the test
// and its result is already folded into the returned Result.
type Test func(r *Runner) (result.Result, error)

// Runner runs GLX tests against one display.
type Runner struct {
	Display  Display
	Reporter *result.Reporter
	Out      *output.Writer
}

var discard = output.NewWithWriters(io.Discard, io.Discard, false)

// Output returns the writer for human-readable diagnostics.
func (r *Runner) Output() *output.Writer {
	if r.Out == nil {
		return discard
	}
	return r.Out
}

// Subtest reports a sub-test result line and logs it.
func (r *Runner) Subtest(name string, res result.Result) {
	if r.Reporter != nil {
		r.Reporter.Subtest(name, res)
	}
	r.Output().Result(name, res)
}

// Fail logs why a sub-test failed.
func (r *Runner) Fail(name string, err error) {
	r.Output().Failure(name, err)
}

// Run runs test and tags an aborting error with the test name.
func (r *Runner) Run(name string, test Test) (result.Result, error) {
	r.Output().TestStart(name, "GLX")
	res, err := test(r)
	if err != nil {
		return result.Merge(res, errors.ResultOf(err)), errors.InTest(err, name, "")
	}
	if res == result.Skip {
		r.Output().Info("%s: no matching visual or fbconfig", name)
	}
	return res, nil
}

// Check runs fn as the sub-test name and reports its result: Pass when fn
// returns nil, otherwise the result of the error's kind.
func (r *Runner) Check(name string, fn func() error) result.Result {
	res := result.Pass
	if err := fn(); err != nil {
		res = errors.ResultOf(err)
		r.Fail(name, err)
	}
	r.Subtest(name, res)
	return res
}

var (
	testsMu sync.RWMutex
	tests   = map[string]Test{}
)

// Register makes a GLX test available by name. It panics on a duplicate or
// invalid name, as registration happens from init functions.
func Register(name string, test Test) {
	if err := config.ValidateName(name); err != nil {
		panic(fmt.Sprintf("glx: %v", err))
	}
	testsMu.Lock()
	defer testsMu.Unlock()
	if _, dup := tests[name]; dup {
		panic(fmt.Sprintf("glx: test %q registered twice", name))
	}
	tests[name] = test
}

// Lookup retrieves a registered GLX test by name.
func Lookup(name string) (Test, error) {
	testsMu.RLock()
	defer testsMu.RUnlock()
	t, ok := tests[name]
	if !ok {
		return nil, errors.NotFound("test", name)
	}
	return t, nil
}

// Names returns all registered GLX test names sorted.
func Names() []string {
	testsMu.RLock()
	defer testsMu.RUnlock()
	names := make([]string, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
