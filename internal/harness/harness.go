// Package harness dispatches conformance tests over the platforms and devices
// an OpenCL backend reports, folding per-iteration results into one.
package harness

import (
	"io"
	"iter"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/output"
	"github.com/AndreyAkinshin/conform/internal/result"
)

// Test is the behavior of one conformance test. Run is invoked once per
// surviving platform or device and reports that iteration's result.
type Test interface {
	Run(env *Env, cfg *config.TestConfig) result.Result
}

// TestFunc adapts an ordinary function to the Test interface.
type TestFunc func(env *Env, cfg *config.TestConfig) result.Result

// Run calls f(env, cfg).
func (f TestFunc) Run(env *Env, cfg *config.TestConfig) result.Result {
	return f(env, cfg)
}

// Runner dispatches tests against a backend.
type Runner struct {
	Backend  cl.Backend
	Reporter *result.Reporter
	Out      *output.Writer

	// PlatformName and DeviceName narrow enumeration to one platform or
	// device by exact name. Empty selects all.
	PlatformName string
	DeviceName   string

	// Args are the command-line arguments passed to the Init hook.
	Args []string
}

var discard = output.NewWithWriters(io.Discard, io.Discard, false)

func (r *Runner) log() *output.Writer {
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
	r.log().Result(name, res)
}

// Fail logs why a test or sub-test failed.
func (r *Runner) Fail(name string, err error) {
	r.log().Failure(name, err)
}

// Run executes test under cfg: it calls the Init hook, validates the
// configuration, runs test once per surviving platform (when RunPerPlatform)
// and then once per surviving device (when RunPerDevice), and merges the
// results starting from Skip. A Fail does not stop enumeration. Clean runs
// on every exit path once Init was attempted.
//
// The returned error explains an aborted run; its result is already folded
// into the returned Result.
func (r *Runner) Run(cfg *config.TestConfig, test Test) (res result.Result, err error) {
	if cfg.Init != nil {
		if cfg.Clean != nil {
			defer cfg.Clean(cfg)
		}
		if err := cfg.Init(cfg, r.Args); err != nil {
			return errors.ResultOf(err), errors.InTest(err, cfg.Name, "")
		}
	} else if cfg.Clean != nil {
		defer cfg.Clean(cfg)
	}

	filters, err := config.Validate(cfg)
	if err != nil {
		return errors.ResultOf(err), errors.InTest(err, cfg.Name, "")
	}

	res = result.Skip
	if cfg.RunPerPlatform {
		if res, err = r.each(cfg, test, res, r.Platforms(cfg, filters)); err != nil {
			return res, err
		}
	}
	if cfg.RunPerDevice {
		if res, err = r.each(cfg, test, res, r.Devices(cfg, filters)); err != nil {
			return res, err
		}
	}
	if res == result.Skip {
		r.log().Info("%s: no matching platform or device", cfg.Name)
	}
	return res, nil
}

func (r *Runner) each(cfg *config.TestConfig, test Test, res result.Result, envs iter.Seq2[*Env, error]) (result.Result, error) {
	for env, err := range envs {
		if err != nil {
			return result.Merge(res, errors.ResultOf(err)), errors.InTest(err, cfg.Name, "")
		}
		r.log().TestStart(cfg.Name, env.Where())
		res = result.Merge(res, test.Run(env, cfg))
	}
	return res, nil
}

// Output returns the writer for human-readable diagnostics.
func (r *Runner) Output() *output.Writer {
	return r.log()
}
