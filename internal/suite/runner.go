package suite

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AndreyAkinshin/conform/internal/output"
	"github.com/AndreyAkinshin/conform/internal/result"
	"github.com/AndreyAkinshin/conform/internal/shell"
	"github.com/AndreyAkinshin/conform/internal/testparser"
)

// execFunc runs one child process; it is shell.Exec outside tests.
type execFunc func(ctx context.Context, opts shell.Options, exe string, args ...string) ([]byte, error)

// Runner runs suite cases as child processes.
type Runner struct {
	// Self is the conform executable used for program and test cases.
	Self    string
	Profile *Profile
	Out     *output.Writer

	exec execFunc
}

var discard = output.NewWithWriters(io.Discard, io.Discard, false)

func (r *Runner) log() *output.Writer {
	if r.Out == nil {
		return discard
	}
	return r.Out
}

func (r *Runner) profile() *Profile {
	if r.Profile == nil {
		return DefaultProfile()
	}
	return r.Profile
}

// Run runs every case not excluded by the profile, up to the profile's job
// count at a time. A failing test does not stop the run; cancelling ctx
// does, and the partial results are returned with ctx's error.
func (r *Runner) Run(ctx context.Context, suite string, cases []Case) (*Results, error) {
	start := time.Now()
	p := r.profile()
	run := r.exec
	if run == nil {
		run = shell.Exec
	}

	res := NewResults(suite)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(p.jobs())
	for _, c := range cases {
		if p.Excluded(c.Name) {
			r.log().Debug("%s: excluded", c.Name)
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			tr := r.runCase(ctx, run, p, c)
			r.log().Result(c.Name, tr.Result)
			if tr.Result == result.Fail && tr.Err != "" {
				r.log().Debug("%s: %s", c.Name, tr.Err)
			}
			mu.Lock()
			res.Tests[c.Name] = tr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	res.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

func (r *Runner) runCase(ctx context.Context, run execFunc, p *Profile, c Case) TestResult {
	start := time.Now()
	timeout := c.Timeout
	if timeout == 0 {
		timeout = p.timeout()
	}
	exe, args := r.Command(c)

	out, err := run(ctx, shell.Options{
		Dir:       c.Dir,
		Env:       p.environ(),
		Timeout:   timeout,
		MaxMemory: p.maxProcMem(),
		Trace:     r.Out,
	}, exe, args...)

	tr := TestResult{Test: c.Name}
	rep := testparser.Parse(string(out))
	if len(rep.Subtests) > 0 {
		tr.Subtests = make(map[string]result.Result, len(rep.Subtests))
		for _, st := range rep.Subtests {
			tr.Subtests[st.Name] = result.Merge(tr.Subtests[st.Name], st.Result)
		}
	}

	code := 0
	if err != nil {
		var timeoutErr shell.ErrTimeout
		exitCode, exited := shell.ExitCode(err)
		switch {
		case stderrors.As(err, &timeoutErr):
			tr.Result, tr.Err = result.Fail, err.Error()
		case exited:
			code = exitCode
		default:
			tr.Result, tr.Err = result.Fail, err.Error()
		}
	}
	if tr.Err == "" {
		tr.Result = rep.Verdict(code)
		if tr.Result == result.Fail {
			tr.Err = failureReason(rep, code)
		}
	}
	if tr.Result == result.Fail || tr.Result == result.Warn {
		tr.Output = string(out)
	}
	tr.TimeTaken = time.Since(start)
	return tr
}

func failureReason(rep *testparser.Report, code int) string {
	if len(rep.Counts.FailedTests) > 0 && rep.Counts.FailedTests[0].Reason != "" {
		ft := rep.Counts.FailedTests[0]
		return fmt.Sprintf("%s: %s", ft.Name, ft.Reason)
	}
	if _, ok := result.FromExitCode(code); !ok {
		return fmt.Sprintf("crashed with exit status %d", code)
	}
	if rep.HasResult && rep.Result.ExitCode() != code {
		return fmt.Sprintf("reported %s but exited with status %d", rep.Result, code)
	}
	return fmt.Sprintf("exit status %d", code)
}

// Command returns the command line that runs c under the runner's profile.
func (r *Runner) Command(c Case) (string, []string) {
	p := r.profile()
	if c.Kind == KindCommand {
		return c.Command[0], append(append([]string{}, c.Command[1:]...), c.Args...)
	}

	var args []string
	if p.Backend != "" {
		args = append(args, "--backend", p.Backend)
	}
	args = append(args, c.Kind.String())
	if p.Platform != "" {
		args = append(args, "-platform", p.Platform)
	}
	if p.Device != "" {
		args = append(args, "-device", p.Device)
	}
	if c.Kind == KindProgram {
		if p.Seed != nil {
			args = append(args, "-seed", strconv.FormatUint(*p.Seed, 10))
		}
		if c.Config != "" {
			args = append(args, "-config", c.Config)
		}
	}
	if c.Kind == KindTest {
		args = append(args, c.Target)
		return r.Self, append(args, c.Args...)
	}
	args = append(args, c.Args...)
	return r.Self, append(args, c.Target)
}
