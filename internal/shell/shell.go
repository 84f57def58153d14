// Package shell runs child processes with a timeout and a virtual memory
// limit.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/AndreyAkinshin/conform/internal/output"
)

// KillGrace is how long a timed out process has to exit after being
// interrupted before it is killed.
var KillGrace = 3 * time.Second

// Options configures Exec.
type Options struct {
	Dir   string
	Env   []string // nil inherits the current environment
	Stdin string

	// Timeout bounds the run time. Zero means no limit.
	Timeout time.Duration
	// MaxMemory is the virtual memory limit of the child in bytes. Zero
	// means no limit. It is ignored where the platform cannot set one.
	MaxMemory uint64

	// Trace, when set, prints the command line before it runs.
	Trace *output.Writer
}

// ErrTimeout is the error returned when a process does not finish within
// its permitted time.
type ErrTimeout struct {
	process string
	timeout time.Duration
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("'%v' did not return after %v", e.process, e.timeout)
}

// Exec runs exe with args and returns its combined stdout and stderr.
// A non-zero exit status is returned as an *exec.ExitError alongside the
// output.
func Exec(ctx context.Context, opts Options, exe string, args ...string) ([]byte, error) {
	if opts.Trace != nil {
		opts.Trace.Command(opts.Dir, append([]string{exe}, args...))
	}

	var b bytes.Buffer
	c := exec.Command(exe, args...)
	c.Dir = opts.Dir
	c.Env = opts.Env
	if opts.Stdin != "" {
		c.Stdin = strings.NewReader(opts.Stdin)
	}
	c.Stdout = &b
	c.Stderr = &b
	prepare(c)

	if err := c.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	if opts.MaxMemory > 0 {
		if err := limitMemory(c.Process.Pid, opts.MaxMemory); err != nil {
			kill(c)
			<-done
			return b.Bytes(), fmt.Errorf("failed to limit memory of %s: %w", exe, err)
		}
	}

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		t := time.NewTimer(opts.Timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case err := <-done:
		return b.Bytes(), err
	case <-timeout:
		stop(c, done)
		return b.Bytes(), ErrTimeout{exe, opts.Timeout}
	case <-ctx.Done():
		stop(c, done)
		return b.Bytes(), ctx.Err()
	}
}

// stop interrupts c and kills it if it has not exited after KillGrace. It
// returns once Wait has.
func stop(c *exec.Cmd, done <-chan error) {
	interrupt(c)
	grace := time.NewTimer(KillGrace)
	defer grace.Stop()
	select {
	case <-done:
	case <-grace.C:
		kill(c)
		<-done
	}
}

// ExitCode returns the exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
