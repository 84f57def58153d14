package shell

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepare puts the child in its own process group so that grandchildren
// are signalled with it.
func prepare(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func limitMemory(pid int, limit uint64) error {
	return unix.Prlimit(pid, unix.RLIMIT_AS, &unix.Rlimit{Cur: limit, Max: limit}, nil)
}

func interrupt(c *exec.Cmd) {
	_ = unix.Kill(-c.Process.Pid, unix.SIGINT)
}

func kill(c *exec.Cmd) {
	_ = unix.Kill(-c.Process.Pid, unix.SIGKILL)
}
