//go:build !linux

package shell

import "os/exec"

func prepare(c *exec.Cmd) {}

// limitMemory is a no-op: only Linux can limit another process.
func limitMemory(pid int, limit uint64) error { return nil }

func interrupt(c *exec.Cmd) { _ = c.Process.Kill() }

func kill(c *exec.Cmd) { _ = c.Process.Kill() }
