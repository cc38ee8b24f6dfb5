//go:build !windows

package dev

import (
	"context"
	"os/exec"
	"syscall"
	"time"
)

type processHandle struct {
	cmd *exec.Cmd
}

// startProcess runs spec in its own process group so stopProcess can take
// down any children with it.
func startProcess(ctx context.Context, spec procSpec) (*processHandle, error) {
	cmd := exec.CommandContext(ctx, spec.binary, spec.args...)
	cmd.Dir = spec.dir
	cmd.Stdout = spec.stdout
	cmd.Stderr = spec.stderr
	cmd.Env = spec.env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &processHandle{cmd: cmd}, nil
}

// stopProcess sends SIGTERM to the group and escalates to SIGKILL after
// grace.
func stopProcess(proc *processHandle, grace time.Duration) {
	if proc == nil || proc.cmd == nil || proc.cmd.Process == nil {
		return
	}

	pgid, err := syscall.Getpgid(proc.cmd.Process.Pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = proc.cmd.Process.Signal(syscall.SIGTERM)
	}

	done := make(chan error, 1)
	go func() { done <- proc.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(grace):
		if pgid > 0 {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = proc.cmd.Process.Kill()
		}
		<-done
	}
}
