// Package cmdrun runs external commands under a hard wall-clock budget.
//
// Every invocation goes through Run, so a call site cannot forget the
// timeout: it is part of the signature. When the budget is exceeded the
// process is killed and ErrTimedOut is returned. A non-zero exit status is
// not an error at this layer; it is reported in Result.ExitCode for the
// caller to classify.
package cmdrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds the wait for output pipes after the kill. A grandchild
// that survived and still holds the pipe cannot stall Run past this.
const waitDelay = 5 * time.Second

// ErrTimedOut reports that the command was killed after exceeding its budget.
var ErrTimedOut = errors.New("command timed out")

// Command describes one external invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string // appended to the inherited environment
}

// Result carries the verbatim outcome of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Elapsed  time.Duration
}

// Run executes cmd and waits for it to finish or for the timeout to elapse,
// whichever comes first. The process is killed on timeout and on ctx cancel.
func Run(ctx context.Context, cmd Command, timeout time.Duration) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}

	// Provisioning scripts fork helpers and daemonize. Killing only the
	// direct child would leave orphans holding the output pipes, and Wait
	// would block on them far past the budget. The command gets its own
	// process group and the deadline kills the whole group; WaitDelay covers
	// any survivor that still holds a pipe.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := Result{
		Stdout:  stdout.Bytes(),
		Stderr:  stderr.Bytes(),
		Elapsed: time.Since(start),
	}

	if runCtx.Err() != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%s after %s: %w", cmd.Path, timeout, ErrTimedOut)
		}
		return res, fmt.Errorf("%s: %w", cmd.Path, runCtx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", cmd.Path, err)
	}

	return res, nil
}
