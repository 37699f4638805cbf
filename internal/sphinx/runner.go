package sphinx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExitInterrupted is reported for a subprocess killed because the run was cancelled.
const ExitInterrupted = 130

// ErrEmptyCommand is returned for an invocation without a program.
var ErrEmptyCommand = errors.New("empty command")

// Runner executes an invocation, streaming combined stdout/stderr to out. The
// returned code is the process exit code; err is set only when the process
// could not be started.
type Runner interface {
	Run(ctx context.Context, inv Invocation, out io.Writer) (int, error)
}

// ExecRunner runs invocations as OS subprocesses.
type ExecRunner struct {
	// WaitDelay bounds how long output pipes are drained after the process is
	// killed. Zero selects a default.
	WaitDelay time.Duration
}

// Run implements Runner. When ctx is cancelled the whole process group is
// killed and ExitInterrupted is returned.
func (r ExecRunner) Run(ctx context.Context, inv Invocation, out io.Writer) (int, error) {
	if len(inv.Command) == 0 {
		return 1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, inv.Command[0], inv.Command[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = out
	cmd.Stderr = out
	setProcessGroup(cmd)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start %s: %w", inv.Command[0], err)
	}
	err := cmd.Wait()
	if ctx.Err() != nil {
		return ExitInterrupted, nil
	}
	return exitCode(err)
}

// exitCode extracts an exit code from a command error.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return 1, nil
	}
	return 1, err
}
