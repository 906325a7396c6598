package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/neteasedesktop/shell/errors"
)

// Result captures the outcome of a shell command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// RunShell executes cmdline through `sh -c` with a hard timeout. The
// command is killed when the timeout expires and the call returns
// ErrCodeCommandTimeout; a non-zero exit returns ErrCodeCommandFailed. The
// Result is populated in all cases so callers can log captured output.
func RunShell(ctx context.Context, exe Executor, cmdline string, timeout time.Duration) (Result, error) {
	if strings.TrimSpace(cmdline) == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "command line is empty")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exe.CommandContext(ctx, "sh", "-c", cmdline)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, errors.CommandTimeout(cmdline, timeout.String())
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		return res, errors.CommandFailed(cmdline, err)
	}
	return res, nil
}
