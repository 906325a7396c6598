package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteasedesktop/shell/errors"
)

func TestRunShellSuccess(t *testing.T) {
	res, err := RunShell(context.Background(), &RealExecutor{}, "echo hello", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello", res.Stdout)
	assert.False(t, res.TimedOut)
}

func TestRunShellNonZeroExit(t *testing.T) {
	res, err := RunShell(context.Background(), &RealExecutor{}, "echo oops >&2; exit 3", 5*time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", res.Stderr)
}

func TestRunShellTimeout(t *testing.T) {
	res, err := RunShell(context.Background(), &RealExecutor{}, "sleep 5", 100*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandTimeout, errors.GetCode(err))
	assert.True(t, res.TimedOut)
}

func TestRunShellEmptyCommand(t *testing.T) {
	_, err := RunShell(context.Background(), &RealExecutor{}, "   ", time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}
