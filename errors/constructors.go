package errors

import (
	"fmt"
	"os/exec"
)

// StorageUnavailable creates a storage unavailable error for the given root.
func StorageUnavailable(path string, err error) *ShellError {
	return Wrap(err, ErrCodeStorageUnavailable,
		fmt.Sprintf("storage root is not usable: %s", path)).
		WithDetail("path", path)
}

// DocumentCorrupt creates a corrupt document error.
func DocumentCorrupt(name string, reason string) *ShellError {
	return New(ErrCodeDocumentCorrupt, fmt.Sprintf("document '%s' is corrupt: %s", name, reason)).
		WithDetail("document", name)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ShellError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ShellError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RestartInFlight creates an error for a restart requested while one is running.
func RestartInFlight() *ShellError {
	return New(ErrCodeRestartInFlight, "a service restart is already in progress")
}

// CommandTimeout creates a command timeout error
func CommandTimeout(cmd string, timeout string) *ShellError {
	return New(ErrCodeCommandTimeout,
		fmt.Sprintf("command did not finish within %s: %s", timeout, cmd)).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *ShellError {
	shellErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		shellErr = shellErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return shellErr
}
