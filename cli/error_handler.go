package cli

import (
	"fmt"
	"os"

	"github.com/neteasedesktop/shell/errors"
)

// ErrorHandler prints user-friendly messages for known error codes.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose}
}

// Handle prints guidance for the error and returns it unchanged so the
// caller can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeStorageUnavailable:
		fmt.Fprintf(os.Stderr, "❌ Session storage is not writable.\n")
		if se, ok := err.(*errors.ShellError); ok {
			fmt.Fprintf(os.Stderr, "Check permissions on %v\n", se.Details["path"])
		}

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. nshell will use built-in defaults.\n")

	case errors.ErrCodeRestartInFlight:
		fmt.Fprintf(os.Stderr, "❌ A restart is already in progress. Try again in a moment.\n")

	case errors.ErrCodeServiceUnavailable:
		fmt.Fprintf(os.Stderr, "❌ The audio service is not available on this system.\n")
		fmt.Fprintf(os.Stderr, "Check it with 'systemctl --user status pipewire'.\n")

	case errors.ErrCodeCommandTimeout:
		if se, ok := err.(*errors.ShellError); ok {
			fmt.Fprintf(os.Stderr, "❌ Command timed out after %v\n", se.Details["timeout"])
		} else {
			fmt.Fprintf(os.Stderr, "❌ Command timed out\n")
		}

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if se, ok := err.(*errors.ShellError); ok {
			fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", se.ToJSON())
		}
	}
	return err
}
