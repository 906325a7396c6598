// Package process provides liveness checks for other shell instances.
package process

import (
	"os"
	"syscall"
)

// IsAlive reports whether a process with the given PID is still running.
// Signal 0 probes for existence without delivering anything; EPERM still
// means the process exists.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		// Does not happen on Unix, FindProcess always succeeds.
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
