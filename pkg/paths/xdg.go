// Package paths provides XDG-compliant path resolution for the shell.
//
// Resolution order:
// 1. NSHELL_HOME (portable root) → $NSHELL_HOME/{config,data,state}
// 2. XDG env vars → $XDG_*_HOME/netease-music
// 3. Platform defaults → ~/.config/netease-music, ~/.local/share/netease-music, etc.
package paths

import (
	"os"
	"path/filepath"
)

// appDir is the per-application directory name under the XDG bases.
const appDir = "netease-music"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if shellHome := os.Getenv("NSHELL_HOME"); shellHome != "" {
		return filepath.Join(shellHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if shellHome := os.Getenv("NSHELL_HOME"); shellHome != "" {
		return filepath.Join(shellHome, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if shellHome := os.Getenv("NSHELL_HOME"); shellHome != "" {
		return filepath.Join(shellHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the shell configuration directory.
// Used for config files like nshell.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appDir)
}

// DataDir returns the shell data directory.
// The browser-engine storage root lives underneath it.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appDir)
}

// StateDir returns the shell state directory.
// Used for logs and the pid file.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appDir)
}

// LoginDataDir returns the session storage root. The web view profile and
// the session JSON documents share this directory, so one backup of it
// captures the whole login state. NETEASE_LOGIN_DATA_PATH overrides the
// default location.
func LoginDataDir() string {
	if override := os.Getenv("NETEASE_LOGIN_DATA_PATH"); override != "" {
		abs, err := filepath.Abs(override)
		if err == nil {
			return abs
		}
		return override
	}
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "login_data")
}

// LogDir returns the directory for structured log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the runtime directory for sockets and pipes.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir.
func RuntimeDir() string {
	if shellHome := os.Getenv("NSHELL_HOME"); shellHome != "" {
		return filepath.Join(shellHome, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	return StateDir()
}

// SocketPath returns the path to the shell control unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "nshell.sock")
}

// PidFilePath returns the path to the shell PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "nshell.pid")
}

// EnsureDirs creates all shell directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
