// Package config loads the shell's application configuration (nshell.yml).
//
// This is the process-level configuration: where the storage root lives, how
// the audio-service coordinator behaves, where the control socket goes. The
// per-user documents persisted by the session store (window geometry, close
// behavior, restart schedule) are JSON files owned by internal/session and are
// not handled here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/pkg/paths"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config is the top-level nshell.yml structure.
type Config struct {
	Version string `yaml:"version"`

	// StartURL is the page the embedded browser opens at startup.
	StartURL string `yaml:"start_url,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`
	Audio   AudioConfig   `yaml:"audio,omitempty"`
	Window  WindowConfig  `yaml:"window,omitempty"`
	Control ControlConfig `yaml:"control,omitempty"`

	// Extensions captures all other top-level keys for extensibility.
	// The logging subsystem reads its section from here.
	Extensions map[string]interface{} `yaml:",inline"`
}

// StorageConfig locates the session storage root, which holds both the
// web view profile and the session JSON documents.
type StorageConfig struct {
	// LoginDataPath overrides the storage root. Empty means
	// NETEASE_LOGIN_DATA_PATH or the per-user default.
	LoginDataPath string `yaml:"login_data_path,omitempty"`
}

// AudioConfig tunes the background audio-service restart coordinator.
type AudioConfig struct {
	// RestartCommand is the shell command that restarts the audio service.
	// A restart_command stored in the schedule document takes precedence;
	// this is the fallback when the document leaves it blank.
	RestartCommand string `yaml:"restart_command,omitempty"`
	// StatusCommand reports whether the audio service is active.
	StatusCommand string `yaml:"status_command,omitempty"`
	// UnitCheckCommand reports whether the service unit exists at all.
	UnitCheckCommand string `yaml:"unit_check_command,omitempty"`
	// PollIntervalSeconds is how often the coordinator re-evaluates the
	// restart schedule.
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty"`
	// RestartTimeoutSeconds bounds a single restart command execution.
	RestartTimeoutSeconds int `yaml:"restart_timeout_seconds,omitempty"`
}

// WindowConfig tunes window-state persistence.
type WindowConfig struct {
	// GeometryDebounceMs coalesces rapid resize/move events into a single
	// write this long after the last event.
	GeometryDebounceMs int `yaml:"geometry_debounce_ms,omitempty"`
}

// ControlConfig configures the unix-socket control server.
type ControlConfig struct {
	// SocketPath overrides the default control socket location.
	SocketPath string `yaml:"socket_path,omitempty"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDefault loads the configuration with hierarchical merging:
// 1. Per-user config (~/.config/netease-music/nshell.yml) - base layer
// 2. Local override (nshell.override.yml next to it) - overrides base
//
// A missing config file is not an error; defaults apply.
func LoadDefault() (*Config, error) {
	configDir := paths.ConfigDir()
	if configDir == "" {
		cfg := &Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	return LoadFrom(configDir)
}

// LoadFrom loads configuration with override merging from the given directory.
func LoadFrom(dir string) (*Config, error) {
	var final *Config

	basePath := filepath.Join(dir, "nshell.yml")
	if data, err := os.ReadFile(basePath); err == nil {
		expanded := expandEnvVars(string(data))
		var base Config
		if err := yaml.Unmarshal([]byte(expanded), &base); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
				WithDetail("path", basePath)
		}
		final = &base
	}

	// Local overrides are optional and parsed leniently
	overrideFiles := []string{
		filepath.Join(dir, "nshell.override.yml"),
		filepath.Join(dir, "nshell.override.yaml"),
	}
	for _, overridePath := range overrideFiles {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			continue
		}
		expanded := expandEnvVars(string(data))
		var override Config
		if err := yaml.Unmarshal([]byte(expanded), &override); err != nil {
			continue
		}
		if final == nil {
			final = &override
		} else {
			final = mergeConfigs(final, &override)
		}
	}

	if final == nil {
		final = &Config{}
	}

	final.SetDefaults()

	if err := final.Validate(); err != nil {
		return nil, err
	}

	return final, nil
}

// SetDefaults fills in zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.StartURL == "" {
		c.StartURL = "https://music.163.com"
	}
	if c.Audio.RestartCommand == "" {
		c.Audio.RestartCommand = "systemctl --user restart pipewire"
	}
	if c.Audio.StatusCommand == "" {
		c.Audio.StatusCommand = "systemctl --user is-active pipewire"
	}
	if c.Audio.UnitCheckCommand == "" {
		c.Audio.UnitCheckCommand = "systemctl --user list-unit-files pipewire.service"
	}
	if c.Audio.PollIntervalSeconds == 0 {
		c.Audio.PollIntervalSeconds = 60
	}
	if c.Audio.RestartTimeoutSeconds == 0 {
		c.Audio.RestartTimeoutSeconds = 30
	}
	if c.Window.GeometryDebounceMs == 0 {
		c.Window.GeometryDebounceMs = 1000
	}
}

// StorageRoot resolves the effective storage root, preferring the config
// setting over the environment and per-user defaults.
func (c *Config) StorageRoot() string {
	if c.Storage.LoginDataPath != "" {
		abs, err := filepath.Abs(c.Storage.LoginDataPath)
		if err == nil {
			return abs
		}
		return c.Storage.LoginDataPath
	}
	return paths.LoginDataDir()
}

// ControlSocketPath resolves the effective control socket path.
func (c *Config) ControlSocketPath() string {
	if c.Control.SocketPath != "" {
		return c.Control.SocketPath
	}
	return paths.SocketPath()
}

// UnmarshalExtension decodes an extension section of the loaded nshell.yml
// into the provided target struct. The target must be a pointer.
// This provides a type-safe way for optional subsystems (logging, future
// integrations) to access their custom configuration sections.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct, keyed by yaml tags.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension '%s': %w", key, err)
	}

	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
