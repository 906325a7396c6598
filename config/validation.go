package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/neteasedesktop/shell/errors"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.StartURL != "" {
		u, err := url.Parse(c.StartURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("start_url must be an http(s) URL, got %q", c.StartURL))
		}
	}

	if strings.TrimSpace(c.Audio.RestartCommand) == "" {
		return errors.New(errors.ErrCodeConfigValidation, "audio.restart_command cannot be blank")
	}

	if c.Audio.PollIntervalSeconds < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "audio.poll_interval_seconds cannot be negative").
			WithDetail("value", c.Audio.PollIntervalSeconds)
	}
	if c.Audio.RestartTimeoutSeconds < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "audio.restart_timeout_seconds cannot be negative").
			WithDetail("value", c.Audio.RestartTimeoutSeconds)
	}
	if c.Window.GeometryDebounceMs < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "window.geometry_debounce_ms cannot be negative").
			WithDetail("value", c.Window.GeometryDebounceMs)
	}

	return nil
}
