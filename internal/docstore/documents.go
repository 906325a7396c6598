package docstore

import "time"

// Document file names under the storage root.
const (
	WindowSettingsDoc  = "window_settings.json"
	UserPreferencesDoc = "user_preferences.json"
	PipewireConfigDoc  = "pipewire_config.json"
)

// DocumentVersion tags every persisted document.
const DocumentVersion = "1.0"

// TimestampLayout is the human-readable format used for last_saved /
// last_updated fields.
const TimestampLayout = "2006-01-02 15:04:05"

// Close behavior actions.
const (
	CloseActionAsk            = "ask"
	CloseActionMinimizeToTray = "minimize_to_tray"
	CloseActionExit           = "exit_program"
)

// Restart interval bounds in minutes. Values outside are clamped, never
// rejected. A zero interval means the periodic restart is disabled.
const (
	MinRestartIntervalMinutes = 30
	MaxRestartIntervalMinutes = 180
)

// WindowGeometry is the persisted window state document.
// Geometry is an opaque blob owned by the toolkit; it round-trips through
// base64 in the JSON encoding.
type WindowGeometry struct {
	Geometry  []byte `json:"geometry" jsonschema:"required"`
	Maximized bool   `json:"maximized" jsonschema:"required"`
	LastSaved string `json:"last_saved,omitempty"`
	Version   string `json:"version,omitempty"`
}

// CloseBehavior describes what happens when the window close button is used.
type CloseBehavior struct {
	Action         string `json:"action"`
	RememberChoice bool   `json:"remember_choice"`
	FirstTime      bool   `json:"first_time"`
}

// UserPreferences is the persisted user preference document.
type UserPreferences struct {
	CloseBehavior CloseBehavior `json:"close_behavior" jsonschema:"required"`
	LastUpdated   string        `json:"last_updated,omitempty"`
	Version       string        `json:"version,omitempty"`
}

// DefaultUserPreferences returns the preferences used before the user has
// made any choice.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		CloseBehavior: CloseBehavior{
			Action:         CloseActionAsk,
			RememberChoice: false,
			FirstTime:      true,
		},
		Version: DocumentVersion,
	}
}

// AudioRestartConfig is the persisted audio-service restart schedule.
type AudioRestartConfig struct {
	AutoRestartEnabled     bool    `json:"auto_restart_enabled"`
	RestartIntervalMinutes int     `json:"restart_interval_minutes"`
	ShowNotifications      bool    `json:"show_notifications"`
	LastRestartTimestamp   float64 `json:"last_restart_timestamp"`
	RestartCommand         string  `json:"restart_command"`
	SkipNextRestart        bool    `json:"skip_next_restart"`
	Version                string  `json:"version,omitempty"`
}

// DefaultAudioRestartConfig returns the restart schedule used before the
// user has configured anything. Auto-restart starts disabled.
func DefaultAudioRestartConfig() AudioRestartConfig {
	return AudioRestartConfig{
		AutoRestartEnabled:     false,
		RestartIntervalMinutes: 90,
		ShowNotifications:      true,
		LastRestartTimestamp:   0,
		RestartCommand:         "systemctl --user restart pipewire",
		SkipNextRestart:        false,
		Version:                DocumentVersion,
	}
}

// Clamp forces the restart interval into its allowed range. A zero interval
// is preserved because it means "disabled".
func (c *AudioRestartConfig) Clamp() {
	if c.RestartIntervalMinutes == 0 {
		return
	}
	if c.RestartIntervalMinutes < MinRestartIntervalMinutes {
		c.RestartIntervalMinutes = MinRestartIntervalMinutes
	}
	if c.RestartIntervalMinutes > MaxRestartIntervalMinutes {
		c.RestartIntervalMinutes = MaxRestartIntervalMinutes
	}
}

// Now returns the current timestamp in the document layout.
func Now() string {
	return time.Now().Format(TimestampLayout)
}
