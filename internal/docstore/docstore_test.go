package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteasedesktop/shell/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("NSHELL_HOME", t.TempDir())
	return New(t.TempDir())
}

func TestReadRawMissingDocument(t *testing.T) {
	store := newTestStore(t)

	raw, err := store.ReadRaw(WindowSettingsDoc)
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.False(t, store.Exists(WindowSettingsDoc))
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	geom := WindowGeometry{
		Geometry:  []byte{0x01, 0xff, 0x10, 0x00, 0x7f},
		Maximized: true,
		LastSaved: "2026-01-02 03:04:05",
		Version:   DocumentVersion,
	}
	raw, err := Encode(geom)
	require.NoError(t, err)
	require.NoError(t, store.WriteRaw(WindowSettingsDoc, raw))

	loaded, err := store.ReadRaw(WindowSettingsDoc)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// The opaque blob round-trips through base64 in the JSON encoding.
	var got WindowGeometry
	require.NoError(t, Decode(loaded, &got))
	assert.Equal(t, geom.Geometry, got.Geometry)
	assert.True(t, got.Maximized)
	assert.Equal(t, geom.LastSaved, got.LastSaved)
}

func TestCorruptDocument(t *testing.T) {
	store := newTestStore(t)

	path := store.Path(UserPreferencesDoc)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.ReadRaw(UserPreferencesDoc)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDocumentCorrupt, errors.GetCode(err))
}

func TestSchemaViolationIsCorrupt(t *testing.T) {
	store := newTestStore(t)

	// Valid JSON but missing the required close_behavior object.
	require.NoError(t, os.WriteFile(store.Path(UserPreferencesDoc),
		[]byte(`{"version": "1.0"}`), 0o644))

	_, err := store.ReadRaw(UserPreferencesDoc)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDocumentCorrupt, errors.GetCode(err))
}

func TestStaleTempFileDoesNotCorruptCommit(t *testing.T) {
	store := newTestStore(t)

	prefs := DefaultUserPreferences()
	raw, err := Encode(prefs)
	require.NoError(t, err)
	require.NoError(t, store.WriteRaw(UserPreferencesDoc, raw))

	// Simulate a crash mid-write: a temp file with garbage next to the
	// committed document.
	stale := filepath.Join(store.Root(), UserPreferencesDoc+".tmp-12345")
	require.NoError(t, os.WriteFile(stale, []byte("garbage"), 0o644))

	loaded, err := store.ReadRaw(UserPreferencesDoc)
	require.NoError(t, err)

	var got UserPreferences
	require.NoError(t, Decode(loaded, &got))
	assert.Equal(t, CloseActionAsk, got.CloseBehavior.Action)
	assert.True(t, got.CloseBehavior.FirstTime)
}

func TestMergePreservesUnknownKeys(t *testing.T) {
	store := newTestStore(t)

	base := map[string]interface{}{
		"close_behavior": map[string]interface{}{
			"action":          "exit_program",
			"remember_choice": true,
			"first_time":      false,
		},
		"future_field": "kept",
		"version":      "1.0",
	}
	require.NoError(t, store.WriteRaw(UserPreferencesDoc, base))

	loaded, err := store.ReadRaw(UserPreferencesDoc)
	require.NoError(t, err)

	var prefs UserPreferences
	require.NoError(t, Decode(loaded, &prefs))
	prefs.CloseBehavior.Action = CloseActionMinimizeToTray

	merged, err := Merge(loaded, prefs)
	require.NoError(t, err)
	require.NoError(t, store.WriteRaw(UserPreferencesDoc, merged))

	reloaded, err := store.ReadRaw(UserPreferencesDoc)
	require.NoError(t, err)
	assert.Equal(t, "kept", reloaded["future_field"])

	var got UserPreferences
	require.NoError(t, Decode(reloaded, &got))
	assert.Equal(t, CloseActionMinimizeToTray, got.CloseBehavior.Action)
}

func TestAudioConfigClamp(t *testing.T) {
	cfg := DefaultAudioRestartConfig()

	cfg.RestartIntervalMinutes = 15
	cfg.Clamp()
	assert.Equal(t, MinRestartIntervalMinutes, cfg.RestartIntervalMinutes)

	cfg.RestartIntervalMinutes = 240
	cfg.Clamp()
	assert.Equal(t, MaxRestartIntervalMinutes, cfg.RestartIntervalMinutes)

	cfg.RestartIntervalMinutes = 90
	cfg.Clamp()
	assert.Equal(t, 90, cfg.RestartIntervalMinutes)

	// Zero means disabled and is never clamped up.
	cfg.RestartIntervalMinutes = 0
	cfg.Clamp()
	assert.Equal(t, 0, cfg.RestartIntervalMinutes)
}

func TestDefaults(t *testing.T) {
	prefs := DefaultUserPreferences()
	assert.Equal(t, CloseActionAsk, prefs.CloseBehavior.Action)
	assert.False(t, prefs.CloseBehavior.RememberChoice)
	assert.True(t, prefs.CloseBehavior.FirstTime)

	audio := DefaultAudioRestartConfig()
	assert.False(t, audio.AutoRestartEnabled)
	assert.Equal(t, 90, audio.RestartIntervalMinutes)
	assert.True(t, audio.ShowNotifications)
	assert.Equal(t, float64(0), audio.LastRestartTimestamp)
	assert.False(t, audio.SkipNextRestart)
}
