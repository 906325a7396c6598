package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("NSHELL_HOME", t.TempDir())
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func seedLoginFile(t *testing.T, store *Store, name string, size int) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.LoginDataPath(), name), data, 0o644))
}

func TestNewFailsOnUnwritableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	t.Setenv("NSHELL_HOME", t.TempDir())
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() { os.Chmod(parent, 0o755) })

	_, err := New(filepath.Join(parent, "store"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStorageUnavailable, errors.GetCode(err))
}

func TestGeometryRoundTrip(t *testing.T) {
	store := newTestStore(t)

	blob := []byte{0x00, 0x10, 0xfe, 0x42, 0x99}
	require.NoError(t, store.SaveWindowGeometry(blob, true))

	geom, ok := store.LoadWindowGeometry()
	require.True(t, ok)
	assert.Equal(t, blob, geom.Geometry)
	assert.True(t, geom.Maximized)
	assert.NotEmpty(t, geom.LastSaved)
}

func TestGeometryDefaultFallback(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.LoadWindowGeometry()
	assert.False(t, ok)

	// Corrupt document also falls back instead of failing.
	path := store.Documents().Path(docstore.WindowSettingsDoc)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, ok = store.LoadWindowGeometry()
	assert.False(t, ok)
}

func TestResetWindowSettings(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveWindowGeometry([]byte{1, 2, 3}, false))
	require.NoError(t, store.ResetWindowSettings())

	_, ok := store.LoadWindowGeometry()
	assert.False(t, ok)

	// Resetting again is not an error.
	require.NoError(t, store.ResetWindowSettings())
}

func TestValidateLoginData(t *testing.T) {
	store := newTestStore(t)

	// Empty directory is invalid.
	assert.False(t, store.ValidateLoginData())

	// A single zero-byte file is still invalid.
	seedLoginFile(t, store, "Cookies", 0)
	assert.False(t, store.ValidateLoginData())

	// One file with content makes the data valid even with critical files
	// missing or tiny.
	seedLoginFile(t, store, "Web Data", 4096)
	assert.True(t, store.ValidateLoginData())
}

func TestLoginDataInfo(t *testing.T) {
	store := newTestStore(t)

	info := store.LoginDataInfo()
	assert.Equal(t, StatusEmpty, info.Status)

	seedLoginFile(t, store, "Cookies", 512)
	seedLoginFile(t, store, "Web Data", 1024)
	require.NoError(t, os.MkdirAll(filepath.Join(store.LoginDataPath(), "Local Storage"), 0o755))

	info = store.LoginDataInfo()
	assert.Equal(t, StatusHasData, info.Status)
	assert.Equal(t, 2, info.FileCount)
	assert.Equal(t, int64(1536), info.TotalSize)

	require.NoError(t, os.RemoveAll(store.LoginDataPath()))
	info = store.LoginDataInfo()
	assert.Equal(t, StatusNoData, info.Status)
}

func TestCleanupInvalidData(t *testing.T) {
	store := newTestStore(t)

	seedLoginFile(t, store, "Cookies", 0)
	seedLoginFile(t, store, "Web Data", 256)

	removed := store.CleanupInvalidData()
	assert.Equal(t, 1, removed)

	_, err := os.Stat(filepath.Join(store.LoginDataPath(), "Cookies"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.LoginDataPath(), "Web Data"))
	assert.NoError(t, err)
}

func TestBackupAndRestore(t *testing.T) {
	store := newTestStore(t)

	seedLoginFile(t, store, "Cookies", 300)
	require.NoError(t, os.MkdirAll(filepath.Join(store.LoginDataPath(), "Local Storage"), 0o755))
	seedLoginFile(t, store, filepath.Join("Local Storage", "leveldb"), 128)

	backup, err := store.BackupLoginData("test")
	require.NoError(t, err)
	assert.Equal(t, store.LoginDataPath()+"_backup_test", backup)

	// Mutate the live data, then restore the snapshot.
	require.NoError(t, os.Remove(filepath.Join(store.LoginDataPath(), "Cookies")))
	seedLoginFile(t, store, "Garbage", 10)

	require.NoError(t, store.RestoreLoginData(backup))

	_, err = os.Stat(filepath.Join(store.LoginDataPath(), "Cookies"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.LoginDataPath(), "Garbage"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.LoginDataPath(), "Local Storage", "leveldb"))
	assert.NoError(t, err)

	// The pre-restore safety backup was taken.
	backups, err := store.ListBackups()
	require.NoError(t, err)
	assert.Contains(t, backups, store.LoginDataPath()+"_backup_before_restore")
}

func TestRestoreRejectsMissingBackup(t *testing.T) {
	store := newTestStore(t)

	err := store.RestoreLoginData(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestBackupReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	seedLoginFile(t, store, "Cookies", 200)

	first, err := store.BackupLoginData("fixed")
	require.NoError(t, err)

	seedLoginFile(t, store, "Web Data", 200)
	second, err := store.BackupLoginData("fixed")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = os.Stat(filepath.Join(second, "Web Data"))
	assert.NoError(t, err)
}

func TestCloseBehavior(t *testing.T) {
	store := newTestStore(t)

	prefs := store.LoadPreferences()
	assert.Equal(t, docstore.CloseActionAsk, prefs.CloseBehavior.Action)
	assert.True(t, prefs.CloseBehavior.FirstTime)

	require.NoError(t, store.SetCloseBehavior(docstore.CloseActionMinimizeToTray, true))

	prefs = store.LoadPreferences()
	assert.Equal(t, docstore.CloseActionMinimizeToTray, prefs.CloseBehavior.Action)
	assert.True(t, prefs.CloseBehavior.RememberChoice)
	assert.False(t, prefs.CloseBehavior.FirstTime)
	assert.NotEmpty(t, prefs.LastUpdated)

	err := store.SetCloseBehavior("hibernate", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestAudioConfigClampOnSave(t *testing.T) {
	store := newTestStore(t)

	cfg := store.LoadAudioConfig()
	cfg.RestartIntervalMinutes = 15
	require.NoError(t, store.SaveAudioConfig(cfg))
	assert.Equal(t, docstore.MinRestartIntervalMinutes, store.LoadAudioConfig().RestartIntervalMinutes)

	cfg.RestartIntervalMinutes = 240
	require.NoError(t, store.SaveAudioConfig(cfg))
	assert.Equal(t, docstore.MaxRestartIntervalMinutes, store.LoadAudioConfig().RestartIntervalMinutes)
}

func TestUpdateRestartTimeAndSkipFlag(t *testing.T) {
	store := newTestStore(t)

	now := float64(time.Now().Unix())
	require.NoError(t, store.UpdateRestartTime(now))
	assert.Equal(t, now, store.LoadAudioConfig().LastRestartTimestamp)

	require.NoError(t, store.SetSkipNextRestart(true))
	assert.True(t, store.LoadAudioConfig().SkipNextRestart)
	require.NoError(t, store.SetSkipNextRestart(false))
	assert.False(t, store.LoadAudioConfig().SkipNextRestart)
}

func TestGeometryWriterDebounce(t *testing.T) {
	store := newTestStore(t)

	w := NewGeometryWriter(store, 50*time.Millisecond)
	w.Update([]byte{1}, false)
	w.Update([]byte{2}, false)
	w.Update([]byte{3}, true)

	// Nothing is committed while events keep arriving within the window.
	_, ok := store.LoadWindowGeometry()
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		geom, ok := store.LoadWindowGeometry()
		return ok && geom.Maximized && len(geom.Geometry) == 1 && geom.Geometry[0] == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGeometryWriterFlushOnStop(t *testing.T) {
	store := newTestStore(t)

	w := NewGeometryWriter(store, time.Hour)
	w.Update([]byte{9, 9}, false)
	w.Stop()

	geom, ok := store.LoadWindowGeometry()
	require.True(t, ok)
	assert.Equal(t, []byte{9, 9}, geom.Geometry)

	// Updates after Stop are ignored.
	w.Update([]byte{1}, true)
	geom, _ = store.LoadWindowGeometry()
	assert.Equal(t, []byte{9, 9}, geom.Geometry)
}

func TestDocumentWatcherReportsChanges(t *testing.T) {
	store := newTestStore(t)

	changes := make(chan string, 8)
	watcher, err := NewDocumentWatcher(store, func(doc string) { changes <- doc })
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, store.SaveWindowGeometry([]byte{1}, false))

	select {
	case doc := <-changes:
		assert.Equal(t, docstore.WindowSettingsDoc, doc)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification received")
	}
}
