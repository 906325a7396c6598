package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteasedesktop/shell/command"
	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/session"
)

func newTestSessionStore(t *testing.T) *session.Store {
	t.Helper()
	t.Setenv("NSHELL_HOME", t.TempDir())
	store, err := session.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func availableService(t *testing.T) *Service {
	t.Helper()
	return NewService(context.Background(), &command.RealExecutor{}, "true", "echo active")
}

func enableSchedule(t *testing.T, store *session.Store, intervalMin int, lastRestart float64) {
	t.Helper()
	cfg := store.LoadAudioConfig()
	cfg.AutoRestartEnabled = true
	cfg.RestartIntervalMinutes = intervalMin
	cfg.LastRestartTimestamp = lastRestart
	require.NoError(t, store.SaveAudioConfig(cfg))
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestServiceProbes(t *testing.T) {
	t.Setenv("NSHELL_HOME", t.TempDir())

	svc := NewService(context.Background(), &command.RealExecutor{}, "true", "echo active")
	assert.True(t, svc.Available())
	assert.True(t, svc.HasPermission())
	assert.Contains(t, svc.StatusMessage(), "active")

	svc = NewService(context.Background(), &command.RealExecutor{}, "false", "echo active")
	assert.False(t, svc.Available())

	svc = NewService(context.Background(), &command.RealExecutor{}, "true", "false")
	assert.False(t, svc.Available())
}

func TestCheckDueDisabled(t *testing.T) {
	store := newTestSessionStore(t)
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})

	// Defaults leave auto-restart off.
	due, forced := c.checkDue()
	assert.False(t, due)
	assert.False(t, forced)
}

func TestCheckDueFirstRunInitializes(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{}, WithClock(fixedClock(now)))

	enableSchedule(t, store, 90, 0)

	due, _ := c.checkDue()
	assert.False(t, due)

	// The timestamp was initialized so the first restart waits a full
	// interval.
	cfg := store.LoadAudioConfig()
	assert.Equal(t, float64(now.Unix()), cfg.LastRestartTimestamp)
}

func TestCheckDueElapsed(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{}, WithClock(fixedClock(now)))

	// 5400s elapsed at a 90 minute interval is exactly due.
	enableSchedule(t, store, 90, float64(now.Unix())-5400)
	due, forced := c.checkDue()
	assert.True(t, due)
	assert.False(t, forced)

	// 5000s is not due yet.
	enableSchedule(t, store, 90, float64(now.Unix())-5000)
	due, _ = c.checkDue()
	assert.False(t, due)
}

func TestCheckDueForcedWhenLongOverdue(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{}, WithClock(fixedClock(now)))

	// 90 minutes plus 6 minutes overdue bypasses the timing heuristic.
	enableSchedule(t, store, 90, float64(now.Unix())-(5400+360))
	due, forced := c.checkDue()
	assert.True(t, due)
	assert.True(t, forced)
}

func TestCheckDueImplausibleElapsedResets(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{}, WithClock(fixedClock(now)))

	enableSchedule(t, store, 90, 1) // 1970, far beyond any sane elapsed
	due, _ := c.checkDue()
	assert.False(t, due)
	assert.Equal(t, float64(now.Unix()), store.LoadAudioConfig().LastRestartTimestamp)
}

func TestCheckDueConsumesSkipFlag(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{}, WithClock(fixedClock(now)))

	enableSchedule(t, store, 90, float64(now.Unix())-6000)
	require.NoError(t, store.SetSkipNextRestart(true))

	due, _ := c.checkDue()
	assert.False(t, due)

	cfg := store.LoadAudioConfig()
	assert.False(t, cfg.SkipNextRestart)
	assert.Equal(t, float64(now.Unix()), cfg.LastRestartTimestamp)

	// The next due check runs the schedule normally again.
	due, _ = c.checkDue()
	assert.False(t, due)
}

func TestIsGoodRestartTime(t *testing.T) {
	store := newTestSessionStore(t)
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})

	// Fresh activity, playing, no track change: not a good time.
	c.OnUserActivity()
	assert.False(t, c.isGoodRestartTime())

	// Paused playback is always a good time.
	c.OnPlaybackPaused()
	assert.True(t, c.isGoodRestartTime())
	c.OnPlaybackResumed()
	assert.False(t, c.isGoodRestartTime())

	// The gap right after a track change is a good time.
	c.OnTrackChanged()
	assert.True(t, c.isGoodRestartTime())

	// An idle user is a good time.
	idle := NewCoordinator(store, availableService(t), &command.RealExecutor{})
	idle.mu.Lock()
	idle.lastUserActivity = time.Now().Add(-idleThreshold)
	idle.mu.Unlock()
	assert.True(t, idle.isGoodRestartTime())
}

func TestRestartNowRecordsTimestamp(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.RestartCommand = "true"
	require.NoError(t, store.SaveAudioConfig(cfg))

	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})
	require.NoError(t, c.RestartNow(context.Background()))

	assert.Greater(t, store.LoadAudioConfig().LastRestartTimestamp, float64(0))
	assert.False(t, c.InFlight())
}

func TestRestartFallsBackToConfiguredCommand(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.RestartCommand = ""
	require.NoError(t, store.SaveAudioConfig(cfg))

	// The schedule document carries no command, so the app-configured one
	// runs instead.
	c := NewCoordinator(store, availableService(t), &command.RealExecutor{},
		WithRestartCommand("true"))
	require.NoError(t, c.RestartNow(context.Background()))
	assert.Greater(t, store.LoadAudioConfig().LastRestartTimestamp, float64(0))

	failing := NewCoordinator(store, availableService(t), &command.RealExecutor{},
		WithRestartCommand("exit 7"))
	err := failing.RestartNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
}

func TestRestartFailureLeavesTimestamp(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.RestartCommand = "exit 7"
	cfg.LastRestartTimestamp = 42
	require.NoError(t, store.SaveAudioConfig(cfg))

	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})
	err := c.RestartNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))

	// A failed restart does not advance the schedule.
	assert.Equal(t, float64(42), store.LoadAudioConfig().LastRestartTimestamp)
}

func TestSingleFlight(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.RestartCommand = "sleep 2"
	cfg.ShowNotifications = false
	require.NoError(t, store.SaveAudioConfig(cfg))

	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})
	require.NoError(t, c.RequestRestart(context.Background(), "manual"))

	err := c.RequestRestart(context.Background(), "manual")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRestartInFlight, errors.GetCode(err))

	// Drain the worker so the goroutine does not outlive the test.
	res := <-c.results
	c.handleResult(res)
}

func TestRequestRestartRejectedWhenUnavailable(t *testing.T) {
	store := newTestSessionStore(t)
	svc := NewService(context.Background(), &command.RealExecutor{}, "false", "false")

	c := NewCoordinator(store, svc, &command.RealExecutor{})
	err := c.RequestRestart(context.Background(), "manual")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.GetCode(err))
}

func TestRunExecutesScheduledRestart(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.AutoRestartEnabled = true
	cfg.RestartIntervalMinutes = 90
	cfg.RestartCommand = "true"
	cfg.LastRestartTimestamp = float64(time.Now().Unix()) - 6000
	require.NoError(t, store.SaveAudioConfig(cfg))

	c := NewCoordinator(store, availableService(t), &command.RealExecutor{},
		WithPollInterval(50*time.Millisecond))
	c.OnPlaybackPaused()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		ts := store.LoadAudioConfig().LastRestartTimestamp
		return time.Since(time.Unix(int64(ts), 0)) < time.Minute
	}, 5*time.Second, 25*time.Millisecond)

	cancel()
	<-done
}

func TestNotificationsEmitted(t *testing.T) {
	store := newTestSessionStore(t)
	cfg := store.LoadAudioConfig()
	cfg.RestartCommand = "true"
	cfg.ShowNotifications = true
	require.NoError(t, store.SaveAudioConfig(cfg))

	c := NewCoordinator(store, availableService(t), &command.RealExecutor{})
	require.NoError(t, c.RestartNow(context.Background()))

	var messages []Notification
	for {
		select {
		case n := <-c.Notifications():
			messages = append(messages, n)
			continue
		default:
		}
		break
	}
	require.NotEmpty(t, messages)
	assert.False(t, messages[len(messages)-1].IsError)
}
