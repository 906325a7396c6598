package audio

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/command"
	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/session"
	"github.com/neteasedesktop/shell/logging"
)

const (
	// defaultPollInterval is how often the schedule is evaluated.
	defaultPollInterval = time.Minute

	// defaultRestartTimeout bounds the restart command itself.
	defaultRestartTimeout = 30 * time.Second

	// trackChangeWindow is how recently a track change must have happened
	// for the gap between songs to count as a safe restart moment.
	trackChangeWindow = 5 * time.Second

	// idleThreshold is how long the user must be inactive before a restart
	// is considered unobtrusive.
	idleThreshold = 30 * time.Second

	// forcedOverdueAfter forces a restart that has been due this long even
	// without a quiet moment, so the schedule cannot starve forever during
	// continuous playback.
	forcedOverdueAfter = 5 * time.Minute

	// maxSaneElapsed rejects elapsed times that can only come from clock
	// skew or a corrupted timestamp. The schedule resets instead of firing.
	maxSaneElapsed = 100000 * time.Minute

	// availabilityRecheckDelay waits for the service to settle after a
	// restart before probing it again.
	availabilityRecheckDelay = 3 * time.Second

	// shutdownGrace is how long Run waits for an in-flight restart to
	// finish before giving up on its result.
	shutdownGrace = 5 * time.Second
)

// Notification is a user-visible message about a restart.
type Notification struct {
	Message string
	IsError bool
}

// restartResult travels from the worker goroutine back to the Run loop.
type restartResult struct {
	trigger  string
	err      error
	duration time.Duration
}

// Coordinator decides when the audio service can be restarted without
// disrupting playback and executes the restart off the caller's goroutine.
// One restart may be in flight at a time; concurrent requests are rejected.
type Coordinator struct {
	store    *session.Store
	service  *Service
	executor command.Executor

	pollInterval   time.Duration
	restartTimeout time.Duration
	fallbackCmd    string
	now            func() time.Time

	mu               sync.Mutex
	inFlight         bool
	paused           bool
	lastTrackChange  time.Time
	lastUserActivity time.Time

	results       chan restartResult
	notifications chan Notification

	logger *logrus.Entry
}

// Option adjusts coordinator construction.
type Option func(*Coordinator)

// WithPollInterval overrides the schedule evaluation cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// WithRestartTimeout overrides the restart command timeout.
func WithRestartTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.restartTimeout = d }
}

// WithRestartCommand sets the app-configured restart command, used when the
// stored schedule does not carry one of its own.
func WithRestartCommand(cmd string) Option {
	return func(c *Coordinator) { c.fallbackCmd = cmd }
}

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator builds a coordinator over the session store's restart
// schedule.
func NewCoordinator(store *session.Store, service *Service, exe command.Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:          store,
		service:        service,
		executor:       exe,
		pollInterval:   defaultPollInterval,
		restartTimeout: defaultRestartTimeout,
		now:            time.Now,
		results:        make(chan restartResult, 1),
		notifications:  make(chan Notification, 16),
		logger:         logging.NewLogger("audio-coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastUserActivity = c.now()
	return c
}

// Notifications delivers user-visible restart messages. Messages are
// dropped if nothing is draining the channel.
func (c *Coordinator) Notifications() <-chan Notification {
	return c.notifications
}

// OnTrackChanged records a track transition, opening the short window in
// which a restart goes unnoticed.
func (c *Coordinator) OnTrackChanged() {
	c.mu.Lock()
	c.lastTrackChange = c.now()
	c.mu.Unlock()
}

// OnPlaybackPaused marks playback paused; any moment is a good moment.
func (c *Coordinator) OnPlaybackPaused() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// OnPlaybackResumed clears the paused flag.
func (c *Coordinator) OnPlaybackResumed() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// OnUserActivity resets the idle timer.
func (c *Coordinator) OnUserActivity() {
	c.mu.Lock()
	c.lastUserActivity = c.now()
	c.mu.Unlock()
}

// InFlight reports whether a restart is currently executing.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Run evaluates the schedule every poll interval until the context is
// cancelled, consuming worker results as they arrive. On shutdown it waits
// briefly for an in-flight restart so a successful restart still gets its
// timestamp recorded.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.logger.WithField("interval", c.pollInterval).Info("Restart coordinator started")
	for {
		select {
		case <-ticker.C:
			c.tick(ctx)
		case res := <-c.results:
			c.handleResult(res)
		case <-ctx.Done():
			c.drain()
			c.logger.Info("Restart coordinator stopped")
			return
		}
	}
}

// drain gives an in-flight restart a short grace period on shutdown.
func (c *Coordinator) drain() {
	if !c.InFlight() {
		return
	}
	select {
	case res := <-c.results:
		c.handleResult(res)
	case <-time.After(shutdownGrace):
		c.logger.Warn("Shutdown grace expired with restart still in flight")
	}
}

// tick runs one scheduling pass: is a restart due, and is now a good time.
func (c *Coordinator) tick(ctx context.Context) {
	due, forced := c.checkDue()
	if !due {
		return
	}
	if !forced && !c.isGoodRestartTime() {
		c.logger.Debug("Restart due but waiting for a quiet moment")
		return
	}
	if err := c.RequestRestart(ctx, "scheduled"); err != nil {
		c.logger.WithError(err).Warn("Scheduled restart not started")
	}
}

// checkDue evaluates the persisted schedule. It owns the schedule's
// self-repair: a never-set timestamp is initialized to now (deferring the
// first restart one full interval), an absurd elapsed value resets the
// timestamp, and an armed skip flag consumes itself by resetting the
// schedule. The second return value reports that the restart is so overdue
// the timing heuristic must be bypassed.
func (c *Coordinator) checkDue() (due bool, forced bool) {
	cfg := c.store.LoadAudioConfig()
	if !cfg.AutoRestartEnabled || cfg.RestartIntervalMinutes == 0 {
		return false, false
	}

	now := c.now()
	if cfg.LastRestartTimestamp <= 0 {
		c.logger.Info("Initializing restart schedule")
		if err := c.store.UpdateRestartTime(float64(now.Unix())); err != nil {
			c.logger.WithError(err).Warn("Failed to initialize restart timestamp")
		}
		return false, false
	}

	elapsed := time.Duration(float64(now.Unix())-cfg.LastRestartTimestamp) * time.Second
	if elapsed > maxSaneElapsed {
		c.logger.WithField("elapsed", elapsed).Warn("Implausible elapsed time, resetting schedule")
		if err := c.store.UpdateRestartTime(float64(now.Unix())); err != nil {
			c.logger.WithError(err).Warn("Failed to reset restart timestamp")
		}
		return false, false
	}

	interval := time.Duration(cfg.RestartIntervalMinutes) * time.Minute
	if elapsed < interval {
		return false, false
	}

	if cfg.SkipNextRestart {
		// The skip is one-shot: consume the flag and push the schedule out
		// a full interval.
		c.logger.Info("Skipping this restart by user request")
		cfg.SkipNextRestart = false
		cfg.LastRestartTimestamp = float64(now.Unix())
		if err := c.store.SaveAudioConfig(cfg); err != nil {
			c.logger.WithError(err).Warn("Failed to clear skip flag")
		}
		return false, false
	}

	return true, elapsed-interval >= forcedOverdueAfter
}

// isGoodRestartTime is the disruption heuristic, in priority order: paused
// playback, the gap right after a track change, or a user idle long enough
// not to notice.
func (c *Coordinator) isGoodRestartTime() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	if c.paused {
		return true
	}
	if !c.lastTrackChange.IsZero() && now.Sub(c.lastTrackChange) <= trackChangeWindow {
		return true
	}
	if now.Sub(c.lastUserActivity) >= idleThreshold {
		return true
	}
	return false
}

// RequestRestart starts the restart command on a worker goroutine. It
// returns immediately; the outcome is reported through handleResult when
// the Run loop is active. A request while another restart is in flight
// fails with ErrCodeRestartInFlight, and requests are also rejected when
// the service probe found nothing to restart.
func (c *Coordinator) RequestRestart(ctx context.Context, trigger string) error {
	if !c.service.Available() {
		return errors.New(errors.ErrCodeServiceUnavailable, "audio service is not available")
	}
	if !c.service.HasPermission() {
		return errors.New(errors.ErrCodePermissionDenied, "no permission to restart the audio service")
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return errors.RestartInFlight()
	}
	c.inFlight = true
	c.mu.Unlock()

	cfg := c.store.LoadAudioConfig()
	if cfg.ShowNotifications {
		c.notify(Notification{Message: "Restarting audio service..."})
	}

	cmdline := cfg.RestartCommand
	if cmdline == "" {
		cmdline = c.fallbackCmd
	}

	c.logger.WithFields(logrus.Fields{
		"trigger": trigger,
		"command": cmdline,
	}).Info("Starting audio service restart")

	go func() {
		res, err := command.RunShell(ctx, c.executor, cmdline, c.restartTimeout)
		c.results <- restartResult{trigger: trigger, err: err, duration: res.Duration}
	}()
	return nil
}

// handleResult finishes a restart: records the timestamp on success,
// notifies either way, and schedules an availability recheck once the
// service has had a moment to come back up.
func (c *Coordinator) handleResult(res restartResult) {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()

	cfg := c.store.LoadAudioConfig()
	if res.err != nil {
		c.logger.WithError(res.err).WithField("trigger", res.trigger).Error("Audio service restart failed")
		if cfg.ShowNotifications {
			c.notify(Notification{Message: "Audio service restart failed", IsError: true})
		}
		return
	}

	if err := c.store.UpdateRestartTime(float64(c.now().Unix())); err != nil {
		c.logger.WithError(err).Warn("Failed to record restart time")
	}
	c.logger.WithFields(logrus.Fields{
		"trigger":  res.trigger,
		"duration": res.duration,
	}).Info("Audio service restarted")
	if cfg.ShowNotifications {
		c.notify(Notification{Message: "Audio service restarted"})
	}

	time.AfterFunc(availabilityRecheckDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		c.service.CheckAvailability(ctx)
	})
}

// RestartNow runs a restart synchronously, for the CLI path where no Run
// loop is consuming results.
func (c *Coordinator) RestartNow(ctx context.Context) error {
	if err := c.RequestRestart(ctx, "manual"); err != nil {
		return err
	}
	res := <-c.results
	c.handleResult(res)
	return res.err
}

func (c *Coordinator) notify(n Notification) {
	select {
	case c.notifications <- n:
	default:
	}
}
