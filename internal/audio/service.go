// Package audio coordinates restarts of the external audio service so a
// long-running playback session does not accumulate audio-stack drift. The
// coordinator owns the schedule, the timing heuristic, and the worker that
// runs the restart command.
package audio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/command"
	"github.com/neteasedesktop/shell/logging"
)

// checkTimeout bounds the availability and permission probes.
const checkTimeout = 10 * time.Second

// Service probes the external audio service: whether its unit exists and is
// active, and whether the current user may restart it. Both checks are
// best-effort and run once; the results are cached as flags rather than
// gating every restart attempt.
type Service struct {
	executor     command.Executor
	unitCheckCmd string
	statusCmd    string

	mu            sync.RWMutex
	available     bool
	hasPermission bool
	statusMessage string

	logger *logrus.Entry
}

// NewService probes the audio service using the configured check commands.
func NewService(ctx context.Context, exe command.Executor, unitCheckCmd, statusCmd string) *Service {
	s := &Service{
		executor:     exe,
		unitCheckCmd: unitCheckCmd,
		statusCmd:    statusCmd,
		logger:       logging.NewLogger("audio-service"),
	}
	s.CheckAvailability(ctx)
	s.checkPermission(ctx)
	return s
}

// Available reports whether the audio service was found and active.
func (s *Service) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// HasPermission reports whether the user can manage the service.
func (s *Service) HasPermission() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPermission
}

// StatusMessage returns the human-readable outcome of the last probe.
func (s *Service) StatusMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusMessage
}

// CheckAvailability re-probes the service unit and its active state. Called
// at construction and again shortly after a restart completes.
func (s *Service) CheckAvailability(ctx context.Context) {
	available := false
	message := ""

	if _, err := command.RunShell(ctx, s.executor, s.unitCheckCmd, checkTimeout); err != nil {
		message = "audio service unit not found"
		s.logger.WithError(err).Warn("Audio service unit check failed")
	} else if res, err := command.RunShell(ctx, s.executor, s.statusCmd, checkTimeout); err != nil {
		message = "audio service is not running"
		s.logger.WithField("output", res.Stderr).Warn("Audio service is not active")
	} else {
		available = true
		message = "audio service is running: " + res.Stdout
		s.logger.Info("Audio service is available")
	}

	s.mu.Lock()
	s.available = available
	s.statusMessage = message
	s.mu.Unlock()
}

// checkPermission verifies the user session can manage its own services.
// Membership in any group is enough on modern systemd setups; the probe
// mainly catches broken sessions where `groups` itself fails.
func (s *Service) checkPermission(ctx context.Context) {
	res, err := command.RunShell(ctx, s.executor, "groups", checkTimeout)
	ok := err == nil && len(strings.Fields(res.Stdout)) > 0

	s.mu.Lock()
	s.hasPermission = ok
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("Could not confirm service management permission")
	}
}
