package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neteasedesktop/shell/command"
	appconfig "github.com/neteasedesktop/shell/config"
	"github.com/neteasedesktop/shell/internal/audio"
	"github.com/neteasedesktop/shell/internal/pidfile"
	"github.com/neteasedesktop/shell/internal/server"
	"github.com/neteasedesktop/shell/internal/session"
	"github.com/neteasedesktop/shell/logging"
	"github.com/neteasedesktop/shell/pkg/client"
	"github.com/neteasedesktop/shell/pkg/paths"
)

// NewRunCmd returns the command that runs the shell core in the foreground:
// session store, restart coordinator, document watcher, and control server.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the shell core",
		Long:  "Run the session store, restart coordinator, and control server in the foreground.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("nshell")

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to prepare directories: %w", err)
			}

			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Error("Failed to release pidfile")
				}
			}()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Storage failure is fatal: every feature depends on it.
			store, err := session.New(cfg.StorageRoot())
			if err != nil {
				return err
			}
			store.CleanupInvalidData()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exe := &command.RealExecutor{}
			svc := audio.NewService(ctx, exe, cfg.Audio.UnitCheckCommand, cfg.Audio.StatusCommand)
			coordinator := audio.NewCoordinator(store, svc, exe,
				audio.WithPollInterval(time.Duration(cfg.Audio.PollIntervalSeconds)*time.Second),
				audio.WithRestartTimeout(time.Duration(cfg.Audio.RestartTimeoutSeconds)*time.Second),
				audio.WithRestartCommand(cfg.Audio.RestartCommand),
			)

			srv := server.New(store, coordinator)

			// External rewrites of the session documents invalidate
			// in-memory state; tell connected clients to reload.
			watcher, err := session.NewDocumentWatcher(store, func(doc string) {
				srv.Hub().Publish(server.Event{Type: server.EventDocumentChanged, Document: doc})
			})
			if err != nil {
				return fmt.Errorf("failed to watch storage root: %w", err)
			}

			geometry := session.NewGeometryWriter(store,
				time.Duration(cfg.Window.GeometryDebounceMs)*time.Millisecond)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				geometry.Stop()
				if _, err := store.BackupLoginData("shutdown"); err != nil {
					logger.WithError(err).Warn("Shutdown backup failed")
				}

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.WithError(err).Error("Server shutdown error")
				}
			}()

			go coordinator.Run(ctx)
			go watcher.Start(ctx)
			go forwardNotifications(ctx, coordinator, srv)

			logger.WithField("pid", os.Getpid()).Info("Starting shell core")
			if err := srv.ListenAndServe(cfg.ControlSocketPath()); err != nil {
				select {
				case <-ctx.Done():
					// Normal shutdown closes the listener.
					return nil
				default:
					return fmt.Errorf("server error: %w", err)
				}
			}
			return nil
		},
	}
}

// forwardNotifications relays coordinator notifications to event
// subscribers.
func forwardNotifications(ctx context.Context, c *audio.Coordinator, srv *server.Server) {
	for {
		select {
		case n := <-c.Notifications():
			srv.Hub().Publish(server.Event{
				Type:    server.EventNotification,
				Message: n.Message,
				IsError: n.IsError,
			})
		case <-ctx.Done():
			return
		}
	}
}

// NewStopCmd returns the command that stops a running shell core.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running shell core",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Println("nshell is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}
			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

// NewStatusCmd returns the command that reports whether the core is running.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check shell core status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			if !running {
				fmt.Println("Stopped")
				os.Exit(1)
			}

			fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if status, err := client.New(cfg.ControlSocketPath()).Health(cmd.Context()); err == nil {
				fmt.Printf("Version: %s\nStorage: %s\nUptime:  %s\n",
					status.Version, status.StorageRoot,
					time.Since(status.StartedAt).Round(time.Second))
			}
			return nil
		},
	}
}

// NewEventsCmd streams the core's event feed to stdout.
func NewEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow events from the running shell core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			events, err := client.New(cfg.ControlSocketPath()).Events(cmd.Context())
			if err != nil {
				return err
			}
			for ev := range events {
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Println(string(data))
			}
			return nil
		},
	}
}

// loadConfig resolves the app config from the --config flag or the default
// search path.
func loadConfig(cmd *cobra.Command) (*appconfig.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return appconfig.Load(path)
	}
	return appconfig.LoadDefault()
}
