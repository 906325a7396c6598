package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neteasedesktop/shell/command"
	"github.com/neteasedesktop/shell/internal/audio"
	"github.com/neteasedesktop/shell/pkg/client"
)

// NewAudioCmd returns the `audio` command group for the restart schedule.
func NewAudioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Manage the audio service restart schedule",
	}

	cmd.AddCommand(newAudioStatusCmd())
	cmd.AddCommand(newAudioConfigCmd())
	cmd.AddCommand(newAudioSetCmd())
	cmd.AddCommand(newAudioRestartCmd())

	return cmd
}

func newAudioStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the audio service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc := audio.NewService(cmd.Context(), &command.RealExecutor{},
				cfg.Audio.UnitCheckCommand, cfg.Audio.StatusCommand)

			fmt.Printf("Available:  %v\n", svc.Available())
			fmt.Printf("Permission: %v\n", svc.HasPermission())
			fmt.Printf("Status:     %s\n", svc.StatusMessage())
			return nil
		},
	}
}

func newAudioConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the stored restart schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			cfg := store.LoadAudioConfig()

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Auto restart:  %v\n", cfg.AutoRestartEnabled)
			fmt.Printf("Interval:      %d minutes\n", cfg.RestartIntervalMinutes)
			fmt.Printf("Notifications: %v\n", cfg.ShowNotifications)
			fmt.Printf("Command:       %s\n", cfg.RestartCommand)
			fmt.Printf("Skip next:     %v\n", cfg.SkipNextRestart)
			if cfg.LastRestartTimestamp > 0 {
				last := time.Unix(int64(cfg.LastRestartTimestamp), 0)
				fmt.Printf("Last restart:  %s\n", last.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Printf("Last restart:  never\n")
			}
			return nil
		},
	}
}

func newAudioSetCmd() *cobra.Command {
	var (
		enable   bool
		disable  bool
		interval int
		notify   bool
		noNotify bool
		skipNext bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the restart schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			cfg := store.LoadAudioConfig()

			if enable {
				cfg.AutoRestartEnabled = true
			}
			if disable {
				cfg.AutoRestartEnabled = false
			}
			if cmd.Flags().Changed("interval") {
				cfg.RestartIntervalMinutes = interval
			}
			if notify {
				cfg.ShowNotifications = true
			}
			if noNotify {
				cfg.ShowNotifications = false
			}
			if cmd.Flags().Changed("skip-next") {
				cfg.SkipNextRestart = skipNext
			}

			// Route through a running core so its in-memory view stays
			// authoritative.
			appCfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if c := client.New(appCfg.ControlSocketPath()); c.IsRunning() {
				stored, err := c.SetAudioConfig(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				fmt.Printf("Auto restart: %v, interval: %d minutes\n",
					stored.AutoRestartEnabled, stored.RestartIntervalMinutes)
				return nil
			}

			if err := store.SaveAudioConfig(cfg); err != nil {
				return err
			}
			stored := store.LoadAudioConfig()
			fmt.Printf("Auto restart: %v, interval: %d minutes\n",
				stored.AutoRestartEnabled, stored.RestartIntervalMinutes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable automatic restarts")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable automatic restarts")
	cmd.Flags().IntVar(&interval, "interval", 0, "Restart interval in minutes (clamped to 30..180, 0 disables)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Show restart notifications")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Suppress restart notifications")
	cmd.Flags().BoolVar(&skipNext, "skip-next", false, "Skip the next scheduled restart")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	cmd.MarkFlagsMutuallyExclusive("notify", "no-notify")
	return cmd
}

func newAudioRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the audio service now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// A running core owns the schedule; go through it so the
			// restart is single-flighted with scheduled ones.
			if c := client.New(cfg.ControlSocketPath()); c.IsRunning() {
				if err := c.RequestRestart(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Restart requested")
				return nil
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			exe := &command.RealExecutor{}
			svc := audio.NewService(cmd.Context(), exe,
				cfg.Audio.UnitCheckCommand, cfg.Audio.StatusCommand)
			coordinator := audio.NewCoordinator(store, svc, exe,
				audio.WithRestartTimeout(time.Duration(cfg.Audio.RestartTimeoutSeconds)*time.Second),
				audio.WithRestartCommand(cfg.Audio.RestartCommand))

			fmt.Println("Restarting audio service...")
			if err := coordinator.RestartNow(context.Background()); err != nil {
				return err
			}
			fmt.Println("Audio service restarted")
			return nil
		},
	}
}
