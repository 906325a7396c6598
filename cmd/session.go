package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neteasedesktop/shell/internal/session"
)

// NewSessionCmd returns the `session` command group for inspecting and
// repairing the persistent login data.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage the persistent session",
	}

	cmd.AddCommand(newSessionInfoCmd())
	cmd.AddCommand(newSessionValidateCmd())
	cmd.AddCommand(newSessionCleanupCmd())
	cmd.AddCommand(newSessionBackupCmd())
	cmd.AddCommand(newSessionRestoreCmd())
	cmd.AddCommand(newSessionResetWindowCmd())

	return cmd
}

func openStore(cmd *cobra.Command) (*session.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return session.New(cfg.StorageRoot())
}

func newSessionInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show login data status and backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			info := store.LoginDataInfo()
			backups, err := store.ListBackups()
			if err != nil {
				return err
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				out := map[string]interface{}{
					"login_data": info,
					"valid":      store.ValidateLoginData(),
					"backups":    backups,
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Storage root: %s\n", store.Root())
			fmt.Printf("Status:       %s\n", info.Status)
			fmt.Printf("Files:        %d (%d bytes)\n", info.FileCount, info.TotalSize)
			for _, f := range info.Files {
				fmt.Printf("  %-20s %8d bytes\n", f.Name, f.Size)
			}
			fmt.Printf("Backups:      %d\n", len(backups))
			for _, b := range backups {
				fmt.Printf("  %s\n", b)
			}
			return nil
		},
	}
}

func newSessionValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check whether stored login data is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if store.ValidateLoginData() {
				fmt.Println("Login data is valid")
				return nil
			}
			return fmt.Errorf("login data is missing or empty")
		},
	}
}

func newSessionCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove zero-byte files from the login data",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			removed := store.CleanupInvalidData()
			fmt.Printf("Removed %d empty files\n", removed)
			return nil
		},
	}
}

func newSessionBackupCmd() *cobra.Command {
	var suffix string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the login data",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			path, err := store.BackupLoginData(suffix)
			if err != nil {
				return err
			}
			fmt.Printf("Backup created: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "", "Backup name suffix (default: timestamp)")
	return cmd
}

func newSessionRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-path>",
		Short: "Restore login data from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.RestoreLoginData(args[0]); err != nil {
				return err
			}
			fmt.Printf("Restored login data from %s\n", args[0])
			return nil
		},
	}
}

func newSessionResetWindowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-window",
		Short: "Discard saved window geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.ResetWindowSettings(); err != nil {
				return err
			}
			fmt.Println("Window settings reset")
			return nil
		},
	}
}
