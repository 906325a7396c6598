package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neteasedesktop/shell/pkg/paths"
)

// PathsOutput represents the XDG-compliant paths used by nshell.
type PathsOutput struct {
	ConfigDir    string `json:"config_dir"`
	DataDir      string `json:"data_dir"`
	StateDir     string `json:"state_dir"`
	LogDir       string `json:"log_dir"`
	LoginDataDir string `json:"login_data_dir"`
	Socket       string `json:"socket"`
	PidFile      string `json:"pid_file"`
}

// NewPathsCmd prints the resolved filesystem paths as JSON.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the XDG-compliant paths used by nshell",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir:    paths.ConfigDir(),
				DataDir:      paths.DataDir(),
				StateDir:     paths.StateDir(),
				LogDir:       paths.LogDir(),
				LoginDataDir: paths.LoginDataDir(),
				Socket:       paths.SocketPath(),
				PidFile:      paths.PidFilePath(),
			}
			data, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
