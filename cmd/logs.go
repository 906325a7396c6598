package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/neteasedesktop/shell/pkg/paths"
)

// NewLogsCmd creates the `logs` command for reading component log files.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show nshell log output",
		Long: `Reads the per-component log files under the log directory.

Examples:
  # Print all logs
  nshell logs

  # Follow the coordinator's log
  nshell logs -f --component audio-coordinator

  # Show the last 50 lines
  nshell logs --tail 50
`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", 0, "Show only the last N lines")
	cmd.Flags().String("component", "", "Filter by component name")
	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	tailN, _ := cmd.Flags().GetInt("tail")
	component, _ := cmd.Flags().GetString("component")

	files, err := logFiles(component)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No log files found")
		return nil
	}

	if !follow {
		return printLogs(files, tailN)
	}
	return followLogs(files)
}

// logFiles returns the matching log files sorted by name, which sorts by
// date because of the <component>-<date>.log naming.
func logFiles(component string) ([]string, error) {
	pattern := "*.log"
	if component != "" {
		pattern = component + "-*.log"
	}
	files, err := filepath.Glob(filepath.Join(paths.LogDir(), pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func printLogs(files []string, tailN int) error {
	var lines []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	if tailN > 0 && len(lines) > tailN {
		lines = lines[len(lines)-tailN:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func followLogs(files []string) error {
	out := make(chan string, 64)
	for _, file := range files {
		t, err := tail.TailFile(file, tail.Config{
			Follow:   true,
			ReOpen:   true,
			Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
			Logger:   stdlog.New(io.Discard, "", 0),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot tail %s: %v\n", file, err)
			continue
		}
		go func() {
			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				out <- line.Text
			}
		}()
	}

	for line := range out {
		fmt.Println(line)
	}
	return nil
}
