package main

import (
	"os"

	"github.com/neteasedesktop/shell/cli"
	"github.com/neteasedesktop/shell/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"nshell",
		"Desktop shell core for the NetEase Cloud Music web app",
	)

	rootCmd.AddCommand(cmd.NewRunCmd())
	rootCmd.AddCommand(cmd.NewStopCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewEventsCmd())
	rootCmd.AddCommand(cmd.NewSessionCmd())
	rootCmd.AddCommand(cmd.NewAudioCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewPathsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("nshell"))

	if err := rootCmd.Execute(); err != nil {
		handler := cli.NewErrorHandler(false)
		handler.Handle(err)
		os.Exit(1)
	}
}
