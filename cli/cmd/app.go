package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/types"
)

// NewApp assembles the streamvault CLI.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:    "streamvault",
		Usage:   "Publish audio to the permaweb",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:   GlobalFlags(),
		Commands: []*cli.Command{
			PublishCommand(),
			AttachCommand(),
			SamplesCommand(),
			SyncCommand(),
			OrphansCommand(),
			HistoryCommand(),
			ProfileCommand(),
			StatsCommand(),
			VersionCommand(commit),
		},
	}
}
