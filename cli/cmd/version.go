package cmd

import (
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/cli/render"
	"github.com/Jharmony/StreamVault/types"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// VersionCommand reports build information without loading config.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Flags: OutputFlags(),
		Action: func(c *cli.Context) error {
			if c.Bool("tui") {
				return cli.Exit("--tui is not supported for version", exitFailed)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			return r.Render(buildInfo(commit))
		},
	}
}

func buildInfo(commit string) BuildInfo {
	if commit == "" {
		commit = "unknown"
	}
	return BuildInfo{
		App:       types.AppName,
		Version:   types.Version,
		Commit:    commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
