package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/cli/render"
	"github.com/Jharmony/StreamVault/cli/tui"
	"github.com/Jharmony/StreamVault/types"
)

// AttachCommand returns the attach command.
// Attach records an existing upload (usually an orphan) against the wallet
// without uploading anything.
func AttachCommand() *cli.Command {
	return &cli.Command{
		Name:  "attach",
		Usage: "Attach an existing upload to the wallet's records",
		Flags: withOutputFlags(
			&cli.StringFlag{Name: "content-id", Usage: "Content identifier of the upload", Required: true},
			&cli.StringFlag{Name: "title", Usage: "Track title"},
			&cli.StringFlag{Name: "artist", Usage: "Artist name"},
		),
		Action: attachAction,
	}
}

func attachAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	res := e.publisher.Attach(c.Context, e.wallet, types.AttachRequest{
		ContentID: c.String("content-id"),
		Title:     c.String("title"),
		Artist:    c.String("artist"),
	})
	e.saveMetrics(c.Context)

	if c.Bool("tui") {
		if err := r.RenderTUI(tui.ViewAttachResult, res); err != nil {
			return err
		}
	} else if err := r.Render(res); err != nil {
		return err
	}
	return exitFor(res)
}
