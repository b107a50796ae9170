package cmd

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/cli/render"
	"github.com/Jharmony/StreamVault/cli/tui"
	"github.com/Jharmony/StreamVault/publish"
	"github.com/Jharmony/StreamVault/types"
)

// PublishCommand returns the publish command with its two tiers.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish audio to the permaweb (sample or full)",
		Subcommands: []*cli.Command{
			publishSampleCommand(),
			publishFullCommand(),
		},
	}
}

func publishSampleCommand() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Publish a short preview clip on the free path",
		Flags: withOutputFlags(
			&cli.StringFlag{Name: "title", Usage: "Track title"},
			&cli.StringFlag{Name: "artist", Usage: "Artist name"},
			&cli.StringFlag{Name: "file", Usage: "Path to the clip"},
			&cli.StringFlag{Name: "content-type", Usage: "Clip content type (default: from file extension)"},
			&cli.IntFlag{Name: "duration", Usage: "Clip length in seconds", Value: types.SampleDurationSeconds},
			&cli.StringFlag{Name: "stream-url", Usage: "Stream to cut the clip from"},
			&cli.BoolFlag{Name: "auto-sample", Usage: "Fetch the clip from --stream-url when no file is given"},
		),
		Action: publishSampleAction,
	}
}

func publishSampleAction(c *cli.Context) error {
	req := &types.SampleRequest{
		Title:           c.String("title"),
		Artist:          c.String("artist"),
		ContentType:     c.String("content-type"),
		DurationSeconds: c.Int("duration"),
		StreamURL:       c.String("stream-url"),
		AutoSample:      c.Bool("auto-sample"),
	}
	if path := c.String("file"); path != "" {
		data, contentType, err := readPayload(path, req.ContentType)
		if err != nil {
			return cli.Exit(err.Error(), exitRejected)
		}
		req.Payload, req.ContentType = data, contentType
	}
	return runPublish(c, req)
}

func publishFullCommand() *cli.Command {
	return &cli.Command{
		Name:  "full",
		Usage: "Publish a full track and mint an atomic asset for it",
		Flags: withOutputFlags(
			&cli.StringFlag{Name: "title", Usage: "Track title"},
			&cli.StringFlag{Name: "artist", Usage: "Artist name"},
			&cli.StringFlag{Name: "description", Usage: "Asset description"},
			&cli.StringFlag{Name: "file", Usage: "Path to the audio file"},
			&cli.StringFlag{Name: "content-type", Usage: "Audio content type (default: from file extension)"},
			&cli.BoolFlag{Name: "generated", Usage: "The file is a generated beat"},
			&cli.StringFlag{Name: "artwork", Usage: "Path to cover art"},
			&cli.StringFlag{Name: "artwork-content-type", Usage: "Cover art content type"},
			&cli.StringFlag{Name: "artwork-url", Usage: "Existing cover art URL (used when --artwork is not set)"},
			&cli.IntFlag{Name: "royalty-bps", Usage: "Royalty in basis points (0-5000)"},
			&cli.BoolFlag{Name: "paid", Usage: "Use the paid bulk-upload path"},
			&cli.StringFlag{Name: "currency", Usage: "Paid upload currency: arweave, ethereum, base-eth, solana"},
		),
		Action: publishFullAction,
	}
}

func publishFullAction(c *cli.Context) error {
	currency, err := types.ParseCurrency(c.String("currency"))
	if err != nil {
		return cli.Exit(err.Error(), exitRejected)
	}

	req := &types.FullRequest{
		Title:              c.String("title"),
		Artist:             c.String("artist"),
		Description:        c.String("description"),
		ContentType:        c.String("content-type"),
		Generated:          c.Bool("generated"),
		ArtworkContentType: c.String("artwork-content-type"),
		ArtworkURL:         c.String("artwork-url"),
		PaidUpload:         c.Bool("paid"),
		PaidUploadCurrency: currency,
	}
	if c.IsSet("royalty-bps") {
		bps := c.Int("royalty-bps")
		req.RoyaltyBasisPoints = &bps
	}
	if path := c.String("file"); path != "" {
		data, contentType, err := readPayload(path, req.ContentType)
		if err != nil {
			return cli.Exit(err.Error(), exitRejected)
		}
		req.Payload, req.ContentType = data, contentType
	}
	if path := c.String("artwork"); path != "" {
		data, contentType, err := readPayload(path, req.ArtworkContentType)
		if err != nil {
			return cli.Exit(err.Error(), exitRejected)
		}
		req.ArtworkPayload, req.ArtworkContentType = data, contentType
	}
	return runPublish(c, req)
}

// readPayload reads a file and fills in its content type from the
// extension when none was given.
func readPayload(path, contentType string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	return data, contentType, nil
}

func runPublish(c *cli.Context, req types.PublishRequest) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	unlock, err := acquirePublishLock(e.cfg.LockPath)
	if errors.Is(err, errPublishLocked) {
		res := &types.PublishResult{Error: publish.MsgBusy}
		if rerr := r.Render(res); rerr != nil {
			return rerr
		}
		return exitFor(res)
	}
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	defer unlock()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := e.publish(ctx, req, c.Bool("tui"), r)
	if err != nil {
		return err
	}
	e.saveMetrics(ctx)
	return exitFor(res)
}

// publish runs one flow. With useTUI the progress view shows transitions
// and the result; otherwise transitions go to stderr on a terminal and the
// result is rendered.
func (e *env) publish(ctx context.Context, req types.PublishRequest, useTUI bool, r *render.Renderer) (*types.PublishResult, error) {
	if useTUI {
		res, err := tui.RunProgress(func(onState func(types.PublishState)) *types.PublishResult {
			e.onState = onState
			return e.publisher.Publish(ctx, e.wallet, req)
		})
		if !errors.Is(err, tui.ErrViewClosed) {
			return res, err
		}
		if err := r.Render(res); err != nil {
			return nil, err
		}
		return res, nil
	}

	if isStderrTTY() {
		e.onState = func(s types.PublishState) {
			fmt.Fprintf(os.Stderr, "%s...\n", s)
		}
	}
	res := e.publisher.Publish(ctx, e.wallet, req)
	if err := r.Render(res); err != nil {
		return nil, err
	}
	return res, nil
}
