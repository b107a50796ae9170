package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/cli/render"
	"github.com/Jharmony/StreamVault/cli/tui"
	"github.com/Jharmony/StreamVault/ledger"
)

// StatsCommand returns the stats command.
// Stats shows the last metrics snapshot written to the ledger for the
// wallet. Every publish, attach and sync writes one.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show cumulative publish statistics for the wallet",
		Flags:  OutputFlags(),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	if e.wallet.Address == "" {
		return cli.Exit(errNoWalletAddress.Error(), exitConfig)
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	record, err := e.ledger.LatestMetrics(ctx, e.wallet.Address)
	if errors.Is(err, ledger.ErrNoMetricsFound) {
		return cli.Exit("no statistics recorded for this wallet yet", exitFailed)
	}
	if err != nil {
		return fmt.Errorf("failed to read metrics from ledger: %w", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsMetrics, record.Snapshot)
	}
	return r.Render(record.Snapshot)
}
