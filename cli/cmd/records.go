package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/cli/render"
	"github.com/Jharmony/StreamVault/ledger"
	"github.com/Jharmony/StreamVault/profile"
	"github.com/Jharmony/StreamVault/publish"
)

// errNoWalletAddress is reported by commands that read per-wallet records.
var errNoWalletAddress = errors.New("a wallet address is required (--wallet-address or wallet.address)")

// LedgerRow is the rendered form of a ledger record.
type LedgerRow struct {
	AttemptID   string    `json:"attemptId"`
	Kind        string    `json:"kind"`
	Tier        string    `json:"tier,omitempty"`
	UploadPath  string    `json:"uploadPath,omitempty"`
	ContentID   string    `json:"contentId,omitempty"`
	AssetID     string    `json:"assetId,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

func ledgerRows(records []ledger.PublishRecord) []LedgerRow {
	rows := make([]LedgerRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, LedgerRow{
			AttemptID:   r.AttemptID,
			Kind:        r.Kind,
			Tier:        string(r.Tier),
			UploadPath:  r.UploadPath,
			ContentID:   r.ContentID,
			AssetID:     r.AssetID,
			Success:     r.Success,
			Error:       r.Error,
			CompletedAt: r.CompletedAt,
		})
	}
	return rows
}

// SamplesCommand returns the samples command.
func SamplesCommand() *cli.Command {
	return &cli.Command{
		Name:   "samples",
		Usage:  "List the wallet's locally cached sample records (newest first)",
		Flags:  OutputFlags(),
		Action: samplesAction,
	}
}

func samplesAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "samples")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	samples, err := e.cache.Samples(c.Context, e.wallet.Address)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}
	return r.Render(samples)
}

// SyncCommand returns the sync command.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Replay locally cached records into the wallet's permaweb profile",
		Flags:  OutputFlags(),
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "sync")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	report, syncErr := e.publisher.SyncLocal(c.Context, e.wallet)
	e.saveMetrics(c.Context)

	switch {
	case errors.Is(syncErr, profile.ErrStoreUnavailable):
		return cli.Exit(publish.MsgProfileNotReady, exitFailed)
	case errors.Is(syncErr, publish.ErrNoProfile):
		return cli.Exit(publish.MsgCreateProfile, exitFailed)
	case report.ProfileID == "" && syncErr != nil:
		return cli.Exit(syncErr.Error(), exitFailed)
	}

	if err := r.Render(report); err != nil {
		return err
	}
	if syncErr != nil {
		return cli.Exit(syncErr.Error(), exitFailed)
	}
	return nil
}

// OrphansCommand returns the orphans command.
func OrphansCommand() *cli.Command {
	return &cli.Command{
		Name:   "orphans",
		Usage:  "List uploads left behind by failed publishes",
		Flags:  OutputFlags(),
		Action: orphansAction,
	}
}

func orphansAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "orphans")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	records, err := e.ledger.Orphans(c.Context, e.wallet.Address)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	return r.Render(ledgerRows(records))
}

// HistoryCommand returns the history command.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List the wallet's publish and attach attempts (newest first)",
		Flags: withOutputFlags(
			&cli.IntFlag{Name: "limit", Usage: "Show at most this many records (0: all)"},
		),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "history")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	records, err := e.ledger.History(c.Context, e.wallet.Address)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if limit := c.Int("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return r.Render(ledgerRows(records))
}

// openReadOnly prepares a command that has no TUI view and reads the
// connected wallet's records.
func openReadOnly(c *cli.Context, name string) (*env, *render.Renderer, error) {
	r, err := render.NewRenderer(c)
	if err != nil {
		return nil, nil, err
	}
	if c.Bool("tui") {
		return nil, nil, cli.Exit(fmt.Sprintf("--tui is not supported for %s command", name), exitFailed)
	}

	e, err := openEnv(c)
	if err != nil {
		return nil, nil, err
	}
	if e.wallet.Address == "" {
		_ = e.Close()
		return nil, nil, cli.Exit(errNoWalletAddress.Error(), exitConfig)
	}
	return e, r, nil
}
