package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/profile"
)

// ProfileLink is the rendered result of the profile commands.
type ProfileLink struct {
	Wallet    string `json:"wallet"`
	ProfileID string `json:"profileId,omitempty"`
	// Source is override, store or none.
	Source string `json:"source"`
}

// ProfileCommand returns the profile command with subcommands.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or override the wallet's permaweb profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the profile the wallet resolves to",
				Flags:  OutputFlags(),
				Action: profileShowAction,
			},
			{
				Name:      "link",
				Usage:     "Use the given profile for this wallet instead of looking it up",
				ArgsUsage: "<profile-id>",
				Flags:     OutputFlags(),
				Action:    profileLinkAction,
			},
			{
				Name:   "unlink",
				Usage:  "Remove the profile override for this wallet",
				Flags:  OutputFlags(),
				Action: profileUnlinkAction,
			},
		},
	}
}

func profileShowAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "profile show")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	out := ProfileLink{Wallet: e.wallet.Address, Source: "none"}
	if id, ok, err := e.cache.ProfileOverride(c.Context, e.wallet.Address); err != nil {
		return fmt.Errorf("read profile override: %w", err)
	} else if ok {
		out.ProfileID, out.Source = id, "override"
		return r.Render(out)
	}

	id, err := e.resolver.ProfileID(c.Context, e.wallet.Address)
	switch {
	case errors.Is(err, profile.ErrStoreUnavailable):
	case err != nil:
		return cli.Exit(fmt.Sprintf("profile lookup failed: %v", err), exitFailed)
	case id != "":
		out.ProfileID, out.Source = id, "store"
	}
	return r.Render(out)
}

func profileLinkAction(c *cli.Context) error {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return cli.Exit("profile link requires a profile id", exitRejected)
	}

	e, r, err := openReadOnly(c, "profile link")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if err := e.cache.SetProfileOverride(c.Context, e.wallet.Address, id); err != nil {
		return fmt.Errorf("save profile override: %w", err)
	}
	e.resolver.Invalidate(e.wallet.Address)
	return r.Render(ProfileLink{Wallet: e.wallet.Address, ProfileID: id, Source: "override"})
}

func profileUnlinkAction(c *cli.Context) error {
	e, r, err := openReadOnly(c, "profile unlink")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if err := e.cache.ClearProfileOverride(c.Context, e.wallet.Address); err != nil {
		return fmt.Errorf("clear profile override: %w", err)
	}
	e.resolver.Invalidate(e.wallet.Address)
	return r.Render(ProfileLink{Wallet: e.wallet.Address, Source: "none"})
}
