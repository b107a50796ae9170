// Package cmd provides CLI commands for the streamvault binary.
package cmd

import "github.com/urfave/cli/v2"

// Global flags. They are read through the context lineage, so every
// subcommand sees them.
var (
	// ConfigFlag points at a streamvault.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to streamvault.yaml (default: ./streamvault.yaml when present)",
		EnvVars: []string{"STREAMVAULT_CONFIG"},
	}

	// WalletTypeFlag overrides wallet.type.
	WalletTypeFlag = &cli.StringFlag{
		Name:    "wallet-type",
		Usage:   "Connected wallet type: arweave, ethereum, solana",
		EnvVars: []string{"STREAMVAULT_WALLET_TYPE"},
	}

	// WalletAddressFlag overrides wallet.address.
	WalletAddressFlag = &cli.StringFlag{
		Name:    "wallet-address",
		Usage:   "Connected wallet address",
		EnvVars: []string{"STREAMVAULT_WALLET_ADDRESS"},
	}

	// LogLevelFlag overrides log.level.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}
)

// Output flags shared by every command that renders a result.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for publish, attach and stats.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (publish, attach, stats only)",
	}
)

// GlobalFlags returns the flags registered on the app itself.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		WalletTypeFlag,
		WalletAddressFlag,
		LogLevelFlag,
	}
}

// OutputFlags returns the shared output flags.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// withOutputFlags appends the output flags to command-specific flags.
func withOutputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, OutputFlags()...)
}
