// Package tui provides Bubble Tea views for the streamvault CLI.
//
// TUI mode is opt-in (--tui) and renders the same payloads as the
// json/table/yaml output; nothing is shown only in the TUI.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#E4572E")
	okColor      = lipgloss.Color("#2BA84A")
	pendingColor = lipgloss.Color("#F3A712")
	faultColor   = lipgloss.Color("#D62246")
	dimColor     = lipgloss.Color("#8A8D91")
	infoColor    = lipgloss.Color("#29BF9F")
	textColor    = lipgloss.Color("#F5F5F5")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accentColor).MarginBottom(1)
	LabelStyle = lipgloss.NewStyle().Foreground(dimColor).Width(18)
	ValueStyle = lipgloss.NewStyle().Foreground(textColor)
	HelpStyle  = lipgloss.NewStyle().Italic(true).Foreground(dimColor).MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(okColor)
	WarningStyle = lipgloss.NewStyle().Foreground(pendingColor)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(faultColor)

	// BoxStyle frames a single result.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(accentColor).
			Padding(0, 1)

	// Stat tiles are recolored per counter in the stats view.
	StatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(18).Align(lipgloss.Center)
	StatLabelStyle = lipgloss.NewStyle().Foreground(dimColor)
	StatValueStyle = lipgloss.NewStyle().Bold(true)
)

// stateStyles maps publish states and result statuses to a style.
var stateStyles = map[string]lipgloss.Style{
	"succeeded":  SuccessStyle,
	"done":       SuccessStyle,
	"uploading":  WarningStyle,
	"confirming": WarningStyle,
	"orphaned":   WarningStyle,
	"rejected":   ErrorStyle,
	"failed":     ErrorStyle,
	"errored":    ErrorStyle,
}

// StateStyle returns the style for a publish state or result status.
// Unknown values render as plain text.
func StateStyle(state string) lipgloss.Style {
	if s, ok := stateStyles[state]; ok {
		return s
	}
	return ValueStyle
}
