package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// View types with a TUI rendering.
const (
	ViewPublishResult = "publish_result"
	ViewAttachResult  = "attach_result"
	ViewStatsMetrics  = "stats_metrics"
)

// Run starts the TUI for viewType.
func Run(viewType string, data any) error {
	var model tea.Model
	switch viewType {
	case ViewPublishResult, ViewAttachResult:
		model = NewResultModel(viewType, data)
	case ViewStatsMetrics:
		model = NewStatsModel(viewType, data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{
		ViewPublishResult,
		ViewAttachResult,
		ViewStatsMetrics,
	}
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
