package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jharmony/StreamVault/metrics"
)

// StatsModel is a Bubble Tea model for the metrics view.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var snap *metrics.Snapshot
	switch d := m.data.(type) {
	case *metrics.Snapshot:
		snap = d
	case metrics.Snapshot:
		snap = &d
	default:
		return fmt.Sprintf("Invalid data type for %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return m.renderMetrics(snap) + "\n" + help
}

func (m StatsModel) renderMetrics(s *metrics.Snapshot) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Publish Statistics"))
	b.WriteString("\n\n")

	rows := []struct {
		title string
		boxes []string
	}{
		{"Publishes", []string{
			m.renderStatBox("Started", s.PublishesStarted, infoColor),
			m.renderStatBox("Succeeded", s.PublishesSucceeded, okColor),
			m.renderStatBox("Failed", s.PublishesFailed, faultColor),
			m.renderStatBox("Rejected", s.PublishesRejected, pendingColor),
		}},
		{"Uploads", []string{
			m.renderStatBox("Direct", s.DirectUploads, infoColor),
			m.renderStatBox("Paid", s.PaidUploads, infoColor),
			m.renderStatBox("Failures", s.UploadFailures, faultColor),
			m.renderStatBox("Orphaned", s.OrphanedUploads, pendingColor),
		}},
		{"Confirmation and minting", []string{
			m.renderStatBox("Confirmed", s.Confirmed, okColor),
			m.renderStatBox("Unconfirmed", s.Unconfirmed, pendingColor),
			m.renderStatBox("Minted", s.MintSuccess, okColor),
			m.renderStatBox("Mint failed", s.MintFailure, faultColor),
		}},
		{"Records", []string{
			m.renderStatBox("Profile", s.ProfileWriteSuccess, okColor),
			m.renderStatBox("Profile skipped", s.ProfileWriteSkipped, dimColor),
			m.renderStatBox("Local", s.LocalWriteSuccess, okColor),
			m.renderStatBox("Local failed", s.LocalWriteFailure, faultColor),
		}},
	}

	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(infoColor).Render(row.title))
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row.boxes...))
	}

	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Wallet type:"), ValueStyle.Render(s.WalletType)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Ledger:"), ValueStyle.Render(s.LedgerBackend)))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
