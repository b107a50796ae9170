package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jharmony/StreamVault/types"
)

// ResultModel is a Bubble Tea model for a publish or attach result.
type ResultModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewResultModel creates a new result model.
func NewResultModel(viewType string, data any) ResultModel {
	return ResultModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m ResultModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ResultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m ResultModel) View() string {
	if m.quitting {
		return ""
	}

	res, ok := m.data.(*types.PublishResult)
	if !ok {
		return fmt.Sprintf("Invalid data type for %s", m.viewType)
	}

	title := "Publish Result"
	if m.viewType == ViewAttachResult {
		title = "Attach Result"
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return renderResult(title, res) + "\n" + help
}

func renderResult(title string, res *types.PublishResult) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	status := "failed"
	switch {
	case res.Success:
		status = "succeeded"
	case res.Orphaned():
		status = "orphaned"
	}

	rows := [][2]string{{"Status", status}}
	if res.Tier != "" {
		rows = append(rows, [2]string{"Tier", string(res.Tier)})
	}
	if res.ContentID != "" {
		rows = append(rows, [2]string{"Content ID", res.ContentID})
	}
	if res.AssetID != "" {
		rows = append(rows, [2]string{"Asset ID", res.AssetID})
	}
	if res.PermawebURL != "" {
		rows = append(rows, [2]string{"Permaweb URL", res.PermawebURL})
	}
	if res.ArioURL != "" {
		rows = append(rows, [2]string{"Mirror URL", res.ArioURL})
	}
	if res.Confirmed != nil {
		rows = append(rows, [2]string{"Confirmed", strconv.FormatBool(*res.Confirmed)})
	}
	if p := res.Persistence; p != nil {
		remote := strconv.FormatBool(p.Remote)
		if p.RemoteSkipped {
			remote = "skipped"
		}
		rows = append(rows,
			[2]string{"Profile", remote},
			[2]string{"Local", strconv.FormatBool(p.Local)},
		)
	}

	for _, row := range rows {
		value := ValueStyle.Render(row[1])
		if row[0] == "Status" {
			value = StateStyle(row[1]).Render(row[1])
		}
		b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(row[0]+":"), value))
	}

	if res.Warning != "" {
		b.WriteString("\n" + WarningStyle.Render(res.Warning) + "\n")
	}
	if res.Error != "" {
		b.WriteString("\n" + ErrorStyle.Render(res.Error) + "\n")
	}

	return BoxStyle.Render(b.String())
}

// RenderResultStatic renders a result without the full TUI.
func RenderResultStatic(viewType string, data any) string {
	model := NewResultModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
