package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jharmony/StreamVault/types"
)

// StateMsg reports a publish state transition to the progress view.
type StateMsg types.PublishState

// DoneMsg carries the finished result.
type DoneMsg struct {
	Result *types.PublishResult
}

// ProgressModel shows the publish state while a flow runs and the result
// once it is done.
type ProgressModel struct {
	spinner  spinner.Model
	state    types.PublishState
	result   *types.PublishResult
	quitting bool
}

// NewProgressModel creates a progress model in the idle state.
func NewProgressModel() ProgressModel {
	return ProgressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(WarningStyle)),
		state:   types.StateIdle,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = types.PublishState(msg)
		return m, nil

	case DoneMsg:
		m.result = msg.Result
		return m, nil

	case tea.KeyMsg:
		// The flow cannot be abandoned half way; quitting waits for the result.
		if key.Matches(msg, keys.Quit) && m.result != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}
	if m.result != nil {
		return renderResult("Publish Result", m.result) + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
	}
	return m.spinner.View() + " " + StateStyle(string(m.state)).Render(stateLabel(m.state)) + "\n"
}

func stateLabel(s types.PublishState) string {
	switch s {
	case types.StateUploading:
		return "Uploading..."
	case types.StateConfirming:
		return "Waiting for network confirmation..."
	case types.StateDone:
		return "Saving records..."
	case types.StateErrored:
		return "Finishing..."
	default:
		return "Validating..."
	}
}

// ErrViewClosed is returned with the result when the progress view was quit
// before the publish finished.
var ErrViewClosed = errors.New("publish view closed before the result was ready")

// RunProgress runs fn while showing its state transitions. fn receives a
// callback to report transitions and returns the final result. RunProgress
// returns only after fn has, even when the view is quit early.
func RunProgress(fn func(onState func(types.PublishState)) *types.PublishResult) (*types.PublishResult, error) {
	p := tea.NewProgram(NewProgressModel())
	return runProgress(p.Run, p.Send, fn)
}

func runProgress(run func() (tea.Model, error), send func(tea.Msg), fn func(onState func(types.PublishState)) *types.PublishResult) (*types.PublishResult, error) {
	done := make(chan *types.PublishResult, 1)
	go func() {
		res := fn(func(s types.PublishState) { send(StateMsg(s)) })
		done <- res
		send(DoneMsg{Result: res})
	}()

	final, err := run()
	res := <-done
	if err != nil {
		return res, err
	}
	if m, ok := final.(ProgressModel); !ok || m.result == nil {
		return res, ErrViewClosed
	}
	return res, nil
}
