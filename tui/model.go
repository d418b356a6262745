package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/deduplicator"
)

type State int

const (
	StateScanning State = iota
	StateHashing
	StateActing
	StateComplete
)

type model struct {
	state  State
	dirs   []string
	mode   internal.OperationMode
	dryRun bool

	updates <-chan internal.ProgressUpdate
	done    *outcome
	cancel  func()

	last   internal.ProgressUpdate
	result *deduplicator.Result
	err    error

	progressBar progress.Model
	spinner     spinner.Model
}

func newModel(dirs []string, mode internal.OperationMode, dryRun bool, updates <-chan internal.ProgressUpdate, done *outcome, cancel func()) *model {
	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.PercentageStyle = lipgloss.NewStyle().Foreground(accent).Width(5)

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return &model{
		state:       StateScanning,
		dirs:        dirs,
		mode:        mode,
		dryRun:      dryRun,
		updates:     updates,
		done:        done,
		cancel:      cancel,
		progressBar: progressBar,
		spinner:     s,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForProgress(m.updates),
		waitForResult(m.done),
	)
}

func waitForProgress(ch <-chan internal.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return progressMsg(u)
	}
}

func waitForResult(o *outcome) tea.Cmd {
	return func() tea.Msg {
		return o.wait()
	}
}
