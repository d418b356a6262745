package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/fotix/internal"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.state != StateComplete && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "q", "enter", "esc":
			if m.state == StateComplete {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.progressBar.Width = msg.Width - 10
		if m.progressBar.Width < 10 {
			m.progressBar.Width = 10
		}

	case progressMsg:
		m.last = internal.ProgressUpdate(msg)
		switch m.last.Phase {
		case internal.PhaseScanning:
			m.state = StateScanning
		case internal.PhaseHashing:
			m.state = StateHashing
		case internal.PhaseActing:
			m.state = StateActing
		}
		return m, waitForProgress(m.updates)

	case progressClosedMsg:
		return m, nil

	case processCompleteMsg:
		m.state = StateComplete
		m.result = msg.result
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.state == StateComplete {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) percent() float64 {
	if m.last.GroupsTotal == 0 {
		return 0
	}
	return float64(m.last.GroupsDone) / float64(m.last.GroupsTotal)
}
