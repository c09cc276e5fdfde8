package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theorangealliance/streamline-control/internal/events"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.ConfirmingQuit {
		return m.handleConfirmMode(msg.String())
	}
	return m.handleNormalMode(msg.String())
}

// handleNormalMode handles input on the primary surface
func (m model) handleNormalMode(key string) (model, tea.Cmd) {
	switch key {
	// Closing the primary surface asks for confirmation first
	case "q", "esc", "ctrl+c":
		return m, send(m.bus, events.CloseWindowRequested{Surface: events.SurfacePrimary})

	case "u", "enter":
		if !m.state.ActionEnabled {
			return m, nil
		}
		return m, send(m.bus, events.ActionRequested{})

	case "o":
		return m, send(m.bus, events.OpenBrowserRequested{})
	}

	return m, nil
}

// handleConfirmMode handles input while the quit confirmation is showing
func (m model) handleConfirmMode(key string) (model, tea.Cmd) {
	switch key {
	case "y", "Y", "ctrl+c":
		return m, send(m.bus, events.QuitRequested{})

	case "n", "N", "esc", "q":
		return m, send(m.bus, events.QuitCancelled{})
	}

	return m, nil
}
