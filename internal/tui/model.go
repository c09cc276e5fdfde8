// Package tui is the terminal control surface. It renders controller
// snapshots with Bubble Tea and sends key presses to the controller as events.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theorangealliance/streamline-control/internal/controller"
	"github.com/theorangealliance/streamline-control/internal/events"
)

// StateSource supplies controller snapshots
type StateSource interface {
	Subscribe() <-chan controller.ControlSurfaceState
	Snapshot() controller.ControlSurfaceState
}

// model is the main Bubble Tea model
type model struct {
	bus     events.Sender
	states  <-chan controller.ControlSurfaceState
	version string

	state  controller.ControlSurfaceState
	width  int
	height int
	err    error
}

// Messages

type stateMsg controller.ControlSurfaceState

type stoppedMsg struct{}

type errMsg struct {
	err error
}

// Commands

func waitForState(states <-chan controller.ControlSurfaceState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return stoppedMsg{}
		}
		return stateMsg(state)
	}
}

func send(bus events.Sender, evt events.Event) tea.Cmd {
	return func() tea.Msg {
		if err := bus.Send(evt); err != nil {
			return errMsg{fmt.Errorf("%s: %w", evt.Name(), err)}
		}
		return nil
	}
}

// NewModel creates a new TUI model
func NewModel(source StateSource, bus events.Sender, version string) model {
	return model{
		bus:     bus,
		states:  source.Subscribe(),
		version: version,
		state:   source.Snapshot(),
	}
}

func (m model) Init() tea.Cmd {
	return waitForState(m.states)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.state = controller.ControlSurfaceState(msg)
		m.err = nil
		return m, waitForState(m.states)

	case stoppedMsg:
		return m, tea.Quit

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	return renderView(m)
}

// Run shows the terminal surface until the controller stops or ctx is done.
func Run(ctx context.Context, source StateSource, bus events.Sender, version string) error {
	p := tea.NewProgram(NewModel(source, bus, version), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
