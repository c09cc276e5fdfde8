package tui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theorangealliance/streamline-control/internal/controller"
	"github.com/theorangealliance/streamline-control/internal/events"
)

// mockSource serves a fixed snapshot and a channel the test controls
type mockSource struct {
	ch    chan controller.ControlSurfaceState
	state controller.ControlSurfaceState
}

func newMockSource(state controller.ControlSurfaceState) *mockSource {
	return &mockSource{ch: make(chan controller.ControlSurfaceState, 1), state: state}
}

func (m *mockSource) Subscribe() <-chan controller.ControlSurfaceState { return m.ch }
func (m *mockSource) Snapshot() controller.ControlSurfaceState         { return m.state }

// mockBus records sent events
type mockBus struct {
	mu   sync.Mutex
	sent []events.Event
	err  error
}

func (b *mockBus) Send(evt events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, evt)
	return nil
}

func runningState(upd controller.UpdateStatus, confirming bool) controller.ControlSurfaceState {
	return controller.Project(
		controller.ServiceStatus{Phase: controller.ServiceRunning, Address: "127.0.0.1:3030"},
		upd, "", confirming)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// press runs the key through Update and executes the resulting command.
func press(t *testing.T, m model, key string) (model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(keyMsg(key))
	var msg tea.Msg
	if cmd != nil {
		msg = cmd()
	}
	return next.(model), msg
}

func TestModelInitWaitsForState(t *testing.T) {
	src := newMockSource(runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, false))
	m := NewModel(src, &mockBus{}, "v1.0.0")

	cmd := m.Init()
	require.NotNil(t, cmd)

	next := runningState(controller.UpdateStatus{Phase: controller.UpdateChecking}, false)
	src.ch <- next
	msg := cmd()
	assert.Equal(t, stateMsg(next), msg)

	updated, follow := m.Update(msg)
	assert.Equal(t, controller.UpdateChecking, updated.(model).state.Update.Phase)
	assert.NotNil(t, follow, "keeps listening for states")
}

func TestModelQuitsWhenControllerStops(t *testing.T) {
	src := newMockSource(runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, false))
	m := NewModel(src, &mockBus{}, "v1.0.0")
	close(src.ch)

	msg := m.Init()()
	assert.Equal(t, stoppedMsg{}, msg)

	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelKeyboardHandling(t *testing.T) {
	idle := runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, false)
	checking := runningState(controller.UpdateStatus{Phase: controller.UpdateChecking}, false)
	confirming := runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, true)

	tests := []struct {
		name   string
		state  controller.ControlSurfaceState
		key    string
		expect []events.Event
	}{
		{"action", idle, "u", []events.Event{events.ActionRequested{}}},
		{"action with enter", idle, "enter", []events.Event{events.ActionRequested{}}},
		{"action disabled while checking", checking, "u", nil},
		{"open browser", idle, "o", []events.Event{events.OpenBrowserRequested{}}},
		{"q asks to confirm", idle, "q", []events.Event{events.CloseWindowRequested{Surface: events.SurfacePrimary}}},
		{"ctrl+c asks to confirm", idle, "ctrl+c", []events.Event{events.CloseWindowRequested{Surface: events.SurfacePrimary}}},
		{"confirm quit", confirming, "y", []events.Event{events.QuitRequested{}}},
		{"cancel quit", confirming, "n", []events.Event{events.QuitCancelled{}}},
		{"esc cancels quit", confirming, "esc", []events.Event{events.QuitCancelled{}}},
		{"other keys ignored while confirming", confirming, "u", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &mockBus{}
			m := NewModel(newMockSource(tt.state), bus, "v1.0.0")

			press(t, m, tt.key)

			assert.Equal(t, tt.expect, bus.sent)
		})
	}
}

func TestModelSendErrorShown(t *testing.T) {
	bus := &mockBus{err: events.ErrBusClosed}
	m := NewModel(newMockSource(runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, false)), bus, "v1.0.0")

	m, msg := press(t, m, "u")
	updated, _ := m.Update(msg)

	err := updated.(model).err
	require.Error(t, err)
	assert.True(t, errors.Is(err, events.ErrBusClosed))
}

func TestView(t *testing.T) {
	m := NewModel(newMockSource(runningState(controller.UpdateStatus{Phase: controller.UpdateAvailable, Version: "v2.1.0"}, false)), &mockBus{}, "v2.0.5")
	assert.Equal(t, "Loading...", m.View())

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := sized.(model).View()
	assert.Contains(t, view, "Streamline Control")
	assert.Contains(t, view, "Server Running at http://127.0.0.1:3030/")
	assert.Contains(t, view, "New Version Found: v2.1.0")
	assert.Contains(t, view, "[u] Update to v2.1.0")
	assert.NotContains(t, view, "Quit Streamline Control?")

	confirming := NewModel(newMockSource(runningState(controller.UpdateStatus{Phase: controller.UpdateIdle}, true)), &mockBus{}, "v2.0.5")
	sized, _ = confirming.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, sized.(model).View(), "Quit Streamline Control?")
}
