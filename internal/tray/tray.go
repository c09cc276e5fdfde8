//go:build (darwin || windows) && !nogui && !headless

package tray

import (
	"context"
	_ "embed"
	"runtime"

	"fyne.io/systray"
	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/controller"
	"github.com/theorangealliance/streamline-control/internal/events"
)

// Available reports whether this build has a system tray
const Available = true

//go:embed icon.png
var iconData []byte

// App is the system tray control surface. It renders controller snapshots
// and turns menu clicks into events; it owns no state of its own.
type App struct {
	source   StateSource
	bus      events.Sender
	logger   *zap.SugaredLogger
	version  string
	notifier Notifier

	statusItem   *systray.MenuItem
	feedbackItem *systray.MenuItem
	openItem     *systray.MenuItem
	actionItem   *systray.MenuItem
	quitItem     *systray.MenuItem
	confirmItem  *systray.MenuItem
	cancelItem   *systray.MenuItem

	last controller.ControlSurfaceState

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new tray application
func New(source StateSource, bus events.Sender, logger *zap.SugaredLogger, version string, notifier Notifier) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		source:   source,
		bus:      bus,
		logger:   logger.Named("tray"),
		version:  version,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the system tray. It blocks on the main thread until the
// controller stops or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting system tray application")

	// Monitor context cancellation and quit systray when needed
	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info("Context cancelled, quitting systray")
			systray.Quit()
		case <-a.ctx.Done():
		}
	}()

	systray.Run(a.onReady, a.onExit)
	return nil
}

func (a *App) onReady() {
	a.logger.Info("System tray onReady called")

	if len(iconData) > 0 {
		systray.SetIcon(iconData)
		// On macOS, also set the template icon for dark mode
		if runtime.GOOS == "darwin" {
			systray.SetTemplateIcon(iconData, iconData)
		}
	} else {
		a.logger.Error("Icon data is empty - icon not embedded correctly")
	}

	a.statusItem = systray.AddMenuItem(controller.LabelServerNotRunning, "Server status")
	a.statusItem.Disable()
	a.feedbackItem = systray.AddMenuItem("-", "Last update result")
	a.feedbackItem.Disable()

	systray.AddSeparator()

	a.openItem = systray.AddMenuItem("Open Browser", "Open the control panel in your browser")
	a.actionItem = systray.AddMenuItem(controller.LabelCheckForUpdates, "Check for or install updates")

	systray.AddSeparator()

	version := systray.AddMenuItem("Version "+a.version, "")
	version.Disable()
	a.quitItem = systray.AddMenuItem("Quit", "Quit Streamline Control")
	a.confirmItem = systray.AddMenuItem("Confirm Quit", "Stop the server and quit")
	a.cancelItem = systray.AddMenuItem("Cancel", "Keep running")
	a.confirmItem.Hide()
	a.cancelItem.Hide()

	go a.handleClicks()
	go a.watchState()
}

func (a *App) onExit() {
	a.logger.Info("System tray exiting")
	a.cancel()
}

func (a *App) handleClicks() {
	for {
		var evt events.Event
		select {
		case <-a.openItem.ClickedCh:
			evt = events.OpenBrowserRequested{}
		case <-a.actionItem.ClickedCh:
			evt = events.ActionRequested{}
		case <-a.quitItem.ClickedCh:
			evt = events.CloseWindowRequested{Surface: events.SurfacePrimary}
		case <-a.confirmItem.ClickedCh:
			evt = events.QuitRequested{}
		case <-a.cancelItem.ClickedCh:
			evt = events.QuitCancelled{}
		case <-a.ctx.Done():
			return
		}
		if err := a.bus.Send(evt); err != nil {
			a.logger.Debugw("Dropped tray event", "event", evt.Name(), "error", err)
		}
	}
}

func (a *App) watchState() {
	a.last = a.source.Snapshot()
	a.render(a.last)

	for state := range a.source.Subscribe() {
		if n, ok := notificationFor(a.last, state); ok && a.notifier != nil {
			_ = a.notifier.Notify(n.Title, n.Message)
		}
		a.last = state
		a.render(state)
	}

	a.logger.Info("Controller stopped, quitting systray")
	systray.Quit()
}

func (a *App) render(state controller.ControlSurfaceState) {
	m := menuFor(state)

	systray.SetTooltip(m.Tooltip)
	a.statusItem.SetTitle(m.Status)
	a.feedbackItem.SetTitle(m.Feedback)
	a.actionItem.SetTitle(m.Action)
	setEnabled(a.actionItem, m.ActionEnabled)
	setEnabled(a.openItem, m.OpenEnabled)

	if m.Confirming {
		a.quitItem.Hide()
		a.confirmItem.Show()
		a.cancelItem.Show()
	} else {
		a.confirmItem.Hide()
		a.cancelItem.Hide()
		a.quitItem.Show()
	}
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}
