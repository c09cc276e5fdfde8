// Package controller owns the state shown on the control surfaces. A single
// goroutine consumes the event bus, applies each event to the service and
// update axes, and spawns background work; nothing else mutates that state.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/observability"
	"github.com/theorangealliance/streamline-control/internal/server"
	"github.com/theorangealliance/streamline-control/internal/update"
)

const defaultServerWait = 15 * time.Second

// ServerRunner runs the server lifecycle until it fails or is shut down.
type ServerRunner interface {
	Run(ctx context.Context) error
}

// Updater runs the two update operations. Each call reports exactly one
// terminal event on the bus.
type Updater interface {
	CheckForUpdate(ctx context.Context)
	ApplyUpdate(ctx context.Context, target update.Target)
}

// Spawner starts fn on its own goroutine without waiting for it.
type Spawner func(fn func())

func goSpawner(fn func()) { go fn() }

// Controller is the single owner of ServiceStatus and UpdateStatus.
type Controller struct {
	bus      *events.Bus
	shutdown *server.ShutdownSignal
	logger   *zap.SugaredLogger

	server         ServerRunner
	updater        Updater
	browser        Browser
	spawn          Spawner
	metrics        *observability.MetricsManager
	checkOnStartup bool
	serverWait     time.Duration

	// Loop-owned state
	service        ServiceStatus
	update         UpdateStatus
	target         *update.Target
	notice         string
	confirmingQuit bool
	quitting       bool
	serverDone     chan struct{}

	mu          sync.RWMutex
	snapshot    ControlSurfaceState
	subscribers []chan ControlSurfaceState
	stopped     bool
}

// Option configures a Controller
type Option func(*Controller)

// WithServer sets the server lifecycle spawned at startup
func WithServer(s ServerRunner) Option {
	return func(c *Controller) { c.server = s }
}

// WithUpdater enables the update action. Without it the action only reports
// that updates are disabled.
func WithUpdater(u Updater) Option {
	return func(c *Controller) { c.updater = u }
}

// WithBrowser replaces OpenBrowser
func WithBrowser(b Browser) Option {
	return func(c *Controller) { c.browser = b }
}

// WithSpawner replaces the goroutine-per-operation spawner
func WithSpawner(s Spawner) Option {
	return func(c *Controller) { c.spawn = s }
}

// WithMetrics counts applied and rejected events
func WithMetrics(mm *observability.MetricsManager) Option {
	return func(c *Controller) { c.metrics = mm }
}

// WithCheckOnStartup queues one update check when the loop starts
func WithCheckOnStartup(enabled bool) Option {
	return func(c *Controller) { c.checkOnStartup = enabled }
}

// WithServerWait bounds how long Run waits for the server to drain on exit
func WithServerWait(d time.Duration) Option {
	return func(c *Controller) { c.serverWait = d }
}

// New creates a controller reading from bus. The controller is the only
// sender on shutdown.
func New(bus *events.Bus, shutdown *server.ShutdownSignal, logger *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		bus:        bus,
		shutdown:   shutdown,
		logger:     logger.Named("controller"),
		browser:    OpenBrowser,
		spawn:      goSpawner,
		serverWait: defaultServerWait,
		service:    ServiceStatus{Phase: ServiceNotStarted},
		update:     UpdateStatus{Phase: UpdateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snapshot = c.project()
	return c
}

// Snapshot returns the latest published state
func (c *Controller) Snapshot() ControlSurfaceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Subscribe returns a channel that always holds the most recent state. Older
// unread states are replaced. The channel is closed when Run returns.
func (c *Controller) Subscribe() <-chan ControlSurfaceState {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ControlSurfaceState, 1)
	ch <- c.snapshot
	if c.stopped {
		close(ch)
		return ch
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Run starts the server, then applies events until QuitRequested or ctx is
// done. On exit it signals the server to shut down, closes the bus and waits
// for the server to drain.
func (c *Controller) Run(ctx context.Context) error {
	defer c.closeSubscribers()

	c.startServer(ctx)
	if c.checkOnStartup {
		if err := c.bus.Send(events.ActionRequested{}); err != nil {
			c.logger.Warnw("Failed to queue startup update check", "error", err)
		}
	}

	var runErr error
	for !c.quitting {
		env, err := c.bus.Receive(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				runErr = err
			}
			c.logger.Infow("Controller loop stopped", "reason", err)
			break
		}
		c.Handle(env)
	}

	c.shutdown.Signal()
	c.bus.Close()
	c.waitForServer()
	return runErr
}

// Handle applies a single event. It is exported for surfaces that drive the
// controller synchronously and for tests; Run is the normal entry point.
func (c *Controller) Handle(env events.Envelope) {
	name := env.Event.Name()
	c.logger.Debugw("Handling event",
		"event", name,
		"event_id", env.ID.String(),
		"service", c.service.String(),
		"update", c.update.String())

	if c.apply(env.Event) {
		c.recordEvent(name)
	} else {
		c.recordRejected(name)
	}
	c.publish()
}

// apply returns false when the event was not valid in the current state.
func (c *Controller) apply(evt events.Event) bool {
	switch e := evt.(type) {
	case events.ServerStarted:
		return c.setService(ServiceStatus{Phase: ServiceRunning, Address: e.Address})

	case events.ServerFailed:
		return c.setService(ServiceStatus{Phase: ServiceFailed, Message: e.Message})

	case events.UpdateCheckResult:
		if c.update.Phase != UpdateChecking {
			c.logger.Warnw("Stale update check result", "update", c.update.String())
			return false
		}
		if e.Outcome == events.OutcomeAvailable {
			if !c.setUpdate(UpdateStatus{Phase: UpdateAvailable, Version: e.Version}) {
				return false
			}
			c.target = &update.Target{Version: e.Version, AssetURL: e.DownloadURL, ChecksumsURL: e.ChecksumsURL}
			return true
		}
		return c.setUpdate(UpdateStatus{Phase: UpdateUpToDate})

	case events.UpdateCheckFailed:
		if c.update.Phase != UpdateChecking {
			return false
		}
		return c.setUpdate(UpdateStatus{Phase: UpdateFailed, Message: e.Message})

	case events.UpdateApplyFinished:
		version := e.Version
		if version == "" && c.target != nil {
			version = c.target.Version
		}
		return c.setUpdate(UpdateStatus{Phase: UpdateUpdated, Version: version})

	case events.UpdateApplyFailed:
		if c.update.Phase != UpdateUpdating {
			return false
		}
		return c.setUpdate(UpdateStatus{Phase: UpdateFailed, Version: c.update.Version, Message: e.Message})

	case events.ActionRequested:
		return c.onAction()

	case events.OpenBrowserRequested:
		c.openBrowser()
		return true

	case events.CloseWindowRequested:
		if e.Surface == events.SurfaceQuitConfirm {
			c.confirmingQuit = false
		} else {
			// Closing the primary surface never quits directly.
			c.confirmingQuit = true
		}
		return true

	case events.QuitCancelled:
		c.confirmingQuit = false
		return true

	case events.QuitRequested:
		c.logger.Info("Quit requested, shutting down")
		c.quitting = true
		c.confirmingQuit = false
		c.shutdown.Signal()
		return true

	default:
		c.logger.Warnw("Unhandled event", "event", evt.Name())
		return false
	}
}

// onAction dispatches the double-duty action button on the update status.
func (c *Controller) onAction() bool {
	switch c.update.Phase {
	case UpdateIdle, UpdateUpToDate, UpdateFailed:
		if c.updater == nil {
			c.notice = LabelUpdatesDisabled
			return true
		}
		if !c.setUpdate(UpdateStatus{Phase: UpdateChecking}) {
			return false
		}
		c.target = nil
		updater := c.updater
		c.spawn(func() { updater.CheckForUpdate(context.Background()) })
		return true

	case UpdateAvailable:
		if c.updater == nil || c.target == nil {
			return false
		}
		if !c.setUpdate(UpdateStatus{Phase: UpdateUpdating, Version: c.update.Version}) {
			return false
		}
		updater, target := c.updater, *c.target
		c.spawn(func() { updater.ApplyUpdate(context.Background(), target) })
		return true

	default:
		c.logger.Debugw("Action ignored while busy", "update", c.update.String())
		return false
	}
}

func (c *Controller) openBrowser() {
	if c.service.Phase != ServiceRunning {
		c.notice = LabelNoURL
		return
	}
	url := ServerURL(c.service.Address)
	if err := c.browser(url); err != nil {
		c.logger.Warnw("Failed to open browser", "url", url, "error", err)
		c.notice = LabelBrowserFailed
		return
	}
	c.notice = ""
}

func (c *Controller) setService(next ServiceStatus) bool {
	if !CanTransitionService(c.service.Phase, next.Phase) {
		c.logger.Errorw("Invalid service transition", "from", c.service.String(), "to", next.String())
		return false
	}
	c.logger.Infow("Service state transition", "from", c.service.String(), "to", next.String())
	c.service = next
	return true
}

func (c *Controller) setUpdate(next UpdateStatus) bool {
	if !CanTransitionUpdate(c.update.Phase, next.Phase) {
		c.logger.Errorw("Invalid update transition", "from", c.update.String(), "to", next.String())
		return false
	}
	c.logger.Infow("Update state transition", "from", c.update.String(), "to", next.String())
	c.update = next
	c.notice = ""
	return true
}

func (c *Controller) startServer(ctx context.Context) {
	if c.server == nil {
		return
	}
	if !c.setService(ServiceStatus{Phase: ServiceStarting}) {
		return
	}
	c.publish()

	done := make(chan struct{})
	c.serverDone = done
	srv := c.server
	c.spawn(func() {
		defer close(done)
		if err := srv.Run(ctx); err != nil {
			c.logger.Debugw("Server exited", "error", err)
		}
	})
}

func (c *Controller) waitForServer() {
	if c.serverDone == nil {
		return
	}
	select {
	case <-c.serverDone:
	case <-time.After(c.serverWait):
		c.logger.Warnw("Server did not stop in time", "wait", c.serverWait)
	}
}

func (c *Controller) project() ControlSurfaceState {
	return Project(c.service, c.update, c.notice, c.confirmingQuit)
}

func (c *Controller) publish() {
	state := c.project()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = state
	for _, ch := range c.subscribers {
		// Latest state wins; drop the unread one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (c *Controller) closeSubscribers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.stopped = true
}

func (c *Controller) recordEvent(name string) {
	if c.metrics != nil {
		c.metrics.RecordEvent(name)
	}
}

func (c *Controller) recordRejected(name string) {
	c.logger.Debugw("Event rejected", "event", name)
	if c.metrics != nil {
		c.metrics.RecordRejectedEvent(name)
	}
}
