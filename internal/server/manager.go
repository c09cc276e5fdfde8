// Package server owns the local HTTP endpoint: it opens and migrates the
// database, picks a port, serves the control panel and stops on request.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/assets"
	"github.com/theorangealliance/streamline-control/internal/config"
	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/observability"
	"github.com/theorangealliance/streamline-control/internal/storage"
)

const readHeaderTimeout = 10 * time.Second

// Manager brings up exactly one HTTP endpoint per Run and reports the outcome
// on the event bus. It shares nothing with the controller except the bus and
// the shutdown signal.
type Manager struct {
	cfg      *config.Config
	version  string
	bus      events.Sender
	shutdown *ShutdownSignal
	logger   *zap.SugaredLogger

	assets     assets.Provider
	metrics    *observability.MetricsManager
	check      PortChecker
	dataDir    func() (string, error)
	migrations []storage.Migration
	listen     func(network, address string) (net.Listener, error)
}

// Option configures a Manager
type Option func(*Manager)

// WithAssets overrides the embedded asset trees
func WithAssets(p assets.Provider) Option {
	return func(m *Manager) { m.assets = p }
}

// WithMetrics enables /metrics and request metrics
func WithMetrics(mm *observability.MetricsManager) Option {
	return func(m *Manager) { m.metrics = mm }
}

// WithPortChecker replaces the port check
func WithPortChecker(p PortChecker) Option {
	return func(m *Manager) { m.check = p }
}

// WithDataDir replaces data directory resolution
func WithDataDir(fn func() (string, error)) Option {
	return func(m *Manager) { m.dataDir = fn }
}

// WithMigrations replaces the schema history
func WithMigrations(migrations []storage.Migration) Option {
	return func(m *Manager) { m.migrations = migrations }
}

// WithListen replaces net.Listen for the real bind
func WithListen(fn func(network, address string) (net.Listener, error)) Option {
	return func(m *Manager) { m.listen = fn }
}

// NewManager creates a server manager
func NewManager(cfg *config.Config, version string, bus events.Sender, shutdown *ShutdownSignal, logger *zap.SugaredLogger, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		version:    version,
		bus:        bus,
		shutdown:   shutdown,
		logger:     logger.Named("server"),
		check:      CheckPort,
		dataDir:    cfg.ResolveDataDir,
		migrations: storage.Migrations,
		listen:     net.Listen,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.assets == nil {
		m.assets = assets.Default()
	}
	return m
}

// Run performs startup, emits ServerStarted or ServerFailed, then serves until
// the shutdown signal fires or ctx is cancelled. A failure after the listener
// is up is reported as a second, final ServerFailed. There is no restart.
func (m *Manager) Run(ctx context.Context) error {
	err := m.run(ctx)
	if err != nil {
		m.logger.Errorw("Server failed", "error", err)
		m.send(events.ServerFailed{Message: FailureMessage(err)})
	}
	return err
}

func (m *Manager) run(ctx context.Context) error {
	dir, err := m.dataDir()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigDir, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigDir, err)
	}

	db, err := storage.Open(dir, config.DatabaseFileName, storage.DefaultOpenTimeout, m.logger)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseOpen, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			m.logger.Warnw("Failed to close database", "error", err)
		}
	}()

	applied, err := db.ApplyPending(m.migrations)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigration, err)
	}
	if m.metrics != nil {
		m.metrics.AddMigrations(applied)
	}

	previous, err := db.RecordVersion(m.version)
	if err != nil {
		m.logger.Warnw("Failed to record version", "error", err)
	}
	upgradedFrom := ""
	if previous != "" && previous != m.version {
		upgradedFrom = previous
		m.logger.Infow("Upgraded since last run", "from", previous, "to", m.version)
	}

	health := observability.NewHealthManager(m.logger)
	health.AddHealthChecker(observability.NewDatabaseHealthChecker("database", db, storage.LatestSchemaVersion()))
	router := &Router{
		Logger:  m.logger,
		Assets:  m.assets,
		Store:   db,
		Version: m.version,
		Metrics: m.metrics,
		Health:  health,

		UpgradedFrom: upgradedFrom,
	}

	port, err := SelectPort(m.cfg.Host, m.cfg.Ports, m.recordingCheck)
	if err != nil {
		return err
	}

	ln, err := m.listen("tcp", net.JoinHostPort(m.cfg.Host, strconv.Itoa(port)))
	if err != nil {
		// Lost a race for the port after probing it.
		return fmt.Errorf("%w: %v", ErrBind, err)
	}
	address := ln.Addr().String()

	startedAt := time.Now()
	if _, err := db.RecordRun(address, m.version, startedAt); err != nil {
		m.logger.Warnw("Failed to record run", "error", err)
	}

	srv := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	if m.metrics != nil {
		m.metrics.SetServerUp(true)
		defer m.metrics.SetServerUp(false)
	}

	m.logger.Infow("Server started",
		"address", address,
		"schema_version", storage.LatestSchemaVersion(),
		"embedded_assets", assets.IsEmbedded())
	m.send(events.ServerStarted{Address: address})

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-m.shutdown.Done():
		m.logger.Info("Shutdown requested")
	case <-ctx.Done():
		m.logger.Info("Context cancelled, shutting down")
	}

	m.drain(srv)
	<-serveErr

	if m.metrics != nil {
		m.metrics.SetUptime(startedAt)
	}
	m.logger.Infow("Server stopped", "uptime", time.Since(startedAt).Truncate(time.Millisecond))
	return nil
}

// drain stops accepting and waits for in-flight requests. A zero drain
// timeout waits without bound.
func (m *Manager) drain(srv *http.Server) {
	ctx := context.Background()
	if m.cfg.DrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.DrainTimeout)
		defer cancel()
	}

	if err := srv.Shutdown(ctx); err != nil {
		m.logger.Warnw("Drain timed out, closing remaining connections", "error", err)
		_ = srv.Close()
	}
}

func (m *Manager) recordingCheck(host string, port int) error {
	err := m.check(host, port)
	if m.metrics != nil {
		m.metrics.RecordPortCheck(err == nil)
	}
	if err != nil {
		var unavailable *PortUnavailableError
		inUse := errors.As(err, &unavailable) && unavailable.InUse()
		m.logger.Debugw("Candidate port unavailable", "port", port, "in_use", inUse, "error", err)
	} else {
		m.logger.Debugw("Candidate port free", "port", port)
	}
	return err
}

func (m *Manager) send(evt events.Event) {
	if err := m.bus.Send(evt); err != nil {
		m.logger.Debugw("Dropped event", "event", evt.Name(), "error", err)
	}
}
