package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/theorangealliance/streamline-control/internal/config"
	"github.com/theorangealliance/streamline-control/internal/controller"
	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/logs"
	"github.com/theorangealliance/streamline-control/internal/observability"
	"github.com/theorangealliance/streamline-control/internal/server"
	"github.com/theorangealliance/streamline-control/internal/tray"
	"github.com/theorangealliance/streamline-control/internal/tui"
	"github.com/theorangealliance/streamline-control/internal/update"
)

// resolveSurface picks the control surface for the requested mode
func resolveSurface(requested string, trayAvailable, interactive bool) (string, error) {
	switch requested {
	case config.SurfaceTray:
		if !trayAvailable {
			return "", tray.ErrUnavailable
		}
		return config.SurfaceTray, nil
	case config.SurfaceTUI:
		if !interactive {
			return "", fmt.Errorf("terminal surface needs an interactive terminal")
		}
		return config.SurfaceTUI, nil
	case config.SurfaceNone:
		return config.SurfaceNone, nil
	case config.SurfaceAuto, "":
		if trayAvailable {
			return config.SurfaceTray, nil
		}
		if interactive {
			return config.SurfaceTUI, nil
		}
		return config.SurfaceNone, nil
	default:
		return "", fmt.Errorf("unknown surface %q", requested)
	}
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// trackedServer remembers why the server lifecycle ended
type trackedServer struct {
	manager *server.Manager

	mu  sync.Mutex
	err error
}

func (t *trackedServer) Run(ctx context.Context) error {
	err := t.manager.Run(ctx)
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	return err
}

func (t *trackedServer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func setupLogger(cfg *config.Config, mode string) (*zap.Logger, error) {
	switch mode {
	case config.SurfaceTUI:
		return logs.SurfaceLogger(cfg.Logging)
	default:
		return logs.SetupLogger(cfg.Logging)
	}
}

// runApp runs the controller with the chosen surface. forceSurface overrides
// the configured surface when non-empty.
func runApp(cmd *cobra.Command, forceSurface string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	requested := cfg.Surface
	if forceSurface != "" {
		requested = forceSurface
	}
	mode, err := resolveSurface(requested, tray.Available, isInteractive())
	if err != nil {
		return &exitError{code: ExitCodeConfigError, err: err}
	}

	logger, err := setupLogger(cfg, mode)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()

	logger.Info("Starting streamline-control",
		zap.String("version", version),
		zap.String("surface", mode),
		zap.String("host", cfg.Host),
		zap.Ints("ports", cfg.Ports),
		zap.Bool("log_to_file", cfg.Logging.EnableFile))

	metrics := observability.NewMetricsManager(sugar)
	bus := events.NewBus()
	bus.OnSend(func(env events.Envelope) {
		sugar.Debugw("Event sent", "event", env.Event.Name(), "event_id", env.ID.String())
	})
	shutdown := server.NewShutdownSignal()

	srv := &trackedServer{
		manager: server.NewManager(cfg, version, bus, shutdown, sugar, server.WithMetrics(metrics)),
	}

	opts := []controller.Option{
		controller.WithServer(srv),
		controller.WithMetrics(metrics),
		controller.WithServerWait(cfg.DrainTimeout + serverWaitSlack),
	}
	if !cfg.Update.Disabled {
		pipeline := newPipeline(cfg, bus, sugar, update.WithMetrics(metrics))
		opts = append(opts,
			controller.WithUpdater(pipeline),
			controller.WithCheckOnStartup(cfg.Update.CheckOnStartup))
	}
	ctrl := controller.New(bus, shutdown, sugar, opts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A signal is an explicit quit request and skips confirmation.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			if err := bus.Send(events.QuitRequested{}); err != nil {
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	ctrlDone := make(chan error, 1)
	go func() {
		ctrlDone <- ctrl.Run(ctx)
	}()

	var runErr error
	switch mode {
	case config.SurfaceTray:
		// systray must own the main thread on macOS
		app := tray.New(ctrl, bus, sugar, version, tray.NewDesktopNotifier(sugar))
		if err := app.Run(ctx); err != nil {
			logger.Error("Tray exited with error", zap.Error(err))
		}
		runErr = stopController(bus, ctrlDone)
	case config.SurfaceTUI:
		if err := tui.Run(ctx, ctrl, bus, version); err != nil {
			logger.Error("Terminal UI exited with error", zap.Error(err))
		}
		runErr = stopController(bus, ctrlDone)
	default:
		go quitOnServerFailure(ctrl, bus, sugar)
		runErr = <-ctrlDone
	}
	if runErr != nil {
		return runErr
	}

	if code := exitCodeFor(srv.Err()); code != ExitCodeSuccess {
		logger.Warn("Exiting after server failure",
			zap.Int("exit_code", code),
			zap.String("reason", exitCodeDescription(code)))
		return &exitError{code: code, err: srv.Err()}
	}
	return nil
}

// stopController ends the controller after its surface has exited. A surface
// that stops on its own still goes through the normal quit path; if the
// controller already quit the send fails and is ignored.
func stopController(bus events.Sender, done <-chan error) error {
	_ = bus.Send(events.QuitRequested{})
	return <-done
}

// quitOnServerFailure stops a surface-less controller once the server has
// failed.
func quitOnServerFailure(source tray.StateSource, bus events.Sender, logger *zap.SugaredLogger) {
	for state := range source.Subscribe() {
		if state.Service.Phase == controller.ServiceFailed {
			logger.Errorw("Server failed, quitting", "message", state.Service.Message)
			_ = bus.Send(events.QuitRequested{})
			return
		}
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the server without a control surface",
		Long:  "Run the local server headless. SIGINT or SIGTERM shuts it down gracefully.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, config.SurfaceNone)
		},
	}
}
