//go:build !(darwin || windows) || nogui || headless

package tray

import (
	"context"

	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/events"
)

// Available reports whether this build has a system tray
const Available = false

// App represents the system tray application (stub version)
type App struct {
	logger *zap.SugaredLogger
}

// New creates a new tray application (stub version)
func New(_ StateSource, _ events.Sender, logger *zap.SugaredLogger, _ string, _ Notifier) *App {
	return &App{logger: logger}
}

// Run reports that no tray is available (stub version)
func (a *App) Run(_ context.Context) error {
	a.logger.Info("Tray functionality disabled (nogui/headless build)")
	return ErrUnavailable
}
