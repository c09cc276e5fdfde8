package tray

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Notifier shows desktop notifications
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows notifications with the OS notification center
type DesktopNotifier struct {
	logger *zap.SugaredLogger
}

// NewDesktopNotifier creates a notifier backed by beeep
func NewDesktopNotifier(logger *zap.SugaredLogger) *DesktopNotifier {
	return &DesktopNotifier{logger: logger}
}

// Notify shows a notification. Failures are logged and returned.
func (n *DesktopNotifier) Notify(title, message string) error {
	n.logger.Infow("Tray notification", "title", title, "message", message)
	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Debugw("Desktop notification failed", "error", err)
		return err
	}
	return nil
}
