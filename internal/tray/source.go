package tray

import (
	"errors"

	"github.com/theorangealliance/streamline-control/internal/controller"
)

// ErrUnavailable is returned when a tray is requested from a build without one
var ErrUnavailable = errors.New("system tray not available in this build")

// StateSource supplies controller snapshots to the tray
type StateSource interface {
	Subscribe() <-chan controller.ControlSurfaceState
	Snapshot() controller.ControlSurfaceState
}
