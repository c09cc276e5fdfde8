package server

import (
	"errors"
	"fmt"
)

// Startup failure causes. Each is reported to the controller as a
// ServerFailed event; callers match them with errors.Is.
var (
	ErrConfigDir      = errors.New("unable to use the user config directory")
	ErrDatabaseOpen   = errors.New("unable to open the local database")
	ErrMigration      = errors.New("database migration failed")
	ErrPortExhaustion = errors.New("no open ports to bind to")
	ErrBind           = errors.New("unable to bind listener")
)

// PortUnavailableError is returned by a port check for a candidate that can't be bound.
type PortUnavailableError struct {
	Host string
	Port int
	Err  error
}

func (e *PortUnavailableError) Error() string {
	if isAddrInUseError(e.Err) {
		return fmt.Sprintf("port %d on %s is already in use", e.Port, e.Host)
	}
	return fmt.Sprintf("port %d on %s is unavailable: %v", e.Port, e.Host, e.Err)
}

func (e *PortUnavailableError) Unwrap() error {
	return e.Err
}

// InUse reports whether another listener holds the port, as opposed to
// e.g. a permission error on a privileged port.
func (e *PortUnavailableError) InUse() bool {
	return isAddrInUseError(e.Err)
}

// FailureMessage renders a startup error for the control surface.
func FailureMessage(err error) string {
	if errors.Is(err, ErrPortExhaustion) {
		return "No open ports to bind to"
	}
	return err.Error()
}
