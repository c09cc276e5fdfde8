package main

import (
	"errors"

	"github.com/theorangealliance/streamline-control/internal/server"
	"github.com/theorangealliance/streamline-control/internal/storage"
)

// Exit codes let scripts and service managers tell failures apart

const (
	// ExitCodeSuccess indicates normal program termination
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates a generic error (default)
	ExitCodeGeneralError = 1

	// ExitCodePortConflict indicates no candidate port could be bound
	ExitCodePortConflict = 2

	// ExitCodeDBLocked indicates the database is locked by another process
	ExitCodeDBLocked = 3

	// ExitCodeConfigError indicates configuration validation failed
	ExitCodeConfigError = 4

	// ExitCodePermissionError indicates the data directory is unusable
	ExitCodePermissionError = 5
)

// exitError carries a process exit code through cobra
type exitError struct {
	code   int
	err    error
	silent bool // already reported to the user
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// exitCodeFor maps a server lifecycle error to an exit code
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, storage.ErrLocked):
		return ExitCodeDBLocked
	case errors.Is(err, server.ErrPortExhaustion), errors.Is(err, server.ErrBind):
		return ExitCodePortConflict
	case errors.Is(err, server.ErrConfigDir):
		return ExitCodePermissionError
	default:
		return ExitCodeGeneralError
	}
}

// exitCodeDescription returns a human-readable description of the exit code
func exitCodeDescription(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "Success"
	case ExitCodeGeneralError:
		return "General error"
	case ExitCodePortConflict:
		return "Port conflict - no candidate port is free"
	case ExitCodeDBLocked:
		return "Database locked by another process"
	case ExitCodeConfigError:
		return "Configuration error"
	case ExitCodePermissionError:
		return "Permission denied"
	default:
		return "Unknown error"
	}
}
