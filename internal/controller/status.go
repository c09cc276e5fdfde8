package controller

import "fmt"

// ServicePhase is the server axis of the controller state
type ServicePhase string

const (
	// ServiceNotStarted is the state before the server goroutine is spawned
	ServiceNotStarted ServicePhase = "not_started"

	// ServiceStarting means the server goroutine is running its startup sequence
	ServiceStarting ServicePhase = "starting"

	// ServiceRunning means the server is bound and serving
	ServiceRunning ServicePhase = "running"

	// ServiceFailed is terminal: the server is never restarted
	ServiceFailed ServicePhase = "failed"
)

// ServiceStatus is the server axis with its payload. Address is set when
// Running, Message when Failed.
type ServiceStatus struct {
	Phase   ServicePhase `json:"phase"`
	Address string       `json:"address,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (s ServiceStatus) String() string {
	switch s.Phase {
	case ServiceRunning:
		return fmt.Sprintf("%s{%s}", s.Phase, s.Address)
	case ServiceFailed:
		return fmt.Sprintf("%s{%s}", s.Phase, s.Message)
	default:
		return string(s.Phase)
	}
}

// UpdatePhase is the update axis of the controller state
type UpdatePhase string

const (
	// UpdateIdle means no check has run yet
	UpdateIdle UpdatePhase = "idle"

	// UpdateChecking means a release lookup is in flight
	UpdateChecking UpdatePhase = "checking"

	// UpdateUpToDate means the last check found nothing newer
	UpdateUpToDate UpdatePhase = "up_to_date"

	// UpdateAvailable means a newer release was found and can be installed
	UpdateAvailable UpdatePhase = "available"

	// UpdateUpdating means the release is downloading and being installed
	UpdateUpdating UpdatePhase = "updating"

	// UpdateUpdated is terminal: the new binary is in place and takes
	// effect on restart
	UpdateUpdated UpdatePhase = "updated"

	// UpdateFailed means a check or install failed; a new check may follow
	UpdateFailed UpdatePhase = "failed"
)

// UpdateStatus is the update axis with its payload. Version is set when
// Available, Updating, Updated, or Failed during an install; Message when Failed.
type UpdateStatus struct {
	Phase   UpdatePhase `json:"phase"`
	Version string      `json:"version,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (s UpdateStatus) String() string {
	switch s.Phase {
	case UpdateAvailable:
		return fmt.Sprintf("%s{%s}", s.Phase, s.Version)
	case UpdateFailed:
		return fmt.Sprintf("%s{%s}", s.Phase, s.Message)
	default:
		return string(s.Phase)
	}
}

// CanTransitionService checks if the server axis may move from one phase to another
func CanTransitionService(from, to ServicePhase) bool {
	validTransitions := map[ServicePhase][]ServicePhase{
		ServiceNotStarted: {ServiceStarting},
		ServiceStarting:   {ServiceRunning, ServiceFailed},
		ServiceRunning:    {ServiceFailed}, // post-bind failure
		ServiceFailed:     {},
	}
	return contains(validTransitions[from], to)
}

// CanTransitionUpdate checks if the update axis may move from one phase to another
func CanTransitionUpdate(from, to UpdatePhase) bool {
	validTransitions := map[UpdatePhase][]UpdatePhase{
		UpdateIdle:      {UpdateChecking},
		UpdateChecking:  {UpdateUpToDate, UpdateAvailable, UpdateFailed},
		UpdateUpToDate:  {UpdateChecking},
		UpdateAvailable: {UpdateChecking, UpdateUpdating},
		UpdateUpdating:  {UpdateUpdated, UpdateFailed},
		UpdateUpdated:   {},
		UpdateFailed:    {UpdateChecking}, // a fresh run
	}
	return contains(validTransitions[from], to)
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
