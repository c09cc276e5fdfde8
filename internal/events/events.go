package events

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is the closed set of messages carried on the Bus. Only types declared
// in this package satisfy it.
type Event interface {
	isEvent()
	// Name is a stable identifier used in logs and metrics labels.
	Name() string
}

// Surface identifies which control surface a user request originated from.
type Surface string

const (
	// SurfacePrimary is the main control panel.
	SurfacePrimary Surface = "primary"
	// SurfaceQuitConfirm is the quit-confirmation surface.
	SurfaceQuitConfirm Surface = "quit_confirm"
)

// CheckOutcome distinguishes the two successful results of an update check.
type CheckOutcome int

const (
	// OutcomeUpToDate means the running build is the latest release.
	OutcomeUpToDate CheckOutcome = iota
	// OutcomeAvailable means a strictly newer release was published.
	OutcomeAvailable
)

func (o CheckOutcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up_to_date"
	case OutcomeAvailable:
		return "available"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type sealed struct{}

func (sealed) isEvent() {}

// ServerStarted reports a successful bind.
type ServerStarted struct {
	sealed
	Address string
}

// ServerFailed reports any server startup or post-bind failure.
type ServerFailed struct {
	sealed
	Message string
}

// UpdateCheckResult is the successful terminal event of CheckForUpdate.
// The remaining fields are set only when Outcome is OutcomeAvailable;
// DownloadURL is empty when the release has no asset for this platform.
type UpdateCheckResult struct {
	sealed
	Outcome      CheckOutcome
	Version      string
	DownloadURL  string
	ChecksumsURL string
}

// UpdateCheckFailed is the failure terminal event of CheckForUpdate.
type UpdateCheckFailed struct {
	sealed
	Message string
}

// UpdateApplyFinished is the successful terminal event of ApplyUpdate.
type UpdateApplyFinished struct {
	sealed
	Version string
}

// UpdateApplyFailed is the failure terminal event of ApplyUpdate.
type UpdateApplyFailed struct {
	sealed
	Message string
}

// ActionRequested is the user pressing the update action button. Its meaning
// depends on the controller's current update status.
type ActionRequested struct {
	sealed
}

// OpenBrowserRequested asks the controller to open the server URL.
type OpenBrowserRequested struct {
	sealed
}

// CloseWindowRequested is a request to close the given surface.
type CloseWindowRequested struct {
	sealed
	Surface Surface
}

// QuitCancelled dismisses the quit-confirmation surface.
type QuitCancelled struct {
	sealed
}

// QuitRequested is the confirmed request to quit the process.
type QuitRequested struct {
	sealed
}

func (ServerStarted) Name() string        { return "server_started" }
func (ServerFailed) Name() string         { return "server_failed" }
func (UpdateCheckResult) Name() string    { return "update_check_result" }
func (UpdateCheckFailed) Name() string    { return "update_check_failed" }
func (UpdateApplyFinished) Name() string  { return "update_apply_finished" }
func (UpdateApplyFailed) Name() string    { return "update_apply_failed" }
func (ActionRequested) Name() string      { return "action_requested" }
func (OpenBrowserRequested) Name() string { return "open_browser_requested" }
func (CloseWindowRequested) Name() string { return "close_window_requested" }
func (QuitCancelled) Name() string        { return "quit_cancelled" }
func (QuitRequested) Name() string        { return "quit_requested" }

// Envelope wraps an event with delivery metadata.
type Envelope struct {
	ID    ulid.ULID
	At    time.Time
	Event Event
}

func newEnvelope(evt Event) Envelope {
	return Envelope{
		ID:    ulid.Make(),
		At:    time.Now().UTC(),
		Event: evt,
	}
}
