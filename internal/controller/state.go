package controller

import "fmt"

// Labels shown on the control surfaces
const (
	LabelServerNotRunning = "Server Not Running"
	LabelServerStarting   = "Server Starting..."
	LabelCheckForUpdates  = "Check for Updates"
	LabelChecking         = "Checking For Updates..."
	LabelNoUpdate         = "No Update Found"
	LabelUpdating         = "Updating App..."
	LabelUpdateFinished   = "Update Finished. Please restart the app."
	LabelNoURL            = "No URL yet set"
	LabelBrowserFailed    = "Unable to Open Browser"
	LabelUpdatesDisabled  = "Updates are disabled"
)

// ControlSurfaceState is the read-only projection the surfaces render.
// It is derived from the two status axes and never edited by surfaces.
type ControlSurfaceState struct {
	Service ServiceStatus `json:"service"`
	Update  UpdateStatus  `json:"update"`

	StatusLabel       string `json:"status_label"`
	FeedbackMessage   string `json:"feedback_message"`
	ActionButtonLabel string `json:"action_button_label"`
	ActionEnabled     bool   `json:"action_enabled"`

	// ServerURL is empty until the server is running.
	ServerURL      string `json:"server_url,omitempty"`
	ConfirmingQuit bool   `json:"confirming_quit"`
}

// HasServerURL reports whether there is a URL to open
func (s ControlSurfaceState) HasServerURL() bool {
	return s.ServerURL != ""
}

// Project derives the surface state. notice is a one-off message (e.g. a
// browser failure) that replaces the update feedback until the update
// status next changes.
func Project(svc ServiceStatus, upd UpdateStatus, notice string, confirmingQuit bool) ControlSurfaceState {
	state := ControlSurfaceState{
		Service:           svc,
		Update:            upd,
		ActionButtonLabel: LabelCheckForUpdates,
		ConfirmingQuit:    confirmingQuit,
	}

	switch svc.Phase {
	case ServiceRunning:
		state.ServerURL = ServerURL(svc.Address)
		state.StatusLabel = "Server Running at " + state.ServerURL
	case ServiceFailed:
		state.StatusLabel = "Server Failed: " + svc.Message
	case ServiceStarting:
		state.StatusLabel = LabelServerStarting
	default:
		state.StatusLabel = LabelServerNotRunning
	}

	switch upd.Phase {
	case UpdateIdle:
		state.ActionEnabled = true
	case UpdateChecking:
		state.FeedbackMessage = LabelChecking
	case UpdateUpToDate:
		state.FeedbackMessage = LabelNoUpdate
		state.ActionEnabled = true
	case UpdateAvailable:
		state.FeedbackMessage = "New Version Found: " + upd.Version
		state.ActionButtonLabel = "Update to " + upd.Version
		state.ActionEnabled = true
	case UpdateUpdating:
		state.FeedbackMessage = LabelUpdating
	case UpdateUpdated:
		state.FeedbackMessage = LabelUpdateFinished
	case UpdateFailed:
		if upd.Version != "" {
			state.FeedbackMessage = fmt.Sprintf("Error when updating to %s: %s", upd.Version, upd.Message)
		} else {
			state.FeedbackMessage = "Error when checking updates: " + upd.Message
		}
		state.ActionEnabled = true
	}

	if notice != "" {
		state.FeedbackMessage = notice
	}
	return state
}

// ServerURL turns a bound host:port into the URL opened in the browser
func ServerURL(address string) string {
	if address == "" {
		return ""
	}
	return "http://" + address + "/"
}
