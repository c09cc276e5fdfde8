package tray

import (
	"strings"

	"github.com/theorangealliance/streamline-control/internal/controller"
)

const appTitle = "Streamline Control"

// menuState is what the tray menu shows for one controller snapshot
type menuState struct {
	Status        string
	Feedback      string
	Action        string
	ActionEnabled bool
	OpenEnabled   bool
	Confirming    bool
	Tooltip       string
}

func menuFor(state controller.ControlSurfaceState) menuState {
	m := menuState{
		Status:        state.StatusLabel,
		Feedback:      state.FeedbackMessage,
		Action:        state.ActionButtonLabel,
		ActionEnabled: state.ActionEnabled,
		OpenEnabled:   state.HasServerURL(),
		Confirming:    state.ConfirmingQuit,
	}
	if m.Feedback == "" {
		m.Feedback = "-"
	}

	var tooltip strings.Builder
	tooltip.WriteString(appTitle)
	tooltip.WriteString("\n")
	tooltip.WriteString(state.StatusLabel)
	if state.FeedbackMessage != "" {
		tooltip.WriteString("\n")
		tooltip.WriteString(state.FeedbackMessage)
	}
	m.Tooltip = tooltip.String()
	return m
}

// notification is a desktop notification for an update status change
type notification struct {
	Title   string
	Message string
}

// notificationFor returns the notification to show when the update status
// moves from prev to next, if any. Only outcomes the user waits for are
// announced.
func notificationFor(prev, next controller.ControlSurfaceState) (notification, bool) {
	if prev.Update.Phase == next.Update.Phase {
		if next.Service.Phase == controller.ServiceFailed && prev.Service.Phase != controller.ServiceFailed {
			return notification{Title: appTitle, Message: next.StatusLabel}, true
		}
		return notification{}, false
	}

	switch next.Update.Phase {
	case controller.UpdateAvailable, controller.UpdateUpdated, controller.UpdateFailed:
		return notification{Title: appTitle, Message: next.FeedbackMessage}, true
	default:
		return notification{}, false
	}
}
