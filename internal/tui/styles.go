package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theorangealliance/streamline-control/internal/controller"
)

// Semantic color palette using AdaptiveColor for light/dark terminal support
var (
	colorHealthy   = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}   // green
	colorDegraded  = lipgloss.AdaptiveColor{Light: "136", Dark: "214"} // yellow
	colorUnhealthy = lipgloss.AdaptiveColor{Light: "160", Dark: "196"} // red
	colorDisabled  = lipgloss.AdaptiveColor{Light: "245", Dark: "243"} // gray
	colorAccent    = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}   // blue
	colorMuted     = lipgloss.AdaptiveColor{Light: "245", Dark: "244"} // light gray
	colorBgDark    = lipgloss.AdaptiveColor{Light: "254", Dark: "236"} // dark bg
)

var (
	// TitleStyle renders top-level titles with bold accent background
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
			Background(colorAccent).
			Padding(0, 1)

	// ButtonStyle renders the action keys
	ButtonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	// DisabledButtonStyle renders actions that cannot be taken right now
	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(colorDisabled)

	// MutedStyle renders secondary/less important text
	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// ErrorStyle renders error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorUnhealthy).
			Bold(true)

	// StatusBarStyle renders the bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBgDark).
			Padding(0, 1)

	// ConfirmStyle frames the quit confirmation
	ConfirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDegraded).
			Padding(0, 2)

	healthyStyle   = lipgloss.NewStyle().Foreground(colorHealthy)
	degradedStyle  = lipgloss.NewStyle().Foreground(colorDegraded)
	unhealthyStyle = lipgloss.NewStyle().Foreground(colorUnhealthy)
	disabledStyle  = lipgloss.NewStyle().Foreground(colorDisabled)
)

// RenderTitle wraps text with TitleStyle
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

func serviceIndicator(phase controller.ServicePhase) string {
	switch phase {
	case controller.ServiceRunning:
		return healthyStyle.Render("●")
	case controller.ServiceStarting:
		return degradedStyle.Render("◐")
	case controller.ServiceFailed:
		return unhealthyStyle.Render("○")
	default:
		return disabledStyle.Render("○")
	}
}

func feedbackStyle(phase controller.UpdatePhase) lipgloss.Style {
	switch phase {
	case controller.UpdateFailed:
		return ErrorStyle
	case controller.UpdateAvailable, controller.UpdateUpdated:
		return healthyStyle
	default:
		return MutedStyle
	}
}
