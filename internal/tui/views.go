package tui

import (
	"fmt"
	"strings"

	"github.com/theorangealliance/streamline-control/internal/controller"
)

func renderView(m model) string {
	var b strings.Builder

	b.WriteString(RenderTitle(" Streamline Control "))
	b.WriteString(" ")
	b.WriteString(MutedStyle.Render(m.version))
	b.WriteString("\n\n")

	s := m.state
	b.WriteString(fmt.Sprintf("%s %s\n", serviceIndicator(s.Service.Phase), s.StatusLabel))
	if s.FeedbackMessage != "" {
		b.WriteString(feedbackStyle(s.Update.Phase).Render(s.FeedbackMessage))
	}
	b.WriteString("\n\n")

	if s.ConfirmingQuit {
		b.WriteString(ConfirmStyle.Render("Quit Streamline Control?\nThe server will stop.\n\n[y] Quit   [n] Cancel"))
		b.WriteString("\n")
	} else {
		b.WriteString(renderButtons(s))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar(m))
	return b.String()
}

func renderButtons(s controller.ControlSurfaceState) string {
	buttons := []string{
		button("o", "Open Browser", s.HasServerURL()),
		button("u", s.ActionButtonLabel, s.ActionEnabled),
		button("q", "Quit", true),
	}
	return strings.Join(buttons, "   ")
}

func button(key, label string, enabled bool) string {
	text := fmt.Sprintf("[%s] %s", key, label)
	if !enabled {
		return DisabledButtonStyle.Render(text)
	}
	return ButtonStyle.Render(text)
}

func renderStatusBar(m model) string {
	url := m.state.ServerURL
	if url == "" {
		url = controller.LabelNoURL
	}
	text := fmt.Sprintf("%s | server: %s | update: %s", url, m.state.Service.Phase, m.state.Update.Phase)
	if m.width > 0 {
		return StatusBarStyle.Width(m.width).Render(text)
	}
	return StatusBarStyle.Render(text)
}
