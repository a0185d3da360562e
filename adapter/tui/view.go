package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

func (m Model) View() string {
	header := fmt.Sprintf("framescope - %s", m.state.Device)
	if m.state.Running {
		header += " [capturing]"
	}
	title := titleStyle.Render(header)

	status := fmt.Sprintf("Frames: %d  Reports: %d  Malformed: %d  Timeouts: %d  Errors: %d  Bytes: %s",
		m.state.Frames, m.state.Reports, m.state.Malformed, m.state.Timeouts, m.state.Errors, formatBytes(m.state.Bytes))
	if m.state.FinishError != "" {
		status += "\n" + errorStyle.Render(m.state.FinishError)
	}

	follow := "off"
	if m.follow {
		follow = "on"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		infoStyle.Render(status),
		infoStyle.Render(m.table.View()),
		infoStyle.Render(m.detail.View()),
	)

	return body + fmt.Sprintf("\n↑/↓ select, pgup/pgdown scroll detail, f follow (%s), q quit.", follow)
}

func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
