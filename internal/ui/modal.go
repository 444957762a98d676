package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal and whether it should close.
type Modal interface {
	Update(msg tea.KeyMsg, keys keyMap) (Modal, bool)
	View(theme Theme, width, height int) string
}

// alertModal blocks input until dismissed with enter or esc.
type alertModal struct {
	title   string
	message string
}

func newAlert(title, message string) Modal {
	return alertModal{title: title, message: message}
}

func (a alertModal) Update(msg tea.KeyMsg, keys keyMap) (Modal, bool) {
	if key.Matches(msg, keys.Submit, keys.Escape) {
		return a, true
	}
	return a, false
}

func (a alertModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render(a.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(a.message))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter to dismiss"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Warning)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(b.String()))
}
