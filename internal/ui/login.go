package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Retry) && m.connect != nil && !m.connecting {
		m.connecting = true
		return m, connectCmd(m.ctx, m.connect)
	}
	return m, nil
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Sign in required"))
	b.WriteString("\n\n")
	if m.loginErr != nil {
		b.WriteString(styles.WarningText.Render(m.loginErr.Error()))
		b.WriteString("\n\n")
	}
	hint := m.loginHint
	if hint == "" {
		hint = "Provide an ID token with TICK_ID_TOKEN."
	}
	b.WriteString(styles.Text.Render(hint))
	b.WriteString("\n\n")
	if m.connecting {
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Checking session..."))
	} else {
		b.WriteString(styles.FaintText.Render("Press r to retry, ctrl+c to quit."))
	}
	return styles.PanelFocus.Width(max(m.width-4, 20)).Render(b.String())
}
