package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tick/internal/logtail"
)

const diagnosticsLines = 200

type logLinesMsg struct {
	lines []string
	err   error
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, diagnosticsLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m Model) handleDiagnosticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Diagnostics):
		m.currentView = ViewList
	case key.Matches(msg, m.keys.Refresh):
		return m, readLogCmd(m.logPath)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return m, nil
}

func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Diagnostics"))
	if m.logPath != "" {
		b.WriteString(" ")
		b.WriteString(styles.FaintText.Render(m.logPath))
	}
	b.WriteString("\n\n")

	if m.logErr != nil {
		b.WriteString(styles.DangerText.Render(m.logErr.Error()))
		return b.String()
	}
	if len(m.logLines) == 0 {
		b.WriteString(styles.FaintText.Render("Log is empty."))
		return b.String()
	}

	// Show the newest lines that fit.
	lines := m.logLines
	if limit := m.height - 4; limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	for _, line := range lines {
		switch logtail.Classify(line) {
		case logtail.SeverityError:
			b.WriteString(styles.DangerText.Render(line))
		case logtail.SeverityWarn:
			b.WriteString(styles.WarningText.Render(line))
		default:
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
