package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tick/internal/todo"
)

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	done := 0
	for _, item := range snap.Items {
		if item.Completed {
			done++
		}
	}
	parts := []string{
		styles.Logo.Render("tick"),
		styles.MutedText.Render(fmt.Sprintf("%d todos", len(snap.Items))),
		styles.SuccessText.Render(fmt.Sprintf("%d done", done)),
	}
	if pending := snap.Pending(); pending > 0 {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d syncing", pending)))
	}
	if m.hideCompleted {
		parts = append(parts, styles.FaintText.Render("done hidden"))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status != "" {
		return styles.Footer.Width(m.width).Render(m.status)
	}
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(strings.Join(hints, "  "))
}

func (m Model) renderMain() string {
	styles := m.theme.Styles()
	width := max(m.width-2, 20)

	var sections []string
	if m.snapshot.Error {
		msg := "Could not load todos"
		if m.snapshot.LastError != nil {
			msg += ": " + m.snapshot.LastError.Error()
		}
		sections = append(sections, styles.Banner.Width(width).Render(msg))
	}

	formStyle := styles.Panel
	if m.focus != focusList {
		formStyle = styles.PanelFocus
	}
	form := lipgloss.JoinVertical(lipgloss.Left, m.inputs[0].View(), m.inputs[1].View())
	sections = append(sections, formStyle.Width(width-2).Render(form))

	listStyle := styles.Panel
	if m.focus == focusList {
		listStyle = styles.PanelFocus
	}
	sections = append(sections, listStyle.Width(width-2).Render(m.renderList()))

	if item, ok := m.selectedItem(); ok {
		sections = append(sections, styles.Panel.Width(width-2).Render(m.renderDetail(item, width-4)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderList() string {
	styles := m.theme.Styles()

	if m.snapshot.Loading {
		return m.spinner.View() + " " + styles.MutedText.Render("Loading todos...")
	}
	items := m.visibleItems()
	if len(items) == 0 {
		return styles.FaintText.Render("No todos yet. Fill in the form and press enter.")
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		line := m.renderRow(item)
		if i == m.selected && m.focus == focusList {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(item todo.Item) string {
	styles := m.theme.Styles()

	check := styles.MutedText.Render("[ ]")
	name := styles.Text.Render(item.Name)
	if item.Completed {
		check = styles.SuccessText.Render("[x]")
		name = styles.FaintText.Strikethrough(true).Render(item.Name)
	}
	row := check + " " + name
	if item.Pending() {
		row += " " + styles.WarningText.Render("(syncing)")
	}
	return row
}
