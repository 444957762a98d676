package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/five82/tick/internal/todo"
)

// markdownCache keeps one renderer per wrap width and the last output.
type markdownCache struct {
	width    int
	renderer *glamour.TermRenderer
	source   string
	out      string
}

func (c *markdownCache) render(width int, source string) string {
	if c == nil {
		return source
	}
	width = max(width, 20)
	if c.renderer == nil || c.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		c.renderer, c.width, c.source, c.out = r, width, "", ""
	}
	if source == c.source && c.out != "" {
		return c.out
	}
	out, err := c.renderer.Render(source)
	if err != nil {
		return source
	}
	c.source, c.out = source, strings.Trim(out, "\n")
	return c.out
}

// detailMarkdown is the markdown shown for the selected item.
func detailMarkdown(item todo.Item) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(item.Name)
	b.WriteString("\n\n")
	b.WriteString(item.Description)
	b.WriteString("\n")
	if item.Completed {
		b.WriteString("\n*Done*\n")
	}
	return b.String()
}

func (m Model) renderDetail(item todo.Item, width int) string {
	return m.markdown.render(width, detailMarkdown(item))
}
