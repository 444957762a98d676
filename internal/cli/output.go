package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/tick/internal/todo"
)

func (a *App) writeItems(cmd *cobra.Command, items []todo.Item) error {
	out := cmd.OutOrStdout()
	if a.JSON {
		if items == nil {
			items = []todo.Item{}
		}
		return writeJSON(out, items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "no todos")
		return err
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.ID, doneMark(item), item.Name, item.Description})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DONE", "NAME", "DESCRIPTION").
		Rows(rows...)
	_, err := fmt.Fprintln(out, t.Render())
	return err
}

// writeEvents prints one line per item, JSON lines with --json.
func (a *App) writeEvents(cmd *cobra.Command, items []todo.Item) error {
	out := cmd.OutOrStdout()
	for _, item := range items {
		var err error
		if a.JSON {
			err = json.NewEncoder(out).Encode(item)
		} else {
			_, err = fmt.Fprintf(out, "+ %s %s: %s\n", item.ID, item.Name, item.Description)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func doneMark(item todo.Item) string {
	if item.Completed {
		return "x"
	}
	return ""
}
