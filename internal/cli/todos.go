package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/tick/internal/todo"
)

func newListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.fetch(cmd.Context()); err != nil {
				return err
			}
			return a.writeItems(cmd, s.env.Store.Snapshot().Items)
		},
	}
}

func newAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <description>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.ctrl.Create(todo.Form{Name: args[0], Description: args[1]}); err != nil {
				return err
			}
			if err := s.finish(); err != nil {
				return err
			}
			// The new record is the head of the list.
			items := s.env.Store.Snapshot().Items
			return a.writeItems(cmd, items[:1])
		},
	}
}

func newToggleCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <todo-id>",
		Short: "Flip the done flag of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.fetch(cmd.Context()); err != nil {
				return err
			}
			if err := s.ctrl.ToggleCompleted(args[0]); err != nil {
				return err
			}
			if err := s.finish(); err != nil {
				return err
			}
			item, _ := s.env.Store.Item(args[0])
			return a.writeItems(cmd, []todo.Item{item})
		},
	}
}

func newRmCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <todo-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.fetch(cmd.Context()); err != nil {
				return err
			}
			if err := s.ctrl.Delete(args[0]); err != nil {
				return err
			}
			if err := s.finish(); err != nil {
				return err
			}
			if a.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}
