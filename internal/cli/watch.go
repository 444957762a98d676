package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/tick/internal/todo"
)

const watchInterval = 200 * time.Millisecond

func newWatchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the list, then every todo other clients create",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.fetch(ctx); err != nil {
				return err
			}
			snap := s.env.Store.Snapshot()
			if err := a.writeItems(cmd, snap.Items); err != nil {
				return err
			}
			seen := make(map[string]bool, len(snap.Items))
			for _, item := range snap.Items {
				seen[item.ID] = true
			}

			sub, err := s.ctrl.Subscribe(ctx)
			if err != nil {
				return err
			}
			defer sub.Close()

			ticker := time.NewTicker(watchInterval)
			defer ticker.Stop()
			version := snap.Version
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sub.Done():
					return errors.New("subscription ended; see the log for details")
				case <-ticker.C:
				}

				snap := s.env.Store.Snapshot()
				if snap.Version == version {
					continue
				}
				version = snap.Version
				// Items arrive at the head; print oldest first.
				var fresh []todo.Item
				for i := len(snap.Items) - 1; i >= 0; i-- {
					item := snap.Items[i]
					if item.ID == "" || seen[item.ID] {
						continue
					}
					seen[item.ID] = true
					fresh = append(fresh, item)
				}
				if err := a.writeEvents(cmd, fresh); err != nil {
					return err
				}
			}
		},
	}
}
