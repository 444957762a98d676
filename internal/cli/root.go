package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/five82/tick/internal/app"
	"github.com/five82/tick/internal/syncer"
)

// App holds the persistent flags shared by every subcommand.
type App struct {
	ConfigPath string
	PrefsPath  string
	JSON       bool
	Verbose    bool
}

// NewRootCmd builds the tick command tree. Run without a subcommand it
// starts the TUI; list, add, toggle, rm and watch run headless against the
// same config and write to the command's stdout.
func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "tick",
		Short:        "Terminal todo list synced through AppSync",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tick

  # Scriptable commands
  tick list --json
  tick add "Buy milk" "Two litres, semi-skimmed"
  tick toggle <todo-id>
  tick rm <todo-id>

  # Print todos created by other clients as they arrive
  tick watch
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return app.Run(cmd.Context(), app.Options{ConfigPath: a.ConfigPath, PrefsPath: a.PrefsPath})
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("TICK_CONFIG", ""), "Config file (default ~/.config/tick/config.toml)")
	cmd.PersistentFlags().StringVar(&a.PrefsPath, "prefs", "", "Preferences file (default ~/.config/tick/prefs.toml)")
	cmd.PersistentFlags().BoolVar(&a.JSON, "json", false, "Print JSON instead of a table")
	cmd.PersistentFlags().BoolVarP(&a.Verbose, "verbose", "v", false, "Log to stderr instead of the log file")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newToggleCmd(a))
	cmd.AddCommand(newRmCmd(a))
	cmd.AddCommand(newWatchCmd(a))

	return cmd
}

// session is one headless run: an Env with a connected controller that
// collects the outcome of every remote call.
type session struct {
	env  *app.Env
	ctrl *syncer.Controller

	mu   sync.Mutex
	errs []error
}

func (a *App) open(cmd *cobra.Command) (*session, error) {
	var logOut io.Writer
	if a.Verbose {
		logOut = cmd.ErrOrStderr()
	}
	env, err := app.Setup(app.Options{ConfigPath: a.ConfigPath, LogOutput: logOut})
	if err != nil {
		return nil, err
	}
	s := &session{env: env}
	env.Report = s.record

	ctrl, _, err := env.Connect(cmd.Context())
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

func (s *session) record(op string, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, fmt.Errorf("%s: %w", op, err))
}

// fetch loads every todo and surfaces a failed read as an error.
func (s *session) fetch(ctx context.Context) error {
	s.ctrl.FetchAll(ctx)
	snap := s.env.Store.Snapshot()
	if snap.Error {
		return fmt.Errorf("fetch todos: %w", snap.LastError)
	}
	return nil
}

// finish waits for background mutations and returns their failures.
func (s *session) finish() error {
	s.ctrl.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

func (s *session) close() {
	s.ctrl.Close()
	_ = s.env.Close()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
