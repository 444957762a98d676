package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/auth"
	"github.com/five82/tick/internal/config"
	"github.com/five82/tick/internal/state"
	"github.com/five82/tick/internal/syncer"
	"github.com/five82/tick/internal/todo"
	"github.com/five82/tick/internal/ui"
)

// Options configure the tick application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tick/prefs.toml
	// LogOutput overrides the log file; used by headless commands and tests.
	LogOutput io.Writer
}

// Env is the runtime shared by the TUI and the headless commands: one
// store and one session per process.
type Env struct {
	Config  config.Config
	Logger  *log.Logger
	Store   *state.Store
	Session todo.Session
	// Report, when set before Connect, receives every remote call outcome.
	Report func(op string, err error)

	logFile io.Closer
	now     func() time.Time
}

// Setup loads configuration and opens the log.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env := &Env{
		Config:  cfg,
		Store:   state.NewStore(),
		Session: todo.NewSession(),
		now:     time.Now,
	}

	out := opts.LogOutput
	if out == nil {
		file, err := openLog(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		env.logFile = file
		out = file
	}
	env.Logger = log.New(out, "", log.LstdFlags)
	env.Logger.Printf("session %s starting against %s", env.Session, cfg.Endpoint)
	return env, nil
}

// Connect checks the session, then builds the backend client and the sync
// controller. A missing or expired user session returns an error wrapping
// auth.ErrNoSession.
func (e *Env) Connect(ctx context.Context) (*syncer.Controller, string, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, "", err
	}

	var token, user string
	if e.Config.RequiresLogin() {
		session, err := auth.Load(e.Config.IDToken, e.Config.IDTokenFile, e.now())
		if err != nil {
			return nil, "", err
		}
		token, user = session.Token, session.Username
	}

	client, err := appsync.NewClient(appsync.Options{
		Endpoint:         e.Config.Endpoint,
		RealtimeEndpoint: e.Config.RealtimeEndpoint,
		APIKey:           e.Config.APIKey,
		Token:            token,
		Timeout:          e.Config.MutationTimeout,
		Logger:           e.Logger,
	})
	if err != nil {
		return nil, "", fmt.Errorf("init appsync client: %w", err)
	}

	ctrl, err := syncer.New(syncer.Options{
		Backend:         client,
		Store:           e.Store,
		Session:         e.Session,
		Logger:          e.Logger,
		MutationTimeout: e.Config.MutationTimeout,
		Report:          e.Report,
	})
	if err != nil {
		return nil, "", err
	}
	return ctrl, user, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	if e == nil || e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

// Run boots the tick TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     env.Store,
		LogPath:   env.Config.LogFile,
		PrefsPath: opts.PrefsPath,
		LoginHint: fmt.Sprintf("Save your ID token to %s or set TICK_ID_TOKEN.", env.Config.IDTokenFile),
		Connect:   env.connectUI,
	})
}

func (e *Env) connectUI(ctx context.Context) (*ui.Connection, error) {
	ctrl, user, err := e.Connect(ctx)
	if err != nil {
		e.Logger.Printf("connect failed: %v", err)
		return nil, err
	}
	return &ui.Connection{
		Controller: ctrl,
		User:       user,
		Subscribe: func(ctx context.Context) (ui.Subscription, error) {
			sub, err := ctrl.Subscribe(ctx)
			if err != nil {
				return nil, err
			}
			return sub, nil
		},
	}, nil
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return file, nil
}
