package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/state"
	"github.com/five82/tick/internal/todo"
)

var (
	// ErrMissingFields rejects a create with an empty name or description.
	ErrMissingFields = errors.New("please enter name and description")
	// ErrNotFound is returned when no confirmed item has the requested ID.
	ErrNotFound = errors.New("todo not found")
)

// Store is the part of state.Store the controller writes through.
type Store interface {
	Dispatch(action state.Action)
	Modify(derive func(state.AppState) (state.Action, bool)) bool
}

var _ Store = (*state.Store)(nil)

const defaultMutationTimeout = 10 * time.Second

// Options configure a Controller.
type Options struct {
	Backend appsync.TodoAPI
	Store   Store
	Session todo.Session
	Logger  *log.Logger
	// MutationTimeout bounds each background remote call; zero uses 10s.
	MutationTimeout time.Duration
	// Report, when set, receives the outcome of every background remote call.
	Report func(op string, err error)
}

// Controller applies user actions optimistically and mirrors them to the
// backend in the background.
type Controller struct {
	backend appsync.TodoAPI
	store   Store
	session todo.Session
	logger  *log.Logger
	timeout time.Duration
	report  func(op string, err error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Controller. Backend, Store and Session are required.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("sync controller requires a backend")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("sync controller requires a store")
	}
	if opts.Session == "" {
		return nil, fmt.Errorf("sync controller requires a session")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	timeout := opts.MutationTimeout
	if timeout <= 0 {
		timeout = defaultMutationTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		backend: opts.Backend,
		store:   opts.Store,
		session: opts.Session,
		logger:  logger,
		timeout: timeout,
		report:  opts.Report,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Session returns the identity this controller tags new items with.
func (c *Controller) Session() todo.Session {
	return c.session
}

// FetchAll loads every item. Items still waiting for their create to be
// confirmed survive the load. Failure raises the error flag; there is no
// retry.
func (c *Controller) FetchAll(ctx context.Context) {
	items, err := c.backend.ListTodos(ctx)
	if err != nil {
		c.logger.Printf("fetch todos failed: %v", err)
		c.store.Dispatch(state.ReportError(err))
		return
	}
	c.logger.Printf("fetched %d todos", len(items))
	c.store.Dispatch(state.LoadItems(items))
}

// Create inserts a pending item and clears the form, then creates it
// remotely. Invalid input returns ErrMissingFields and changes nothing.
func (c *Controller) Create(form todo.Form) error {
	if !form.Valid() {
		return ErrMissingFields
	}
	item := todo.Item{
		Name:        form.Name,
		Description: form.Description,
		ClientID:    c.session.String(),
		Completed:   false,
		LocalKey:    todo.NewLocalKey(),
	}
	c.store.Dispatch(state.AddItem(item))
	c.store.Dispatch(state.ResetForm())

	c.remote("create todo", func(ctx context.Context) error {
		created, err := c.backend.CreateTodo(ctx, item)
		if err != nil {
			return err
		}
		created.LocalKey = item.LocalKey
		c.store.Dispatch(state.ConfirmItem(created, item.Revision))
		return nil
	})
	return nil
}

// Delete removes the item with id locally, then remotely.
func (c *Controller) Delete(id string) error {
	found := c.store.Modify(func(s state.AppState) (state.Action, bool) {
		idx := state.IndexByID(s.Items, id)
		if idx < 0 {
			return state.Action{}, false
		}
		items := append(s.Items[:idx:idx], s.Items[idx+1:]...)
		return state.SetItems(items), true
	})
	if !found {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}

	c.remote("delete todo", func(ctx context.Context) error {
		_, err := c.backend.DeleteTodo(ctx, id)
		return err
	})
	return nil
}

// ToggleCompleted flips the completed flag of the item with id locally, then
// sends the full record. A response that arrives after a newer local toggle
// is ignored.
func (c *Controller) ToggleCompleted(id string) error {
	var updated todo.Item
	found := c.store.Modify(func(s state.AppState) (state.Action, bool) {
		idx := state.IndexByID(s.Items, id)
		if idx < 0 {
			return state.Action{}, false
		}
		s.Items[idx].Completed = !s.Items[idx].Completed
		s.Items[idx].Revision++
		updated = s.Items[idx]
		return state.SetItems(s.Items), true
	})
	if !found {
		return fmt.Errorf("toggle %q: %w", id, ErrNotFound)
	}

	c.remote("update todo", func(ctx context.Context) error {
		confirmed, err := c.backend.UpdateTodo(ctx, updated)
		if err != nil {
			return err
		}
		c.store.Dispatch(state.ConfirmItem(confirmed, updated.Revision))
		return nil
	})
	return nil
}

// remote runs call on its own goroutine. Failures are logged and dropped.
func (c *Controller) remote(what string, call func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		err := call(ctx)
		if err != nil {
			c.logger.Printf("%s failed: %v", what, err)
		} else {
			c.logger.Printf("%s succeeded", what)
		}
		if c.report != nil {
			c.report(what, err)
		}
	}()
}

// Wait blocks until every remote call issued so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight remote calls and waits for them.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
