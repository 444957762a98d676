package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/state"
	"github.com/five82/tick/internal/todo"
)

type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	nextID int

	list      []todo.Item
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	updates   []todo.Item

	// hold, when set, blocks mutations until it is closed.
	hold chan struct{}

	stream *fakeStream
}

var _ appsync.TodoAPI = (*fakeAPI)(nil)

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.hold == nil {
		return nil
	}
	select {
	case <-f.hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) ListTodos(ctx context.Context) ([]todo.Item, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]todo.Item(nil), f.list...), nil
}

func (f *fakeAPI) CreateTodo(ctx context.Context, item todo.Item) (todo.Item, error) {
	f.record("create")
	if err := f.wait(ctx); err != nil {
		return todo.Item{}, err
	}
	if f.createErr != nil {
		return todo.Item{}, f.createErr
	}
	f.mu.Lock()
	f.nextID++
	item.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.mu.Unlock()
	item.LocalKey = ""
	return item, nil
}

func (f *fakeAPI) UpdateTodo(ctx context.Context, item todo.Item) (todo.Item, error) {
	f.record("update")
	if err := f.wait(ctx); err != nil {
		return todo.Item{}, err
	}
	if f.updateErr != nil {
		return todo.Item{}, f.updateErr
	}
	f.mu.Lock()
	f.updates = append(f.updates, item)
	f.mu.Unlock()
	item.Revision = 0
	return item, nil
}

func (f *fakeAPI) DeleteTodo(ctx context.Context, id string) (todo.Item, error) {
	f.record("delete")
	if err := f.wait(ctx); err != nil {
		return todo.Item{}, err
	}
	if f.deleteErr != nil {
		return todo.Item{}, f.deleteErr
	}
	return todo.Item{ID: id}, nil
}

func (f *fakeAPI) SubscribeCreated(ctx context.Context) (appsync.Stream, error) {
	f.record("subscribe")
	if f.stream == nil {
		return nil, errors.New("no stream")
	}
	return f.stream, nil
}

type fakeStream struct {
	events chan todo.Item
	once   sync.Once

	mu  sync.Mutex
	err error
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan todo.Item)}
}

func (s *fakeStream) Events() <-chan todo.Item { return s.events }
func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// end stops the stream from the server side with err.
func (s *fakeStream) end(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	_ = s.Close()
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		close(s.events)
	})
	return nil
}

// recordingStore notes every action applied through it.
type recordingStore struct {
	*state.Store
	mu      sync.Mutex
	actions []state.Kind
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: state.NewStore()}
}

func (r *recordingStore) Dispatch(action state.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, action.Kind)
	r.mu.Unlock()
	r.Store.Dispatch(action)
}

func (r *recordingStore) Modify(derive func(state.AppState) (state.Action, bool)) bool {
	return r.Store.Modify(func(s state.AppState) (state.Action, bool) {
		action, ok := derive(s)
		if ok {
			r.mu.Lock()
			r.actions = append(r.actions, action.Kind)
			r.mu.Unlock()
		}
		return action, ok
	})
}

func (r *recordingStore) count(kind state.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.actions {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recordingStore) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}
