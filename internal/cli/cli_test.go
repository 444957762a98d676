package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/appsynctest"
	"github.com/five82/tick/internal/syncer"
	"github.com/five82/tick/internal/todo"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newBackend(t *testing.T) *appsynctest.Server {
	t.Helper()
	srv := appsynctest.NewServer("cli-key")
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TICK_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("TICK_ENDPOINT", srv.URL())
	t.Setenv("TICK_REALTIME_ENDPOINT", "")
	t.Setenv("TICK_API_KEY", "cli-key")
	t.Setenv("TICK_AUTH_MODE", "")
	t.Setenv("TICK_ID_TOKEN", "")
	t.Setenv("TICK_ID_TOKEN_FILE", "")
	t.Setenv("TICK_MUTATION_TIMEOUT", "")
	t.Setenv("TICK_LOG_FILE", filepath.Join(dir, "tick.log"))
	return srv
}

func runCLI(ctx context.Context, stdout *syncBuffer, args ...string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(ctx)
}

func mustRunJSON(t *testing.T, args ...string) []byte {
	t.Helper()
	var out syncBuffer
	if err := runCLI(context.Background(), &out, append([]string{"--json"}, args...)...); err != nil {
		t.Fatalf("tick %v failed: %v\nstdout:\n%s", args, err, out.String())
	}
	return []byte(out.String())
}

func TestList_PrintsBackendItems(t *testing.T) {
	srv := newBackend(t)
	srv.Seed(
		todo.Item{ID: "a", Name: "milk", Description: "2l"},
		todo.Item{ID: "b", Name: "bread", Description: "rye", Completed: true},
	)

	var items []todo.Item
	if err := json.Unmarshal(mustRunJSON(t, "list"), &items); err != nil {
		t.Fatalf("unmarshal list output: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || !items[1].Completed {
		t.Fatalf("items = %#v", items)
	}

	var table syncBuffer
	if err := runCLI(context.Background(), &table, "list"); err != nil {
		t.Fatalf("tick list failed: %v", err)
	}
	if !strings.Contains(table.String(), "bread") || !strings.Contains(table.String(), "DESCRIPTION") {
		t.Fatalf("table output missing rows:\n%s", table.String())
	}
}

func TestAdd_CreatesOnBackend(t *testing.T) {
	srv := newBackend(t)

	var items []todo.Item
	if err := json.Unmarshal(mustRunJSON(t, "add", "milk", "semi-skimmed"), &items); err != nil {
		t.Fatalf("unmarshal add output: %v", err)
	}
	if len(items) != 1 || items[0].ID == "" || items[0].ClientID == "" {
		t.Fatalf("add output = %#v, want one confirmed item", items)
	}

	stored := srv.Items()
	if len(stored) != 1 || stored[0].ID != items[0].ID || stored[0].Name != "milk" {
		t.Fatalf("backend items = %#v", stored)
	}
}

func TestAdd_BlankFieldsAreRejected(t *testing.T) {
	srv := newBackend(t)

	err := runCLI(context.Background(), &syncBuffer{}, "add", "milk", "   ")
	if !errors.Is(err, syncer.ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
	if srv.Calls("CreateTodo") != 0 {
		t.Fatalf("CreateTodo called for a rejected form")
	}
}

func TestAdd_ReportsRemoteFailure(t *testing.T) {
	srv := newBackend(t)
	srv.Fail("CreateTodo", "quota exceeded")

	err := runCLI(context.Background(), &syncBuffer{}, "add", "milk", "2l")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v, want the backend error", err)
	}
}

func TestToggle_FlipsOnBackend(t *testing.T) {
	srv := newBackend(t)
	srv.Seed(todo.Item{ID: "a", Name: "milk", Description: "2l"})

	var items []todo.Item
	if err := json.Unmarshal(mustRunJSON(t, "toggle", "a"), &items); err != nil {
		t.Fatalf("unmarshal toggle output: %v", err)
	}
	if len(items) != 1 || !items[0].Completed {
		t.Fatalf("toggle output = %#v", items)
	}
	if !srv.Items()[0].Completed {
		t.Fatalf("backend item not completed")
	}
}

func TestToggle_UnknownID(t *testing.T) {
	srv := newBackend(t)
	srv.Seed(todo.Item{ID: "a", Name: "milk", Description: "2l"})

	err := runCLI(context.Background(), &syncBuffer{}, "toggle", "nope")
	if !errors.Is(err, syncer.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if srv.Calls("UpdateTodo") != 0 {
		t.Fatalf("UpdateTodo called for an unknown id")
	}
}

func TestRm_DeletesOnBackend(t *testing.T) {
	srv := newBackend(t)
	srv.Seed(
		todo.Item{ID: "a", Name: "milk", Description: "2l"},
		todo.Item{ID: "b", Name: "bread", Description: "rye"},
	)

	var out syncBuffer
	if err := runCLI(context.Background(), &out, "rm", "a"); err != nil {
		t.Fatalf("tick rm failed: %v", err)
	}
	if !strings.Contains(out.String(), "deleted a") {
		t.Fatalf("output = %q", out.String())
	}
	stored := srv.Items()
	if len(stored) != 1 || stored[0].ID != "b" {
		t.Fatalf("backend items = %#v, want [b]", stored)
	}
}

func TestList_FetchFailure(t *testing.T) {
	srv := newBackend(t)
	srv.Fail("ListTodos", "backend down")

	err := runCLI(context.Background(), &syncBuffer{}, "list")
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("err = %v, want fetch failure", err)
	}
	var respErr *appsync.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("err = %v, want it to wrap *appsync.ResponseError", err)
	}
	if respErr.Operation != "ListTodos" {
		t.Fatalf("Operation = %q, want ListTodos", respErr.Operation)
	}
}

func TestWatch_PrintsOtherClientsCreates(t *testing.T) {
	srv := newBackend(t)
	srv.Seed(todo.Item{ID: "a", Name: "milk", Description: "2l"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- runCLI(ctx, &out, "watch") }()

	if !srv.WaitSubscribers(1, 3*time.Second) {
		t.Fatalf("watch never subscribed")
	}
	srv.Publish(todo.Item{Name: "eggs", Description: "dozen", ClientID: "someone-else"})

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "+ ") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(out.String(), "eggs: dozen") {
		t.Fatalf("watch output missing pushed item:\n%s", out.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}
