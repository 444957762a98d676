package state

import (
	"sync"
	"testing"

	"github.com/five82/tick/internal/todo"
)

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetItems([]todo.Item{{ID: "1"}, {ID: "2"}}))

	snap := s.Snapshot()
	if snap.Loading {
		t.Fatal("Loading = true after SetItems")
	}
	snap.Items[0].ID = "999"

	if got := s.Snapshot().Items[0].ID; got != "1" {
		t.Fatalf("Snapshot should clone items; got %q want 1", got)
	}
}

func TestStore_VersionIncrementsPerDispatch(t *testing.T) {
	s := NewStore()
	v0 := s.Snapshot().Version
	s.Dispatch(ResetForm())
	s.Dispatch(Action{Kind: KindUnknown})
	if got := s.Snapshot().Version; got != v0+2 {
		t.Fatalf("Version = %d, want %d", got, v0+2)
	}
}

func TestStore_ModifySkipsWhenDeriveDeclines(t *testing.T) {
	s := NewStore()
	v0 := s.Snapshot().Version
	applied := s.Modify(func(AppState) (Action, bool) { return Action{}, false })
	if applied {
		t.Fatal("Modify returned true when derive declined")
	}
	if s.Snapshot().Version != v0 {
		t.Fatal("Version changed without a dispatch")
	}
}

func TestStore_ModifyViewCannotLeak(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetItems([]todo.Item{{ID: "1"}}))
	s.Modify(func(view AppState) (Action, bool) {
		view.Items[0].ID = "leak"
		return Action{}, false
	})
	if got := s.Snapshot().Items[0].ID; got != "1" {
		t.Fatalf("derive mutated stored items: %q", got)
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetItems(nil))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(AddItem(todo.Item{LocalKey: todo.NewLocalKey()}))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Items) != 50 {
		t.Fatalf("len = %d, want 50", len(snap.Items))
	}
	if snap.Pending() != 50 {
		t.Fatalf("Pending = %d, want 50", snap.Pending())
	}
}

func TestStore_Item(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetItems([]todo.Item{{ID: "a", Name: "A"}}))
	item, ok := s.Item("a")
	if !ok || item.Name != "A" {
		t.Fatalf("Item(a) = %#v, %v", item, ok)
	}
	if _, ok := s.Item("b"); ok {
		t.Fatal("Item(b) found, want missing")
	}
}
