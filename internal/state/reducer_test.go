package state

import (
	"errors"
	"reflect"
	"testing"

	"github.com/five82/tick/internal/todo"
)

func ids(items []todo.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestInitial_IsLoadingWithEmptyForm(t *testing.T) {
	s := Initial()
	if !s.Loading {
		t.Fatal("Loading = false, want true")
	}
	if s.Error || len(s.Items) != 0 || !s.Form.IsZero() {
		t.Fatalf("Initial() = %#v, want empty loading state", s)
	}
}

func TestApply_SetInputKeepsLastValuePerField(t *testing.T) {
	s := Initial()
	s = Apply(s, SetInput(todo.FieldName, "a"))
	s = Apply(s, SetInput(todo.FieldDescription, "first"))
	s = Apply(s, SetInput(todo.FieldName, "ab"))
	s = Apply(s, SetInput(todo.FieldName, "abc"))

	if s.Form.Name != "abc" {
		t.Fatalf("Name = %q, want abc", s.Form.Name)
	}
	if s.Form.Description != "first" {
		t.Fatalf("Description = %q, want first", s.Form.Description)
	}
}

func TestApply_SetInputUnknownFieldIsNoop(t *testing.T) {
	s := Apply(Initial(), SetInput(todo.FieldName, "x"))
	got := Apply(s, SetInput(todo.Field("priority"), "high"))
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("unknown field changed state: %#v", got)
	}
}

func TestApply_ResetFormAlwaysEmpties(t *testing.T) {
	forms := []todo.Form{
		{},
		{Name: "A"},
		{Description: "B"},
		{Name: "A", Description: "B"},
	}
	for _, f := range forms {
		s := Initial()
		s.Form = f
		s = Apply(s, ResetForm())
		if !s.Form.IsZero() {
			t.Fatalf("ResetForm from %#v left %#v", f, s.Form)
		}
	}
}

func TestApply_AddItemPrependsAndPreservesOrder(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1"}, {ID: "2"}, {ID: "3"}}))
	s = Apply(s, AddItem(todo.Item{ID: "4", Name: "new"}))

	if want := []string{"4", "1", "2", "3"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids = %v, want %v", ids(s.Items), want)
	}
	if s.Items[0].Name != "new" {
		t.Fatalf("first item = %#v, want the added one", s.Items[0])
	}
}

func TestApply_AddItemReplacesSameConfirmedID(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1"}, {ID: "2", Name: "old"}}))
	s = Apply(s, AddItem(todo.Item{ID: "2", Name: "fresh"}))

	if want := []string{"2", "1"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids = %v, want %v", ids(s.Items), want)
	}
	if s.Items[0].Name != "fresh" {
		t.Fatalf("kept %q, want fresh", s.Items[0].Name)
	}
}

func TestApply_AddItemKeepsPendingDuplicates(t *testing.T) {
	s := Apply(Initial(), AddItem(todo.Item{Name: "A", LocalKey: "k1"}))
	s = Apply(s, AddItem(todo.Item{Name: "A", LocalKey: "k2"}))
	if len(s.Items) != 2 {
		t.Fatalf("len = %d, want 2 distinct pending items", len(s.Items))
	}
}

func TestApply_SetItemsClearsLoadingAndCopies(t *testing.T) {
	in := []todo.Item{{ID: "x"}, {ID: "y"}}
	s := Apply(Initial(), SetItems(in))
	if s.Loading {
		t.Fatal("Loading = true after SetItems")
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids = %v, want %v", ids(s.Items), want)
	}
	in[0].ID = "mutated"
	if s.Items[0].ID != "x" {
		t.Fatal("SetItems must not alias the caller's slice")
	}
}

func TestApply_LoadItemsKeepsPendingCreates(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "stale"}}))
	s = Apply(s, AddItem(todo.Item{Name: "new", LocalKey: "k1"}))

	s = Apply(s, LoadItems([]todo.Item{{ID: "1"}, {ID: "2"}}))

	if s.Loading {
		t.Fatal("Loading = true after LoadItems")
	}
	if len(s.Items) != 3 || s.Items[0].LocalKey != "k1" {
		t.Fatalf("items = %#v, want pending k1 ahead of the loaded items", s.Items)
	}
	if want := []string{"", "1", "2"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids = %v, want %v", ids(s.Items), want)
	}

	s = Apply(s, ConfirmItem(todo.Item{ID: "3", Name: "new", LocalKey: "k1"}, 0))
	if want := []string{"3", "1", "2"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids after confirm = %v, want %v", ids(s.Items), want)
	}
}

func TestApply_LoadItemsWithoutPendingCopies(t *testing.T) {
	in := []todo.Item{{ID: "x"}}
	s := Apply(Initial(), LoadItems(in))
	in[0].ID = "mutated"
	if s.Items[0].ID != "x" {
		t.Fatal("LoadItems must not alias the caller's slice")
	}
}

func TestApply_ReportError(t *testing.T) {
	cause := errors.New("network down")
	s := Apply(Initial(), ReportError(cause))
	if !s.Error || s.Loading {
		t.Fatalf("state = %#v, want Error=true Loading=false", s)
	}
	if !errors.Is(s.LastError, cause) {
		t.Fatalf("LastError = %v, want %v", s.LastError, cause)
	}
}

func TestApply_UnknownKindReturnsStateUnchanged(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1"}}))
	for _, kind := range []Kind{KindUnknown, Kind(99), Kind(-1)} {
		got := Apply(s, Action{Kind: kind, Items: []todo.Item{{ID: "zzz"}}})
		if !reflect.DeepEqual(got, s) {
			t.Fatalf("kind %d changed state: %#v", kind, got)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1"}, {ID: "2"}}))
	before := ids(s.Items)
	_ = Apply(s, AddItem(todo.Item{ID: "3"}))
	_ = Apply(s, ConfirmItem(todo.Item{ID: "2", Name: "changed"}, 0))
	if !reflect.DeepEqual(ids(s.Items), before) || s.Items[1].Name != "" {
		t.Fatalf("input state mutated: %#v", s.Items)
	}
}

func TestApply_ConfirmReplacesPendingInPlace(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "old"}}))
	s = Apply(s, AddItem(todo.Item{Name: "A", LocalKey: "k1"}))
	s = Apply(s, AddItem(todo.Item{ID: "foreign"}))

	s = Apply(s, ConfirmItem(todo.Item{ID: "srv-1", Name: "A", LocalKey: "k1"}, 0))

	if want := []string{"foreign", "srv-1", "old"}; !reflect.DeepEqual(ids(s.Items), want) {
		t.Fatalf("ids = %v, want %v", ids(s.Items), want)
	}
	if s.Items[1].LocalKey != "k1" {
		t.Fatalf("LocalKey = %q, want it preserved", s.Items[1].LocalKey)
	}
}

func TestApply_ConfirmUnknownRecordIsNoop(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1"}}))
	got := Apply(s, ConfirmItem(todo.Item{ID: "2", LocalKey: "gone"}, 0))
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("confirm of unknown record changed state: %#v", got)
	}
}

func TestApply_ConfirmDiscardsStaleRevision(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{{ID: "1", Completed: false, Revision: 2}}))

	stale := Apply(s, ConfirmItem(todo.Item{ID: "1", Completed: true}, 1))
	if stale.Items[0].Completed {
		t.Fatal("stale response was applied")
	}

	current := Apply(s, ConfirmItem(todo.Item{ID: "1", Completed: true, Name: "srv"}, 2))
	if !current.Items[0].Completed || current.Items[0].Name != "srv" {
		t.Fatalf("current response not applied: %#v", current.Items[0])
	}
	if current.Items[0].Revision != 2 {
		t.Fatalf("Revision = %d, want local revision 2 kept", current.Items[0].Revision)
	}
}

func TestApply_ConfirmDropsOtherCopiesOfID(t *testing.T) {
	s := Apply(Initial(), SetItems([]todo.Item{
		{Name: "A", LocalKey: "k1"},
		{ID: "srv-1", Name: "A"},
	}))
	s = Apply(s, ConfirmItem(todo.Item{ID: "srv-1", Name: "A", LocalKey: "k1"}, 0))
	if len(s.Items) != 1 || s.Items[0].ID != "srv-1" {
		t.Fatalf("items = %#v, want a single srv-1", s.Items)
	}
}

func TestIndexByID(t *testing.T) {
	items := []todo.Item{{LocalKey: "p"}, {ID: "a"}, {ID: "b"}}
	if got := IndexByID(items, "b"); got != 2 {
		t.Fatalf("IndexByID(b) = %d, want 2", got)
	}
	if got := IndexByID(items, "missing"); got != -1 {
		t.Fatalf("IndexByID(missing) = %d, want -1", got)
	}
	if got := IndexByID(items, ""); got != -1 {
		t.Fatalf("IndexByID(\"\") = %d, want -1 so pending items never match", got)
	}
}
