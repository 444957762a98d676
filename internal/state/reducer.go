package state

import "github.com/five82/tick/internal/todo"

// Kind enumerates the transitions the reducer understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindSetItems
	KindReportError
	KindAddItem
	KindResetForm
	KindSetInput
	KindConfirmItem
	KindLoadItems
)

func (k Kind) String() string {
	switch k {
	case KindSetItems:
		return "set-items"
	case KindReportError:
		return "report-error"
	case KindAddItem:
		return "add-item"
	case KindResetForm:
		return "reset-form"
	case KindSetInput:
		return "set-input"
	case KindConfirmItem:
		return "confirm-item"
	case KindLoadItems:
		return "load-items"
	default:
		return "unknown"
	}
}

// Action is a named transition. Only the fields relevant to Kind are read.
type Action struct {
	Kind     Kind
	Items    []todo.Item
	Item     todo.Item
	Err      error
	Field    todo.Field
	Value    string
	Revision uint64
}

// SetItems replaces the whole item sequence and clears the loading flag.
func SetItems(items []todo.Item) Action {
	return Action{Kind: KindSetItems, Items: items}
}

// LoadItems installs the result of a bulk read. Unlike SetItems it keeps
// pending items ahead of the loaded ones, so a create made while the read
// was in flight can still be confirmed.
func LoadItems(items []todo.Item) Action {
	return Action{Kind: KindLoadItems, Items: items}
}

// ReportError raises the error flag and clears the loading flag.
func ReportError(err error) Action {
	return Action{Kind: KindReportError, Err: err}
}

// AddItem prepends item to the sequence.
func AddItem(item todo.Item) Action {
	return Action{Kind: KindAddItem, Item: item}
}

// ResetForm empties the form.
func ResetForm() Action {
	return Action{Kind: KindResetForm}
}

// SetInput sets one form field.
func SetInput(field todo.Field, value string) Action {
	return Action{Kind: KindSetInput, Field: field, Value: value}
}

// ConfirmItem merges a backend-confirmed record into the local one it answers.
// A pending create is matched by LocalKey, anything else by ID. The merge is
// dropped when the local record carries a newer revision than revision.
func ConfirmItem(item todo.Item, revision uint64) Action {
	return Action{Kind: KindConfirmItem, Item: item, Revision: revision}
}

// AppState is the whole client-side state.
type AppState struct {
	Items     []todo.Item
	Loading   bool
	Error     bool
	LastError error
	Form      todo.Form
}

// Initial returns the state a fresh session starts from.
func Initial() AppState {
	return AppState{Loading: true}
}

// Apply computes the state that follows action. It never mutates s and
// returns s unchanged for kinds it does not recognise.
func Apply(s AppState, action Action) AppState {
	switch action.Kind {
	case KindSetItems:
		s.Items = cloneItems(action.Items)
		s.Loading = false
		return s
	case KindLoadItems:
		s.Items = load(s.Items, action.Items)
		s.Loading = false
		return s
	case KindReportError:
		s.Loading = false
		s.Error = true
		s.LastError = action.Err
		return s
	case KindAddItem:
		s.Items = prepend(s.Items, action.Item)
		return s
	case KindResetForm:
		s.Form = todo.Form{}
		return s
	case KindSetInput:
		switch action.Field {
		case todo.FieldName:
			s.Form.Name = action.Value
		case todo.FieldDescription:
			s.Form.Description = action.Value
		}
		return s
	case KindConfirmItem:
		if items, ok := confirm(s.Items, action.Item, action.Revision); ok {
			s.Items = items
		}
		return s
	default:
		return s
	}
}

// prepend puts item first. A confirmed item replaces any older copy with the
// same ID so identifiers stay unique.
func prepend(items []todo.Item, item todo.Item) []todo.Item {
	out := make([]todo.Item, 0, len(items)+1)
	out = append(out, item)
	for _, existing := range items {
		if item.ID != "" && existing.ID == item.ID {
			continue
		}
		out = append(out, existing)
	}
	return out
}

func load(current, loaded []todo.Item) []todo.Item {
	var out []todo.Item
	for _, item := range current {
		if item.Pending() {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return cloneItems(loaded)
	}
	return append(out, loaded...)
}

func confirm(items []todo.Item, confirmed todo.Item, revision uint64) ([]todo.Item, bool) {
	idx := indexOf(items, confirmed)
	if idx < 0 {
		return nil, false
	}
	current := items[idx]
	if current.Revision > revision {
		return nil, false
	}

	merged := confirmed
	merged.LocalKey = current.LocalKey
	merged.Revision = current.Revision

	out := make([]todo.Item, 0, len(items))
	for i, existing := range items {
		switch {
		case i == idx:
			out = append(out, merged)
		case merged.ID != "" && existing.ID == merged.ID:
			// another copy of the same record; keep the one in place
		default:
			out = append(out, existing)
		}
	}
	return out, true
}

func indexOf(items []todo.Item, target todo.Item) int {
	if target.LocalKey != "" {
		for i, item := range items {
			if item.LocalKey == target.LocalKey {
				return i
			}
		}
	}
	if target.ID != "" {
		return IndexByID(items, target.ID)
	}
	return -1
}

// IndexByID returns the position of the confirmed item with id, or -1.
func IndexByID(items []todo.Item, id string) int {
	if id == "" {
		return -1
	}
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []todo.Item) []todo.Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]todo.Item, len(items))
	copy(dup, items)
	return dup
}
