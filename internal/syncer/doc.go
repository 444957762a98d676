// Package syncer bridges the state store and the todo backend.
//
// # Overview
//
// The Controller owns every conversation with the backend. The UI and the
// headless commands never call the AppSync client themselves; they call
// FetchAll, Create, Delete and ToggleCompleted, read the result back from
// the store, and let the controller decide what goes over the wire.
//
// # Optimistic Updates
//
// Every user action is applied to the store first, on the caller's
// goroutine, and only then sent to the backend on a goroutine of its own:
//
//	caller goroutine                    background goroutine
//	┌──────────────────────────┐       ┌───────────────────────────────┐
//	│ validate input           │       │ ctx with MutationTimeout      │
//	│ store.Dispatch / Modify  │──────→│ backend.CreateTodo / ...      │
//	│ return nil               │       │ store.Dispatch(ConfirmItem)   │
//	└──────────────────────────┘       │ log outcome, call Report      │
//	                                   └───────────────────────────────┘
//
// The caller sees its change immediately and never waits on the network.
// Remote calls may finish in any order. Their failures are logged and passed
// to Options.Report when set, but never returned and never rolled back; the
// local state keeps the optimistic change.
//
// Only validation and lookup errors are returned synchronously:
//
//	Create            ErrMissingFields when name or description is blank
//	Delete / Toggle   ErrNotFound when no confirmed item has the ID
//
// Pending items (no ID yet) cannot be deleted or toggled; they are not found
// until their create has been confirmed.
//
// # Correlation
//
// A pending create carries a fresh LocalKey. When the backend answers, the
// confirmed record is merged into the pending one with that key, so the
// item keeps its place in the list and two rapid creates with identical
// fields still confirm separately.
//
// Toggles bump a per-item revision before the update is sent. The
// confirmation carries that revision, and the store drops a confirmation
// older than the local record, so a late response to an earlier toggle
// cannot undo a newer one.
//
// FetchAll dispatches its result with state.LoadItems, which keeps pending
// creates ahead of the loaded items. A create issued while the initial read
// is in flight therefore survives the read and is confirmed as usual.
//
// # Push Subscription
//
// Subscribe opens the onCreateTodo stream and starts a listener goroutine:
//
//	backend ──onCreateTodo──→ listener ──┬─ ClientID == session → drop (echo)
//	                                     └─ otherwise           → AddItem
//
// Items whose ClientID equals this controller's session are the echo of our
// own creates, already in the store through the optimistic path, and are
// dropped. Every other item is prepended.
//
// The returned Subscription reports when the listener stops through Done,
// and why through Err. Err is nil after Close; a stream the server or the
// network ended reports the cause so the UI can say that live updates
// stopped.
//
// # Lifecycle
//
// Wait blocks until every background call started so far has finished; the
// headless commands use it before exiting so a mutation is not cut off.
// Close cancels in-flight calls and then waits for them.
//
// # Usage Example
//
//	ctrl, err := syncer.New(syncer.Options{
//		Backend: client,
//		Store:   store,
//		Session: todo.NewSession(),
//		Logger:  logger,
//	})
//	if err != nil {
//		return err
//	}
//	defer ctrl.Close()
//
//	ctrl.FetchAll(ctx)
//	sub, err := ctrl.Subscribe(ctx)
//	if err == nil {
//		defer sub.Close()
//	}
//	_ = ctrl.Create(todo.Form{Name: "milk", Description: "2l"})
package syncer
