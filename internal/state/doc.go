// Package state holds the client-side todo state and the reducer that
// updates it.
//
// # Overview
//
// Everything the UI and the headless commands display is read from one
// AppState value: the item sequence, the loading and error flags, the last
// error and the contents of the create form. The sync controller, the push
// listener and the UI all write to it through actions, and all of them read
// it through snapshots. No other package keeps a second copy of the items.
//
// # Reducer
//
// Apply is a pure function from (AppState, Action) to AppState. It knows a
// closed set of kinds and returns the input unchanged for anything else. No
// transition performs I/O and none mutates its input:
//
//	SetItems(items)          replace the sequence, clear Loading
//	LoadItems(items)         install a bulk read, keep pending creates first
//	ReportError(err)         raise Error, record LastError, clear Loading
//	AddItem(item)            prepend; drop an older copy with the same ID
//	ResetForm()              empty both form fields
//	SetInput(field, value)   set one form field
//	ConfirmItem(item, rev)   merge a backend answer into its local record
//
// Items are kept most-recent-first. An optimistic record created locally has
// no ID until ConfirmItem merges the backend's answer into it. The match is
// made on the record's LocalKey, falling back to the ID, and the merged
// record stays at the same position, so display order never changes on
// confirmation:
//
//	Create "milk"                          items
//	  AddItem{LocalKey: k1}             →  [k1:"milk"(pending), a, b]
//	  ...remote create returns id 7...
//	  ConfirmItem{ID: 7, LocalKey: k1}  →  [7:"milk", a, b]
//
// ConfirmItem also carries the revision the remote call was issued at. A
// toggle bumps the local revision before the update is sent; when the record
// has been toggled again since, the older response is stale and dropped:
//
//	toggle #1 (rev 1) ──┐
//	toggle #2 (rev 2) ──┼──→ local record at rev 2
//	response #2 (rev 2)  →  applied
//	response #1 (rev 1)  →  dropped, rev 1 < 2
//
// LoadItems exists for the bulk read that starts a session. A create made
// while that read is in flight is still pending when the result arrives;
// replacing the whole sequence would lose the record and its later
// confirmation would find nothing to merge into. LoadItems therefore keeps
// every pending record ahead of the loaded ones.
//
// # Store
//
// Store wraps one AppState behind a readers-writer lock:
//
//	Sync goroutines:               UI / CLI:
//	┌──────────────────────┐      ┌──────────────────────┐
//	│ remote call returns  │      │ tick                 │
//	│        ↓             │      │   ↓                  │
//	│ store.Dispatch(a)    │─────→│ store.Snapshot()     │
//	│        ↓             │(lock)│   ↓                  │
//	│ Version++            │      │ render if Version    │
//	│                      │      │ moved                │
//	└──────────────────────┘      └──────────────────────┘
//
// Dispatch takes the write lock for the length of one Apply. Snapshot takes
// the read lock and copies the item slice, so rendering never races a
// dispatch and a caller can never modify the stored sequence through a
// snapshot. Version increases with every dispatch; readers compare it with
// the last one they rendered to skip redundant work.
//
// Modify lets a caller compute an action from the current state under the
// same lock. Delete and toggle are read-modify-write transitions: they find
// the item by ID, change it and write the sequence back. Doing the read and
// the write under one lock keeps a push event that arrives in between from
// being overwritten.
//
// Item looks up a confirmed item by ID under the read lock. Pending items
// have no ID and are never returned.
//
// # Usage Example
//
//	store := state.NewStore()
//
//	// Sync goroutine:
//	items, err := client.ListTodos(ctx)
//	if err != nil {
//		store.Dispatch(state.ReportError(err))
//	} else {
//		store.Dispatch(state.LoadItems(items))
//	}
//
//	// UI goroutine:
//	snap := store.Snapshot()
//	if snap.Version != lastVersion {
//		lastVersion = snap.Version
//		render(snap)
//	}
//
// # Error Handling
//
// The store never returns errors. A failed bulk read is recorded with
// ReportError and shown as a banner; the previously loaded items stay in
// place. Failures of individual mutations are not recorded here at all.
// The optimistic change stays visible and the failure goes to the log.
package state
