// Package app wires configuration, logging, the session check, the AppSync
// client, the store and the sync controller together.
//
// Setup builds an Env once per process: it owns the single state.Store and
// the session token every item created by this process is tagged with.
// Env.Connect turns that into a running syncer.Controller. Run hands the Env
// to the TUI, which connects in the background and shows the login view
// when Connect reports auth.ErrNoSession. The headless commands in
// internal/cli use the same Env without the TUI.
//
// The TUI owns the terminal, so everything is logged to the file named by
// log_file (default ~/.local/state/tick/tick.log). The diagnostics view in
// the TUI tails that file.
package app
