// Package cli defines the tick command tree.
//
// Without a subcommand tick starts the TUI. The subcommands run the same
// sync controller headless:
//
//	tick list [--json]          fetch and print every todo
//	tick add NAME DESCRIPTION   create one todo
//	tick toggle ID              flip the completed flag
//	tick rm ID                  delete one todo
//	tick watch [--json]         print todos other clients create
//
// Each headless command opens a session: it loads the config, connects a
// controller and records the outcome of every background call through the
// controller's Report hook. Before returning, the command waits for those
// calls and joins their failures into its error, so a rejected mutation
// exits non-zero even though the controller itself never returns it.
//
// Errors keep their chain. A failed read surfaces as "fetch todos: ..."
// wrapping the backend error, so callers can match *appsync.ResponseError
// with errors.As.
//
// Logging goes to the configured log file; --verbose sends it to stderr.
package cli
