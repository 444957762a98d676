// Package ui implements tick's Bubble Tea interface.
//
// The screen holds the create form (name and description inputs), the todo
// list and a rendered description of the selected todo. tab moves focus
// between the inputs and the list. In the list, enter toggles done, d
// deletes and L opens the diagnostics log. Keystrokes in the form are
// mirrored into the store with SetInput; submitting hands the stored form to
// the sync controller.
//
// The model never blocks on the network. Connecting, the initial fetch and
// the subscription run as commands, and background mutations land in the
// store, which the model re-reads on every tick when its version changed.
// When the push subscription stops on its own, the status line reads "Live
// updates unavailable" with the cause.
package ui
