// Package todo defines the todo item model shared by the store, the sync
// controller and the backend client.
package todo

import (
	"strings"

	"github.com/google/uuid"
)

// Item is a todo entry. ID is assigned by the backend and stays empty on an
// optimistic local copy until the create is confirmed.
type Item struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	ClientID    string `json:"clientId"`

	// LocalKey correlates a pending optimistic record with its confirmation.
	LocalKey string `json:"-"`
	// Revision counts local edits; stale remote responses carry a lower value.
	Revision uint64 `json:"-"`
}

// Pending reports whether the item has not been confirmed by the backend yet.
func (i Item) Pending() bool {
	return i.ID == ""
}

// Session identifies one running client. Items created by this client carry
// the session token as their ClientID so the echo of our own writes on the
// push channel can be recognised.
type Session string

// NewSession returns a fresh random session token.
func NewSession() Session {
	return Session(uuid.NewString())
}

// String returns the raw token.
func (s Session) String() string {
	return string(s)
}

// Owns reports whether item was created by this session.
func (s Session) Owns(item Item) bool {
	return s != "" && item.ClientID == string(s)
}

// NewLocalKey returns a correlation key for a pending record.
func NewLocalKey() string {
	return uuid.NewString()
}

// Field names a form input.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
)

// Form mirrors the two create inputs.
type Form struct {
	Name        string
	Description string
}

// Valid reports whether both fields carry non-blank text.
func (f Form) Valid() bool {
	return strings.TrimSpace(f.Name) != "" && strings.TrimSpace(f.Description) != ""
}

// IsZero reports whether both fields are empty.
func (f Form) IsZero() bool {
	return f == Form{}
}
