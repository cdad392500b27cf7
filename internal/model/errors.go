package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entry group does not exist in the store.
	ErrNotFound = errors.New("entry group not found")

	// ErrForbidden is returned when the actor's role or ownership does not
	// allow the requested operation.
	ErrForbidden = errors.New("operation not permitted for actor")
)

// ValidationError reports malformed input to a mutating operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransitionError reports a lifecycle event that the current status
// does not permit.
type InvalidTransitionError struct {
	GroupID string
	From    EntryStatus
	Event   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s entry group %s in status %q", e.Event, e.GroupID, e.From)
}

// StoreCorruptedError reports unreadable or malformed persisted data.
type StoreCorruptedError struct {
	ID     string
	Reason string
	Err    error
}

func (e *StoreCorruptedError) Error() string {
	msg := "store corrupted"
	if e.ID != "" {
		msg += fmt.Sprintf(" at entry group %s", e.ID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreCorruptedError) Unwrap() error { return e.Err }

// FetchFailure records an evidence payload that could not be retrieved during
// an export. The item is left out of the package.
type FetchFailure struct {
	ItemID string `json:"item_id"`
	Ref    string `json:"ref"`
	Err    error  `json:"-"`
}

func (f FetchFailure) Error() string {
	return fmt.Sprintf("fetching evidence %s for item %s: %v", f.Ref, f.ItemID, f.Err)
}

// EmptyExportWarning is returned instead of an empty archive when a group has
// no evidence that could be bundled.
type EmptyExportWarning struct {
	GroupID  string
	Failures []FetchFailure
}

func (w *EmptyExportWarning) Error() string {
	if len(w.Failures) > 0 {
		return fmt.Sprintf("no evidence could be exported for entry group %s (%d fetch failures)", w.GroupID, len(w.Failures))
	}
	return fmt.Sprintf("entry group %s has no evidence to export", w.GroupID)
}
