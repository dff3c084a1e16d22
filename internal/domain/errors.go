package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFrozen is returned when a mutation is attempted on a frozen ledger.
var ErrFrozen = errors.New("fact ledger is frozen")

// ErrNotFrozen is returned when an operation requires a frozen ledger.
var ErrNotFrozen = errors.New("fact ledger is not frozen")

// ValidationError reports malformed or missing required input at ledger
// construction. Recoverable by the caller: supply the named fields.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", strings.Join(e.Fields, ", "), e.Reason)
}

// MissingConfirmationError reports a freeze attempt while required fields are
// absent or unconfirmed. Fields is sorted lexically.
type MissingConfirmationError struct {
	Fields []string
}

func (e *MissingConfirmationError) Error() string {
	return fmt.Sprintf("cannot freeze ledger: unconfirmed or missing required fields: %s",
		strings.Join(e.Fields, ", "))
}
