package astdiff

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to these.
var (
	// ErrMalformedTree reports a tree that does not fit the text it was paired with.
	ErrMalformedTree = errors.New("malformed syntax tree")
	// ErrDiffTooLarge reports an alignment whose edit distance exceeds the budget.
	ErrDiffTooLarge = errors.New("diff too large")
)

// MalformedTreeError describes a tree/text pair that cannot belong together.
type MalformedTreeError struct {
	Reason  string
	Kind    string
	Start   int
	End     int
	TextLen int
}

func (e *MalformedTreeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%v: %s", ErrMalformedTree, e.Reason)
	}

	return fmt.Sprintf("%v: %s: node %q spans [%d, %d) over %d bytes of text",
		ErrMalformedTree, e.Reason, e.Kind, e.Start, e.End, e.TextLen)
}

func (e *MalformedTreeError) Unwrap() error { return ErrMalformedTree }

// DiffTooLargeError is returned when the edit distance between two vectors is
// larger than the configured budget. Callers may retry with a larger budget or
// fall back to a coarser diff.
type DiffTooLargeError struct {
	Budget int
	OldLen int
	NewLen int
}

func (e *DiffTooLargeError) Error() string {
	return fmt.Sprintf("%v: edit distance exceeds budget of %d (old has %d entries, new has %d)",
		ErrDiffTooLarge, e.Budget, e.OldLen, e.NewLen)
}

func (e *DiffTooLargeError) Unwrap() error { return ErrDiffTooLarge }

// Side names one of the two documents being compared.
type Side string

// Document sides.
const (
	SideOld Side = "old"
	SideNew Side = "new"
)

// SideError attributes an error to one document.
type SideError struct {
	Err   error
	Side  Side
	Label string
}

func (e *SideError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s document: %v", e.Side, e.Err)
	}

	return fmt.Sprintf("%s file %s: %v", e.Side, e.Label, e.Err)
}

func (e *SideError) Unwrap() error { return e.Err }
