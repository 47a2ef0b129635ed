// Package astdiff computes structural diffs between two syntax trees.
//
// Each tree is flattened into an AstVector of its named nodes (Project), the
// two vectors are aligned with a budgeted Myers search (Align) and the
// resulting edit script is grouped into per-side hunks (Assemble). Differ ties
// the three together and is the entry point for callers.
//
// Flattening trades move detection for the well understood cost bounds of
// sequence alignment: a moved block shows up as a deletion on one side and an
// insertion on the other.
//
// Everything in this package is synchronous and free of shared state. Projecting
// the two sides is independent, so callers may project them concurrently and
// hand the vectors to DiffVectors.
package astdiff

import (
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// Document is one side of a diff: a tree, the text it was parsed from and a
// label used in error messages.
type Document struct {
	Tree  syntax.Node
	Label string
	Text  []byte
}

// Result is the outcome of a successful diff.
type Result struct {
	Old    []Hunk     `json:"old_hunks"`
	New    []Hunk     `json:"new_hunks"`
	Script EditScript `json:"-"`
	Stats  Stats      `json:"stats"`
	OldLen int        `json:"old_entries"`
	NewLen int        `json:"new_entries"`
}

// Option configures a Differ.
type Option func(*Differ)

// WithMaxEditDistance sets the alignment budget.
func WithMaxEditDistance(n int) Option {
	return func(d *Differ) { d.maxEditDistance = n }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Differ) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Differ computes structural diffs with a fixed alignment budget.
type Differ struct {
	logger          *slog.Logger
	maxEditDistance int
}

// NewDiffer returns a Differ using DefaultMaxEditDistance unless overridden.
func NewDiffer(opts ...Option) *Differ {
	d := &Differ{
		logger:          slog.Default(),
		maxEditDistance: DefaultMaxEditDistance,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// MaxEditDistance returns the configured alignment budget.
func (d *Differ) MaxEditDistance() int { return d.maxEditDistance }

// Diff projects both documents and aligns them. Projection errors are
// reported before alignment errors, the old side before the new one, and
// carry the side in a *SideError.
func (d *Differ) Diff(old, new Document) (Result, error) {
	oldVec, err := Project(old.Tree, old.Text)
	if err != nil {
		return Result{}, &SideError{Side: SideOld, Label: old.Label, Err: err}
	}

	newVec, err := Project(new.Tree, new.Text)
	if err != nil {
		return Result{}, &SideError{Side: SideNew, Label: new.Label, Err: err}
	}

	d.logger.Debug("projected syntax trees",
		"old", old.Label, "old_entries", oldVec.Len(),
		"new", new.Label, "new_entries", newVec.Len())

	res, err := d.DiffVectors(oldVec, newVec)
	if err != nil {
		if old.Label == "" && new.Label == "" {
			return Result{}, err
		}

		return Result{}, fmt.Errorf("compare %s with %s: %w", old.Label, new.Label, err)
	}

	return res, nil
}

// DiffVectors aligns two projected vectors and assembles their hunks.
func (d *Differ) DiffVectors(old, new AstVector) (Result, error) {
	script, err := Align(old, new, d.maxEditDistance)
	if err != nil {
		return Result{}, err
	}

	oldHunks, newHunks := Assemble(old, new, script)
	stats := script.Stats()

	d.logger.Debug("aligned syntax trees",
		"matches", stats.Matches, "deletions", stats.Deletions, "insertions", stats.Insertions,
		"old_hunks", len(oldHunks), "new_hunks", len(newHunks))

	return Result{
		Old:    oldHunks,
		New:    newHunks,
		Script: script,
		Stats:  stats,
		OldLen: old.Len(),
		NewLen: new.Len(),
	}, nil
}

// Diff compares two trees with the default budget and returns the old and new hunks.
func Diff(oldTree syntax.Node, oldText []byte, newTree syntax.Node, newText []byte) (oldHunks, newHunks []Hunk, err error) {
	res, err := NewDiffer().Diff(
		Document{Tree: oldTree, Text: oldText},
		Document{Tree: newTree, Text: newText},
	)
	if err != nil {
		return nil, nil, err
	}

	return res.Old, res.New, nil
}
