package astdiff

// Hunk is a contiguous run of deleted (old side) or inserted (new side) entries.
type Hunk struct {
	Entries []Entry `json:"entries"`
	Range   Range   `json:"range"`
}

// hunkBuilder accumulates the hunks of one side.
type hunkBuilder struct {
	vec   AstVector
	hunks []Hunk
	open  bool
}

func (hb *hunkBuilder) add(idx int) {
	entry := hb.vec.At(idx)

	if !hb.open {
		hb.hunks = append(hb.hunks, Hunk{Range: entry.Range})
		hb.open = true
	}

	last := &hb.hunks[len(hb.hunks)-1]
	last.Entries = append(last.Entries, entry)
	last.Range = last.Range.Union(entry.Range)
}

func (hb *hunkBuilder) close() { hb.open = false }

// finish merges hunks whose ranges overlap. This happens when a deleted
// interior node encloses a matched descendant followed by more deletions:
// the runs are separate in the script but the first hunk's range already
// covers the second.
func (hb *hunkBuilder) finish() []Hunk {
	if len(hb.hunks) == 0 {
		return nil
	}

	merged := make([]Hunk, 1, len(hb.hunks))
	merged[0] = hb.hunks[0]

	for _, h := range hb.hunks[1:] {
		last := &merged[len(merged)-1]

		if h.Range.Start < last.Range.End {
			last.Entries = append(last.Entries, h.Entries...)
			last.Range = last.Range.Union(h.Range)

			continue
		}

		merged = append(merged, h)
	}

	return merged
}

// Assemble groups an edit script into hunks. Each maximal run of deletions
// becomes an old hunk and each maximal run of insertions a new hunk; only a
// match ends a run. Hunks are returned in source order per side and are not
// paired across sides.
func Assemble(old, new AstVector, script EditScript) (oldHunks, newHunks []Hunk) {
	oldSide := hunkBuilder{vec: old}
	newSide := hunkBuilder{vec: new}

	for _, op := range script {
		switch op.Kind {
		case OpMatch:
			oldSide.close()
			newSide.close()
		case OpDelete:
			oldSide.add(op.Old)
		case OpInsert:
			newSide.add(op.New)
		}
	}

	return oldSide.finish(), newSide.finish()
}
