package astdiff

import (
	"fmt"
	"slices"
)

// DefaultMaxEditDistance is the alignment budget used when none is configured.
// It comfortably covers edits to source files of a few thousand lines.
// Align keeps about D²/2 frontier offsets to recover the script, so a search
// that uses the whole default budget holds roughly 67 MB.
const DefaultMaxEditDistance = 4096

// OpKind is the kind of an edit operation.
type OpKind uint8

// Edit operation kinds.
const (
	OpMatch OpKind = iota
	OpDelete
	OpInsert
)

func (k OpKind) String() string {
	switch k {
	case OpMatch:
		return "match"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// EditOp is one step of an edit script. Indices that do not apply to the
// operation are -1.
type EditOp struct {
	Kind OpKind `json:"op"`
	Old  int    `json:"old"`
	New  int    `json:"new"`
}

// Match keeps old[o] as new[n].
func Match(o, n int) EditOp { return EditOp{Kind: OpMatch, Old: o, New: n} }

// Delete removes old[o].
func Delete(o int) EditOp { return EditOp{Kind: OpDelete, Old: o, New: -1} }

// Insert adds new[n].
func Insert(n int) EditOp { return EditOp{Kind: OpInsert, Old: -1, New: n} }

func (op EditOp) String() string {
	switch op.Kind {
	case OpMatch:
		return fmt.Sprintf("Match(%d,%d)", op.Old, op.New)
	case OpDelete:
		return fmt.Sprintf("Delete(%d)", op.Old)
	case OpInsert:
		return fmt.Sprintf("Insert(%d)", op.New)
	default:
		return op.Kind.String()
	}
}

// EditScript is an ordered list of edit operations. Read in order, its
// Match/Delete operations visit every old index once in increasing order and
// its Match/Insert operations visit every new index once in increasing order.
type EditScript []EditOp

// Stats counts the operations of a script.
type Stats struct {
	Matches    int `json:"matches"`
	Deletions  int `json:"deletions"`
	Insertions int `json:"insertions"`
}

// Distance is the number of non-matching operations.
func (s Stats) Distance() int { return s.Deletions + s.Insertions }

// Stats counts the operations of the script.
func (s EditScript) Stats() Stats {
	var st Stats

	for _, op := range s {
		switch op.Kind {
		case OpMatch:
			st.Matches++
		case OpDelete:
			st.Deletions++
		case OpInsert:
			st.Insertions++
		}
	}

	return st
}

// symbol is an interned entry. text is only meaningful for leaves.
type symbol struct {
	kind int32
	text int32
	leaf bool
}

// equal mirrors Entry.Equal on interned ids.
func (s symbol) equal(o symbol) bool {
	return s.kind == o.kind && (!s.leaf || !o.leaf || s.text == o.text)
}

// intern maps both vectors onto dense integer ids so that the search compares
// ints instead of strings. Ids are handed out in order of first appearance,
// old side first.
func intern(old, new AstVector) (a, b []symbol) {
	kinds := make(map[string]int32)
	texts := make(map[string]int32)

	id := func(ids map[string]int32, s string) int32 {
		if v, ok := ids[s]; ok {
			return v
		}

		v := int32(len(ids)) //nolint:gosec // vectors are bounded by the input size
		ids[s] = v

		return v
	}

	symbolOf := func(e Entry) symbol {
		sym := symbol{kind: id(kinds, e.Kind), leaf: e.Leaf}
		if e.Leaf {
			sym.text = id(texts, e.Text)
		}

		return sym
	}

	a = make([]symbol, old.Len())
	for i := range a {
		a[i] = symbolOf(old.At(i))
	}

	b = make([]symbol, new.Len())
	for i := range b {
		b[i] = symbolOf(new.At(i))
	}

	return a, b
}

// Align computes a shortest edit script between old and new.
//
// The search is Myers' greedy forward algorithm: for each edit distance d it
// extends the furthest reaching path on every diagonal k in [-d, d], where a
// step right deletes an old entry and a step down inserts a new one. The diagonals
// written at each d are kept so the path can be recovered afterwards, which
// costs O(D²) memory on top of O((N+M)·D) time.
//
// When both neighbours reach equally far the path is extended from the
// deletion side, so deletions come before insertions, and diagonals are
// scanned from the lowest k up, so the lowest index pair wins among equals.
//
// If no script with at most maxEditDistance deletions and insertions exists,
// Align returns a *DiffTooLargeError. A non-positive budget is always exceeded.
func Align(old, new AstVector, maxEditDistance int) (EditScript, error) {
	n, m := old.Len(), new.Len()

	tooLarge := &DiffTooLargeError{Budget: maxEditDistance, OldLen: n, NewLen: m}

	if maxEditDistance <= 0 {
		return nil, tooLarge
	}

	switch {
	case n == 0 && m == 0:
		return EditScript{}, nil
	case n == 0 || m == 0:
		if n+m > maxEditDistance {
			return nil, tooLarge
		}

		return trivialScript(n, m), nil
	}

	a, b := intern(old, new)

	limit := min(maxEditDistance, n+m)
	off := limit + 1
	frontier := make([]int, 2*limit+3)
	trace := make([][]int, 0, min(limit+1, 64))

	for d := 0; d <= limit; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && frontier[off+k-1] < frontier[off+k+1]) {
				x = frontier[off+k+1]
			} else {
				x = frontier[off+k-1] + 1
			}

			y := x - k

			for x < n && y < m && a[x].equal(b[y]) {
				x++
				y++
			}

			frontier[off+k] = x

			if x >= n && y >= m {
				return backtrack(trace, n, m, d), nil
			}
		}

		trace = append(trace, snapshot(frontier, off, d))
	}

	return nil, tooLarge
}

// snapshot copies the diagonals written at distance d. Those are -d, -d+2,
// ..., d; the others hold stale values from d-1 and are never read back.
func snapshot(frontier []int, off, d int) []int {
	snap := make([]int, d+1)
	for i := range snap {
		snap[i] = frontier[off-d+2*i]
	}

	return snap
}

// reach returns the furthest x on diagonal k recorded for edit distance d.
func reach(trace [][]int, d, k int) int {
	return trace[d][(k+d)/2]
}

// backtrack walks the recorded frontiers from (n, m) back to the origin.
// It mirrors the choice made in Align's inner loop, so it must be kept in sync.
func backtrack(trace [][]int, n, m, dist int) EditScript {
	script := make(EditScript, 0, n+m)
	x, y := n, m

	for d := dist; d > 0; d-- {
		k := x - y

		var prevK int
		if k == -d || (k != d && reach(trace, d-1, k-1) < reach(trace, d-1, k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := reach(trace, d-1, prevK)
		prevY := prevX - prevK

		startX := prevX
		if prevK == k-1 {
			startX++
		}

		for x > startX {
			x--
			y--
			script = append(script, Match(x, y))
		}

		if prevK == k+1 {
			script = append(script, Insert(prevY))
		} else {
			script = append(script, Delete(prevX))
		}

		x, y = prevX, prevY
	}

	for x > 0 {
		x--
		y--
		script = append(script, Match(x, y))
	}

	slices.Reverse(script)

	return script
}

func trivialScript(n, m int) EditScript {
	script := make(EditScript, 0, n+m)

	for i := range n {
		script = append(script, Delete(i))
	}

	for j := range m {
		script = append(script, Insert(j))
	}

	return script
}
