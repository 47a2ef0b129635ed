package astdiff_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

func diffLeaves(t *testing.T, old, new astdiff.AstVector) (oldHunks, newHunks []astdiff.Hunk) {
	t.Helper()

	script, err := astdiff.Align(old, new, astdiff.DefaultMaxEditDistance)
	require.NoError(t, err)

	return astdiff.Assemble(old, new, script)
}

func TestAssemble_Replace(t *testing.T) {
	t.Parallel()

	old := leaves("A", "B", "C")
	new := leaves("A", "X", "C")

	oldHunks, newHunks := diffLeaves(t, old, new)

	require.Len(t, oldHunks, 1)
	require.Len(t, newHunks, 1)
	assert.Equal(t, old.At(1).Range, oldHunks[0].Range)
	assert.Equal(t, []astdiff.Entry{old.At(1)}, oldHunks[0].Entries)
	assert.Equal(t, new.At(1).Range, newHunks[0].Range)
	assert.Equal(t, "X", newHunks[0].Entries[0].Text)
}

func TestAssemble_EmptyOld(t *testing.T) {
	t.Parallel()

	new := leaves("A", "B")

	oldHunks, newHunks := diffLeaves(t, emptyVector(), new)

	assert.Empty(t, oldHunks)
	require.Len(t, newHunks, 1)
	assert.Equal(t, astdiff.Range{Start: 0, End: 3}, newHunks[0].Range)
	assert.Len(t, newHunks[0].Entries, 2)
}

func TestAssemble_DisjointInputs(t *testing.T) {
	t.Parallel()

	old := leaves("a", "b", "c", "d")
	new := leaves("w", "x", "y")

	oldHunks, newHunks := diffLeaves(t, old, new)

	require.Len(t, oldHunks, 1)
	require.Len(t, newHunks, 1)
	assert.Equal(t, old.Entries(), oldHunks[0].Entries)
	assert.Equal(t, new.Entries(), newHunks[0].Entries)
	assert.Equal(t, astdiff.Range{Start: 0, End: 7}, oldHunks[0].Range)
	assert.Equal(t, astdiff.Range{Start: 0, End: 5}, newHunks[0].Range)
}

func TestAssemble_InsertDoesNotSplitDeletionRun(t *testing.T) {
	t.Parallel()

	old := leaves("a", "b", "c", "z")
	new := leaves("x", "z")
	script := astdiff.EditScript{
		astdiff.Delete(0), astdiff.Insert(0), astdiff.Delete(1), astdiff.Delete(2), astdiff.Match(3, 1),
	}

	oldHunks, newHunks := astdiff.Assemble(old, new, script)

	require.Len(t, oldHunks, 1)
	assert.Len(t, oldHunks[0].Entries, 3)
	require.Len(t, newHunks, 1)
	assert.Len(t, newHunks[0].Entries, 1)
}

func TestAssemble_MergesNestedRuns(t *testing.T) {
	t.Parallel()

	// old: if { a; b }   new: a
	old := astdiff.NewAstVector([]astdiff.Entry{
		{Kind: "source", Range: astdiff.Range{End: 12}},
		{Kind: "if", Range: astdiff.Range{End: 12}, Depth: 1},
		{Kind: "identifier", Text: "a", Range: astdiff.Range{Start: 5, End: 6}, Depth: 2, Leaf: true},
		{Kind: "identifier", Text: "b", Range: astdiff.Range{Start: 8, End: 9}, Depth: 2, Leaf: true},
	})
	new := astdiff.NewAstVector([]astdiff.Entry{
		{Kind: "source", Range: astdiff.Range{End: 1}},
		{Kind: "identifier", Text: "a", Range: astdiff.Range{End: 1}, Depth: 1, Leaf: true},
	})

	script, err := astdiff.Align(old, new, astdiff.DefaultMaxEditDistance)
	require.NoError(t, err)
	assert.Equal(t, astdiff.EditScript{
		astdiff.Match(0, 0), astdiff.Delete(1), astdiff.Match(2, 1), astdiff.Delete(3),
	}, script)

	oldHunks, newHunks := astdiff.Assemble(old, new, script)

	require.Len(t, oldHunks, 1, "the deleted if encloses the deleted b")
	assert.Equal(t, astdiff.Range{Start: 0, End: 12}, oldHunks[0].Range)
	assert.Equal(t, []string{"if", "identifier"}, []string{oldHunks[0].Entries[0].Kind, oldHunks[0].Entries[1].Kind})
	assert.Empty(t, newHunks)
}

func assertMonotonic(t *testing.T, hunks []astdiff.Hunk) {
	t.Helper()

	for i := 1; i < len(hunks); i++ {
		assert.LessOrEqual(t, hunks[i-1].Range.End, hunks[i].Range.Start, "hunks %d and %d overlap", i-1, i)
	}
}

func TestAssemble_MonotonicRanges(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(5, 6))

	for range 200 {
		old := leaves(randomWords(rng, 15)...)
		new := leaves(randomWords(rng, 15)...)

		oldHunks, newHunks := diffLeaves(t, old, new)

		assertMonotonic(t, oldHunks)
		assertMonotonic(t, newHunks)

		deleted, inserted := 0, 0
		for _, h := range oldHunks {
			deleted += len(h.Entries)
		}

		for _, h := range newHunks {
			inserted += len(h.Entries)
		}

		again, err := astdiff.Align(old, new, astdiff.DefaultMaxEditDistance)
		require.NoError(t, err)

		stats := again.Stats()
		assert.Equal(t, stats.Deletions, deleted)
		assert.Equal(t, stats.Insertions, inserted)
	}
}

func TestRange(t *testing.T) {
	t.Parallel()

	r := astdiff.Range{Start: 4, End: 9}
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, astdiff.Range{Start: 1, End: 9}, r.Union(astdiff.Range{Start: 1, End: 2}))
}

// treeGen writes random source text and builds a matching tree over it.
type treeGen struct {
	rng *rand.Rand
	buf strings.Builder
}

func (g *treeGen) node(depth int) *syntax.Static {
	if depth == 0 || g.rng.IntN(3) == 0 {
		start := g.buf.Len()
		g.buf.WriteString([]string{"a", "b", "c"}[g.rng.IntN(3)])
		end := g.buf.Len()
		g.buf.WriteByte(' ')

		return syntax.Leaf("identifier", start, end)
	}

	kind := []string{"block", "call"}[g.rng.IntN(2)]
	start := g.buf.Len()

	open := syntax.Token("(", start, start+1)
	g.buf.WriteByte('(')

	children := []*syntax.Static{open}
	for range g.rng.IntN(4) {
		children = append(children, g.node(depth-1))
	}

	closing := g.buf.Len()
	g.buf.WriteByte(')')

	children = append(children, syntax.Token(")", closing, closing+1))

	// A branch whose only children are tokens is a leaf of the same kind as
	// the filled branches, like an empty argument list.
	return &syntax.Static{Type: kind, Start: start, End: closing + 1, Named: true, Nodes: children}
}

func randomTree(t *testing.T, rng *rand.Rand) astdiff.AstVector {
	t.Helper()

	g := &treeGen{rng: rng}
	root := g.node(4)

	vec, err := astdiff.Project(root, []byte(g.buf.String()))
	require.NoError(t, err)

	return vec
}

func TestAssemble_NestedTreeProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 8))

	for range 300 {
		old := randomTree(t, rng)
		new := randomTree(t, rng)

		script, err := astdiff.Align(old, new, astdiff.DefaultMaxEditDistance)
		require.NoError(t, err)

		checkScript(t, old, new, script)

		stats := script.Stats()
		require.Equal(t, lcs(old, new), stats.Matches, "script is not minimal")

		oldHunks, newHunks := astdiff.Assemble(old, new, script)

		assertMonotonic(t, oldHunks)
		assertMonotonic(t, newHunks)

		deleted, inserted := 0, 0

		for _, h := range oldHunks {
			deleted += len(h.Entries)

			for _, e := range h.Entries {
				assert.Equal(t, h.Range, h.Range.Union(e.Range), "entry outside its hunk")
			}
		}

		for _, h := range newHunks {
			inserted += len(h.Entries)

			for _, e := range h.Entries {
				assert.Equal(t, h.Range, h.Range.Union(e.Range), "entry outside its hunk")
			}
		}

		assert.Equal(t, stats.Deletions, deleted)
		assert.Equal(t, stats.Insertions, inserted)
	}
}
