package astdiff

import (
	"reflect"
	"slices"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// Range is a half-open byte range [Start, End) into a source text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes in the range.
func (r Range) Len() int { return r.End - r.Start }

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

// Entry is a named syntax node projected into a flat sequence.
type Entry struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Range Range  `json:"range"`
	// Depth is the distance from the tree root. It never takes part in equality.
	Depth int `json:"depth"`
	// Leaf is set when the node has no named children.
	Leaf bool `json:"leaf"`
}

// Equal reports whether two entries are interchangeable in an alignment.
// Entries of the same kind are equal unless both are leaves with different
// text. An interior node's contents are compared through its own descendant
// entries, so an empty block matches a filled one.
func (e Entry) Equal(o Entry) bool {
	if e.Kind != o.Kind {
		return false
	}

	return !e.Leaf || !o.Leaf || e.Text == o.Text
}

// AstVector is the immutable, pre-order sequence of entries of one document.
type AstVector struct {
	entries []Entry
}

// NewAstVector builds a vector from entries that are already in pre-order.
// The slice is copied.
func NewAstVector(entries []Entry) AstVector {
	return AstVector{entries: slices.Clone(entries)}
}

// Len returns the number of entries.
func (v AstVector) Len() int { return len(v.entries) }

// At returns the i-th entry.
func (v AstVector) At(i int) Entry { return v.entries[i] }

// Entries returns a copy of all entries.
func (v AstVector) Entries() []Entry { return slices.Clone(v.entries) }

type projectFrame struct {
	node  syntax.Node
	depth int
}

// Project flattens the named nodes of a tree into an AstVector, in pre-order.
// Anonymous nodes are skipped but their descendants are still visited.
func Project(root syntax.Node, text []byte) (AstVector, error) {
	if isNil(root) {
		return AstVector{}, &MalformedTreeError{Reason: "empty tree", TextLen: len(text)}
	}

	// One conversion; every entry text is a substring of it.
	source := string(text)

	var entries []Entry

	stack := []projectFrame{{node: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := top.node
		start, end := node.StartByte(), node.EndByte()

		if start < 0 || start > end {
			return AstVector{}, &MalformedTreeError{
				Reason: "inverted byte range", Kind: node.Kind(), Start: start, End: end, TextLen: len(text),
			}
		}

		if end > len(text) {
			return AstVector{}, &MalformedTreeError{
				Reason: "byte range past end of text", Kind: node.Kind(), Start: start, End: end, TextLen: len(text),
			}
		}

		children := node.Children()
		if slices.ContainsFunc(children, isNil) {
			return AstVector{}, &MalformedTreeError{
				Reason: "nil child", Kind: node.Kind(), Start: start, End: end, TextLen: len(text),
			}
		}

		if node.IsNamed() {
			entries = append(entries, Entry{
				Kind:  node.Kind(),
				Text:  source[start:end],
				Range: Range{Start: start, End: end},
				Depth: top.depth,
				Leaf:  !hasNamedChild(children),
			})
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, projectFrame{node: children[i], depth: top.depth + 1})
		}
	}

	return AstVector{entries: entries}, nil
}

// isNil also catches a nil pointer stored in the interface, such as a
// (*syntax.Static)(nil).
func isNil(node syntax.Node) bool {
	if node == nil {
		return true
	}

	v := reflect.ValueOf(node)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

func hasNamedChild(children []syntax.Node) bool {
	for _, child := range children {
		if child.IsNamed() {
			return true
		}
	}

	return false
}
