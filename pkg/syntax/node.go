// Package syntax provides the concrete syntax trees that sitterdiff compares:
// a small node contract, a tree-sitter backed implementation and the grammar
// registry used to pick a parser for a file.
package syntax

// Node is a node of a concrete syntax tree.
//
// Byte offsets index into the source text the tree was parsed from. Kinds are
// opaque, grammar-defined tags. A node is named when the grammar considers it
// meaningful syntax rather than punctuation or trivia.
type Node interface {
	Kind() string
	StartByte() int
	EndByte() int
	IsNamed() bool
	// Children returns both named and anonymous children in source order.
	Children() []Node
}

// Static is an in-memory Node. It is used for trees built by hand, for example
// in tests or by callers that already hold a decoded tree.
type Static struct {
	Type  string    `json:"kind"`
	Nodes []*Static `json:"children,omitempty"`
	Start int       `json:"start"`
	End   int       `json:"end"`
	Named bool      `json:"named"`
}

// Kind implements Node.
func (s *Static) Kind() string { return s.Type }

// StartByte implements Node.
func (s *Static) StartByte() int { return s.Start }

// EndByte implements Node.
func (s *Static) EndByte() int { return s.End }

// IsNamed implements Node.
func (s *Static) IsNamed() bool { return s.Named }

// Children implements Node.
func (s *Static) Children() []Node {
	out := make([]Node, len(s.Nodes))
	for i, child := range s.Nodes {
		out[i] = child
	}

	return out
}

// Branch returns a named Static node spanning its children.
// With no children it spans nothing at offset 0.
func Branch(kind string, children ...*Static) *Static {
	node := &Static{Type: kind, Named: true, Nodes: children}

	if len(children) > 0 {
		node.Start = children[0].Start
		node.End = children[len(children)-1].End
	}

	return node
}

// Leaf returns a named Static node without children.
func Leaf(kind string, start, end int) *Static {
	return &Static{Type: kind, Start: start, End: end, Named: true}
}

// Token returns an anonymous Static node, such as punctuation.
func Token(kind string, start, end int) *Static {
	return &Static{Type: kind, Start: start, End: end}
}
