package syntax

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// Sentinel errors for parser operations.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	errLanguageUnavailable = errors.New("grammar failed to load")
	errNoRootNode          = errors.New("parser returned no root node")
	errPoolType            = errors.New("unexpected parser pool entry")
)

// Parser turns source text into syntax trees and decides which grammar a file uses.
// It is safe for concurrent use.
type Parser struct {
	associations map[string]string

	mu    sync.Mutex
	pools map[string]*sync.Pool
}

// NewParser creates a Parser. Associations map lower-case file extensions
// (without the dot) or base names to grammar names and take precedence over
// the built-in defaults.
func NewParser(associations map[string]string) *Parser {
	assoc := DefaultAssociations()

	for ext, lang := range associations {
		assoc[strings.ToLower(strings.TrimPrefix(ext, "."))] = lang
	}

	return &Parser{
		associations: assoc,
		pools:        make(map[string]*sync.Pool),
	}
}

// ResolveLanguage picks the grammar for filename. An explicit override wins,
// then the extension associations, then linguist detection on the name and content.
func (p *Parser) ResolveLanguage(filename, override string, content []byte) (string, error) {
	if override != "" {
		if IsSupported(override) {
			return override, nil
		}

		if lang, ok := p.associations[strings.ToLower(strings.TrimPrefix(override, "."))]; ok {
			return lang, nil
		}

		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, override)
	}

	base := filepath.Base(filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))

	if ext != "" {
		if lang, ok := p.associations[ext]; ok {
			return lang, nil
		}
	}

	if lang, ok := p.associations[strings.ToLower(base)]; ok {
		return lang, nil
	}

	if linguist := enry.GetLanguage(base, content); linguist != "" {
		if lang, ok := grammarForLinguist(linguist); ok {
			return lang, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
}

// Parse parses content with the named grammar. The caller must Close the tree.
func (p *Parser) Parse(ctx context.Context, language string, content []byte) (*Tree, error) {
	pool, err := p.pool(language)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", language, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, fmt.Errorf("parse %s: %w", language, errNoRootNode)
	}

	return &Tree{Language: language, raw: tree, root: root}, nil
}

func (p *Parser) pool(language string) (*sync.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[language]; ok {
		return pool, nil
	}

	if !IsSupported(language) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	var lang *sitter.Language

	// Some grammars panic on load when their generated tables do not match the runtime.
	func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		lang = getLanguage(language)
	}()

	if lang == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageUnavailable, language)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}
	p.pools[language] = pool

	return pool, nil
}

// Tree is a parsed tree-sitter tree.
type Tree struct {
	Language string

	raw  *sitter.Tree
	root sitter.Node
}

// Root returns the root node of the tree.
func (t *Tree) Root() Node {
	return tsNode{raw: t.root}
}

// Close releases the native tree.
func (t *Tree) Close() {
	if t != nil && t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
}

// tsNode adapts a tree-sitter node to Node.
type tsNode struct {
	raw sitter.Node
}

func (n tsNode) Kind() string { return n.raw.Type() }

//nolint:gosec // tree-sitter offsets fit in int for any file we can hold in memory.
func (n tsNode) StartByte() int { return int(n.raw.StartByte()) }

//nolint:gosec // see StartByte.
func (n tsNode) EndByte() int { return int(n.raw.EndByte()) }

func (n tsNode) IsNamed() bool { return n.raw.IsNamed() }

func (n tsNode) Children() []Node {
	if n.raw.ChildCount() == 0 {
		return nil
	}

	children := make([]Node, 0, n.raw.ChildCount())
	cursor := sitter.NewTreeCursor(n.raw)

	if !cursor.GoToFirstChild() {
		return children
	}

	for {
		children = append(children, tsNode{raw: cursor.CurrentNode()})

		if !cursor.GoToNextSibling() {
			break
		}
	}

	return children
}
