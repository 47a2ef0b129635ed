package syntax

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/bash"
	"github.com/alexaandru/go-sitter-forest/c"
	"github.com/alexaandru/go-sitter-forest/c_sharp"
	"github.com/alexaandru/go-sitter-forest/cpp"
	"github.com/alexaandru/go-sitter-forest/css"
	"github.com/alexaandru/go-sitter-forest/dart"
	"github.com/alexaandru/go-sitter-forest/dockerfile"
	"github.com/alexaandru/go-sitter-forest/elixir"
	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/haskell"
	"github.com/alexaandru/go-sitter-forest/hcl"
	"github.com/alexaandru/go-sitter-forest/html"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/json"
	"github.com/alexaandru/go-sitter-forest/kotlin"
	"github.com/alexaandru/go-sitter-forest/lua"
	gnumake "github.com/alexaandru/go-sitter-forest/make"
	"github.com/alexaandru/go-sitter-forest/markdown"
	"github.com/alexaandru/go-sitter-forest/php"
	"github.com/alexaandru/go-sitter-forest/proto"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/ruby"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/scala"
	"github.com/alexaandru/go-sitter-forest/sql"
	"github.com/alexaandru/go-sitter-forest/swift"
	"github.com/alexaandru/go-sitter-forest/toml"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	"github.com/alexaandru/go-sitter-forest/yaml"
	"github.com/alexaandru/go-sitter-forest/zig"
)

// grammar binds a tree-sitter language to the file extensions it handles by default.
type grammar struct {
	load       func() unsafe.Pointer
	extensions []string
}

// grammars lists every language this binary was built with.
// Extensions are lower case and carry no leading dot.
var grammars = map[string]grammar{
	"bash":       {bash.GetLanguage, []string{"sh", "bash", "zsh"}},
	"c":          {c.GetLanguage, []string{"c", "h"}},
	"c_sharp":    {c_sharp.GetLanguage, []string{"cs"}},
	"cpp":        {cpp.GetLanguage, []string{"cc", "cpp", "cxx", "hh", "hpp", "hxx"}},
	"css":        {css.GetLanguage, []string{"css"}},
	"dart":       {dart.GetLanguage, []string{"dart"}},
	"dockerfile": {dockerfile.GetLanguage, []string{"dockerfile"}},
	"elixir":     {elixir.GetLanguage, []string{"ex", "exs"}},
	"go":         {golang.GetLanguage, []string{"go"}},
	"haskell":    {haskell.GetLanguage, []string{"hs"}},
	"hcl":        {hcl.GetLanguage, []string{"hcl", "tf", "tfvars"}},
	"html":       {html.GetLanguage, []string{"html", "htm"}},
	"java":       {java.GetLanguage, []string{"java"}},
	"javascript": {javascript.GetLanguage, []string{"js", "mjs", "cjs", "jsx"}},
	"json":       {json.GetLanguage, []string{"json"}},
	"kotlin":     {kotlin.GetLanguage, []string{"kt", "kts"}},
	"lua":        {lua.GetLanguage, []string{"lua"}},
	"make":       {gnumake.GetLanguage, []string{"mk", "mak", "makefile"}},
	"markdown":   {markdown.GetLanguage, []string{"md", "markdown"}},
	"php":        {php.GetLanguage, []string{"php"}},
	"proto":      {proto.GetLanguage, []string{"proto"}},
	"python":     {python.GetLanguage, []string{"py", "pyi"}},
	"ruby":       {ruby.GetLanguage, []string{"rb"}},
	"rust":       {rust.GetLanguage, []string{"rs"}},
	"scala":      {scala.GetLanguage, []string{"scala", "sc"}},
	"sql":        {sql.GetLanguage, []string{"sql"}},
	"swift":      {swift.GetLanguage, []string{"swift"}},
	"toml":       {toml.GetLanguage, []string{"toml"}},
	"tsx":        {tsx.GetLanguage, []string{"tsx"}},
	"typescript": {typescript.GetLanguage, []string{"ts", "mts", "cts"}},
	"yaml":       {yaml.GetLanguage, []string{"yml", "yaml"}},
	"zig":        {zig.GetLanguage, []string{"zig"}},
}

// enryNames maps linguist language names, as reported by enry, to grammar
// names where the lower-cased linguist name is not already a grammar name.
var enryNames = map[string]string{
	"c#":              "c_sharp",
	"c++":             "cpp",
	"makefile":        "make",
	"protocol buffer": "proto",
	"shell":           "bash",
	"terraform":       "hcl",
}

var languageCache sync.Map

// Language describes a supported grammar.
type Language struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// SupportedLanguages returns the grammars this binary was built with, sorted by name.
func SupportedLanguages() []Language {
	langs := make([]Language, 0, len(grammars))

	for name, g := range grammars {
		langs = append(langs, Language{Name: name, Extensions: slices.Clone(g.extensions)})
	}

	sort.Slice(langs, func(i, j int) bool { return langs[i].Name < langs[j].Name })

	return langs
}

// IsSupported reports whether name is a known grammar.
func IsSupported(name string) bool {
	_, ok := grammars[name]

	return ok
}

// DefaultAssociations returns the built-in extension to grammar mapping.
func DefaultAssociations() map[string]string {
	assoc := make(map[string]string)

	for name, g := range grammars {
		for _, ext := range g.extensions {
			assoc[ext] = name
		}
	}

	return assoc
}

// getLanguage returns the tree-sitter Language for name, or nil if not supported.
func getLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	g, ok := grammars[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(g.load())
	languageCache.Store(name, lang)

	return lang
}

// grammarForLinguist maps an enry/linguist language name to a grammar name.
func grammarForLinguist(linguist string) (string, bool) {
	lower := strings.ToLower(linguist)

	if name, ok := enryNames[lower]; ok {
		return name, true
	}

	if IsSupported(lower) {
		return lower, true
	}

	return "", false
}
