// Package render formats structural diffs for terminals, machines and humans
// skimming a summary. Renderers only read the hunks they are given.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
)

// Output formats.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatSummary  = "summary"
)

// Sentinel errors.
var (
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrUnknownColorPolicy = errors.New("unknown color policy")
)

// Document is one side of a rendered diff.
type Document struct {
	Label string
	Text  []byte
	Hunks []astdiff.Hunk
}

// Input is everything a renderer needs.
type Input struct {
	Language string
	// Fallback is set when the hunks come from a line diff.
	Fallback bool
	Old      Document
	New      Document
}

// Changed reports whether either side has hunks.
func (in Input) Changed() bool {
	return len(in.Old.Hunks) > 0 || len(in.New.Hunks) > 0
}

// Renderer writes an Input to w.
type Renderer interface {
	Render(w io.Writer, in Input) error
}

// ColorPolicy decides whether terminal output is colored.
type ColorPolicy string

// Color policies.
const (
	ColorAuto ColorPolicy = "auto"
	ColorOn   ColorPolicy = "on"
	ColorOff  ColorPolicy = "off"
)

// ParseColorPolicy parses auto, on or off. "always" and "never" are accepted
// as aliases.
func ParseColorPolicy(s string) (ColorPolicy, error) {
	switch s {
	case "", string(ColorAuto):
		return ColorAuto, nil
	case string(ColorOn), "always":
		return ColorOn, nil
	case string(ColorOff), "never":
		return ColorOff, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColorPolicy, s)
	}
}

// New returns the renderer for format.
func New(format string, style config.FormattingConfig, policy ColorPolicy) (Renderer, error) {
	switch format {
	case FormatTerminal, "":
		return &Terminal{Style: style, Policy: policy}, nil
	case FormatJSON:
		return JSON{Indent: true}, nil
	case FormatSummary:
		return Summary{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
