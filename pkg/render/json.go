package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
)

// Position is a 1-based line and byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ReportEntry is a changed node with its position.
type ReportEntry struct {
	Kind  string        `json:"kind"`
	Text  string        `json:"text"`
	Range astdiff.Range `json:"range"`
	Start Position      `json:"start"`
	End   Position      `json:"end"`
	Leaf  bool          `json:"leaf"`
}

// ReportHunk is a hunk with positions resolved against its text.
type ReportHunk struct {
	Range   astdiff.Range `json:"range"`
	Start   Position      `json:"start"`
	End     Position      `json:"end"`
	Entries []ReportEntry `json:"entries"`
}

// ReportSide is one side of a Report.
type ReportSide struct {
	Label string       `json:"label,omitempty"`
	Hunks []ReportHunk `json:"hunks"`
}

// Report is the machine readable form of a diff, shared by the JSON renderer
// and the network APIs.
type Report struct {
	Language string     `json:"language,omitempty"`
	Fallback bool       `json:"fallback"`
	Old      ReportSide `json:"old"`
	New      ReportSide `json:"new"`
}

// NewReport resolves the positions of every hunk in the input.
func NewReport(in Input) Report {
	return Report{
		Language: in.Language,
		Fallback: in.Fallback,
		Old:      reportSide(in.Old),
		New:      reportSide(in.New),
	}
}

func reportSide(doc Document) ReportSide {
	index := NewLineIndex(doc.Text)
	side := ReportSide{Label: doc.Label, Hunks: make([]ReportHunk, 0, len(doc.Hunks))}

	for _, h := range doc.Hunks {
		hunk := ReportHunk{
			Range:   h.Range,
			Start:   position(index, h.Range.Start),
			End:     position(index, h.Range.End),
			Entries: make([]ReportEntry, 0, len(h.Entries)),
		}

		for _, e := range h.Entries {
			hunk.Entries = append(hunk.Entries, ReportEntry{
				Kind:  e.Kind,
				Text:  e.Text,
				Range: e.Range,
				Start: position(index, e.Range.Start),
				End:   position(index, e.Range.End),
				Leaf:  e.Leaf,
			})
		}

		side.Hunks = append(side.Hunks, hunk)
	}

	return side
}

func position(index *LineIndex, offset int) Position {
	line, column := index.Position(offset)

	return Position{Line: line, Column: column}
}

// JSON renders a Report.
type JSON struct {
	Indent bool
}

// Render implements Renderer.
func (j JSON) Render(w io.Writer, in Input) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}

	err := enc.Encode(NewReport(in))
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}
