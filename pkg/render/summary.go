package render

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// Summary renders hunk and entry counts per side as a table.
type Summary struct{}

type sideTotals struct {
	hunks   int
	entries int
	bytes   uint64
	lines   int
}

func totals(doc Document) sideTotals {
	index := NewLineIndex(doc.Text)

	var st sideTotals

	for _, h := range doc.Hunks {
		st.hunks++
		st.entries += len(h.Entries)
		st.bytes += uint64(max(h.Range.Len(), 0)) //nolint:gosec // clamped to non-negative

		first, _ := index.Position(h.Range.Start)
		last, _ := index.Position(max(h.Range.End-1, h.Range.Start))
		st.lines += last - first + 1
	}

	return st
}

// Render implements Renderer.
func (Summary) Render(w io.Writer, in Input) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Side", "File", "Hunks", "Entries", "Lines", "Changed"})

	for _, side := range []struct {
		name string
		doc  Document
	}{{"old", in.Old}, {"new", in.New}} {
		st := totals(side.doc)
		tbl.AppendRow(table.Row{side.name, side.doc.Label, st.hunks, st.entries, st.lines, humanize.Bytes(st.bytes)})
	}

	footer := "structural"
	if in.Fallback {
		footer = "line fallback"
	}

	if in.Language != "" {
		footer = in.Language + ", " + footer
	}

	tbl.AppendFooter(table.Row{footer})

	out := tbl.Render()

	if kinds := Kinds(in); len(kinds) > 0 {
		kindTbl := newTable()
		kindTbl.AppendHeader(table.Row{"Kind", "Changed"})

		for _, kc := range kinds {
			kindTbl.AppendRow(table.Row{kc.Kind, kc.Count})
		}

		out += "\n\n" + kindTbl.Render()
	}

	_, err := fmt.Fprintln(w, out)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

// Kinds counts the changed entries of both sides by node kind, most frequent first.
func Kinds(in Input) []KindCount {
	counts := map[string]int{}

	for _, hunks := range [][]astdiff.Hunk{in.Old.Hunks, in.New.Hunks} {
		for _, h := range hunks {
			for _, e := range h.Entries {
				counts[e.Kind]++
			}
		}
	}

	out := make([]KindCount, 0, len(counts))
	for kind, n := range counts {
		out = append(out, KindCount{Kind: kind, Count: n})
	}

	slices.SortFunc(out, func(a, b KindCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}

		return strings.Compare(a.Kind, b.Kind)
	})

	return out
}

// KindCount is the number of changed entries of one kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Languages writes the supported languages and their extensions as a table.
func Languages(w io.Writer, langs []syntax.Language) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Language", "Extensions"})

	for _, lang := range langs {
		tbl.AppendRow(table.Row{lang.Name, strings.Join(lang.Extensions, ", ")})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d languages", len(langs))})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write languages: %w", err)
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}
