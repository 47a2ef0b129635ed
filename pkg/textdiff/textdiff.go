// Package textdiff provides a line-based diff that produces the same hunk
// shape as the structural differ. It is used when a structural alignment is
// over budget and the caller opted into a coarser result.
package textdiff

import (
	"bytes"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
)

// LineKind is the entry kind used for every line entry.
const LineKind = "line"

// Lines diffs two texts line by line. Each maximal run of removed lines becomes
// an old hunk and each run of added lines a new hunk. Entry ranges exclude the
// line terminator.
func Lines(oldText, newText []byte) (oldHunks, newHunks []astdiff.Hunk) {
	if bytes.Equal(oldText, newText) {
		return nil, nil
	}

	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(string(oldText), string(newText))
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	oldLine, newLine := 0, 0

	for _, d := range diffs {
		count := len([]rune(d.Text))

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += count
			newLine += count
		case diffmatchpatch.DiffDelete:
			oldHunks = appendRun(oldHunks, oldText, oldLines[oldLine:oldLine+count])
			oldLine += count
		case diffmatchpatch.DiffInsert:
			newHunks = appendRun(newHunks, newText, newLines[newLine:newLine+count])
			newLine += count
		}
	}

	return oldHunks, newHunks
}

// appendRun adds a run of lines to hunks as a single hunk.
func appendRun(hunks []astdiff.Hunk, text []byte, lines []astdiff.Range) []astdiff.Hunk {
	if len(lines) == 0 {
		return hunks
	}

	entries := make([]astdiff.Entry, len(lines))
	for i, r := range lines {
		entries[i] = astdiff.Entry{Kind: LineKind, Text: string(text[r.Start:r.End]), Range: r, Leaf: true}
	}

	return append(hunks, astdiff.Hunk{
		Entries: entries,
		Range:   astdiff.Range{Start: lines[0].Start, End: lines[len(lines)-1].End},
	})
}

// splitLines returns the byte range of every line, without its "\n".
// A trailing newline does not start another line.
func splitLines(text []byte) []astdiff.Range {
	var lines []astdiff.Range

	start := 0

	for i, b := range text {
		if b == '\n' {
			lines = append(lines, astdiff.Range{Start: start, End: i})
			start = i + 1
		}
	}

	if start < len(text) {
		lines = append(lines, astdiff.Range{Start: start, End: len(text)})
	}

	return lines
}
