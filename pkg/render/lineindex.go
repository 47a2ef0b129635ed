package render

import "sort"

// LineIndex maps byte offsets of a text to line and column numbers.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text []byte) *LineIndex {
	starts := []int{0}

	for i, b := range text {
		if b == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{starts: starts, size: len(text)}
}

// LineCount returns the number of lines. An empty text has one empty line.
func (li *LineIndex) LineCount() int { return len(li.starts) }

// Position returns the 1-based line and 1-based byte column of offset.
// Offsets past the end are clamped to the end of the text.
func (li *LineIndex) Position(offset int) (line, column int) {
	offset = max(0, min(offset, li.size))

	idx := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1

	return idx + 1, offset - li.starts[idx] + 1
}

// Line returns the byte bounds of a 1-based line of text, excluding its line
// terminator. text must be the text the index was built from.
func (li *LineIndex) Line(text []byte, line int) (start, end int) {
	start = li.starts[line-1]

	end = li.size
	if line < len(li.starts) {
		end = li.starts[line] - 1
	} else if end > start && text[end-1] == '\n' {
		end--
	}

	if end > start && text[end-1] == '\r' {
		end--
	}

	return start, end
}
