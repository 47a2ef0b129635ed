package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
)

var foregrounds = map[string]color.Attribute{
	"black":      color.FgBlack,
	"red":        color.FgRed,
	"green":      color.FgGreen,
	"yellow":     color.FgYellow,
	"blue":       color.FgBlue,
	"magenta":    color.FgMagenta,
	"cyan":       color.FgCyan,
	"white":      color.FgWhite,
	"hi-black":   color.FgHiBlack,
	"hi-red":     color.FgHiRed,
	"hi-green":   color.FgHiGreen,
	"hi-yellow":  color.FgHiYellow,
	"hi-blue":    color.FgHiBlue,
	"hi-magenta": color.FgHiMagenta,
	"hi-cyan":    color.FgHiCyan,
	"hi-white":   color.FgHiWhite,
}

// bgOffset turns an ANSI foreground attribute into its background counterpart.
const bgOffset = color.BgBlack - color.FgBlack

// Terminal renders hunks as colored, line oriented text. Changed nodes are
// emphasized within their lines.
type Terminal struct {
	Style  config.FormattingConfig
	Policy ColorPolicy
}

type sideStyle struct {
	prefix   string
	line     *color.Color
	emphasis *color.Color
	header   *color.Color
}

func (t *Terminal) newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)

	switch t.Policy {
	case ColorOn:
		c.EnableColor()
	case ColorOff:
		c.DisableColor()
	case ColorAuto:
	}

	return c
}

func (t *Terminal) side(s config.StyleConfig) sideStyle {
	var attrs []color.Attribute

	if fg, ok := foregrounds[s.Color]; ok {
		attrs = append(attrs, fg)
	}

	emphasis := append([]color.Attribute{}, attrs...)

	if s.Bold {
		emphasis = append(emphasis, color.Bold)
	}

	if s.Underline {
		emphasis = append(emphasis, color.Underline)
	}

	if bg, ok := foregrounds[s.Highlight]; ok {
		emphasis = append(emphasis, bg+bgOffset)
	}

	return sideStyle{
		prefix:   s.Prefix,
		line:     t.newColor(attrs...),
		emphasis: t.newColor(emphasis...),
		header:   t.newColor(append(attrs, color.Bold)...),
	}
}

// Render implements Renderer. Nothing is written when there are no hunks.
func (t *Terminal) Render(w io.Writer, in Input) error {
	if !in.Changed() {
		return nil
	}

	oldStyle := t.side(t.Style.Deletion)
	newStyle := t.side(t.Style.Addition)
	title := t.newColor(color.FgCyan)

	var out strings.Builder

	out.WriteString(oldStyle.header.Sprintf("--- %s", in.Old.Label) + "\n")
	out.WriteString(newStyle.header.Sprintf("+++ %s", in.New.Label) + "\n")

	if in.Fallback {
		out.WriteString(t.newColor(color.FgYellow).Sprint("structural diff exceeded its budget, showing a line diff") + "\n")
	}

	oldSide := t.newSide(in.Old, oldStyle, "-")
	newSide := t.newSide(in.New, newStyle, "+")

	i, j := 0, 0
	for i < len(in.Old.Hunks) || j < len(in.New.Hunks) {
		takeOld := j == len(in.New.Hunks) ||
			(i < len(in.Old.Hunks) && oldSide.firstLine(in.Old.Hunks[i]) <= newSide.firstLine(in.New.Hunks[j]))

		if takeOld {
			oldSide.writeHunk(&out, in.Old.Hunks[i], title, t.Style.ContextLines)
			i++
		} else {
			newSide.writeHunk(&out, in.New.Hunks[j], title, t.Style.ContextLines)
			j++
		}
	}

	_, err := io.WriteString(w, out.String())
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

// sideWriter renders the hunks of one document.
type sideWriter struct {
	doc    Document
	index  *LineIndex
	style  sideStyle
	marker string
}

func (t *Terminal) newSide(doc Document, style sideStyle, marker string) *sideWriter {
	return &sideWriter{doc: doc, index: NewLineIndex(doc.Text), style: style, marker: marker}
}

func (s *sideWriter) firstLine(h astdiff.Hunk) int {
	line, _ := s.index.Position(h.Range.Start)

	return line
}

func (s *sideWriter) lastLine(h astdiff.Hunk) int {
	line, _ := s.index.Position(max(h.Range.End-1, h.Range.Start))

	return line
}

func (s *sideWriter) writeHunk(out *strings.Builder, h astdiff.Hunk, title *color.Color, contextLines int) {
	first, last := s.firstLine(h), s.lastLine(h)

	header := fmt.Sprintf("@@ %s%d @@", s.marker, first)
	if last > first {
		header = fmt.Sprintf("@@ %s%d,%d @@", s.marker, first, last-first+1)
	}

	out.WriteString(title.Sprint(header) + "\n")

	emphasized := leafRanges(h)

	for line := max(1, first-contextLines); line < first; line++ {
		s.writeContext(out, line)
	}

	for line := first; line <= last; line++ {
		start, end := s.index.Line(s.doc.Text, line)
		s.writeChanged(out, start, end, emphasized)
	}

	for line := last + 1; line <= min(s.index.LineCount(), last+contextLines); line++ {
		s.writeContext(out, line)
	}
}

func (s *sideWriter) writeContext(out *strings.Builder, line int) {
	start, end := s.index.Line(s.doc.Text, line)

	out.WriteString(strings.Repeat(" ", len(s.style.prefix)))
	out.Write(s.doc.Text[start:end])
	out.WriteString("\n")
}

func (s *sideWriter) writeChanged(out *strings.Builder, start, end int, emphasized []astdiff.Range) {
	text := s.doc.Text

	out.WriteString(s.style.line.Sprint(s.style.prefix))

	pos := start

	for _, r := range emphasized {
		from, to := max(r.Start, pos), min(r.End, end)
		if from >= to {
			continue
		}

		if from > pos {
			out.WriteString(s.style.line.Sprint(string(text[pos:from])))
		}

		out.WriteString(s.style.emphasis.Sprint(string(text[from:to])))
		pos = to
	}

	if pos < end {
		out.WriteString(s.style.line.Sprint(string(text[pos:end])))
	}

	out.WriteString("\n")
}

// leafRanges returns the ranges of the leaf entries of a hunk. Interior
// entries are left out so that matched descendants of a removed node are not
// highlighted.
func leafRanges(h astdiff.Hunk) []astdiff.Range {
	var ranges []astdiff.Range

	for _, e := range h.Entries {
		if e.Leaf && e.Range.Len() > 0 {
			ranges = append(ranges, e.Range)
		}
	}

	return ranges
}
