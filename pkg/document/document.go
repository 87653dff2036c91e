// Package document holds the data model shared by the scanner, the
// generator runtime, and the processing engine: documents, their parsed
// segments, and the error taxonomy for a run.
package document

import (
	"strings"

	"github.com/weftgen/weft/pkg/whitespace"
)

// Document is the full text of one input, split into lines that keep their
// trailing newline. Newlines are normalized to "\n" on read; Style records
// what the file used so writes can restore it.
type Document struct {
	Name  string
	Lines []string
	Style string // "\n" or "\r\n"
}

// SplitLines splits text the way documents are modeled: each line keeps its
// "\n", and a trailing fragment without a newline is its own line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Segment is one parsed region of a document: either a Passthrough or a
// Chunk, in source order.
type Segment interface {
	segment()
}

// Passthrough is a run of literal lines copied to the output unchanged.
type Passthrough struct {
	Lines []string
}

func (Passthrough) segment() {}

// Chunk is a generator region: the marker lines, the code body, and the
// previous output captured from the last run. Raw lines keep their
// newlines so the document can be reassembled byte for byte.
type Chunk struct {
	StartLine   string   // raw start marker line
	CodeLines   []string // raw code body lines; empty for the compact form
	EndCodeLine string   // raw end-of-code marker line; empty for the compact form
	Previous    []string // raw previous-output lines
	EndOutLine  string   // raw end-of-output marker line; empty when implicit at EOF
	InlineCode  string   // code between the markers of a compact single-line chunk

	FirstLine int // line number of the start marker, 1-based
	EndOutNum int // line number of the end-of-output marker (or EOF)
	Compact   bool
}

func (*Chunk) segment() {}

// markerLines returns the marker lines present in source order, stripped of
// their newline. The compact form has a single marker line.
func (c *Chunk) markerLines() []string {
	markers := []string{strings.TrimRight(c.StartLine, "\n")}
	if !c.Compact {
		markers = append(markers, strings.TrimRight(c.EndCodeLine, "\n"))
	}
	return markers
}

// codeBody returns the code lines stripped of newlines; for the compact
// form it is the single inline fragment.
func (c *Chunk) codeBody() []string {
	if c.Compact {
		return []string{c.InlineCode}
	}
	body := make([]string, len(c.CodeLines))
	for i, l := range c.CodeLines {
		body[i] = strings.TrimRight(l, "\n")
	}
	return body
}

// Source extracts the executable code from the chunk. If the marker lines
// and code lines all share one literal prefix (a comment leader), it is
// stripped; otherwise the lines are left alone. The result is dedented so
// code runs left-aligned.
func (c *Chunk) Source() string {
	body := c.codeBody()
	lines := append(append([]string{}, c.markerLines()...), body...)
	leader := whitespace.CommonPrefix(lines)
	if leader != "" {
		stripped := make([]string, len(body))
		for i, l := range body {
			stripped[i] = strings.Replace(l, leader, "", 1)
		}
		body = stripped
	}
	return whitespace.Reindent(strings.Join(body, "\n"), "")
}

// OutputIndent returns the whitespace prefix generated output should carry:
// the indentation of the marker lines as they appear in the document,
// before any comment leader is stripped.
func (c *Chunk) OutputIndent() string {
	return whitespace.Prefix(c.markerLines())
}

// PreviousText returns the previous output region as one string.
func (c *Chunk) PreviousText() string {
	return strings.Join(c.Previous, "")
}

// RunResult is the outcome of processing one document.
type RunResult struct {
	Name    string
	Text    string // final reassembled text
	Changed bool
	Err     error // fatal diagnostic, nil on success
}
