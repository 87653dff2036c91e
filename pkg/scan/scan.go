// Package scan splits a document into passthrough segments and generator
// chunks, enforcing the marker-sequencing rules: chunks never nest, every
// start marker is matched, and output regions are terminated.
package scan

import (
	"fmt"
	"strings"

	"github.com/weftgen/weft/pkg/document"
)

// Markers is the triple of tokens that delimit a chunk. Each token is
// matched as a substring of a line, so markers can live inside comments of
// any host language.
type Markers struct {
	Start     string
	EndCode   string
	EndOutput string
}

// Default returns the standard marker triple.
func Default() Markers {
	return Markers{Start: "[[[weft", EndCode: "]]]", EndOutput: "[[[end]]]"}
}

// Parse builds a marker triple from a single space-separated option value.
func Parse(spec string) (Markers, error) {
	fields := strings.Split(spec, " ")
	if len(fields) != 3 {
		return Markers{}, document.Usagef(
			"--markers requires 3 values separated by spaces, could not parse %q", spec)
	}
	return Markers{Start: fields[0], EndCode: fields[1], EndOutput: fields[2]}, nil
}

func (m Markers) isStart(line string) bool {
	return strings.Contains(line, m.Start)
}

// The end-of-output token usually contains the end-of-code token (as in
// "]]]" inside "[[[end]]]"), so end-of-output is checked first.
func (m Markers) isEndCode(line string) bool {
	return strings.Contains(line, m.EndCode) && !m.isEndOutput(line)
}

func (m Markers) isEndOutput(line string) bool {
	return strings.Contains(line, m.EndOutput)
}

// Scanner parses one document's lines into segments.
type Scanner struct {
	markers  Markers
	file     string
	eofIsEnd bool // an omitted end-of-output marker is implied at EOF
}

// New creates a Scanner for a document. file is used in diagnostics only.
func New(markers Markers, file string, eofIsEnd bool) *Scanner {
	return &Scanner{markers: markers, file: file, eofIsEnd: eofIsEnd}
}

func (s *Scanner) structural(line int, format string, args ...any) error {
	return &document.StructuralError{
		File: s.file,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Scan splits lines (each keeping its newline) into an ordered list of
// segments. The first sequencing violation aborts the scan.
func (s *Scanner) Scan(lines []string) ([]document.Segment, error) {
	m := s.markers
	var segments []document.Segment
	var pass []string

	flush := func() {
		if len(pass) > 0 {
			segments = append(segments, document.Passthrough{Lines: pass})
			pass = nil
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !m.isStart(line) {
			if m.isEndCode(line) {
				return nil, s.structural(i+1, "unexpected %q", m.EndCode)
			}
			if m.isEndOutput(line) {
				return nil, s.structural(i+1, "unexpected %q", m.EndOutput)
			}
			pass = append(pass, line)
			i++
			continue
		}
		flush()

		chunk := &document.Chunk{StartLine: line, FirstLine: i + 1}
		if m.isEndCode(line) {
			// Compact single-line form: the code sits between the two
			// markers on the start line itself.
			beg := strings.Index(line, m.Start)
			end := strings.Index(line, m.EndCode)
			if beg > end {
				return nil, s.structural(chunk.FirstLine, "code markers inverted")
			}
			chunk.Compact = true
			chunk.InlineCode = strings.TrimSpace(line[beg+len(m.Start) : end])
			i++
		} else {
			i++
			for i < len(lines) && !m.isEndCode(lines[i]) {
				if m.isStart(lines[i]) {
					return nil, s.structural(i+1, "unexpected %q", m.Start)
				}
				if m.isEndOutput(lines[i]) {
					return nil, s.structural(i+1, "unexpected %q", m.EndOutput)
				}
				chunk.CodeLines = append(chunk.CodeLines, lines[i])
				i++
			}
			if i == len(lines) {
				return nil, s.structural(chunk.FirstLine, "generator block begun but never ended")
			}
			chunk.EndCodeLine = lines[i]
			i++
		}

		for i < len(lines) && !m.isEndOutput(lines[i]) {
			if m.isStart(lines[i]) {
				return nil, s.structural(i+1, "unexpected %q", m.Start)
			}
			if m.isEndCode(lines[i]) {
				return nil, s.structural(i+1, "unexpected %q", m.EndCode)
			}
			chunk.Previous = append(chunk.Previous, lines[i])
			i++
		}
		if i == len(lines) {
			if !s.eofIsEnd {
				return nil, s.structural(len(lines), "missing %q before end of file", m.EndOutput)
			}
			// Implicit end-of-output at EOF: EndOutLine stays empty.
			chunk.EndOutNum = len(lines)
		} else {
			chunk.EndOutLine = lines[i]
			chunk.EndOutNum = i + 1
			i++
		}
		segments = append(segments, chunk)
	}
	flush()
	return segments, nil
}
