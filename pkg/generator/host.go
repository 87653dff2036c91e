package generator

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/weftgen/weft/pkg/document"
	"github.com/weftgen/weft/pkg/whitespace"
)

// Host is the capability surface one chunk execution sees: an output sink,
// a diagnostic side channel, and the read-only attributes of the chunk.
type Host struct {
	InputPath  string
	OutputPath string
	FirstLine  int    // line number of the chunk's start marker
	Previous   string // the previous run's output for this exact chunk
	Msgs       io.Writer

	pending  strings.Builder
	printed  strings.Builder
	explicit *document.GeneratorError
}

// NewHost creates the host for one chunk. msgs receives weft.msg output;
// it is never mixed into generated text.
func NewHost(inputPath, outputPath string, firstLine int, previous string, msgs io.Writer) *Host {
	if msgs == nil {
		msgs = io.Discard
	}
	return &Host{
		InputPath:  inputPath,
		OutputPath: outputPath,
		FirstLine:  firstLine,
		Previous:   previous,
		Msgs:       msgs,
	}
}

// luaOut implements weft.out and weft.outl. The optional second argument
// is a table of flags: dedent removes the common leading whitespace,
// trimblanklines drops one leading and one trailing blank line.
func (h *Host) luaOut(L *lua.LState, newline bool) int {
	text := L.OptString(1, "")
	if opts := L.OptTable(2, nil); opts != nil {
		if lua.LVAsBool(opts.RawGetString("trimblanklines")) {
			text = trimBlankLines(text)
		}
		if lua.LVAsBool(opts.RawGetString("dedent")) {
			text = whitespace.Dedent(text)
		}
	}
	h.pending.WriteString(text)
	if newline {
		h.pending.WriteString("\n")
	}
	return 0
}

// trimBlankLines removes one leading and one trailing blank line from a
// multi-line string. Single-line strings pass through untouched.
func trimBlankLines(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	if strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

// luaMsg implements weft.msg: a diagnostic line on the side channel.
func (h *Host) luaMsg(L *lua.LState) int {
	fmt.Fprintf(h.Msgs, "Message: %s\n", L.OptString(1, ""))
	return 0
}

// luaError implements weft.error: abort the chunk with a plain user-facing
// message instead of a Lua stack unwind.
func (h *Host) luaError(L *lua.LState) int {
	msg := L.OptString(1, "error raised by generator")
	h.explicit = &document.GeneratorError{
		File:     h.InputPath,
		Line:     h.FirstLine,
		Msg:      msg,
		Explicit: true,
	}
	L.RaiseError("%s", msg)
	return 0
}

// luaPrint replaces the global print when print-capture mode is on. Output
// mirrors Lua's print: arguments joined with tabs, newline terminated.
func (h *Host) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	for i := 1; i <= top; i++ {
		if i > 1 {
			h.printed.WriteString("\t")
		}
		h.printed.WriteString(L.ToStringMeta(L.Get(i)).String())
	}
	h.printed.WriteString("\n")
	return 0
}
