// Package generator executes a chunk's code against a document-scoped Lua
// namespace, exposing the host API generator code uses to emit output.
//
// One Context wraps one gopher-lua state. The state is created with only
// the safe standard libraries open (base, table, string, math, and package
// for require); io, os, and debug stay closed.
package generator

import (
	"fmt"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/weftgen/weft/pkg/document"
)

// Config carries the run options the runtime cares about.
type Config struct {
	Defines      map[string]string // named string constants bound as globals
	IncludePath  []string          // directories added to package.path
	Prologue     string            // source prepended to every chunk
	PrintCapture bool              // route print() into the chunk output
}

// Context is the namespace shared by every chunk of one document. It must
// never be reused for another document; the engine creates a fresh Context
// per document and closes it when the document finishes.
type Context struct {
	l             *lua.LState
	cfg           Config
	table         *lua.LTable
	host          *Host
	prologueLines int
}

// NewContext creates a document-scoped runtime with defines bound and the
// host table installed as the global "weft".
func NewContext(cfg Config) *Context {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	c := &Context{l: L, cfg: cfg}
	if cfg.Prologue != "" {
		c.prologueLines = strings.Count(cfg.Prologue, "\n") + 1
	}

	c.addIncludePath(cfg.IncludePath)

	for name, value := range cfg.Defines {
		L.SetGlobal(name, lua.LString(value))
	}

	c.table = L.NewTable()
	c.registerHostFuncs()
	L.SetGlobal("weft", c.table)

	return c
}

// openSafeLibraries opens only the Lua standard libraries that cannot touch
// the filesystem or the process.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// package is opened for require; what require can reach is governed by
	// package.path, seeded from the include-path option.
	lua.OpenPackage(L)
}

// addIncludePath prepends directories to the Lua module search path.
func (c *Context) addIncludePath(dirs []string) {
	if len(dirs) == 0 {
		return
	}
	pkg, ok := c.l.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	var sb strings.Builder
	for _, dir := range dirs {
		fmt.Fprintf(&sb, "%s/?.lua;%s/?/init.lua;", dir, dir)
	}
	current := lua.LVAsString(pkg.RawGetString("path"))
	pkg.RawSetString("path", lua.LString(sb.String()+current))
}

// Close releases the Lua state. The Context is unusable afterwards.
func (c *Context) Close() {
	c.l.Close()
}

// registerHostFuncs installs the output and diagnostic functions on the
// weft table. The closures dispatch through c.host, which Execute points
// at the current chunk.
func (c *Context) registerHostFuncs() {
	c.table.RawSetString("out", c.l.NewFunction(func(L *lua.LState) int {
		return c.host.luaOut(L, false)
	}))
	c.table.RawSetString("outl", c.l.NewFunction(func(L *lua.LState) int {
		return c.host.luaOut(L, true)
	}))
	c.table.RawSetString("msg", c.l.NewFunction(func(L *lua.LState) int {
		return c.host.luaMsg(L)
	}))
	c.table.RawSetString("error", c.l.NewFunction(func(L *lua.LState) int {
		return c.host.luaError(L)
	}))
}

// bindChunk exposes the per-chunk read-only attributes.
func (c *Context) bindChunk(h *Host) {
	c.host = h
	c.table.RawSetString("inputPath", lua.LString(h.InputPath))
	c.table.RawSetString("outputPath", lua.LString(h.OutputPath))
	c.table.RawSetString("firstLineNumber", lua.LNumber(h.FirstLine))
	c.table.RawSetString("previous", lua.LString(h.Previous))

	if c.cfg.PrintCapture {
		c.l.SetGlobal("print", c.l.NewFunction(h.luaPrint))
	}
}

// Execute runs one chunk's code in the shared namespace and returns the raw
// generated text. Values and functions defined by earlier chunks of the
// same document remain visible.
func (c *Context) Execute(chunk *document.Chunk, h *Host) (string, error) {
	src := chunk.Source()
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	if c.cfg.Prologue != "" {
		src = c.cfg.Prologue + "\n" + src
	}

	c.bindChunk(h)

	fn, err := c.l.Load(strings.NewReader(src), h.InputPath)
	if err != nil {
		return "", c.generatorError(chunk, err)
	}
	c.l.Push(fn)
	if err := c.l.PCall(0, 0, nil); err != nil {
		// A weft.error caught by the generator's own pcall must not mask
		// a later unrelated fault, so the recorded explicit error counts
		// only when its message is the one that propagated out.
		if h.explicit != nil && strings.Contains(faultMessage(err), h.explicit.Msg) {
			return "", h.explicit
		}
		return "", c.generatorError(chunk, err)
	}

	if c.cfg.PrintCapture {
		return h.printed.String(), nil
	}
	return h.pending.String(), nil
}

// faultMessage extracts the Lua-level message from a PCall failure.
func faultMessage(err error) string {
	if apiErr, ok := err.(*lua.ApiError); ok {
		return apiErr.Object.String()
	}
	return err.Error()
}

// luaPosition matches the "source:line:" prefix Lua puts on messages.
var luaPosition = regexp.MustCompile(`^(.*):(\d+): ?(.*)$`)

// generatorError converts a Lua fault into a GeneratorError with the line
// number mapped back into the host document. The Lua stack trace is
// dropped on purpose: generator authors get a compiler-style one-liner.
func (c *Context) generatorError(chunk *document.Chunk, err error) error {
	msg := faultMessage(err)

	line := chunk.FirstLine
	if m := luaPosition.FindStringSubmatch(msg); m != nil {
		var luaLine int
		fmt.Sscanf(m[2], "%d", &luaLine)
		line = chunk.FirstLine + luaLine - c.prologueLines
		if chunk.Compact {
			line--
		}
		msg = m[3]
	}

	return &document.GeneratorError{
		File: c.host.InputPath,
		Line: line,
		Msg:  msg,
	}
}
