package generator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/weftgen/weft/pkg/document"
	"github.com/weftgen/weft/pkg/scan"
)

// chunkFor builds a one-chunk document around the given code lines.
func chunkFor(t *testing.T, code ...string) *document.Chunk {
	t.Helper()
	text := "//[[[weft\n"
	for _, l := range code {
		text += "//" + l + "\n"
	}
	text += "//]]]\n//[[[end]]]\n"
	segs, err := scan.New(scan.Default(), "test.txt", false).Scan(document.SplitLines(text))
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, seg := range segs {
		if c, ok := seg.(*document.Chunk); ok {
			return c
		}
	}
	t.Fatal("no chunk found")
	return nil
}

func run(t *testing.T, ctx *Context, chunk *document.Chunk) string {
	t.Helper()
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "", nil)
	out, err := ctx.Execute(chunk, h)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return out
}

func TestOutAndOutl(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t,
		`weft.out("a")`,
		`weft.out("b")`,
		`weft.outl("c")`,
	))
	if out != "abc\n" {
		t.Errorf("output = %q, want %q", out, "abc\n")
	}
}

func TestOutDedent(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t,
		`weft.out("  x\n    y\n", { dedent = true })`,
	))
	if out != "x\n  y\n" {
		t.Errorf("output = %q, want %q", out, "x\n  y\n")
	}
}

func TestOutTrimBlankLines(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t,
		`weft.out("\nhello\n\n", { trimblanklines = true })`,
	))
	if out != "hello\n" {
		t.Errorf("output = %q, want %q", out, "hello\n")
	}
}

func TestNamespacePersistsAcrossChunks(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	run(t, ctx, chunkFor(t, `answer = 42`, `function shout(s) return s .. "!" end`))
	out := run(t, ctx, chunkFor(t, `weft.outl(shout("got " .. answer))`))
	if out != "got 42!\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFreshContextIsIsolated(t *testing.T) {
	first := NewContext(Config{})
	run(t, first, chunkFor(t, `leaked = "yes"`))
	first.Close()

	second := NewContext(Config{})
	defer second.Close()
	out := run(t, second, chunkFor(t, `weft.outl(tostring(leaked))`))
	if out != "nil\n" {
		t.Errorf("output = %q, state leaked across contexts", out)
	}
}

func TestDefines(t *testing.T) {
	ctx := NewContext(Config{Defines: map[string]string{"version": "1.2.3"}})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t, `weft.outl(version)`))
	if out != "1.2.3\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPrologue(t *testing.T) {
	ctx := NewContext(Config{Prologue: `function greet(s) return "hi " .. s end`})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t, `weft.outl(greet("weft"))`))
	if out != "hi weft\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPrintCapture(t *testing.T) {
	ctx := NewContext(Config{PrintCapture: true})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t, `print("a", "b")`))
	if out != "a\tb\n" {
		t.Errorf("output = %q", out)
	}
}

func TestMsgSideChannel(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	var msgs bytes.Buffer
	chunk := chunkFor(t, `weft.msg("checking")`, `weft.outl("data")`)
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "", &msgs)
	out, err := ctx.Execute(chunk, h)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "data\n" {
		t.Errorf("output = %q, message leaked into output", out)
	}
	if msgs.String() != "Message: checking\n" {
		t.Errorf("msgs = %q", msgs.String())
	}
}

func TestPreviousAttribute(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	chunk := chunkFor(t, `weft.out(weft.previous)`)
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "old stuff\n", nil)
	out, err := ctx.Execute(chunk, h)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "old stuff\n" {
		t.Errorf("output = %q", out)
	}
}

func TestExplicitError(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	chunk := chunkFor(t, `weft.error("wrong phase of moon")`)
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "", nil)
	_, err := ctx.Execute(chunk, h)
	var ge *document.GeneratorError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeneratorError, got %v", err)
	}
	if !ge.Explicit {
		t.Error("explicit error not marked Explicit")
	}
	if ge.Msg != "wrong phase of moon" {
		t.Errorf("Msg = %q", ge.Msg)
	}
}

func TestCaughtExplicitErrorDoesNotMaskFault(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	// The generator swallows its own weft.error with pcall, then fails
	// for an unrelated reason. The reported error must be the real fault,
	// not the swallowed one.
	chunk := chunkFor(t,
		`pcall(weft.error, "swallowed")`,
		`error("the real problem")`,
	)
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "", nil)
	_, err := ctx.Execute(chunk, h)
	var ge *document.GeneratorError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeneratorError, got %v", err)
	}
	if ge.Explicit {
		t.Error("fault reported as an explicit error")
	}
	if !strings.Contains(ge.Msg, "the real problem") {
		t.Errorf("Msg = %q, want the propagated fault", ge.Msg)
	}
}

func TestUncaughtFault(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	chunk := chunkFor(t, `local x = nil`, `weft.out(x.field)`)
	h := NewHost("test.txt", "test.txt", chunk.FirstLine, "", nil)
	_, err := ctx.Execute(chunk, h)
	var ge *document.GeneratorError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeneratorError, got %v", err)
	}
	if ge.Explicit {
		t.Error("uncaught fault marked Explicit")
	}
	// The fault is on the second code line: start marker is line 1, so the
	// document line is 3.
	if ge.Line != 3 {
		t.Errorf("Line = %d, want 3", ge.Line)
	}
	if strings.Contains(ge.Msg, "stack traceback") {
		t.Errorf("Msg carries a traceback: %q", ge.Msg)
	}
}

func TestEmptyCodeProducesNoOutput(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t))
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestUnsafeLibrariesClosed(t *testing.T) {
	ctx := NewContext(Config{})
	defer ctx.Close()

	out := run(t, ctx, chunkFor(t, `weft.outl(tostring(io) .. " " .. tostring(os))`))
	if out != "nil nil\n" {
		t.Errorf("output = %q, io/os reachable from generator code", out)
	}
}
