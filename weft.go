package weft

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/weftgen/weft/internal/logging"
	"github.com/weftgen/weft/pkg/checksum"
	"github.com/weftgen/weft/pkg/document"
	"github.com/weftgen/weft/pkg/generator"
	"github.com/weftgen/weft/pkg/scan"
	"github.com/weftgen/weft/pkg/whitespace"
)

// Engine drives a whole run: argument and file-list expansion, per-document
// processing, and outcome aggregation. Documents are processed in supplied
// order; a document-scoped failure is reported and the run moves on to the
// next document.
type Engine struct {
	opts   Options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger

	checkFailed bool
	firstErr    error
	results     []document.RunResult
}

// Option adjusts an Engine at construction time.
type Option func(*Engine)

// WithStreams replaces the standard streams, mainly for embedding and
// tests. Nil arguments keep the defaults.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		if stdin != nil {
			e.stdin = stdin
		}
		if stdout != nil {
			e.stdout = stdout
		}
		if stderr != nil {
			e.stderr = stderr
		}
	}
}

// WithLogger sets the logger used for internal debug logging.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine for one run. The options are validated up front:
// an invalid combination fails here, before any document is touched.
func New(opts Options, extra ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		opts:   opts,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    logging.NewNop(),
	}
	for _, opt := range extra {
		opt(e)
	}
	return e, nil
}

// Run processes every argument: literal paths, "-" for stdin, "@list" and
// "&list" file lists. Document-scoped failures are printed to stderr and
// the run continues; the returned error is the first fatal one (or
// ErrCheckFailed when a check run found drift) for exit-status mapping.
func (e *Engine) Run(args []string) error {
	if len(args) == 0 {
		return document.Usagef("no files to process")
	}
	for _, arg := range args {
		if err := e.processArgument("", arg, e.opts.Clone()); err != nil {
			return err
		}
	}
	if e.firstErr != nil {
		return reportedError{e.firstErr}
	}
	if e.checkFailed {
		return document.ErrCheckFailed
	}
	return nil
}

// reportedError wraps a failure that was already written to the error
// stream when it occurred, so callers don't print it twice.
type reportedError struct{ err error }

func (r reportedError) Error() string { return r.err.Error() }
func (r reportedError) Unwrap() error { return r.err }

// Reported tells whether Run already wrote err to the error stream.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// Results returns the per-document outcomes recorded so far, in
// processing order.
func (e *Engine) Results() []document.RunResult {
	return e.results
}

// ProcessString runs the engine over text as if it were the contents of a
// document named name, returning the regenerated text.
func (e *Engine) ProcessString(name, text string) (string, error) {
	return e.transform(name, name, text, e.opts.Clone())
}

// processDocument runs one document and records its outcome. Failures here
// are document-scoped: they never stop the run.
func (e *Engine) processDocument(path string, opts Options) {
	res, err := e.processOneFile(path, opts)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		if e.firstErr == nil {
			e.firstErr = err
		}
	}
	res.Name = path
	res.Err = err
	e.results = append(e.results, res)
}

// processOneFile reads, transforms, and persists a single document
// according to the run mode.
func (e *Engine) processOneFile(path string, opts Options) (document.RunResult, error) {
	// Generator modules living next to the document are importable.
	if path != "-" {
		opts.IncludePath = append(opts.IncludePath, filepath.Dir(path))
	}
	e.log.Debug("processing document", "file", path)

	text, style, err := e.readDocument(path, opts)
	if err != nil {
		return document.RunResult{}, err
	}

	switch {
	case opts.OutputName != "":
		newText, err := e.transform(path, opts.OutputName, text, opts)
		if err != nil {
			return document.RunResult{}, err
		}
		res := document.RunResult{Text: newText, Changed: newText != text}
		return res, e.writeNewFile(opts.OutputName, newText, opts, style)

	case opts.Replace || opts.Check:
		return e.regenerateInPlace(path, text, style, opts)

	default:
		newText, err := e.transform(path, path, text, opts)
		if err != nil {
			return document.RunResult{}, err
		}
		res := document.RunResult{Text: newText, Changed: newText != text}
		_, err = io.WriteString(e.stdout, newText)
		return res, err
	}
}

// regenerateInPlace handles the replace and check modes, which share the
// changed-detection and reporting protocol.
func (e *Engine) regenerateInPlace(path, text, style string, opts Options) (document.RunResult, error) {
	verb := "Weaving"
	if opts.Check {
		verb = "Checking"
	}
	// At verbosity 2 the file name goes out before processing so a fatal
	// error appears under the right heading; the line is finished either
	// by the changed tag or by a bare newline.
	needNewline := false
	if opts.Verbosity >= 2 {
		fmt.Fprintf(e.stdout, "%s %s", verb, path)
		needNewline = true
	}
	defer func() {
		if needNewline {
			fmt.Fprintln(e.stdout)
		}
	}()

	newText, err := e.transform(path, path, text, opts)
	if err != nil {
		return document.RunResult{}, err
	}
	res := document.RunResult{Text: newText, Changed: newText != text}
	if newText == text {
		return res, nil
	}
	if opts.Verbosity >= 1 {
		if opts.Verbosity < 2 {
			fmt.Fprintf(e.stdout, "%s %s", verb, path)
		}
		fmt.Fprintln(e.stdout, "  (changed)")
		needNewline = false
	}
	if opts.Replace {
		data, err := encodeText(newText, opts.Encoding, style, opts.UnixNewlines)
		if err != nil {
			return document.RunResult{}, err
		}
		return res, e.replaceFile(path, data, opts)
	}
	e.checkFailed = true
	if opts.Diff {
		e.printDiff(path, text, newText)
	}
	return res, nil
}

// transform is the per-document pipeline: scan into segments, run each
// chunk against the document-scoped namespace, and reassemble the text.
func (e *Engine) transform(name, outName, text string, opts Options) (string, error) {
	scanner := scan.New(opts.Markers, name, opts.EOFCanBeEnd)
	segments, err := scanner.Scan(document.SplitLines(text))
	if err != nil {
		return "", err
	}

	ctx := generator.NewContext(generator.Config{
		Defines:      opts.Defines,
		IncludePath:  opts.IncludePath,
		Prologue:     opts.Prologue,
		PrintCapture: opts.PrintCapture,
	})
	defer ctx.Close()
	guard := checksum.New(opts.Markers.EndOutput)

	var out strings.Builder
	sawChunk := false
	for _, seg := range segments {
		switch s := seg.(type) {
		case document.Passthrough:
			for _, line := range s.Lines {
				out.WriteString(line)
			}

		case *document.Chunk:
			sawChunk = true
			if !opts.DeleteCode {
				out.WriteString(s.StartLine)
				for _, line := range s.CodeLines {
					out.WriteString(line)
				}
				out.WriteString(s.EndCodeLine)
			}

			previous := s.PreviousText()
			if s.EndOutLine != "" {
				if err := guard.Validate(s.EndOutLine, checksum.SumText(previous)); err != nil {
					return "", &document.ChecksumMismatchError{File: name, Line: s.EndOutNum}
				}
			}

			var generated string
			if !opts.Excise {
				host := generator.NewHost(name, outName, s.FirstLine, previous, e.stdout)
				raw, err := ctx.Execute(s, host)
				if err != nil {
					return "", err
				}
				// A missing final newline would glue the end-of-output
				// marker onto generated text and break the next parse.
				if raw != "" && !strings.HasSuffix(raw, "\n") {
					raw += "\n"
				}
				generated = whitespace.Reindent(raw, s.OutputIndent())
				generated = suffixLines(generated, opts.Suffix)
			}
			out.WriteString(generated)

			if s.EndOutLine != "" && !opts.DeleteCode {
				out.WriteString(guard.Rewrite(s.EndOutLine, checksum.SumText(generated), opts.Checksum))
			}
		}
	}

	if !sawChunk && opts.WarnEmpty {
		fmt.Fprintf(e.stdout, "Warning: no weft code found in %s\n", name)
	}
	return out.String(), nil
}

// readDocument loads a document (or stdin for "-") and normalizes it.
func (e *Engine) readDocument(path string, opts Options) (text, style string, err error) {
	var raw []byte
	if path == "-" {
		raw, err = io.ReadAll(e.stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", "", err
	}
	return decodeText(raw, opts.Encoding)
}

// writeNewFile writes an explicit output target, creating parent
// directories as needed.
func (e *Engine) writeNewFile(path, text string, opts Options, style string) error {
	data, err := encodeText(text, opts.Encoding, style, opts.UnixNewlines)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// replaceFile rewrites path in place, running the writable hook first when
// the file is read-only.
func (e *Engine) replaceFile(path string, data []byte, opts Options) error {
	if !writable(path) {
		if opts.MakeWritableCmd == "" {
			return fmt.Errorf("can't overwrite %s", path)
		}
		cmd := strings.ReplaceAll(opts.MakeWritableCmd, "%s", path)
		e.log.Debug("running writable hook", "cmd", cmd)
		hookOut, _ := exec.Command("sh", "-c", cmd).Output()
		e.stdout.Write(hookOut)
		if !writable(path) {
			return fmt.Errorf("couldn't make %s writable", path)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// writable reports whether path can be opened for writing.
func writable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ExitCode maps a Run error to the process exit status: 0 success, 2 bad
// usage, 3 an explicit weft.error call, 4 an uncaught generator fault, 5
// check-mode drift, 1 anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue *document.UsageError
	if errors.As(err, &ue) {
		return 2
	}
	var ge *document.GeneratorError
	if errors.As(err, &ge) {
		if ge.Explicit {
			return 3
		}
		return 4
	}
	if errors.Is(err, document.ErrCheckFailed) {
		return 5
	}
	return 1
}
