package weft

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/weftgen/weft/pkg/document"
	"github.com/weftgen/weft/pkg/scan"
)

// Options configure one run. A run applies one mode uniformly to all of its
// documents; file-list entries may refine a clone of these options per
// entry.
type Options struct {
	Markers scan.Markers

	Checksum    bool // attach digests to output regions and verify them
	DeleteCode  bool // drop generator code and markers from the output
	WarnEmpty   bool // warn when a document has no chunks
	Excise      bool // remove previous output without running generators
	EOFCanBeEnd bool // the end-of-output marker may be omitted at EOF
	Replace     bool // rewrite the input file in place
	Check       bool // report drift instead of persisting
	Diff        bool // with Check, print a unified diff per drifted file

	OutputName      string // write output here instead of stdout
	Suffix          string // appended to every non-blank generated line
	Encoding        string // IANA name; empty or utf-8 means no conversion
	UnixNewlines    bool   // force "\n" line endings on write
	MakeWritableCmd string // shell command run when the target is read-only

	Defines      map[string]string // globals for generator code
	IncludePath  []string          // Lua module search directories
	Prologue     string            // source prepended to every chunk
	PrintCapture bool              // print() output becomes the chunk output

	Verbosity int // 2 lists all files, 1 only changed files, 0 none
}

// DefaultOptions returns the options a bare run uses.
func DefaultOptions() Options {
	return Options{
		Markers:   scan.Default(),
		Verbosity: 2,
	}
}

// Clone copies the options deeply enough that a file-list entry can refine
// them without touching its parent.
func (o Options) Clone() Options {
	c := o
	c.Defines = make(map[string]string, len(o.Defines))
	for k, v := range o.Defines {
		c.Defines[k] = v
	}
	c.IncludePath = append([]string(nil), o.IncludePath...)
	return c
}

// Validate rejects option combinations that would destroy input or make no
// sense together.
func (o Options) Validate() error {
	if o.Replace && o.DeleteCode {
		return document.Usagef("can't use --delete-code with --replace (or you would delete all your source)")
	}
	if o.Replace && o.OutputName != "" {
		return document.Usagef("can't use --output with --replace (they are opposites)")
	}
	if o.Diff && !o.Check {
		return document.Usagef("--diff requires --check")
	}
	if o.Verbosity < 0 || o.Verbosity > 2 {
		return document.Usagef("--verbosity must be 0, 1 or 2")
	}
	return nil
}

// BindFlags registers the per-document flags on a flag set, storing parsed
// values into o. The CLI and file-list entries share this definition, so an
// entry can override anything the command line can set.
func BindFlags(fs *pflag.FlagSet, o *Options) {
	fs.BoolVarP(&o.Checksum, "checksum", "c", o.Checksum,
		"checksum the output to protect it against accidental change")
	fs.BoolVarP(&o.DeleteCode, "delete-code", "d", o.DeleteCode,
		"delete the generator code from the output file")
	fs.BoolVarP(&o.WarnEmpty, "warn-empty", "e", o.WarnEmpty,
		"warn if a file has no generator code in it")
	fs.BoolVarP(&o.Excise, "excise", "x", o.Excise,
		"excise all generated output without running the generators")
	fs.BoolVarP(&o.EOFCanBeEnd, "eof-can-be-end", "z", o.EOFCanBeEnd,
		"the end-output marker can be omitted, and is assumed at eof")
	fs.BoolVarP(&o.Replace, "replace", "r", o.Replace,
		"replace the input file with the output")
	fs.StringVarP(&o.OutputName, "output", "o", o.OutputName,
		"write the output to this file")
	fs.StringVarP(&o.Suffix, "suffix", "s", o.Suffix,
		"suffix all generated output lines with a string")
	fs.StringVarP(&o.Encoding, "encoding", "n", o.Encoding,
		"use this encoding when reading and writing files")
	fs.BoolVarP(&o.UnixNewlines, "unix-newlines", "U", o.UnixNewlines,
		"write the output with Unix newlines (only LF line-endings)")
	fs.StringVarP(&o.MakeWritableCmd, "writable-cmd", "w", o.MakeWritableCmd,
		"run this command if the output file needs to be made writable (%s is the filename)")
	fs.StringVarP(&o.Prologue, "prologue", "p", o.Prologue,
		"prepend the generator source with this code")
	fs.BoolVarP(&o.PrintCapture, "print-capture", "P", o.PrintCapture,
		"use print() instead of weft.outl() for code output")
	fs.StringSliceVarP(&o.IncludePath, "include", "I", o.IncludePath,
		"add a directory to the module search path for generator code")

	fs.VarP(&defineFlag{o}, "define", "D",
		"define a global string available to your generator code (name=value)")
	fs.Var(&markersFlag{o}, "markers", "the three marker tokens, space separated")
}

// defineFlag accumulates repeated -D name=value definitions.
type defineFlag struct{ o *Options }

func (f *defineFlag) String() string { return "" }
func (f *defineFlag) Type() string   { return "name=value" }

func (f *defineFlag) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	if !ok {
		return document.Usagef("-D takes a name=value argument")
	}
	if f.o.Defines == nil {
		f.o.Defines = make(map[string]string)
	}
	f.o.Defines[name] = val
	return nil
}

// markersFlag parses the space-separated marker triple.
type markersFlag struct{ o *Options }

func (f *markersFlag) String() string { return "" }
func (f *markersFlag) Type() string   { return "string" }

func (f *markersFlag) Set(value string) error {
	m, err := scan.Parse(value)
	if err != nil {
		return err
	}
	f.o.Markers = m
	return nil
}
