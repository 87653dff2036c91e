package weft

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/shlex"
	"github.com/spf13/pflag"

	"github.com/weftgen/weft/pkg/document"
)

// processArgument dispatches one run argument: a file-list reference or a
// document pattern. baseDir is the directory relative paths resolve
// against; empty means the invoking working directory.
func (e *Engine) processArgument(baseDir, arg string, opts Options) error {
	switch {
	case strings.HasPrefix(arg, "@"):
		if opts.OutputName != "" {
			return document.Usagef("can't use --output with @file")
		}
		// Entries of an @list resolve like the invocation itself.
		return e.processFileList(resolvePath(baseDir, arg[1:]), baseDir, opts)

	case strings.HasPrefix(arg, "&"):
		if opts.OutputName != "" {
			return document.Usagef("can't use --output with &file")
		}
		// Entries of an &list resolve relative to the list file itself.
		list := resolvePath(baseDir, arg[1:])
		return e.processFileList(list, filepath.Dir(list), opts)

	default:
		return e.processPattern(baseDir, arg, opts)
	}
}

// processFileList runs every entry of a list file. Each entry is a target
// optionally followed by flag overrides, shell-quoted; lines whose first
// token starts with "#" are comments. List-file problems are run-scoped
// fatal, unlike failures of the documents the list names.
func (e *Engine) processFileList(path, entryBase string, opts Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file list: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields, err := shlex.Split(trimmed)
		if err != nil {
			return document.Usagef("bad file list line %q in %s: %v", trimmed, path, err)
		}
		if len(fields) == 0 {
			continue
		}

		entryOpts := opts.Clone()
		if len(fields) > 1 {
			fs := pflag.NewFlagSet(path, pflag.ContinueOnError)
			fs.SetOutput(e.stderr)
			BindFlags(fs, &entryOpts)
			if err := fs.Parse(fields[1:]); err != nil {
				return document.Usagef("bad options for %q in %s: %v", fields[0], path, err)
			}
			if err := entryOpts.Validate(); err != nil {
				return err
			}
		}
		if err := e.processArgument(entryBase, fields[0], entryOpts); err != nil {
			return err
		}
	}
	return nil
}

// processPattern expands a glob pattern and processes every match; a
// pattern matching nothing is processed as a literal name so the missing
// file surfaces as a per-document error.
func (e *Engine) processPattern(baseDir, pattern string, opts Options) error {
	full := resolvePath(baseDir, pattern)
	if full == "-" {
		e.processDocument(full, opts)
		return nil
	}
	matches, err := doublestar.FilepathGlob(full)
	if err != nil || len(matches) == 0 {
		e.processDocument(full, opts)
		return nil
	}
	for _, match := range matches {
		e.processDocument(match, opts)
	}
	return nil
}

// resolvePath joins a relative path onto baseDir; absolute paths and the
// stdin sentinel pass through.
func resolvePath(baseDir, path string) string {
	if baseDir == "" || path == "-" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
