package weft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"
)

// nonBlankLine matches every line carrying at least one non-space
// character, for suffixing.
var nonBlankLine = regexp.MustCompile(`(?m)^[ \t]*\S.*$`)

// suffixLines appends suffix to every non-blank line of generated text.
// Blank lines stay untouched so the suffix never dangles alone.
func suffixLines(text, suffix string) string {
	if suffix == "" {
		return text
	}
	return nonBlankLine.ReplaceAllStringFunc(text, func(line string) string {
		return line + suffix
	})
}

// printDiff writes a unified diff between the document on disk and what a
// run would produce, colored when the destination supports it.
func (e *Engine) printDiff(path, oldText, newText string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: "current " + path,
		ToFile:   "changed " + path,
		Context:  3,
	})
	if err != nil {
		fmt.Fprintf(e.stderr, "diff failed for %s: %v\n", path, err)
		return
	}

	out := termenv.NewOutput(e.stdout)
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		styled := out.String(strings.TrimSuffix(line, "\n"))
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			styled = styled.Bold()
		case strings.HasPrefix(line, "@@"):
			styled = styled.Foreground(out.Color("6"))
		case strings.HasPrefix(line, "+"):
			styled = styled.Foreground(out.Color("2"))
		case strings.HasPrefix(line, "-"):
			styled = styled.Foreground(out.Color("1"))
		}
		fmt.Fprintln(out, styled)
	}
}
