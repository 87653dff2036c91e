// Package whitespace implements the indentation arithmetic used to move
// generator code and generated output between the document's indentation
// and a left-aligned form, without losing relative structure.
package whitespace

import "strings"

// isBlank reports whether a line contains only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// leadingWhite returns the run of leading whitespace characters in s.
// Tabs and spaces are distinct characters; no tab expansion happens here.
func leadingWhite(s string) string {
	for i, r := range s {
		if r != ' ' && r != '\t' && r != '\v' && r != '\f' {
			return s[:i]
		}
	}
	return s
}

// Prefix returns the whitespace prefix common to all non-blank lines.
// Blank lines are ignored so an empty separator line inside a block does
// not collapse the prefix to "".
func Prefix(lines []string) string {
	var prefix string
	first := true
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if first {
			prefix = leadingWhite(line)
			first = false
			continue
		}
		for i := 0; i < len(prefix); i++ {
			if i >= len(line) || prefix[i] != line[i] {
				prefix = prefix[:i]
				break
			}
		}
	}
	return prefix
}

// CommonPrefix returns the longest string that is a prefix of every string
// in the list. Unlike Prefix it considers all characters, not just
// whitespace, and does not skip blank lines.
func CommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	prefix := strs[0]
	for _, s := range strs {
		if len(s) < len(prefix) {
			prefix = prefix[:len(s)]
		}
		for i := 0; i < len(prefix); i++ {
			if prefix[i] != s[i] {
				prefix = prefix[:i]
				break
			}
		}
		if prefix == "" {
			return ""
		}
	}
	return prefix
}

// ReindentLines removes the common whitespace prefix from lines and applies
// newIndent to every line that is not empty afterwards. Relative
// indentation beyond the common prefix is preserved; blank lines stay blank.
func ReindentLines(lines []string, newIndent string) []string {
	oldIndent := Prefix(lines)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if oldIndent != "" {
			line = strings.Replace(line, oldIndent, "", 1)
		}
		if line != "" && newIndent != "" {
			line = newIndent + line
		}
		out = append(out, line)
	}
	return out
}

// Reindent splits text into lines, removes the common whitespace prefix,
// and re-indents with newIndent. The result joins the lines back with "\n".
func Reindent(text, newIndent string) string {
	return strings.Join(ReindentLines(strings.Split(text, "\n"), newIndent), "\n")
}

// Dedent is Reindent with an empty target indent: the block ends up
// left-aligned.
func Dedent(text string) string {
	return Reindent(text, "")
}
