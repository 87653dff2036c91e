// Package checksum protects generated output regions against accidental
// hand edits. A digest of the region is stored in a small annotation on the
// end-of-output marker line and verified on the next run.
package checksum

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMismatch is returned when the stored digest does not match the output
// region actually present in the document.
var ErrMismatch = errors.New("output has been edited! Delete old checksum to unprotect")

// compactLen is the length of the base64 form stored in new annotations.
const compactLen = 10

// Guard recognizes, validates, and rewrites digest annotations attached to
// a specific end-of-output marker.
//
// Two encodings are accepted on read: the legacy long form
// "(checksum: <32 hex>)" and the compact form "(sum: <10 base64>)". Writes
// always produce the compact form, so legacy annotations upgrade on the
// next checksummed run.
type Guard struct {
	endOutput string
	re        *regexp.Regexp
}

// New creates a Guard for the given end-of-output marker token.
func New(endOutput string) *Guard {
	pat := regexp.QuoteMeta(endOutput) +
		`(?P<section> *\((?:checksum: (?P<hex>[a-f0-9]{32})|sum: (?P<b64>[A-Za-z0-9+/]{10}))\))`
	return &Guard{
		endOutput: endOutput,
		re:        regexp.MustCompile(pat),
	}
}

// Sum computes the hex digest of an output region given as raw lines.
func Sum(lines []string) string {
	h := md5.New()
	for _, line := range lines {
		h.Write([]byte(line))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SumText computes the hex digest of an output region given as one string.
func SumText(text string) string {
	h := md5.New()
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Compact converts a hex digest to the short base64 form used in new
// annotations.
func Compact(hexSum string) string {
	raw, err := hex.DecodeString(hexSum)
	if err != nil {
		// Sum and SumText only ever hand us valid hex.
		panic(fmt.Sprintf("checksum: bad hex digest %q", hexSum))
	}
	return base64.StdEncoding.EncodeToString(raw)[:compactLen]
}

// Annotation is a digest annotation found on an end-of-output marker line.
type Annotation struct {
	Section string // the full matched text after the marker, including leading spaces
	Value   string // the stored digest, hex or base64 depending on Legacy
	Legacy  bool   // true for the long hex form
}

// Find extracts the digest annotation from an end-of-output line, if any.
func (g *Guard) Find(line string) (Annotation, bool) {
	m := g.re.FindStringSubmatch(line)
	if m == nil {
		return Annotation{}, false
	}
	section := m[g.re.SubexpIndex("section")]
	if hx := m[g.re.SubexpIndex("hex")]; hx != "" {
		return Annotation{Section: section, Value: hx, Legacy: true}, true
	}
	return Annotation{Section: section, Value: m[g.re.SubexpIndex("b64")]}, true
}

// Validate checks the annotation on line, if present, against the hex
// digest of the region actually found in the document. A missing annotation
// always validates.
func (g *Guard) Validate(line, actualHex string) error {
	ann, ok := g.Find(line)
	if !ok {
		return nil
	}
	if ann.Legacy {
		if ann.Value != actualHex {
			return ErrMismatch
		}
		return nil
	}
	if ann.Value != Compact(actualHex) {
		return ErrMismatch
	}
	return nil
}

// Rewrite returns the end-of-output line updated for the new region digest.
// With attach set, the line carries a compact annotation for newHex,
// replacing any previous annotation regardless of its encoding. Without
// attach, any existing annotation is removed. Everything else on the line
// is preserved.
func (g *Guard) Rewrite(line, newHex string, attach bool) string {
	ann, found := g.Find(line)
	if !attach {
		if found {
			return strings.Replace(line, ann.Section, "", 1)
		}
		return line
	}
	formatted := fmt.Sprintf("%s (sum: %s)", g.endOutput, Compact(newHex))
	if found {
		old := g.endOutput + ann.Section
		pieces := strings.SplitN(line, old, 2)
		return strings.Join(pieces, formatted)
	}
	pieces := strings.SplitN(line, g.endOutput, 2)
	return strings.Join(pieces, formatted)
}
