package checksum

import (
	"strings"
	"testing"
)

const endMarker = "[[[end]]]"

func TestSumMatchesSumText(t *testing.T) {
	lines := []string{"one\n", "two\n"}
	if Sum(lines) != SumText("one\ntwo\n") {
		t.Error("Sum over lines and SumText over joined text disagree")
	}
}

func TestCompactLength(t *testing.T) {
	c := Compact(SumText("hello\n"))
	if len(c) != 10 {
		t.Errorf("Compact digest length = %d, want 10", len(c))
	}
}

func TestFindCompact(t *testing.T) {
	sum := Compact(SumText("hello\n"))
	line := "// [[[end]]] (sum: " + sum + ")\n"
	g := New(endMarker)
	ann, ok := g.Find(line)
	if !ok {
		t.Fatal("annotation not found")
	}
	if ann.Legacy {
		t.Error("compact annotation reported as legacy")
	}
	if ann.Value != sum {
		t.Errorf("Value = %q, want %q", ann.Value, sum)
	}
}

func TestFindLegacy(t *testing.T) {
	hexSum := SumText("hello\n")
	line := "// [[[end]]] (checksum: " + hexSum + ")\n"
	g := New(endMarker)
	ann, ok := g.Find(line)
	if !ok {
		t.Fatal("annotation not found")
	}
	if !ann.Legacy {
		t.Error("hex annotation not reported as legacy")
	}
	if ann.Value != hexSum {
		t.Errorf("Value = %q, want %q", ann.Value, hexSum)
	}
}

func TestFindNone(t *testing.T) {
	g := New(endMarker)
	if _, ok := g.Find("// [[[end]]]\n"); ok {
		t.Error("found an annotation on a bare marker line")
	}
}

func TestValidate(t *testing.T) {
	g := New(endMarker)
	hexSum := SumText("hello\n")

	compactLine := "// [[[end]]] (sum: " + Compact(hexSum) + ")\n"
	if err := g.Validate(compactLine, hexSum); err != nil {
		t.Errorf("compact validate failed: %v", err)
	}
	legacyLine := "// [[[end]]] (checksum: " + hexSum + ")\n"
	if err := g.Validate(legacyLine, hexSum); err != nil {
		t.Errorf("legacy validate failed: %v", err)
	}
	if err := g.Validate(compactLine, SumText("tampered\n")); err != ErrMismatch {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
	if err := g.Validate("// [[[end]]]\n", hexSum); err != nil {
		t.Errorf("bare line should validate, got %v", err)
	}
}

func TestRewriteAttach(t *testing.T) {
	g := New(endMarker)
	hexSum := SumText("hello\n")
	got := g.Rewrite("// [[[end]]]\n", hexSum, true)
	want := "// [[[end]]] (sum: " + Compact(hexSum) + ")\n"
	if got != want {
		t.Errorf("Rewrite = %q, want %q", got, want)
	}
}

func TestRewriteUpgradesLegacy(t *testing.T) {
	g := New(endMarker)
	oldHex := SumText("old\n")
	newHex := SumText("new\n")
	line := "// [[[end]]] (checksum: " + oldHex + ")\n"
	got := g.Rewrite(line, newHex, true)
	if strings.Contains(got, "checksum:") {
		t.Errorf("legacy form not upgraded: %q", got)
	}
	if !strings.Contains(got, "(sum: "+Compact(newHex)+")") {
		t.Errorf("new digest missing: %q", got)
	}
}

func TestRewriteDetach(t *testing.T) {
	g := New(endMarker)
	hexSum := SumText("hello\n")
	line := "// [[[end]]] (sum: " + Compact(hexSum) + ")\n"
	got := g.Rewrite(line, hexSum, false)
	if got != "// [[[end]]]\n" {
		t.Errorf("Rewrite = %q, want annotation removed", got)
	}
	if g.Rewrite("// [[[end]]]\n", hexSum, false) != "// [[[end]]]\n" {
		t.Error("bare line changed by detach")
	}
}
