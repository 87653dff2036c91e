package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f != nil {
		t.Errorf("expected nil for a missing file, got %+v", f)
	}
}

func TestLoadFullFile(t *testing.T) {
	dir := t.TempDir()
	body := `markers: "{{{gen }}} {{{done}}}"
checksum: true
verbosity: 1
suffix: " //generated"
defines:
  project: weft
include:
  - lua/lib
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Markers != "{{{gen }}} {{{done}}}" {
		t.Errorf("markers = %q", f.Markers)
	}
	if f.Checksum == nil || !*f.Checksum {
		t.Error("checksum not read")
	}
	if f.Verbosity == nil || *f.Verbosity != 1 {
		t.Error("verbosity not read")
	}
	if f.UnixNewlines != nil {
		t.Error("absent unix_newlines should stay nil")
	}
	if f.Defines["project"] != "weft" {
		t.Errorf("defines = %v", f.Defines)
	}
	if len(f.IncludePath) != 1 || f.IncludePath[0] != "lua/lib" {
		t.Errorf("include = %v", f.IncludePath)
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(":\t nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}
