package weft

import (
	"testing"

	"github.com/spf13/pflag"
)

func parseFlags(t *testing.T, args ...string) (Options, error) {
	t.Helper()
	opts := DefaultOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, &opts)
	err := fs.Parse(args)
	return opts, err
}

func TestBindFlagsParsing(t *testing.T) {
	opts, err := parseFlags(t,
		"-c", "-z",
		"-D", "who=world",
		"-D", "greeting=hi",
		"-s", " //gen",
		"--markers", "{{{gen }}} {{{done}}}",
		"-I", "lua/lib",
	)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !opts.Checksum || !opts.EOFCanBeEnd {
		t.Errorf("bool flags not set: %+v", opts)
	}
	if opts.Defines["who"] != "world" || opts.Defines["greeting"] != "hi" {
		t.Errorf("defines = %v", opts.Defines)
	}
	if opts.Suffix != " //gen" {
		t.Errorf("suffix = %q", opts.Suffix)
	}
	if opts.Markers.Start != "{{{gen" || opts.Markers.EndCode != "}}}" || opts.Markers.EndOutput != "{{{done}}}" {
		t.Errorf("markers = %+v", opts.Markers)
	}
	if len(opts.IncludePath) != 1 || opts.IncludePath[0] != "lua/lib" {
		t.Errorf("include path = %v", opts.IncludePath)
	}
}

func TestBindFlagsLongForms(t *testing.T) {
	opts, err := parseFlags(t,
		"--replace",
		"--define", "name=value",
		"--suffix", "!",
		"--writable-cmd", "chmod +w %s",
	)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !opts.Replace || opts.Defines["name"] != "value" || opts.Suffix != "!" {
		t.Errorf("options = %+v", opts)
	}
	if opts.MakeWritableCmd != "chmod +w %s" {
		t.Errorf("writable cmd = %q", opts.MakeWritableCmd)
	}
}

func TestBindFlagsBadDefine(t *testing.T) {
	if _, err := parseFlags(t, "-D", "noequals"); err == nil {
		t.Error("expected an error for a define without '='")
	}
}

func TestBindFlagsBadMarkers(t *testing.T) {
	if _, err := parseFlags(t, "--markers", "only two"); err == nil {
		t.Error("expected an error for a short marker triple")
	}
}
