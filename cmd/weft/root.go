package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftgen/weft"
	"github.com/weftgen/weft/internal/config"
	"github.com/weftgen/weft/internal/logging"
	"github.com/weftgen/weft/pkg/document"
	"github.com/weftgen/weft/pkg/scan"
)

// Version information (set via ldflags during build).
var version = "dev"

func newRootCmd() (*cobra.Command, *weft.Options) {
	opts := weft.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "weft [flags] [FILE | @FILELIST | &FILELIST | -] ...",
		Short: "weft regenerates text from Lua code embedded in your files",
		Long: `weft scans files for regions of Lua generator code between marker lines,
runs the code, and splices its output back into the file. FILE may be '-'
to read from stdin. @FILELIST names a file of further files and options,
resolved against the working directory; &FILELIST resolves entries against
the list file's own location.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, &opts)
			return runWeft(cmd, &opts, args)
		},
	}

	// Flag mistakes are usage errors, with the exit status to match.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return document.Usagef("%v", err)
	})

	flags := cmd.Flags()
	weft.BindFlags(flags, &opts)
	flags.BoolVar(&opts.Check, "check", opts.Check,
		"check that the files would not change if run again")
	flags.BoolVar(&opts.Diff, "diff", opts.Diff,
		"with --check, show a unified diff of what would change")
	flags.IntVar(&opts.Verbosity, "verbosity", opts.Verbosity,
		"amount of output: 2 lists all files, 1 only changed files, 0 none")
	flags.BoolP("debug", "", false, "enable debug logging")

	return cmd, &opts
}

// applyConfigDefaults folds .weft.yaml into the options for every flag the
// user did not set explicitly.
func applyConfigDefaults(cmd *cobra.Command, opts *weft.Options) {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		return
	}
	if cfg == nil {
		return
	}

	changed := cmd.Flags().Changed
	if cfg.Markers != "" && !changed("markers") {
		if m, err := scan.Parse(cfg.Markers); err == nil {
			opts.Markers = m
		}
	}
	if cfg.Checksum != nil && !changed("checksum") {
		opts.Checksum = *cfg.Checksum
	}
	if cfg.Verbosity != nil && !changed("verbosity") {
		opts.Verbosity = *cfg.Verbosity
	}
	if cfg.Suffix != "" && !changed("suffix") {
		opts.Suffix = cfg.Suffix
	}
	if cfg.Encoding != "" && !changed("encoding") {
		opts.Encoding = cfg.Encoding
	}
	if cfg.UnixNewlines != nil && !changed("unix-newlines") {
		opts.UnixNewlines = *cfg.UnixNewlines
	}
	if cfg.Prologue != "" && !changed("prologue") {
		opts.Prologue = cfg.Prologue
	}
	if len(cfg.IncludePath) > 0 && !changed("include") {
		opts.IncludePath = append(cfg.IncludePath, opts.IncludePath...)
	}
	for name, value := range cfg.Defines {
		if opts.Defines == nil {
			opts.Defines = make(map[string]string)
		}
		if _, set := opts.Defines[name]; !set {
			opts.Defines[name] = value
		}
	}
}

func runWeft(cmd *cobra.Command, opts *weft.Options, args []string) error {
	level := slog.LevelWarn
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	eng, err := weft.New(*opts,
		weft.WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		weft.WithLogger(logging.New(level)),
	)
	if err != nil {
		return err
	}
	return eng.Run(args)
}

func run() int {
	cmd, _ := newRootCmd()
	err := cmd.Execute()
	if err != nil && !weft.Reported(err) {
		fmt.Fprintln(os.Stderr, err)
		var ue *document.UsageError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, "(for help use --help)")
		}
	}
	return weft.ExitCode(err)
}
