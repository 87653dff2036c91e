package document

import (
	"errors"
	"fmt"
)

// position formats a file/line prefix compiler-diagnostic style.
func position(file string, line int) string {
	if file == "" {
		return ""
	}
	return fmt.Sprintf("%s(%d): ", file, line)
}

// StructuralError reports a marker-sequencing violation: an unexpected or
// unmatched marker, illegal nesting, or a missing terminator.
type StructuralError struct {
	File string
	Line int
	Msg  string
}

func (e *StructuralError) Error() string {
	return position(e.File, e.Line) + e.Msg
}

// ChecksumMismatchError reports a protected output region that no longer
// matches its stored digest.
type ChecksumMismatchError struct {
	File string
	Line int
}

func (e *ChecksumMismatchError) Error() string {
	return position(e.File, e.Line) + "output has been edited! Delete old checksum to unprotect."
}

// GeneratorError reports a failure inside a chunk's generator code.
// Explicit marks errors raised deliberately through weft.error, as opposed
// to uncaught faults. The message carries file and line context only; the
// runtime's internal stack is never forwarded.
type GeneratorError struct {
	File     string
	Line     int
	Msg      string
	Explicit bool
}

func (e *GeneratorError) Error() string {
	return position(e.File, e.Line) + e.Msg
}

// UsageError reports an invalid option or option combination. It is
// run-scoped: no document is touched once one is raised.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Usagef builds a UsageError from a format string.
func Usagef(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// ErrCheckFailed is returned by a check-mode run that found drifted
// documents.
var ErrCheckFailed = errors.New("check failed")
