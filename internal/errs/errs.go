// Package errs is the error taxonomy shared by the preparation pipeline.
//
// Every failure surfaced to a command carries a Kind so callers can tell a
// malformed input apart from a misbehaving external tool, a filesystem
// problem, or two datasets that don't line up.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an error.
type Kind int

const (
	// Other is the zero Kind, for errors outside the taxonomy.
	Other Kind = iota

	// InputFormat is a malformed FASTA header, mismatched sequence and
	// structure lengths, an unmapped structural symbol, or an unparseable row.
	InputFormat

	// ExternalTool is a non-zero exit or an unexpected output shape from the
	// folding or annotation executables.
	ExternalTool

	// IO is a missing file or an unwritable output location.
	IO

	// ShapeMismatch is a disagreement in record counts, ids or tensor shapes
	// between datasets that are merged or joined.
	ShapeMismatch
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "input format"
	case ExternalTool:
		return "external tool"
	case IO:
		return "io"
	case ShapeMismatch:
		return "shape mismatch"
	}
	return "other"
}

// Error is a classified error. Op names the operation that failed and Path,
// when set, the file it was working on.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(e.Path)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// E classifies err. A nil err yields nil so call sites can wrap
// unconditionally.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// P is E with the file path being worked on.
func P(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: errors.WithStack(err)}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(fmt.Sprintf(format, args...))}
}

// KindOf returns the Kind of the outermost classified error in err's chain,
// or Other when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
