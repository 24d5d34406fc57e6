// Package gberrors defines the error taxonomy used across gbsieve.
//
// Every fatal condition in the pipeline is one of the kinds below. They
// map directly onto the error classes the pipeline documentation
// distinguishes: argument parsing, I/O, malformed data, invariant
// violations, and the merge-specific overlap/gap conditions.
package gberrors

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Kind classifies a gbsieve error for exit-code and TAINTED handling.
type Kind int

const (
	// Unknown is the zero value; avoid constructing errors with it.
	Unknown Kind = iota
	// Argument marks a bad flag, out-of-range numeric, or conflicting mode.
	// Fatal at parse time; callers should exit 1.
	Argument
	// IO marks an open/read/mmap/stat failure. Fatal, exit !=0.
	IO
	// Data marks a malformed row or input: wrong field count, non-numeric
	// where numeric is expected, empty required input, unmatched join key.
	Data
	// Invariant marks a violated invariant: C_avg out of range, insufficient
	// primes, non-monotone 2N, non-prime endpoint, bitmap re-sieve mismatch.
	Invariant
	// Overlap marks two rows for the same alpha with overlapping n-ranges.
	Overlap
	// Gap marks two rows for the same alpha with a gap between them. Doesn't
	// need to be constructed through New since it is non-fatal by nature, but
	// is included for completeness of the taxonomy.
	Gap
)

func (k Kind) String() string {
	switch k {
	case Argument:
		return "ArgumentError"
	case IO:
		return "IOError"
	case Data:
		return "DataError"
	case Invariant:
		return "InvariantFailure"
	case Overlap:
		return "OverlapError"
	case Gap:
		return "GapWarning"
	default:
		return "Unknown"
	}
}

// kindKey is used to stash a Kind inside a grailbio/base/errors.E value so
// that the kind survives wrapping.
type kindKey struct{}

// New constructs an error of the given kind, formatting like fmt.Errorf.
func New(k Kind, format string, args ...interface{}) error {
	base := errors.E(baseKind(k), fmt.Sprintf(format, args...))
	return &tagged{kind: k, err: base}
}

// Wrap attaches a Kind to an existing error without discarding its message
// or cause chain.
func Wrap(k Kind, err error, context string) error {
	if err == nil {
		return nil
	}
	return &tagged{kind: k, err: errors.E(context, err)}
}

type tagged struct {
	kind Kind
	err  error
}

func (t *tagged) Error() string { return t.err.Error() }
func (t *tagged) Unwrap() error { return t.err }

// KindOf extracts the Kind of err, returning Unknown if err was not
// constructed via New/Wrap.
func KindOf(err error) Kind {
	var t *tagged
	for err != nil {
		if tt, ok := err.(*tagged); ok {
			t = tt
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if t == nil {
		return Unknown
	}
	return t.kind
}

// baseKind maps a gbsieve Kind onto the closest grailbio/base/errors.Kind,
// so that log output and errors.Is-style matching stay consistent with the
// rest of the ambient error-handling stack.
func baseKind(k Kind) errors.Kind {
	switch k {
	case Argument:
		return errors.Invalid
	case IO:
		return errors.Unknown
	case Invariant, Overlap:
		return errors.Precondition
	default:
		return errors.Other
	}
}

// ExitCode returns the process exit code the CLI surface should use for an
// error of this kind, per the documented exit-code contract (0 success, 1
// argument error, 2 invariant failure, non-zero otherwise).
func (k Kind) ExitCode() int {
	switch k {
	case Argument:
		return 1
	case Invariant, Overlap, Data:
		return 2
	default:
		return 3
	}
}
