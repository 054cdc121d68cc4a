// Package sketcherr defines the error taxonomy shared by every sketch in
// sketchkit.
//
// All failures that a caller might reasonably want to branch on are
// reported as a *Error carrying one of the Kinds below, following the same
// Op/Kind/Err shape as the standard library's *fs.PathError. Conditions
// that are unambiguously a programmer error at construction time (for
// example requesting zero bits or zero hash functions) remain panics, exactly as
// they do in blobloom's New.
package sketcherr

import "fmt"

// Kind classifies the cause of an Error.
type Kind int

const (
	// InvalidArgument covers out-of-range probabilities, null/empty input
	// where the operation forbids it, and mismatched merge operands.
	InvalidArgument Kind = iota
	// OutOfRange covers a bit or slot index outside the valid domain.
	OutOfRange
	// ReadOnly covers a mutating call made through a read-only view.
	ReadOnly
	// CapacityExhausted covers a quotient filter that cannot expand any
	// further because fingerprintBits would drop below one.
	CapacityExhausted
	// TooSmallBuffer covers an externally-supplied byte segment that is
	// smaller than the header and payload it must hold.
	TooSmallBuffer
	// CorruptState covers a deserialized preamble whose fields are
	// mutually inconsistent.
	CorruptState
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case OutOfRange:
		return "out of range"
	case ReadOnly:
		return "read-only violation"
	case CapacityExhausted:
		return "capacity exhausted"
	case TooSmallBuffer:
		return "buffer too small"
	case CorruptState:
		return "corrupt state"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every sketchkit package.
//
// Op names the failing operation (e.g. "BitArray.SetBit"); Kind classifies
// the failure; Err, when non-nil, wraps an underlying cause.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sketchkit: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sketchkit: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// callers can write errors.Is(err, sketcherr.Of(sketcherr.OutOfRange))
// style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with no wrapped cause.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap constructs an *Error wrapping an underlying cause.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Of is a sentinel instance usable with errors.Is(err, sketcherr.Of(Kind)):
// since Is compares only the Kind field, Of(k) is equivalent to New("", k)
// for matching purposes.
func Of(kind Kind) *Error {
	return &Error{Kind: kind}
}
