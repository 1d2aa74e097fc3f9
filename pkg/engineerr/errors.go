// Package engineerr provides the error kinds every public core operation
// raises instead of a bare error string, so a caller across the
// fuse/POSIX boundary can branch on what went wrong (spec.md §7).
//
// This is a leaf package with no internal dependencies, so it can be
// imported by every other package in the module without causing a cycle.
package engineerr

import "fmt"

// Kind identifies the category of failure a core operation reports.
type Kind int

const (
	// InvalidArgument covers nulls, negative offsets, and malformed
	// version selectors.
	InvalidArgument Kind = iota + 1

	// NotFound covers no such inode, version, or block.
	NotFound

	// Exists covers indexing a fingerprint that is already present.
	// Internal only — never surfaced across the external interface.
	Exists

	// Permission covers deleting an important version or writing the
	// read-only statistics attribute.
	Permission

	// OutOfMemory covers a buffer or index allocation failure.
	OutOfMemory

	// IoError covers L2/L3 backing store I/O failures.
	IoError

	// IntegrityError covers a block whose stored fingerprint disagrees
	// with recomputation.
	IntegrityError

	// Busy covers removing the in-use root directory. Never applied to
	// data blocks.
	Busy
)

// String returns the kind's name, matching spec.md §7's kind names.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case Exists:
		return "Exists"
	case Permission:
		return "Permission"
	case OutOfMemory:
		return "OutOfMemory"
	case IoError:
		return "IoError"
	case IntegrityError:
		return "IntegrityError"
	case Busy:
		return "Busy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is the error type every public core operation returns on
// failure: a Kind plus a human-readable message and the identifier the
// failure concerns (an inode ID, version ID, or block ID as a string).
type Error struct {
	Kind    Kind
	Message string
	Subject string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error of the given kind with a subject identifier
// attached (an inode ID, version selector, or similar).
func Newf(kind Kind, subject, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Subject: subject}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
