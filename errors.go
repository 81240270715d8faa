package tether

import "fmt"

// ErrorKind classifies every recoverable failure the runtime reports.
type ErrorKind uint8

const (
	// KindUnknown is the zero kind and never produced by the runtime.
	KindUnknown ErrorKind = iota
	// KindPropertyNotFound: no property with that name anywhere in the lineage.
	KindPropertyNotFound
	// KindPropertyNotReadable: the property exists but lacks the readable flag.
	KindPropertyNotReadable
	// KindPropertyNotWritable: not writable, or construct-only after construction.
	KindPropertyNotWritable
	// KindTypeMismatch: a value's runtime type is incompatible with the declared type.
	KindTypeMismatch
	// KindValueOutOfRange: validation rejected the value and lax validation was not set.
	KindValueOutOfRange
	// KindSignalNotFound: no signal with that name anywhere in the lineage.
	KindSignalNotFound
	// KindArgumentCountMismatch: emission argument count differs from the registration.
	KindArgumentCountMismatch
	// KindArgumentTypeMismatch: an emission argument type differs from the registration.
	KindArgumentTypeMismatch
	// KindConstructionFailed: instantiation returned no instance or the type is not instantiable.
	KindConstructionFailed
	// KindOperationFailed: generic failure with no richer diagnostic.
	KindOperationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindPropertyNotFound:
		return "property not found"
	case KindPropertyNotReadable:
		return "property not readable"
	case KindPropertyNotWritable:
		return "property not writable"
	case KindTypeMismatch:
		return "type mismatch"
	case KindValueOutOfRange:
		return "value out of range"
	case KindSignalNotFound:
		return "signal not found"
	case KindArgumentCountMismatch:
		return "argument count mismatch"
	case KindArgumentTypeMismatch:
		return "argument type mismatch"
	case KindConstructionFailed:
		return "construction failed"
	case KindOperationFailed:
		return "operation failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is the runtime's recoverable error. Name carries the property or
// signal name involved, Expected/Actual the type names where a type was
// checked, so callers can build a diagnostic without touching the registry.
type Error struct {
	Kind     ErrorKind
	Name     string
	Expected string
	Actual   string
	Msg      string
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Name != "" {
		s += fmt.Sprintf(": %q", e.Name)
	}
	if e.Expected != "" || e.Actual != "" {
		s += fmt.Sprintf(" (expected %s, got %s)", orUnknown(e.Expected), orUnknown(e.Actual))
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is matches by kind so errors.Is(err, ErrPropertyNotFound) works against
// fully populated instances.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && te.Kind == e.Kind
}

func orUnknown(s string) string {
	if s == "" {
		return "<unknown>"
	}
	return s
}

// Sentinel values for errors.Is matching. The runtime never returns these
// directly; every produced error carries context.
var (
	ErrPropertyNotFound      = &Error{Kind: KindPropertyNotFound}
	ErrPropertyNotReadable   = &Error{Kind: KindPropertyNotReadable}
	ErrPropertyNotWritable   = &Error{Kind: KindPropertyNotWritable}
	ErrTypeMismatch          = &Error{Kind: KindTypeMismatch}
	ErrValueOutOfRange       = &Error{Kind: KindValueOutOfRange}
	ErrSignalNotFound        = &Error{Kind: KindSignalNotFound}
	ErrArgumentCountMismatch = &Error{Kind: KindArgumentCountMismatch}
	ErrArgumentTypeMismatch  = &Error{Kind: KindArgumentTypeMismatch}
	ErrConstructionFailed    = &Error{Kind: KindConstructionFailed}
	ErrOperationFailed       = &Error{Kind: KindOperationFailed}
)

func errName(kind ErrorKind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

func errTypes(kind ErrorKind, name string, expected, actual Type) *Error {
	return &Error{Kind: kind, Name: name, Expected: expected.Name(), Actual: actual.Name()}
}

func errMsg(kind ErrorKind, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}
