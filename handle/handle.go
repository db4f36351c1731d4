// Package handle defines the fixed-size opaque identifiers that cross the
// host/guest boundary, plus the result-code enumeration shared by every
// bridge operation.
//
// A handle's bit pattern is meaningful only to the host. Guests must treat
// handles as fully opaque: never synthesize one, never compare contents
// across reloads, never dereference.
package handle

// Object references one live host object. The host packs the object-array
// slot index and the slot's serial number into the value, so a handle to a
// destroyed object never validates again even if the slot is reused.
type Object uint64

// Class references a host class.
type Class uint64

// Property references a field descriptor on a class, struct, or function.
type Property uint64

// Function references a host function.
type Function uint64

// Struct references a host struct type.
type Struct uint64

// Enum references a host enum type.
type Enum uint64

// Name references an interned name. Equal handles mean equal names.
type Name uint64

// Block references a dynamic-call parameter block allocated by the host.
type Block uint64

// Weak is a generational weak reference: the slot index plus the serial
// number the referent had when the weak was created. It never owns the
// referent; resolve it to a (possibly null) strong handle before use.
type Weak struct {
	Index  int32
	Serial int32
}

// IsNull reports whether h references nothing.
func (h Object) IsNull() bool   { return h == 0 }
func (h Class) IsNull() bool    { return h == 0 }
func (h Property) IsNull() bool { return h == 0 }
func (h Function) IsNull() bool { return h == 0 }
func (h Struct) IsNull() bool   { return h == 0 }
func (h Enum) IsNull() bool     { return h == 0 }
func (h Name) IsNull() bool     { return h == 0 }
func (h Block) IsNull() bool    { return h == 0 }

// IsNull reports whether w was never created from a live object.
// Serial numbers start at 1, so the zero value is null.
func (w Weak) IsNull() bool { return w.Serial == 0 }

// Code is the result of a bridge operation. Every error is categorized and
// recoverable by the caller; none is fatal to the bridge.
type Code uint32

const (
	OK Code = iota
	// ObjectDestroyed: the primary object handle is no longer live.
	ObjectDestroyed
	// TypeMismatch: the property's kind disagrees with the accessor used.
	TypeMismatch
	// IndexOutOfRange: an index-based access fell outside the container.
	IndexOutOfRange
	// PropertyNotFound: no property (or map key / set element) matched.
	PropertyNotFound
	// FunctionNotFound: no function with the given name.
	FunctionNotFound
	// NullArgument: a required handle argument was null.
	NullArgument
	// InvalidCast: a handle referenced an entity of the wrong kind.
	InvalidCast
	// InvalidOperation: the operation is not legal in the current state
	// (for example, structural mutation of a finalized class).
	InvalidOperation
	// BufferTooSmall: the caller's buffer cannot hold the result. The
	// operation reports a best-effort required-size hint so the caller
	// can retry; this is a protocol, not a failure.
	BufferTooSmall
	// InternalError: an invariant the host expected did not hold.
	InternalError
)

var codeNames = [...]string{
	OK:               "ok",
	ObjectDestroyed:  "object has been destroyed",
	TypeMismatch:     "type mismatch",
	IndexOutOfRange:  "index out of range",
	PropertyNotFound: "property not found",
	FunctionNotFound: "function not found",
	NullArgument:     "null argument",
	InvalidCast:      "invalid cast",
	InvalidOperation: "invalid operation",
	BufferTooSmall:   "buffer too small",
	InternalError:    "internal error",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown error code"
}

// Error implements error so codes can flow through error-returning APIs.
func (c Code) Error() string { return c.String() }

// Err returns nil for OK and the code itself otherwise.
func (c Code) Err() error {
	if c == OK {
		return nil
	}
	return c
}
