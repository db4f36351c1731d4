package object

// Kind is the storage-kind tag of a field. One tag per marshaling behavior:
// every read/write/element-codec operation dispatches on it in exactly one
// place, so the kind-to-behavior mapping stays auditable.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	// String is UTF-8 text owned by the host.
	String
	// Name is an interned-name reference.
	Name
	// Text is rich text; marshaled identically to String.
	Text
	// ObjectRef is a reference to another host object.
	ObjectRef
	// ClassRef is a reference to a host class.
	ClassRef
	// InterfaceRef is an object reference constrained to an interface.
	InterfaceRef
	// StructVal is a nested struct value, copied opaquely by struct size.
	StructVal
	// EnumVal is an enum value stored at the enum's underlying width.
	EnumVal
	// Delegate is a single-subscriber event slot.
	Delegate
	// MulticastDelegate is a multi-subscriber event slot.
	MulticastDelegate
	// Seq is a variable-length sequence collection.
	Seq
	// Set is an unordered unique-element collection.
	Set
	// Map is an associative collection.
	Map
)

var kindNames = [...]string{
	Invalid: "invalid", Bool: "bool",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64",
	String: "string", Name: "name", Text: "text",
	ObjectRef: "object", ClassRef: "class", InterfaceRef: "interface",
	StructVal: "struct", EnumVal: "enum",
	Delegate: "delegate", MulticastDelegate: "multicast-delegate",
	Seq: "seq", Set: "set", Map: "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Trivial reports whether values of this kind can cross the boundary as one
// contiguous raw copy. Non-trivial kinds use the framed per-element encoding.
// The mode is determined solely by the kind, never by a runtime flag.
func (k Kind) Trivial() bool {
	switch k {
	case Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64,
		Float32, Float64, Name, EnumVal:
		return true
	}
	return false
}

// Descriptor describes one field: its kind plus the nested descriptors a
// container or reference kind needs.
type Descriptor struct {
	Kind Kind

	// Elem is the element descriptor for Seq and Set fields.
	Elem *Descriptor
	// Key and Value are the entry descriptors for Map fields.
	Key   *Descriptor
	Value *Descriptor

	// Struct is the struct type for StructVal fields.
	Struct *Struct
	// Enum is the enum type for EnumVal fields.
	Enum *Enum
	// Class constrains ObjectRef/InterfaceRef fields; for ClassRef it is
	// the referenced class constraint and Meta the metaclass.
	Class *Class
	Meta  *Class
	// Signature is the event signature for Delegate and MulticastDelegate.
	Signature *Function
}

// FixedSize returns the wire size in bytes of one value of this descriptor,
// or 0 for variable-size kinds (String, Text, containers, delegates).
func (d *Descriptor) FixedSize() uint32 {
	switch d.Kind {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Name, ObjectRef, ClassRef, InterfaceRef:
		return 8
	case EnumVal:
		if d.Enum != nil && d.Enum.Width > 0 {
			return uint32(d.Enum.Width)
		}
		return 1
	case StructVal:
		if d.Struct != nil {
			return d.Struct.Size()
		}
		return 0
	}
	return 0
}

// elementKind reports whether the kind is legal as a container element, map
// key, or map value. Containers and event slots do not nest.
func (k Kind) elementKind() bool {
	switch k {
	case Invalid, Delegate, MulticastDelegate, Seq, Set, Map:
		return false
	}
	return true
}
