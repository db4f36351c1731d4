package object

import "fmt"

// PropFlags qualify how a property participates in calls and layout.
type PropFlags uint64

const (
	// FlagParm marks a function parameter.
	FlagParm PropFlags = 1 << iota
	// FlagOutParm marks a parameter written back to the caller.
	FlagOutParm
	// FlagReturnParm marks the return-value parameter.
	FlagReturnParm
)

// Property describes one field of a class, struct, or function signature.
type Property struct {
	name  string
	desc  Descriptor
	flags PropFlags

	// owner is the *Class, *Struct, or *Function the property belongs to.
	owner any

	// slot is the storage index inside an instance (class properties) or
	// parameter block (function parameters).
	slot int

	// offset is the byte offset inside a struct buffer (struct fields).
	offset uint32

	// arrayDim is the element count for fixed-size array properties; 1
	// for plain fields.
	arrayDim int
}

// Name returns the property's name.
func (p *Property) Name() string { return p.name }

// Desc returns the property's descriptor.
func (p *Property) Desc() *Descriptor { return &p.desc }

// Flags returns the property's flags.
func (p *Property) Flags() PropFlags { return p.flags }

// Slot returns the storage slot index assigned at link time.
func (p *Property) Slot() int { return p.slot }

// ArrayDim returns the fixed-array element count (1 for plain fields).
func (p *Property) ArrayDim() int { return p.arrayDim }

// OwnerClass returns the owning class, or nil if the property belongs to a
// struct or function.
func (p *Property) OwnerClass() *Class {
	c, _ := p.owner.(*Class)
	return c
}

// OwnerFunction returns the owning function, or nil.
func (p *Property) OwnerFunction() *Function {
	f, _ := p.owner.(*Function)
	return f
}

// StructField is one field of a host struct type.
type StructField struct {
	Name   string
	Desc   Descriptor
	Offset uint32
}

// Struct is a host struct type: a named, fixed-size record copied opaquely
// across the boundary. The guest must never assume its layout.
type Struct struct {
	name   string
	fields []StructField
	size   uint32
}

// NewStruct lays the fields out sequentially and records the total size.
func NewStruct(name string, fields []StructField) *Struct {
	s := &Struct{name: name}
	var off uint32
	for _, f := range fields {
		f.Offset = off
		sz := f.Desc.FixedSize()
		if sz == 0 {
			// Variable-size fields are stored as 8-byte slot references
			// inside struct buffers; the host resolves them on copy.
			sz = 8
		}
		off += sz
		s.fields = append(s.fields, f)
	}
	s.size = off
	return s
}

// Name returns the struct's name.
func (s *Struct) Name() string { return s.name }

// Size returns the struct's total byte size as reported to guests.
func (s *Struct) Size() uint32 { return s.size }

// Field finds a field by name; nil if absent.
func (s *Struct) Field(name string) *StructField {
	for i := range s.fields {
		if s.fields[i].Name == name {
			return &s.fields[i]
		}
	}
	return nil
}

// EnumEntry is one named enum constant.
type EnumEntry struct {
	Name  string
	Value int64
}

// Enum is a host enum type with an underlying storage width in bytes.
type Enum struct {
	name    string
	Width   uint8
	entries []EnumEntry
}

// NewEnum creates an enum type. A width of 0 defaults to 1 byte, matching
// legacy byte-backed enums.
func NewEnum(name string, width uint8, entries []EnumEntry) *Enum {
	if width == 0 {
		width = 1
	}
	return &Enum{name: name, Width: width, entries: entries}
}

// Name returns the enum's name.
func (e *Enum) Name() string { return e.name }

// Entries returns the declared constants in declaration order.
func (e *Enum) Entries() []EnumEntry { return e.entries }

// NativeFunc is a function's native entry point, driven with the current
// call frame. Natives may reenter the bridge arbitrarily deep.
type NativeFunc func(fr *Frame)

// Function is a host function: an ordered parameter list plus an optional
// native entry point. Parameter order is a hard contract — the script VM
// and native thunks iterate parameters in the same declaration order.
type Function struct {
	name   string
	owner  *Class
	params []*Property
	native NativeFunc

	// CallbackID dispatches runtime-synthesized functions back to the
	// guest. Zero for purely native functions.
	CallbackID uint64

	linked bool
}

// Name returns the function's name.
func (f *Function) Name() string { return f.name }

// Owner returns the class the function belongs to, or nil for signatures.
func (f *Function) Owner() *Class { return f.owner }

// Params returns the parameters in declaration order.
func (f *Function) Params() []*Property { return f.params }

// Native returns the native entry point, or nil.
func (f *Function) Native() NativeFunc { return f.native }

// SetNative installs the native entry point.
func (f *Function) SetNative(fn NativeFunc) { f.native = fn }

// Param finds a parameter by name; nil if absent.
func (f *Function) Param(name string) *Property {
	for _, p := range f.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// ReturnParam returns the parameter flagged as the return value, or nil.
func (f *Function) ReturnParam() *Property {
	for _, p := range f.params {
		if p.flags&FlagReturnParm != 0 {
			return p
		}
	}
	return nil
}

// AddParam appends a parameter at the end of the list, keeping declaration
// order (never prepends). Fails once the function is linked or when the
// name is already taken.
func (f *Function) AddParam(name string, desc Descriptor, flags PropFlags) (*Property, error) {
	if f.linked {
		return nil, fmt.Errorf("function %s: cannot add parameter after link", f.name)
	}
	if f.Param(name) != nil {
		return nil, fmt.Errorf("function %s: duplicate parameter %s", f.name, name)
	}
	p := &Property{
		name:     name,
		desc:     desc,
		flags:    flags | FlagParm,
		owner:    f,
		slot:     len(f.params),
		arrayDim: 1,
	}
	f.params = append(f.params, p)
	return p, nil
}

// Link freezes the parameter layout.
func (f *Function) Link() { f.linked = true }

// SubobjectDef describes one default subobject instantiated at construction
// time, in registration order.
type SubobjectDef struct {
	Name      string
	Class     *Class
	Root      bool
	Transient bool
	// AttachParent names an earlier subobject to attach to; "" for none.
	AttachParent string
}

// ClassFlags qualify a class.
type ClassFlags uint32

const (
	// ClassNative marks a class compiled into the host, with a native
	// constructor establishing host-side invariants.
	ClassNative ClassFlags = 1 << iota
	// ClassReified marks a class synthesized at runtime by a guest.
	ClassReified
	// ClassLinked marks a class whose layout is finalized. Structural
	// mutation is permanently disallowed afterwards.
	ClassLinked
)

// Constructor runs when an instance of the class is created, after storage
// allocation. Native ancestors run first.
type Constructor func(rt *Runtime, obj *Object, isDefault bool)

// DispatchHook intercepts ProcessEvent before normal handling. Returning
// true consumes the event.
type DispatchHook func(rt *Runtime, obj *Object, fn *Function, blk *Block) bool

// Class is a host class: named, single-inheritance, with ordered properties
// and by-name functions. Reified classes additionally carry a guest type
// identifier, a native-ancestor pointer, and subobject definitions.
type Class struct {
	name  string
	super *Class
	flags ClassFlags

	props     []*Property
	functions map[string]*Function

	ctor     Constructor
	dispatch DispatchHook

	// GuestTypeID tags reified classes with the guest's type identifier.
	GuestTypeID uint64
	// NativeSuper is the nearest natively-compiled ancestor; its
	// constructor establishes host invariants before subobjects run.
	NativeSuper *Class
	// Subobjects are instantiated in registration order at construction.
	Subobjects []SubobjectDef

	// refSlots lists the slots the garbage collector traces for object
	// references, built at link time.
	refSlots []int

	slotCount int
	defaultOb *Object
}

// Name returns the class's name.
func (c *Class) Name() string { return c.name }

// Super returns the superclass, or nil.
func (c *Class) Super() *Class { return c.super }

// Flags returns the class's flags.
func (c *Class) Flags() ClassFlags { return c.flags }

// Linked reports whether the layout is finalized.
func (c *Class) Linked() bool { return c.flags&ClassLinked != 0 }

// IsA reports whether c is target or inherits from it.
func (c *Class) IsA(target *Class) bool {
	for cur := c; cur != nil; cur = cur.super {
		if cur == target {
			return true
		}
	}
	return false
}

// Property finds a property by name, walking up the superclass chain.
func (c *Class) Property(name string) *Property {
	for cur := c; cur != nil; cur = cur.super {
		for _, p := range cur.props {
			if p.name == name {
				return p
			}
		}
	}
	return nil
}

// OwnProperties returns the properties declared on c itself.
func (c *Class) OwnProperties() []*Property { return c.props }

// Function finds a function by name, walking up the superclass chain.
func (c *Class) Function(name string) *Function {
	for cur := c; cur != nil; cur = cur.super {
		if cur.functions != nil {
			if f, ok := cur.functions[name]; ok {
				return f
			}
		}
	}
	return nil
}

// OwnFunction finds a function declared on c itself.
func (c *Class) OwnFunction(name string) *Function {
	if c.functions == nil {
		return nil
	}
	return c.functions[name]
}

// AddProperty declares a new property. Rejected once the class is linked
// or when the name is already taken on this class.
func (c *Class) AddProperty(name string, desc Descriptor, dim int) (*Property, error) {
	if c.Linked() {
		return nil, fmt.Errorf("class %s: cannot add property after finalize", c.name)
	}
	for _, p := range c.props {
		if p.name == name {
			return nil, fmt.Errorf("class %s: duplicate property %s", c.name, name)
		}
	}
	if dim < 1 {
		dim = 1
	}
	p := &Property{name: name, desc: desc, owner: c, slot: -1, arrayDim: dim}
	c.props = append(c.props, p)
	return p, nil
}

// AddFunction declares a new function. Rejected once the class is linked
// or when the name is already taken on this class.
func (c *Class) AddFunction(name string) (*Function, error) {
	if c.Linked() {
		return nil, fmt.Errorf("class %s: cannot add function after finalize", c.name)
	}
	if c.functions == nil {
		c.functions = make(map[string]*Function)
	}
	if _, ok := c.functions[name]; ok {
		return nil, fmt.Errorf("class %s: duplicate function %s", c.name, name)
	}
	f := &Function{name: name, owner: c}
	c.functions[name] = f
	return f, nil
}

// SetDispatch installs the ProcessEvent intercept hook.
func (c *Class) SetDispatch(h DispatchHook) { c.dispatch = h }

// Link finalizes the class layout: assigns instance slots (superclass slots
// first, preserving super layout), links functions, and builds the
// reference map the collector uses to trace object references inside
// instances. Idempotent.
func (c *Class) Link() {
	if c.Linked() {
		return
	}
	base := 0
	if c.super != nil {
		c.super.Link()
		base = c.super.slotCount
	}
	for i, p := range c.props {
		p.slot = base + i
	}
	c.slotCount = base + len(c.props)

	for _, f := range c.functions {
		f.Link()
	}

	// Reference map: every slot the collector must trace, including
	// inherited ones.
	if c.super != nil {
		c.refSlots = append(c.refSlots, c.super.refSlots...)
	}
	for _, p := range c.props {
		if p.desc.traceable() {
			c.refSlots = append(c.refSlots, p.slot)
		}
	}

	c.flags |= ClassLinked
}

// SlotCount returns the number of instance slots after Link.
func (c *Class) SlotCount() int { return c.slotCount }

// traceable reports whether a field can hold object references the
// collector must follow.
func (d *Descriptor) traceable() bool {
	switch d.Kind {
	case ObjectRef, InterfaceRef, Delegate, MulticastDelegate:
		return true
	case Seq, Set:
		return d.Elem != nil && d.Elem.traceable()
	case Map:
		return (d.Key != nil && d.Key.traceable()) ||
			(d.Value != nil && d.Value.traceable())
	}
	return false
}
