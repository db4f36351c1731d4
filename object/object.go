package object

import (
	"fmt"

	"github.com/VioletHelianthus/uika/handle"
)

// Object is a live host object instance. Identity is the instance itself:
// handles resolve to the same *Object for as long as it lives, across
// guest-module reloads.
type Object struct {
	class *Class
	name  handle.Name
	outer *Object

	// Handle is the packed index/serial issued by the object array at
	// allocation. Stable for the object's whole lifetime.
	Handle handle.Object

	slots []Value

	// subobjects maps default-subobject names to their instances, filled
	// during construction.
	subobjects map[string]*Object

	isDefault bool
	destroyed bool
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Name returns the object's instance name handle.
func (o *Object) Name() handle.Name { return o.name }

// Outer returns the owning object, or nil for top-level objects.
func (o *Object) Outer() *Object { return o.outer }

// IsDefault reports whether the object is a class default instance.
func (o *Object) IsDefault() bool { return o.isDefault }

// Destroyed reports whether the object has been torn down. A destroyed
// object's storage is gone; only the husk remains until the slot is reused.
func (o *Object) Destroyed() bool { return o.destroyed }

// Get reads a property slot. Panics on an unlinked class; property access
// before finalize is host-programmer error.
func (o *Object) Get(p *Property) Value {
	if p.slot < 0 {
		panic(fmt.Sprintf("property %s read before class link", p.name))
	}
	return o.slots[p.slot]
}

// Set writes a property slot.
func (o *Object) Set(p *Property, v Value) {
	if p.slot < 0 {
		panic(fmt.Sprintf("property %s written before class link", p.name))
	}
	o.slots[p.slot] = v
}

// GetAt reads one element of a fixed-size array property.
func (o *Object) GetAt(p *Property, i int) (Value, error) {
	if i < 0 || i >= p.arrayDim {
		return nil, fmt.Errorf("index %d out of range for %s[%d]", i, p.name, p.arrayDim)
	}
	if p.arrayDim == 1 {
		return o.Get(p), nil
	}
	return o.Get(p).([]Value)[i], nil
}

// SetAt writes one element of a fixed-size array property.
func (o *Object) SetAt(p *Property, i int, v Value) error {
	if i < 0 || i >= p.arrayDim {
		return fmt.Errorf("index %d out of range for %s[%d]", i, p.name, p.arrayDim)
	}
	if p.arrayDim == 1 {
		o.Set(p, v)
		return nil
	}
	o.Get(p).([]Value)[i] = v
	return nil
}

// Subobject returns the named default subobject, or nil.
func (o *Object) Subobject(name string) *Object {
	return o.subobjects[name]
}

// Block is a parameter block: one Value slot per parameter of Fn, in
// declaration order. Blocks are referenced across the boundary by opaque
// block handles; the guest never sees the storage.
type Block struct {
	Fn    *Function
	Slots []Value
}

// NewBlock allocates a zero-initialized block for fn.
func NewBlock(fn *Function) *Block {
	b := &Block{Fn: fn, Slots: make([]Value, len(fn.params))}
	for i, p := range fn.params {
		b.Slots[i] = DefaultValue(&p.desc)
	}
	return b
}

// Get reads the slot for parameter p.
func (b *Block) Get(p *Property) Value { return b.Slots[p.slot] }

// Set writes the slot for parameter p.
func (b *Block) Set(p *Property, v Value) { b.Slots[p.slot] = v }

// Frame is the execution context of one in-flight call. Native thunks use
// it to recover which function body is executing and on which receiver.
type Frame struct {
	RT     *Runtime
	Object *Object

	// Node is the function the dispatcher resolved; CurrentNative is the
	// declaration whose native body is running. They differ when a
	// subclass override forwards into an inherited native.
	Node          *Function
	CurrentNative *Function

	Locals *Block
}
