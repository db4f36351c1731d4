package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// Lookups return the null handle on a miss; absence is an answer, not an
// error. Name comparisons are exact and case-sensitive.

// FindClass resolves a class by name.
func (b *Bridge) FindClass(name string) handle.Class {
	return b.rt.ClassHandle(b.rt.FindClass(name))
}

// FindStruct resolves a struct type by name.
func (b *Bridge) FindStruct(name string) handle.Struct {
	return b.rt.StructHandle(b.rt.FindStruct(name))
}

// FindEnum resolves an enum type by name.
func (b *Bridge) FindEnum(name string) handle.Enum {
	return b.rt.EnumHandle(b.rt.FindEnum(name))
}

// FindProperty resolves a property by name on cls, searching the superclass
// chain.
func (b *Bridge) FindProperty(cls handle.Class, name string) handle.Property {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0
	}
	return b.rt.PropertyHandle(c.Property(name))
}

// FindFunction resolves a function by name on cls, searching the superclass
// chain.
func (b *Bridge) FindFunction(cls handle.Class, name string) handle.Function {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0
	}
	return b.rt.FunctionHandle(c.Function(name))
}

// ClassSuper returns the superclass; null for root classes.
func (b *Bridge) ClassSuper(cls handle.Class) handle.Class {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0
	}
	return b.rt.ClassHandle(c.Super())
}

// ClassName returns the class's interned name.
func (b *Bridge) ClassName(cls handle.Class) handle.Name {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0
	}
	return b.rt.Names().Intern(c.Name())
}

// ClassIsA reports whether cls is target or inherits from it.
func (b *Bridge) ClassIsA(cls, target handle.Class) bool {
	c := b.rt.ClassOf(cls)
	t := b.rt.ClassOf(target)
	return c != nil && t != nil && c.IsA(t)
}

// PropName returns the property's interned name.
func (b *Bridge) PropName(ph handle.Property) handle.Name {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return b.rt.Names().Intern(p.Name())
}

// PropKind returns the property's storage kind.
func (b *Bridge) PropKind(ph handle.Property) object.Kind {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return object.Invalid
	}
	return p.Desc().Kind
}

// PropElemKind returns the element kind of a sequence or set property, or
// Invalid for others.
func (b *Bridge) PropElemKind(ph handle.Property) object.Kind {
	p := b.rt.PropertyOf(ph)
	if p == nil || p.Desc().Elem == nil {
		return object.Invalid
	}
	return p.Desc().Elem.Kind
}

// PropKeyValueKinds returns the entry kinds of a map property.
func (b *Bridge) PropKeyValueKinds(ph handle.Property) (object.Kind, object.Kind) {
	p := b.rt.PropertyOf(ph)
	if p == nil || p.Desc().Key == nil || p.Desc().Value == nil {
		return object.Invalid, object.Invalid
	}
	return p.Desc().Key.Kind, p.Desc().Value.Kind
}

// PropArrayDim returns the fixed-array element count; 1 for plain fields,
// 0 for a null handle.
func (b *Bridge) PropArrayDim(ph handle.Property) int32 {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return int32(p.ArrayDim())
}

// PropSize returns the wire size of one value of the property, or 0 for
// variable-size kinds.
func (b *Bridge) PropSize(ph handle.Property) uint32 {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return p.Desc().FixedSize()
}

// PropElemSize returns the wire size of one container element, or 0 for
// variable-size element kinds and non-container properties.
func (b *Bridge) PropElemSize(ph handle.Property) uint32 {
	p := b.rt.PropertyOf(ph)
	if p == nil || p.Desc().Elem == nil {
		return 0
	}
	return p.Desc().Elem.FixedSize()
}

// PropStructType returns the struct type of a struct property.
func (b *Bridge) PropStructType(ph handle.Property) handle.Struct {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return b.rt.StructHandle(p.Desc().Struct)
}

// PropEnumType returns the enum type of an enum property.
func (b *Bridge) PropEnumType(ph handle.Property) handle.Enum {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return b.rt.EnumHandle(p.Desc().Enum)
}

// PropClassConstraint returns the class constraint of a reference property.
func (b *Bridge) PropClassConstraint(ph handle.Property) handle.Class {
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return 0
	}
	return b.rt.ClassHandle(p.Desc().Class)
}

// StructSize returns the byte size of a struct type.
func (b *Bridge) StructSize(sh handle.Struct) uint32 {
	s := b.rt.StructOf(sh)
	if s == nil {
		return 0
	}
	return s.Size()
}

// StructFieldOffset returns the byte offset of a named field inside a
// struct buffer.
func (b *Bridge) StructFieldOffset(sh handle.Struct, name string) (uint32, handle.Code) {
	s := b.rt.StructOf(sh)
	if s == nil {
		return 0, handle.NullArgument
	}
	f := s.Field(name)
	if f == nil {
		return 0, handle.PropertyNotFound
	}
	return f.Offset, handle.OK
}

// StructInit default-initializes a struct buffer. The size result is the
// struct's byte size; an undersized buffer gets BufferTooSmall with the
// requirement in size.
func (b *Bridge) StructInit(sh handle.Struct, buf []byte) (uint32, handle.Code) {
	s := b.rt.StructOf(sh)
	if s == nil {
		return 0, handle.NullArgument
	}
	sz := s.Size()
	if uint32(len(buf)) < sz {
		return sz, handle.BufferTooSmall
	}
	clear(buf[:sz])
	return sz, handle.OK
}

// StructDestroy releases a struct buffer. Buffers carry no host references
// (variable-size fields cross by value), so this only validates the type.
func (b *Bridge) StructDestroy(sh handle.Struct) handle.Code {
	if b.rt.StructOf(sh) == nil {
		return handle.NullArgument
	}
	return handle.OK
}

// FuncName returns the function's interned name.
func (b *Bridge) FuncName(fh handle.Function) handle.Name {
	f := b.rt.FunctionOf(fh)
	if f == nil {
		return 0
	}
	return b.rt.Names().Intern(f.Name())
}

// FuncParamCount returns the number of declared parameters.
func (b *Bridge) FuncParamCount(fh handle.Function) int32 {
	f := b.rt.FunctionOf(fh)
	if f == nil {
		return 0
	}
	return int32(len(f.Params()))
}

// FuncParam returns the i'th parameter in declaration order.
func (b *Bridge) FuncParam(fh handle.Function, i int32) handle.Property {
	f := b.rt.FunctionOf(fh)
	if f == nil || i < 0 || int(i) >= len(f.Params()) {
		return 0
	}
	return b.rt.PropertyHandle(f.Params()[i])
}

// FuncParamFlags returns the i'th parameter's flags.
func (b *Bridge) FuncParamFlags(fh handle.Function, i int32) object.PropFlags {
	f := b.rt.FunctionOf(fh)
	if f == nil || i < 0 || int(i) >= len(f.Params()) {
		return 0
	}
	return f.Params()[i].Flags()
}

// AllocParams stages a zero-initialized parameter block for fh. The caller
// owns the block until FreeParams.
func (b *Bridge) AllocParams(fh handle.Function) (handle.Block, handle.Code) {
	f := b.rt.FunctionOf(fh)
	if f == nil {
		return 0, handle.NullArgument
	}
	return handle.Block(b.blocks.Add(object.NewBlock(f))), handle.OK
}

// FreeParams releases a staged block. Freeing an already freed block is a
// no-op success.
func (b *Bridge) FreeParams(bh handle.Block) handle.Code {
	b.blocks.Remove(uint64(bh))
	return handle.OK
}

// BlockSet writes a parameter slot from its encoded form. Container-kind
// parameters cannot be written through the element codec.
func (b *Bridge) BlockSet(bh handle.Block, ph handle.Property, data []byte) handle.Code {
	blk, p, code := b.blockParam(bh, ph)
	if code != handle.OK {
		return code
	}
	v, err := object.DecodeValue(p.Desc(), data)
	if err != nil {
		return handle.TypeMismatch
	}
	blk.Set(p, v)
	return handle.OK
}

// BlockGet copies a parameter slot's encoded form into buf.
func (b *Bridge) BlockGet(bh handle.Block, ph handle.Property, buf []byte) (uint32, handle.Code) {
	blk, p, code := b.blockParam(bh, ph)
	if code != handle.OK {
		return 0, code
	}
	return writeElem(p.Desc(), blk.Get(p), buf)
}

func (b *Bridge) blockParam(bh handle.Block, ph handle.Property) (*object.Block, *object.Property, handle.Code) {
	blk, code := b.block(bh)
	if code != handle.OK {
		return nil, nil, code
	}
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return nil, nil, handle.NullArgument
	}
	if p.OwnerFunction() != blk.Fn {
		return nil, nil, handle.InvalidCast
	}
	return blk, p, handle.OK
}

// CallFunction dispatches fh on the receiver with the staged block. Output
// parameters are readable from the block after the call returns.
func (b *Bridge) CallFunction(oh handle.Object, fh handle.Function, bh handle.Block) handle.Code {
	obj, code := b.resolve(oh)
	if code != handle.OK {
		return code
	}
	f := b.rt.FunctionOf(fh)
	if f == nil {
		return handle.NullArgument
	}
	blk, code := b.block(bh)
	if code != handle.OK {
		return code
	}
	if blk.Fn != f {
		return handle.InvalidCast
	}
	if err := b.rt.ProcessEvent(obj, f, blk); err != nil {
		b.log.Error("dynamic call failed",
			"class", obj.Class().Name(), "function", f.Name(), "error", err)
		return handle.InvalidOperation
	}
	return handle.OK
}
