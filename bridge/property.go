package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// Property accessors are typed per kind: the accessor the guest calls must
// agree with the property's declared kind or the access fails with
// TypeMismatch and touches nothing. Every accessor takes an element index
// to cover fixed-size array properties; plain properties use index 0.

// propRead validates a read and returns the element value.
func (b *Bridge) propRead(oh handle.Object, ph handle.Property, idx int32, kinds ...object.Kind) (object.Value, *object.Property, handle.Code) {
	obj, p, code := b.propTarget(oh, ph, kinds...)
	if code != handle.OK {
		return nil, nil, code
	}
	v, err := obj.GetAt(p, int(idx))
	if err != nil {
		return nil, nil, handle.IndexOutOfRange
	}
	return v, p, handle.OK
}

// propWrite validates a write and stores the element value.
func (b *Bridge) propWrite(oh handle.Object, ph handle.Property, idx int32, v object.Value, kinds ...object.Kind) handle.Code {
	obj, p, code := b.propTarget(oh, ph, kinds...)
	if code != handle.OK {
		return code
	}
	if err := obj.SetAt(p, int(idx), v); err != nil {
		return handle.IndexOutOfRange
	}
	return handle.OK
}

// propTarget resolves the object/property pair and checks the accessor's
// kind against the declaration.
func (b *Bridge) propTarget(oh handle.Object, ph handle.Property, kinds ...object.Kind) (*object.Object, *object.Property, handle.Code) {
	obj, code := b.resolve(oh)
	if code != handle.OK {
		return nil, nil, code
	}
	p := b.rt.PropertyOf(ph)
	if p == nil {
		return nil, nil, handle.NullArgument
	}
	owner := p.OwnerClass()
	if owner == nil || !obj.Class().IsA(owner) {
		return nil, nil, handle.InvalidCast
	}
	if len(kinds) > 0 {
		ok := false
		for _, k := range kinds {
			if p.Desc().Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return nil, nil, handle.TypeMismatch
		}
	}
	return obj, p, handle.OK
}

func propGet[T any](b *Bridge, oh handle.Object, ph handle.Property, idx int32, kinds ...object.Kind) (T, handle.Code) {
	v, _, code := b.propRead(oh, ph, idx, kinds...)
	if code != handle.OK {
		var zero T
		return zero, code
	}
	return v.(T), handle.OK
}

// GetBool reads a bool property element.
func (b *Bridge) GetBool(oh handle.Object, ph handle.Property, idx int32) (bool, handle.Code) {
	return propGet[bool](b, oh, ph, idx, object.Bool)
}

// SetBool writes a bool property element.
func (b *Bridge) SetBool(oh handle.Object, ph handle.Property, idx int32, v bool) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Bool)
}

func (b *Bridge) GetI8(oh handle.Object, ph handle.Property, idx int32) (int8, handle.Code) {
	return propGet[int8](b, oh, ph, idx, object.Int8)
}

func (b *Bridge) SetI8(oh handle.Object, ph handle.Property, idx int32, v int8) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Int8)
}

func (b *Bridge) GetI16(oh handle.Object, ph handle.Property, idx int32) (int16, handle.Code) {
	return propGet[int16](b, oh, ph, idx, object.Int16)
}

func (b *Bridge) SetI16(oh handle.Object, ph handle.Property, idx int32, v int16) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Int16)
}

func (b *Bridge) GetI32(oh handle.Object, ph handle.Property, idx int32) (int32, handle.Code) {
	return propGet[int32](b, oh, ph, idx, object.Int32)
}

func (b *Bridge) SetI32(oh handle.Object, ph handle.Property, idx int32, v int32) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Int32)
}

func (b *Bridge) GetI64(oh handle.Object, ph handle.Property, idx int32) (int64, handle.Code) {
	return propGet[int64](b, oh, ph, idx, object.Int64)
}

func (b *Bridge) SetI64(oh handle.Object, ph handle.Property, idx int32, v int64) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Int64)
}

func (b *Bridge) GetU8(oh handle.Object, ph handle.Property, idx int32) (uint8, handle.Code) {
	return propGet[uint8](b, oh, ph, idx, object.Uint8)
}

func (b *Bridge) SetU8(oh handle.Object, ph handle.Property, idx int32, v uint8) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Uint8)
}

func (b *Bridge) GetU16(oh handle.Object, ph handle.Property, idx int32) (uint16, handle.Code) {
	return propGet[uint16](b, oh, ph, idx, object.Uint16)
}

func (b *Bridge) SetU16(oh handle.Object, ph handle.Property, idx int32, v uint16) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Uint16)
}

func (b *Bridge) GetU32(oh handle.Object, ph handle.Property, idx int32) (uint32, handle.Code) {
	return propGet[uint32](b, oh, ph, idx, object.Uint32)
}

func (b *Bridge) SetU32(oh handle.Object, ph handle.Property, idx int32, v uint32) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Uint32)
}

func (b *Bridge) GetU64(oh handle.Object, ph handle.Property, idx int32) (uint64, handle.Code) {
	return propGet[uint64](b, oh, ph, idx, object.Uint64)
}

func (b *Bridge) SetU64(oh handle.Object, ph handle.Property, idx int32, v uint64) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Uint64)
}

func (b *Bridge) GetF32(oh handle.Object, ph handle.Property, idx int32) (float32, handle.Code) {
	return propGet[float32](b, oh, ph, idx, object.Float32)
}

func (b *Bridge) SetF32(oh handle.Object, ph handle.Property, idx int32, v float32) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Float32)
}

func (b *Bridge) GetF64(oh handle.Object, ph handle.Property, idx int32) (float64, handle.Code) {
	return propGet[float64](b, oh, ph, idx, object.Float64)
}

func (b *Bridge) SetF64(oh handle.Object, ph handle.Property, idx int32, v float64) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Float64)
}

// GetString reads a string or text property element. The returned value is
// a host-owned copy.
func (b *Bridge) GetString(oh handle.Object, ph handle.Property, idx int32) (string, handle.Code) {
	return propGet[string](b, oh, ph, idx, object.String, object.Text)
}

// SetString writes a string or text property element.
func (b *Bridge) SetString(oh handle.Object, ph handle.Property, idx int32, v string) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.String, object.Text)
}

func (b *Bridge) GetName(oh handle.Object, ph handle.Property, idx int32) (handle.Name, handle.Code) {
	return propGet[handle.Name](b, oh, ph, idx, object.Name)
}

func (b *Bridge) SetName(oh handle.Object, ph handle.Property, idx int32, v handle.Name) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.Name)
}

// GetObject reads an object or interface reference property element.
func (b *Bridge) GetObject(oh handle.Object, ph handle.Property, idx int32) (handle.Object, handle.Code) {
	return propGet[handle.Object](b, oh, ph, idx, object.ObjectRef, object.InterfaceRef)
}

// SetObject writes an object reference. A non-null value must be live and
// satisfy the property's class constraint.
func (b *Bridge) SetObject(oh handle.Object, ph handle.Property, idx int32, v handle.Object) handle.Code {
	_, p, code := b.propTarget(oh, ph, object.ObjectRef, object.InterfaceRef)
	if code != handle.OK {
		return code
	}
	if !v.IsNull() {
		target := b.rt.Resolve(v)
		if target == nil {
			return handle.ObjectDestroyed
		}
		if c := p.Desc().Class; c != nil && !target.Class().IsA(c) {
			return handle.InvalidCast
		}
	}
	return b.propWrite(oh, ph, idx, v, object.ObjectRef, object.InterfaceRef)
}

func (b *Bridge) GetClassRef(oh handle.Object, ph handle.Property, idx int32) (handle.Class, handle.Code) {
	return propGet[handle.Class](b, oh, ph, idx, object.ClassRef)
}

func (b *Bridge) SetClassRef(oh handle.Object, ph handle.Property, idx int32, v handle.Class) handle.Code {
	if !v.IsNull() && b.rt.ClassOf(v) == nil {
		return handle.NullArgument
	}
	return b.propWrite(oh, ph, idx, v, object.ClassRef)
}

// GetEnum reads an enum property element as its normalized signed value.
func (b *Bridge) GetEnum(oh handle.Object, ph handle.Property, idx int32) (int64, handle.Code) {
	return propGet[int64](b, oh, ph, idx, object.EnumVal)
}

// SetEnum writes an enum property element. Values are not range-checked
// against the declared constants; sparse and flag enums are legal.
func (b *Bridge) SetEnum(oh handle.Object, ph handle.Property, idx int32, v int64) handle.Code {
	return b.propWrite(oh, ph, idx, v, object.EnumVal)
}

// GetStruct copies a struct property element into buf. The buffer must be
// exactly the struct's size; on a short buffer the required size comes back
// with BufferTooSmall.
func (b *Bridge) GetStruct(oh handle.Object, ph handle.Property, idx int32, buf []byte) (uint32, handle.Code) {
	v, p, code := b.propRead(oh, ph, idx, object.StructVal)
	if code != handle.OK {
		return 0, code
	}
	want := p.Desc().FixedSize()
	if uint32(len(buf)) < want {
		return want, handle.BufferTooSmall
	}
	copy(buf, v.([]byte))
	return want, handle.OK
}

// PropGetEncoded copies a property element's canonical encoding into buf.
// Works for every element kind; container and delegate properties have no
// element encoding and report TypeMismatch. This is the accessor wire
// transports dispatch through, so one pair of ABI entry points covers the
// whole typed surface.
func (b *Bridge) PropGetEncoded(oh handle.Object, ph handle.Property, idx int32, buf []byte) (uint32, handle.Code) {
	v, p, code := b.propRead(oh, ph, idx)
	if code != handle.OK {
		return 0, code
	}
	enc, err := object.EncodeValue(p.Desc(), v)
	if err != nil {
		return 0, handle.TypeMismatch
	}
	if len(buf) < len(enc) {
		return uint32(len(enc)), handle.BufferTooSmall
	}
	copy(buf, enc)
	return uint32(len(enc)), handle.OK
}

// PropSetEncoded writes a property element from its canonical encoding.
func (b *Bridge) PropSetEncoded(oh handle.Object, ph handle.Property, idx int32, data []byte) handle.Code {
	_, p, code := b.propTarget(oh, ph)
	if code != handle.OK {
		return code
	}
	v, err := object.DecodeValue(p.Desc(), data)
	if err != nil {
		return handle.TypeMismatch
	}
	if p.Desc().Kind == object.ObjectRef || p.Desc().Kind == object.InterfaceRef {
		return b.SetObject(oh, ph, idx, v.(handle.Object))
	}
	return b.propWrite(oh, ph, idx, v)
}

// SetStruct copies buf into a struct property element. The payload must be
// exactly the struct's size.
func (b *Bridge) SetStruct(oh handle.Object, ph handle.Property, idx int32, buf []byte) handle.Code {
	_, p, code := b.propTarget(oh, ph, object.StructVal)
	if code != handle.OK {
		return code
	}
	if uint32(len(buf)) != p.Desc().FixedSize() {
		return handle.TypeMismatch
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return b.propWrite(oh, ph, idx, cp, object.StructVal)
}
