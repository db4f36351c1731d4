package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// guestInstanceProp is the hidden slot pairing a reified-class instance
// with its guest-side state identifier.
const guestInstanceProp = "__GuestInstance"

// PropSpec describes a property a guest asks the host to synthesize. Kind
// selects the storage; the remaining fields supply whatever the kind needs
// and are ignored otherwise.
type PropSpec struct {
	Kind object.Kind

	// ElemKind is the element kind for Seq and Set properties.
	ElemKind object.Kind
	// KeyKind and ValueKind are the entry kinds for Map properties.
	KeyKind   object.Kind
	ValueKind object.Kind

	// StructType backs StructVal properties (and struct-kinded elements).
	StructType handle.Struct
	// EnumType backs EnumVal properties (and enum-kinded elements).
	EnumType handle.Enum
	// ClassType constrains reference properties and elements.
	ClassType handle.Class
	// Signature is the event signature for delegate properties.
	Signature handle.Function

	// ArrayDim declares a fixed-size array property; 0 and 1 both mean a
	// plain field.
	ArrayDim int32
}

// descriptor builds the host descriptor for spec. Nested element
// descriptors reuse the spec's type fields.
func (b *Bridge) descriptor(spec PropSpec) (object.Descriptor, handle.Code) {
	leaf := func(k object.Kind) (*object.Descriptor, handle.Code) {
		d := &object.Descriptor{Kind: k}
		switch k {
		case object.StructVal:
			if d.Struct = b.rt.StructOf(spec.StructType); d.Struct == nil {
				return nil, handle.NullArgument
			}
		case object.EnumVal:
			if d.Enum = b.rt.EnumOf(spec.EnumType); d.Enum == nil {
				return nil, handle.NullArgument
			}
		case object.ObjectRef, object.InterfaceRef, object.ClassRef:
			d.Class = b.rt.ClassOf(spec.ClassType)
		case object.Invalid:
			return nil, handle.TypeMismatch
		}
		return d, handle.OK
	}

	switch spec.Kind {
	case object.Seq, object.Set:
		elem, code := leaf(spec.ElemKind)
		if code != handle.OK {
			return object.Descriptor{}, code
		}
		return object.Descriptor{Kind: spec.Kind, Elem: elem}, handle.OK
	case object.Map:
		key, code := leaf(spec.KeyKind)
		if code != handle.OK {
			return object.Descriptor{}, code
		}
		val, code := leaf(spec.ValueKind)
		if code != handle.OK {
			return object.Descriptor{}, code
		}
		return object.Descriptor{Kind: object.Map, Key: key, Value: val}, handle.OK
	case object.Delegate, object.MulticastDelegate:
		sig := b.rt.FunctionOf(spec.Signature)
		return object.Descriptor{Kind: spec.Kind, Signature: sig}, handle.OK
	default:
		d, code := leaf(spec.Kind)
		if code != handle.OK {
			return object.Descriptor{}, code
		}
		return *d, handle.OK
	}
}

// CreateClass synthesizes a class deriving from super, tagged with the
// guest's type identifier.
//
// Reload idempotence: when a reified class of the same name already exists
// its identity is reused. The guest type identifier is refreshed and the
// existing handle returned; the layout stays frozen, so live instances keep
// their storage and every outstanding handle stays valid.
func (b *Bridge) CreateClass(name string, super handle.Class, typeID uint64) (handle.Class, handle.Code) {
	if name == "" {
		return 0, handle.NullArgument
	}
	if existing := b.rt.FindClass(name); existing != nil {
		if existing.Flags()&object.ClassReified == 0 {
			return 0, handle.InvalidOperation
		}
		existing.GuestTypeID = typeID
		b.log.Debug("reified class refreshed", "class", name, "type_id", typeID)
		return b.rt.ClassHandle(existing), handle.OK
	}
	superCls := b.rt.ClassOf(super)
	if superCls == nil {
		return 0, handle.NullArgument
	}
	if !superCls.Linked() {
		return 0, handle.InvalidOperation
	}
	cls, err := b.rt.NewClass(name, superCls, object.ClassReified, nil)
	if err != nil {
		return 0, handle.InvalidOperation
	}
	cls.GuestTypeID = typeID
	cls.NativeSuper = nativeAncestor(superCls)
	if superCls.Property(guestInstanceProp) == nil {
		if _, err := cls.AddProperty(guestInstanceProp, object.Descriptor{Kind: object.Uint64}, 1); err != nil {
			return 0, handle.InternalError
		}
	}
	b.log.Debug("reified class created",
		"class", name, "super", superCls.Name(), "type_id", typeID)
	return b.rt.ClassHandle(cls), handle.OK
}

func nativeAncestor(c *object.Class) *object.Class {
	for cur := c; cur != nil; cur = cur.Super() {
		if cur.Flags()&object.ClassNative != 0 {
			return cur
		}
	}
	return nil
}

// AddReifiedProperty declares a property on an unfinalized reified class.
// On an already finalized class (a reload), a property of the same name is
// looked up and its existing handle returned; structural changes after
// finalize are rejected.
func (b *Bridge) AddReifiedProperty(cls handle.Class, name string, spec PropSpec) (handle.Property, handle.Code) {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0, handle.NullArgument
	}
	if c.Flags()&object.ClassReified == 0 {
		return 0, handle.InvalidCast
	}
	if c.Linked() {
		if p := c.Property(name); p != nil {
			return b.rt.PropertyHandle(p), handle.OK
		}
		return 0, handle.InvalidOperation
	}
	desc, code := b.descriptor(spec)
	if code != handle.OK {
		return 0, code
	}
	dim := int(spec.ArrayDim)
	p, err := c.AddProperty(name, desc, dim)
	if err != nil {
		return 0, handle.InvalidOperation
	}
	return b.rt.PropertyHandle(p), handle.OK
}

// AddReifiedFunction declares a guest-bodied function. On a finalized class
// the existing function's callback identifier is refreshed instead, which
// is how reloaded modules rebind their bodies without touching layout.
func (b *Bridge) AddReifiedFunction(cls handle.Class, name string, callbackID uint64) (handle.Function, handle.Code) {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0, handle.NullArgument
	}
	if c.Flags()&object.ClassReified == 0 {
		return 0, handle.InvalidCast
	}
	if c.Linked() {
		f := c.OwnFunction(name)
		if f == nil {
			return 0, handle.InvalidOperation
		}
		f.CallbackID = callbackID
		b.log.Debug("reified function rebound",
			"class", c.Name(), "function", name, "callback", callbackID)
		return b.rt.FunctionHandle(f), handle.OK
	}
	f, err := c.AddFunction(name)
	if err != nil {
		return 0, handle.InvalidOperation
	}
	f.CallbackID = callbackID
	return b.rt.FunctionHandle(f), handle.OK
}

// AddReifiedParam appends a parameter to an unfinalized function, at the
// end, preserving declaration order. On a finalized function the existing
// parameter handle is returned by name.
func (b *Bridge) AddReifiedParam(fh handle.Function, name string, spec PropSpec, out, ret bool) (handle.Property, handle.Code) {
	f := b.rt.FunctionOf(fh)
	if f == nil {
		return 0, handle.NullArgument
	}
	owner := f.Owner()
	if owner == nil || owner.Flags()&object.ClassReified == 0 {
		return 0, handle.InvalidCast
	}
	if owner.Linked() {
		if p := f.Param(name); p != nil {
			return b.rt.PropertyHandle(p), handle.OK
		}
		return 0, handle.InvalidOperation
	}
	desc, code := b.descriptor(spec)
	if code != handle.OK {
		return 0, code
	}
	var flags object.PropFlags
	if out {
		flags |= object.FlagOutParm
	}
	if ret {
		flags |= object.FlagReturnParm
	}
	p, err := f.AddParam(name, desc, flags)
	if err != nil {
		return 0, handle.InvalidOperation
	}
	return b.rt.PropertyHandle(p), handle.OK
}

// AddDefaultSubobject registers a default subobject every instance of the
// class will be constructed with, in registration order. AttachParent may
// name an earlier subobject. On a finalized class (a reload) re-declaring an
// existing subobject is a no-op success; new subobjects are rejected.
func (b *Bridge) AddDefaultSubobject(cls handle.Class, name string, subCls handle.Class, root, transient bool, attachParent string) handle.Code {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return handle.NullArgument
	}
	if c.Flags()&object.ClassReified == 0 {
		return handle.InvalidCast
	}
	if c.Linked() {
		for _, def := range c.Subobjects {
			if def.Name == name {
				return handle.OK
			}
		}
		return handle.InvalidOperation
	}
	sc := b.rt.ClassOf(subCls)
	if sc == nil {
		return handle.NullArgument
	}
	if attachParent != "" {
		found := false
		for _, def := range c.Subobjects {
			if def.Name == attachParent {
				found = true
				break
			}
		}
		if !found {
			return handle.PropertyNotFound
		}
	}
	c.Subobjects = append(c.Subobjects, object.SubobjectDef{
		Name:         name,
		Class:        sc,
		Root:         root,
		Transient:    transient,
		AttachParent: attachParent,
	})
	return handle.OK
}

// FinalizeClass freezes the class layout and materializes its default
// instance. Finalizing an already finalized class is a no-op success.
func (b *Bridge) FinalizeClass(cls handle.Class) handle.Code {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return handle.NullArgument
	}
	if c.Flags()&object.ClassReified == 0 {
		return handle.InvalidCast
	}
	if c.Linked() {
		return handle.OK
	}
	c.Link()
	if _, err := b.rt.DefaultObject(c); err != nil {
		b.log.Error("default instance failed", "class", c.Name(), "error", err)
		return handle.InternalError
	}
	return handle.OK
}

// GetDefault returns the class default instance.
func (b *Bridge) GetDefault(cls handle.Class) (handle.Object, handle.Code) {
	c := b.rt.ClassOf(cls)
	if c == nil {
		return 0, handle.NullArgument
	}
	if !c.Linked() {
		return 0, handle.InvalidOperation
	}
	obj, err := b.rt.DefaultObject(c)
	if err != nil {
		return 0, handle.InternalError
	}
	return obj.Handle, handle.OK
}

// FindDefaultSubobject resolves a constructed object's default subobject by
// name.
func (b *Bridge) FindDefaultSubobject(oh handle.Object, name string) (handle.Object, handle.Code) {
	obj, code := b.resolve(oh)
	if code != handle.OK {
		return 0, code
	}
	sub := obj.Subobject(name)
	if sub == nil {
		return 0, handle.PropertyNotFound
	}
	return sub.Handle, handle.OK
}

// CreateEnum synthesizes an enum type. Recreating an existing enum of the
// same name returns the existing handle unchanged.
func (b *Bridge) CreateEnum(name string, width uint8, entries []object.EnumEntry) (handle.Enum, handle.Code) {
	if name == "" {
		return 0, handle.NullArgument
	}
	if existing := b.rt.FindEnum(name); existing != nil {
		return b.rt.EnumHandle(existing), handle.OK
	}
	e := object.NewEnum(name, width, entries)
	if err := b.rt.RegisterEnum(e); err != nil {
		return 0, handle.InvalidOperation
	}
	return b.rt.EnumHandle(e), handle.OK
}

// CreateStruct synthesizes a struct type from scalar field specs.
// Recreating an existing struct of the same name returns the existing
// handle unchanged.
func (b *Bridge) CreateStruct(name string, fieldNames []string, fieldSpecs []PropSpec) (handle.Struct, handle.Code) {
	if name == "" {
		return 0, handle.NullArgument
	}
	if existing := b.rt.FindStruct(name); existing != nil {
		return b.rt.StructHandle(existing), handle.OK
	}
	if len(fieldNames) != len(fieldSpecs) {
		return 0, handle.TypeMismatch
	}
	fields := make([]object.StructField, 0, len(fieldNames))
	for i, fn := range fieldNames {
		desc, code := b.descriptor(fieldSpecs[i])
		if code != handle.OK {
			return 0, code
		}
		fields = append(fields, object.StructField{Name: fn, Desc: desc})
	}
	s := object.NewStruct(name, fields)
	if err := b.rt.RegisterStruct(s); err != nil {
		return 0, handle.InvalidOperation
	}
	return b.rt.StructHandle(s), handle.OK
}

func (b *Bridge) guestInstanceProperty(c *object.Class) *object.Property {
	return c.Property(guestInstanceProp)
}

func (b *Bridge) setInstanceID(obj *object.Object, id uint64) {
	if p := b.guestInstanceProperty(obj.Class()); p != nil {
		obj.Set(p, id)
	}
}

func (b *Bridge) instanceID(obj *object.Object) uint64 {
	if p := b.guestInstanceProperty(obj.Class()); p != nil {
		if v, ok := obj.Get(p).(uint64); ok {
			return v
		}
	}
	return 0
}
