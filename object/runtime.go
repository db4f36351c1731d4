package object

import (
	"fmt"
	"log/slog"

	"github.com/VioletHelianthus/uika/handle"
)

// regTable issues stable dense handles for registered entities. Index 0 is
// reserved so the zero handle stays null. Entities are never unregistered;
// types outlive every reload.
type regTable[T comparable] struct {
	items  []T
	lookup map[T]uint64
}

func newRegTable[T comparable]() *regTable[T] {
	var zero T
	return &regTable[T]{
		items:  []T{zero},
		lookup: make(map[T]uint64),
	}
}

func (t *regTable[T]) add(item T) uint64 {
	if h, ok := t.lookup[item]; ok {
		return h
	}
	h := uint64(len(t.items))
	t.items = append(t.items, item)
	t.lookup[item] = h
	return h
}

func (t *regTable[T]) get(h uint64) T {
	var zero T
	if h == 0 || h >= uint64(len(t.items)) {
		return zero
	}
	return t.items[h]
}

func (t *regTable[T]) handle(item T) uint64 { return t.lookup[item] }

// Runtime is the host object system: the interned-name table, the type
// registries, and the global object array.
type Runtime struct {
	log *slog.Logger

	names   *Names
	objects *Array

	classes    *regTable[*Class]
	structs    *regTable[*Struct]
	enums      *regTable[*Enum]
	properties *regTable[*Property]
	functions  *regTable[*Function]

	classByName  map[string]*Class
	structByName map[string]*Struct
	enumByName   map[string]*Enum

	// ConstructHook runs after a reified-class instance is constructed,
	// default instances included, letting the bridge pair it with its
	// guest-side state.
	ConstructHook func(obj *Object)
	// InvokeHook dispatches a guest-implemented function body.
	InvokeHook func(obj *Object, fn *Function, blk *Block) error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.log = l }
}

// NewRuntime creates an empty host object system.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		log:          slog.Default(),
		names:        newNames(),
		objects:      newArray(),
		classes:      newRegTable[*Class](),
		structs:      newRegTable[*Struct](),
		enums:        newRegTable[*Enum](),
		properties:   newRegTable[*Property](),
		functions:    newRegTable[*Function](),
		classByName:  make(map[string]*Class),
		structByName: make(map[string]*Struct),
		enumByName:   make(map[string]*Enum),
	}
	for _, o := range opts {
		o(rt)
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.log }

// Names returns the interned-name table.
func (rt *Runtime) Names() *Names { return rt.names }

// Objects returns the global object array.
func (rt *Runtime) Objects() *Array { return rt.objects }

// NewClass registers a class. The name must be unique.
func (rt *Runtime) NewClass(name string, super *Class, flags ClassFlags, ctor Constructor) (*Class, error) {
	if _, ok := rt.classByName[name]; ok {
		return nil, fmt.Errorf("class %s already registered", name)
	}
	c := &Class{name: name, super: super, flags: flags, ctor: ctor}
	rt.classes.add(c)
	rt.classByName[name] = c
	rt.names.Intern(name)
	return c, nil
}

// RegisterStruct registers a struct type. The name must be unique.
func (rt *Runtime) RegisterStruct(s *Struct) error {
	if _, ok := rt.structByName[s.name]; ok {
		return fmt.Errorf("struct %s already registered", s.name)
	}
	rt.structs.add(s)
	rt.structByName[s.name] = s
	rt.names.Intern(s.name)
	return nil
}

// RegisterEnum registers an enum type. The name must be unique.
func (rt *Runtime) RegisterEnum(e *Enum) error {
	if _, ok := rt.enumByName[e.name]; ok {
		return fmt.Errorf("enum %s already registered", e.name)
	}
	rt.enums.add(e)
	rt.enumByName[e.name] = e
	rt.names.Intern(e.name)
	return nil
}

// FindClass resolves a class by name; nil if unknown.
func (rt *Runtime) FindClass(name string) *Class { return rt.classByName[name] }

// FindStruct resolves a struct by name; nil if unknown.
func (rt *Runtime) FindStruct(name string) *Struct { return rt.structByName[name] }

// FindEnum resolves an enum by name; nil if unknown.
func (rt *Runtime) FindEnum(name string) *Enum { return rt.enumByName[name] }

// ClassHandle returns the handle for c, registering it if needed.
func (rt *Runtime) ClassHandle(c *Class) handle.Class {
	if c == nil {
		return 0
	}
	return handle.Class(rt.classes.add(c))
}

// ClassOf resolves a class handle; nil for null or unknown handles.
func (rt *Runtime) ClassOf(h handle.Class) *Class { return rt.classes.get(uint64(h)) }

// StructHandle returns the handle for s, registering it if needed.
func (rt *Runtime) StructHandle(s *Struct) handle.Struct {
	if s == nil {
		return 0
	}
	return handle.Struct(rt.structs.add(s))
}

// StructOf resolves a struct handle.
func (rt *Runtime) StructOf(h handle.Struct) *Struct { return rt.structs.get(uint64(h)) }

// EnumHandle returns the handle for e, registering it if needed.
func (rt *Runtime) EnumHandle(e *Enum) handle.Enum {
	if e == nil {
		return 0
	}
	return handle.Enum(rt.enums.add(e))
}

// EnumOf resolves an enum handle.
func (rt *Runtime) EnumOf(h handle.Enum) *Enum { return rt.enums.get(uint64(h)) }

// PropertyHandle returns the handle for p, registering it if needed.
func (rt *Runtime) PropertyHandle(p *Property) handle.Property {
	if p == nil {
		return 0
	}
	return handle.Property(rt.properties.add(p))
}

// PropertyOf resolves a property handle.
func (rt *Runtime) PropertyOf(h handle.Property) *Property { return rt.properties.get(uint64(h)) }

// FunctionHandle returns the handle for f, registering it if needed.
func (rt *Runtime) FunctionHandle(f *Function) handle.Function {
	if f == nil {
		return 0
	}
	return handle.Function(rt.functions.add(f))
}

// FunctionOf resolves a function handle.
func (rt *Runtime) FunctionOf(h handle.Function) *Function { return rt.functions.get(uint64(h)) }

// Resolve returns the live object for h, or nil.
func (rt *Runtime) Resolve(h handle.Object) *Object { return rt.objects.Resolve(h) }

// NewObject constructs an instance of class with the given outer and name.
// The class must be linked. Construction runs native-ancestor constructors
// base-first, instantiates default subobjects in registration order, then
// fires the construct hook for reified classes.
func (rt *Runtime) NewObject(class *Class, outer *Object, name string) (*Object, error) {
	return rt.construct(class, outer, name, false)
}

func (rt *Runtime) construct(class *Class, outer *Object, name string, isDefault bool) (*Object, error) {
	if class == nil {
		return nil, fmt.Errorf("cannot construct with nil class")
	}
	if !class.Linked() {
		return nil, fmt.Errorf("class %s not finalized", class.name)
	}
	obj := &Object{
		class:      class,
		name:       rt.names.Intern(name),
		outer:      outer,
		slots:      make([]Value, class.slotCount),
		subobjects: make(map[string]*Object),
		isDefault:  isDefault,
	}
	for cur := class; cur != nil; cur = cur.super {
		for _, p := range cur.props {
			if p.arrayDim > 1 {
				elems := make([]Value, p.arrayDim)
				for i := range elems {
					elems[i] = DefaultValue(&p.desc)
				}
				obj.slots[p.slot] = elems
			} else {
				obj.slots[p.slot] = DefaultValue(&p.desc)
			}
		}
	}
	rt.objects.add(obj)

	// Constructor chain, base-first.
	var ctors []Constructor
	for cur := class; cur != nil; cur = cur.super {
		if cur.ctor != nil {
			ctors = append(ctors, cur.ctor)
		}
	}
	for i := len(ctors) - 1; i >= 0; i-- {
		ctors[i](rt, obj, isDefault)
	}

	// Default subobjects, registration order. Attachment resolves against
	// earlier entries only.
	for cur := class; cur != nil; cur = cur.super {
		for _, def := range cur.Subobjects {
			if _, ok := obj.subobjects[def.Name]; ok {
				continue
			}
			// Transient subobjects exist only on real instances.
			if def.Transient && isDefault {
				continue
			}
			sub, err := rt.construct(def.Class, obj, def.Name, isDefault)
			if err != nil {
				return nil, fmt.Errorf("subobject %s of %s: %w", def.Name, class.name, err)
			}
			obj.subobjects[def.Name] = sub
		}
	}

	if class.flags&ClassReified != 0 && rt.ConstructHook != nil {
		rt.ConstructHook(obj)
	}

	rt.log.Debug("constructed object",
		"class", class.name, "name", name, "default", isDefault)
	return obj, nil
}

// DefaultObject returns the class default instance, creating it on first
// use. Default instances are rooted and survive collection.
func (rt *Runtime) DefaultObject(class *Class) (*Object, error) {
	if class.defaultOb != nil {
		return class.defaultOb, nil
	}
	obj, err := rt.construct(class, nil, "Default__"+class.name, true)
	if err != nil {
		return nil, err
	}
	rt.objects.AddRoot(obj)
	class.defaultOb = obj
	return obj, nil
}

// ProcessEvent dispatches a call on obj. Class dispatch hooks get first
// crack, then the function resolves virtually by name on obj's class; the
// body runs natively when present, otherwise through the invoke hook.
func (rt *Runtime) ProcessEvent(obj *Object, fn *Function, blk *Block) error {
	if obj == nil || obj.destroyed {
		return fmt.Errorf("call %s on destroyed object", fn.name)
	}
	for cur := obj.class; cur != nil; cur = cur.super {
		if cur.dispatch != nil && cur.dispatch(rt, obj, fn, blk) {
			return nil
		}
	}
	node := obj.class.Function(fn.name)
	if node == nil {
		node = fn
	}
	if node.native != nil {
		fr := &Frame{RT: rt, Object: obj, Node: node, CurrentNative: node, Locals: blk}
		node.native(fr)
		return nil
	}
	if node.CallbackID != 0 && rt.InvokeHook != nil {
		return rt.InvokeHook(obj, node, blk)
	}
	return fmt.Errorf("function %s.%s has no body", obj.class.name, node.name)
}
