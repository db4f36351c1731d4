package object

import "github.com/VioletHelianthus/uika/handle"

// DeleteListener is notified synchronously when a watched object is
// destroyed, before its slot is released.
type DeleteListener func(obj *Object)

type arraySlot struct {
	obj    *Object
	serial uint32
}

// Array is the host's global object table. Slots are reused through a free
// list; each reuse bumps the slot's serial so stale handles from before the
// reuse resolve to nothing instead of the new occupant.
type Array struct {
	slots []arraySlot
	free  []int

	// roots pins objects against collection.
	roots map[*Object]int

	listeners map[*Object][]DeleteListener
}

func newArray() *Array {
	return &Array{
		roots:     make(map[*Object]int),
		listeners: make(map[*Object][]DeleteListener),
	}
}

func packHandle(index int, serial uint32) handle.Object {
	return handle.Object(uint64(uint32(index))<<32 | uint64(serial))
}

func unpackHandle(h handle.Object) (index int, serial uint32) {
	return int(uint32(uint64(h) >> 32)), uint32(uint64(h))
}

// add places obj into a slot and stamps its handle.
func (a *Array) add(obj *Object) handle.Object {
	var i int
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		// Serials start at 1: a zero serial never names a live object,
		// so the all-zero handle stays null.
		a.slots = append(a.slots, arraySlot{serial: 0})
		i = len(a.slots) - 1
	}
	a.slots[i].serial++
	a.slots[i].obj = obj
	obj.Handle = packHandle(i, a.slots[i].serial)
	return obj.Handle
}

// Resolve returns the live object named by h, or nil when h is null, stale,
// or names a destroyed object.
func (a *Array) Resolve(h handle.Object) *Object {
	if h.IsNull() {
		return nil
	}
	i, serial := unpackHandle(h)
	if i < 0 || i >= len(a.slots) {
		return nil
	}
	s := &a.slots[i]
	if s.obj == nil || s.serial != serial {
		return nil
	}
	return s.obj
}

// Weak derives the weak form of h. Weak handles carry the same index and
// serial; they differ only in that holders expect them to go stale.
func (a *Array) Weak(h handle.Object) handle.Weak {
	if a.Resolve(h) == nil {
		return handle.Weak{}
	}
	i, serial := unpackHandle(h)
	return handle.Weak{Index: int32(i), Serial: int32(serial)}
}

// Pin upgrades a weak handle to a plain handle, or null if the referent is
// gone.
func (a *Array) Pin(w handle.Weak) handle.Object {
	if w.IsNull() {
		return 0
	}
	h := packHandle(int(w.Index), uint32(w.Serial))
	if a.Resolve(h) == nil {
		return 0
	}
	return h
}

// AddRoot pins obj against collection. Calls nest.
func (a *Array) AddRoot(obj *Object) { a.roots[obj]++ }

// RemoveRoot releases one pin.
func (a *Array) RemoveRoot(obj *Object) {
	if a.roots[obj] <= 1 {
		delete(a.roots, obj)
		return
	}
	a.roots[obj]--
}

// IsRoot reports whether obj is currently pinned.
func (a *Array) IsRoot(obj *Object) bool { return a.roots[obj] > 0 }

// Listen registers a delete listener for obj.
func (a *Array) Listen(obj *Object, l DeleteListener) {
	a.listeners[obj] = append(a.listeners[obj], l)
}

// Unlisten drops all listeners registered for obj.
func (a *Array) Unlisten(obj *Object) { delete(a.listeners, obj) }

// Destroy tears obj down: notifies delete listeners, recursively destroys
// objects outered to it, then releases its slot. Destroying an already
// destroyed object is a no-op.
func (a *Array) Destroy(obj *Object) {
	if obj == nil || obj.destroyed {
		return
	}
	obj.destroyed = true

	for _, l := range a.listeners[obj] {
		l(obj)
	}
	delete(a.listeners, obj)

	// Children first collected, then destroyed: destruction mutates the
	// table we are walking.
	var children []*Object
	for _, s := range a.slots {
		if s.obj != nil && !s.obj.destroyed && s.obj.outer == obj {
			children = append(children, s.obj)
		}
	}
	for _, c := range children {
		a.Destroy(c)
	}

	delete(a.roots, obj)

	i, serial := unpackHandle(obj.Handle)
	if i >= 0 && i < len(a.slots) && a.slots[i].serial == serial {
		a.slots[i].obj = nil
		a.free = append(a.free, i)
	}
	obj.slots = nil
}

// Live calls fn for every live object. fn must not destroy objects.
func (a *Array) Live(fn func(obj *Object)) {
	for _, s := range a.slots {
		if s.obj != nil && !s.obj.destroyed {
			fn(s.obj)
		}
	}
}

// Collect runs a mark-sweep pass: objects reachable from roots (through
// the reference slots recorded on their classes, and through outer chains)
// survive; the rest are destroyed. Returns the number destroyed.
func (a *Array) Collect() int {
	marked := make(map[*Object]bool)
	var stack []*Object
	for obj := range a.roots {
		if !obj.destroyed {
			stack = append(stack, obj)
		}
	}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if marked[obj] {
			continue
		}
		marked[obj] = true
		if obj.outer != nil && !obj.outer.destroyed {
			stack = append(stack, obj.outer)
		}
		for _, slot := range obj.class.refSlots {
			stack = a.markValue(obj.slots[slot], stack)
		}
		for _, sub := range obj.subobjects {
			if !sub.destroyed {
				stack = append(stack, sub)
			}
		}
	}

	// Default instances survive implicitly: they anchor class metadata.
	var dead []*Object
	for _, s := range a.slots {
		obj := s.obj
		if obj == nil || obj.destroyed || marked[obj] || obj.isDefault {
			continue
		}
		if obj.outer != nil && (marked[obj.outer] || obj.outer.isDefault) {
			continue
		}
		dead = append(dead, obj)
	}
	for _, obj := range dead {
		a.Destroy(obj)
	}
	return len(dead)
}

func (a *Array) markValue(v Value, stack []*Object) []*Object {
	switch tv := v.(type) {
	case handle.Object:
		if obj := a.Resolve(tv); obj != nil {
			stack = append(stack, obj)
		}
	case *DelegateValue:
		if obj := a.Resolve(tv.Target); obj != nil {
			stack = append(stack, obj)
		}
	case *MulticastValue:
		for _, e := range tv.Entries {
			if obj := a.Resolve(e.Target); obj != nil {
				stack = append(stack, obj)
			}
		}
	case *SeqValue:
		for _, e := range tv.Elems {
			stack = a.markValue(e, stack)
		}
	case *SetValue:
		for _, s := range tv.slots {
			if s.used {
				stack = a.markValue(s.elem, stack)
			}
		}
	case *MapValue:
		for _, s := range tv.slots {
			if s.used {
				stack = a.markValue(s.key, stack)
				stack = a.markValue(s.val, stack)
			}
		}
	case []Value:
		for _, e := range tv {
			stack = a.markValue(e, stack)
		}
	}
	return stack
}
