package object

import (
	"testing"

	"github.com/VioletHelianthus/uika/handle"
)

func testClass(t *testing.T, rt *Runtime, name string) *Class {
	t.Helper()
	cls, err := rt.NewClass(name, nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cls.AddProperty("Ref", Descriptor{Kind: ObjectRef}, 1); err != nil {
		t.Fatal(err)
	}
	cls.Link()
	return cls
}

func TestHandleStaleAfterDestroy(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")

	obj, err := rt.NewObject(cls, nil, "first")
	if err != nil {
		t.Fatal(err)
	}
	h := obj.Handle
	if rt.Resolve(h) != obj {
		t.Fatal("fresh handle does not resolve")
	}

	rt.Objects().Destroy(obj)
	if rt.Resolve(h) != nil {
		t.Fatal("stale handle resolved after destroy")
	}

	// The slot is reused with a bumped serial, so the old handle still
	// resolves to nothing even though a new object occupies the slot.
	obj2, err := rt.NewObject(cls, nil, "second")
	if err != nil {
		t.Fatal(err)
	}
	if rt.Resolve(h) != nil {
		t.Error("stale handle resolved to the slot's new occupant")
	}
	if rt.Resolve(obj2.Handle) != obj2 {
		t.Error("new handle does not resolve")
	}
	if obj2.Handle == h {
		t.Error("reused slot issued an identical handle")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")
	obj, _ := rt.NewObject(cls, nil, "x")
	rt.Objects().Destroy(obj)
	rt.Objects().Destroy(obj) // must not panic or corrupt the free list
	if rt.Resolve(obj.Handle) != nil {
		t.Error("destroyed object still resolves")
	}
}

func TestDestroyTearsDownChildren(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")
	parent, _ := rt.NewObject(cls, nil, "parent")
	child, _ := rt.NewObject(cls, parent, "child")
	grandchild, _ := rt.NewObject(cls, child, "grandchild")

	rt.Objects().Destroy(parent)
	for _, h := range []handle.Object{parent.Handle, child.Handle, grandchild.Handle} {
		if rt.Resolve(h) != nil {
			t.Error("outered object survived parent destruction")
		}
	}
}

func TestWeakHandles(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")
	obj, _ := rt.NewObject(cls, nil, "w")

	w := rt.Objects().Weak(obj.Handle)
	if w.IsNull() {
		t.Fatal("weak from live object is null")
	}
	if rt.Objects().Pin(w) != obj.Handle {
		t.Fatal("weak did not pin back to the same handle")
	}

	rt.Objects().Destroy(obj)
	if !rt.Objects().Pin(w).IsNull() {
		t.Error("weak pinned after referent destroyed")
	}
}

func TestDeleteListener(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")
	obj, _ := rt.NewObject(cls, nil, "watched")

	var fired int
	rt.Objects().Listen(obj, func(o *Object) {
		if o != obj {
			t.Error("listener fired for wrong object")
		}
		// The listener sees the object before its slot is released.
		if rt.Resolve(obj.Handle) == nil {
			t.Error("handle already stale inside listener")
		}
		fired++
	})
	rt.Objects().Destroy(obj)
	if fired != 1 {
		t.Errorf("listener fired %d times, want 1", fired)
	}
}

func TestCollect(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")

	root, _ := rt.NewObject(cls, nil, "root")
	held, _ := rt.NewObject(cls, nil, "held")
	loose, _ := rt.NewObject(cls, nil, "loose")

	rt.Objects().AddRoot(root)
	root.Set(cls.Property("Ref"), held.Handle)

	destroyed := rt.Objects().Collect()
	if destroyed != 1 {
		t.Fatalf("collected %d objects, want 1", destroyed)
	}
	if rt.Resolve(root.Handle) == nil {
		t.Error("root collected")
	}
	if rt.Resolve(held.Handle) == nil {
		t.Error("object referenced from root collected")
	}
	if rt.Resolve(loose.Handle) != nil {
		t.Error("unreachable object survived")
	}

	// Dropping the reference makes held collectable.
	root.Set(cls.Property("Ref"), handle.Object(0))
	if n := rt.Objects().Collect(); n != 1 {
		t.Errorf("second pass collected %d, want 1", n)
	}
}

func TestRootNesting(t *testing.T) {
	rt := NewRuntime()
	cls := testClass(t, rt, "Thing")
	obj, _ := rt.NewObject(cls, nil, "pinned")

	rt.Objects().AddRoot(obj)
	rt.Objects().AddRoot(obj)
	rt.Objects().RemoveRoot(obj)
	if !rt.Objects().IsRoot(obj) {
		t.Fatal("nested root released early")
	}
	rt.Objects().RemoveRoot(obj)
	if rt.Objects().IsRoot(obj) {
		t.Fatal("root not released")
	}
}
