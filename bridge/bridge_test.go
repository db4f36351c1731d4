package bridge

import (
	"context"
	"fmt"
	"testing"

	"github.com/VioletHelianthus/uika/guest"
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// newTestBridge builds a bridge over a runtime carrying one native "Actor"
// class with a representative property surface.
func newTestBridge(t *testing.T) (*Bridge, *object.Class) {
	t.Helper()
	rt := object.NewRuntime()
	b := New(rt)

	actor, err := rt.NewClass("Actor", nil, object.ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd := func(name string, d object.Descriptor, dim int) {
		t.Helper()
		if _, err := actor.AddProperty(name, d, dim); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd("Health", object.Descriptor{Kind: object.Int32}, 1)
	mustAdd("Speed", object.Descriptor{Kind: object.Float64}, 1)
	mustAdd("Alive", object.Descriptor{Kind: object.Bool}, 1)
	mustAdd("Title", object.Descriptor{Kind: object.String}, 1)
	mustAdd("Target", object.Descriptor{Kind: object.ObjectRef, Class: actor}, 1)
	mustAdd("Ammo", object.Descriptor{Kind: object.Int32}, 4)
	mustAdd("Tags", object.Descriptor{Kind: object.Seq, Elem: &object.Descriptor{Kind: object.String}}, 1)
	mustAdd("Scores", object.Descriptor{Kind: object.Seq, Elem: &object.Descriptor{Kind: object.Int32}}, 1)
	mustAdd("Flags", object.Descriptor{Kind: object.Set, Elem: &object.Descriptor{Kind: object.Int32}}, 1)
	mustAdd("Bonus", object.Descriptor{
		Kind:  object.Map,
		Key:   &object.Descriptor{Kind: object.String},
		Value: &object.Descriptor{Kind: object.Int32},
	}, 1)
	mustAdd("OnDone", object.Descriptor{Kind: object.Delegate}, 1)
	mustAdd("OnHit", object.Descriptor{Kind: object.MulticastDelegate}, 1)
	actor.Link()
	return b, actor
}

func spawn(t *testing.T, b *Bridge, cls *object.Class, name string) handle.Object {
	t.Helper()
	h, code := b.NewObject(b.Runtime().ClassHandle(cls), 0, name)
	if code != handle.OK {
		t.Fatalf("NewObject: %s", code)
	}
	return h
}

func prop(t *testing.T, b *Bridge, cls *object.Class, name string) handle.Property {
	t.Helper()
	ph := b.FindProperty(b.Runtime().ClassHandle(cls), name)
	if ph.IsNull() {
		t.Fatalf("property %s not found", name)
	}
	return ph
}

// fakeGuest is an in-process callback surface that records everything the
// host asks of it.
type fakeGuest struct {
	nextID       uint64
	instances    map[uint64]handle.Object
	defaults     map[uint64]bool
	invoked      []uint64
	delegates    []uint64
	dropped      []uint64
	droppedTypes []uint64
	pinnedDead   []handle.Object
	shutdowns    int

	onInvoke   func(obj handle.Object, callbackID uint64, block handle.Block) error
	onDelegate func(callbackID uint64, block handle.Block) error
	failNext   bool
}

func newFakeGuest() *fakeGuest {
	return &fakeGuest{
		nextID:    1,
		instances: make(map[uint64]handle.Object),
		defaults:  make(map[uint64]bool),
	}
}

func (g *fakeGuest) ConstructInstance(_ context.Context, typeID uint64, obj handle.Object, isDefault bool) (uint64, error) {
	if g.failNext {
		g.failNext = false
		return 0, fmt.Errorf("construct refused")
	}
	id := g.nextID
	g.nextID++
	g.instances[id] = obj
	if isDefault {
		g.defaults[id] = true
	}
	return id, nil
}

func (g *fakeGuest) DropInstance(_ context.Context, obj handle.Object, typeID uint64, instanceID uint64) {
	g.dropped = append(g.dropped, instanceID)
	g.droppedTypes = append(g.droppedTypes, typeID)
	delete(g.instances, instanceID)
}

func (g *fakeGuest) InvokeFunction(_ context.Context, obj handle.Object, callbackID uint64, block handle.Block) error {
	g.invoked = append(g.invoked, callbackID)
	if g.onInvoke != nil {
		return g.onInvoke(obj, callbackID, block)
	}
	return nil
}

func (g *fakeGuest) InvokeDelegateCallback(_ context.Context, callbackID uint64, block handle.Block) error {
	g.delegates = append(g.delegates, callbackID)
	if g.onDelegate != nil {
		return g.onDelegate(callbackID, block)
	}
	return nil
}

func (g *fakeGuest) NotifyPinnedDestroyed(_ context.Context, obj handle.Object) {
	g.pinnedDead = append(g.pinnedDead, obj)
}

func (g *fakeGuest) OnShutdown(context.Context) error {
	g.shutdowns++
	return nil
}

var _ guest.Callbacks = (*fakeGuest)(nil)
