package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/guest"
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// scriptGuest is one generation of fake guest state: a fresh id space per
// load, recording what the host asks of it.
type scriptGuest struct {
	nextID    uint64
	instances map[uint64]handle.Object
	defaults  map[uint64]bool
	dropped   []uint64
	shutdowns int
}

func (g *scriptGuest) ConstructInstance(_ context.Context, typeID uint64, obj handle.Object, isDefault bool) (uint64, error) {
	id := g.nextID
	g.nextID++
	g.instances[id] = obj
	if isDefault {
		g.defaults[id] = true
	}
	return id, nil
}

func (g *scriptGuest) DropInstance(_ context.Context, obj handle.Object, typeID uint64, instanceID uint64) {
	g.dropped = append(g.dropped, instanceID)
	delete(g.instances, instanceID)
}

func (g *scriptGuest) InvokeFunction(context.Context, handle.Object, uint64, handle.Block) error {
	return nil
}

func (g *scriptGuest) InvokeDelegateCallback(context.Context, uint64, handle.Block) error {
	return nil
}

func (g *scriptGuest) NotifyPinnedDestroyed(context.Context, handle.Object) {}

func (g *scriptGuest) OnShutdown(context.Context) error {
	g.shutdowns++
	return nil
}

type scriptModule struct {
	guest  *scriptGuest
	closed bool
}

func (m *scriptModule) Callbacks() guest.Callbacks { return m.guest }

func (m *scriptModule) Close(context.Context) error {
	m.closed = true
	return nil
}

// scriptLoader fakes a module artifact: each Load declares the reified
// Scripted class the way a real module's startup export would, then hands
// back a fresh guest generation.
type scriptLoader struct {
	br       *bridge.Bridge
	baseCls  handle.Class
	failNext bool

	loads   []string
	modules []*scriptModule
}

func (l *scriptLoader) Load(_ context.Context, path string) (guest.Module, error) {
	if l.failNext {
		l.failNext = false
		return nil, fmt.Errorf("artifact rejected")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	l.loads = append(l.loads, path)

	ch, code := l.br.CreateClass("Scripted", l.baseCls, uint64(len(l.loads)))
	if code != handle.OK {
		return nil, fmt.Errorf("declare class: %s", code)
	}
	if code := l.br.FinalizeClass(ch); code != handle.OK {
		return nil, fmt.Errorf("finalize class: %s", code)
	}

	m := &scriptModule{guest: &scriptGuest{
		nextID:    1,
		instances: make(map[uint64]handle.Object),
		defaults:  make(map[uint64]bool),
	}}
	l.modules = append(l.modules, m)
	return m, nil
}

var _ guest.Loader = (*scriptLoader)(nil)

type fixture struct {
	br     *bridge.Bridge
	loader *scriptLoader
	co     *Coordinator
	src    string
	health handle.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rt := object.NewRuntime()
	br := bridge.New(rt)

	entity, err := rt.NewClass("Entity", nil, object.ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entity.AddProperty("Health", object.Descriptor{Kind: object.Int32}, 1); err != nil {
		t.Fatal(err)
	}
	entity.Link()

	dir := t.TempDir()
	src := filepath.Join(dir, "mod.wasm")
	if err := os.WriteFile(src, []byte("gen1"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := &scriptLoader{br: br, baseCls: rt.ClassHandle(entity)}
	co := New(br, loader, src)
	return &fixture{
		br:     br,
		loader: loader,
		co:     co,
		src:    src,
		health: br.FindProperty(rt.ClassHandle(entity), "Health"),
	}
}

func (fx *fixture) guest(gen int) *scriptGuest {
	return fx.loader.modules[gen-1].guest
}

func TestReloadPreservesIdentity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.co.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := fx.co.Load(ctx); err == nil {
		t.Error("second Load accepted")
	}

	// Three live instances, each with distinct host-side state.
	ch := fx.br.FindClass("Scripted")
	var handles []handle.Object
	for i := int32(1); i <= 3; i++ {
		oh, code := fx.br.NewObject(ch, 0, fmt.Sprintf("s%d", i))
		if code != handle.OK {
			t.Fatal(code)
		}
		if code := fx.br.SetI32(oh, fx.health, 0, i*100); code != handle.OK {
			t.Fatal(code)
		}
		handles = append(handles, oh)
	}
	// The class default paired at load time, the rest at construction.
	if got := len(fx.guest(1).instances); got != 4 {
		t.Fatalf("first generation paired %d instances, want 4", got)
	}
	if len(fx.guest(1).defaults) != 1 {
		t.Fatalf("first generation defaults = %v, want one", fx.guest(1).defaults)
	}

	if err := os.WriteFile(fx.src, []byte("gen2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fx.co.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if fx.co.Degraded() {
		t.Error("degraded after successful reload")
	}
	if fx.co.Generation() != 2 {
		t.Errorf("generation = %d", fx.co.Generation())
	}

	// The old generation was torn down: every real instance dropped, the
	// default left for the wholesale shutdown to cover.
	old := fx.guest(1)
	if len(old.dropped) != 3 || len(old.instances) != 1 || old.shutdowns != 1 {
		t.Errorf("old generation teardown: dropped=%v live=%v shutdowns=%d",
			old.dropped, old.instances, old.shutdowns)
	}
	if !fx.loader.modules[0].closed {
		t.Error("old module not closed")
	}

	// Every handle taken before the reload resolves to the same object,
	// with its state intact, now paired with the new generation.
	fresh := fx.guest(2)
	if got := len(fresh.instances); got != 4 {
		t.Fatalf("new generation paired %d instances, want 4", got)
	}
	if len(fresh.defaults) != 1 {
		t.Errorf("new generation defaults = %v, want one", fresh.defaults)
	}
	for i, oh := range handles {
		if !fx.br.IsValid(oh) {
			t.Errorf("handle %d stale after reload", i)
		}
		got, code := fx.br.GetI32(oh, fx.health, 0)
		if code != handle.OK || got != int32(i+1)*100 {
			t.Errorf("Health[%d] = %d, %s; want %d", i, got, code, (i+1)*100)
		}
	}

	// The reload ran off a staged copy, not the source artifact.
	staged := filepath.Join(filepath.Dir(fx.src), "mod_hot_1.wasm")
	if fx.loader.loads[1] != staged {
		t.Errorf("reload path = %q, want %q", fx.loader.loads[1], staged)
	}
	if data, err := os.ReadFile(staged); err != nil || string(data) != "gen2" {
		t.Errorf("staged copy = %q, %v", data, err)
	}

	// Another reload retires the previous generation's staged copy.
	if err := os.WriteFile(fx.src, []byte("gen3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fx.co.Reload(ctx); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("previous staged copy survived: %v", err)
	}
	next := filepath.Join(filepath.Dir(fx.src), "mod_hot_2.wasm")
	if _, err := os.Stat(next); err != nil {
		t.Errorf("current staged copy missing: %v", err)
	}
}

func TestReloadMissingArtifact(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.co.Load(ctx); err != nil {
		t.Fatal(err)
	}

	// The precondition fails before anything is torn down.
	if err := os.Remove(fx.src); err != nil {
		t.Fatal(err)
	}
	if err := fx.co.Reload(ctx); err == nil {
		t.Fatal("reload without artifact accepted")
	}
	if fx.co.Degraded() {
		t.Error("degraded after failed precondition")
	}
	if fx.guest(1).shutdowns != 0 {
		t.Error("old module was torn down")
	}
	if fx.loader.modules[0].closed {
		t.Error("old module was closed")
	}
}

func TestReloadDegradedThenRetry(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.co.Load(ctx); err != nil {
		t.Fatal(err)
	}
	ch := fx.br.FindClass("Scripted")
	oh, _ := fx.br.NewObject(ch, 0, "s")
	fx.br.SetI32(oh, fx.health, 0, 5)

	// A load failure after teardown leaves the host degraded but intact.
	fx.loader.failNext = true
	if err := fx.co.Reload(ctx); err == nil {
		t.Fatal("failing load accepted")
	}
	if !fx.co.Degraded() {
		t.Error("not degraded after failed load")
	}
	if fx.guest(1).shutdowns != 1 {
		t.Error("old module not torn down before the failure")
	}
	if !fx.br.IsValid(oh) {
		t.Fatal("host object lost in degraded state")
	}

	// A retry picks up from the load step.
	if err := fx.co.Reload(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if fx.co.Degraded() {
		t.Error("still degraded after successful retry")
	}
	if got := len(fx.guest(2).instances); got != 2 {
		t.Errorf("retry paired %d instances, want default plus one", got)
	}
	if got, _ := fx.br.GetI32(oh, fx.health, 0); got != 5 {
		t.Errorf("Health = %d after degraded reload", got)
	}
}

func TestShutdown(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.co.Load(ctx); err != nil {
		t.Fatal(err)
	}
	ch := fx.br.FindClass("Scripted")
	fx.br.NewObject(ch, 0, "s")

	if err := fx.co.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	g := fx.guest(1)
	if g.shutdowns != 1 || len(g.dropped) != 1 {
		t.Errorf("shutdown: shutdowns=%d dropped=%v", g.shutdowns, g.dropped)
	}
	if !fx.loader.modules[0].closed {
		t.Error("module not closed")
	}
	// Shutting down twice is harmless.
	if err := fx.co.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
