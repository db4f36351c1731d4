package bridge

import (
	"testing"

	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

func TestScalarRoundTrips(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")

	health := prop(t, b, actor, "Health")
	if code := b.SetI32(oh, health, 0, -42); code != handle.OK {
		t.Fatalf("SetI32: %s", code)
	}
	if got, code := b.GetI32(oh, health, 0); code != handle.OK || got != -42 {
		t.Errorf("GetI32 = %d, %s; want -42", got, code)
	}

	speed := prop(t, b, actor, "Speed")
	if code := b.SetF64(oh, speed, 0, 12.5); code != handle.OK {
		t.Fatalf("SetF64: %s", code)
	}
	if got, code := b.GetF64(oh, speed, 0); code != handle.OK || got != 12.5 {
		t.Errorf("GetF64 = %v, %s; want 12.5", got, code)
	}

	alive := prop(t, b, actor, "Alive")
	if code := b.SetBool(oh, alive, 0, true); code != handle.OK {
		t.Fatalf("SetBool: %s", code)
	}
	if got, code := b.GetBool(oh, alive, 0); code != handle.OK || !got {
		t.Errorf("GetBool = %v, %s; want true", got, code)
	}

	title := prop(t, b, actor, "Title")
	if code := b.SetString(oh, title, 0, "captain"); code != handle.OK {
		t.Fatalf("SetString: %s", code)
	}
	if got, code := b.GetString(oh, title, 0); code != handle.OK || got != "captain" {
		t.Errorf("GetString = %q, %s", got, code)
	}
}

func TestAccessorKindMismatch(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	health := prop(t, b, actor, "Health")

	if _, code := b.GetF32(oh, health, 0); code != handle.TypeMismatch {
		t.Errorf("float read of int property = %s, want type mismatch", code)
	}
	if code := b.SetString(oh, health, 0, "no"); code != handle.TypeMismatch {
		t.Errorf("string write of int property = %s, want type mismatch", code)
	}
	// The failed write must not disturb the value.
	b.SetI32(oh, health, 0, 7)
	b.SetBool(oh, health, 0, true)
	if got, _ := b.GetI32(oh, health, 0); got != 7 {
		t.Errorf("value disturbed by failed write: %d", got)
	}
}

func TestStaleHandleAccess(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	health := prop(t, b, actor, "Health")

	b.DestroyObject(oh)
	if _, code := b.GetI32(oh, health, 0); code != handle.ObjectDestroyed {
		t.Errorf("read through stale handle = %s, want object destroyed", code)
	}
	if code := b.SetI32(oh, health, 0, 1); code != handle.ObjectDestroyed {
		t.Errorf("write through stale handle = %s, want object destroyed", code)
	}
	if _, code := b.GetI32(0, health, 0); code != handle.NullArgument {
		t.Errorf("read through null handle = %s, want null argument", code)
	}
}

func TestFixedArrayIndexing(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	ammo := prop(t, b, actor, "Ammo")

	for i := int32(0); i < 4; i++ {
		if code := b.SetI32(oh, ammo, i, i*10); code != handle.OK {
			t.Fatalf("SetI32[%d]: %s", i, code)
		}
	}
	for i := int32(0); i < 4; i++ {
		if got, _ := b.GetI32(oh, ammo, i); got != i*10 {
			t.Errorf("Ammo[%d] = %d, want %d", i, got, i*10)
		}
	}
	if _, code := b.GetI32(oh, ammo, 4); code != handle.IndexOutOfRange {
		t.Errorf("read past dim = %s, want index out of range", code)
	}
	if code := b.SetI32(oh, ammo, -1, 0); code != handle.IndexOutOfRange {
		t.Errorf("negative index = %s, want index out of range", code)
	}
}

func TestObjectReferenceConstraint(t *testing.T) {
	b, actor := newTestBridge(t)
	rt := b.Runtime()
	other, err := rt.NewClass("Widget", nil, object.ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	other.Link()

	oh := spawn(t, b, actor, "a")
	target := prop(t, b, actor, "Target")

	peer := spawn(t, b, actor, "peer")
	if code := b.SetObject(oh, target, 0, peer); code != handle.OK {
		t.Fatalf("SetObject: %s", code)
	}
	if got, _ := b.GetObject(oh, target, 0); got != peer {
		t.Errorf("GetObject = %v, want %v", got, peer)
	}

	// The property is constrained to Actor; a Widget is rejected.
	wh, code := b.NewObject(rt.ClassHandle(other), 0, "w")
	if code != handle.OK {
		t.Fatal(code)
	}
	if code := b.SetObject(oh, target, 0, wh); code != handle.InvalidCast {
		t.Errorf("cross-class write = %s, want invalid cast", code)
	}

	// A destroyed target cannot be stored.
	b.DestroyObject(peer)
	if code := b.SetObject(oh, target, 0, peer); code != handle.ObjectDestroyed {
		t.Errorf("stale target write = %s, want object destroyed", code)
	}

	// Null always clears.
	if code := b.SetObject(oh, target, 0, 0); code != handle.OK {
		t.Errorf("null clear = %s", code)
	}
}

func TestEncodedPropertyAccess(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	title := prop(t, b, actor, "Title")

	if code := b.PropSetEncoded(oh, title, 0, []byte("bosun")); code != handle.OK {
		t.Fatalf("PropSetEncoded: %s", code)
	}

	// Undersized buffer reports the exact requirement; a retry at that
	// size succeeds.
	small := make([]byte, 2)
	need, code := b.PropGetEncoded(oh, title, 0, small)
	if code != handle.BufferTooSmall {
		t.Fatalf("short read = %s, want buffer too small", code)
	}
	buf := make([]byte, need)
	size, code := b.PropGetEncoded(oh, title, 0, buf)
	if code != handle.OK {
		t.Fatalf("retry = %s", code)
	}
	if string(buf[:size]) != "bosun" {
		t.Errorf("retry read %q", buf[:size])
	}
}
