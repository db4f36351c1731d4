package bridge

import (
	"context"
	"testing"

	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

func TestLookupsMissAsNull(t *testing.T) {
	b, actor := newTestBridge(t)
	cls := b.Runtime().ClassHandle(actor)

	if h := b.FindClass("NoSuchClass"); !h.IsNull() {
		t.Error("class miss returned non-null")
	}
	if h := b.FindProperty(cls, "NoSuchProp"); !h.IsNull() {
		t.Error("property miss returned non-null")
	}
	if h := b.FindFunction(cls, "NoSuchFunc"); !h.IsNull() {
		t.Error("function miss returned non-null")
	}
	if h := b.FindClass("Actor"); h != cls {
		t.Errorf("FindClass(Actor) = %v, want %v", h, cls)
	}
	if b.PropKind(0) != object.Invalid {
		t.Error("null property reported a kind")
	}
}

func TestPropertyMetadata(t *testing.T) {
	b, actor := newTestBridge(t)
	cls := b.Runtime().ClassHandle(actor)

	tags := b.FindProperty(cls, "Tags")
	if k := b.PropKind(tags); k != object.Seq {
		t.Errorf("Tags kind = %s", k)
	}
	if k := b.PropElemKind(tags); k != object.String {
		t.Errorf("Tags elem kind = %s", k)
	}
	bonus := b.FindProperty(cls, "Bonus")
	kk, vk := b.PropKeyValueKinds(bonus)
	if kk != object.String || vk != object.Int32 {
		t.Errorf("Bonus kinds = %s, %s", kk, vk)
	}
	ammo := b.FindProperty(cls, "Ammo")
	if dim := b.PropArrayDim(ammo); dim != 4 {
		t.Errorf("Ammo dim = %d", dim)
	}
	health := b.FindProperty(cls, "Health")
	if sz := b.PropSize(health); sz != 4 {
		t.Errorf("Health size = %d", sz)
	}
	if n := b.PropName(health); b.NameString(n) != "Health" {
		t.Errorf("PropName = %q", b.NameString(n))
	}
	target := b.FindProperty(cls, "Target")
	if c := b.PropClassConstraint(target); c != cls {
		t.Errorf("Target constraint = %v, want Actor", c)
	}
}

// addNativeScale declares Scale(Value i32, Factor i32, Result i64) with a
// native body multiplying the inputs.
func addNativeScale(t *testing.T, cls *object.Class) *object.Function {
	t.Helper()
	fn, err := cls.AddFunction("Scale")
	if err != nil {
		t.Fatal(err)
	}
	value, _ := fn.AddParam("Value", object.Descriptor{Kind: object.Int32}, 0)
	factor, _ := fn.AddParam("Factor", object.Descriptor{Kind: object.Int32}, 0)
	result, _ := fn.AddParam("Result", object.Descriptor{Kind: object.Int64}, object.FlagOutParm|object.FlagReturnParm)
	fn.SetNative(func(fr *object.Frame) {
		v := fr.Locals.Get(value).(int32)
		f := fr.Locals.Get(factor).(int32)
		fr.Locals.Set(result, int64(v)*int64(f))
	})
	return fn
}

func TestDynamicCall(t *testing.T) {
	rt := object.NewRuntime()
	b := New(rt)
	cls, err := rt.NewClass("Calc", nil, object.ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	addNativeScale(t, cls)
	cls.Link()

	oh := spawn(t, b, cls, "calc")
	fh := b.FindFunction(rt.ClassHandle(cls), "Scale")
	if fh.IsNull() {
		t.Fatal("Scale not found")
	}
	if n := b.FuncParamCount(fh); n != 3 {
		t.Fatalf("param count = %d", n)
	}

	bh, code := b.AllocParams(fh)
	if code != handle.OK {
		t.Fatalf("AllocParams: %s", code)
	}
	pValue := b.FuncParam(fh, 0)
	pFactor := b.FuncParam(fh, 1)
	pResult := b.FuncParam(fh, 2)
	if flags := b.FuncParamFlags(fh, 2); flags&object.FlagReturnParm == 0 {
		t.Error("Result not flagged as return parameter")
	}

	if code := b.BlockSet(bh, pValue, i32(6)); code != handle.OK {
		t.Fatalf("BlockSet: %s", code)
	}
	if code := b.BlockSet(bh, pFactor, i32(7)); code != handle.OK {
		t.Fatalf("BlockSet: %s", code)
	}
	if code := b.CallFunction(oh, fh, bh); code != handle.OK {
		t.Fatalf("CallFunction: %s", code)
	}

	buf := make([]byte, 8)
	size, code := b.BlockGet(bh, pResult, buf)
	if code != handle.OK || size != 8 {
		t.Fatalf("BlockGet: %d, %s", size, code)
	}
	var got int64
	for i := 7; i >= 0; i-- {
		got = got<<8 | int64(buf[i])
	}
	if got != 42 {
		t.Errorf("Result = %d, want 42", got)
	}

	if code := b.FreeParams(bh); code != handle.OK {
		t.Fatalf("FreeParams: %s", code)
	}
	// Freeing again is a no-op; using the freed block is rejected.
	if code := b.FreeParams(bh); code != handle.OK {
		t.Errorf("second FreeParams = %s", code)
	}
	if code := b.CallFunction(oh, fh, bh); code != handle.InvalidOperation {
		t.Errorf("call with freed block = %s", code)
	}
}

func TestBlockParamOwnership(t *testing.T) {
	rt := object.NewRuntime()
	b := New(rt)
	cls, _ := rt.NewClass("Calc", nil, object.ClassNative, nil)
	addNativeScale(t, cls)
	other, _ := cls.AddFunction("Other")
	otherParam, _ := other.AddParam("X", object.Descriptor{Kind: object.Int32}, 0)
	cls.Link()

	fh := b.FindFunction(rt.ClassHandle(cls), "Scale")
	bh, _ := b.AllocParams(fh)
	// A parameter of a different function cannot address this block.
	if code := b.BlockSet(bh, rt.PropertyHandle(otherParam), i32(1)); code != handle.InvalidCast {
		t.Errorf("foreign param write = %s, want invalid cast", code)
	}
}

func TestGuestBodiedCall(t *testing.T) {
	b, actor := newTestBridge(t)
	rt := b.Runtime()
	g := newFakeGuest()
	b.Bind(context.Background(), g)

	// A reified subclass whose function body lives in the guest.
	ch, code := b.CreateClass("ScriptedActor", rt.ClassHandle(actor), 77)
	if code != handle.OK {
		t.Fatal(code)
	}
	fh, code := b.AddReifiedFunction(ch, "Tick", 501)
	if code != handle.OK {
		t.Fatal(code)
	}
	if code := b.FinalizeClass(ch); code != handle.OK {
		t.Fatal(code)
	}

	oh, code := b.NewObject(ch, 0, "scripted")
	if code != handle.OK {
		t.Fatal(code)
	}
	bh, _ := b.AllocParams(fh)
	if code := b.CallFunction(oh, fh, bh); code != handle.OK {
		t.Fatalf("CallFunction: %s", code)
	}
	if len(g.invoked) != 1 || g.invoked[0] != 501 {
		t.Errorf("guest invocations = %v, want [501]", g.invoked)
	}
}
