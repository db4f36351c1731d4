package object

import "testing"

func TestClassLinkLayout(t *testing.T) {
	rt := NewRuntime()
	base, err := rt.NewClass("Base", nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := base.AddProperty("A", Descriptor{Kind: Int32}, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := base.AddProperty("B", Descriptor{Kind: String}, 1); err != nil {
		t.Fatal(err)
	}

	derived, err := rt.NewClass("Derived", base, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := derived.AddProperty("C", Descriptor{Kind: Bool}, 1); err != nil {
		t.Fatal(err)
	}
	derived.Link()

	// Superclass slots come first and keep their positions.
	if got := base.Property("A").Slot(); got != 0 {
		t.Errorf("A slot = %d, want 0", got)
	}
	if got := base.Property("B").Slot(); got != 1 {
		t.Errorf("B slot = %d, want 1", got)
	}
	if got := derived.Property("C").Slot(); got != 2 {
		t.Errorf("C slot = %d, want 2", got)
	}
	if derived.SlotCount() != 3 {
		t.Errorf("slot count = %d, want 3", derived.SlotCount())
	}

	// Name lookup walks the super chain.
	if derived.Property("A") == nil {
		t.Error("inherited property not found")
	}
	if !derived.IsA(base) {
		t.Error("Derived.IsA(Base) = false")
	}
	if base.IsA(derived) {
		t.Error("Base.IsA(Derived) = true")
	}
}

func TestClassMutationAfterLink(t *testing.T) {
	rt := NewRuntime()
	cls, err := rt.NewClass("Frozen", nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	cls.Link()
	if _, err := cls.AddProperty("X", Descriptor{Kind: Int32}, 1); err == nil {
		t.Error("AddProperty after link succeeded")
	}
	if _, err := cls.AddFunction("F"); err == nil {
		t.Error("AddFunction after link succeeded")
	}
}

func TestDuplicateDeclarations(t *testing.T) {
	rt := NewRuntime()
	cls, err := rt.NewClass("Dup", nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cls.AddProperty("P", Descriptor{Kind: Int32}, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cls.AddProperty("P", Descriptor{Kind: Int32}, 1); err == nil {
		t.Error("duplicate property accepted")
	}
	if _, err := rt.NewClass("Dup", nil, ClassNative, nil); err == nil {
		t.Error("duplicate class accepted")
	}
}

func TestFunctionParamOrder(t *testing.T) {
	rt := NewRuntime()
	cls, err := rt.NewClass("Callable", nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	fn, err := cls.AddFunction("Do")
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"First", "Second", "Result"}
	for i, n := range names {
		flags := PropFlags(0)
		if n == "Result" {
			flags = FlagReturnParm
		}
		p, err := fn.AddParam(n, Descriptor{Kind: Int32}, flags)
		if err != nil {
			t.Fatal(err)
		}
		if p.Slot() != i {
			t.Errorf("param %s slot = %d, want %d", n, p.Slot(), i)
		}
	}
	for i, p := range fn.Params() {
		if p.Name() != names[i] {
			t.Errorf("param %d = %s, want %s (declaration order)", i, p.Name(), names[i])
		}
	}
	if fn.ReturnParam() == nil || fn.ReturnParam().Name() != "Result" {
		t.Error("return parameter not found")
	}

	fn.Link()
	if _, err := fn.AddParam("Late", Descriptor{Kind: Bool}, 0); err == nil {
		t.Error("AddParam after link succeeded")
	}
}

func TestRefSlots(t *testing.T) {
	rt := NewRuntime()
	cls, err := rt.NewClass("Holder", nil, ClassNative, nil)
	if err != nil {
		t.Fatal(err)
	}
	cls.AddProperty("Plain", Descriptor{Kind: Int32}, 1)
	cls.AddProperty("Ref", Descriptor{Kind: ObjectRef}, 1)
	cls.AddProperty("Refs", Descriptor{Kind: Seq, Elem: &Descriptor{Kind: ObjectRef}}, 1)
	cls.AddProperty("Ints", Descriptor{Kind: Seq, Elem: &Descriptor{Kind: Int32}}, 1)
	cls.Link()

	want := []int{cls.Property("Ref").Slot(), cls.Property("Refs").Slot()}
	if len(cls.refSlots) != len(want) {
		t.Fatalf("refSlots = %v, want %v", cls.refSlots, want)
	}
	for i := range want {
		if cls.refSlots[i] != want[i] {
			t.Errorf("refSlots[%d] = %d, want %d", i, cls.refSlots[i], want[i])
		}
	}
}
