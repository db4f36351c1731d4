package bridge

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/VioletHelianthus/uika/handle"
)

func i32(v int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func TestSeqOperations(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	tags := prop(t, b, actor, "Tags")

	for _, s := range []string{"alpha", "gamma"} {
		if _, code := b.SeqAdd(oh, tags, []byte(s)); code != handle.OK {
			t.Fatalf("SeqAdd(%s): %s", s, code)
		}
	}
	if code := b.SeqInsert(oh, tags, 1, []byte("beta")); code != handle.OK {
		t.Fatalf("SeqInsert: %s", code)
	}

	want := []string{"alpha", "beta", "gamma"}
	n, code := b.SeqLen(oh, tags)
	if code != handle.OK || int(n) != len(want) {
		t.Fatalf("SeqLen = %d, %s", n, code)
	}
	for i, w := range want {
		buf := make([]byte, 16)
		size, code := b.SeqGet(oh, tags, int32(i), buf)
		if code != handle.OK {
			t.Fatalf("SeqGet(%d): %s", i, code)
		}
		if string(buf[:size]) != w {
			t.Errorf("Tags[%d] = %q, want %q", i, buf[:size], w)
		}
	}

	if code := b.SeqSet(oh, tags, 1, []byte("BETA")); code != handle.OK {
		t.Fatalf("SeqSet: %s", code)
	}
	if code := b.SeqRemove(oh, tags, 0); code != handle.OK {
		t.Fatalf("SeqRemove: %s", code)
	}
	buf := make([]byte, 16)
	size, _ := b.SeqGet(oh, tags, 0, buf)
	if string(buf[:size]) != "BETA" {
		t.Errorf("after remove, Tags[0] = %q", buf[:size])
	}

	if code := b.SeqRemove(oh, tags, 9); code != handle.IndexOutOfRange {
		t.Errorf("remove out of range = %s", code)
	}
	if code := b.SeqClear(oh, tags); code != handle.OK {
		t.Fatalf("SeqClear: %s", code)
	}
	if n, _ := b.SeqLen(oh, tags); n != 0 {
		t.Errorf("len after clear = %d", n)
	}
}

func TestSeqBulkRawMode(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	scores := prop(t, b, actor, "Scores")

	vals := []int32{5, -1, 999}
	for _, v := range vals {
		if _, code := b.SeqAdd(oh, scores, i32(v)); code != handle.OK {
			t.Fatal(code)
		}
	}

	buf := make([]byte, 64)
	count, size, code := b.SeqCopyAll(oh, scores, buf)
	if code != handle.OK {
		t.Fatalf("SeqCopyAll: %s", code)
	}
	// Trivial element kind travels raw: negative count, packed payload.
	if count != -3 {
		t.Errorf("count = %d, want -3 (raw mode)", count)
	}
	if size != 12 {
		t.Errorf("size = %d, want 12", size)
	}

	// Round trip the bulk form into a second object.
	oh2 := spawn(t, b, actor, "b")
	if code := b.SeqAssignAll(oh2, scores, buf[:size], count); code != handle.OK {
		t.Fatalf("SeqAssignAll: %s", code)
	}
	got := make([]int32, 0, 3)
	for i := int32(0); i < 3; i++ {
		e := make([]byte, 4)
		if _, code := b.SeqGet(oh2, scores, i, e); code != handle.OK {
			t.Fatal(code)
		}
		got = append(got, int32(binary.LittleEndian.Uint32(e)))
	}
	if diff := cmp.Diff(vals, got); diff != "" {
		t.Errorf("bulk round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSeqBulkFramedModeAndRetry(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	tags := prop(t, b, actor, "Tags")

	for _, s := range []string{"one", "twotwo", ""} {
		if _, code := b.SeqAdd(oh, tags, []byte(s)); code != handle.OK {
			t.Fatal(code)
		}
	}

	// Deliberately undersized buffer: the size result is the exact
	// requirement and a single retry at that size succeeds.
	small := make([]byte, 4)
	_, need, code := b.SeqCopyAll(oh, tags, small)
	if code != handle.BufferTooSmall {
		t.Fatalf("short copy = %s, want buffer too small", code)
	}
	buf := make([]byte, need)
	count, size, code := b.SeqCopyAll(oh, tags, buf)
	if code != handle.OK {
		t.Fatalf("retry = %s", code)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3 (framed mode)", count)
	}
	if size != need {
		t.Errorf("size %d != hinted requirement %d", size, need)
	}

	oh2 := spawn(t, b, actor, "b")
	if code := b.SeqAssignAll(oh2, tags, buf[:size], count); code != handle.OK {
		t.Fatalf("SeqAssignAll: %s", code)
	}
	e := make([]byte, 16)
	n, _ := b.SeqGet(oh2, tags, 1, e)
	if string(e[:n]) != "twotwo" {
		t.Errorf("framed round trip: %q", e[:n])
	}
}

func TestSetOperations(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	flags := prop(t, b, actor, "Flags")

	for _, v := range []int32{1, 2, 3} {
		if code := b.SetAdd(oh, flags, i32(v)); code != handle.OK {
			t.Fatal(code)
		}
	}
	// Duplicate add is a no-op.
	b.SetAdd(oh, flags, i32(2))
	if n, _ := b.SetLen(oh, flags); n != 3 {
		t.Fatalf("len = %d, want 3", n)
	}

	// A membership probe is transient: probing for an absent element
	// must not insert it.
	found, code := b.SetContains(oh, flags, i32(99))
	if code != handle.OK || found {
		t.Errorf("Contains(99) = %v, %s", found, code)
	}
	if n, _ := b.SetLen(oh, flags); n != 3 {
		t.Errorf("probe inserted: len = %d", n)
	}

	if found, _ := b.SetContains(oh, flags, i32(2)); !found {
		t.Error("Contains(2) = false")
	}

	removed, code := b.SetRemove(oh, flags, i32(2))
	if code != handle.OK || !removed {
		t.Fatalf("Remove(2) = %v, %s", removed, code)
	}
	removed, code = b.SetRemove(oh, flags, i32(2))
	if code != handle.OK || removed {
		t.Errorf("second Remove(2) = %v, %s; removal is idempotent", removed, code)
	}

	// Enumerate what's left through Nth.
	seen := map[int32]bool{}
	n, _ := b.SetLen(oh, flags)
	for i := int32(0); i < n; i++ {
		e := make([]byte, 4)
		if _, code := b.SetNth(oh, flags, i, e); code != handle.OK {
			t.Fatal(code)
		}
		seen[int32(binary.LittleEndian.Uint32(e))] = true
	}
	if !seen[1] || !seen[3] || len(seen) != 2 {
		t.Errorf("enumerated %v, want {1,3}", seen)
	}
	if _, code := b.SetNth(oh, flags, n, make([]byte, 4)); code != handle.IndexOutOfRange {
		t.Errorf("Nth past end = %s", code)
	}
}

func TestMapOperations(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	bonus := prop(t, b, actor, "Bonus")

	if code := b.MapAdd(oh, bonus, []byte("gold"), i32(10)); code != handle.OK {
		t.Fatal(code)
	}
	if code := b.MapAdd(oh, bonus, []byte("iron"), i32(3)); code != handle.OK {
		t.Fatal(code)
	}
	// Same key overwrites.
	if code := b.MapAdd(oh, bonus, []byte("gold"), i32(25)); code != handle.OK {
		t.Fatal(code)
	}
	if n, _ := b.MapLen(oh, bonus); n != 2 {
		t.Fatalf("len = %d, want 2", n)
	}

	buf := make([]byte, 4)
	if _, code := b.MapFind(oh, bonus, []byte("gold"), buf); code != handle.OK {
		t.Fatalf("Find(gold): %s", code)
	}
	if got := int32(binary.LittleEndian.Uint32(buf)); got != 25 {
		t.Errorf("gold = %d, want 25", got)
	}
	if _, code := b.MapFind(oh, bonus, []byte("silk"), buf); code != handle.PropertyNotFound {
		t.Errorf("Find(absent) = %s, want property not found", code)
	}
	// A failed probe must not insert.
	if n, _ := b.MapLen(oh, bonus); n != 2 {
		t.Errorf("probe inserted: len = %d", n)
	}

	removed, code := b.MapRemove(oh, bonus, []byte("iron"))
	if code != handle.OK || !removed {
		t.Fatalf("Remove(iron) = %v, %s", removed, code)
	}
	removed, _ = b.MapRemove(oh, bonus, []byte("iron"))
	if removed {
		t.Error("second remove reported presence")
	}

	keyBuf := make([]byte, 16)
	valBuf := make([]byte, 4)
	ks, vs, code := b.MapNth(oh, bonus, 0, keyBuf, valBuf)
	if code != handle.OK {
		t.Fatalf("MapNth: %s", code)
	}
	if string(keyBuf[:ks]) != "gold" || int32(binary.LittleEndian.Uint32(valBuf[:vs])) != 25 {
		t.Errorf("MapNth = %q -> %d", keyBuf[:ks], binary.LittleEndian.Uint32(valBuf[:vs]))
	}
}

func TestMapBulkRoundTrip(t *testing.T) {
	b, actor := newTestBridge(t)
	oh := spawn(t, b, actor, "a")
	bonus := prop(t, b, actor, "Bonus")

	b.MapAdd(oh, bonus, []byte("a"), i32(1))
	b.MapAdd(oh, bonus, []byte("bb"), i32(2))

	keyBuf := make([]byte, 64)
	valBuf := make([]byte, 64)
	kc, vc, ks, vs, code := b.MapCopyAll(oh, bonus, keyBuf, valBuf)
	if code != handle.OK {
		t.Fatalf("MapCopyAll: %s", code)
	}
	// String keys are framed, int32 values raw.
	if kc != 2 || vc != -2 {
		t.Errorf("counts = %d, %d; want 2, -2", kc, vc)
	}

	oh2 := spawn(t, b, actor, "b")
	if code := b.MapAssignAll(oh2, bonus, keyBuf[:ks], kc, valBuf[:vs], vc); code != handle.OK {
		t.Fatalf("MapAssignAll: %s", code)
	}
	buf := make([]byte, 4)
	if _, code := b.MapFind(oh2, bonus, []byte("bb"), buf); code != handle.OK {
		t.Fatalf("Find after assign: %s", code)
	}
	if got := int32(binary.LittleEndian.Uint32(buf)); got != 2 {
		t.Errorf("bb = %d, want 2", got)
	}
}
