package wasmhost

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// HostModule is the import module name guests link the capability table
// under.
const HostModule = "uika"

// ABI conventions, all little-endian:
//
//	strings      (ptr u32, len u32), UTF-8
//	out buffers  (ptr u32, cap u32, sizePtr u32); the size cell gets the
//	             written size on success, the required size on
//	             BufferTooSmall
//	handles      u64; weak handles packed as index<<32|serial
//	out handles  a u64 cell the host writes before returning the code
//	prop specs   a 40-byte record: kind u8, elem u8, key u8, value u8,
//	             array_dim i32, struct u64, enum u64, class u64, sig u64
//	enum entries 16-byte records: name ptr u32, name len u32, value i64
//	struct fields 48-byte records: name ptr u32, name len u32, 40-byte spec
//	results      the result code as u32 unless noted

type memErr struct{ err error }

func (e memErr) Error() string { return e.err.Error() }

func mustMem(m api.Module) api.Memory {
	mem := m.Memory()
	if mem == nil {
		panic(memErr{fmt.Errorf("guest module has no memory")})
	}
	return mem
}

func readBytes(m api.Module, ptr, n uint32) []byte {
	buf, ok := mustMem(m).Read(ptr, n)
	if !ok {
		panic(memErr{fmt.Errorf("guest read out of range: ptr=%d len=%d", ptr, n)})
	}
	return buf
}

func readString(m api.Module, ptr, n uint32) string {
	return string(readBytes(m, ptr, n))
}

func writeBytes(m api.Module, ptr uint32, data []byte) {
	if !mustMem(m).Write(ptr, data) {
		panic(memErr{fmt.Errorf("guest write out of range: ptr=%d len=%d", ptr, len(data))})
	}
}

func writeU32(m api.Module, ptr, v uint32) {
	if !mustMem(m).WriteUint32Le(ptr, v) {
		panic(memErr{fmt.Errorf("guest write out of range: ptr=%d", ptr)})
	}
}

func writeU64(m api.Module, ptr uint32, v uint64) {
	if !mustMem(m).WriteUint64Le(ptr, v) {
		panic(memErr{fmt.Errorf("guest write out of range: ptr=%d", ptr)})
	}
}

func packWeak(w handle.Weak) uint64 {
	return uint64(uint32(w.Index))<<32 | uint64(uint32(w.Serial))
}

func unpackWeak(v uint64) handle.Weak {
	return handle.Weak{Index: int32(v >> 32), Serial: int32(uint32(v))}
}

func readSpec(m api.Module, ptr uint32) bridge.PropSpec {
	raw := readBytes(m, ptr, 40)
	return bridge.PropSpec{
		Kind:       object.Kind(raw[0]),
		ElemKind:   object.Kind(raw[1]),
		KeyKind:    object.Kind(raw[2]),
		ValueKind:  object.Kind(raw[3]),
		ArrayDim:   int32(binary.LittleEndian.Uint32(raw[4:8])),
		StructType: handle.Struct(binary.LittleEndian.Uint64(raw[8:16])),
		EnumType:   handle.Enum(binary.LittleEndian.Uint64(raw[16:24])),
		ClassType:  handle.Class(binary.LittleEndian.Uint64(raw[24:32])),
		Signature:  handle.Function(binary.LittleEndian.Uint64(raw[32:40])),
	}
}

// copyOut finishes a buffer-returning op: writes the produced bytes when
// the code is OK and always records the size.
func copyOut(m api.Module, ptr, sizePtr uint32, data []byte, size uint32, code handle.Code) uint32 {
	writeU32(m, sizePtr, size)
	if code == handle.OK {
		writeBytes(m, ptr, data[:size])
	}
	return uint32(code)
}

// instantiateHostAPI exports the capability table into r under HostModule.
func instantiateHostAPI(ctx context.Context, r wazero.Runtime, b *bridge.Bridge) error {
	hb := r.NewHostModuleBuilder(HostModule)
	ex := func(name string, fn any) {
		hb.NewFunctionBuilder().WithFunc(fn).Export(name)
	}

	// core
	ex("version", func() uint32 { return bridge.Version })
	ex("intern_name", func(_ context.Context, m api.Module, ptr, n uint32) uint64 {
		return uint64(b.InternName(readString(m, ptr, n)))
	})
	ex("find_name", func(_ context.Context, m api.Module, ptr, n uint32) uint64 {
		return uint64(b.FindName(readString(m, ptr, n)))
	})
	ex("name_string", func(_ context.Context, m api.Module, h uint64, ptr, cap, sizePtr uint32) uint32 {
		s := b.NameString(handle.Name(h))
		if uint32(len(s)) > cap {
			writeU32(m, sizePtr, uint32(len(s)))
			return uint32(handle.BufferTooSmall)
		}
		return copyOut(m, ptr, sizePtr, []byte(s), uint32(len(s)), handle.OK)
	})
	ex("new_object", func(_ context.Context, m api.Module, cls, outer uint64, namePtr, nameLen, outPtr uint32) uint32 {
		h, code := b.NewObject(handle.Class(cls), handle.Object(outer), readString(m, namePtr, nameLen))
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("destroy_object", func(h uint64) uint32 {
		return uint32(b.DestroyObject(handle.Object(h)))
	})
	ex("is_valid", func(h uint64) uint32 {
		if b.IsValid(handle.Object(h)) {
			return 1
		}
		return 0
	})
	ex("get_class", func(_ context.Context, m api.Module, h uint64, outPtr uint32) uint32 {
		c, code := b.GetClass(handle.Object(h))
		writeU64(m, outPtr, uint64(c))
		return uint32(code)
	})
	ex("get_object_name", func(_ context.Context, m api.Module, h uint64, outPtr uint32) uint32 {
		n, code := b.GetObjectName(handle.Object(h))
		writeU64(m, outPtr, uint64(n))
		return uint32(code)
	})
	ex("get_outer", func(_ context.Context, m api.Module, h uint64, outPtr uint32) uint32 {
		o, code := b.GetOuter(handle.Object(h))
		writeU64(m, outPtr, uint64(o))
		return uint32(code)
	})
	ex("weak_from_object", func(h uint64) uint64 {
		return packWeak(b.WeakFromObject(handle.Object(h)))
	})
	ex("object_from_weak", func(w uint64) uint64 {
		return uint64(b.ObjectFromWeak(unpackWeak(w)))
	})
	ex("collect", func() uint32 { return uint32(b.Collect()) })
	ex("log", func(_ context.Context, m api.Module, level, ptr, n uint32) {
		b.Log(level, readString(m, ptr, n))
	})

	// property access through the canonical element encoding
	ex("prop_get", func(_ context.Context, m api.Module, oh, ph uint64, idx int32, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.PropGetEncoded(handle.Object(oh), handle.Property(ph), idx, buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("prop_set", func(_ context.Context, m api.Module, oh, ph uint64, idx int32, ptr, n uint32) uint32 {
		return uint32(b.PropSetEncoded(handle.Object(oh), handle.Property(ph), idx, readBytes(m, ptr, n)))
	})

	// containers
	ex("seq_len", func(_ context.Context, m api.Module, oh, ph uint64, outPtr uint32) uint32 {
		n, code := b.SeqLen(handle.Object(oh), handle.Property(ph))
		writeU32(m, outPtr, uint32(n))
		return uint32(code)
	})
	ex("seq_get", func(_ context.Context, m api.Module, oh, ph uint64, i int32, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.SeqGet(handle.Object(oh), handle.Property(ph), i, buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("seq_set", func(_ context.Context, m api.Module, oh, ph uint64, i int32, ptr, n uint32) uint32 {
		return uint32(b.SeqSet(handle.Object(oh), handle.Property(ph), i, readBytes(m, ptr, n)))
	})
	ex("seq_add", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n, outPtr uint32) uint32 {
		i, code := b.SeqAdd(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n))
		writeU32(m, outPtr, uint32(i))
		return uint32(code)
	})
	ex("seq_insert", func(_ context.Context, m api.Module, oh, ph uint64, i int32, ptr, n uint32) uint32 {
		return uint32(b.SeqInsert(handle.Object(oh), handle.Property(ph), i, readBytes(m, ptr, n)))
	})
	ex("seq_remove", func(oh, ph uint64, i int32) uint32 {
		return uint32(b.SeqRemove(handle.Object(oh), handle.Property(ph), i))
	})
	ex("seq_clear", func(oh, ph uint64) uint32 {
		return uint32(b.SeqClear(handle.Object(oh), handle.Property(ph)))
	})
	ex("seq_copy_all", func(_ context.Context, m api.Module, oh, ph uint64, ptr, cap, countPtr, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		count, size, code := b.SeqCopyAll(handle.Object(oh), handle.Property(ph), buf)
		writeU32(m, countPtr, uint32(count))
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("seq_assign_all", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n uint32, count int32) uint32 {
		return uint32(b.SeqAssignAll(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n), count))
	})
	ex("set_len", func(_ context.Context, m api.Module, oh, ph uint64, outPtr uint32) uint32 {
		n, code := b.SetLen(handle.Object(oh), handle.Property(ph))
		writeU32(m, outPtr, uint32(n))
		return uint32(code)
	})
	ex("set_contains", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n, outPtr uint32) uint32 {
		found, code := b.SetContains(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n))
		writeU32(m, outPtr, boolU32(found))
		return uint32(code)
	})
	ex("set_add", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n uint32) uint32 {
		return uint32(b.SetAdd(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n)))
	})
	ex("set_remove", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n, outPtr uint32) uint32 {
		found, code := b.SetRemove(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n))
		writeU32(m, outPtr, boolU32(found))
		return uint32(code)
	})
	ex("set_nth", func(_ context.Context, m api.Module, oh, ph uint64, i int32, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.SetNth(handle.Object(oh), handle.Property(ph), i, buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("set_clear", func(oh, ph uint64) uint32 {
		return uint32(b.SetClear(handle.Object(oh), handle.Property(ph)))
	})
	ex("set_copy_all", func(_ context.Context, m api.Module, oh, ph uint64, ptr, cap, countPtr, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		count, size, code := b.SetCopyAll(handle.Object(oh), handle.Property(ph), buf)
		writeU32(m, countPtr, uint32(count))
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("set_assign_all", func(_ context.Context, m api.Module, oh, ph uint64, ptr, n uint32, count int32) uint32 {
		return uint32(b.SetAssignAll(handle.Object(oh), handle.Property(ph), readBytes(m, ptr, n), count))
	})
	ex("map_len", func(_ context.Context, m api.Module, oh, ph uint64, outPtr uint32) uint32 {
		n, code := b.MapLen(handle.Object(oh), handle.Property(ph))
		writeU32(m, outPtr, uint32(n))
		return uint32(code)
	})
	ex("map_find", func(_ context.Context, m api.Module, oh, ph uint64, keyPtr, keyLen, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.MapFind(handle.Object(oh), handle.Property(ph), readBytes(m, keyPtr, keyLen), buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("map_add", func(_ context.Context, m api.Module, oh, ph uint64, keyPtr, keyLen, valPtr, valLen uint32) uint32 {
		return uint32(b.MapAdd(handle.Object(oh), handle.Property(ph),
			readBytes(m, keyPtr, keyLen), readBytes(m, valPtr, valLen)))
	})
	ex("map_remove", func(_ context.Context, m api.Module, oh, ph uint64, keyPtr, keyLen, outPtr uint32) uint32 {
		found, code := b.MapRemove(handle.Object(oh), handle.Property(ph), readBytes(m, keyPtr, keyLen))
		writeU32(m, outPtr, boolU32(found))
		return uint32(code)
	})
	ex("map_nth", func(_ context.Context, m api.Module, oh, ph uint64, i int32, keyPtr, keyCap, keySizePtr, valPtr, valCap, valSizePtr uint32) uint32 {
		keyBuf := make([]byte, keyCap)
		valBuf := make([]byte, valCap)
		keySize, valSize, code := b.MapNth(handle.Object(oh), handle.Property(ph), i, keyBuf, valBuf)
		writeU32(m, keySizePtr, keySize)
		writeU32(m, valSizePtr, valSize)
		if code == handle.OK {
			writeBytes(m, keyPtr, keyBuf[:keySize])
			writeBytes(m, valPtr, valBuf[:valSize])
		}
		return uint32(code)
	})
	ex("map_clear", func(oh, ph uint64) uint32 {
		return uint32(b.MapClear(handle.Object(oh), handle.Property(ph)))
	})
	ex("map_copy_all", func(_ context.Context, m api.Module, oh, ph uint64, keyPtr, keyCap, keyCountPtr, keySizePtr, valPtr, valCap, valCountPtr, valSizePtr uint32) uint32 {
		keyBuf := make([]byte, keyCap)
		valBuf := make([]byte, valCap)
		kc, vc, ks, vs, code := b.MapCopyAll(handle.Object(oh), handle.Property(ph), keyBuf, valBuf)
		writeU32(m, keyCountPtr, uint32(kc))
		writeU32(m, valCountPtr, uint32(vc))
		writeU32(m, keySizePtr, ks)
		writeU32(m, valSizePtr, vs)
		if code == handle.OK {
			writeBytes(m, keyPtr, keyBuf[:ks])
			writeBytes(m, valPtr, valBuf[:vs])
		}
		return uint32(code)
	})
	ex("map_assign_all", func(_ context.Context, m api.Module, oh, ph uint64, keyPtr, keyLen uint32, keyCount int32, valPtr, valLen uint32, valCount int32) uint32 {
		return uint32(b.MapAssignAll(handle.Object(oh), handle.Property(ph),
			readBytes(m, keyPtr, keyLen), keyCount,
			readBytes(m, valPtr, valLen), valCount))
	})

	// reflection
	ex("find_class", func(_ context.Context, m api.Module, ptr, n uint32) uint64 {
		return uint64(b.FindClass(readString(m, ptr, n)))
	})
	ex("find_struct", func(_ context.Context, m api.Module, ptr, n uint32) uint64 {
		return uint64(b.FindStruct(readString(m, ptr, n)))
	})
	ex("find_enum", func(_ context.Context, m api.Module, ptr, n uint32) uint64 {
		return uint64(b.FindEnum(readString(m, ptr, n)))
	})
	ex("find_property", func(_ context.Context, m api.Module, cls uint64, ptr, n uint32) uint64 {
		return uint64(b.FindProperty(handle.Class(cls), readString(m, ptr, n)))
	})
	ex("find_function", func(_ context.Context, m api.Module, cls uint64, ptr, n uint32) uint64 {
		return uint64(b.FindFunction(handle.Class(cls), readString(m, ptr, n)))
	})
	ex("class_super", func(cls uint64) uint64 { return uint64(b.ClassSuper(handle.Class(cls))) })
	ex("class_name", func(cls uint64) uint64 { return uint64(b.ClassName(handle.Class(cls))) })
	ex("class_is_a", func(cls, target uint64) uint32 {
		return boolU32(b.ClassIsA(handle.Class(cls), handle.Class(target)))
	})
	ex("prop_name", func(ph uint64) uint64 { return uint64(b.PropName(handle.Property(ph))) })
	ex("prop_kind", func(ph uint64) uint32 { return uint32(b.PropKind(handle.Property(ph))) })
	ex("prop_elem_kind", func(ph uint64) uint32 { return uint32(b.PropElemKind(handle.Property(ph))) })
	ex("prop_key_value_kinds", func(ph uint64) uint64 {
		k, v := b.PropKeyValueKinds(handle.Property(ph))
		return uint64(k)<<32 | uint64(uint32(v))
	})
	ex("prop_array_dim", func(ph uint64) int32 { return b.PropArrayDim(handle.Property(ph)) })
	ex("prop_size", func(ph uint64) uint32 { return b.PropSize(handle.Property(ph)) })
	ex("prop_struct_type", func(ph uint64) uint64 { return uint64(b.PropStructType(handle.Property(ph))) })
	ex("prop_enum_type", func(ph uint64) uint64 { return uint64(b.PropEnumType(handle.Property(ph))) })
	ex("prop_class_constraint", func(ph uint64) uint64 {
		return uint64(b.PropClassConstraint(handle.Property(ph)))
	})
	ex("struct_size", func(sh uint64) uint32 { return b.StructSize(handle.Struct(sh)) })
	ex("prop_elem_size", func(ph uint64) uint32 { return b.PropElemSize(handle.Property(ph)) })
	ex("struct_field_offset", func(_ context.Context, m api.Module, sh uint64, ptr, n, outPtr uint32) uint32 {
		off, code := b.StructFieldOffset(handle.Struct(sh), readString(m, ptr, n))
		writeU32(m, outPtr, off)
		return uint32(code)
	})
	ex("struct_init", func(_ context.Context, m api.Module, sh uint64, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.StructInit(handle.Struct(sh), buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("struct_destroy", func(sh uint64) uint32 {
		return uint32(b.StructDestroy(handle.Struct(sh)))
	})
	ex("func_name", func(fh uint64) uint64 { return uint64(b.FuncName(handle.Function(fh))) })
	ex("func_param_count", func(fh uint64) int32 { return b.FuncParamCount(handle.Function(fh)) })
	ex("func_param", func(fh uint64, i int32) uint64 {
		return uint64(b.FuncParam(handle.Function(fh), i))
	})
	ex("func_param_flags", func(fh uint64, i int32) uint64 {
		return uint64(b.FuncParamFlags(handle.Function(fh), i))
	})
	ex("alloc_params", func(_ context.Context, m api.Module, fh uint64, outPtr uint32) uint32 {
		bh, code := b.AllocParams(handle.Function(fh))
		writeU64(m, outPtr, uint64(bh))
		return uint32(code)
	})
	ex("free_params", func(bh uint64) uint32 { return uint32(b.FreeParams(handle.Block(bh))) })
	ex("block_set", func(_ context.Context, m api.Module, bh, ph uint64, ptr, n uint32) uint32 {
		return uint32(b.BlockSet(handle.Block(bh), handle.Property(ph), readBytes(m, ptr, n)))
	})
	ex("block_get", func(_ context.Context, m api.Module, bh, ph uint64, ptr, cap, sizePtr uint32) uint32 {
		buf := make([]byte, cap)
		size, code := b.BlockGet(handle.Block(bh), handle.Property(ph), buf)
		return copyOut(m, ptr, sizePtr, buf, size, code)
	})
	ex("call_function", func(oh, fh, bh uint64) uint32 {
		return uint32(b.CallFunction(handle.Object(oh), handle.Function(fh), handle.Block(bh)))
	})

	// events
	ex("delegate_bind", func(oh, ph, target, fn uint64) uint32 {
		return uint32(b.DelegateBind(handle.Object(oh), handle.Property(ph), handle.Object(target), handle.Name(fn)))
	})
	ex("delegate_unbind", func(oh, ph uint64) uint32 {
		return uint32(b.DelegateUnbind(handle.Object(oh), handle.Property(ph)))
	})
	ex("delegate_is_bound", func(_ context.Context, m api.Module, oh, ph uint64, outPtr uint32) uint32 {
		bound, code := b.DelegateIsBound(handle.Object(oh), handle.Property(ph))
		writeU32(m, outPtr, boolU32(bound))
		return uint32(code)
	})
	ex("delegate_execute", func(oh, ph, bh uint64) uint32 {
		return uint32(b.DelegateExecute(handle.Object(oh), handle.Property(ph), handle.Block(bh)))
	})
	ex("multicast_add", func(oh, ph, target, fn uint64) uint32 {
		return uint32(b.MulticastAdd(handle.Object(oh), handle.Property(ph), handle.Object(target), handle.Name(fn)))
	})
	ex("multicast_remove", func(oh, ph, target, fn uint64) uint32 {
		return uint32(b.MulticastRemove(handle.Object(oh), handle.Property(ph), handle.Object(target), handle.Name(fn)))
	})
	ex("multicast_clear", func(oh, ph uint64) uint32 {
		return uint32(b.MulticastClear(handle.Object(oh), handle.Property(ph)))
	})
	ex("multicast_broadcast", func(oh, ph, bh uint64) uint32 {
		return uint32(b.MulticastBroadcast(handle.Object(oh), handle.Property(ph), handle.Block(bh)))
	})
	ex("create_proxy", func(_ context.Context, m api.Module, owner, sig, callbackID uint64, outPtr uint32) uint32 {
		h, code := b.CreateProxy(handle.Object(owner), handle.Function(sig), callbackID)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("proxy_thunk_name", func() uint64 { return uint64(b.ProxyThunkName()) })

	// reification
	ex("create_class", func(_ context.Context, m api.Module, ptr, n uint32, super, typeID uint64, outPtr uint32) uint32 {
		h, code := b.CreateClass(readString(m, ptr, n), handle.Class(super), typeID)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("add_property", func(_ context.Context, m api.Module, cls uint64, ptr, n, specPtr, outPtr uint32) uint32 {
		h, code := b.AddReifiedProperty(handle.Class(cls), readString(m, ptr, n), readSpec(m, specPtr))
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("add_function", func(_ context.Context, m api.Module, cls uint64, ptr, n uint32, callbackID uint64, outPtr uint32) uint32 {
		h, code := b.AddReifiedFunction(handle.Class(cls), readString(m, ptr, n), callbackID)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("add_function_param", func(_ context.Context, m api.Module, fh uint64, ptr, n, specPtr, flags, outPtr uint32) uint32 {
		h, code := b.AddReifiedParam(handle.Function(fh), readString(m, ptr, n), readSpec(m, specPtr),
			flags&1 != 0, flags&2 != 0)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("add_default_subobject", func(_ context.Context, m api.Module, cls uint64, namePtr, nameLen uint32, subCls uint64, root, transient, parentPtr, parentLen uint32) uint32 {
		return uint32(b.AddDefaultSubobject(handle.Class(cls), readString(m, namePtr, nameLen),
			handle.Class(subCls), root != 0, transient != 0, readString(m, parentPtr, parentLen)))
	})
	ex("finalize_class", func(cls uint64) uint32 { return uint32(b.FinalizeClass(handle.Class(cls))) })
	ex("get_default", func(_ context.Context, m api.Module, cls uint64, outPtr uint32) uint32 {
		h, code := b.GetDefault(handle.Class(cls))
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("find_default_subobject", func(_ context.Context, m api.Module, oh uint64, ptr, n, outPtr uint32) uint32 {
		h, code := b.FindDefaultSubobject(handle.Object(oh), readString(m, ptr, n))
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("create_enum", func(_ context.Context, m api.Module, namePtr, nameLen, width, entriesPtr, entryCount, outPtr uint32) uint32 {
		entries := make([]object.EnumEntry, 0, entryCount)
		for i := uint32(0); i < entryCount; i++ {
			rec := readBytes(m, entriesPtr+i*16, 16)
			entries = append(entries, object.EnumEntry{
				Name:  readString(m, binary.LittleEndian.Uint32(rec[0:4]), binary.LittleEndian.Uint32(rec[4:8])),
				Value: int64(binary.LittleEndian.Uint64(rec[8:16])),
			})
		}
		h, code := b.CreateEnum(readString(m, namePtr, nameLen), uint8(width), entries)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})
	ex("create_struct", func(_ context.Context, m api.Module, namePtr, nameLen, fieldsPtr, fieldCount, outPtr uint32) uint32 {
		names := make([]string, 0, fieldCount)
		specs := make([]bridge.PropSpec, 0, fieldCount)
		for i := uint32(0); i < fieldCount; i++ {
			rec := fieldsPtr + i*48
			names = append(names, readString(m,
				binary.LittleEndian.Uint32(readBytes(m, rec, 4)),
				binary.LittleEndian.Uint32(readBytes(m, rec+4, 4))))
			specs = append(specs, readSpec(m, rec+8))
		}
		h, code := b.CreateStruct(readString(m, namePtr, nameLen), names, specs)
		writeU64(m, outPtr, uint64(h))
		return uint32(code)
	})

	// lifecycle
	ex("add_root", func(h uint64) uint32 { return uint32(b.AddRoot(handle.Object(h))) })
	ex("remove_root", func(h uint64) uint32 { return uint32(b.RemoveRoot(handle.Object(h))) })
	ex("pin", func(h uint64) uint32 { return uint32(b.Pin(handle.Object(h))) })
	ex("unpin", func(h uint64) uint32 { return uint32(b.Unpin(handle.Object(h))) })

	_, err := hb.Instantiate(ctx)
	return err
}

func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
