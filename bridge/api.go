package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// API is the capability table handed to a guest at load time: every host
// operation the guest may perform, grouped by concern. Guests hold function
// values, never the Bridge itself, so the surface a module saw is exactly
// the surface it keeps until unload.
//
// Funcs carries the same operations flat, keyed by stable names, for
// transports that dispatch by index or name rather than by field.
type API struct {
	Version uint32

	Core      CoreAPI
	Property  PropertyAPI
	Container ContainerAPI
	Reflect   ReflectAPI
	Delegate  DelegateAPI
	Reify     ReifyAPI
	Lifecycle LifecycleAPI

	Log func(level uint32, msg string)

	Funcs []DirectFunc
}

// DirectFunc is one flat-table entry.
type DirectFunc struct {
	Name string
	Fn   any
}

type CoreAPI struct {
	InternName    func(s string) handle.Name
	NameString    func(h handle.Name) string
	FindName      func(s string) handle.Name
	NewObject     func(cls handle.Class, outer handle.Object, name string) (handle.Object, handle.Code)
	DestroyObject func(h handle.Object) handle.Code
	IsValid       func(h handle.Object) bool
	GetClass      func(h handle.Object) (handle.Class, handle.Code)
	GetObjectName func(h handle.Object) (handle.Name, handle.Code)
	GetOuter      func(h handle.Object) (handle.Object, handle.Code)
	WeakFromObject func(h handle.Object) handle.Weak
	ObjectFromWeak func(w handle.Weak) handle.Object
	Collect        func() int
}

type PropertyAPI struct {
	GetBool func(oh handle.Object, ph handle.Property, idx int32) (bool, handle.Code)
	SetBool func(oh handle.Object, ph handle.Property, idx int32, v bool) handle.Code
	GetI8   func(oh handle.Object, ph handle.Property, idx int32) (int8, handle.Code)
	SetI8   func(oh handle.Object, ph handle.Property, idx int32, v int8) handle.Code
	GetI16  func(oh handle.Object, ph handle.Property, idx int32) (int16, handle.Code)
	SetI16  func(oh handle.Object, ph handle.Property, idx int32, v int16) handle.Code
	GetI32  func(oh handle.Object, ph handle.Property, idx int32) (int32, handle.Code)
	SetI32  func(oh handle.Object, ph handle.Property, idx int32, v int32) handle.Code
	GetI64  func(oh handle.Object, ph handle.Property, idx int32) (int64, handle.Code)
	SetI64  func(oh handle.Object, ph handle.Property, idx int32, v int64) handle.Code
	GetU8   func(oh handle.Object, ph handle.Property, idx int32) (uint8, handle.Code)
	SetU8   func(oh handle.Object, ph handle.Property, idx int32, v uint8) handle.Code
	GetU16  func(oh handle.Object, ph handle.Property, idx int32) (uint16, handle.Code)
	SetU16  func(oh handle.Object, ph handle.Property, idx int32, v uint16) handle.Code
	GetU32  func(oh handle.Object, ph handle.Property, idx int32) (uint32, handle.Code)
	SetU32  func(oh handle.Object, ph handle.Property, idx int32, v uint32) handle.Code
	GetU64  func(oh handle.Object, ph handle.Property, idx int32) (uint64, handle.Code)
	SetU64  func(oh handle.Object, ph handle.Property, idx int32, v uint64) handle.Code
	GetF32  func(oh handle.Object, ph handle.Property, idx int32) (float32, handle.Code)
	SetF32  func(oh handle.Object, ph handle.Property, idx int32, v float32) handle.Code
	GetF64  func(oh handle.Object, ph handle.Property, idx int32) (float64, handle.Code)
	SetF64  func(oh handle.Object, ph handle.Property, idx int32, v float64) handle.Code

	GetString   func(oh handle.Object, ph handle.Property, idx int32) (string, handle.Code)
	SetString   func(oh handle.Object, ph handle.Property, idx int32, v string) handle.Code
	GetName     func(oh handle.Object, ph handle.Property, idx int32) (handle.Name, handle.Code)
	SetName     func(oh handle.Object, ph handle.Property, idx int32, v handle.Name) handle.Code
	GetObject   func(oh handle.Object, ph handle.Property, idx int32) (handle.Object, handle.Code)
	SetObject   func(oh handle.Object, ph handle.Property, idx int32, v handle.Object) handle.Code
	GetClassRef func(oh handle.Object, ph handle.Property, idx int32) (handle.Class, handle.Code)
	SetClassRef func(oh handle.Object, ph handle.Property, idx int32, v handle.Class) handle.Code
	GetEnum     func(oh handle.Object, ph handle.Property, idx int32) (int64, handle.Code)
	SetEnum     func(oh handle.Object, ph handle.Property, idx int32, v int64) handle.Code
	GetStruct   func(oh handle.Object, ph handle.Property, idx int32, buf []byte) (uint32, handle.Code)
	SetStruct   func(oh handle.Object, ph handle.Property, idx int32, buf []byte) handle.Code
}

type ContainerAPI struct {
	SeqLen       func(oh handle.Object, ph handle.Property) (int32, handle.Code)
	SeqGet       func(oh handle.Object, ph handle.Property, i int32, buf []byte) (uint32, handle.Code)
	SeqSet       func(oh handle.Object, ph handle.Property, i int32, data []byte) handle.Code
	SeqAdd       func(oh handle.Object, ph handle.Property, data []byte) (int32, handle.Code)
	SeqInsert    func(oh handle.Object, ph handle.Property, i int32, data []byte) handle.Code
	SeqRemove    func(oh handle.Object, ph handle.Property, i int32) handle.Code
	SeqClear     func(oh handle.Object, ph handle.Property) handle.Code
	SeqCopyAll   func(oh handle.Object, ph handle.Property, buf []byte) (int32, uint32, handle.Code)
	SeqAssignAll func(oh handle.Object, ph handle.Property, data []byte, count int32) handle.Code

	SetLen       func(oh handle.Object, ph handle.Property) (int32, handle.Code)
	SetContains  func(oh handle.Object, ph handle.Property, data []byte) (bool, handle.Code)
	SetAdd       func(oh handle.Object, ph handle.Property, data []byte) handle.Code
	SetRemove    func(oh handle.Object, ph handle.Property, data []byte) (bool, handle.Code)
	SetNth       func(oh handle.Object, ph handle.Property, i int32, buf []byte) (uint32, handle.Code)
	SetClear     func(oh handle.Object, ph handle.Property) handle.Code
	SetCopyAll   func(oh handle.Object, ph handle.Property, buf []byte) (int32, uint32, handle.Code)
	SetAssignAll func(oh handle.Object, ph handle.Property, data []byte, count int32) handle.Code

	MapLen       func(oh handle.Object, ph handle.Property) (int32, handle.Code)
	MapFind      func(oh handle.Object, ph handle.Property, keyData, buf []byte) (uint32, handle.Code)
	MapAdd       func(oh handle.Object, ph handle.Property, keyData, valData []byte) handle.Code
	MapRemove    func(oh handle.Object, ph handle.Property, keyData []byte) (bool, handle.Code)
	MapNth       func(oh handle.Object, ph handle.Property, i int32, keyBuf, valBuf []byte) (uint32, uint32, handle.Code)
	MapClear     func(oh handle.Object, ph handle.Property) handle.Code
	MapCopyAll   func(oh handle.Object, ph handle.Property, keyBuf, valBuf []byte) (int32, int32, uint32, uint32, handle.Code)
	MapAssignAll func(oh handle.Object, ph handle.Property, keyData []byte, keyCount int32, valData []byte, valCount int32) handle.Code
}

type ReflectAPI struct {
	FindClass    func(name string) handle.Class
	FindStruct   func(name string) handle.Struct
	FindEnum     func(name string) handle.Enum
	FindProperty func(cls handle.Class, name string) handle.Property
	FindFunction func(cls handle.Class, name string) handle.Function

	ClassSuper func(cls handle.Class) handle.Class
	ClassName  func(cls handle.Class) handle.Name
	ClassIsA   func(cls, target handle.Class) bool

	PropName            func(ph handle.Property) handle.Name
	PropKind            func(ph handle.Property) object.Kind
	PropElemKind        func(ph handle.Property) object.Kind
	PropKeyValueKinds   func(ph handle.Property) (object.Kind, object.Kind)
	PropArrayDim        func(ph handle.Property) int32
	PropSize            func(ph handle.Property) uint32
	PropElemSize        func(ph handle.Property) uint32
	PropStructType      func(ph handle.Property) handle.Struct
	PropEnumType        func(ph handle.Property) handle.Enum
	PropClassConstraint func(ph handle.Property) handle.Class
	StructSize          func(sh handle.Struct) uint32
	StructFieldOffset   func(sh handle.Struct, name string) (uint32, handle.Code)
	StructInit          func(sh handle.Struct, buf []byte) (uint32, handle.Code)
	StructDestroy       func(sh handle.Struct) handle.Code

	FuncName       func(fh handle.Function) handle.Name
	FuncParamCount func(fh handle.Function) int32
	FuncParam      func(fh handle.Function, i int32) handle.Property
	FuncParamFlags func(fh handle.Function, i int32) object.PropFlags

	AllocParams  func(fh handle.Function) (handle.Block, handle.Code)
	FreeParams   func(bh handle.Block) handle.Code
	BlockSet     func(bh handle.Block, ph handle.Property, data []byte) handle.Code
	BlockGet     func(bh handle.Block, ph handle.Property, buf []byte) (uint32, handle.Code)
	CallFunction func(oh handle.Object, fh handle.Function, bh handle.Block) handle.Code
}

type DelegateAPI struct {
	Bind     func(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code
	Unbind   func(oh handle.Object, ph handle.Property) handle.Code
	IsBound  func(oh handle.Object, ph handle.Property) (bool, handle.Code)
	Execute  func(oh handle.Object, ph handle.Property, bh handle.Block) handle.Code
	Add      func(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code
	Remove   func(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code
	Clear    func(oh handle.Object, ph handle.Property) handle.Code
	Broadcast func(oh handle.Object, ph handle.Property, bh handle.Block) handle.Code

	CreateProxy    func(owner handle.Object, sig handle.Function, callbackID uint64) (handle.Object, handle.Code)
	ProxyThunkName func() handle.Name
}

type ReifyAPI struct {
	CreateClass         func(name string, super handle.Class, typeID uint64) (handle.Class, handle.Code)
	AddProperty         func(cls handle.Class, name string, spec PropSpec) (handle.Property, handle.Code)
	AddFunction         func(cls handle.Class, name string, callbackID uint64) (handle.Function, handle.Code)
	AddFunctionParam    func(fh handle.Function, name string, spec PropSpec, out, ret bool) (handle.Property, handle.Code)
	AddDefaultSubobject func(cls handle.Class, name string, subCls handle.Class, root, transient bool, attachParent string) handle.Code
	FinalizeClass       func(cls handle.Class) handle.Code
	GetDefault          func(cls handle.Class) (handle.Object, handle.Code)
	FindDefaultSubobject func(oh handle.Object, name string) (handle.Object, handle.Code)
	CreateEnum          func(name string, width uint8, entries []object.EnumEntry) (handle.Enum, handle.Code)
	CreateStruct        func(name string, fieldNames []string, fieldSpecs []PropSpec) (handle.Struct, handle.Code)
}

type LifecycleAPI struct {
	AddRoot    func(h handle.Object) handle.Code
	RemoveRoot func(h handle.Object) handle.Code
	Pin        func(h handle.Object) handle.Code
	Unpin      func(h handle.Object) handle.Code
}

// API builds the capability table for the bridge. Every call is a direct
// method bind; nothing is copied, so the table stays correct as bridge
// state changes.
func (b *Bridge) API() *API {
	a := &API{
		Version: Version,
		Core: CoreAPI{
			InternName:     b.InternName,
			NameString:     b.NameString,
			FindName:       b.FindName,
			NewObject:      b.NewObject,
			DestroyObject:  b.DestroyObject,
			IsValid:        b.IsValid,
			GetClass:       b.GetClass,
			GetObjectName:  b.GetObjectName,
			GetOuter:       b.GetOuter,
			WeakFromObject: b.WeakFromObject,
			ObjectFromWeak: b.ObjectFromWeak,
			Collect:        b.Collect,
		},
		Property: PropertyAPI{
			GetBool: b.GetBool, SetBool: b.SetBool,
			GetI8: b.GetI8, SetI8: b.SetI8,
			GetI16: b.GetI16, SetI16: b.SetI16,
			GetI32: b.GetI32, SetI32: b.SetI32,
			GetI64: b.GetI64, SetI64: b.SetI64,
			GetU8: b.GetU8, SetU8: b.SetU8,
			GetU16: b.GetU16, SetU16: b.SetU16,
			GetU32: b.GetU32, SetU32: b.SetU32,
			GetU64: b.GetU64, SetU64: b.SetU64,
			GetF32: b.GetF32, SetF32: b.SetF32,
			GetF64: b.GetF64, SetF64: b.SetF64,
			GetString: b.GetString, SetString: b.SetString,
			GetName: b.GetName, SetName: b.SetName,
			GetObject: b.GetObject, SetObject: b.SetObject,
			GetClassRef: b.GetClassRef, SetClassRef: b.SetClassRef,
			GetEnum: b.GetEnum, SetEnum: b.SetEnum,
			GetStruct: b.GetStruct, SetStruct: b.SetStruct,
		},
		Container: ContainerAPI{
			SeqLen: b.SeqLen, SeqGet: b.SeqGet, SeqSet: b.SeqSet,
			SeqAdd: b.SeqAdd, SeqInsert: b.SeqInsert, SeqRemove: b.SeqRemove,
			SeqClear: b.SeqClear, SeqCopyAll: b.SeqCopyAll, SeqAssignAll: b.SeqAssignAll,
			SetLen: b.SetLen, SetContains: b.SetContains, SetAdd: b.SetAdd,
			SetRemove: b.SetRemove, SetNth: b.SetNth, SetClear: b.SetClear,
			SetCopyAll: b.SetCopyAll, SetAssignAll: b.SetAssignAll,
			MapLen: b.MapLen, MapFind: b.MapFind, MapAdd: b.MapAdd,
			MapRemove: b.MapRemove, MapNth: b.MapNth, MapClear: b.MapClear,
			MapCopyAll: b.MapCopyAll, MapAssignAll: b.MapAssignAll,
		},
		Reflect: ReflectAPI{
			FindClass: b.FindClass, FindStruct: b.FindStruct, FindEnum: b.FindEnum,
			FindProperty: b.FindProperty, FindFunction: b.FindFunction,
			ClassSuper: b.ClassSuper, ClassName: b.ClassName, ClassIsA: b.ClassIsA,
			PropName: b.PropName, PropKind: b.PropKind, PropElemKind: b.PropElemKind,
			PropKeyValueKinds: b.PropKeyValueKinds, PropArrayDim: b.PropArrayDim,
			PropSize: b.PropSize, PropElemSize: b.PropElemSize,
			PropStructType: b.PropStructType,
			PropEnumType: b.PropEnumType, PropClassConstraint: b.PropClassConstraint,
			StructSize: b.StructSize, StructFieldOffset: b.StructFieldOffset,
			StructInit: b.StructInit, StructDestroy: b.StructDestroy,
			FuncName:   b.FuncName, FuncParamCount: b.FuncParamCount,
			FuncParam: b.FuncParam, FuncParamFlags: b.FuncParamFlags,
			AllocParams: b.AllocParams, FreeParams: b.FreeParams,
			BlockSet: b.BlockSet, BlockGet: b.BlockGet, CallFunction: b.CallFunction,
		},
		Delegate: DelegateAPI{
			Bind: b.DelegateBind, Unbind: b.DelegateUnbind, IsBound: b.DelegateIsBound,
			Execute: b.DelegateExecute, Add: b.MulticastAdd, Remove: b.MulticastRemove,
			Clear: b.MulticastClear, Broadcast: b.MulticastBroadcast,
			CreateProxy: b.CreateProxy, ProxyThunkName: b.ProxyThunkName,
		},
		Reify: ReifyAPI{
			CreateClass:          b.CreateClass,
			AddProperty:          b.AddReifiedProperty,
			AddFunction:          b.AddReifiedFunction,
			AddFunctionParam:     b.AddReifiedParam,
			AddDefaultSubobject:  b.AddDefaultSubobject,
			FinalizeClass:        b.FinalizeClass,
			GetDefault:           b.GetDefault,
			FindDefaultSubobject: b.FindDefaultSubobject,
			CreateEnum:           b.CreateEnum,
			CreateStruct:         b.CreateStruct,
		},
		Lifecycle: LifecycleAPI{
			AddRoot: b.AddRoot, RemoveRoot: b.RemoveRoot,
			Pin: b.Pin, Unpin: b.Unpin,
		},
		Log: b.Log,
	}

	a.Funcs = []DirectFunc{
		{"intern_name", a.Core.InternName},
		{"name_string", a.Core.NameString},
		{"find_name", a.Core.FindName},
		{"new_object", a.Core.NewObject},
		{"destroy_object", a.Core.DestroyObject},
		{"is_valid", a.Core.IsValid},
		{"get_class", a.Core.GetClass},
		{"get_object_name", a.Core.GetObjectName},
		{"get_outer", a.Core.GetOuter},
		{"weak_from_object", a.Core.WeakFromObject},
		{"object_from_weak", a.Core.ObjectFromWeak},
		{"collect", a.Core.Collect},
		{"find_class", a.Reflect.FindClass},
		{"find_property", a.Reflect.FindProperty},
		{"find_function", a.Reflect.FindFunction},
		{"alloc_params", a.Reflect.AllocParams},
		{"free_params", a.Reflect.FreeParams},
		{"block_set", a.Reflect.BlockSet},
		{"block_get", a.Reflect.BlockGet},
		{"call_function", a.Reflect.CallFunction},
		{"delegate_bind", a.Delegate.Bind},
		{"delegate_unbind", a.Delegate.Unbind},
		{"multicast_add", a.Delegate.Add},
		{"multicast_remove", a.Delegate.Remove},
		{"multicast_broadcast", a.Delegate.Broadcast},
		{"create_class", a.Reify.CreateClass},
		{"finalize_class", a.Reify.FinalizeClass},
		{"get_default", a.Reify.GetDefault},
		{"add_root", a.Lifecycle.AddRoot},
		{"remove_root", a.Lifecycle.RemoveRoot},
		{"pin", a.Lifecycle.Pin},
		{"unpin", a.Lifecycle.Unpin},
		{"log", a.Log},
	}
	return a
}
