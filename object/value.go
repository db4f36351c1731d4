package object

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/VioletHelianthus/uika/handle"
)

// Value is one field slot. The concrete type is determined by the field's
// descriptor kind:
//
//	Bool                      bool
//	Int8..Int64               int8..int64
//	Uint8..Uint64             uint8..uint64
//	Float32, Float64          float32, float64
//	String, Text              string
//	Name                      handle.Name
//	ObjectRef, InterfaceRef   handle.Object
//	ClassRef                  handle.Class
//	StructVal                 []byte (opaque, struct-sized)
//	EnumVal                   int64 (normalized)
//	Delegate                  *DelegateValue
//	MulticastDelegate         *MulticastValue
//	Seq                       *SeqValue
//	Set                       *SetValue
//	Map                       *MapValue
//
// Fixed-size array properties (ArrayDim > 1) store a []Value of per-element
// values.
type Value any

// DelegateValue is a single-subscriber event slot: at most one binding,
// installed with overwrite semantics.
type DelegateValue struct {
	Target handle.Object
	Func   handle.Name
}

// Bound reports whether the slot currently has a subscriber.
func (d *DelegateValue) Bound() bool { return !d.Target.IsNull() }

// MulticastValue is a multi-subscriber event slot. Entries fire in
// subscription order.
type MulticastValue struct {
	Entries []DelegateValue
}

// SeqValue is a dense variable-length sequence.
type SeqValue struct {
	Elems []Value
}

// SetValue stores unique elements in sparse slots with a hash index keyed on
// the host's canonical element encoding. Logical index N is not storage slot
// N: enumeration-by-index skips tombstones and is O(n).
type SetValue struct {
	slots []setEntry
	index map[string]int
	free  []int
	count int
}

type setEntry struct {
	used bool
	elem Value
}

// MapValue stores key/value pairs the same way SetValue stores elements.
type MapValue struct {
	slots []mapEntry
	index map[string]int
	free  []int
	count int
}

type mapEntry struct {
	used bool
	key  Value
	val  Value
}

func newSetValue() *SetValue { return &SetValue{index: make(map[string]int)} }
func newMapValue() *MapValue { return &MapValue{index: make(map[string]int)} }

// Len returns the number of live elements.
func (s *SetValue) Len() int { return s.count }
func (m *MapValue) Len() int { return m.count }

// Contains probes by canonical key in O(1).
func (s *SetValue) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Add inserts an element, keyed by its canonical encoding. Re-adding an
// existing key is a no-op (set semantics).
func (s *SetValue) Add(key string, elem Value) {
	if i, ok := s.index[key]; ok {
		s.slots[i].elem = elem
		return
	}
	i := s.alloc()
	s.slots[i] = setEntry{used: true, elem: elem}
	s.index[key] = i
	s.count++
}

// Remove deletes by canonical key; reports whether the element was present.
func (s *SetValue) Remove(key string) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.slots[i] = setEntry{}
	s.free = append(s.free, i)
	delete(s.index, key)
	s.count--
	return true
}

// Nth walks the sparse slots to the Nth live element. O(n) by design.
func (s *SetValue) Nth(logical int) (Value, bool) {
	if logical < 0 || logical >= s.count {
		return nil, false
	}
	seen := 0
	for i := range s.slots {
		if !s.slots[i].used {
			continue
		}
		if seen == logical {
			return s.slots[i].elem, true
		}
		seen++
	}
	return nil, false
}

// Clear drops every element.
func (s *SetValue) Clear() {
	s.slots = nil
	s.free = nil
	s.index = make(map[string]int)
	s.count = 0
}

func (s *SetValue) alloc() int {
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		return i
	}
	s.slots = append(s.slots, setEntry{})
	return len(s.slots) - 1
}

// Find probes for a key in O(1); the second result reports presence.
func (m *MapValue) Find(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.slots[i].val, true
}

// Add inserts or overwrites the pair for key (overwrite, not duplicate).
func (m *MapValue) Add(key string, k, v Value) {
	if i, ok := m.index[key]; ok {
		m.slots[i].key = k
		m.slots[i].val = v
		return
	}
	i := m.alloc()
	m.slots[i] = mapEntry{used: true, key: k, val: v}
	m.index[key] = i
	m.count++
}

// Remove deletes by canonical key; reports whether the pair was present.
func (m *MapValue) Remove(key string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.slots[i] = mapEntry{}
	m.free = append(m.free, i)
	delete(m.index, key)
	m.count--
	return true
}

// Nth walks the sparse slots to the Nth live pair. O(n) by design.
func (m *MapValue) Nth(logical int) (k, v Value, ok bool) {
	if logical < 0 || logical >= m.count {
		return nil, nil, false
	}
	seen := 0
	for i := range m.slots {
		if !m.slots[i].used {
			continue
		}
		if seen == logical {
			return m.slots[i].key, m.slots[i].val, true
		}
		seen++
	}
	return nil, nil, false
}

// Clear drops every pair.
func (m *MapValue) Clear() {
	m.slots = nil
	m.free = nil
	m.index = make(map[string]int)
	m.count = 0
}

func (m *MapValue) alloc() int {
	if n := len(m.free); n > 0 {
		i := m.free[n-1]
		m.free = m.free[:n-1]
		return i
	}
	m.slots = append(m.slots, mapEntry{})
	return len(m.slots) - 1
}

// DefaultValue constructs the zero value for a descriptor: numeric zero,
// empty string, null handles, a zeroed struct buffer, empty containers,
// unbound event slots.
func DefaultValue(d *Descriptor) Value {
	switch d.Kind {
	case Bool:
		return false
	case Int8:
		return int8(0)
	case Int16:
		return int16(0)
	case Int32:
		return int32(0)
	case Int64:
		return int64(0)
	case Uint8:
		return uint8(0)
	case Uint16:
		return uint16(0)
	case Uint32:
		return uint32(0)
	case Uint64:
		return uint64(0)
	case Float32:
		return float32(0)
	case Float64:
		return float64(0)
	case String, Text:
		return ""
	case Name:
		return handle.Name(0)
	case ObjectRef, InterfaceRef:
		return handle.Object(0)
	case ClassRef:
		return handle.Class(0)
	case StructVal:
		return make([]byte, d.FixedSize())
	case EnumVal:
		return int64(0)
	case Delegate:
		return &DelegateValue{}
	case MulticastDelegate:
		return &MulticastValue{}
	case Seq:
		return &SeqValue{}
	case Set:
		return newSetValue()
	case Map:
		return newMapValue()
	}
	return nil
}

// EncodeValue renders v into the host's canonical wire payload for d: fixed
// little-endian widths for trivial kinds, raw UTF-8 for String/Text, 8-byte
// handles for references, an opaque struct-sized copy for StructVal. The
// same encoding doubles as the hash/equality key for keyed containers.
func EncodeValue(d *Descriptor, v Value) ([]byte, error) {
	switch d.Kind {
	case Bool:
		if v.(bool) {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Int8:
		return []byte{byte(v.(int8))}, nil
	case Uint8:
		return []byte{v.(uint8)}, nil
	case Int16:
		return binary.LittleEndian.AppendUint16(nil, uint16(v.(int16))), nil
	case Uint16:
		return binary.LittleEndian.AppendUint16(nil, v.(uint16)), nil
	case Int32:
		return binary.LittleEndian.AppendUint32(nil, uint32(v.(int32))), nil
	case Uint32:
		return binary.LittleEndian.AppendUint32(nil, v.(uint32)), nil
	case Float32:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v.(float32))), nil
	case Int64:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.(int64))), nil
	case Uint64:
		return binary.LittleEndian.AppendUint64(nil, v.(uint64)), nil
	case Float64:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v.(float64))), nil
	case String, Text:
		return []byte(v.(string)), nil
	case Name:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.(handle.Name))), nil
	case ObjectRef, InterfaceRef:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.(handle.Object))), nil
	case ClassRef:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.(handle.Class))), nil
	case StructVal:
		buf := v.([]byte)
		out := make([]byte, len(buf))
		copy(out, buf)
		return out, nil
	case EnumVal:
		n := v.(int64)
		width := int(d.FixedSize())
		out := make([]byte, width)
		for i := 0; i < width; i++ {
			out[i] = byte(n >> (8 * i))
		}
		return out, nil
	}
	return nil, fmt.Errorf("kind %s has no element encoding", d.Kind)
}

// DecodeValue parses a canonical payload back into a Value. Fixed-width
// kinds require the exact width; String/Text accept any length.
func DecodeValue(d *Descriptor, data []byte) (Value, error) {
	if want := d.FixedSize(); want != 0 && uint32(len(data)) != want {
		return nil, fmt.Errorf("kind %s wants %d bytes, got %d", d.Kind, want, len(data))
	}
	switch d.Kind {
	case Bool:
		return data[0] != 0, nil
	case Int8:
		return int8(data[0]), nil
	case Uint8:
		return data[0], nil
	case Int16:
		return int16(binary.LittleEndian.Uint16(data)), nil
	case Uint16:
		return binary.LittleEndian.Uint16(data), nil
	case Int32:
		return int32(binary.LittleEndian.Uint32(data)), nil
	case Uint32:
		return binary.LittleEndian.Uint32(data), nil
	case Float32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
	case Int64:
		return int64(binary.LittleEndian.Uint64(data)), nil
	case Uint64:
		return binary.LittleEndian.Uint64(data), nil
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	case String, Text:
		return string(data), nil
	case Name:
		return handle.Name(binary.LittleEndian.Uint64(data)), nil
	case ObjectRef, InterfaceRef:
		return handle.Object(binary.LittleEndian.Uint64(data)), nil
	case ClassRef:
		return handle.Class(binary.LittleEndian.Uint64(data)), nil
	case StructVal:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case EnumVal:
		var n uint64
		for i := len(data) - 1; i >= 0; i-- {
			n = n<<8 | uint64(data[i])
		}
		// Sign-extend from the enum's underlying width.
		shift := 64 - 8*uint(len(data))
		return int64(n<<shift) >> shift, nil
	}
	return nil, fmt.Errorf("kind %s has no element encoding", d.Kind)
}
