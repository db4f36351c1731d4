package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// Container operations address elements through their canonical encoded
// form: the guest passes and receives element payloads, never host storage.
// Keyed lookups (set membership, map find) probe with a transient encoded
// key; nothing is inserted by a failed probe.

func (b *Bridge) seqOf(oh handle.Object, ph handle.Property) (*object.SeqValue, *object.Descriptor, handle.Code) {
	v, p, code := b.propRead(oh, ph, 0, object.Seq)
	if code != handle.OK {
		return nil, nil, code
	}
	return v.(*object.SeqValue), p.Desc().Elem, handle.OK
}

func (b *Bridge) setOf(oh handle.Object, ph handle.Property) (*object.SetValue, *object.Descriptor, handle.Code) {
	v, p, code := b.propRead(oh, ph, 0, object.Set)
	if code != handle.OK {
		return nil, nil, code
	}
	return v.(*object.SetValue), p.Desc().Elem, handle.OK
}

func (b *Bridge) mapOf(oh handle.Object, ph handle.Property) (*object.MapValue, *object.Descriptor, handle.Code) {
	v, p, code := b.propRead(oh, ph, 0, object.Map)
	if code != handle.OK {
		return nil, nil, code
	}
	return v.(*object.MapValue), p.Desc(), handle.OK
}

// writeElem encodes v into buf; short buffers get the required size and
// BufferTooSmall.
func writeElem(d *object.Descriptor, v object.Value, buf []byte) (uint32, handle.Code) {
	enc, err := object.EncodeValue(d, v)
	if err != nil {
		return 0, handle.InternalError
	}
	if len(buf) < len(enc) {
		return uint32(len(enc)), handle.BufferTooSmall
	}
	copy(buf, enc)
	return uint32(len(enc)), handle.OK
}

// SeqLen returns the element count of a sequence property.
func (b *Bridge) SeqLen(oh handle.Object, ph handle.Property) (int32, handle.Code) {
	seq, _, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	return int32(len(seq.Elems)), handle.OK
}

// SeqGet copies the encoded element at index i into buf.
func (b *Bridge) SeqGet(oh handle.Object, ph handle.Property, i int32, buf []byte) (uint32, handle.Code) {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	if i < 0 || int(i) >= len(seq.Elems) {
		return 0, handle.IndexOutOfRange
	}
	return writeElem(elem, seq.Elems[i], buf)
}

// SeqSet replaces the element at index i with the decoded payload.
func (b *Bridge) SeqSet(oh handle.Object, ph handle.Property, i int32, data []byte) handle.Code {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return code
	}
	if i < 0 || int(i) >= len(seq.Elems) {
		return handle.IndexOutOfRange
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return handle.TypeMismatch
	}
	seq.Elems[i] = v
	return handle.OK
}

// SeqAdd appends an element and returns its index.
func (b *Bridge) SeqAdd(oh handle.Object, ph handle.Property, data []byte) (int32, handle.Code) {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return 0, handle.TypeMismatch
	}
	seq.Elems = append(seq.Elems, v)
	return int32(len(seq.Elems) - 1), handle.OK
}

// SeqInsert inserts an element before index i; i equal to the length
// appends.
func (b *Bridge) SeqInsert(oh handle.Object, ph handle.Property, i int32, data []byte) handle.Code {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return code
	}
	if i < 0 || int(i) > len(seq.Elems) {
		return handle.IndexOutOfRange
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return handle.TypeMismatch
	}
	seq.Elems = append(seq.Elems, nil)
	copy(seq.Elems[i+1:], seq.Elems[i:])
	seq.Elems[i] = v
	return handle.OK
}

// SeqRemove deletes the element at index i, shifting later elements down.
func (b *Bridge) SeqRemove(oh handle.Object, ph handle.Property, i int32) handle.Code {
	seq, _, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return code
	}
	if i < 0 || int(i) >= len(seq.Elems) {
		return handle.IndexOutOfRange
	}
	seq.Elems = append(seq.Elems[:i], seq.Elems[i+1:]...)
	return handle.OK
}

// SeqClear drops every element.
func (b *Bridge) SeqClear(oh handle.Object, ph handle.Property) handle.Code {
	seq, _, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return code
	}
	seq.Elems = nil
	return handle.OK
}

// SeqCopyAll copies the whole sequence into buf in bulk wire form. The
// returned count is negative in raw mode. A short buffer reports the
// required byte size with BufferTooSmall, so one retry always succeeds
// unless the sequence changed in between.
func (b *Bridge) SeqCopyAll(oh handle.Object, ph handle.Property, buf []byte) (count int32, size uint32, code handle.Code) {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return 0, 0, code
	}
	need, err := bulkSize(elem, seq.Elems)
	if err != nil {
		return 0, 0, handle.InternalError
	}
	if uint32(len(buf)) < need {
		return 0, need, handle.BufferTooSmall
	}
	data, n, err := encodeBulk(elem, seq.Elems)
	if err != nil {
		return 0, 0, handle.InternalError
	}
	copy(buf, data)
	return n, uint32(len(data)), handle.OK
}

// SeqAssignAll replaces the whole sequence from bulk wire form.
func (b *Bridge) SeqAssignAll(oh handle.Object, ph handle.Property, data []byte, count int32) handle.Code {
	seq, elem, code := b.seqOf(oh, ph)
	if code != handle.OK {
		return code
	}
	elems, err := decodeBulk(elem, data, count)
	if err != nil {
		return handle.TypeMismatch
	}
	seq.Elems = elems
	return handle.OK
}

// SetLen returns the element count of a set property.
func (b *Bridge) SetLen(oh handle.Object, ph handle.Property) (int32, handle.Code) {
	set, _, code := b.setOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	return int32(set.Len()), handle.OK
}

// SetContains probes membership with a transient key built from the
// encoded element. The probe never mutates the set.
func (b *Bridge) SetContains(oh handle.Object, ph handle.Property, data []byte) (bool, handle.Code) {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return false, code
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return false, handle.TypeMismatch
	}
	key, err := canonicalKey(elem, v)
	if err != nil {
		return false, handle.InternalError
	}
	return set.Contains(key), handle.OK
}

// SetAdd inserts an element. Adding a present element is a no-op success.
func (b *Bridge) SetAdd(oh handle.Object, ph handle.Property, data []byte) handle.Code {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return code
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return handle.TypeMismatch
	}
	key, err := canonicalKey(elem, v)
	if err != nil {
		return handle.InternalError
	}
	set.Add(key, v)
	return handle.OK
}

// SetRemove deletes an element; reports whether it was present. Removing an
// absent element is a no-op success.
func (b *Bridge) SetRemove(oh handle.Object, ph handle.Property, data []byte) (bool, handle.Code) {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return false, code
	}
	v, err := object.DecodeValue(elem, data)
	if err != nil {
		return false, handle.TypeMismatch
	}
	key, err := canonicalKey(elem, v)
	if err != nil {
		return false, handle.InternalError
	}
	return set.Remove(key), handle.OK
}

// SetNth copies the Nth live element into buf. Enumeration order is
// unspecified but stable between mutations; the walk is O(n).
func (b *Bridge) SetNth(oh handle.Object, ph handle.Property, i int32, buf []byte) (uint32, handle.Code) {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	v, ok := set.Nth(int(i))
	if !ok {
		return 0, handle.IndexOutOfRange
	}
	return writeElem(elem, v, buf)
}

// SetClear drops every element.
func (b *Bridge) SetClear(oh handle.Object, ph handle.Property) handle.Code {
	set, _, code := b.setOf(oh, ph)
	if code != handle.OK {
		return code
	}
	set.Clear()
	return handle.OK
}

// SetCopyAll copies the whole set into buf in bulk wire form.
func (b *Bridge) SetCopyAll(oh handle.Object, ph handle.Property, buf []byte) (count int32, size uint32, code handle.Code) {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return 0, 0, code
	}
	elems := make([]object.Value, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		v, _ := set.Nth(i)
		elems = append(elems, v)
	}
	need, err := bulkSize(elem, elems)
	if err != nil {
		return 0, 0, handle.InternalError
	}
	if uint32(len(buf)) < need {
		return 0, need, handle.BufferTooSmall
	}
	data, n, err := encodeBulk(elem, elems)
	if err != nil {
		return 0, 0, handle.InternalError
	}
	copy(buf, data)
	return n, uint32(len(data)), handle.OK
}

// SetAssignAll replaces the whole set from bulk wire form. Duplicate
// payload elements collapse to one.
func (b *Bridge) SetAssignAll(oh handle.Object, ph handle.Property, data []byte, count int32) handle.Code {
	set, elem, code := b.setOf(oh, ph)
	if code != handle.OK {
		return code
	}
	elems, err := decodeBulk(elem, data, count)
	if err != nil {
		return handle.TypeMismatch
	}
	set.Clear()
	for _, v := range elems {
		key, err := canonicalKey(elem, v)
		if err != nil {
			return handle.InternalError
		}
		set.Add(key, v)
	}
	return handle.OK
}

// MapLen returns the pair count of a map property.
func (b *Bridge) MapLen(oh handle.Object, ph handle.Property) (int32, handle.Code) {
	m, _, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	return int32(m.Len()), handle.OK
}

// MapFind probes with a transient key and copies the encoded value into
// buf. An absent key reports PropertyNotFound.
func (b *Bridge) MapFind(oh handle.Object, ph handle.Property, keyData, buf []byte) (uint32, handle.Code) {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return 0, code
	}
	key, code2 := b.mapKey(d, keyData)
	if code2 != handle.OK {
		return 0, code2
	}
	v, ok := m.Find(key)
	if !ok {
		return 0, handle.PropertyNotFound
	}
	return writeElem(d.Value, v, buf)
}

// MapAdd inserts or overwrites the pair for the encoded key.
func (b *Bridge) MapAdd(oh handle.Object, ph handle.Property, keyData, valData []byte) handle.Code {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return code
	}
	k, err := object.DecodeValue(d.Key, keyData)
	if err != nil {
		return handle.TypeMismatch
	}
	v, err := object.DecodeValue(d.Value, valData)
	if err != nil {
		return handle.TypeMismatch
	}
	key, err := canonicalKey(d.Key, k)
	if err != nil {
		return handle.InternalError
	}
	m.Add(key, k, v)
	return handle.OK
}

// MapRemove deletes the pair for the encoded key; reports whether it was
// present.
func (b *Bridge) MapRemove(oh handle.Object, ph handle.Property, keyData []byte) (bool, handle.Code) {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return false, code
	}
	key, code2 := b.mapKey(d, keyData)
	if code2 != handle.OK {
		return false, code2
	}
	return m.Remove(key), handle.OK
}

// MapNth copies the Nth live pair's encoded key and value into the two
// buffers. The walk is O(n).
func (b *Bridge) MapNth(oh handle.Object, ph handle.Property, i int32, keyBuf, valBuf []byte) (keySize, valSize uint32, code handle.Code) {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return 0, 0, code
	}
	k, v, ok := m.Nth(int(i))
	if !ok {
		return 0, 0, handle.IndexOutOfRange
	}
	keySize, code = writeElem(d.Key, k, keyBuf)
	if code != handle.OK {
		return keySize, 0, code
	}
	valSize, code = writeElem(d.Value, v, valBuf)
	return keySize, valSize, code
}

// MapClear drops every pair.
func (b *Bridge) MapClear(oh handle.Object, ph handle.Property) handle.Code {
	m, _, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return code
	}
	m.Clear()
	return handle.OK
}

// MapCopyAll copies every pair in bulk wire form: keys into keyBuf, values
// into valBuf, each buffer in its element kind's own mode. On a short
// buffer the size results carry the required byte counts.
func (b *Bridge) MapCopyAll(oh handle.Object, ph handle.Property, keyBuf, valBuf []byte) (keyCount, valCount int32, keySize, valSize uint32, code handle.Code) {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return 0, 0, 0, 0, code
	}
	keys := make([]object.Value, 0, m.Len())
	vals := make([]object.Value, 0, m.Len())
	for i := 0; i < m.Len(); i++ {
		k, v, _ := m.Nth(i)
		keys = append(keys, k)
		vals = append(vals, v)
	}
	keyNeed, err := bulkSize(d.Key, keys)
	if err != nil {
		return 0, 0, 0, 0, handle.InternalError
	}
	valNeed, err := bulkSize(d.Value, vals)
	if err != nil {
		return 0, 0, 0, 0, handle.InternalError
	}
	if uint32(len(keyBuf)) < keyNeed || uint32(len(valBuf)) < valNeed {
		return 0, 0, keyNeed, valNeed, handle.BufferTooSmall
	}
	keyData, kn, err := encodeBulk(d.Key, keys)
	if err != nil {
		return 0, 0, 0, 0, handle.InternalError
	}
	valData, vn, err := encodeBulk(d.Value, vals)
	if err != nil {
		return 0, 0, 0, 0, handle.InternalError
	}
	copy(keyBuf, keyData)
	copy(valBuf, valData)
	return kn, vn, uint32(len(keyData)), uint32(len(valData)), handle.OK
}

// MapAssignAll replaces every pair from bulk wire form. The two streams
// must decode to the same number of elements.
func (b *Bridge) MapAssignAll(oh handle.Object, ph handle.Property, keyData []byte, keyCount int32, valData []byte, valCount int32) handle.Code {
	m, d, code := b.mapOf(oh, ph)
	if code != handle.OK {
		return code
	}
	keys, err := decodeBulk(d.Key, keyData, keyCount)
	if err != nil {
		return handle.TypeMismatch
	}
	vals, err := decodeBulk(d.Value, valData, valCount)
	if err != nil {
		return handle.TypeMismatch
	}
	if len(keys) != len(vals) {
		return handle.TypeMismatch
	}
	m.Clear()
	for i := range keys {
		key, err := canonicalKey(d.Key, keys[i])
		if err != nil {
			return handle.InternalError
		}
		m.Add(key, keys[i], vals[i])
	}
	return handle.OK
}

func (b *Bridge) mapKey(d *object.Descriptor, keyData []byte) (string, handle.Code) {
	k, err := object.DecodeValue(d.Key, keyData)
	if err != nil {
		return "", handle.TypeMismatch
	}
	key, err := canonicalKey(d.Key, k)
	if err != nil {
		return "", handle.InternalError
	}
	return key, handle.OK
}
