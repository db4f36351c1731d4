package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/VioletHelianthus/uika/object"
)

// The bulk wire format moves whole containers in one crossing. Trivial
// element kinds (fixed-width scalars, names, enum values) travel as one
// contiguous raw copy, signaled by a NEGATIVE element count; everything
// else travels framed, one [u32 LE length][payload] frame per element,
// with a positive count. The mode is a function of the element kind alone,
// so both sides always agree without negotiation.

// appendFrame appends one length-prefixed payload.
func appendFrame(dst, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// nextFrame splits one frame off data.
func nextFrame(data []byte) (payload, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("truncated frame header: %d bytes", len(data))
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("truncated frame payload: want %d, have %d", n, len(data))
	}
	return data[:n], data[n:], nil
}

// encodeBulk renders elems into bulk wire form. A negative count reports
// raw mode.
func encodeBulk(d *object.Descriptor, elems []object.Value) ([]byte, int32, error) {
	if d.Kind.Trivial() {
		sz := int(d.FixedSize())
		out := make([]byte, 0, sz*len(elems))
		for _, e := range elems {
			enc, err := object.EncodeValue(d, e)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, enc...)
		}
		return out, -int32(len(elems)), nil
	}
	var out []byte
	for _, e := range elems {
		enc, err := object.EncodeValue(d, e)
		if err != nil {
			return nil, 0, err
		}
		out = appendFrame(out, enc)
	}
	return out, int32(len(elems)), nil
}

// decodeBulk parses bulk wire form back into values. The count's sign must
// match the element kind's mode.
func decodeBulk(d *object.Descriptor, data []byte, count int32) ([]object.Value, error) {
	if count < 0 {
		if !d.Kind.Trivial() {
			return nil, fmt.Errorf("raw copy of non-trivial kind %s", d.Kind)
		}
		n := int(-count)
		sz := int(d.FixedSize())
		if len(data) != n*sz {
			return nil, fmt.Errorf("raw payload: want %d bytes for %d elements, have %d", n*sz, n, len(data))
		}
		elems := make([]object.Value, n)
		for i := 0; i < n; i++ {
			v, err := object.DecodeValue(d, data[i*sz:(i+1)*sz])
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return elems, nil
	}
	if d.Kind.Trivial() {
		return nil, fmt.Errorf("framed copy of trivial kind %s", d.Kind)
	}
	elems := make([]object.Value, 0, count)
	for i := int32(0); i < count; i++ {
		payload, rest, err := nextFrame(data)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		v, err := object.DecodeValue(d, payload)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems = append(elems, v)
		data = rest
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %d elements", len(data), count)
	}
	return elems, nil
}

// bulkSize reports the byte size encodeBulk would produce, so undersized
// caller buffers can get an exact retry hint without a second encode.
func bulkSize(d *object.Descriptor, elems []object.Value) (uint32, error) {
	if sz := d.FixedSize(); sz != 0 {
		if d.Kind.Trivial() {
			return sz * uint32(len(elems)), nil
		}
		// Fixed-size but framed (handles, structs): frame header each.
		return (sz + 4) * uint32(len(elems)), nil
	}
	var total uint32
	for _, e := range elems {
		enc, err := object.EncodeValue(d, e)
		if err != nil {
			return 0, err
		}
		total += 4 + uint32(len(enc))
	}
	return total, nil
}

// canonicalKey derives the hash/equality key a keyed container uses for v:
// the canonical element encoding itself, so equality on the wire and
// equality in the container can never diverge.
func canonicalKey(d *object.Descriptor, v object.Value) (string, error) {
	enc, err := object.EncodeValue(d, v)
	if err != nil {
		return "", err
	}
	return string(enc), nil
}
