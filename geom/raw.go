package geom

import (
	"encoding/binary"
	"math"
)

// RawSize returns the number of bytes needed to serialize v contiguously:
// GeomHeader (8 bytes) + parts array (padded to an even uint32 count, for
// polylines/polygons only) + vertex array.
//
// Grounded on spec.md §4.2: this is the single contiguous allocation that a driver decoding a
// column value, or an IPC boundary, would want to hand back as one blob.
func (v *Value) RawSize() int {
	size := 8 // Header
	if v.IsPoly() {
		n := len(v.Parts)
		if n%2 != 0 {
			n++ // padding to keep vertices 8-byte aligned
		}
		size += n * 4
	}
	size += v.TotalVertexCount() * v.Flags.BytesPerVertex()
	return size
}

// CopyRawOut serializes v into buf, which must be at least RawSize() bytes.
// Returns the number of bytes written.
func (v *Value) CopyRawOut(buf []byte) int {
	if len(buf) < v.RawSize() {
		panic("geom: CopyRawOut buffer too small")
	}
	binary.LittleEndian.PutUint32(buf[0:4], v.Header.NumParts)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(v.Header.SRID))
	pos := 8
	if v.IsPoly() {
		for _, p := range v.Parts {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], p)
			pos += 4
		}
		if len(v.Parts)%2 != 0 {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], 0)
			pos += 4
		}
	}
	dims := v.Flags.Dimensions()
	double := v.Flags.Has(FlagDouble)
	for i := 0; i < v.TotalVertexCount()*dims; i++ {
		if double {
			binary.LittleEndian.PutUint64(buf[pos:pos+8], math.Float64bits(v.Vertices[i]))
			pos += 8
		} else {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], math.Float32bits(float32(v.Vertices[i])))
			pos += 4
		}
	}
	return pos
}

// CopyRawIn reconstructs a Value from a contiguous buffer previously
// produced by CopyRawOut, given the concrete shape (isPoly / flags).
func CopyRawIn(buf []byte, isPoly bool, flags Flags) (*Value, error) {
	if len(buf) < 8 {
		return nil, errShortBuffer
	}
	v := &Value{Flags: flags}
	v.Header.NumParts = binary.LittleEndian.Uint32(buf[0:4])
	v.Header.SRID = int32(binary.LittleEndian.Uint32(buf[4:8]))
	pos := 8
	var totalVerts int
	if isPoly {
		n := int(v.Header.NumParts) + 1
		padded := n
		if padded%2 != 0 {
			padded++
		}
		if len(buf) < pos+padded*4 {
			return nil, errShortBuffer
		}
		v.Parts = make([]uint32, n)
		for i := 0; i < n; i++ {
			v.Parts[i] = binary.LittleEndian.Uint32(buf[pos : pos+4])
			pos += 4
		}
		pos += (padded - n) * 4
		totalVerts = int(v.Parts[n-1] & PartOffsetMask)
	} else {
		totalVerts = int(v.Header.NumParts)
	}
	dims := flags.Dimensions()
	v.Vertices = make([]float64, totalVerts*dims)
	double := flags.Has(FlagDouble)
	for i := range v.Vertices {
		if double {
			if len(buf) < pos+8 {
				return nil, errShortBuffer
			}
			v.Vertices[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			pos += 8
		} else {
			if len(buf) < pos+4 {
				return nil, errShortBuffer
			}
			v.Vertices[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[pos : pos+4])))
			pos += 4
		}
	}
	return v, v.validate()
}
