package geom

import (
	"encoding/binary"
	"math"

	"github.com/imqs/dba/dtype"
)

type wkbReader struct {
	buf []byte
	pos int
}

func (r *wkbReader) byteOrder() (binary.ByteOrder, error) {
	if r.pos >= len(r.buf) {
		return nil, ErrOverrun
	}
	b := r.buf[r.pos]
	r.pos++
	if b == 0 {
		return binary.BigEndian, nil
	}
	return binary.LittleEndian, nil
}

func (r *wkbReader) u32(bo binary.ByteOrder) (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, ErrOverrun
	}
	v := bo.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *wkbReader) f64(bo binary.ByteOrder) (float64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, ErrOverrun
	}
	bits := bo.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// geomHeader describes one decoded WKB geometry header (byte-order marker,
// type, optional SRID already stripped out).
type geomHeader struct {
	base int
	dims int
	srid int32
}

func (r *wkbReader) header() (geomHeader, error) {
	bo, err := r.byteOrder()
	if err != nil {
		return geomHeader{}, err
	}
	raw, err := r.u32(bo)
	if err != nil {
		return geomHeader{}, err
	}
	var h geomHeader
	hasZ := raw&wkbFlagZ != 0
	hasM := raw&wkbFlagM != 0
	hasSRID := raw&wkbFlagSRID != 0
	h.base = int(raw &^ (wkbFlagZ | wkbFlagM | wkbFlagSRID))
	// ISO WKB encodes Z/M as +1000/+2000/+3000 rather than flag bits;
	// tolerate both conventions since different producers use either.
	if h.base >= 3000 {
		hasZ, hasM = true, true
		h.base -= 3000
	} else if h.base >= 2000 {
		hasM = true
		h.base -= 2000
	} else if h.base >= 1000 {
		hasZ = true
		h.base -= 1000
	}
	h.dims = 2
	if hasZ {
		h.dims++
	}
	if hasM {
		h.dims++
	}
	if hasSRID {
		srid, err := r.u32(bo)
		if err != nil {
			return geomHeader{}, err
		}
		h.srid = int32(srid)
	}
	return h, nil
}

// Decode parses an EWKB (or plain ISO WKB) buffer into a Value plus the
// dtype.Type it represents. It uses a count-then-fill two-pass strategy:
// the first pass walks the buffer purely to learn NumParts/TotalVertexCount
// so Parts and Vertices can be allocated exactly once at their final size,
// then the second pass re-walks the same bytes to populate them.
//
// Grounded on original_source/lib/dba/AttribGeom.cpp (DecodeWKB).
func Decode(buf []byte) (*Value, dtype.Type, error) {
	countR := &wkbReader{buf: buf}
	h, err := countR.header()
	if err != nil {
		return nil, dtype.Null, err
	}

	numParts, totalVerts, isPoly, t, err := countGeometry(countR, h.base, h.dims)
	if err != nil {
		return nil, dtype.Null, err
	}
	if numParts > MaxVerticesPerPart {
		return nil, dtype.Null, ErrTooManyParts
	}

	v := &Value{}
	v.Header.SRID = h.srid
	v.Flags = FlagDouble
	if h.dims >= 3 {
		v.Flags |= FlagHasZ
	}
	if h.dims >= 4 {
		v.Flags |= FlagHasM
	}
	v.Flags |= FlagRingsInWKBOrder
	v.Vertices = make([]float64, totalVerts*h.dims)
	if isPoly {
		v.Parts = make([]uint32, numParts+1)
		v.Header.NumParts = uint32(numParts)
	} else {
		v.Header.NumParts = uint32(totalVerts)
	}

	fillR := &wkbReader{buf: buf}
	if _, err := fillR.header(); err != nil {
		return nil, dtype.Null, err
	}
	if err := fillGeometry(fillR, h.base, h.dims, v); err != nil {
		return nil, dtype.Null, err
	}

	return v, t, v.validate()
}

func countGeometry(r *wkbReader, base int, dims int) (numParts, totalVerts int, isPoly bool, t dtype.Type, err error) {
	switch base {
	case wkbPoint:
		if err := r.skipVertices(1, dims); err != nil {
			return 0, 0, false, dtype.Null, err
		}
		return 0, 1, false, dtype.GeomPoint, nil

	case wkbMultiPoint:
		n, err := r.u32LE()
		if err != nil {
			return 0, 0, false, dtype.Null, err
		}
		for i := uint32(0); i < n; i++ {
			if _, err := r.header(); err != nil {
				return 0, 0, false, dtype.Null, err
			}
			if err := r.skipVertices(1, dims); err != nil {
				return 0, 0, false, dtype.Null, err
			}
		}
		return 0, int(n), false, dtype.GeomMultiPoint, nil

	case wkbLineString:
		n, err := r.u32LE()
		if err != nil {
			return 0, 0, false, dtype.Null, err
		}
		if err := r.skipVertices(int(n), dims); err != nil {
			return 0, 0, false, dtype.Null, err
		}
		return 1, int(n), true, dtype.GeomPolyline, nil

	case wkbMultiLineString:
		n, err := r.u32LE()
		if err != nil {
			return 0, 0, false, dtype.Null, err
		}
		total := 0
		for i := uint32(0); i < n; i++ {
			if _, err := r.header(); err != nil {
				return 0, 0, false, dtype.Null, err
			}
			np, err := r.u32LE()
			if err != nil {
				return 0, 0, false, dtype.Null, err
			}
			if err := r.skipVertices(int(np), dims); err != nil {
				return 0, 0, false, dtype.Null, err
			}
			total += int(np)
		}
		return int(n), total, true, dtype.GeomPolyline, nil

	case wkbPolygon:
		n, err := r.u32LE()
		if err != nil {
			return 0, 0, false, dtype.Null, err
		}
		total := 0
		for i := uint32(0); i < n; i++ {
			np, err := r.u32LE()
			if err != nil {
				return 0, 0, false, dtype.Null, err
			}
			cnt, _, err := r.ringVertexCount(int(np), dims)
			if err != nil {
				return 0, 0, false, dtype.Null, err
			}
			total += cnt
		}
		return int(n), total, true, dtype.GeomPolygon, nil

	case wkbMultiPolygon:
		polyCount, err := r.u32LE()
		if err != nil {
			return 0, 0, false, dtype.Null, err
		}
		totalParts, totalVerts := 0, 0
		for p := uint32(0); p < polyCount; p++ {
			if _, err := r.header(); err != nil {
				return 0, 0, false, dtype.Null, err
			}
			ringCount, err := r.u32LE()
			if err != nil {
				return 0, 0, false, dtype.Null, err
			}
			for i := uint32(0); i < ringCount; i++ {
				np, err := r.u32LE()
				if err != nil {
					return 0, 0, false, dtype.Null, err
				}
				cnt, _, err := r.ringVertexCount(int(np), dims)
				if err != nil {
					return 0, 0, false, dtype.Null, err
				}
				totalVerts += cnt
			}
			totalParts += int(ringCount)
		}
		return totalParts, totalVerts, true, dtype.GeomPolygon, nil

	default:
		return 0, 0, false, dtype.Null, ErrInvalidInput
	}
}

func fillGeometry(r *wkbReader, base int, dims int, v *Value) error {
	switch base {
	case wkbPoint:
		return r.readVertex(v, 0)

	case wkbMultiPoint:
		n, err := r.u32LE()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if _, err := r.header(); err != nil {
				return err
			}
			if err := r.readVertex(v, int(i)); err != nil {
				return err
			}
		}
		return nil

	case wkbLineString:
		n, err := r.u32LE()
		if err != nil {
			return err
		}
		v.Parts[0] = 0
		v.Parts[1] = uint32(n)
		return r.readVertices(v, 0, int(n))

	case wkbMultiLineString:
		n, err := r.u32LE()
		if err != nil {
			return err
		}
		vtx := 0
		for i := uint32(0); i < n; i++ {
			if _, err := r.header(); err != nil {
				return err
			}
			np, err := r.u32LE()
			if err != nil {
				return err
			}
			v.Parts[i] = uint32(vtx)
			if err := r.readVertices(v, vtx, int(np)); err != nil {
				return err
			}
			vtx += int(np)
		}
		v.Parts[n] = uint32(vtx)
		return nil

	case wkbPolygon:
		n, err := r.u32LE()
		if err != nil {
			return err
		}
		vtx := 0
		for i := uint32(0); i < n; i++ {
			np, err := r.u32LE()
			if err != nil {
				return err
			}
			closed, err := r.readRing(v, vtx, int(np))
			if err != nil {
				return err
			}
			flags := uint32(vtx)
			if closed {
				flags |= PartFlagClosed
			}
			if i == 0 {
				flags |= PartFlagExteriorRing
			}
			v.Parts[i] = flags
			if closed {
				vtx += int(np) - 1
			} else {
				vtx += int(np)
			}
		}
		v.Parts[n] = uint32(vtx)
		return nil

	case wkbMultiPolygon:
		polyCount, err := r.u32LE()
		if err != nil {
			return err
		}
		vtx, part := 0, uint32(0)
		for p := uint32(0); p < polyCount; p++ {
			if _, err := r.header(); err != nil {
				return err
			}
			ringCount, err := r.u32LE()
			if err != nil {
				return err
			}
			for i := uint32(0); i < ringCount; i++ {
				np, err := r.u32LE()
				if err != nil {
					return err
				}
				closed, err := r.readRing(v, vtx, int(np))
				if err != nil {
					return err
				}
				flags := uint32(vtx)
				if closed {
					flags |= PartFlagClosed
				}
				if i == 0 {
					flags |= PartFlagExteriorRing
				}
				v.Parts[part] = flags
				if closed {
					vtx += int(np) - 1
				} else {
					vtx += int(np)
				}
				part++
			}
		}
		v.Parts[part] = uint32(vtx)
		return nil

	default:
		return ErrInvalidInput
	}
}

func (r *wkbReader) u32LE() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, ErrOverrun
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *wkbReader) skipVertices(n, dims int) error {
	size := n * dims * 8
	if r.pos+size > len(r.buf) {
		return ErrOverrun
	}
	r.pos += size
	return nil
}

func (r *wkbReader) readVertex(v *Value, idx int) error {
	dims := v.Flags.Dimensions()
	for d := 0; d < dims; d++ {
		f, err := r.f64(binary.LittleEndian)
		if err != nil {
			return err
		}
		v.Vertices[idx*dims+d] = f
	}
	return nil
}

func (r *wkbReader) readVertices(v *Value, start, n int) error {
	for i := 0; i < n; i++ {
		if err := r.readVertex(v, start+i); err != nil {
			return err
		}
	}
	return nil
}

// ringVertexCount reads (without storing) the n raw vertices of a polygon
// ring and reports how many vertices it contributes once a bit-exact
// duplicate closing vertex is dropped, mirroring ringClosed in
// wkb_encode.go. Used by the count pass so Decode's buffer allocation
// already matches what the fill pass (readRing) will write.
func (r *wkbReader) ringVertexCount(n, dims int) (int, bool, error) {
	if n == 0 {
		return 0, false, nil
	}
	first := make([]float64, dims)
	last := make([]float64, dims)
	for i := 0; i < n; i++ {
		for d := 0; d < dims; d++ {
			f, err := r.f64(binary.LittleEndian)
			if err != nil {
				return 0, false, err
			}
			if i == 0 {
				first[d] = f
			}
			if i == n-1 {
				last[d] = f
			}
		}
	}
	closed := n > 1
	for d := 0; closed && d < dims; d++ {
		if first[d] != last[d] {
			closed = false
		}
	}
	if closed {
		return n - 1, true, nil
	}
	return n, false, nil
}

// readRing reads a polygon ring's n raw vertices starting at v.Vertices
// index start, dropping the final vertex when it bit-exactly duplicates the
// first (the wire form PostGIS/gdal-style producers always write), and
// reports whether the ring was closed. Mirrors writeRing in wkb_encode.go,
// which adds that duplicate vertex back in on the way out.
func (r *wkbReader) readRing(v *Value, start, n int) (bool, error) {
	dims := v.Flags.Dimensions()
	if n == 0 {
		return false, nil
	}
	for i := 0; i < n-1; i++ {
		if err := r.readVertex(v, start+i); err != nil {
			return false, err
		}
	}
	last := make([]float64, dims)
	for d := 0; d < dims; d++ {
		f, err := r.f64(binary.LittleEndian)
		if err != nil {
			return false, err
		}
		last[d] = f
	}
	closed := n > 1
	first := v.Vertices[start*dims : start*dims+dims]
	for d := 0; closed && d < dims; d++ {
		if first[d] != last[d] {
			closed = false
		}
	}
	if !closed {
		copy(v.Vertices[(start+n-1)*dims:(start+n-1)*dims+dims], last)
	}
	return closed, nil
}
