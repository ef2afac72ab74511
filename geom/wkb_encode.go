package geom

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/imqs/dba/dtype"
)

// WKB/EWKB geometry type codes (ISO base types; EWKB ORs in the Z/M/SRID
// flag bits below rather than adding 1000/2000/3000 as ISO WKB does).
const (
	wkbPoint              = 1
	wkbLineString         = 2
	wkbPolygon            = 3
	wkbMultiPoint         = 4
	wkbMultiLineString    = 5
	wkbMultiPolygon       = 6
	wkbFlagZ       uint32 = 0x80000000
	wkbFlagM       uint32 = 0x40000000
	wkbFlagSRID    uint32 = 0x20000000
)

// ComputeEncodedBytes returns the exact number of bytes Encode will write
// for v, so callers can size an allocator.Allocator buffer up front instead
// of letting Encode grow a slice.
//
// Grounded on original_source/lib/dba/AttribGeom.cpp (ComputeWKBSize).
func ComputeEncodedBytes(v *Value, t dtype.Type, forceMulti bool) int {
	dims := v.Flags.Dimensions()
	vertexBytes := dims * 8
	sridBytes := 0
	if v.Header.SRID != 0 {
		sridBytes = 4
	}

	switch t {
	case dtype.GeomPoint:
		size := 5 + sridBytes + vertexBytes
		if forceMulti {
			size += 5 + 4 // outer multipoint header + count
		}
		return size
	case dtype.GeomMultiPoint:
		n := v.TotalVertexCount()
		return 5 + sridBytes + 4 + n*(5+vertexBytes)
	case dtype.GeomPolyline:
		nParts := v.NumParts()
		size := 5 + sridBytes
		if forceMulti || nParts > 1 {
			size += 4 // numLines
			for i := 0; i < nParts; i++ {
				start, end, _, _ := v.Part(i)
				size += 5 + 4 + (end-start)*vertexBytes
			}
		} else {
			start, end, _, _ := v.Part(0)
			size += 4 + (end-start)*vertexBytes
		}
		return size
	case dtype.GeomPolygon:
		size := 5 + sridBytes + 4 // numRings (or numPolygons if multi)
		nParts := v.NumParts()
		ringsSize := 0
		for i := 0; i < nParts; i++ {
			start, end, _, _ := v.Part(i)
			n := end - start
			if n > 0 && !ringClosed(v, start, end, dims) {
				n++
			}
			ringsSize += 4 + n*vertexBytes
		}
		if forceMulti {
			size += 5 + 4 + ringsSize // one polygon sub-geometry wrapping all rings
		} else {
			size += ringsSize
		}
		return size
	default:
		return 0
	}
}

func ringClosed(v *Value, start, end, dims int) bool {
	if end-start < 1 {
		return true
	}
	first := v.Vertices[start*dims : start*dims+dims]
	last := v.Vertices[(end-1)*dims : (end-1)*dims+dims]
	for i := 0; i < dims; i++ {
		if first[i] != last[i] {
			return false
		}
	}
	return true
}

// Encode serializes v as little-endian EWKB, the way PostGIS and the
// gdal/spatialite ecosystem produce it: a 1-byte byte-order marker, a
// geometry-type uint32 with the high bits PostGIS uses for Z/M/SRID, an
// optional SRID, then the coordinate body.
//
// When forceMulti is set, Point/LineString/Polygon values are wrapped in
// their Multi* counterpart, which is how dialects that only expose Multi*
// column types want every value written (spec.md §4.3, Force_Multi).
//
// A polygon whose Flags lack FlagRingsInWKBOrder is written from a copy
// reordered by FixRingOrderWKB; v itself is not modified.
//
// Grounded on original_source/lib/dba/AttribGeom.cpp (EncodeWKB) and
// jackc/pgx's internal/gis codec for the EWKB flag-bit convention.
func Encode(v *Value, t dtype.Type, forceMulti bool) ([]byte, error) {
	if t == dtype.GeomPolygon && v.IsPoly() && !v.Flags.Has(FlagRingsInWKBOrder) {
		parts, vx := FixRingOrderWKB(v.NumParts(), v.Parts, v.Vertices, v.Flags.Dimensions())
		v = &Value{Header: v.Header, Flags: v.Flags | FlagRingsInWKBOrder, Parts: parts, Vertices: vx}
	}
	buf := make([]byte, ComputeEncodedBytes(v, t, forceMulti))
	pos := 0
	dims := v.Flags.Dimensions()

	writeHeader := func(base uint32) {
		buf[pos] = 1 // little endian
		pos++
		wkbType := base
		if v.Flags.Has(FlagHasZ) {
			wkbType |= wkbFlagZ
		}
		if v.Flags.Has(FlagHasM) {
			wkbType |= wkbFlagM
		}
		if v.Header.SRID != 0 {
			wkbType |= wkbFlagSRID
		}
		binary.LittleEndian.PutUint32(buf[pos:pos+4], wkbType)
		pos += 4
		if v.Header.SRID != 0 {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(v.Header.SRID))
			pos += 4
		}
	}

	writeVertex := func(idx int) {
		for d := 0; d < dims; d++ {
			binary.LittleEndian.PutUint64(buf[pos:pos+8], math.Float64bits(v.Vertices[idx*dims+d]))
			pos += 8
		}
	}

	writeRing := func(start, end int) {
		closedAlready := ringClosed(v, start, end, dims)
		n := end - start
		if !closedAlready {
			n++
		}
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(n))
		pos += 4
		for i := start; i < end; i++ {
			writeVertex(i)
		}
		if !closedAlready {
			writeVertex(start)
		}
	}

	switch t {
	case dtype.GeomPoint:
		if forceMulti {
			writeHeader(wkbMultiPoint)
			binary.LittleEndian.PutUint32(buf[pos:pos+4], 1)
			pos += 4
			buf[pos] = 1
			pos++
			binary.LittleEndian.PutUint32(buf[pos:pos+4], wkbPoint)
			pos += 4
			writeVertex(0)
		} else {
			writeHeader(wkbPoint)
			writeVertex(0)
		}

	case dtype.GeomMultiPoint:
		writeHeader(wkbMultiPoint)
		n := v.TotalVertexCount()
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(n))
		pos += 4
		for i := 0; i < n; i++ {
			buf[pos] = 1
			pos++
			binary.LittleEndian.PutUint32(buf[pos:pos+4], wkbPoint)
			pos += 4
			writeVertex(i)
		}

	case dtype.GeomPolyline:
		nParts := v.NumParts()
		multi := forceMulti || nParts > 1
		if multi {
			writeHeader(wkbMultiLineString)
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(nParts))
			pos += 4
			for i := 0; i < nParts; i++ {
				start, end, _, _ := v.Part(i)
				buf[pos] = 1
				pos++
				binary.LittleEndian.PutUint32(buf[pos:pos+4], wkbLineString)
				pos += 4
				binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(end-start))
				pos += 4
				for i := start; i < end; i++ {
					writeVertex(i)
				}
			}
		} else {
			writeHeader(wkbLineString)
			start, end, _, _ := v.Part(0)
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(end-start))
			pos += 4
			for i := start; i < end; i++ {
				writeVertex(i)
			}
		}

	case dtype.GeomPolygon:
		nParts := v.NumParts()
		if forceMulti {
			writeHeader(wkbMultiPolygon)
			binary.LittleEndian.PutUint32(buf[pos:pos+4], 1)
			pos += 4
			buf[pos] = 1
			pos++
			binary.LittleEndian.PutUint32(buf[pos:pos+4], wkbPolygon)
			pos += 4
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(nParts))
			pos += 4
			for i := 0; i < nParts; i++ {
				start, end, _, _ := v.Part(i)
				writeRing(start, end)
			}
		} else {
			writeHeader(wkbPolygon)
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(nParts))
			pos += 4
			for i := 0; i < nParts; i++ {
				start, end, _, _ := v.Part(i)
				writeRing(start, end)
			}
		}

	default:
		return nil, fmt.Errorf("geom: Encode: unsupported type %s", t)
	}

	return buf, nil
}
