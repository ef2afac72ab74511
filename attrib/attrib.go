// Package attrib implements Attrib, the tagged-union value that every row,
// parameter and schema default in this module passes around: one Go type
// that can hold a null, a scalar, text, a blob, a GUID, a timestamp or a
// geometry, without the caller needing to know which up front.
//
// Grounded on original_source/lib/dba/Attrib.h/.cpp. The original is a
// 24-byte C++ union with a thread-local fallback heap; Go has neither
// unions nor thread-locals, so Attrib here is a plain struct with one field
// per storage kind, and "thread-local heap" becomes "goroutine-call-scoped
// alloc.Default() allocator" (see alloc.Default's doc comment and
// DESIGN.md's Open Question decisions).
package attrib

import (
	"time"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/geom"
)

// Attrib is a tagged-union database value. The zero value is Null.
type Attrib struct {
	typ   dtype.Type
	flags dtype.Flags

	b     bool
	i16   int16
	i32   int32
	i64   int64
	f32   float32
	f64   float64
	date  time.Time
	guid  Guid
	text  string // Text and JSONB
	bin   []byte
	geomV *geom.Value
}

// Type returns the concrete type this Attrib currently holds.
func (a *Attrib) Type() dtype.Type { return a.typ }

// Flags returns the storage flags (currently only dtype.NotNull-adjacent
// bookkeeping; CustomHeap from the source library has no analogue here,
// since Go values are garbage collected regardless of which alloc.Allocator
// built their backing slice).
func (a *Attrib) Flags() dtype.Flags { return a.flags }

func (a *Attrib) IsNull() bool    { return a.typ == dtype.Null }
func (a *Attrib) IsNumeric() bool { return a.typ.IsNumeric() }
func (a *Attrib) IsText() bool    { return a.typ == dtype.Text }
func (a *Attrib) IsBool() bool    { return a.typ == dtype.Bool }
func (a *Attrib) IsBin() bool     { return a.typ == dtype.Bin }
func (a *Attrib) IsJSONB() bool   { return a.typ == dtype.JSONB }
func (a *Attrib) IsDate() bool    { return a.typ == dtype.Date }
func (a *Attrib) IsGeom() bool    { return a.typ.IsGeom() }
func (a *Attrib) IsPoly() bool {
	return a.typ == dtype.GeomPolygon || a.typ == dtype.GeomPolyline
}
func (a *Attrib) IsPoint() bool      { return a.typ == dtype.GeomPoint }
func (a *Attrib) IsMultiPoint() bool { return a.typ == dtype.GeomMultiPoint }

// Null constructs a null Attrib (equivalent to the zero value, spelled out
// for callers who prefer a constructor).
func Null() Attrib { return Attrib{typ: dtype.Null} }

func FromBool(v bool) Attrib    { return Attrib{typ: dtype.Bool, b: v} }
func FromInt16(v int16) Attrib  { return Attrib{typ: dtype.Int16, i16: v} }
func FromInt32(v int32) Attrib  { return Attrib{typ: dtype.Int32, i32: v} }
func FromInt64(v int64) Attrib  { return Attrib{typ: dtype.Int64, i64: v} }
func FromFloat(v float32) Attrib { return Attrib{typ: dtype.Float, f32: v} }
func FromDouble(v float64) Attrib { return Attrib{typ: dtype.Double, f64: v} }
func FromDate(v time.Time) Attrib { return Attrib{typ: dtype.Date, date: v} }

// FromText builds a Text Attrib. alloc is accepted for symmetry with the
// source library's allocator-aware setters, even though a Go string already
// owns its bytes independently of any arena.
func FromText(s string, a alloc.Allocator) Attrib {
	return Attrib{typ: dtype.Text, text: s}
}

func FromJSONB(s string, a alloc.Allocator) Attrib {
	return Attrib{typ: dtype.JSONB, text: s}
}

func FromGuid(g Guid) Attrib { return Attrib{typ: dtype.Guid, guid: g} }

// FromBin builds a Bin Attrib. If a is non-nil, buf is copied into storage
// obtained from a; otherwise buf is retained as-is (mirrors SetTempBin).
func FromBin(buf []byte, a alloc.Allocator) Attrib {
	if a == nil {
		return Attrib{typ: dtype.Bin, bin: buf}
	}
	dst := a.Alloc(len(buf))
	copy(dst, buf)
	return Attrib{typ: dtype.Bin, bin: dst}
}

func FromGeom(t dtype.Type, v *geom.Value) Attrib {
	if !t.IsGeom() {
		panic("attrib: FromGeom requires a geometry dtype.Type")
	}
	return Attrib{typ: t, geomV: v}
}

// MakePoint builds a 2D point Attrib, the Go analogue of Attrib::MakePoint.
func MakePoint(x, y float64, srid int32) Attrib {
	v := &geom.Value{
		Header: geom.Header{NumParts: 1, SRID: srid},
		Flags:  geom.FlagDouble,
	}
	v.Vertices = []float64{x, y}
	return FromGeom(dtype.GeomPoint, v)
}

// MakePolylineXY builds a single-part, XY-only polyline Attrib from a flat
// [x0,y0, x1,y1, ...] slice, the Go analogue of Attrib::MakePolylineXY.
func MakePolylineXY(xy []float64, srid int32, closed bool) Attrib {
	n := len(xy) / 2
	flags := uint32(0)
	if closed {
		flags = geom.PartFlagClosed
	}
	v := &geom.Value{
		Header:   geom.Header{NumParts: 1, SRID: srid},
		Flags:    geom.FlagDouble,
		Parts:    []uint32{flags, uint32(n)},
		Vertices: append([]float64(nil), xy...),
	}
	return FromGeom(dtype.GeomPolyline, v)
}

// MakePolygonXY builds a polygon Attrib from a set of rings given in
// arbitrary order (each ring a flat [x0,y0, x1,y1, ...] slice, closed or
// not — a duplicated closing vertex is accepted and dropped). Rings are
// reordered into WKB order (each exterior ring immediately followed by its
// interiors, exteriors CCW, interiors CW) via geom.FixRingOrderWKB, the Go
// analogue of Attrib::SetPoly (spec.md §4.2).
//
// Returns geom.ErrTooManyVerts if any single ring would exceed
// geom.MaxVerticesPerPart vertices.
func MakePolygonXY(rings [][]float64, srid int32) (Attrib, error) {
	numParts := len(rings)
	parts := make([]uint32, numParts+1)
	var vx []float64
	offset := 0
	for i, ring := range rings {
		n := len(ring) / 2
		// Drop an accidental duplicated closing vertex (spec.md §4.2
		// "Closed parts do NOT duplicate the first vertex").
		if n > 1 && ring[0] == ring[(n-1)*2] && ring[1] == ring[(n-1)*2+1] {
			ring = ring[:(n-1)*2]
			n--
		}
		if n > geom.MaxVerticesPerPart {
			return Attrib{}, geom.ErrTooManyVerts
		}
		parts[i] = uint32(offset)
		vx = append(vx, ring...)
		offset += n
	}
	parts[numParts] = uint32(offset)

	newParts, newVx := geom.FixRingOrderWKB(numParts, parts, vx, 2)
	v := &geom.Value{
		Header:   geom.Header{NumParts: uint32(numParts), SRID: srid},
		Flags:    geom.FlagDouble | geom.FlagRingsInWKBOrder,
		Parts:    newParts,
		Vertices: newVx,
	}
	return FromGeom(dtype.GeomPolygon, v), nil
}

// Geom returns the underlying geometry value and true, if a holds a
// geometry type.
func (a *Attrib) Geom() (*geom.Value, bool) {
	if !a.typ.IsGeom() {
		return nil, false
	}
	return a.geomV, true
}

// RawBin returns the raw bytes backing a Bin Attrib.
func (a *Attrib) RawBin() []byte { return a.bin }

// RawText returns the raw string backing a Text or JSONB Attrib.
func (a *Attrib) RawText() string { return a.text }
