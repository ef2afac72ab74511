package geom

import "fmt"

// Flags are value-level bits recorded on a geometry Value: storage width,
// dimensionality, and whether ring order has already been normalized to
// WKB order.
//
// Grounded on original_source/lib/dba/Attrib.h (GeomFlags).
type Flags uint32

const (
	// FlagDouble indicates vertices are stored as float64; absent means
	// float32. The core's WKB codec only supports double-precision
	// vertices (see wkb_encode.go); float storage exists for in-memory
	// geometry pipelines that never round-trip through WKB.
	FlagDouble Flags = 1 << iota
	FlagHasZ
	FlagHasM
	// FlagRingsInWKBOrder records that a polygon's rings are already in WKB
	// order. attrib.MakePolygonXY and Decode set it; Encode first reorders
	// the rings of a polygon that lacks it, via FixRingOrderWKB.
	FlagRingsInWKBOrder
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Dimensions returns 2 + (HasZ?1:0) + (HasM?1:0).
func (f Flags) Dimensions() int {
	d := 2
	if f.Has(FlagHasZ) {
		d++
	}
	if f.Has(FlagHasM) {
		d++
	}
	return d
}

// BytesPerVertex returns Dimensions() * (8 if double-precision, else 4).
func (f Flags) BytesPerVertex() int {
	if f.Has(FlagDouble) {
		return f.Dimensions() * 8
	}
	return f.Dimensions() * 4
}

// PartFlags are the high bits packed into each entry of a Value's Parts
// array: Closed (bit 31) and ExteriorRing (bit 30). The low 20 bits hold a
// vertex offset; MaxVerticesPerPart is therefore 2^20 - 1.
//
// Grounded on spec.md §3/§4.2 (which refines the original C++ library's
// single reserved high bit into this explicit two-flag, 20-bit-offset
// layout).
const (
	PartFlagClosed        uint32 = 1 << 31
	PartFlagExteriorRing  uint32 = 1 << 30
	PartOffsetMask        uint32 = (1 << 20) - 1
	MaxVerticesPerPart           = (1 << 20) - 1
	partFlagMask          uint32 = PartFlagClosed | PartFlagExteriorRing
)

// Value is the decoded, in-memory form of a geometry attribute's backing
// storage. See RawSize/CopyRawOut/CopyRawIn for the contiguous byte layout
// this corresponds to.
type Value struct {
	Header Header
	Flags  Flags

	// Parts holds, for polylines and polygons, one entry per part (the
	// first-vertex index, with Closed/ExteriorRing packed into the high
	// bits) plus a trailing sentinel equal to the total vertex count with
	// flag bits cleared. Parts is nil for points and multipoints.
	Parts []uint32

	// Vertices holds Dimensions()*TotalVertexCount() float64s in XY[Z][M]
	// order per vertex, packed contiguously. Only double storage is
	// represented here; see Flags.
	Vertices []float64
}

// IsPoly reports whether this Value is shaped like a polyline/polygon (has
// a Parts array), as opposed to a point/multipoint.
func (v *Value) IsPoly() bool { return v.Parts != nil }

// NumParts is the number of parts (rings/segment-chains) in the geometry.
func (v *Value) NumParts() int {
	if v.IsPoly() {
		return len(v.Parts) - 1
	}
	return int(v.Header.NumParts)
}

// TotalVertexCount returns the total number of vertices across all parts.
func (v *Value) TotalVertexCount() int {
	if v.IsPoly() {
		if len(v.Parts) == 0 {
			return 0
		}
		return int(v.Parts[len(v.Parts)-1] & PartOffsetMask)
	}
	return int(v.Header.NumParts)
}

// Part returns the [start, end) vertex range, and the Closed/ExteriorRing
// flags, for the i'th part. Only valid when IsPoly().
func (v *Value) Part(i int) (start, end int, closed, exterior bool) {
	start = int(v.Parts[i] & PartOffsetMask)
	end = int(v.Parts[i+1] & PartOffsetMask)
	closed = v.Parts[i]&PartFlagClosed != 0
	exterior = v.Parts[i]&PartFlagExteriorRing != 0
	return
}

// NumExternalRings counts the parts flagged ExteriorRing. Only meaningful
// for polygons.
func (v *Value) NumExternalRings() int {
	if !v.IsPoly() {
		return 0
	}
	n := 0
	for i := 0; i < v.NumParts(); i++ {
		if v.Parts[i]&PartFlagExteriorRing != 0 {
			n++
		}
	}
	return n
}

// VertexAt returns the dims-length slice of coordinates for vertex index i.
func (v *Value) VertexAt(i int) []float64 {
	dims := v.Flags.Dimensions()
	return v.Vertices[i*dims : (i+1)*dims]
}

func (v *Value) validate() error {
	if v.NumParts() < 1 {
		return fmt.Errorf("geom: NumParts must be >= 1")
	}
	if v.IsPoly() {
		for i := 0; i < v.NumParts(); i++ {
			start, end, _, _ := v.Part(i)
			if end < start {
				return fmt.Errorf("geom: part %d has negative length", i)
			}
			if end-start > MaxVerticesPerPart {
				return fmt.Errorf("geom: part %d exceeds %d vertices", i, MaxVerticesPerPart)
			}
		}
	}
	return nil
}
