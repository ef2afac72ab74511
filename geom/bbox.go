package geom

import "math"

// BBox is an axis-aligned bounding box over the XY plane.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

func emptyBBox() BBox {
	return BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

func (b *BBox) expand(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Contains reports whether o is entirely inside (or equal to) b.
func (b BBox) Contains(o BBox) bool {
	return o.MinX >= b.MinX && o.MinY >= b.MinY && o.MaxX <= b.MaxX && o.MaxY <= b.MaxY
}

// BBox returns the 2D bounding box of all of v's vertices.
//
// Grounded on original_source/lib/dba/Geom.h (geom::BBox2d).
func (v *Value) BBox() BBox {
	b := emptyBBox()
	dims := v.Flags.Dimensions()
	for i := 0; i < v.TotalVertexCount(); i++ {
		b.expand(v.Vertices[i*dims], v.Vertices[i*dims+1])
	}
	return b
}

// Distance returns the Euclidean distance between the bounding-box centers
// of a and b. This is a coarse helper, not a true geometric distance
// function (those live outside the core; see spec.md §1 non-goals).
//
// Grounded on original_source/lib/dba/Geom.h (geom::Distance2D), simplified
// per spec.md's scoping of the core away from full geometric predicates.
func Distance(a, b *Value) float64 {
	ba, bb := a.BBox(), b.BBox()
	acx, acy := (ba.MinX+ba.MaxX)/2, (ba.MinY+ba.MaxY)/2
	bcx, bcy := (bb.MinX+bb.MaxX)/2, (bb.MinY+bb.MaxY)/2
	dx, dy := acx-bcx, acy-bcy
	return math.Sqrt(dx*dx + dy*dy)
}

// Vertices2 returns the XY vertices of the given part as flat pairs.
func Vertices2(v *Value, part int) [][2]float64 {
	start, end, _, _ := partRange(v, part)
	dims := v.Flags.Dimensions()
	out := make([][2]float64, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, [2]float64{v.Vertices[i*dims], v.Vertices[i*dims+1]})
	}
	return out
}

// Vertices3 returns each vertex of the given part as [x, y, z]. z is 0 for
// geometries stored without a Z ordinate.
func Vertices3(v *Value, part int) [][3]float64 {
	start, end, _, _ := partRange(v, part)
	dims := v.Flags.Dimensions()
	hasZ := v.Flags.Has(FlagHasZ)
	out := make([][3]float64, 0, end-start)
	for i := start; i < end; i++ {
		x, y := v.Vertices[i*dims], v.Vertices[i*dims+1]
		z := 0.0
		if hasZ {
			z = v.Vertices[i*dims+2]
		}
		out = append(out, [3]float64{x, y, z})
	}
	return out
}

// Vertices4 returns each vertex of the given part as [x, y, z, m]. Whichever
// of z/m the geometry was not stored with reads back as 0.
func Vertices4(v *Value, part int) [][4]float64 {
	start, end, _, _ := partRange(v, part)
	dims := v.Flags.Dimensions()
	hasZ := v.Flags.Has(FlagHasZ)
	hasM := v.Flags.Has(FlagHasM)
	out := make([][4]float64, 0, end-start)
	for i := start; i < end; i++ {
		x, y := v.Vertices[i*dims], v.Vertices[i*dims+1]
		z, m := 0.0, 0.0
		next := 2
		if hasZ {
			z = v.Vertices[i*dims+next]
			next++
		}
		if hasM {
			m = v.Vertices[i*dims+next]
		}
		out = append(out, [4]float64{x, y, z, m})
	}
	return out
}

func partRange(v *Value, part int) (start, end int, closed, exterior bool) {
	if v.IsPoly() {
		return v.Part(part)
	}
	return 0, v.TotalVertexCount(), false, false
}
