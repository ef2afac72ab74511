package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixRingOrderWKBSingleSquare(t *testing.T) {
	// One square, already CCW.
	vx := []float64{0, 0, 4, 0, 4, 4, 0, 4}
	parts := []uint32{0, 4}

	newParts, newVx := FixRingOrderWKB(1, parts, vx, 2)
	require.Equal(t, []uint32{PartFlagClosed | PartFlagExteriorRing, 4}, newParts)
	require.Equal(t, vx, newVx)
}

func TestFixRingOrderWKBReordersInteriorAfterExterior(t *testing.T) {
	// Exterior square (10x10) listed second, interior hole (2x2 at
	// (4,4)) listed first. FixRingOrderWKB must put the exterior first
	// and orient exterior CCW / interior CW.
	hole := []float64{4, 4, 6, 4, 6, 6, 4, 6} // CCW as given
	exterior := []float64{0, 0, 0, 10, 10, 10, 10, 0} // CW as given

	vx := append(append([]float64{}, hole...), exterior...)
	parts := []uint32{0, 4, 8}

	newParts, newVx := FixRingOrderWKB(2, parts, vx, 2)
	require.Len(t, newParts, 3)

	// First ring (now the exterior) must be CCW.
	extStart, extEnd := int(newParts[0]&PartOffsetMask), int(newParts[1]&PartOffsetMask)
	require.True(t, orientCCW(polygonArea(extEnd-extStart, newVx[extStart*2:], 2)))

	// Second ring (the hole) must be CW.
	intStart, intEnd := int(newParts[1]&PartOffsetMask), int(newParts[2]&PartOffsetMask)
	require.False(t, orientCCW(polygonArea(intEnd-intStart, newVx[intStart*2:], 2)))

	// The exterior ring must contain the hole's first vertex.
	require.True(t, pointInPolygon(newVx[intStart*2], newVx[intStart*2+1], extEnd-extStart, newVx[extStart*2:], 2))
}

func TestFixRingOrderWKBMultiplePolygons(t *testing.T) {
	// Two disjoint squares, neither containing the other: both are
	// top-level exteriors and must both end up CCW, in some order.
	a := []float64{0, 0, 2, 0, 2, 2, 0, 2}
	b := []float64{10, 10, 10, 12, 12, 12, 12, 10} // CW as given

	vx := append(append([]float64{}, a...), b...)
	parts := []uint32{0, 4, 8}

	newParts, newVx := FixRingOrderWKB(2, parts, vx, 2)
	require.Len(t, newParts, 3)
	for i := 0; i < 2; i++ {
		start, end := int(newParts[i]&PartOffsetMask), int(newParts[i+1]&PartOffsetMask)
		require.True(t, orientCCW(polygonArea(end-start, newVx[start*2:], 2)))
	}
}
