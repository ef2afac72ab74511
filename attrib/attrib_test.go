package attrib

import (
	"testing"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

func TestNullIsZeroValue(t *testing.T) {
	var a Attrib
	require.True(t, a.IsNull())
	require.Equal(t, Null(), a)
}

func TestMakePointRoundTrip(t *testing.T) {
	a := MakePoint(10, 20, 4326)
	require.True(t, a.IsPoint())
	g, ok := a.Geom()
	require.True(t, ok)
	require.Equal(t, []float64{10, 20}, g.Vertices)
	require.Equal(t, int32(4326), g.Header.SRID)
}

func TestMakePolylineXYClosedFlag(t *testing.T) {
	a := MakePolylineXY([]float64{0, 0, 1, 0, 1, 1}, 0, true)
	require.True(t, a.IsPoly())
	g, ok := a.Geom()
	require.True(t, ok)
	_, _, closed, _ := g.Part(0)
	require.True(t, closed)
}

func TestMakePolygonXYReordersArbitraryRings(t *testing.T) {
	// Interior hole listed first, CW exterior listed second -- the
	// constructor must still produce exterior-first, CCW exterior /
	// CW interior WKB order.
	hole := []float64{4, 4, 6, 4, 6, 6, 4, 6}
	exterior := []float64{0, 0, 0, 10, 10, 10, 10, 0}

	a, err := MakePolygonXY([][]float64{hole, exterior}, 0)
	require.NoError(t, err)
	require.True(t, a.IsPoly())

	g, ok := a.Geom()
	require.True(t, ok)
	require.Equal(t, 2, g.NumParts())
	require.True(t, g.NumExternalRings() >= 1)
}

func TestMakePolygonXYDropsDuplicatedClosingVertex(t *testing.T) {
	ring := []float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0} // closing vertex repeats the first
	a, err := MakePolygonXY([][]float64{ring}, 0)
	require.NoError(t, err)
	g, ok := a.Geom()
	require.True(t, ok)
	start, end, _, _ := g.Part(0)
	require.Equal(t, 4, end-start)
}

func TestFromBinCopiesWhenAllocatorGiven(t *testing.T) {
	src := []byte{1, 2, 3}
	a := FromBin(src, alloc.Default())
	require.Equal(t, src, a.RawBin())
	require.Equal(t, dtype.Bin, a.Type())
	src[0] = 9
	require.Equal(t, byte(1), a.RawBin()[0])
}

func TestFromGeomPanicsOnNonGeomType(t *testing.T) {
	require.Panics(t, func() {
		FromGeom(dtype.Int64, nil)
	})
}
