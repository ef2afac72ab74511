package attrib

import (
	"testing"

	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/geom"
	"github.com/stretchr/testify/require"
)

func TestConvertToWidensInt32ToDouble(t *testing.T) {
	a := FromInt32(7)
	out, err := a.ConvertTo(dtype.Double)
	require.NoError(t, err)
	require.Equal(t, 7.0, out.ToDouble())
}

func TestToInt64TruncatesDouble(t *testing.T) {
	a := FromDouble(3.9)
	require.Equal(t, int64(3), a.ToInt64())
}

func TestCompareOrdersInt64(t *testing.T) {
	a, b := FromInt64(1), FromInt64(2)
	require.True(t, a.Less(&b))
	require.False(t, b.Less(&a))
	require.True(t, a.Equal(&a))
}

func TestGuidRoundTripsThroughBytes(t *testing.T) {
	g := NewGuid()
	back, err := GuidFromBytes(g.Bytes())
	require.NoError(t, err)
	require.Equal(t, 0, g.Compare(back))
}

func TestToGuidOnNonGuidAttrib(t *testing.T) {
	a := FromText("not-a-guid", nil)
	_, err := a.ToGuid()
	require.Error(t, err)
}

func TestConvertToParsesBinAsWKBGeometry(t *testing.T) {
	wkb, err := geom.Encode(&geom.Value{Vertices: []float64{18.4241, -33.9249}}, dtype.GeomPoint, false)
	require.NoError(t, err)

	a := FromBin(wkb, nil)
	out, err := a.ConvertTo(dtype.GeomPoint)
	require.NoError(t, err)
	require.True(t, out.IsGeom())
	g, ok := out.Geom()
	require.True(t, ok)
	require.Equal(t, []float64{18.4241, -33.9249}, g.Vertices)
}

func TestConvertToGeomRejectsNonBinSource(t *testing.T) {
	a := FromInt32(7)
	_, err := a.ConvertTo(dtype.GeomPoint)
	require.Error(t, err)
}
