package geom

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

// rawPolygonWKB hand-builds a little-endian WKB Polygon with a single ring
// of the given vertices (2D, no SRID), exactly as written, with no duplicate
// closing vertex appended — used to exercise a ring that is NOT bit-exactly
// closed on the wire.
func rawPolygonWKB(t *testing.T, vx [][2]float64) []byte {
	t.Helper()
	buf := make([]byte, 0, 9+4+len(vx)*16)
	buf = append(buf, 1) // little endian
	typ := make([]byte, 4)
	binary.LittleEndian.PutUint32(typ, 3) // wkbPolygon
	buf = append(buf, typ...)
	ringCount := make([]byte, 4)
	binary.LittleEndian.PutUint32(ringCount, 1)
	buf = append(buf, ringCount...)
	np := make([]byte, 4)
	binary.LittleEndian.PutUint32(np, uint32(len(vx)))
	buf = append(buf, np...)
	for _, p := range vx {
		for _, f := range p {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, math.Float64bits(f))
			buf = append(buf, b...)
		}
	}
	return buf
}

func TestEncodeDecodePointRoundTrip(t *testing.T) {
	v := &Value{
		Header:   Header{NumParts: 1, SRID: 4326},
		Flags:    FlagDouble,
		Vertices: []float64{18.4241, -33.9249},
	}
	buf, err := Encode(v, dtype.GeomPoint, false)
	require.NoError(t, err)

	got, typ, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPoint, typ)
	require.Equal(t, v.Vertices, got.Vertices)
	require.Equal(t, int32(4326), got.Header.SRID)
}

func TestEncodeDecodePolygonRoundTrip(t *testing.T) {
	// A single CCW exterior ring, already in WKB order.
	vx := []float64{0, 0, 4, 0, 4, 4, 0, 4}
	v := &Value{
		Header:   Header{NumParts: 1, SRID: 0},
		Flags:    FlagDouble | FlagRingsInWKBOrder,
		Parts:    []uint32{PartFlagExteriorRing, 4},
		Vertices: vx,
	}
	buf, err := Encode(v, dtype.GeomPolygon, false)
	require.NoError(t, err)

	got, typ, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPolygon, typ)
	require.Equal(t, vx, got.Vertices)
	require.Equal(t, 1, got.NumParts())
}

func TestEncodeDecodePolylineMultiPart(t *testing.T) {
	vx := []float64{0, 0, 1, 1, 2, 2, 5, 5, 6, 6}
	v := &Value{
		Header:   Header{NumParts: 2, SRID: 0},
		Flags:    FlagDouble,
		Parts:    []uint32{0, 3, 5},
		Vertices: vx,
	}
	buf, err := Encode(v, dtype.GeomPolyline, false)
	require.NoError(t, err)

	got, typ, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPolyline, typ)
	require.Equal(t, 2, got.NumParts())
	require.Equal(t, vx, got.Vertices)
}

func TestDecodePolygonDropsBitExactClosingVertex(t *testing.T) {
	// Encode writes one polygon with one ring of 5 vertices, the last
	// bit-exactly repeating the first, the way PostGIS/gdal-style producers
	// always write a closed ring on the wire.
	v := &Value{
		Header:   Header{NumParts: 1},
		Flags:    FlagDouble | FlagRingsInWKBOrder,
		Parts:    []uint32{PartFlagExteriorRing, 4},
		Vertices: []float64{0, 0, 4, 0, 4, 4, 0, 4},
	}
	buf, err := Encode(v, dtype.GeomPolygon, false)
	require.NoError(t, err)

	got, typ, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPolygon, typ)
	require.Equal(t, v.Vertices, got.Vertices, "the duplicate closing vertex must be dropped on decode")
	start, end, closed, exterior := got.Part(0)
	require.Equal(t, 0, start)
	require.Equal(t, 4, end)
	require.True(t, closed)
	require.True(t, exterior)
}

func TestDecodePolygonKeepsOpenRingUnflagged(t *testing.T) {
	buf := rawPolygonWKB(t, [][2]float64{{0, 0}, {4, 0}, {4, 4}, {0, 4}})

	got, typ, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPolygon, typ)
	require.Equal(t, []float64{0, 0, 4, 0, 4, 4, 0, 4}, got.Vertices)
	_, _, closed, _ := got.Part(0)
	require.False(t, closed, "a ring whose first and last vertex differ is not flagged Closed")
}

func TestDecodeOverrunIsReported(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}
