package shapefile

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

func putF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func putU32LE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// buildSHP assembles a minimal .shp file: the 100-byte header followed by
// the given pre-encoded record contents (each wrapped in its own 8-byte
// big-endian record header).
func buildSHP(shapeType uint32, records [][]byte) []byte {
	var buf bytes.Buffer
	header := make([]byte, 100)
	binary.LittleEndian.PutUint32(header[32:36], shapeType)

	fileLenWords := uint32(50) // placeholder, patched below
	binary.BigEndian.PutUint32(header[24:28], fileLenWords)
	buf.Write(header)

	for i, rec := range records {
		var recHeader [8]byte
		binary.BigEndian.PutUint32(recHeader[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(recHeader[4:8], uint32(len(rec)/2))
		buf.Write(recHeader[:])
		buf.Write(rec)
	}

	out := buf.Bytes()
	totalWords := uint32(len(out) / 2)
	binary.BigEndian.PutUint32(out[24:28], totalWords)
	return out
}

func encodePointRecord(x, y float64) []byte {
	var buf bytes.Buffer
	putU32LE(&buf, shapePoint)
	putF64(&buf, x)
	putF64(&buf, y)
	return buf.Bytes()
}

func encodePolygonRecord(rings [][]float64) []byte {
	var buf bytes.Buffer
	putU32LE(&buf, shapePolygon)
	// bbox (unused by the reader, but must be present)
	for i := 0; i < 4; i++ {
		putF64(&buf, 0)
	}
	numPoints := 0
	for _, r := range rings {
		numPoints += len(r) / 2
	}
	putU32LE(&buf, uint32(len(rings)))
	putU32LE(&buf, uint32(numPoints))
	offset := 0
	for _, r := range rings {
		putU32LE(&buf, uint32(offset))
		offset += len(r) / 2
	}
	for _, r := range rings {
		for i := 0; i < len(r); i += 2 {
			putF64(&buf, r[i])
			putF64(&buf, r[i+1])
		}
	}
	return buf.Bytes()
}

func TestReadsPointRecords(t *testing.T) {
	raw := buildSHP(shapePoint, [][]byte{encodePointRecord(18.4, -33.9)})
	r, err := New(bytes.NewReader(raw), nil, 4326)
	require.NoError(t, err)
	require.Equal(t, dtype.GeomPoint, r.Columns()[0].Type)

	require.NoError(t, r.NextRow(context.Background()))
	g, err := r.Get(0, nil)
	require.NoError(t, err)
	require.True(t, g.IsPoint())
	geomVal, ok := g.Geom()
	require.True(t, ok)
	require.InDelta(t, 18.4, geomVal.Vertices[0], 1e-9)
	require.InDelta(t, -33.9, geomVal.Vertices[1], 1e-9)

	require.Equal(t, driver.ErrEOF, r.NextRow(context.Background()))
}

func TestReadsPolygonRecordsReorderedIntoWKBOrder(t *testing.T) {
	// Esri convention: exterior CW, interior CCW -- the opposite of what
	// MakePolygonXY must emit.
	exteriorCW := []float64{0, 0, 0, 10, 10, 10, 10, 0}
	holeCCW := []float64{4, 4, 6, 4, 6, 6, 4, 6}

	raw := buildSHP(shapePolygon, [][]byte{encodePolygonRecord([][]float64{exteriorCW, holeCCW})})
	r, err := New(bytes.NewReader(raw), nil, 0)
	require.NoError(t, err)

	require.NoError(t, r.NextRow(context.Background()))
	a, err := r.Get(0, nil)
	require.NoError(t, err)
	require.True(t, a.IsPoly())
	g, ok := a.Geom()
	require.True(t, ok)
	require.Equal(t, 2, g.NumParts())
}

func TestReadsMultipleRecordsSequentially(t *testing.T) {
	raw := buildSHP(shapePoint, [][]byte{
		encodePointRecord(1, 1),
		encodePointRecord(2, 2),
	})
	r, err := New(bytes.NewReader(raw), nil, 0)
	require.NoError(t, err)

	var xs []float64
	for {
		err := r.NextRow(context.Background())
		if err == driver.ErrEOF {
			break
		}
		require.NoError(t, err)
		a, err := r.Get(0, nil)
		require.NoError(t, err)
		g, _ := a.Geom()
		xs = append(xs, g.Vertices[0])
	}
	require.Equal(t, []float64{1, 2}, xs)
}
