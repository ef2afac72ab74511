// Package shapefile is a forward-only, read-only reader for Esri Shapefile
// (.shp) geometry, optionally paired with a sibling .dbf (via
// flatfile/dbf) for attribute columns joined by record index
// (SPEC_FULL.md §13.3).
//
// Grounded on original_source/lib/dba/FlatFiles/Shapefile.cpp/h and
// Shapefile/ShFile.cpp/h/ShHeaders.h/ShMisc.cpp: the .shp record's
// parts-array-plus-vertex-array layout is structurally the same shape as
// this module's own geometry storage layout (spec.md §4.2), so decoding
// maps close to one-to-one onto geom.Value. Esri's polygon ring winding
// convention (clockwise exterior, counter-clockwise interior) is the
// opposite of WKB's, so polygon rings are always routed through
// attrib.MakePolygonXY, which reorders/reorients into WKB order regardless
// of the input winding — the same helper used for any other arbitrary-order
// ring input.
//
// Non-goals carried from spec.md §1: no .shx-assisted random access (this
// reader is sequential-only), no shapefile writing, no MultiPatch (3D
// solids) decoding.
package shapefile

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/flatfile/dbf"
	"github.com/imqs/dba/geom"
)

// Shape type codes, per the Esri Shapefile Technical Description.
const (
	shapeNull        = 0
	shapePoint       = 1
	shapePolyLine    = 3
	shapePolygon     = 5
	shapeMultiPoint  = 8
	shapePointZ      = 11
	shapePolyLineZ   = 13
	shapePolygonZ    = 15
	shapeMultiPointZ = 18
	shapePointM      = 21
	shapePolyLineM   = 23
	shapePolygonM    = 25
	shapeMultiPointM = 28
)

// Reader reads one .shp file (and, if attrs is non-nil, a paired .dbf) as a
// row stream. Column 0 is always the geometry; columns 1..N are the .dbf
// attribute columns, joined by record index.
type Reader struct {
	r         *bufio.Reader
	remaining int64 // bytes left in the .shp file, from the header's file length
	attrs     *dbf.Reader
	cols      []driver.ColumnInfo
	geomType  dtype.Type
	curGeom   attrib.Attrib
	srid      int32
}

// New parses the .shp main file header from shp. If attrs is non-nil it is
// a Reader already positioned at the first record of the paired .dbf.
func New(shp io.Reader, attrs *dbf.Reader, srid int32) (*Reader, error) {
	br := bufio.NewReader(shp)
	header := make([]byte, 100)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	fileLenWords := binary.BigEndian.Uint32(header[24:28])
	shapeType := binary.LittleEndian.Uint32(header[32:36])

	cols := []driver.ColumnInfo{{Name: "geom", Type: geometryDType(shapeType)}}
	if attrs != nil {
		cols = append(cols, attrs.Columns()...)
	}

	return &Reader{
		r:         br,
		remaining: int64(fileLenWords)*2 - 100,
		attrs:     attrs,
		cols:      cols,
		geomType:  geometryDType(shapeType),
		srid:      srid,
	}, nil
}

func geometryDType(shapeType uint32) dtype.Type {
	switch shapeType {
	case shapePoint, shapePointZ, shapePointM:
		return dtype.GeomPoint
	case shapeMultiPoint, shapeMultiPointZ, shapeMultiPointM:
		return dtype.GeomMultiPoint
	case shapePolyLine, shapePolyLineZ, shapePolyLineM:
		return dtype.GeomPolyline
	case shapePolygon, shapePolygonZ, shapePolygonM:
		return dtype.GeomPolygon
	default:
		return dtype.GeomAny
	}
}

func (r *Reader) Columns() []driver.ColumnInfo { return r.cols }
func (r *Reader) ColumnCount() int             { return len(r.cols) }

// NextRow reads the next .shp record (and, if paired, the next .dbf
// record).
func (r *Reader) NextRow(ctx context.Context) error {
	if r.remaining <= 0 {
		return driver.ErrEOF
	}
	recHeader := make([]byte, 8)
	if _, err := io.ReadFull(r.r, recHeader); err != nil {
		if err == io.EOF {
			return driver.ErrEOF
		}
		return err
	}
	contentWords := binary.BigEndian.Uint32(recHeader[4:8])
	contentLen := int(contentWords) * 2
	r.remaining -= int64(8 + contentLen)

	content := make([]byte, contentLen)
	if _, err := io.ReadFull(r.r, content); err != nil {
		return err
	}
	g, err := decodeRecord(content, r.srid)
	if err != nil {
		return err
	}
	r.curGeom = g

	if r.attrs != nil {
		if err := r.attrs.NextRow(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) Get(col int, a alloc.Allocator) (attrib.Attrib, error) {
	if col == 0 {
		return r.curGeom, nil
	}
	return r.attrs.Get(col-1, a)
}

func (r *Reader) Close() error {
	if r.attrs != nil {
		return r.attrs.Close()
	}
	return nil
}

// decodeRecord decodes one .shp record's content (everything after the
// 8-byte record header) into an Attrib.
func decodeRecord(b []byte, srid int32) (attrib.Attrib, error) {
	if len(b) < 4 {
		return attrib.Null(), nil
	}
	shapeType := binary.LittleEndian.Uint32(b[0:4])
	switch shapeType {
	case shapeNull:
		return attrib.Null(), nil
	case shapePoint, shapePointZ, shapePointM:
		return decodePoint(b, shapeType, srid)
	case shapeMultiPoint, shapeMultiPointZ, shapeMultiPointM:
		return decodeMultiPoint(b, shapeType, srid)
	case shapePolyLine, shapePolyLineZ, shapePolyLineM:
		return decodePolyLine(b, shapeType, srid)
	case shapePolygon, shapePolygonZ, shapePolygonM:
		return decodePolygon(b, shapeType, srid)
	default:
		return attrib.Attrib{}, geom.ErrInvalidInput
	}
}

func hasZ(shapeType uint32) bool {
	return shapeType == shapePointZ || shapeType == shapeMultiPointZ ||
		shapeType == shapePolyLineZ || shapeType == shapePolygonZ
}

func decodePoint(b []byte, shapeType uint32, srid int32) (attrib.Attrib, error) {
	if len(b) < 20 {
		return attrib.Attrib{}, geom.ErrInvalidInput
	}
	x := math64(b[4:12])
	y := math64(b[12:20])
	v := &geom.Value{Header: geom.Header{NumParts: 1, SRID: srid}, Flags: geom.FlagDouble}
	if hasZ(shapeType) && len(b) >= 28 {
		z := math64(b[20:28])
		v.Flags |= geom.FlagHasZ
		v.Vertices = []float64{x, y, z}
	} else {
		v.Vertices = []float64{x, y}
	}
	return attrib.FromGeom(dtype.GeomPoint, v), nil
}

func decodeMultiPoint(b []byte, shapeType uint32, srid int32) (attrib.Attrib, error) {
	if len(b) < 40 {
		return attrib.Attrib{}, geom.ErrInvalidInput
	}
	numPoints := int(binary.LittleEndian.Uint32(b[36:40]))
	if numPoints > geom.MaxVerticesPerPart {
		return attrib.Attrib{}, geom.ErrTooManyVerts
	}
	pos := 40
	xy := make([]float64, 0, numPoints*2)
	for i := 0; i < numPoints; i++ {
		if pos+16 > len(b) {
			return attrib.Attrib{}, geom.ErrOverrun
		}
		xy = append(xy, math64(b[pos:pos+8]), math64(b[pos+8:pos+16]))
		pos += 16
	}
	v := &geom.Value{Header: geom.Header{NumParts: uint32(numPoints), SRID: srid}, Flags: geom.FlagDouble, Vertices: xy}
	return attrib.FromGeom(dtype.GeomMultiPoint, v), nil
}

// readPartsAndPoints reads the shared PolyLine/Polygon record shape: bbox,
// numParts, numPoints, parts[] (start index per part), points[] (flat xy).
func readPartsAndPoints(b []byte) (numParts, numPoints int, parts []int32, xy []float64, rest []byte, err error) {
	if len(b) < 44 {
		return 0, 0, nil, nil, nil, geom.ErrInvalidInput
	}
	numParts = int(binary.LittleEndian.Uint32(b[36:40]))
	numPoints = int(binary.LittleEndian.Uint32(b[40:44]))
	pos := 44
	parts = make([]int32, numParts)
	for i := 0; i < numParts; i++ {
		if pos+4 > len(b) {
			return 0, 0, nil, nil, nil, geom.ErrOverrun
		}
		parts[i] = int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
		pos += 4
	}
	xy = make([]float64, 0, numPoints*2)
	for i := 0; i < numPoints; i++ {
		if pos+16 > len(b) {
			return 0, 0, nil, nil, nil, geom.ErrOverrun
		}
		xy = append(xy, math64(b[pos:pos+8]), math64(b[pos+8:pos+16]))
		pos += 16
	}
	return numParts, numPoints, parts, xy, b[pos:], nil
}

func decodePolyLine(b []byte, shapeType uint32, srid int32) (attrib.Attrib, error) {
	numParts, numPoints, esriParts, xy, _, err := readPartsAndPoints(b)
	if err != nil {
		return attrib.Attrib{}, err
	}
	parts := make([]uint32, numParts+1)
	for i, start := range esriParts {
		end := numPoints
		if i+1 < numParts {
			end = int(esriParts[i+1])
		}
		if end-int(start) > geom.MaxVerticesPerPart {
			return attrib.Attrib{}, geom.ErrTooManyVerts
		}
		flags := uint32(start)
		if end > int(start) && xy[int(start)*2] == xy[(end-1)*2] && xy[int(start)*2+1] == xy[(end-1)*2+1] {
			flags |= geom.PartFlagClosed
		}
		parts[i] = flags
	}
	parts[numParts] = uint32(numPoints)
	v := &geom.Value{
		Header:   geom.Header{NumParts: uint32(numParts), SRID: srid},
		Flags:    geom.FlagDouble | geom.FlagRingsInWKBOrder,
		Parts:    parts,
		Vertices: xy,
	}
	return attrib.FromGeom(dtype.GeomPolyline, v), nil
}

func decodePolygon(b []byte, shapeType uint32, srid int32) (attrib.Attrib, error) {
	numParts, numPoints, esriParts, xy, _, err := readPartsAndPoints(b)
	if err != nil {
		return attrib.Attrib{}, err
	}
	rings := make([][]float64, numParts)
	for i, start := range esriParts {
		end := numPoints
		if i+1 < numParts {
			end = int(esriParts[i+1])
		}
		rings[i] = xy[int(start)*2 : end*2]
	}
	return attrib.MakePolygonXY(rings, srid)
}

func math64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
