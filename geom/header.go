// Package geom implements geometry storage layout, Well-Known Binary
// encode/decode, and the polygon ring-reordering algorithm described in
// spec.md §4.2. It is independent of package attrib: attrib wraps a *Value
// behind its GeomPoint/GeomMultiPoint/GeomPolyline/GeomPolygon tags.
//
// Grounded on original_source/lib/dba/AttribGeom.cpp/h and Attrib.h's
// GeomHeader/GeomFlags/GeomPartFlags documentation.
package geom

// Header is the 8-byte anchor for all dynamic geometry storage.
type Header struct {
	NumParts uint32 // For Points, NumParts == 1 (vertex count, no parts array).
	SRID     int32  // Positive: EPSG code. Negative: a temporary/local projection code.
}
