package dtype

// Flags are bit flags attached to schema fields, not to values. Values carry
// their own geometry-shape flags separately (see package geom).
//
// Grounded on original_source/lib/dba/Attrib.h (TypeFlags).
type Flags uint32

const (
	NotNull Flags = 1 << iota
	AutoIncrement
	GeomHasZ
	GeomHasM
	GeomNotMulti
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
