// Package dtype holds the closed type taxonomy shared by every part of the
// core: the Attrib variant (package attrib), the geometry codec (package
// geom) and every driver adapter agree on this single enumeration so that a
// value decoded from one backend can be round-tripped through any other.
//
// Grounded on original_source/lib/dba/Attrib.h (enum class Type) and
// dolthub-go-mysql-server's sql/types package for the "closed taxonomy +
// capability flags" shape.
package dtype

// Type is a closed enumeration of value kinds that an Attrib can hold, or
// that a schema field can declare.
type Type uint8

const (
	Null Type = iota
	Bool
	Int16
	Int32
	Int64
	Float
	Double
	Text
	Guid
	Date
	Time
	Bin
	JSONB
	GeomPoint
	GeomMultiPoint
	GeomPolyline
	GeomPolygon
	// GeomAny is a schema-level wildcard meaning "any concrete geometry".
	// It is never the Type of a value, only of a schema field.
	GeomAny
)

func (t Type) String() string {
	switch t {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Text:
		return "Text"
	case Guid:
		return "Guid"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case Bin:
		return "Bin"
	case JSONB:
		return "JSONB"
	case GeomPoint:
		return "GeomPoint"
	case GeomMultiPoint:
		return "GeomMultiPoint"
	case GeomPolyline:
		return "GeomPolyline"
	case GeomPolygon:
		return "GeomPolygon"
	case GeomAny:
		return "GeomAny"
	default:
		return "Unknown"
	}
}

// IsGeom reports whether t is a concrete geometry type. GeomAny is a schema
// wildcard, not a concrete type, so it is excluded here.
func (t Type) IsGeom() bool {
	switch t {
	case GeomPoint, GeomMultiPoint, GeomPolyline, GeomPolygon:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t is one of the scalar numeric kinds.
func (t Type) IsNumeric() bool {
	switch t {
	case Int16, Int32, Int64, Float, Double:
		return true
	default:
		return false
	}
}
