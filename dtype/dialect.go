package dtype

// DialectFlags is a capability bitset describing what a backend supports.
// Bit numbers are stable for wire compatibility if persisted, but are not
// themselves persisted (spec.md §6).
//
// Grounded on original_source/lib/dba/Drivers/Postgres.cpp
// (PostgresDialect::Flags) and the Sqlite/MSSQL/HANA equivalents, and on
// ariga/atlas's dialect capability style (other_examples b96a7f35,
// 095c4c53, 6145cfbc).
type DialectFlags uint32

const (
	MultiRowInsert DialectFlags = 1 << iota // VALUES (...),(...),(...)
	MultiRowDummyUnionInsert
	AlterSchemaInsideTransaction
	UUID
	GeomZ
	GeomM
	SpatialIndex
	GeomSpecificFieldTypes
	Int16Flag
	FloatFlag
	JSONBFlag
	NamedSchemas
)

func (f DialectFlags) Has(bit DialectFlags) bool { return f&bit != 0 }

// NativeFunc is the tiny cross-dialect function namespace that every driver
// adapter must translate into its own native syntax.
//
// Grounded on original_source/lib/dba/Drivers/Postgres.cpp
// (PostgresDialect::NativeFunc) and the corresponding Sqlite/MSSQL/HANA
// translators.
type NativeFunc string

const (
	FuncGeomFromText    NativeFunc = "dba_ST_GeomFromText"
	FuncIntersects      NativeFunc = "dba_ST_Intersects"
	FuncAsGeom          NativeFunc = "dba_ST_AsGeom"
	FuncUnixTimestamp   NativeFunc = "dba_Unix_Timestamp"
	FuncCoarseIntersect NativeFunc = "dba_ST_CoarseIntersect"
)

// Dialect describes the behaviors and capability flags that distinguish one
// SQL engine from another at the translation layer (GLOSSARY: Dialect).
//
// Every driver adapter (postgres, sqlite, mssql, hana) provides exactly one
// Dialect implementation.
type Dialect interface {
	// Name is a short, stable identifier: "postgres", "sqlite", "mssql", "hana".
	Name() string

	Flags() DialectFlags

	// FormatType renders a column type declaration for a CREATE TABLE
	// statement, e.g. Text(50), Int64 AutoIncrement, or a geometry column
	// of a given concrete type and SRID.
	FormatType(t Type, widthOrSRID int, flags Flags) string

	// QuoteLiteral renders s as a safely quoted SQL string literal.
	QuoteLiteral(s string) string

	// QuoteIdentifier renders name as a safely quoted SQL identifier.
	QuoteIdentifier(name string) string

	// TranslateFunc rewrites a call to one of the NativeFunc names (plus its
	// raw argument text, already rendered) into this dialect's native
	// syntax. ok is false if fn is not recognized by this dialect.
	TranslateFunc(fn NativeFunc, args []string) (sql string, ok bool)

	// ParamPlaceholder renders the N'th (1-based) ordinal parameter
	// placeholder in this dialect's native syntax ($1, :1, ? ...).
	ParamPlaceholder(ordinal int) string
}
