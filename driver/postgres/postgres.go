// Package postgres adapts PostgreSQL, reached through jackc/pgx/v5's
// database/sql-compatible stdlib driver, to this module's driver.Conn
// contract. Parameters are bound through database/sql using pgx's native
// binary protocol (registered as "pgx" with database/sql by the stdlib
// subpackage's init()); geometry is carried as EWKB with Force_Multi so
// PostGIS always decodes a concrete singular or multi shape consistently.
//
// Grounded on spec.md §4.4's Postgres parameter-encoding policy. Statements
// are prepared through database/sql: this adapter names no ps_1, ps_2, ...
// statement slots and has no COPY path.
package postgres

import (
	"context"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/imqs/dba"
	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/driver/sqlbridge"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/geom"
)

const DialectName = "postgres"

// Open implements driver.Opener, registered under the "postgres" dialect
// name (see conn.go's Register / openers map).
func Open(ctx context.Context, dsn string) (driver.Conn, error) {
	return sqlbridge.Open(ctx, "pgx", dsn, dialect{}, codec{})
}

// init registers this adapter with the root package the same way every
// database/sql driver registers itself via a blank import; importing
// driver/postgres for side effect is enough to make "postgres" a valid
// ConfigNode.Type.
func init() { dba.Register(DialectName, Open) }

type dialect struct{}

func (dialect) Name() string { return DialectName }

func (dialect) Flags() dtype.DialectFlags {
	return dtype.MultiRowInsert | dtype.AlterSchemaInsideTransaction | dtype.UUID |
		dtype.GeomZ | dtype.GeomM | dtype.SpatialIndex | dtype.GeomSpecificFieldTypes |
		dtype.Int16Flag | dtype.FloatFlag | dtype.JSONBFlag | dtype.NamedSchemas
}

func (dialect) FormatType(t dtype.Type, widthOrSRID int, flags dtype.Flags) string {
	switch t {
	case dtype.Bool:
		return "boolean"
	case dtype.Int16:
		return "smallint"
	case dtype.Int32:
		return "integer"
	case dtype.Int64:
		if flags.Has(dtype.AutoIncrement) {
			return "bigserial"
		}
		return "bigint"
	case dtype.Float:
		return "real"
	case dtype.Double:
		return "double precision"
	case dtype.Text:
		if widthOrSRID > 0 {
			return "varchar(" + itoa(widthOrSRID) + ")"
		}
		return "text"
	case dtype.Guid:
		return "uuid"
	case dtype.Date:
		return "timestamptz"
	case dtype.Time:
		return "time"
	case dtype.Bin:
		return "bytea"
	case dtype.JSONB:
		return "jsonb"
	case dtype.GeomPoint, dtype.GeomMultiPoint, dtype.GeomPolyline, dtype.GeomPolygon:
		return "geometry(" + geomTypeName(t) + "," + itoa(widthOrSRID) + ")"
	default:
		return "text"
	}
}

func geomTypeName(t dtype.Type) string {
	switch t {
	case dtype.GeomPoint:
		return "Point"
	case dtype.GeomMultiPoint:
		return "MultiPoint"
	case dtype.GeomPolyline:
		return "MultiLineString"
	case dtype.GeomPolygon:
		return "MultiPolygon"
	default:
		return "Geometry"
	}
}

func (dialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (dialect) TranslateFunc(fn dtype.NativeFunc, args []string) (string, bool) {
	switch fn {
	case dtype.FuncGeomFromText:
		return "ST_GeomFromText(" + strings.Join(args, ",") + ")", true
	case dtype.FuncIntersects:
		return "ST_Intersects(" + strings.Join(args, ",") + ")", true
	case dtype.FuncAsGeom:
		return "ST_AsEWKB(" + strings.Join(args, ",") + ")", true
	case dtype.FuncUnixTimestamp:
		return "EXTRACT(EPOCH FROM " + strings.Join(args, ",") + ")", true
	case dtype.FuncCoarseIntersect:
		return strings.Join(args, " && "), true
	default:
		return "", false
	}
}

func (dialect) ParamPlaceholder(ordinal int) string { return "$" + itoa(ordinal) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// codec implements sqlbridge.Codec for Postgres: binary-typed parameters via
// pgx, geometry parameters as EWKB blobs with Force_Multi so PostGIS always
// has a concrete shape to decode into (spec.md §4.4).
type codec struct{}

func (codec) EncodeParam(a attrib.Attrib) (interface{}, error) {
	if a.IsNull() {
		return nil, nil
	}
	if a.IsGeom() {
		g, _ := a.Geom()
		return geom.Encode(g, a.Type(), true)
	}
	switch a.Type() {
	case dtype.Bool:
		return a.ToBool(), nil
	case dtype.Int16:
		return a.ToInt16(), nil
	case dtype.Int32:
		return a.ToInt32(), nil
	case dtype.Int64:
		return a.ToInt64(), nil
	case dtype.Float:
		return a.ToFloat(), nil
	case dtype.Double:
		return a.ToDouble(), nil
	case dtype.Guid:
		g, _ := a.ToGuid()
		return g.String(), nil
	case dtype.Date:
		return a.ToDate(), nil
	case dtype.Bin:
		return a.RawBin(), nil
	case dtype.JSONB, dtype.Text:
		return a.RawText(), nil
	default:
		return a.ToText(), nil
	}
}

func (codec) DecodeColumn(schemaType dtype.Type, raw interface{}, a alloc.Allocator) (attrib.Attrib, error) {
	if raw == nil {
		return attrib.Null(), nil
	}
	if schemaType.IsGeom() || schemaType == dtype.GeomAny {
		if b, ok := raw.([]byte); ok {
			v, t, err := geom.Decode(b)
			if err != nil {
				return attrib.Attrib{}, err
			}
			return attrib.FromGeom(t, v), nil
		}
	}
	return attrib.Attrib{}, driver.ErrUnsupported
}

func (codec) IsBadConnection(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "use of closed network connection")
}

