// Package mssql adapts Microsoft SQL Server, reached through
// alexbrainman/odbc's database/sql driver, to this module's driver.Conn
// contract. Strings are bound as UTF-16/Latin1 text by the ODBC layer
// itself; geometry is carried as a plain WKB blob (spec.md §4.4 "MSSQL /
// HANA"). SQL text reaches the ODBC driver unchanged: ordinal `$N`
// placeholders are not rewritten.
//
// Grounded on spec.md §4.4 and other_examples' ODBC/MSSQL files
// (6145cfbc ariga-atlas sql/mssql, c6b64fe4 sqldef adapter/mssql,
// 56b7545b/d6160878 alexbrainman/odbc api files) for the placeholder and
// dialect-capability shape.
package mssql

import (
	"context"
	"strconv"
	"strings"

	_ "github.com/alexbrainman/odbc"

	"github.com/imqs/dba"
	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	dbadriver "github.com/imqs/dba/driver"
	"github.com/imqs/dba/driver/sqlbridge"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/geom"
)

const DialectName = "mssql"

// driverName is the name alexbrainman/odbc registers itself under with
// database/sql.
const driverName = "odbc"

// Open implements driver.Opener. dsn is an ODBC connection string, e.g.
// "driver={ODBC Driver 17 for SQL Server};server=...;database=...;uid=...;pwd=...".
func Open(ctx context.Context, dsn string) (dbadriver.Conn, error) {
	return sqlbridge.Open(ctx, driverName, dsn, dialect{}, codec{})
}

func init() { dba.Register(DialectName, Open) }

type dialect struct{}

func (dialect) Name() string { return DialectName }

func (dialect) Flags() dtype.DialectFlags {
	return dtype.MultiRowInsert | dtype.GeomZ | dtype.GeomM | dtype.SpatialIndex |
		dtype.Int16Flag | dtype.FloatFlag | dtype.NamedSchemas
}

func (dialect) FormatType(t dtype.Type, widthOrSRID int, flags dtype.Flags) string {
	switch t {
	case dtype.Bool:
		return "bit"
	case dtype.Int16:
		return "smallint"
	case dtype.Int32:
		return "int"
	case dtype.Int64:
		if flags.Has(dtype.AutoIncrement) {
			return "bigint identity(1,1)"
		}
		return "bigint"
	case dtype.Float:
		return "real"
	case dtype.Double:
		return "float"
	case dtype.Text:
		if widthOrSRID > 0 {
			return "nvarchar(" + strconv.Itoa(widthOrSRID) + ")"
		}
		return "nvarchar(max)"
	case dtype.Guid:
		return "uniqueidentifier"
	case dtype.Date:
		return "datetime2"
	case dtype.Time:
		return "time"
	case dtype.Bin:
		return "varbinary(max)"
	case dtype.JSONB:
		return "nvarchar(max)" // MSSQL JSON is stored as text (no JSONBFlag advertised)
	case dtype.GeomPoint, dtype.GeomMultiPoint, dtype.GeomPolyline, dtype.GeomPolygon:
		return "geometry"
	default:
		return "nvarchar(max)"
	}
}

func (dialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (dialect) TranslateFunc(fn dtype.NativeFunc, args []string) (string, bool) {
	switch fn {
	case dtype.FuncGeomFromText:
		return "geometry::STGeomFromText(" + strings.Join(args, ",") + ")", true
	case dtype.FuncIntersects:
		return args[0] + ".STIntersects(" + strings.Join(args[1:], ",") + ")", true
	case dtype.FuncAsGeom:
		return args[0] + ".STAsBinary()", true
	case dtype.FuncUnixTimestamp:
		return "DATEDIFF(SECOND, '1970-01-01', " + strings.Join(args, ",") + ")", true
	case dtype.FuncCoarseIntersect:
		return args[0] + ".STEnvelopeIntersects(" + strings.Join(args[1:], ",") + ")", true
	default:
		return "", false
	}
}

// ParamPlaceholder renders ODBC's positional "?" marker. No caller in this
// module uses it to rewrite SQL; statements keep the placeholders they were
// written with.
func (dialect) ParamPlaceholder(ordinal int) string { return "?" }

type codec struct{}

func (codec) EncodeParam(a attrib.Attrib) (interface{}, error) {
	if a.IsNull() {
		return nil, nil
	}
	if a.IsGeom() {
		g, _ := a.Geom()
		return geom.Encode(g, a.Type(), false)
	}
	switch a.Type() {
	case dtype.Bool:
		return a.ToBool(), nil
	case dtype.Int16:
		return int64(a.ToInt16()), nil
	case dtype.Int32:
		return int64(a.ToInt32()), nil
	case dtype.Int64:
		return a.ToInt64(), nil
	case dtype.Float:
		return float64(a.ToFloat()), nil
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
	return attrib.Attrib{}, dbadriver.ErrUnsupported
}

func (codec) IsBadConnection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection") && strings.Contains(msg, "closed") ||
		strings.Contains(msg, "08s01") // ODBC communication-link-failure SQLSTATE
}
