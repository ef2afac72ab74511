// Package sqlite adapts SQLite, reached through mattn/go-sqlite3, to this
// module's driver.Conn contract. Geometry is always stored as an EWKB blob
// with Force_Multi (spec.md §4.4 "SQLite"); three custom scalar functions
// (dba_ST_AsGeom, dba_AsGUID, dba_AsInt32) are registered on every new
// connection. Each returns its argument unchanged and sets no SQLite
// subtype; DecodeColumn works from the column's declared type alone.
//
// Grounded on spec.md §4.4's SQLite parameter-encoding policy and
// other_examples' 9e519d7a (Drakokorian sql_lite) / 96d4a3b2 (mxk
// go-sqlite3) driver idiom for registering a custom driver with connect
// hooks.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/imqs/dba"
	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	dbadriver "github.com/imqs/dba/driver"
	"github.com/imqs/dba/driver/sqlbridge"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/geom"
)

const DialectName = "sqlite"

// driverName is registered once with database/sql under a name distinct
// from mattn/go-sqlite3's own "sqlite3" registration, since that name may
// already be taken by an application that also imports the plain driver.
const driverName = "dba-sqlite3"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("dba_st_asgeom", sqlAsGeom, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("dba_asguid", sqlAsGuid, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("dba_asint32", sqlAsInt32, true); err != nil {
					return err
				}
				return nil
			},
		})
	})
}

// sqlAsGeom is the dba_ST_AsGeom UDF: it is a pass-through that exists so
// that a query can tag a blob column as "this is geometry" the way
// ST_AsEWKB does on Postgres, since SQLite itself has no native geometry
// type or subtype tagging at the SQL level.
func sqlAsGeom(b []byte) []byte { return b }

func sqlAsGuid(b []byte) []byte { return b }

func sqlAsInt32(n int64) int64 { return n }

// Open implements driver.Opener, registered under the "sqlite" dialect name
// (see conn.go's Register / openers map). dsn is a go-sqlite3 DSN, typically
// a filesystem path or ":memory:".
func Open(ctx context.Context, dsn string) (dbadriver.Conn, error) {
	registerDriver()
	return sqlbridge.Open(ctx, driverName, dsn, dialect{}, codec{})
}

func init() { dba.Register(DialectName, Open) }

type dialect struct{}

func (dialect) Name() string { return DialectName }

func (dialect) Flags() dtype.DialectFlags {
	// SQLite has no native UUID, smallint, float, jsonb, or named-schema
	// concept distinct from TEXT/REAL storage classes, and no ALTER
	// TABLE-inside-transaction restriction (spec.md §4.4/§6).
	return dtype.AlterSchemaInsideTransaction
}

func (dialect) FormatType(t dtype.Type, widthOrSRID int, flags dtype.Flags) string {
	switch t {
	case dtype.Bool, dtype.Int16, dtype.Int32, dtype.Int64:
		if flags.Has(dtype.AutoIncrement) {
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		return "INTEGER"
	case dtype.Float, dtype.Double:
		return "REAL"
	case dtype.Text, dtype.JSONB:
		return "TEXT"
	case dtype.Guid:
		return "BLOB" // 16-byte binary, emulated (no native UUID: dtype.UUID flag absent)
	case dtype.Date, dtype.Time:
		return "TEXT" // ISO-8601, matching spec.md §4.1's ToDate/ToText parsing rule
	case dtype.Bin:
		return "BLOB"
	case dtype.GeomPoint, dtype.GeomMultiPoint, dtype.GeomPolyline, dtype.GeomPolygon:
		return "BLOB" // EWKB blob, tagged via dba_ST_AsGeom at query time
	default:
		return "TEXT"
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
	case dtype.FuncAsGeom:
		return "dba_st_asgeom(" + strings.Join(args, ",") + ")", true
	case dtype.FuncUnixTimestamp:
		return "strftime('%s'," + strings.Join(args, ",") + ")", true
	default:
		// dba_ST_GeomFromText, dba_ST_Intersects, dba_ST_CoarseIntersect
		// have no SQLite-native equivalent without the SpatiaLite
		// extension, which this adapter does not load.
		return "", false
	}
}

func (dialect) ParamPlaceholder(ordinal int) string { return "?" }

// codec implements sqlbridge.Codec for SQLite: typed binds for scalars,
// EWKB blob (Force_Multi) for geometry, matching spec.md §4.4.
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
		if a.ToBool() {
			return int64(1), nil
		}
		return int64(0), nil
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
		return g.Bytes(), nil
	case dtype.Date:
		return a.ToDate().UTC().Format("2006-01-02T15:04:05.999999999Z"), nil
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
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		switch sqliteErr.Code {
		case sqlite3.ErrIoErr, sqlite3.ErrCorrupt, sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed database") || strings.Contains(msg, "disk I/O error")
}
