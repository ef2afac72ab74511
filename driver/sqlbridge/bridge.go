// Package sqlbridge is the shared plumbing behind driver/postgres,
// driver/sqlite, driver/mssql and driver/hana: each of those backends is
// reached through a database/sql-registered driver (pgx/stdlib,
// mattn/go-sqlite3, alexbrainman/odbc, SAP/go-hdb), so the mechanics of
// running a query and iterating *sql.Rows are identical across all four —
// only parameter encoding and column decoding differ per dialect.
//
// Grounded on the teacher's Core wrapping database/sql.DB (gdb_core.go's
// DoQuery/DoExec around a Link interface); this package plays the same role
// one level below this module's own driver.Conn/driver.Rows/driver.Stmt
// contract (spec.md §4.4, §9 "Deep inheritance" — one adapter type per
// backend, no further inheritance).
package sqlbridge

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// ErrBadConnection is re-exported so bridge users don't need to import
// package driver just to compare errors.
var ErrBadConnection = driver.ErrBadConnection

// Codec is the per-dialect parameter-encoding and column-decoding policy
// (spec.md §4.4 "Parameter encoding policy").
type Codec interface {
	// EncodeParam converts a into the value the underlying database/sql
	// driver expects for a bind parameter (e.g. []byte EWKB for geometry,
	// a driver-specific wrapper type for binary OIDs, etc).
	EncodeParam(a attrib.Attrib) (interface{}, error)

	// DecodeColumn converts one scanned column (already retrieved via
	// sql.Rows.Scan into an interface{} holding the driver's native Go
	// type) into an Attrib of the given schema type.
	DecodeColumn(schemaType dtype.Type, raw interface{}, a alloc.Allocator) (attrib.Attrib, error)

	// IsBadConnection reports whether err indicates the physical
	// connection itself is unusable (vs. e.g. a constraint violation).
	IsBadConnection(err error) bool
}

// Conn adapts a *sql.Conn (a single reserved physical connection from a
// database/sql connection pool) to this module's driver.Conn contract.
type Conn struct {
	db      *sql.DB
	sqlConn *sql.Conn
	dialect dtype.Dialect
	codec   Codec
	tx      *sql.Tx
}

// Open dials driverName (as registered with database/sql) using dsn and
// reserves one physical *sql.Conn from the resulting pool, matching the
// "per physical sub-connection" granularity this module's own pool expects
// (driver.Pool already provides the higher-level pooling; database/sql's
// pool underneath is kept at size 1 per sqlbridge.Conn via SetMaxOpenConns).
func Open(ctx context.Context, driverName, dsn string, dialect dtype.Dialect, codec Codec) (*Conn, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	sc, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Conn{db: db, sqlConn: sc, dialect: dialect, codec: codec}, nil
}

func (c *Conn) Dialect() dtype.Dialect { return c.dialect }

func (c *Conn) Ping(ctx context.Context) error { return c.sqlConn.PingContext(ctx) }

func (c *Conn) Close() error {
	err := c.sqlConn.Close()
	if dbErr := c.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

func (c *Conn) encodeParams(params []attrib.Attrib) ([]interface{}, error) {
	out := make([]interface{}, len(params))
	for i, p := range params {
		v, err := c.codec.EncodeParam(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Conn) execer() interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
} {
	if c.tx != nil {
		return c.tx
	}
	return c.sqlConn
}

func (c *Conn) Exec(ctx context.Context, query string, params []attrib.Attrib) (driver.Rows, error) {
	args, err := c.encodeParams(params)
	if err != nil {
		return nil, err
	}
	rows, err := c.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.wrapErr(err)
	}
	return newRows(rows, c.codec)
}

func (c *Conn) Prepare(ctx context.Context, query string, paramTypes []dtype.Type) (driver.Stmt, error) {
	var (
		st  *sql.Stmt
		err error
	)
	if c.tx != nil {
		st, err = c.tx.PrepareContext(ctx, query)
	} else {
		st, err = c.sqlConn.PrepareContext(ctx, query)
	}
	if err != nil {
		return nil, c.wrapErr(err)
	}
	return &Stmt{conn: c, stmt: st, sql: query, paramTypes: paramTypes}, nil
}

func (c *Conn) Begin(ctx context.Context) error {
	tx, err := c.sqlConn.BeginTx(ctx, nil)
	if err != nil {
		return c.wrapErr(err)
	}
	c.tx = tx
	return nil
}

func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return errors.New("sqlbridge: commit without begin")
	}
	err := c.tx.Commit()
	c.tx = nil
	return c.wrapErr(err)
}

func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return errors.New("sqlbridge: rollback without begin")
	}
	err := c.tx.Rollback()
	c.tx = nil
	return c.wrapErr(err)
}

func (c *Conn) wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if c.codec.IsBadConnection(err) {
		return driver.ErrBadConnection
	}
	return err
}

// Stmt adapts a *sql.Stmt to driver.Stmt.
type Stmt struct {
	conn       *Conn
	stmt       *sql.Stmt
	sql        string
	paramTypes []dtype.Type
}

func (s *Stmt) SQL() string               { return s.sql }
func (s *Stmt) ParamTypes() []dtype.Type  { return s.paramTypes }

func (s *Stmt) Exec(ctx context.Context, params []attrib.Attrib) (driver.Rows, error) {
	args, err := s.conn.encodeParams(params)
	if err != nil {
		return nil, err
	}
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, s.conn.wrapErr(err)
	}
	return newRows(rows, s.conn.codec)
}

func (s *Stmt) Close(ctx context.Context) error {
	return s.stmt.Close()
}

// Rows adapts *sql.Rows to driver.Rows.
type Rows struct {
	rows    *sql.Rows
	cols    []driver.ColumnInfo
	scratch []interface{}
	codec   Codec
}

func newRows(rows *sql.Rows, codec Codec) (*Rows, error) {
	names, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	cols := make([]driver.ColumnInfo, len(names))
	scratch := make([]interface{}, len(names))
	for i, n := range names {
		cols[i] = driver.ColumnInfo{Name: n, Type: sqlTypeToDType(types[i])}
		var holder interface{}
		scratch[i] = &holder
	}
	return &Rows{rows: rows, cols: cols, scratch: scratch, codec: codec}, nil
}

func sqlTypeToDType(ct *sql.ColumnType) dtype.Type {
	switch ct.DatabaseTypeName() {
	case "INT2", "SMALLINT":
		return dtype.Int16
	case "INT4", "INT", "INTEGER":
		return dtype.Int32
	case "INT8", "BIGINT":
		return dtype.Int64
	case "FLOAT4", "REAL":
		return dtype.Float
	case "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return dtype.Double
	case "BOOL", "BOOLEAN":
		return dtype.Bool
	case "UUID":
		return dtype.Guid
	case "DATE", "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return dtype.Date
	case "BYTEA", "BLOB", "VARBINARY", "BINARY":
		return dtype.Bin
	case "JSON", "JSONB":
		return dtype.JSONB
	case "GEOMETRY", "GEOGRAPHY":
		return dtype.GeomAny
	default:
		return dtype.Text
	}
}

func (r *Rows) Columns() []driver.ColumnInfo { return r.cols }
func (r *Rows) ColumnCount() int             { return len(r.cols) }

func (r *Rows) NextRow(ctx context.Context) error {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return err
		}
		return driver.ErrEOF
	}
	return r.rows.Scan(r.scratch...)
}

func (r *Rows) Get(col int, allocator alloc.Allocator) (attrib.Attrib, error) {
	holder := r.scratch[col].(*interface{})
	raw := *holder
	t := r.cols[col].Type
	if raw != nil && (t.IsGeom() || t == dtype.GeomAny) {
		a, err := r.codec.DecodeColumn(t, raw, allocator)
		if err == nil {
			return a, nil
		}
		if err != driver.ErrUnsupported {
			return attrib.Attrib{}, err
		}
	}
	return decodeGeneric(t, raw, allocator)
}

func (r *Rows) Close() error { return r.rows.Close() }

// decodeGeneric handles the column types every dialect shares (numbers,
// bool, text, bin, date); geometry columns are decoded by the dialect's own
// Codec.DecodeColumn before falling back here, since only it knows whether
// the payload is EWKB, WKB, or a dialect-native geometry wire type.
func decodeGeneric(t dtype.Type, raw interface{}, a alloc.Allocator) (attrib.Attrib, error) {
	if raw == nil {
		return attrib.Null(), nil
	}
	switch t {
	case dtype.Bool:
		return attrib.FromBool(raw.(bool)), nil
	case dtype.Int16:
		return attrib.FromInt16(toInt16(raw)), nil
	case dtype.Int32:
		return attrib.FromInt32(toInt32(raw)), nil
	case dtype.Int64:
		return attrib.FromInt64(toInt64(raw)), nil
	case dtype.Float:
		return attrib.FromFloat(float32(toFloat64(raw))), nil
	case dtype.Double:
		return attrib.FromDouble(toFloat64(raw)), nil
	case dtype.Bin:
		if b, ok := raw.([]byte); ok {
			return attrib.FromBin(b, a), nil
		}
	case dtype.Date:
		if tm, ok := raw.(time.Time); ok {
			return attrib.FromDate(tm), nil
		}
	case dtype.JSONB:
		if s, ok := raw.(string); ok {
			return attrib.FromJSONB(s, a), nil
		}
		if b, ok := raw.([]byte); ok {
			return attrib.FromJSONB(string(b), a), nil
		}
	}
	switch v := raw.(type) {
	case string:
		return attrib.FromText(v, a), nil
	case []byte:
		return attrib.FromText(string(v), a), nil
	}
	return attrib.FromText(toText(raw), a), nil
}

func toInt16(v interface{}) int16 {
	switch n := v.(type) {
	case int64:
		return int16(n)
	case int32:
		return int16(n)
	case int:
		return int16(n)
	}
	return 0
}

func toInt32(v interface{}) int32 {
	switch n := v.(type) {
	case int64:
		return int32(n)
	case int32:
		return n
	case int:
		return int32(n)
	}
	return 0
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	}
	return 0
}

func toText(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
