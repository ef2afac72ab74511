// Package driver defines the contract every backend adapter (postgres,
// sqlite, mssql, hana) implements, and the connection pool that sits above
// it. This mirrors the teacher's gdb Driver/Link split: Core/Conn never talks
// to a database directly, it only ever calls through these three interfaces.
//
// Grounded on original_source/lib/dba's abstract DBConnection/DBRows/DBStmt
// base classes (spec.md §4.4, §9 "Deep inheritance").
package driver

import (
	"context"
	"errors"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/dtype"
)

// ErrEOF is returned by Rows.NextRow when the row stream is exhausted. It
// lives here (rather than only in the root package) so adapter packages
// that must not import the root package (which imports driver) can still
// signal and compare against it; the root package's dba.ErrEOF is this same
// value (see errors.go).
var ErrEOF = errors.New("driver: no more rows")

// ErrUnsupported is returned by an adapter when it cannot perform an
// operation directly (e.g. Exec without a prepare step). Conn and Tx in
// package dba return it to their caller unchanged; they do not retry with
// Prepare+Exec.
var ErrUnsupported = errors.New("driver: unsupported operation")

// ColumnInfo describes one column of a result set.
type ColumnInfo struct {
	Name string
	Type dtype.Type
}

// Conn is one physical connection to a backend. The pool in this package
// hands these out to callers with refcount==1 and reclaims them at 0.
//
// Grounded on spec.md §4.4 DriverConn.
type Conn interface {
	// Prepare compiles sql, which references paramTypes[i] at ordinal
	// placeholder i+1, into a reusable Stmt.
	Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (Stmt, error)

	// Exec runs sql with the given parameters and returns a row stream.
	// Adapters that cannot execute without a prepare step return
	// dba.ErrUnsupported; dba.Conn and dba.Tx pass that error to their
	// caller and do not fall back to Prepare+Exec.
	Exec(ctx context.Context, sql string, params []attrib.Attrib) (Rows, error)

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Dialect() dtype.Dialect

	// Close releases the native handle. Called when the pool evicts a
	// BadConnection sub-connection or when the logical Conn is closed.
	Close() error

	// Ping verifies the connection is still usable, used by the pool's
	// lazy-open path and by health checks; not part of spec.md's core
	// contract but every adapter needs some liveness probe.
	Ping(ctx context.Context) error
}

// Rows is a forward-only row cursor returned by Exec/Stmt.Exec.
//
// Grounded on spec.md §4.4 DriverRows.
type Rows interface {
	// NextRow advances to the next row. It returns dba.ErrEOF when
	// exhausted, at which point the caller must call Close.
	NextRow(ctx context.Context) error

	// Get decodes column col (0-based) of the current row into an Attrib,
	// using allocator for any variable-length backing storage.
	Get(col int, allocator alloc.Allocator) (attrib.Attrib, error)

	Columns() []ColumnInfo
	ColumnCount() int

	// Close releases any native cursor state. Idempotent.
	Close() error
}

// Stmt is a prepared statement bound to one physical Conn for its lifetime.
//
// Grounded on spec.md §4.4 DriverStmt and §4.5's slot/retirement rules.
type Stmt interface {
	// Exec may be called many times, re-binding fresh parameters each time.
	Exec(ctx context.Context, params []attrib.Attrib) (Rows, error)

	// ParamTypes returns the descriptor the statement was prepared with.
	ParamTypes() []dtype.Type

	SQL() string

	// Close deallocates the statement. If the owning transaction is
	// currently aborted, the implementation should retire the slot
	// instead of deallocating immediately (spec.md §4.5).
	Close(ctx context.Context) error
}

// Opener constructs a fresh Conn for a logical connection's pool. Each
// adapter package (driver/postgres, driver/sqlite, ...) supplies one.
type Opener func(ctx context.Context, dsn string) (Conn, error)
