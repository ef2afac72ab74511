// Package dba is a typed-variant database abstraction layer over Postgres,
// SQLite, Microsoft SQL Server and SAP HANA, plus read-only geospatial
// flat-file sources (CSV, DBF, Shapefile).
//
// The package is organized the way the teacher this module was ported from
// (GoFrame's gdb) organizes its own Core/Conn/Tx/Stmt/Rows split, but the
// pool, retry and prepared-statement lifecycle are this module's own
// (driver.Pool, driver.TryRestartableOperation) rather than delegated to
// database/sql, since the properties this module must guarantee — at-most-
// one-retry-on-BadConnection, deferred prepared-statement deallocation
// inside an aborted transaction, per-sub-connection fault injection — are
// not expressible through database/sql's own pool.
//
//   - attrib.Attrib is the tagged-union value every row, parameter, and
//     schema default passes through (the Go counterpart of the original's
//     24-byte variant, §4.1).
//   - geom carries the geometry storage layout, WKB encode/decode, and the
//     polygon ring-reordering algorithm (§4.2).
//   - alloc is the pluggable arena-allocator family backing Attrib storage
//     (§4.3).
//   - driver defines the Conn/Rows/Stmt contract every backend adapter
//     implements, plus the sub-connection pool and retry discipline (§4.4,
//     §4.5); driver/postgres, driver/sqlite, driver/mssql and driver/hana
//     are the four concrete adapters.
//   - dtype is the closed value-type taxonomy and per-dialect capability
//     flags shared by every other package (§1, §4.4).
//   - Conn, Tx, Stmt and Rows in this package are the logical, user-facing
//     types built on top of driver (§3, §4.5, §4.6).
//   - crud.go restores the CrudOps helper layer from the original library.
//   - flatfile/csv, flatfile/dbf and flatfile/shapefile are read-only
//     geospatial flat-file sources that decode directly into attrib.Attrib,
//     so a row read from any of them can be pushed into any SQL backend
//     through CrudOps.Insert without a conversion layer.
package dba
