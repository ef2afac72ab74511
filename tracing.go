// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"go.opentelemetry.io/otel/label"
)

const maxTracedSQLLen = 2048

// sqlSpanAttrs builds the attribute set recorded on the dba.Exec, dba.Query
// and dba.Prepare spans that Conn opens: the SQL text (truncated), parameter
// count and dialect name. Spans opened by Tx, Stmt, Begin, Commit and
// Rollback carry no such attributes.
//
// The teacher wraps every round trip in an otel span (addSqlToTracing,
// referenced from gdb_core.go but not present in this distilled copy); this
// reconstructs that wrapping against the go.opentelemetry.io/otel v0.17.0
// API actually pinned in go.mod, which predates the "attribute" package
// rename and exposes span attributes as label.KeyValue.
func sqlSpanAttrs(sql string, nParams int, dialect string) []label.KeyValue {
	if len(sql) > maxTracedSQLLen {
		sql = sql[:maxTracedSQLLen]
	}
	return []label.KeyValue{
		label.String("db.statement", sql),
		label.Int("db.param_count", nParams),
		label.String("db.dialect", dialect),
	}
}
