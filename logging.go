// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"context"
	"time"

	"github.com/gogf/gf/os/glog"
)

// StatementLog is one executed statement, built the same way the teacher's
// Sql struct is: timestamps in milliseconds, the formatted SQL with
// parameters substituted, and the group/connection it ran against.
//
// Grounded on gdb.go's Sql struct.
type StatementLog struct {
	SQL      string
	Args     []interface{}
	Format   string
	Error    error
	StartsMS int64
	EndMS    int64
	Group    string
}

func newStatementLog(sql string, args []interface{}, group string, start time.Time, err error) *StatementLog {
	return &StatementLog{
		SQL:      sql,
		Args:     args,
		Format:   formatSQLWithArgs(sql, args),
		Error:    err,
		StartsMS: start.UnixNano() / int64(time.Millisecond),
		EndMS:    time.Now().UnixNano() / int64(time.Millisecond),
		Group:    group,
	}
}

// writeLog mirrors Core.writeSqlToLogger: a successful statement is logged
// only when the connection's debug flag is on, a failed one always. Both go
// through the shared *glog.Logger so statement
// logging composes with whatever sink/level filtering the application has
// already configured for glog.
func (c *Conn) writeLog(ctx context.Context, s *StatementLog) {
	if c.logger == nil {
		return
	}
	l := c.logger.Ctx(ctx)
	if s.Error != nil {
		// Errors are always surfaced, regardless of the debug flag — only
		// successful-statement tracing is gated, matching the teacher's
		// writeSqlToLogger/GetDebug split (gdb_core.go).
		l.Errorf("[%dms] %s | %v", s.EndMS-s.StartsMS, s.Format, s.Error)
		return
	}
	if c.node == nil || !c.node.Debug {
		return
	}
	l.Debugf("[%dms] %s", s.EndMS-s.StartsMS, s.Format)
}

func defaultLogger() *glog.Logger { return glog.New() }
