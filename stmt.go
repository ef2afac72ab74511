// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"context"
	"time"

	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// Stmt is a prepared statement bound to one physical sub-connection for its
// lifetime (spec.md §3 "Prepared statement", §4.5 "Prepared-statement
// slots"). It may be created from a Conn (via Conn.Prepare) or a Tx (via
// Tx.Prepare); either way the sub-connection stays checked out until Close.
type Stmt struct {
	driverStmt driver.Stmt
	leased     *driver.LeasedConn // set when owned by a Conn; nil when owned by a Tx
	tx         *Tx                // set when owned by a Tx; nil when owned by a Conn
	conn       *Conn              // used for logging/tracing either way
	closed     bool
}

// Exec re-binds params and runs the statement, discarding any result rows.
func (s *Stmt) Exec(ctx context.Context, params ...attrib.Attrib) error {
	ctx, span := tracer.Start(ctx, "dba.Exec")
	defer span.End()
	start := time.Now()
	rows, err := s.driverStmt.Exec(ctx, params)
	if err == nil {
		err = rows.Close()
	}
	if s.tx != nil {
		s.tx.aborted = err != nil
	}
	if s.conn != nil {
		s.conn.writeLog(ctx, newStatementLog(s.driverStmt.SQL(), attribArgsToAny(params), s.conn.group, start, err))
	}
	if err != nil {
		span.RecordError(err)
	}
	return translateErr(err)
}

// Query re-binds params and returns a row stream. The statement's
// sub-connection stays checked out for the Stmt's whole lifetime (it is not
// released by row iteration, since the same Stmt may be executed again).
func (s *Stmt) Query(ctx context.Context, params ...attrib.Attrib) (*Rows, error) {
	ctx, span := tracer.Start(ctx, "dba.Query")
	start := time.Now()
	dr, err := s.driverStmt.Exec(ctx, params)
	if s.conn != nil {
		s.conn.writeLog(ctx, newStatementLog(s.driverStmt.SQL(), attribArgsToAny(params), s.conn.group, start, err))
	}
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, translateErr(err)
	}
	rows := newRows(dr, nil) // no pool release: this Stmt still owns the sub-connection
	rows.onClose = span.End
	return rows, nil
}

func (s *Stmt) ParamTypes() []dtype.Type { return s.driverStmt.ParamTypes() }

// Close deallocates the statement. A Conn-owned Stmt releases its
// sub-connection back to the pool immediately. A Tx-owned Stmt defers
// deallocation to the transaction's retirement queue if the transaction is
// currently aborted (spec.md §4.5) — the Tx itself owns the sub-connection
// in that case, so there is nothing to release here.
//
// Safe to call more than once.
func (s *Stmt) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		return s.tx.retireOrClose(ctx, s.driverStmt)
	}
	err := s.driverStmt.Close(ctx)
	if s.leased != nil {
		s.leased.Release()
	}
	return err
}
