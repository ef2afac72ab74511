// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// Tx is a transaction bound to one physical sub-connection for its whole
// lifetime (spec.md §3 "Transaction", §4.5 "Transactions"). It exposes the
// same Executor surface as Conn.
type Tx struct {
	conn      *Conn
	leased    *driver.LeasedConn
	beginSpan trace.Span

	done bool

	// aborted tracks whether the last statement on this transaction
	// failed, which defers prepared-statement deallocation to the next
	// Commit/Rollback (spec.md §4.5 "Prepared-statement slots").
	aborted bool
	retired []driver.Stmt
}

func (tx *Tx) Exec(ctx context.Context, sql string, params ...attrib.Attrib) error {
	ctx, span := tracer.Start(ctx, "dba.Exec")
	defer span.End()
	start := time.Now()
	rows, err := tx.leased.Conn().Exec(ctx, sql, params)
	if err == nil {
		err = rows.Close()
	}
	tx.aborted = err != nil
	tx.conn.writeLog(ctx, newStatementLog(sql, attribArgsToAny(params), tx.conn.group, start, err))
	if err != nil {
		span.RecordError(err)
	}
	return translateErr(err)
}

func (tx *Tx) Query(ctx context.Context, sql string, params ...attrib.Attrib) (*Rows, error) {
	ctx, span := tracer.Start(ctx, "dba.Query")
	start := time.Now()
	dr, err := tx.leased.Conn().Exec(ctx, sql, params)
	tx.aborted = err != nil
	tx.conn.writeLog(ctx, newStatementLog(sql, attribArgsToAny(params), tx.conn.group, start, err))
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, translateErr(err)
	}
	rows := newRows(dr, nil) // the Tx, not the Rows, owns the sub-connection
	rows.onClose = span.End
	return rows, nil
}

func (tx *Tx) Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (*Stmt, error) {
	ctx, span := tracer.Start(ctx, "dba.Prepare")
	defer span.End()
	ds, err := tx.leased.Conn().Prepare(ctx, sql, paramTypes)
	if err != nil {
		tx.aborted = true
		span.RecordError(err)
		return nil, translateErr(err)
	}
	return &Stmt{driverStmt: ds, conn: tx.conn, tx: tx}, nil
}

// retireOrClose deallocates stmt immediately, unless the transaction is
// currently aborted, in which case DEALLOCATE would itself fail: the
// statement is queued and drained on the next Commit/Rollback instead
// (spec.md §4.5, exercised by end-to-end scenario 4).
func (tx *Tx) retireOrClose(ctx context.Context, stmt driver.Stmt) error {
	if tx.aborted {
		tx.retired = append(tx.retired, stmt)
		return nil
	}
	return stmt.Close(ctx)
}

func (tx *Tx) drainRetired(ctx context.Context) error {
	var firstErr error
	for _, s := range tx.retired {
		if err := s.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	tx.retired = nil
	return firstErr
}

// Commit commits the transaction, drains any retired prepared statements,
// and releases the sub-connection back to the pool.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("dba: transaction already closed")
	}
	tx.done = true
	defer tx.beginSpan.End()
	ctx, span := tracer.Start(ctx, "dba.Commit")
	defer span.End()
	err := tx.leased.Conn().Commit(ctx)
	if err == nil {
		tx.aborted = false
		err = tx.drainRetired(ctx)
	}
	tx.leased.SetBusyInTx(false)
	tx.leased.Release()
	if err != nil {
		span.RecordError(err)
	}
	return translateErr(err)
}

// Rollback rolls the transaction back, drains retired prepared statements,
// and releases the sub-connection back to the pool.
func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.done {
		return errors.New("dba: transaction already closed")
	}
	tx.done = true
	defer tx.beginSpan.End()
	ctx, span := tracer.Start(ctx, "dba.Rollback")
	defer span.End()
	err := tx.leased.Conn().Rollback(ctx)
	if err == nil {
		tx.aborted = false
		err = tx.drainRetired(ctx)
	}
	tx.leased.SetBusyInTx(false)
	tx.leased.Release()
	if err != nil {
		span.RecordError(err)
	}
	return translateErr(err)
}
