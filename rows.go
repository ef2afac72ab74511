// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"context"
	"errors"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
)

// Rows is a forward-only row cursor (spec.md §3 "Rows", §4.6). Rows
// returned by Conn.Query release their sub-connection back to the pool on
// EOF, error, or Close; Rows returned by a Stmt or Tx release nothing, since
// that Stmt or Tx keeps the sub-connection.
type Rows struct {
	driverRows driver.Rows
	leased     *leasedOrNil // nil when borrowed from an already-leased Stmt/Tx
	alloc      alloc.Allocator

	cur     []attrib.Attrib
	err     error
	closed  bool
	onClose func()
}

// leasedOrNil is the minimal surface Rows needs from a pool lease, kept as
// its own type so rows.go doesn't need to import the concrete leasedConn
// type from package driver (unexported there).
type leasedOrNil struct {
	release func()
}

func newRows(dr driver.Rows, release func()) *Rows {
	var lo *leasedOrNil
	if release != nil {
		lo = &leasedOrNil{release: release}
	}
	return &Rows{driverRows: dr, leased: lo, alloc: alloc.Default()}
}

// Columns returns the result set's column descriptors.
func (r *Rows) Columns() []driver.ColumnInfo { return r.driverRows.Columns() }

// Next advances to the next row, decoding all columns eagerly into an
// internal Attrib array using a fresh allocation per row (spec.md §4.6:
// "a RepeatCycleAllocator that is reset between rows" — here a fresh
// heap-backed allocator per row, since Go's GC makes per-row reset
// unnecessary for correctness; see DESIGN.md for the deviation).
//
// Next returns false at EOF or on error; call Err() to distinguish the two.
func (r *Rows) Next(ctx context.Context) bool {
	if r.closed || r.err != nil {
		return false
	}
	err := r.driverRows.NextRow(ctx)
	if err != nil {
		if errors.Is(err, ErrEOF) {
			r.Close()
			return false
		}
		r.err = err
		r.Close()
		return false
	}
	n := r.driverRows.ColumnCount()
	row := make([]attrib.Attrib, n)
	for i := 0; i < n; i++ {
		v, err := r.driverRows.Get(i, r.alloc)
		if err != nil {
			r.err = err
			r.Close()
			return false
		}
		row[i] = v
	}
	r.cur = row
	return true
}

// Err returns the sticky error that stopped iteration, if any.
func (r *Rows) Err() error { return r.err }

// Row returns column i (0-based) of the current row.
func (r *Rows) Row(i int) attrib.Attrib { return r.cur[i] }

// Scan copies the current row's columns into dst, in order and without
// conversion. Mismatched arity is an error.
func (r *Rows) Scan(dst ...*attrib.Attrib) error {
	if len(dst) != len(r.cur) {
		return ErrInvalidNumberOfParameters
	}
	for i, d := range dst {
		*d = r.cur[i]
	}
	return nil
}

// Close releases the underlying driver cursor and sub-connection. Safe to
// call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.driverRows.Close()
	if r.leased != nil {
		r.leased.release()
	}
	if r.onClose != nil {
		r.onClose()
	}
	return err
}
