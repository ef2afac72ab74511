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
	"go.opentelemetry.io/otel"

	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/dtype"
	"github.com/imqs/dba/driver"
)

var tracer = otel.Tracer("github.com/imqs/dba")

// Executor is the contract shared by Conn and Tx (spec.md §4.6/§6): both can
// run a statement, run a query, or prepare a statement, the only difference
// being which physical sub-connection backs the call.
type Executor interface {
	Exec(ctx context.Context, sql string, params ...attrib.Attrib) error
	Query(ctx context.Context, sql string, params ...attrib.Attrib) (*Rows, error)
	Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (*Stmt, error)
}

// Conn is the logical connection described in spec.md §3/§4.5: a
// mutex-guarded pool of physical driver.Conn sub-connections, opened lazily
// and retried-once on BadConnection.
//
// Grounded on the teacher's Core (gdb.go): group name, debug flag and logger
// are carried the same way, but the pool-of-sub-connections and retry
// discipline are new (the teacher delegates that entirely to database/sql).
type Conn struct {
	pool   *driver.Pool
	node   *ConfigNode
	logger *glog.Logger
	group  string
}

// Open constructs a logical Conn for the given group, opening sub-connections
// through the adapter registered for node.Type (see Register). An empty
// group selects the default group (see SetDefaultGroup).
func Open(group string) (*Conn, error) {
	if group == "" {
		configs.RLock()
		group = configs.group
		configs.RUnlock()
	}
	node, err := getConfigNodeByGroup(group, true)
	if err != nil {
		return nil, err
	}
	open, ok := openers[node.Type]
	if !ok {
		return nil, newError("unsupported database type " + node.Type)
	}
	dsn := node.String()
	if node.LinkInfo != "" {
		dsn = node.LinkInfo
	}
	return &Conn{
		pool:   driver.NewPool(open, dsn),
		node:   node,
		logger: defaultLogger(),
		group:  group,
	}, nil
}

var openers = map[string]driver.Opener{}

// Register adds an adapter's Opener under a dialect type name ("postgres",
// "sqlite", "mssql", "hana"), mirroring the teacher's Register/driverMap
// (gdb.go) but keyed to this core's own driver.Opener shape instead of
// database/sql/driver.Driver.
func Register(typeName string, open driver.Opener) { openers[typeName] = open }

func (c *Conn) SetLogger(l *glog.Logger) { c.logger = l }
func (c *Conn) GetLogger() *glog.Logger  { return c.logger }
func (c *Conn) GetGroup() string         { return c.group }
func (c *Conn) GetConfig() *ConfigNode   { return c.node }

// Close releases every sub-connection in the pool.
func (c *Conn) Close() error { return c.pool.CloseAll() }

// PoolSize reports how many physical sub-connections are currently open,
// used by tests exercising spec.md scenario 3 (broken-connection retry).
func (c *Conn) PoolSize() int { return c.pool.Size() }

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	return err
}

// Exec runs sql (with ordinal $1, $2, ... placeholders) against one
// sub-connection, retrying once on BadConnection per spec.md §4.5/§5.
func (c *Conn) Exec(ctx context.Context, sql string, params ...attrib.Attrib) error {
	ctx, span := tracer.Start(ctx, "dba.Exec")
	defer span.End()
	span.SetAttributes(sqlSpanAttrs(sql, len(params), c.node.Type)...)

	start := time.Now()
	err := driver.TryRestartableOperation(ctx, c.pool, func(dc driver.Conn) error {
		rows, err := dc.Exec(ctx, sql, params)
		if err != nil {
			return err
		}
		return rows.Close()
	})
	c.writeLog(ctx, newStatementLog(sql, attribArgsToAny(params), c.group, start, err))
	if err != nil {
		span.RecordError(err)
	}
	return translateErr(err)
}

// Query runs sql and returns a row stream owning its sub-connection until
// EOF or Close (spec.md §4.6).
func (c *Conn) Query(ctx context.Context, sql string, params ...attrib.Attrib) (*Rows, error) {
	ctx, span := tracer.Start(ctx, "dba.Query")
	span.SetAttributes(sqlSpanAttrs(sql, len(params), c.node.Type)...)

	start := time.Now()
	result, leased, err := driver.AcquireAndRun(ctx, c.pool, func(dc driver.Conn) (interface{}, error) {
		return dc.Exec(ctx, sql, params)
	})
	c.writeLog(ctx, newStatementLog(sql, attribArgsToAny(params), c.group, start, err))
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, translateErr(err)
	}
	dr := result.(driver.Rows)
	rows := newRows(dr, leased.Release)
	rows.onClose = span.End
	return rows, nil
}

// Prepare compiles sql once for repeated Exec/Query calls.
func (c *Conn) Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (*Stmt, error) {
	ctx, span := tracer.Start(ctx, "dba.Prepare")
	defer span.End()
	span.SetAttributes(sqlSpanAttrs(sql, len(paramTypes), c.node.Type)...)

	leased, err := c.pool.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, translateErr(err)
	}
	ds, err := leased.Conn().Prepare(ctx, sql, paramTypes)
	if err != nil {
		leased.Release()
		span.RecordError(err)
		return nil, translateErr(err)
	}
	return &Stmt{driverStmt: ds, leased: leased, conn: c}, nil
}

// Begin starts a transaction, taking exclusive ownership of a
// sub-connection for the transaction's lifetime (spec.md §4.5).
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	ctx, span := tracer.Start(ctx, "dba.Begin")
	leased, err := c.pool.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, translateErr(err)
	}
	if err := leased.Conn().Begin(ctx); err != nil {
		leased.Release()
		span.RecordError(err)
		span.End()
		return nil, translateErr(err)
	}
	leased.SetBusyInTx(true)
	return &Tx{conn: c, leased: leased, beginSpan: span}, nil
}

func attribArgsToAny(params []attrib.Attrib) []interface{} {
	out := make([]interface{}, len(params))
	for i := range params {
		out[i] = params[i]
	}
	return out
}
