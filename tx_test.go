package dba

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// fakeTxStmt is a driver.Stmt that records whether Close (DEALLOCATE) was
// actually invoked, so a test can assert it was deferred past an aborted
// transaction and then drained exactly once on Rollback (spec.md §4.5,
// end-to-end scenario 4).
type fakeTxStmt struct {
	sql        string
	closeCalls int
	failExec   bool
}

func (s *fakeTxStmt) Exec(ctx context.Context, params []attrib.Attrib) (driver.Rows, error) {
	if s.failExec {
		return nil, ErrKeyViolation
	}
	return &emptyDriverRows{}, nil
}
func (s *fakeTxStmt) ParamTypes() []dtype.Type { return nil }
func (s *fakeTxStmt) SQL() string              { return s.sql }
func (s *fakeTxStmt) Close(ctx context.Context) error {
	s.closeCalls++
	return nil
}

type emptyDriverRows struct{}

func (*emptyDriverRows) NextRow(ctx context.Context) error               { return ErrEOF }
func (*emptyDriverRows) Get(int, alloc.Allocator) (attrib.Attrib, error) { return attrib.Attrib{}, nil }
func (*emptyDriverRows) Columns() []driver.ColumnInfo                    { return nil }
func (*emptyDriverRows) ColumnCount() int                                { return 0 }
func (*emptyDriverRows) Close() error                                    { return nil }

type fakeTxConn struct {
	stmt *fakeTxStmt
}

func (c *fakeTxConn) Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (driver.Stmt, error) {
	c.stmt = &fakeTxStmt{sql: sql}
	return c.stmt, nil
}
func (c *fakeTxConn) Exec(ctx context.Context, sql string, params []attrib.Attrib) (driver.Rows, error) {
	return &emptyDriverRows{}, nil
}
func (c *fakeTxConn) Begin(ctx context.Context) error    { return nil }
func (c *fakeTxConn) Commit(ctx context.Context) error   { return nil }
func (c *fakeTxConn) Rollback(ctx context.Context) error { return nil }
func (c *fakeTxConn) Dialect() dtype.Dialect             { return nil }
func (c *fakeTxConn) Close() error                       { return nil }
func (c *fakeTxConn) Ping(ctx context.Context) error     { return nil }

// newTestConn builds a Conn backed by a single fakeTxConn sub-connection,
// bypassing the ConfigNode/Register machinery that only matters for real
// drivers.
func newTestConn(fc *fakeTxConn) *Conn {
	open := func(ctx context.Context, dsn string) (driver.Conn, error) { return fc, nil }
	return &Conn{
		pool:   driver.NewPool(open, "test"),
		node:   &ConfigNode{Type: "fake"},
		logger: defaultLogger(),
		group:  "test",
	}
}

// TestAbortedTransactionDefersStatementRetirement is spec.md end-to-end
// scenario 4: begin a transaction, run a statement that fails (aborting the
// transaction), drop the prepared statement (DEALLOCATE must be deferred,
// not issued), then Rollback — the deferred DEALLOCATE must fire exactly
// once as part of draining the retirement queue.
func TestAbortedTransactionDefersStatementRetirement(t *testing.T) {
	fc := &fakeTxConn{}
	conn := newTestConn(fc)

	tx, err := conn.Begin(context.Background())
	require.NoError(t, err)

	stmt, err := tx.Prepare(context.Background(), "INSERT INTO t VALUES ($1)", nil)
	require.NoError(t, err)

	fc.stmt.failExec = true
	err = stmt.Exec(context.Background())
	require.Error(t, err, "the statement deliberately fails, aborting the transaction")

	err = stmt.Close(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, fc.stmt.closeCalls, "DEALLOCATE must be deferred while the transaction is aborted")

	err = tx.Rollback(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fc.stmt.closeCalls, "the retired statement must be drained exactly once by Rollback")
}

// TestCleanTransactionClosesStatementImmediately is the control case: when
// the transaction is not aborted, Close deallocates right away instead of
// queuing the statement for later.
func TestCleanTransactionClosesStatementImmediately(t *testing.T) {
	fc := &fakeTxConn{}
	conn := newTestConn(fc)

	tx, err := conn.Begin(context.Background())
	require.NoError(t, err)

	stmt, err := tx.Prepare(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)

	require.NoError(t, stmt.Exec(context.Background()))
	require.NoError(t, stmt.Close(context.Background()))
	require.Equal(t, 1, fc.stmt.closeCalls, "a clean transaction deallocates immediately")

	require.NoError(t, tx.Commit(context.Background()))
}
