package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/dtype"
)

// fakeRows is an empty row stream, enough for Exec's Close-immediately path.
type fakeRows struct{ closed bool }

func (f *fakeRows) NextRow(ctx context.Context) error               { return ErrEOF }
func (f *fakeRows) Get(int, alloc.Allocator) (attrib.Attrib, error) { return attrib.Attrib{}, nil }
func (f *fakeRows) Columns() []ColumnInfo                           { return nil }
func (f *fakeRows) ColumnCount() int                                { return 0 }
func (f *fakeRows) Close() error                                    { f.closed = true; return nil }

// fakeConn is a minimal Conn used to exercise the pool's checkout and retry
// logic without a live database, mirroring the teacher corpus's sqlmock-based
// fakes for the same purpose (see crud_test.go's fakeExecutor/fakeRows).
type fakeConn struct {
	id     int
	closed bool
}

func (c *fakeConn) Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (Stmt, error) {
	return nil, ErrUnsupported
}
func (c *fakeConn) Exec(ctx context.Context, sql string, params []attrib.Attrib) (Rows, error) {
	return &fakeRows{}, nil
}
func (c *fakeConn) Begin(ctx context.Context) error    { return nil }
func (c *fakeConn) Commit(ctx context.Context) error   { return nil }
func (c *fakeConn) Rollback(ctx context.Context) error { return nil }
func (c *fakeConn) Dialect() dtype.Dialect             { return nil }
func (c *fakeConn) Close() error                       { c.closed = true; return nil }
func (c *fakeConn) Ping(ctx context.Context) error     { return nil }

func TestPoolAcquireOpensOneConnThenReusesIt(t *testing.T) {
	opened := 0
	open := func(ctx context.Context, dsn string) (Conn, error) {
		opened++
		return &fakeConn{id: opened}, nil
	}
	p := NewPool(open, "dsn")

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, p.Size())
	l1.Release()

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, p.Size(), "a released sub-connection must be reused, not reopened")
	require.Same(t, l1.Conn(), l2.Conn())
	l2.Release()
}

func TestPoolAcquireOpensSecondConnWhenFirstIsBusy(t *testing.T) {
	opened := 0
	open := func(ctx context.Context, dsn string) (Conn, error) {
		opened++
		return &fakeConn{id: opened}, nil
	}
	p := NewPool(open, "dsn")

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, p.Size())
	require.NotSame(t, l1.Conn(), l2.Conn())
}

// TestTryRestartableOperationRetriesOnceOnBadConnection is spec.md end-to-end
// scenario 3: fault-inject sub-connection #1 to fail its next Exec with
// ErrBadConnection; the operation must still succeed overall, observably
// opening sub-connection #2, and #1 must have been evicted (closed, removed
// from the pool).
func TestTryRestartableOperationRetriesOnceOnBadConnection(t *testing.T) {
	var opened []*fakeConn
	open := func(ctx context.Context, dsn string) (Conn, error) {
		c := &fakeConn{id: len(opened) + 1}
		opened = append(opened, c)
		return c, nil
	}
	p := NewPool(open, "dsn")

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l1.FaultInject(1, ErrBadConnection)
	l1.Release()

	err = TryRestartableOperation(context.Background(), p, func(c Conn) error {
		_, err := c.Exec(context.Background(), "SELECT 1", nil)
		return err
	})
	require.NoError(t, err)

	require.Len(t, opened, 2, "a second sub-connection must have been opened")
	require.True(t, opened[0].closed, "the faulted sub-connection must be evicted and closed")
	require.Equal(t, 1, p.Size(), "only the surviving sub-connection remains in the pool")
}

// TestTryRestartableOperationDoesNotRetryTwice: a second consecutive
// BadConnection is surfaced, not silently retried again (spec.md §4.5/§5: at
// most one transparent retry per logical operation).
func TestTryRestartableOperationDoesNotRetryTwice(t *testing.T) {
	calls := 0
	open := func(ctx context.Context, dsn string) (Conn, error) {
		return &fakeConn{id: calls + 1}, nil
	}
	p := NewPool(open, "dsn")

	err := TryRestartableOperation(context.Background(), p, func(c Conn) error {
		calls++
		return ErrBadConnection
	})
	require.ErrorIs(t, err, ErrBadConnection)
	require.Equal(t, 2, calls, "exactly two attempts: the original plus one retry")
	require.Equal(t, 0, p.Size(), "both faulted sub-connections were evicted")
}

func TestTryRestartableOperationDoesNotRetryOnOtherErrors(t *testing.T) {
	calls := 0
	other := ErrUnsupported
	open := func(ctx context.Context, dsn string) (Conn, error) {
		return &fakeConn{}, nil
	}
	p := NewPool(open, "dsn")

	err := TryRestartableOperation(context.Background(), p, func(c Conn) error {
		calls++
		return other
	})
	require.ErrorIs(t, err, other)
	require.Equal(t, 1, calls, "non-BadConnection errors are never retried")
	require.Equal(t, 1, p.Size(), "the sub-connection is released, not evicted, on a non-BadConnection error")
}
