package dba

import (
	"context"
	"testing"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

// fakeRows is a canned driver.Rows used to unit-test CrudOps without a real
// backend, mirroring the in-memory fakes the teacher corpus's own
// sqlmock-based tests use for the same purpose.
type fakeRows struct {
	cols []driver.ColumnInfo
	rows [][]attrib.Attrib
	pos  int
}

func (f *fakeRows) NextRow(ctx context.Context) error {
	if f.pos >= len(f.rows) {
		return driver.ErrEOF
	}
	f.pos++
	return nil
}

func (f *fakeRows) Get(col int, a alloc.Allocator) (attrib.Attrib, error) {
	return f.rows[f.pos-1][col], nil
}

func (f *fakeRows) Columns() []driver.ColumnInfo { return f.cols }
func (f *fakeRows) ColumnCount() int             { return len(f.cols) }
func (f *fakeRows) Close() error                 { return nil }

// fakeExecutor implements Executor by replaying a scripted response for
// every Exec/Query call, and recording every statement issued against it.
type fakeExecutor struct {
	execLog   []string
	queryLog  []string
	queryResp *fakeRows // returned by the next Query call
}

func (f *fakeExecutor) Exec(ctx context.Context, sql string, params ...attrib.Attrib) error {
	f.execLog = append(f.execLog, sql)
	return nil
}

func (f *fakeExecutor) Query(ctx context.Context, sql string, params ...attrib.Attrib) (*Rows, error) {
	f.queryLog = append(f.queryLog, sql)
	resp := f.queryResp
	if resp == nil {
		resp = &fakeRows{}
	}
	resp.pos = 0
	return newRows(resp, nil), nil
}

func (f *fakeExecutor) Prepare(ctx context.Context, sql string, paramTypes []dtype.Type) (*Stmt, error) {
	return nil, driver.ErrUnsupported
}

func TestCrudOpsInsertBuildsPositionalPlaceholders(t *testing.T) {
	exec := &fakeExecutor{}
	ops := CrudOps{Exec: exec}

	err := ops.Insert(context.Background(), "widgets", []string{"id", "name"},
		[]attrib.Attrib{attrib.FromInt64(1), attrib.FromText("bolt", nil)})
	require.NoError(t, err)
	require.Equal(t, []string{"INSERT INTO widgets (id, name) VALUES ($1, $2)"}, exec.execLog)
}

func TestCrudOpsInsertRejectsMismatchedArity(t *testing.T) {
	ops := CrudOps{Exec: &fakeExecutor{}}
	err := ops.Insert(context.Background(), "widgets", []string{"id", "name"}, []attrib.Attrib{attrib.FromInt64(1)})
	require.ErrorIs(t, err, ErrInvalidNumberOfParameters)
}

func TestCrudOpsInsertBatchBuildsMultiRowValues(t *testing.T) {
	exec := &fakeExecutor{}
	ops := CrudOps{Exec: exec}

	rows := [][]attrib.Attrib{
		{attrib.FromInt64(1), attrib.FromText("a", nil)},
		{attrib.FromInt64(2), attrib.FromText("b", nil)},
	}
	err := ops.InsertBatch(context.Background(), "widgets", []string{"id", "name"}, rows)
	require.NoError(t, err)
	require.Equal(t, []string{"INSERT INTO widgets (id, name) VALUES ($1, $2), ($3, $4)"}, exec.execLog)
}

func TestCrudOpsCheckExistence(t *testing.T) {
	exec := &fakeExecutor{
		queryResp: &fakeRows{
			cols: []driver.ColumnInfo{{Name: "id", Type: dtype.Int64}},
			rows: [][]attrib.Attrib{{attrib.FromText("1", nil)}},
		},
	}
	ops := CrudOps{Exec: exec}

	exists, err := ops.CheckExistence(context.Background(), "widgets", "id",
		[]attrib.Attrib{attrib.FromText("1", nil), attrib.FromText("2", nil)})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, exists)
}

func TestCrudOpsUpsertBatchSplitsInsertAndUpdate(t *testing.T) {
	exec := &fakeExecutor{
		queryResp: &fakeRows{
			cols: []driver.ColumnInfo{{Name: "id", Type: dtype.Int64}},
			rows: [][]attrib.Attrib{{attrib.FromText("1", nil)}},
		},
	}
	ops := CrudOps{Exec: exec}

	err := ops.UpsertBatch(context.Background(), "widgets", "id",
		[]attrib.Attrib{attrib.FromText("1", nil), attrib.FromText("2", nil)},
		[]string{"id", "name"},
		[][]attrib.Attrib{
			{attrib.FromText("1", nil), attrib.FromText("existing", nil)},
			{attrib.FromText("2", nil), attrib.FromText("new", nil)},
		})
	require.NoError(t, err)
	// One UPDATE (existing row #1) plus one InsertBatch call (new row #2).
	require.Len(t, exec.execLog, 2)
}

func TestCrudOpsCountParsesScalarResult(t *testing.T) {
	exec := &fakeExecutor{
		queryResp: &fakeRows{
			cols: []driver.ColumnInfo{{Name: "count", Type: dtype.Int64}},
			rows: [][]attrib.Attrib{{attrib.FromInt64(42)}},
		},
	}
	ops := CrudOps{Exec: exec}

	n, err := ops.Count(context.Background(), "widgets", "")
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestCrudOpsQueryErrEOFWhenNoRows(t *testing.T) {
	ops := CrudOps{Exec: &fakeExecutor{queryResp: &fakeRows{}}}
	var dst attrib.Attrib
	err := ops.Query(context.Background(), "SELECT 1", nil, &dst)
	require.ErrorIs(t, err, ErrEOF)
}
