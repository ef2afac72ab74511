package sqlbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// passthroughCodec is the minimal Codec a test needs: parameters go through
// as their text form, geometry columns are never exercised here (covered by
// the per-dialect adapter tests instead), and a sentinel error text maps to
// driver.ErrBadConnection the same way each real codec's IsBadConnection
// pattern-matches driver-native error text.
type passthroughCodec struct{}

func (passthroughCodec) EncodeParam(a attrib.Attrib) (interface{}, error) {
	return a.ToText(), nil
}
func (passthroughCodec) DecodeColumn(dtype.Type, interface{}, alloc.Allocator) (attrib.Attrib, error) {
	return attrib.Attrib{}, driver.ErrUnsupported
}
func (passthroughCodec) IsBadConnection(err error) bool {
	return err != nil && err.Error() == "invalid connection"
}

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sc, err := db.Conn(context.Background())
	require.NoError(t, err)
	return &Conn{db: db, sqlConn: sc, codec: passthroughCodec{}}, mock
}

func TestConnExecDecodesRows(t *testing.T) {
	c, mock := newMockConn(t)
	// A text value is used (rather than a numeric one) so the assertion
	// does not depend on the mock driver reporting a native column type
	// name: decodeGeneric decodes a Go string value as Text whenever the
	// inferred dtype.Type has no typed branch of its own, exactly as it
	// would for any driver whose column-type metadata is unavailable.
	mock.ExpectQuery("SELECT name FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("bolt"))

	rows, err := c.Exec(context.Background(), "SELECT name FROM widgets", nil)
	require.NoError(t, err)
	defer rows.Close()

	require.NoError(t, rows.NextRow(context.Background()))
	v, err := rows.Get(0, alloc.Default())
	require.NoError(t, err)
	require.Equal(t, "bolt", v.ToText())

	require.ErrorIs(t, rows.NextRow(context.Background()), driver.ErrEOF)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnExecEncodesParamsThroughCodec(t *testing.T) {
	c, mock := newMockConn(t)
	mock.ExpectQuery(`SELECT \* FROM widgets WHERE id = \?`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	params := []attrib.Attrib{attrib.FromInt64(7)}
	_, err := c.Exec(context.Background(), "SELECT * FROM widgets WHERE id = ?", params)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnBeginCommitUsesTxForSubsequentCalls(t *testing.T) {
	c, mock := newMockConn(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, c.Begin(context.Background()))
	rows, err := c.Exec(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.NoError(t, c.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnRollback(t *testing.T) {
	c, mock := newMockConn(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	require.NoError(t, c.Begin(context.Background()))
	require.NoError(t, c.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnWrapErrMapsBadConnectionViaCodec(t *testing.T) {
	c, mock := newMockConn(t)
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("invalid connection"))

	_, err := c.Exec(context.Background(), "SELECT 1", nil)
	require.ErrorIs(t, err, driver.ErrBadConnection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnWrapErrPassesThroughOtherErrors(t *testing.T) {
	c, mock := newMockConn(t)
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("constraint violation"))

	_, err := c.Exec(context.Background(), "SELECT 1", nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, driver.ErrBadConnection)
	require.NoError(t, mock.ExpectationsWereMet())
}
