package csv

import (
	"context"
	"strings"
	"testing"

	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

func TestInferColumnsWidensAcrossSample(t *testing.T) {
	data := "id,name,score\n1,alice,10\n2,bob,9.5\n3,carol,\n"
	r, err := New(strings.NewReader(data), Options{})
	require.NoError(t, err)

	require.NoError(t, r.NextRow(context.Background()))
	cols := r.Columns()
	require.Equal(t, "id", cols[0].Name)
	require.Equal(t, dtype.Int64, cols[0].Type)
	require.Equal(t, dtype.Text, cols[1].Type)
	// score starts int64 (10) then widens to double (9.5).
	require.Equal(t, dtype.Double, cols[2].Type)
}

func TestReaderYieldsAllBufferedAndFollowingRows(t *testing.T) {
	data := "a,b\n1,2\n3,4\n5,6\n"
	r, err := New(strings.NewReader(data), Options{SampleSize: 2})
	require.NoError(t, err)

	var got [][2]int64
	for {
		err := r.NextRow(context.Background())
		if err == driver.ErrEOF {
			break
		}
		require.NoError(t, err)
		a0, err := r.Get(0, nil)
		require.NoError(t, err)
		a1, err := r.Get(1, nil)
		require.NoError(t, err)
		got = append(got, [2]int64{a0.ToInt64(), a1.ToInt64()})
	}
	require.Equal(t, [][2]int64{{1, 2}, {3, 4}, {5, 6}}, got)
}

func TestExplicitSchemaSkipsInference(t *testing.T) {
	data := "a,b\nyes,1\n"
	r, err := New(strings.NewReader(data), Options{Schema: []dtype.Type{dtype.Text, dtype.Int64}})
	require.NoError(t, err)
	require.Equal(t, dtype.Text, r.Columns()[0].Type)
	require.Equal(t, dtype.Int64, r.Columns()[1].Type)
}

func TestShortRowDecodesMissingColumnAsNull(t *testing.T) {
	data := "a,b,c\n1,2\n"
	r, err := New(strings.NewReader(data), Options{})
	require.NoError(t, err)
	require.NoError(t, r.NextRow(context.Background()))
	a, err := r.Get(2, nil)
	require.NoError(t, err)
	require.True(t, a.IsNull())
}
