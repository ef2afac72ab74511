package dbf

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
	"github.com/stretchr/testify/require"
)

// buildDBF constructs a minimal, valid .dbf byte stream with the given
// field descriptors and raw fixed-width record bytes (delete flag not
// included -- buildDBF prepends it).
type testField struct {
	name     string
	typeChar byte
	length   int
	decimals int
}

func buildDBF(fields []testField, records [][]byte) []byte {
	headerLen := 32 + len(fields)*32 + 1
	recordLen := 1
	for _, f := range fields {
		recordLen += f.length
	}

	var buf bytes.Buffer
	header := make([]byte, 32)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(records)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordLen))
	buf.Write(header)

	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[0:11], f.name)
		desc[11] = f.typeChar
		desc[16] = byte(f.length)
		desc[17] = byte(f.decimals)
		buf.Write(desc)
	}
	buf.WriteByte(0x0D)

	for _, rec := range records {
		buf.WriteByte(' ') // not deleted
		buf.Write(rec)
	}
	return buf.Bytes()
}

func padField(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func TestDBFReadsTypedFields(t *testing.T) {
	fields := []testField{
		{"NAME", 'C', 10, 0},
		{"AGE", 'N', 3, 0},
		{"ACTIVE", 'L', 1, 0},
	}
	rec := append(append(padField("alice", 10), padField("30", 3)...), 'Y')
	raw := buildDBF(fields, [][]byte{rec})

	r, err := New(bytes.NewReader(raw), Options{})
	require.NoError(t, err)
	require.Equal(t, dtype.Text, r.Columns()[0].Type)
	require.Equal(t, dtype.Int64, r.Columns()[1].Type)
	require.Equal(t, dtype.Bool, r.Columns()[2].Type)

	require.NoError(t, r.NextRow(context.Background()))
	name, err := r.Get(0, nil)
	require.NoError(t, err)
	require.Equal(t, "alice", name.RawText())

	age, err := r.Get(1, nil)
	require.NoError(t, err)
	require.Equal(t, int64(30), age.ToInt64())

	active, err := r.Get(2, nil)
	require.NoError(t, err)
	require.True(t, active.ToBool())

	require.Equal(t, driver.ErrEOF, r.NextRow(context.Background()))
}

func TestDBFSkipsSoftDeletedRecordsByDefault(t *testing.T) {
	fields := []testField{{"NAME", 'C', 5, 0}}
	raw := buildDBF(fields, [][]byte{padField("kept", 5)})
	// Flip the first record's delete flag to 0x2A ("deleted") by
	// rewriting the byte just after the header.
	headerLen := 32 + len(fields)*32 + 1
	raw[headerLen] = 0x2A

	r, err := New(bytes.NewReader(raw), Options{})
	require.NoError(t, err)
	require.Equal(t, driver.ErrEOF, r.NextRow(context.Background()))
}

func TestDBFIncludeDeletedSurfacesSoftDeletedRows(t *testing.T) {
	fields := []testField{{"NAME", 'C', 5, 0}}
	raw := buildDBF(fields, [][]byte{padField("kept", 5)})
	headerLen := 32 + len(fields)*32 + 1
	raw[headerLen] = 0x2A

	r, err := New(bytes.NewReader(raw), Options{IncludeDeleted: true})
	require.NoError(t, err)
	require.NoError(t, r.NextRow(context.Background()))
}
