// Package dbf is a forward-only, read-only reader for dBASE III/IV/FoxPro
// .dbf files, exposing the same driver.Rows-shaped contract
// (NextRow/Get/Columns/ColumnCount) as the SQL driver adapters
// (SPEC_FULL.md §13.2).
//
// Grounded on original_source/lib/dba/FlatFiles/DBF.cpp/h and
// DBF/XBaseDB.cpp/h: the field descriptor array (name, type char, length,
// decimal count) is read once from the header, xBase field types are
// mapped onto the dtype taxonomy, and soft-deleted rows (leading 0x2A flag
// byte) are skipped by default.
package dbf

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// field is one entry of the .dbf field descriptor array.
type field struct {
	name     string
	typeChar byte // 'C','N','F','D','L','M'
	length   int
	decimals int
	offset   int // byte offset within a record, including the 1-byte delete flag
}

// Reader reads one .dbf file as a row stream of attrib.Attrib values.
type Reader struct {
	r              io.Reader
	fields         []field
	cols           []driver.ColumnInfo
	recordLen      int
	numRecords     uint32
	recordsRead    uint32
	includeDeleted bool
	buf            []byte
}

// Options configures whether soft-deleted rows (leading 0x2A) are surfaced.
type Options struct {
	IncludeDeleted bool
}

// New parses the .dbf header from r and returns a Reader positioned at the
// first data record.
func New(r io.Reader, opts Options) (*Reader, error) {
	br := bufio.NewReader(r)
	header := make([]byte, 32)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	numRecords := binary.LittleEndian.Uint32(header[4:8])
	headerLen := binary.LittleEndian.Uint16(header[8:10])
	recordLen := int(binary.LittleEndian.Uint16(header[10:12]))

	// Field descriptors run from byte 32 to headerLen-1, each 32 bytes,
	// terminated by a 0x0D byte.
	fieldBytes := int(headerLen) - 32 - 1
	var fields []field
	offset := 1 // record's leading delete-flag byte
	for i := 0; i+32 <= fieldBytes; i += 32 {
		desc := make([]byte, 32)
		if _, err := io.ReadFull(br, desc); err != nil {
			return nil, err
		}
		name := strings.TrimRight(string(desc[0:11]), "\x00")
		typeChar := desc[11]
		length := int(desc[16])
		decimals := int(desc[17])
		fields = append(fields, field{name: name, typeChar: typeChar, length: length, decimals: decimals, offset: offset})
		offset += length
	}
	// Consume the 0x0D terminator byte.
	if _, err := br.ReadByte(); err != nil {
		return nil, err
	}

	cols := make([]driver.ColumnInfo, len(fields))
	for i, f := range fields {
		cols[i] = driver.ColumnInfo{Name: f.name, Type: xbaseType(f)}
	}

	return &Reader{
		r:              br,
		fields:         fields,
		cols:           cols,
		recordLen:      recordLen,
		numRecords:     numRecords,
		includeDeleted: opts.IncludeDeleted,
		buf:            make([]byte, recordLen),
	}, nil
}

// xbaseType maps an xBase field descriptor onto the dtype taxonomy:
// C->Text, N/F with zero decimals->Int64 else->Double, D->Date, L->Bool,
// M->Text (memo fields are surfaced as their raw pointer text; following
// the .dbt memo file is out of scope for this reader).
func xbaseType(f field) dtype.Type {
	switch f.typeChar {
	case 'N', 'F':
		if f.decimals == 0 {
			return dtype.Int64
		}
		return dtype.Double
	case 'D':
		return dtype.Date
	case 'L':
		return dtype.Bool
	default: // 'C', 'M'
		return dtype.Text
	}
}

func (r *Reader) Columns() []driver.ColumnInfo { return r.cols }
func (r *Reader) ColumnCount() int             { return len(r.cols) }

// NextRow reads the next record, skipping soft-deleted rows unless
// Options.IncludeDeleted was set.
func (r *Reader) NextRow(ctx context.Context) error {
	for {
		if r.recordsRead >= r.numRecords {
			return driver.ErrEOF
		}
		if _, err := io.ReadFull(r.r, r.buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return driver.ErrEOF
			}
			return err
		}
		r.recordsRead++
		if r.buf[0] == 0x2A && !r.includeDeleted {
			continue
		}
		return nil
	}
}

func (r *Reader) Get(col int, a alloc.Allocator) (attrib.Attrib, error) {
	f := r.fields[col]
	raw := strings.TrimSpace(string(r.buf[f.offset : f.offset+f.length]))
	if raw == "" {
		return attrib.Null(), nil
	}
	switch f.typeChar {
	case 'L':
		switch raw {
		case "Y", "y", "T", "t":
			return attrib.FromBool(true), nil
		case "N", "n", "F", "f":
			return attrib.FromBool(false), nil
		default:
			return attrib.Null(), nil
		}
	case 'N', 'F':
		if f.decimals == 0 {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return attrib.Null(), nil
			}
			return attrib.FromInt64(n), nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return attrib.Null(), nil
		}
		return attrib.FromDouble(v), nil
	case 'D':
		// xBase date fields are fixed 8-char YYYYMMDD.
		if len(raw) != 8 {
			return attrib.Null(), nil
		}
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return attrib.Null(), nil
		}
		return attrib.FromDate(t), nil
	default:
		return attrib.FromText(raw, a), nil
	}
}

func (r *Reader) Close() error { return nil }
