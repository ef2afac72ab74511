// Package csv is a forward-only, read-only CSV row source exposing the
// same driver.Rows-shaped contract (NextRow/Get/Columns/ColumnCount) as the
// SQL driver adapters, so a CSV row can be pushed through dba.CrudOps.Insert
// into any SQL backend without a conversion layer (SPEC_FULL.md §13.1).
//
// Grounded on original_source/lib/dba/FlatFiles/CSV.cpp/h: column types are
// inferred once from the first sampleSize data rows (bool < int64 < double
// < text, widening only) unless an explicit schema is supplied.
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/imqs/dba/alloc"
	"github.com/imqs/dba/attrib"
	"github.com/imqs/dba/driver"
	"github.com/imqs/dba/dtype"
)

// defaultSampleSize is how many data rows are buffered and inspected before
// type inference settles, when the caller does not supply an explicit
// schema.
const defaultSampleSize = 64

// Reader reads one CSV file as a row stream of attrib.Attrib values.
type Reader struct {
	r           *csv.Reader
	cols        []driver.ColumnInfo
	sampleSize  int
	buffered    [][]string // rows read ahead during type inference
	bufIdx      int
	inferred    bool
	cur         []string
	headerNames []string
}

// Options configures a Reader's field delimiter, type inference sample size
// and optional explicit schema. Quoting follows encoding/csv's fixed rules;
// the quote character is not configurable.
type Options struct {
	Comma      rune // field delimiter, default ','
	SampleSize int  // rows sampled for type inference, default 64
	// Schema, if non-nil, skips inference entirely: column i has type
	// Schema[i].
	Schema []dtype.Type
}

// New constructs a Reader over r. The first row is always treated as the
// header (column names); an absent header is not supported, matching the
// original library's convention.
func New(r io.Reader, opts Options) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	reader := &Reader{r: cr, sampleSize: sampleSize, headerNames: header}
	if opts.Schema != nil {
		if len(opts.Schema) != len(header) {
			return nil, driver.ErrUnsupported
		}
		reader.cols = make([]driver.ColumnInfo, len(header))
		for i, name := range header {
			reader.cols[i] = driver.ColumnInfo{Name: name, Type: opts.Schema[i]}
		}
		reader.inferred = true
	}
	return reader, nil
}

func (r *Reader) Columns() []driver.ColumnInfo { return r.cols }
func (r *Reader) ColumnCount() int             { return len(r.cols) }

// inferColumns samples up to r.sampleSize rows, widening each column's
// guessed type across the sample (bool < int64 < double < text; an empty
// field never narrows a column's inferred type).
func (r *Reader) inferColumns() error {
	guesses := make([]dtype.Type, len(r.headerNames))
	for {
		if len(r.buffered) >= r.sampleSize {
			break
		}
		rec, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		r.buffered = append(r.buffered, rec)
		for i, field := range rec {
			if i >= len(guesses) {
				break
			}
			guesses[i] = widen(guesses[i], guessType(field))
		}
	}
	r.cols = make([]driver.ColumnInfo, len(r.headerNames))
	for i, name := range r.headerNames {
		t := guesses[i]
		if t == dtype.Null {
			t = dtype.Text
		}
		r.cols[i] = driver.ColumnInfo{Name: name, Type: t}
	}
	r.inferred = true
	return nil
}

func guessType(field string) dtype.Type {
	if field == "" {
		return dtype.Null
	}
	if field == "true" || field == "false" {
		return dtype.Bool
	}
	if _, err := strconv.ParseInt(field, 10, 64); err == nil {
		return dtype.Int64
	}
	if _, err := strconv.ParseFloat(field, 64); err == nil {
		return dtype.Double
	}
	return dtype.Text
}

// widen returns the narrowest type that can represent both a and b, in the
// bool < int64 < double < text lattice (Null widens to anything).
func widen(a, b dtype.Type) dtype.Type {
	rank := func(t dtype.Type) int {
		switch t {
		case dtype.Null:
			return 0
		case dtype.Bool:
			return 1
		case dtype.Int64:
			return 2
		case dtype.Double:
			return 3
		default:
			return 4
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// NextRow advances to the next data row.
func (r *Reader) NextRow(ctx context.Context) error {
	if !r.inferred {
		if err := r.inferColumns(); err != nil {
			return err
		}
	}
	if r.bufIdx < len(r.buffered) {
		r.cur = r.buffered[r.bufIdx]
		r.bufIdx++
		return nil
	}
	rec, err := r.r.Read()
	if err == io.EOF {
		return driver.ErrEOF
	}
	if err != nil {
		return err
	}
	r.cur = rec
	return nil
}

// Get decodes column col of the current row according to its inferred or
// supplied type. An out-of-range column (a short row, a common CSV defect)
// decodes as Null rather than erroring.
func (r *Reader) Get(col int, a alloc.Allocator) (attrib.Attrib, error) {
	if col >= len(r.cur) || r.cur[col] == "" {
		return attrib.Null(), nil
	}
	field := r.cur[col]
	switch r.cols[col].Type {
	case dtype.Bool:
		return attrib.FromBool(field == "true"), nil
	case dtype.Int64:
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return attrib.FromText(field, a), nil
		}
		return attrib.FromInt64(n), nil
	case dtype.Double:
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return attrib.FromText(field, a), nil
		}
		return attrib.FromDouble(f), nil
	default:
		return attrib.FromText(field, a), nil
	}
}

func (r *Reader) Close() error { return nil }
