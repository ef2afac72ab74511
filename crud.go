package dba

import (
	"context"
	"fmt"
	"strings"

	"github.com/imqs/dba/attrib"
)

// CrudOps is the small set of fixed-shape SQL helpers restored from
// original_source/lib/dba/CrudOps.h/.cpp (SPEC_FULL.md §12 item 1). It
// never builds arbitrary queries — every method emits one fixed SQL shape —
// so it does not conflict with spec.md's "not a query builder" non-goal.
type CrudOps struct {
	Exec Executor
}

// Query runs sql, expecting exactly one result row, and scans its columns
// into dst. Returns ErrEOF if no row matched, ErrNotOneResult if more than
// one did (spec.md §4.6 "CrudOps::Query").
func (c CrudOps) Query(ctx context.Context, sql string, params []attrib.Attrib, dst ...*attrib.Attrib) error {
	rows, err := c.Exec.Query(ctx, sql, params...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next(ctx) {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrEOF
	}
	if err := rows.Scan(dst...); err != nil {
		return err
	}
	if rows.Next(ctx) {
		return ErrNotOneResult
	}
	return rows.Err()
}

// QueryStrings runs sql and returns every row's columns rendered via
// Attrib.ToText, a convenience the original offers for quick diagnostic
// queries and CLI output.
func (c CrudOps) QueryStrings(ctx context.Context, sql string, params ...attrib.Attrib) ([][]string, error) {
	rows, err := c.Exec.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := rows.Columns()
	var out [][]string
	for rows.Next(ctx) {
		row := make([]string, len(cols))
		for i := range cols {
			v := rows.Row(i)
			row[i] = v.ToText()
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Insert builds and runs a single-row `INSERT INTO table (cols...) VALUES
// ($1, $2, ...)`.
func (c CrudOps) Insert(ctx context.Context, table string, cols []string, vals []attrib.Attrib) error {
	if len(cols) != len(vals) {
		return ErrInvalidNumberOfParameters
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (", table, strings.Join(cols, ", "))
	for i := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(")")
	return c.Exec.Exec(ctx, b.String(), vals...)
}

// InsertBatch builds and runs a single multi-row `INSERT INTO table
// (cols...) VALUES (...),(...),...` statement; it does not consult the
// dialect's MultiRowInsert flag. The caller is responsible for chunking rows so the total
// parameter count (len(cols) * len(rows)) stays under the dialect's bind
// parameter limit (spec.md §8 scenario 6: Postgres caps at 999).
func (c CrudOps) InsertBatch(ctx context.Context, table string, cols []string, rows [][]attrib.Attrib) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))
	params := make([]attrib.Attrib, 0, len(cols)*len(rows))
	ordinal := 1
	for r, row := range rows {
		if len(row) != len(cols) {
			return ErrInvalidNumberOfParameters
		}
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for i := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", ordinal)
			ordinal++
		}
		b.WriteString(")")
		params = append(params, row...)
	}
	return c.Exec.Exec(ctx, b.String(), params...)
}

// Upsert runs a single-row insert-or-update keyed on keyCols: callers on
// dialects without a native `ON CONFLICT`/`MERGE` are expected to drive
// CheckExistence first to decide between Insert and an explicit UPDATE; this
// helper covers the Postgres-style native path directly.
func (c CrudOps) Upsert(ctx context.Context, table string, keyCols, cols []string, vals []attrib.Attrib) error {
	if len(cols) != len(vals) {
		return ErrInvalidNumberOfParameters
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (", table, strings.Join(cols, ", "))
	for i := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	fmt.Fprintf(&b, ") ON CONFLICT (%s) DO UPDATE SET ", strings.Join(keyCols, ", "))
	first := true
	for i, col := range cols {
		if containsStr(keyCols, col) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s = $%d", col, i+1)
	}
	return c.Exec.Exec(ctx, b.String(), vals...)
}

// UpsertBatch runs CheckExistence against keyCols/keyVals to split rows into
// inserts and updates, then issues one InsertBatch for the new rows and one
// explicit `UPDATE ... WHERE keyCol = ...` per pre-existing row — restoring original_source/CrudOps.h's batch
// upsert shape without requiring every dialect to support ON CONFLICT.
func (c CrudOps) UpsertBatch(ctx context.Context, table string, keyCol string, keyVals []attrib.Attrib, cols []string, rows [][]attrib.Attrib) error {
	if len(keyVals) != len(rows) {
		return ErrInvalidNumberOfParameters
	}
	exists, err := c.CheckExistence(ctx, table, keyCol, keyVals)
	if err != nil {
		return err
	}
	var toInsert [][]attrib.Attrib
	for i, row := range rows {
		if exists[i] {
			if len(row) != len(cols) {
				return ErrInvalidNumberOfParameters
			}
			var b strings.Builder
			fmt.Fprintf(&b, "UPDATE %s SET ", table)
			for j, col := range cols {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s = $%d", col, j+1)
			}
			fmt.Fprintf(&b, " WHERE %s = $%d", keyCol, len(cols)+1)
			params := append(append([]attrib.Attrib{}, row...), keyVals[i])
			if err := c.Exec.Exec(ctx, b.String(), params...); err != nil {
				return err
			}
			continue
		}
		toInsert = append(toInsert, row)
	}
	if len(toInsert) > 0 {
		return c.InsertBatch(ctx, table, cols, toInsert)
	}
	return nil
}

// CheckExistence reports, for each value in keyVals, whether a row with
// table.keyCol equal to it already exists — the batch existence check
// original_source/CrudOps.h uses to decide Insert vs Update per row.
func (c CrudOps) CheckExistence(ctx context.Context, table, keyCol string, keyVals []attrib.Attrib) ([]bool, error) {
	if len(keyVals) == 0 {
		return nil, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s IN (", keyCol, table, keyCol)
	for i := range keyVals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(")")
	rows, err := c.Exec.Query(ctx, b.String(), keyVals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(keyVals))
	for rows.Next(ctx) {
		v := rows.Row(0)
		found[v.ToText()] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]bool, len(keyVals))
	for i, v := range keyVals {
		out[i] = found[v.ToText()]
	}
	return out, nil
}

// DeleteByKey deletes every row where keyCol equals keyVal.
func (c CrudOps) DeleteByKey(ctx context.Context, table, keyCol string, keyVal attrib.Attrib) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, keyCol)
	return c.Exec.Exec(ctx, sql, keyVal)
}

// Count returns `SELECT COUNT(*) FROM table [WHERE whereSQL]`.
func (c CrudOps) Count(ctx context.Context, table, whereSQL string, params ...attrib.Attrib) (int64, error) {
	sql := "SELECT COUNT(*) FROM " + table
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	var n attrib.Attrib
	if err := c.Query(ctx, sql, params, &n); err != nil {
		return 0, err
	}
	return n.ToInt64(), nil
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
