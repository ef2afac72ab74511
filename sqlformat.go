// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/imqs/dba/attrib"
)

var paramPlaceholderPattern = regexp.MustCompile(`(\?|:v\d+|\$\d+|@p\d+)`)

// formatSQLWithArgs renders sql with each placeholder (?, $N, :vN or @pN)
// replaced by a literal rendering of the corresponding argument, purely for
// logging/tracing: this string is never sent to a driver.
//
// Grounded on gdb_func.go's FormatSqlWithArgs.
func formatSQLWithArgs(sql string, args []interface{}) string {
	index := -1
	return paramPlaceholderPattern.ReplaceAllStringFunc(sql, func(string) string {
		index++
		if index >= len(args) {
			return "?"
		}
		return formatLiteral(args[index])
	})
}

func formatLiteral(v interface{}) string {
	if v == nil {
		return "null"
	}
	switch x := v.(type) {
	case attrib.Attrib:
		if x.IsNull() {
			return "null"
		}
		if x.IsNumeric() || x.IsBool() {
			return x.ToText()
		}
		return "'" + strings.ReplaceAll(x.ToText(), "'", "''") + "'"
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "null"
		}
		return formatLiteral(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
