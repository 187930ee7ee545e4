// Package catalog turns PostgreSQL system catalog rows into the schema model.
package catalog

import (
	"context"
	"fmt"
)

// Row is one catalog result row keyed by column name. A nil value is SQL NULL.
type Row map[string]any

// DataTable holds the raw result of a passthrough SELECT.
type DataTable struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// RowSource executes catalog queries. Each call consumes its full result and
// releases any connection it acquired before returning.
type RowSource interface {
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	QueryData(ctx context.Context, name, sql string) (*DataTable, error)
}

// String returns the named column as a string, or "" for NULL.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the named column as an int, or 0 for NULL or non-numeric values.
func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns the named column as a bool, or false for NULL.
func (r Row) Bool(col string) bool {
	v, _ := r[col].(bool)
	return v
}
