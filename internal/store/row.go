package store

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Row is one appointment-ish record keyed by column name. Queries select *
// and scan into a Row so that columns added or renamed by a deployment show
// up without code changes; accessors coerce the loosely-typed values.
type Row map[string]any

func collectRow(rows pgx.Rows) (Row, error) {
	fields := rows.FieldDescriptions()
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}

	row := make(Row, len(fields))
	for i, f := range fields {
		row[string(f.Name)] = values[i]
	}
	return row, nil
}

func collectRows(rows pgx.Rows) ([]Row, error) {
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := collectRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Value returns the raw column value, nil when the column is absent.
func (r Row) Value(key string) any {
	return r[key]
}

// Int64 coerces the column to an int64, returning 0 for absent, null, or
// non-numeric values.
func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// String coerces the column to a trimmed string, "" for absent or null.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return ""
	}
}

// Status returns the upper-cased status column.
func (r Row) Status() string {
	return strings.ToUpper(r.String("status"))
}
