package services

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts covers the shapes the MySQL driver and test fixtures hand
// back when a datetime column is scanned as text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowSet holds a fully-read tabular result with a column-index map built
// once per result set. Column lookup is case-insensitive; asking for a
// column the query never produced is a programming error and fails fast.
type RowSet struct {
	columns []string
	index   map[string]int
	values  [][]sql.NullString
}

// ReadRows drains rows into a RowSet. Closing rows stays with the caller.
func ReadRows(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[strings.ToLower(name)] = i
	}

	rs := &RowSet{columns: columns, index: index}
	for rows.Next() {
		scanned := make([]sql.NullString, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range scanned {
			dest[i] = &scanned[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		rs.values = append(rs.values, scanned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result rows: %w", err)
	}
	return rs, nil
}

// Require verifies that every named column is present, failing fast with
// the first missing one.
func (rs *RowSet) Require(columns ...string) error {
	for _, column := range columns {
		if _, ok := rs.index[strings.ToLower(column)]; !ok {
			return fmt.Errorf("column %q not present in result set", column)
		}
	}
	return nil
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	return len(rs.values)
}

// Lookup returns the textual value of column for row, reporting presence.
// NULL values and absent columns both report false.
func (rs *RowSet) Lookup(row int, column string) (string, bool) {
	pos, ok := rs.index[strings.ToLower(column)]
	if !ok || row < 0 || row >= len(rs.values) {
		return "", false
	}
	value := rs.values[row][pos]
	if !value.Valid {
		return "", false
	}
	return value.String, true
}

// String returns the value of a column that the query is required to
// produce. A missing column is a named error, not a sentinel value.
func (rs *RowSet) String(row int, column string) (string, error) {
	if _, ok := rs.index[strings.ToLower(column)]; !ok {
		return "", fmt.Errorf("column %q not present in result set", column)
	}
	value, _ := rs.Lookup(row, column)
	return value, nil
}

// Int decodes a required integer column.
func (rs *RowSet) Int(row int, column string) (int, error) {
	raw, err := rs.String(row, column)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("column %q is not an integer: %w", column, err)
	}
	return n, nil
}

// Bool decodes a boolean column. MySQL delivers tinyint columns as 0/1.
func (rs *RowSet) Bool(row int, column string) bool {
	raw, ok := rs.Lookup(row, column)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t":
		return true
	}
	return false
}

// Time decodes a timestamp column, tolerating the known layouts. ok is
// false when the column is NULL, absent, or unparsable.
func (rs *RowSet) Time(row int, column string) (time.Time, bool) {
	raw, ok := rs.Lookup(row, column)
	if !ok || strings.TrimSpace(raw) == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
