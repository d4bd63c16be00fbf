package pgstream

import (
	"github.com/jackc/pgx/v4"
	"github.com/rotisserie/eris"

	"github.com/rhuffman/dbstream/pkg/stream"
)

type resultSet struct {
	rows pgx.Rows
}

var _ stream.ResultSet = (*resultSet)(nil)

// ResultSet adapts pgx rows to the stream package's cursor interface.
func ResultSet(rows pgx.Rows) stream.ResultSet {
	return &resultSet{rows: rows}
}

func (rs *resultSet) Next() bool {
	return rs.rows.Next()
}

func (rs *resultSet) Columns() ([]string, error) {
	fields := rs.rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for idx, field := range fields {
		cols[idx] = string(field.Name)
	}
	return cols, nil
}

// Scan scans the current row. *interface{} destinations receive the decoded Go value
// pgx picks for the column type.
func (rs *resultSet) Scan(dest ...interface{}) error {
	generic := false
	for _, d := range dest {
		if _, ok := d.(*interface{}); ok {
			generic = true
			break
		}
	}

	if !generic {
		return rs.rows.Scan(dest...)
	}

	values, err := rs.rows.Values()
	if err != nil {
		return err
	}
	if len(values) != len(dest) {
		return eris.Errorf("number of field descriptions must equal number of destinations, got %d and %d", len(values), len(dest))
	}

	typed := make([]interface{}, len(dest))
	hasTyped := false
	for idx, d := range dest {
		if ptr, ok := d.(*interface{}); ok {
			*ptr = values[idx]
		} else {
			// nil destinations are skipped by pgx
			typed[idx] = d
			hasTyped = true
		}
	}

	if hasTyped {
		return rs.rows.Scan(typed...)
	}
	return nil
}

func (rs *resultSet) Err() error {
	return rs.rows.Err()
}

func (rs *resultSet) Close() error {
	rs.rows.Close()
	return rs.rows.Err()
}
