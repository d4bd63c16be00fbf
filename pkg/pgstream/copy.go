package pgstream

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rotisserie/eris"

	"github.com/rhuffman/dbstream/pkg/nblog"
	"github.com/rhuffman/dbstream/pkg/stream"
)

// Copier is implemented by *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Source feeds a row stream into pgx's COPY protocol. Rows are pulled one at a time, so
// the stream is never materialized.
type Source struct {
	rows *stream.Stream[[]interface{}]
}

var _ pgx.CopyFromSource = (*Source)(nil)

// NewSource wraps rows.
func NewSource(rows *stream.Stream[[]interface{}]) *Source {
	return &Source{rows: rows}
}

func (s *Source) Next() bool {
	return s.rows.Next()
}

func (s *Source) Values() ([]interface{}, error) {
	return s.rows.Value(), nil
}

func (s *Source) Err() error {
	return s.rows.Err()
}

// CopyFrom loads rows into table using COPY and closes rows. table may be schema
// qualified ("schema.table").
func CopyFrom(ctx context.Context, conn Copier, table string, columns []string, rows *stream.Stream[[]interface{}]) (int64, error) {
	defer rows.Close()

	if table == "" {
		return 0, eris.New("missing target table")
	}

	nblog.Log(ctx).Debug().Str("table", table).Strs("columns", columns).Msg("Copying rows")
	count, err := conn.CopyFrom(ctx, pgx.Identifier(strings.Split(table, ".")), columns, NewSource(rows))
	if err != nil {
		return count, eris.Wrapf(err, "failed to copy rows into %s", table)
	}

	if err := rows.Close(); err != nil {
		return count, eris.Wrap(err, "failed to release source rows")
	}
	return count, nil
}
