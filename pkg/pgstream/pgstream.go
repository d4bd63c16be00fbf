// Package pgstream streams query results straight from pgx without going through
// database/sql.
package pgstream

import (
	"context"
	"io"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/rhuffman/dbstream/pkg/nblog"
	"github.com/rhuffman/dbstream/pkg/stream"
)

// Querier is implemented by *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Connect opens a connection pool for dsn that logs through zerolog.
func Connect(ctx context.Context, dsn string, level pgx.LogLevel) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse database DSN")
	}

	dbConfig.ConnConfig.Logger = nblog.PgxLogger{}
	dbConfig.ConnConfig.LogLevel = level
	pool, err := pgxpool.ConnectConfig(ctx, dbConfig)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to database")
	}

	return pool, nil
}

// Query acquires a connection from pool and streams the result of sql through
// handler. The connection goes back to the pool when the stream is closed or drained.
func Query[T any](ctx context.Context, pool *pgxpool.Pool, sql string, handler stream.Handler[T], args ...interface{}) (*stream.Stream[T], error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "failed to acquire connection")
	}

	return queryConn(ctx, conn, conn.Release, sql, handler, args)
}

// queryConn streams sql on an acquired connection. release is called exactly once: after
// the rows when the stream is closed, or before returning if the query fails.
func queryConn[T any](ctx context.Context, conn Querier, release func(), sql string, handler stream.Handler[T], args []interface{}) (*stream.Stream[T], error) {
	result, err := query(ctx, conn, sql, handler, args, stream.CloserFunc(func() error {
		release()
		return nil
	}))
	if err != nil {
		release()
		return nil, err
	}

	return result, nil
}

// QueryWith streams the result of sql on q. Only the rows are released when the stream
// is closed.
func QueryWith[T any](ctx context.Context, q Querier, sql string, handler stream.Handler[T], args ...interface{}) (*stream.Stream[T], error) {
	return query(ctx, q, sql, handler, args)
}

func query[T any](ctx context.Context, q Querier, sql string, handler stream.Handler[T], args []interface{}, owned ...io.Closer) (*stream.Stream[T], error) {
	ctx, logger := nblog.WithQuery(ctx)
	logger.Debug().Str("sql", sql).Int("args", len(args)).Msg("Running streaming query")

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to execute query")
	}

	rs := ResultSet(rows)
	result, err := handler.Handle(rs)
	if err != nil {
		rs.Close()
		return nil, eris.Wrap(err, "failed to handle result set")
	}

	return result.OnClose(owned...).OnClose(rs), nil
}
