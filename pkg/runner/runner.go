// Package runner executes SQL queries over database/sql and hands their results out as
// streams that keep the connection checked out until they are closed.
package runner

import (
	"context"
	"database/sql"
	"io"

	"github.com/rotisserie/eris"

	// Registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/rhuffman/dbstream/pkg/nblog"
	"github.com/rhuffman/dbstream/pkg/stream"
)

// DriverName is the database/sql driver Open uses.
const DriverName = "pgx"

// Runner runs queries against a database/sql connection pool.
type Runner struct {
	db           *sql.DB
	strictParams bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithStrictParams makes the runner compare the number of placeholders in a query with
// the number of arguments before contacting the database.
func WithStrictParams(strict bool) Option {
	return func(r *Runner) {
		r.strictParams = strict
	}
}

// New returns a Runner backed by db.
func New(db *sql.DB, opts ...Option) *Runner {
	r := &Runner{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open connects to dsn with the pgx driver and returns a Runner for it.
func Open(ctx context.Context, dsn string, opts ...Option) (*Runner, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to connect to database")
	}

	return New(db, opts...), nil
}

// DB returns the underlying pool.
func (r *Runner) DB() *sql.DB {
	return r.db
}

// Close closes the underlying pool.
func (r *Runner) Close() error {
	return r.db.Close()
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Query runs query on a dedicated connection and converts the result with handler. The
// connection, statement and rows stay open until the returned stream is closed or
// drained.
func Query[T any](ctx context.Context, r *Runner, query string, handler stream.Handler[T], args ...interface{}) (*stream.Stream[T], error) {
	if err := r.checkParams(query, args); err != nil {
		return nil, err
	}

	ctx, logger := nblog.WithQuery(ctx)
	logger.Debug().Str("sql", query).Int("args", len(args)).Msg("Running streaming query")

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "failed to acquire connection")
	}

	result, err := run(ctx, conn, query, handler, args, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return result, nil
}

// QueryTx runs query inside tx. The returned stream releases the statement and rows but
// leaves tx to the caller.
func QueryTx[T any](ctx context.Context, r *Runner, tx *sql.Tx, query string, handler stream.Handler[T], args ...interface{}) (*stream.Stream[T], error) {
	if err := r.checkParams(query, args); err != nil {
		return nil, err
	}

	ctx, logger := nblog.WithQuery(ctx)
	logger.Debug().Str("sql", query).Int("args", len(args)).Msg("Running streaming query in transaction")

	return run(ctx, tx, query, handler, args)
}

// run prepares and executes query on p. owned lists resources acquired before p that the
// stream releases after the statement and rows.
func run[T any](ctx context.Context, p preparer, query string, handler stream.Handler[T], args []interface{}, owned ...io.Closer) (*stream.Stream[T], error) {
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "failed to prepare query")
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		stmt.Close()
		return nil, eris.Wrap(err, "failed to execute query")
	}

	result, err := handler.Handle(rows)
	if err != nil {
		rows.Close()
		stmt.Close()
		return nil, eris.Wrap(err, "failed to handle result set")
	}

	logger := nblog.Log(ctx)
	return result.OnClose(owned...).OnClose(stream.CloserFunc(func() error {
		logger.Debug().Msg("Releasing query resources")
		return nil
	}), stmt, rows), nil
}

// Update executes a statement that doesn't return rows and reports the number of
// affected rows.
func (r *Runner) Update(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if err := r.checkParams(query, args); err != nil {
		return 0, err
	}

	ctx, logger := nblog.WithQuery(ctx)
	logger.Debug().Str("sql", query).Int("args", len(args)).Msg("Running update")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "failed to execute update")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "failed to read affected row count")
	}
	return affected, nil
}

func (r *Runner) checkParams(query string, args []interface{}) error {
	if !r.strictParams {
		return nil
	}

	expected := CountParams(query)
	if expected != len(args) {
		return ParamCountError(expected, len(args))
	}
	return nil
}
