package cli

import (
	"context"

	"github.com/rhuffman/dbstream/pkg/config"
	"github.com/rhuffman/dbstream/pkg/pgstream"
	"github.com/rhuffman/dbstream/pkg/runner"
	"github.com/rhuffman/dbstream/pkg/stream"
)

// queryArgs converts positional command line arguments into query arguments. The driver
// converts the strings to the parameter types PostgreSQL expects.
func queryArgs(args []string) []interface{} {
	result := make([]interface{}, len(args))
	for idx, arg := range args {
		result[idx] = arg
	}
	return result
}

// openRecords runs sql against the configured database and returns its rows along with
// the result's column names. The returned stream also closes the connection pool it was
// read from.
func openRecords(ctx context.Context, cfg *config.Config, sql string, args []interface{}) (*stream.Stream[stream.Record], []string, error) {
	handler := stream.NewRecordHandler()
	if cfg.Query.Native {
		pool, err := pgstream.Connect(ctx, cfg.Database, cfg.PgxLogLevel())
		if err != nil {
			return nil, nil, err
		}

		if cfg.Query.StrictParams {
			if expected := runner.CountParams(sql); expected != len(args) {
				pool.Close()
				return nil, nil, runner.ParamCountError(expected, len(args))
			}
		}

		records, err := pgstream.Query(ctx, pool, sql, handler, args...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return stream.Owning(records, stream.CloserFunc(func() error {
			pool.Close()
			return nil
		})), handler.Columns(), nil
	}

	r, err := runner.Open(ctx, cfg.Database, runner.WithStrictParams(cfg.Query.StrictParams))
	if err != nil {
		return nil, nil, err
	}

	records, err := runner.Query(ctx, r, sql, handler, args...)
	if err != nil {
		r.Close()
		return nil, nil, err
	}

	return stream.Owning(records, r), handler.Columns(), nil
}
