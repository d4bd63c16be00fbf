package cli

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rhuffman/dbstream/pkg/output"
	"github.com/rhuffman/dbstream/pkg/pgstream"
	"github.com/rhuffman/dbstream/pkg/stream"
)

var copyCmd = &cobra.Command{
	Use:   "copy SQL TABLE [ARGS...]",
	Short: "Streams the result of a query into a table",
	Long: `Runs SQL against --database and loads every row into TABLE on --target using COPY.
The target columns are taken from the query's column names unless --columns is passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return eris.New("Expected at least 2 arguments!")
		}

		columns, err := cmd.Flags().GetStringSlice("columns")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		records, resultColumns, err := openRecords(ctx, cfg, args[0], queryArgs(args[2:]))
		if err != nil {
			return err
		}
		defer records.Close()

		if len(columns) == 0 {
			columns = resultColumns
		}

		target, err := pgstream.Connect(ctx, cfg.TargetDSN(), cfg.PgxLogLevel())
		if err != nil {
			return err
		}
		defer target.Close()

		bar := output.NewProgressBar(cfg.Output.Progress, "copied")
		rows := stream.Map(records, func(rec stream.Record) ([]interface{}, error) {
			bar.Add(1)
			return rec.Values, nil
		})

		count, err := pgstream.CopyFrom(ctx, target, args[1], columns, rows)
		if err != nil {
			if pgstream.IsUniqueViolation(err) {
				log.Error().Str("table", args[1]).Msg("The target table already contains some of the copied rows")
			}
			return err
		}

		bar.Finish()
		log.Info().Int64("rows", count).Str("table", args[1]).Msg("Copy finished")
		return nil
	},
}

func init() {
	copyCmd.Flags().StringSlice("columns", nil, "target columns (defaults to the query's column names)")
	rootCmd.AddCommand(copyCmd)
}
