package cli

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rhuffman/dbstream/pkg/output"
)

var queryCmd = &cobra.Command{
	Use:   "query SQL [ARGS...]",
	Short: "Streams the result of a query to stdout",
	Long: `Runs the passed query and writes each row to stdout as soon as it arrives.
Additional arguments are bound to the query's placeholders ($1, $2, ...).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return eris.New("Expected at least 1 argument!")
		}

		writer, err := output.NewWriter(cfg.Output.Format, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		records, columns, err := openRecords(cmd.Context(), cfg, args[0], queryArgs(args[1:]))
		if err != nil {
			return err
		}

		count, err := output.Drain(records, columns, writer, output.NewProgressBar(cfg.Output.Progress, "rows"))
		if err != nil {
			return err
		}

		log.Info().Int64("rows", count).Msg("Query finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
