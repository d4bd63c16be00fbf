package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rhuffman/dbstream/pkg/runner"
)

var execCmd = &cobra.Command{
	Use:   "exec SQL [ARGS...]",
	Short: "Runs a statement and prints the number of affected rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return eris.New("Expected at least 1 argument!")
		}

		r, err := runner.Open(cmd.Context(), cfg.Database, runner.WithStrictParams(cfg.Query.StrictParams))
		if err != nil {
			return err
		}
		defer r.Close()

		affected, err := r.Update(cmd.Context(), args[0], queryArgs(args[1:])...)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), affected)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
