// Package cli implements the dbstream command line tool.
package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rhuffman/dbstream/pkg/config"
)

var (
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "dbstream",
	Short: "Streams PostgreSQL query results",
	Long: `dbstream runs SQL queries and streams their results row by row, either to stdout
or into another table, without loading the whole result into memory.

Configuration is read from dbstream.toml, DBSTREAM_* environment variables and flags
(in increasing order of precedence).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := setupLogging(cfg); err != nil {
			return err
		}

		log.Debug().Msg("Finished parsing configuration")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "dbstream.toml", "config file")
	flags.String("database", "", "PostgreSQL DSN to read from")
	flags.String("target", "", "PostgreSQL DSN to copy into (defaults to --database)")
	flags.StringP("format", "f", "", "row format (json, csv or yaml)")
	flags.Bool("progress", false, "show a row counter on stderr")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "log JSON instead of pretty console messages")
	flags.Bool("native", false, "use pgx directly instead of database/sql")
	flags.Bool("strict-params", true, "check the number of arguments against the query's placeholders")
}

// loadConfig reads the config file and environment, then applies flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loaded, loader := config.Loader(configFile)
	if err := loader.Load(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("database") {
		loaded.Database, _ = flags.GetString("database")
	}
	if flags.Changed("target") {
		loaded.Target, _ = flags.GetString("target")
	}
	if flags.Changed("format") {
		loaded.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("progress") {
		loaded.Output.Progress, _ = flags.GetBool("progress")
	}
	if flags.Changed("log-level") {
		loaded.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		loaded.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("native") {
		loaded.Query.Native, _ = flags.GetBool("native")
	}
	if flags.Changed("strict-params") {
		loaded.Query.StrictParams, _ = flags.GetBool("strict-params")
	}

	return loaded, loaded.Validate()
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := closeLog(); err == nil {
		err = closeErr
	}
	cobra.CheckErr(err)
}
