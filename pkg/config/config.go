package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/rhuffman/dbstream/pkg/output"
)

// Config describes all configuration options
type Config struct {
	Database string `toml:"database" default:"postgres://localhost/postgres" usage:"PostgreSQL DSN to read from (i.e. postgres://localhost/app)"`
	Target   string `toml:"target" usage:"PostgreSQL DSN the copy command writes to (defaults to database)"`
	Log      struct {
		Level string `toml:"level" default:"info"`
		File  string `toml:"file"`
		JSON  bool   `toml:"json" default:"false" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log"`
	Output struct {
		Format   string `toml:"format" default:"json" usage:"Row format (json, csv or yaml)"`
		Progress bool   `toml:"progress" default:"false" usage:"Show a row counter on stderr"`
	} `toml:"output"`
	Query struct {
		StrictParams bool `toml:"strict_params" default:"true" usage:"Compare the number of placeholders with the number of arguments"`
		Native       bool `toml:"native" default:"false" usage:"Use pgx directly instead of database/sql"`
	} `toml:"query"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// Command line flags are left to the caller.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{"dbstream.toml"}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DBSTREAM",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return eris.Wrapf(err, `Invalid value for database`)
	}

	if cfg.Target != "" {
		_, err = pgxpool.ParseConfig(cfg.Target)
		if err != nil {
			return eris.Wrapf(err, `Invalid value for target`)
		}
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if !output.IsFormat(cfg.Output.Format) {
		return eris.Errorf(`Invalid value for output.format: %s (must be one of json, csv or yaml)`, cfg.Output.Format)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// PgxLogLevel maps the .Log.Level field to the matching pgx log level
func (cfg *Config) PgxLogLevel() pgx.LogLevel {
	switch cfg.LogLevel() {
	case zerolog.DebugLevel:
		return pgx.LogLevelDebug
	case zerolog.InfoLevel:
		return pgx.LogLevelInfo
	case zerolog.WarnLevel:
		return pgx.LogLevelWarn
	default:
		return pgx.LogLevelError
	}
}

// TargetDSN returns the DSN copies are written to
func (cfg *Config) TargetDSN() string {
	if cfg.Target == "" {
		return cfg.Database
	}
	return cfg.Target
}
