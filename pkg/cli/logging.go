package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rhuffman/dbstream/pkg/config"
)

// logFile is the file log.file points to, if one is open.
var logFile *os.File

func getConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{Out: out}
	writer.TimeFormat = "02.01.2006 15:04:05 MST"
	writer.PartsOrder = []string{
		zerolog.TimestampFieldName,
		"qid",
		zerolog.LevelFieldName,
		zerolog.CallerFieldName,
		zerolog.MessageFieldName,
	}

	writer.FormatFieldValue = func(value interface{}) string {
		if value == nil {
			return "                     "
		}

		str, ok := value.(string)
		if ok {
			if len(str) == 21 {
				// color query IDs in cyan  we have to guess based on the field content because we can't get
				// the current field name
				return fmt.Sprintf("\x1b[%dm%s\x1b[0m", 36, value)
			} else if strings.Contains(str, "\\n") && strings.Contains(str, "\\t") {
				// unquote values that contain line breaks and tabs because they're most likely stack traces
				str, err := strconv.Unquote(str)
				if err == nil {
					return str
				}
			}
		}

		return fmt.Sprintf("%s", value)
	}
	return writer
}

// setupLogging configures the global logger. Logs always go to stderr (or the log file) since stdout
// carries the rows.
func setupLogging(cfg *config.Config) error {
	if cfg.Log.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return eris.ToJSON(err, true)
		}
	} else {
		log.Logger = log.Output(getConsoleWriter(os.Stderr))
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return eris.ToString(err, true)
		}
	}

	zerolog.SetGlobalLevel(cfg.LogLevel())
	if cfg.Log.File != "" {
		closeLog()

		file, err := os.Create(cfg.Log.File)
		if err != nil {
			return eris.Wrap(err, "failed to open log file")
		}
		logFile = file

		var out io.Writer = file
		if !cfg.Log.JSON {
			writer := getConsoleWriter(file)
			writer.NoColor = true
			out = writer
		}

		log.Logger = log.Output(out)
	}

	log.Logger = log.Logger.With().Caller().Stack().Logger()
	return nil
}

// closeLog closes the log file opened by setupLogging. Further log messages are
// discarded. It does nothing if no log file is open.
func closeLog() error {
	if logFile == nil {
		return nil
	}

	log.Logger = zerolog.Nop()
	err := logFile.Close()
	logFile = nil
	return eris.Wrap(err, "failed to close log file")
}
