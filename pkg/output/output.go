// Package output writes streamed rows to files or the terminal.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"github.com/rhuffman/dbstream/pkg/stream"
)

// Formats lists the supported output formats.
var Formats = []string{"json", "csv", "yaml"}

// Writer encodes records.
type Writer interface {
	// Begin is called once with the result's column names before any record.
	Begin(columns []string) error
	Write(rec stream.Record) error
	Flush() error
}

// NewWriter returns a Writer for format.
func NewWriter(format string, out io.Writer) (Writer, error) {
	switch format {
	case "json":
		return &jsonWriter{enc: json.NewEncoder(out)}, nil
	case "csv":
		return &csvWriter{out: csv.NewWriter(out)}, nil
	case "yaml":
		return &yamlWriter{enc: yaml.NewEncoder(out)}, nil
	default:
		return nil, eris.Errorf("unknown output format %s (must be one of json, csv or yaml)", format)
	}
}

// IsFormat reports whether format is supported.
func IsFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

type jsonWriter struct {
	enc *json.Encoder
}

func (w *jsonWriter) Begin(columns []string) error {
	return nil
}

func (w *jsonWriter) Write(rec stream.Record) error {
	row := rec.Map()
	for col, value := range row {
		row[col] = plain(value)
	}
	return w.enc.Encode(row)
}

func (w *jsonWriter) Flush() error {
	return nil
}

type csvWriter struct {
	out *csv.Writer
}

func (w *csvWriter) Begin(columns []string) error {
	return w.out.Write(columns)
}

func (w *csvWriter) Write(rec stream.Record) error {
	fields := make([]string, len(rec.Values))
	for idx, value := range rec.Values {
		if value != nil {
			fields[idx] = fmt.Sprint(plain(value))
		}
	}
	return w.out.Write(fields)
}

func (w *csvWriter) Flush() error {
	w.out.Flush()
	return w.out.Error()
}

type yamlWriter struct {
	enc *yaml.Encoder
}

func (w *yamlWriter) Begin(columns []string) error {
	return nil
}

func (w *yamlWriter) Write(rec stream.Record) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for idx, col := range rec.Columns {
		value := &yaml.Node{}
		if err := value.Encode(plain(rec.Values[idx])); err != nil {
			return eris.Wrapf(err, "failed to encode column %s", col)
		}

		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col}, value)
	}
	return w.enc.Encode(doc)
}

func (w *yamlWriter) Flush() error {
	return w.enc.Close()
}

// plain converts driver values that don't encode well into strings.
func plain(value interface{}) interface{} {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// NewProgressBar returns a row counter on stderr. It stays invisible if show is false.
func NewProgressBar(show bool, desc string) *progressbar.ProgressBar {
	if !show {
		return progressbar.NewOptions64(-1, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}

// Drain writes every record of rows to w and closes rows. columns are the result's
// column names, known even when there are no rows. It returns the number of records
// written.
func Drain(rows *stream.Stream[stream.Record], columns []string, w Writer, bar *progressbar.ProgressBar) (int64, error) {
	if err := w.Begin(columns); err != nil {
		rows.Close()
		return 0, eris.Wrap(err, "failed to write header")
	}

	var count int64
	err := stream.ForEach(rows, func(rec stream.Record) error {
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "failed to write row %d", count+1)
		}

		count++
		if bar != nil {
			bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	if bar != nil {
		bar.Finish()
	}
	return count, eris.Wrap(w.Flush(), "failed to flush output")
}
