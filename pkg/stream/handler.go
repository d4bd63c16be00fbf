package stream

// RowFunc converts the current row of a result set into a value.
type RowFunc[T any] func(rs ResultSet) (T, error)

// Handler converts a whole result set into a stream.
type Handler[T any] interface {
	Handle(rs ResultSet) (*Stream[T], error)
}

type rowHandler[T any] struct {
	handleRow RowFunc[T]
}

// NewHandler returns a Handler that converts each row with handleRow. Rows are only
// converted when the stream is advanced to them.
func NewHandler[T any](handleRow RowFunc[T]) Handler[T] {
	return rowHandler[T]{handleRow: handleRow}
}

func (h rowHandler[T]) Handle(rs ResultSet) (*Stream[T], error) {
	return New(func() (T, bool, error) {
		var zero T
		if !rs.Next() {
			return zero, false, rs.Err()
		}

		value, err := h.handleRow(rs)
		if err != nil {
			return zero, false, err
		}
		return value, true, nil
	}), nil
}

var defaultProcessor = NewRowProcessor()

// ArrayHandler streams every row as a slice holding one value per column.
func ArrayHandler() Handler[[]interface{}] {
	return NewHandler(defaultProcessor.ToArray)
}

// MapHandler streams every row as a map from lower-cased column name to value.
func MapHandler() Handler[map[string]interface{}] {
	return NewHandler(defaultProcessor.ToMap)
}

// StructHandler streams every row as a T. T must be a struct type.
func StructHandler[T any]() Handler[T] {
	return NewHandler(func(rs ResultSet) (T, error) {
		var item T
		err := defaultProcessor.ToStruct(rs, &item)
		return item, err
	})
}

// Record is a row together with the names of its columns.
type Record struct {
	Columns []string
	Values  []interface{}
}

// Map returns the record as a map from column name to value.
func (r Record) Map() map[string]interface{} {
	result := make(map[string]interface{}, len(r.Columns))
	for idx, col := range r.Columns {
		result[col] = r.Values[idx]
	}
	return result
}

// RecordHandler streams every row as a Record. Column names are read once per result set
// and stay available through Columns, even if the result set is empty.
type RecordHandler struct {
	columns []string
}

var _ Handler[Record] = (*RecordHandler)(nil)

// NewRecordHandler returns a RecordHandler.
func NewRecordHandler() *RecordHandler {
	return &RecordHandler{}
}

// Columns returns the column names of the last result set passed to Handle.
func (h *RecordHandler) Columns() []string {
	return h.columns
}

func (h *RecordHandler) Handle(rs ResultSet) (*Stream[Record], error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	h.columns = cols

	return NewHandler(func(rs ResultSet) (Record, error) {
		values, err := defaultProcessor.ToArray(rs)
		if err != nil {
			return Record{}, err
		}
		return Record{Columns: cols, Values: values}, nil
	}).Handle(rs)
}
