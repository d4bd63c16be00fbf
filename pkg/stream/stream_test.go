package stream

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	cols    []string
	rows    [][]interface{}
	pos     int
	err     error
	scanErr error
	closed  int
}

func newFakeRows(cols []string, rows ...[]interface{}) *fakeRows {
	return &fakeRows{cols: cols, rows: rows, pos: -1}
}

func (r *fakeRows) Next() bool {
	if r.closed > 0 {
		return false
	}
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Columns() ([]string, error) {
	return r.cols, nil
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if len(dest) != len(r.cols) {
		return eris.Errorf("expected %d destinations, got %d", len(r.cols), len(dest))
	}

	for idx, value := range r.rows[r.pos] {
		switch d := dest[idx].(type) {
		case *interface{}:
			*d = value
		case *string:
			*d = value.(string)
		case *int64:
			*d = value.(int64)
		case *[]byte:
			*d = value.([]byte)
		default:
			return eris.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.closed++
	return nil
}

type recorder struct {
	name  string
	log   *[]string
	err   error
	calls int
}

func (r *recorder) Close() error {
	r.calls++
	*r.log = append(*r.log, r.name)
	return r.err
}

func TestStreamPreservesOrder(t *testing.T) {
	items, err := Collect(FromSlice([]int{3, 1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, items)
}

func TestStreamClosesInReverseOrderOnce(t *testing.T) {
	var log []string
	conn := &recorder{name: "conn", log: &log}
	stmt := &recorder{name: "stmt", log: &log}
	rows := &recorder{name: "rows", log: &log}

	s := FromSlice([]int{1}).OnClose(conn, stmt, rows)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, []string{"rows", "stmt", "conn"}, log)
	assert.Equal(t, 1, conn.calls)
	assert.False(t, s.Next())
}

func TestStreamSelfClosesWhenExhausted(t *testing.T) {
	var log []string
	res := &recorder{name: "res", log: &log}

	s := FromSlice([]string{"a", "b"}).OnClose(res)
	count, err := Count(s)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 1, res.calls)
}

func TestStreamCombinesCloseErrors(t *testing.T) {
	var log []string
	first := &recorder{name: "a", log: &log, err: eris.New("a failed")}
	second := &recorder{name: "b", log: &log, err: eris.New("b failed")}

	err := FromSlice([]int{}).OnClose(first, second).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "b failed")
	assert.Equal(t, []string{"b", "a"}, log)
}

func TestHandlerIsLazy(t *testing.T) {
	rows := newFakeRows([]string{"id"}, []interface{}{int64(1)}, []interface{}{int64(2)}, []interface{}{int64(3)})
	converted := 0
	handler := NewHandler(func(rs ResultSet) (int64, error) {
		converted++
		var id int64
		err := rs.Scan(&id)
		return id, err
	})

	s, err := handler.Handle(rows)
	require.NoError(t, err)
	s.OnClose(rows)
	assert.Equal(t, 0, converted)

	first, err := First(s)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)
	assert.Equal(t, 1, converted)
	assert.Equal(t, 1, rows.closed)
}

func TestHandlerStopsOnRowError(t *testing.T) {
	rows := newFakeRows([]string{"id"}, []interface{}{int64(1)})
	rows.scanErr = eris.New("broken row")

	s, err := ArrayHandler().Handle(rows)
	require.NoError(t, err)

	assert.False(t, s.Next())
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "broken row")
}

func TestHandlerReportsCursorError(t *testing.T) {
	rows := newFakeRows([]string{"id"})
	rows.err = eris.New("connection lost")

	s, err := ArrayHandler().Handle(rows)
	require.NoError(t, err)

	_, err = Collect(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestMapFilterLimitSkip(t *testing.T) {
	var log []string
	src := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8})
	res := &recorder{name: "src", log: &log}
	src.OnClose(res)

	even := Filter(src, func(i int) bool { return i%2 == 0 })
	doubled := Map(even, func(i int) (int, error) { return i * 10, nil })
	items, err := Collect(Limit(Skip(doubled, 1), 2))
	require.NoError(t, err)

	assert.Equal(t, []int{40, 60}, items)
	assert.Equal(t, 1, res.calls)
}

func TestLimitClosesSourceOnLastElement(t *testing.T) {
	var log []string
	res := &recorder{name: "src", log: &log}
	pulled := 0
	src := Map(FromSlice([]int{1, 2, 3, 4}).OnClose(res), func(i int) (int, error) {
		pulled++
		return i, nil
	})

	limited := Limit(src, 2)
	require.True(t, limited.Next())
	assert.Equal(t, 0, res.calls)

	require.True(t, limited.Next())
	assert.Equal(t, 2, limited.Value())
	assert.Equal(t, 1, res.calls)
	assert.Equal(t, 2, pulled)

	assert.False(t, limited.Next())
	require.NoError(t, limited.Err())
	assert.Equal(t, 1, res.calls)
	assert.Equal(t, 2, pulled)
}

func TestMapPropagatesErrors(t *testing.T) {
	s := Map(FromSlice([]int{1, 2}), func(i int) (string, error) {
		if i == 2 {
			return "", eris.New("cannot convert 2")
		}
		return "one", nil
	})

	items, err := Collect(s)
	assert.Nil(t, items)
	require.Error(t, err)
}

func TestFirstOnEmptyStream(t *testing.T) {
	_, err := First(FromSlice([]int{}))
	assert.Equal(t, ErrEmpty, err)
}

func TestOwningClosesSourceFirst(t *testing.T) {
	var log []string
	src := FromSlice([]int{1, 2}).OnClose(&recorder{name: "rows", log: &log})
	owned := Owning(src, &recorder{name: "pool", log: &log})

	items, err := Collect(owned)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, []string{"rows", "pool"}, log)
}
