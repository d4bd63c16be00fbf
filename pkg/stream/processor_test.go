package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID       int64
	FullName string `db:"name"`
	Nickname string
	Ignored  string `db:"-"`
}

type employee struct {
	person
	Team string
}

func TestToArrayCopiesBytes(t *testing.T) {
	buf := []byte("abc")
	rows := newFakeRows([]string{"id", "payload"}, []interface{}{int64(7), buf})
	require.True(t, rows.Next())

	values, err := NewRowProcessor().ToArray(rows)
	require.NoError(t, err)
	buf[0] = 'x'

	assert.Equal(t, []interface{}{int64(7), []byte("abc")}, values)
}

func TestToMapLowercasesColumns(t *testing.T) {
	rows := newFakeRows([]string{"ID", "Name"}, []interface{}{int64(1), "Ada"})
	require.True(t, rows.Next())

	values, err := NewRowProcessor().ToMap(rows)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(1), "name": "Ada"}, values)
}

func TestToStructMapsTagsAndNames(t *testing.T) {
	rows := newFakeRows(
		[]string{"ID", "name", "nick_name", "ignored", "extra"},
		[]interface{}{int64(4), "Grace Hopper", "amazing", "x", "dropped"},
	)
	require.True(t, rows.Next())

	var p person
	require.NoError(t, NewRowProcessor().ToStruct(rows, &p))
	assert.Equal(t, person{ID: 4, FullName: "Grace Hopper", Nickname: "amazing"}, p)
}

func TestToStructEmbedded(t *testing.T) {
	rows := newFakeRows([]string{"id", "team"}, []interface{}{int64(9), "compilers"})

	s, err := StructHandler[employee]().Handle(rows)
	require.NoError(t, err)
	items, err := Collect(s)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.EqualValues(t, 9, items[0].ID)
	assert.Equal(t, "compilers", items[0].Team)
}

func TestToStructRejectsNonStruct(t *testing.T) {
	rows := newFakeRows([]string{"id"}, []interface{}{int64(1)})
	require.True(t, rows.Next())

	var id int64
	assert.Error(t, NewRowProcessor().ToStruct(rows, &id))
	assert.Error(t, NewRowProcessor().ToStruct(rows, person{}))
}

func TestRecordHandler(t *testing.T) {
	rows := newFakeRows([]string{"id", "name"}, []interface{}{int64(1), "Ada"}, []interface{}{int64(2), "Grace"})

	handler := NewRecordHandler()
	s, err := handler.Handle(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, handler.Columns())

	records, err := Collect(s)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "name"}, records[1].Columns)
	assert.Equal(t, map[string]interface{}{"id": int64(2), "name": "Grace"}, records[1].Map())
}

func TestRecordHandlerColumnsOfEmptyResult(t *testing.T) {
	handler := NewRecordHandler()
	s, err := handler.Handle(newFakeRows([]string{"id", "name"}))
	require.NoError(t, err)

	count, err := Count(s)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	assert.Equal(t, []string{"id", "name"}, handler.Columns())
}
