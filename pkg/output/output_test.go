package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rhuffman/dbstream/pkg/stream"
)

var cols = []string{"id", "name", "note"}

func records() *stream.Stream[stream.Record] {
	return stream.FromSlice([]stream.Record{
		{Columns: cols, Values: []interface{}{int64(1), "Ada", nil}},
		{Columns: cols, Values: []interface{}{int64(2), []byte("Grace, Admiral"), "x"}},
	})
}

func TestDrainCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter("csv", buf)
	require.NoError(t, err)

	count, err := Drain(records(), cols, w, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, "id,name,note\n1,Ada,\n2,\"Grace, Admiral\",x\n", buf.String())
}

func TestDrainJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter("json", buf)
	require.NoError(t, err)

	_, err = Drain(records(), cols, w, NewProgressBar(false, "rows"))
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1,\"name\":\"Ada\",\"note\":null}\n{\"id\":2,\"name\":\"Grace, Admiral\",\"note\":\"x\"}\n", buf.String())
}

func TestDrainYAMLKeepsColumnOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter("yaml", buf)
	require.NoError(t, err)

	_, err = Drain(stream.FromSlice([]stream.Record{
		{Columns: []string{"zeta", "alpha"}, Values: []interface{}{1, "a"}},
	}), []string{"zeta", "alpha"}, w, nil)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha: a\n", buf.String())
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewWriter("xml", &bytes.Buffer{})
	assert.Error(t, err)
	assert.False(t, IsFormat("xml"))
	assert.True(t, IsFormat("yaml"))
}

func TestDrainCSVEmptyResultKeepsHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter("csv", buf)
	require.NoError(t, err)

	count, err := Drain(stream.FromSlice([]stream.Record{}), cols, w, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	assert.Equal(t, "id,name,note\n", buf.String())
}

func TestDrainYAMLQuotesAmbiguousColumnNames(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter("yaml", buf)
	require.NoError(t, err)

	names := []string{"true", "1", "null"}
	_, err = Drain(stream.FromSlice([]stream.Record{
		{Columns: names, Values: []interface{}{"a", "b", "c"}},
	}), names, w, nil)
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	mapping := doc.Content[0]
	require.Len(t, mapping.Content, 6)
	for idx, name := range names {
		key := mapping.Content[idx*2]
		assert.Equal(t, "!!str", key.ShortTag(), "column %s", name)
		assert.Equal(t, name, key.Value)
	}
}
