package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	data := "\ufeffTimestamp,Tool,Opinion\n" +
		"2024-01-01,\"Gpt and DeepSeek.\",Yes\n" +
		"2024-01-02,Copilot\n"

	tbl, err := Read(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Timestamp", "Tool", "Opinion"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"2024-01-02", "Copilot", ""}, tbl.Row(1))

	values, err := tbl.Values("Tool")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gpt and DeepSeek.", "Copilot"}, values)
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("A,B\n1,2\n3,4\n"), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestColumnLookup(t *testing.T) {
	tbl := New([]string{"A", "B", "A"}, [][]string{{"1", "2", "3", "extra"}})

	i, err := tbl.ColumnIndex("A")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = tbl.ColumnIndex("C")
	assert.ErrorIs(t, err, ErrInvalidColumn)

	name, err := tbl.ColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "B", name)

	_, err = tbl.ColumnName(3)
	assert.ErrorIs(t, err, ErrInvalidColumn)
	_, err = tbl.ColumnName(-1)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	assert.Equal(t, []string{"1", "2", "3"}, tbl.Row(0))

	_, err = tbl.Values("missing")
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestExpandColumn(t *testing.T) {
	tbl := New([]string{"ID", "Tool"}, [][]string{
		{"1", "a,b"},
		{"2", "c"},
		{"3", ""},
	})

	expanded, err := tbl.ExpandColumn("Tool", func(s string) []string {
		return strings.Split(s, ",")
	})
	require.NoError(t, err)

	require.Equal(t, 4, expanded.Len())
	assert.Equal(t, []string{"1", "a"}, expanded.Row(0))
	assert.Equal(t, []string{"1", "b"}, expanded.Row(1))
	assert.Equal(t, []string{"2", "c"}, expanded.Row(2))
	assert.Equal(t, []string{"3", ""}, expanded.Row(3))

	// the source table is untouched
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"1", "a,b"}, tbl.Row(0))
}

func TestExpandColumn_NeverDropsRows(t *testing.T) {
	tbl := New([]string{"Tool"}, [][]string{{"x"}, {"y"}})

	expanded, err := tbl.ExpandColumn("Tool", func(string) []string { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, expanded.Len())
	assert.Equal(t, []string{""}, expanded.Row(0))
}

func TestExpandColumn_InvalidColumn(t *testing.T) {
	tbl := New([]string{"Tool"}, nil)

	_, err := tbl.ExpandColumn("Missing", func(s string) []string { return []string{s} })
	assert.ErrorIs(t, err, ErrInvalidColumn)
}
