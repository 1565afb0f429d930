package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAddColumn(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("age", []float64{1, 2, 3}))
	require.NoError(t, table.AddColumn("sex", []float64{0, 1, 0}))

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, 2, table.NumColumns())
	assert.Equal(t, []string{"age", "sex"}, table.ColumnNames())

	err := table.AddColumn("bad", []float64{1, 2})
	assert.Error(t, err)
}

func TestTableAddColumnReplacesExisting(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("a", []float64{1, 2}))
	require.NoError(t, table.AddColumn("a", []float64{3, 4}))

	values, err := table.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, values)
	assert.Equal(t, 1, table.NumColumns())
}

func TestTableMatrix(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("a", []float64{1, 2}))
	require.NoError(t, table.AddColumn("b", []float64{3, 4}))

	m, err := table.Matrix("b", "a")
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))

	_, err = table.Matrix("missing")
	assert.Error(t, err)
}

func TestTableColumnsWithPrefix(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("predictions.sgd", []float64{1}))
	require.NoError(t, table.AddColumn("predictions.tree", []float64{0}))
	require.NoError(t, table.AddColumn("age", []float64{50}))

	assert.Equal(t, []string{"predictions.sgd", "predictions.tree"}, table.ColumnsWithPrefix("predictions"))
	assert.Empty(t, table.ColumnsWithPrefix("other"))
}

func TestTableSelect(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("a", []float64{1, 2, 3}))

	subset, err := table.Select([]bool{true, false, true})
	require.NoError(t, err)
	values, err := subset.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, values)

	_, err = table.Select([]bool{true})
	assert.Error(t, err)
}

func TestTableWithoutColumns(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("a", []float64{1}))
	require.NoError(t, table.AddColumn("b", []float64{2}))

	trimmed := table.WithoutColumns("a")
	assert.Equal(t, []string{"b"}, trimmed.ColumnNames())
	assert.Equal(t, []string{"a", "b"}, table.ColumnNames())
}

func TestRowsDense(t *testing.T) {
	m, err := Rows{{1, 2}, {3, 4}}.Dense()
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(1, 1))

	_, err = Rows{{1, 2}, {3}}.Dense()
	assert.Error(t, err)

	_, err = Rows{}.Dense()
	assert.Error(t, err)
}

func TestDatasetResolve(t *testing.T) {
	train := NewTable()
	require.NoError(t, train.AddColumn("a", []float64{1}))
	eval := NewTable()
	require.NoError(t, eval.AddColumn("a", []float64{2}))

	ds := NewDataset()
	ds.AddSplit("training", train)
	ds.AddSplit("holdout", eval)

	got, err := ds.Resolve("test", map[string]string{"test": "holdout"})
	require.NoError(t, err)
	assert.Same(t, eval, got)

	_, err = ds.Resolve("test", nil)
	assert.Error(t, err)
}

func TestDatasetResolveSingleSplitFallback(t *testing.T) {
	only := NewTable()
	require.NoError(t, only.AddColumn("a", []float64{1}))

	ds := NewDataset()
	ds.AddSplit("full", only)

	got, err := ds.Resolve("test", nil)
	require.NoError(t, err)
	assert.Same(t, only, got)
}
