package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adibvafa/cyclops/data"
)

func evalDataset(t *testing.T) *data.Dataset {
	t.Helper()
	table := data.NewTable()
	require.NoError(t, table.AddColumn("sex", []float64{0, 0, 1, 1}))
	require.NoError(t, table.AddColumn("outcome_death", []float64{1, 0, 1, 0}))
	require.NoError(t, table.AddColumn("predictions.sgd", []float64{0.9, 0.1, 0.8, 0.2}))
	require.NoError(t, table.AddColumn("predictions.tree", []float64{1, 1, 1, 1}))

	ds := data.NewDataset()
	ds.AddSplit("test", table)
	return ds
}

func TestEvaluateOverall(t *testing.T) {
	ds := evalDataset(t)
	metrics, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	results, err := Evaluate(ds, metrics, []string{"outcome_death"}, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results.RunID)

	require.Contains(t, results.Metrics, "sgd")
	require.Contains(t, results.Metrics, "tree")
	assert.InDelta(t, 1.0, results.Metrics["sgd"][OverallSlice]["accuracy"], 1e-12)
	assert.InDelta(t, 0.5, results.Metrics["tree"][OverallSlice]["accuracy"], 1e-12)
}

func TestEvaluateWithSlices(t *testing.T) {
	ds := evalDataset(t)
	metrics, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	spec := data.NewSliceSpec(
		data.Slice{Name: "female", Filters: []data.Filter{data.Eq("sex", 1)}},
	)
	results, err := Evaluate(ds, metrics, []string{"outcome_death"}, Options{SliceSpec: spec})
	require.NoError(t, err)

	require.Contains(t, results.Metrics["sgd"], "female")
	assert.InDelta(t, 1.0, results.Metrics["sgd"]["female"]["accuracy"], 1e-12)
	assert.Contains(t, results.Metrics["sgd"], OverallSlice)
}

func TestEvaluateSmallBatches(t *testing.T) {
	ds := evalDataset(t)
	metrics, err := NewCollectionFromNames([]string{"accuracy", "auroc"}, "binary", 1)
	require.NoError(t, err)

	results, err := Evaluate(ds, metrics, []string{"outcome_death"}, Options{BatchSize: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results.Metrics["sgd"][OverallSlice]["accuracy"], 1e-12)
	assert.InDelta(t, 1.0, results.Metrics["sgd"][OverallSlice]["auroc"], 1e-12)
}

func TestEvaluateRemoveColumns(t *testing.T) {
	ds := evalDataset(t)
	metrics, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	results, err := Evaluate(ds, metrics, []string{"outcome_death"}, Options{
		RemoveColumns: []string{"predictions.tree"},
	})
	require.NoError(t, err)
	assert.NotContains(t, results.Metrics, "tree")
	assert.Contains(t, results.Metrics, "sgd")

	// The original dataset keeps the removed column.
	table, err := ds.Split("test")
	require.NoError(t, err)
	assert.True(t, table.HasColumn("predictions.tree"))
}

func TestEvaluateNoPredictions(t *testing.T) {
	table := data.NewTable()
	require.NoError(t, table.AddColumn("outcome_death", []float64{1, 0}))
	ds := data.NewDataset()
	ds.AddSplit("test", table)

	metrics, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	_, err = Evaluate(ds, metrics, []string{"outcome_death"}, Options{})
	assert.Error(t, err)
}

func TestEvaluateValidation(t *testing.T) {
	ds := evalDataset(t)
	metrics, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	_, err = Evaluate(ds, nil, []string{"outcome_death"}, Options{})
	assert.Error(t, err)

	_, err = Evaluate(ds, metrics, nil, Options{})
	assert.Error(t, err)
}
