package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricUnknown(t *testing.T) {
	_, err := NewMetric("accuracy", "multiclass", 3)
	assert.Error(t, err)

	_, err = NewMetric("mcc", "binary", 1)
	assert.Error(t, err)
}

func TestConfusionMetrics(t *testing.T) {
	preds := []float64{1, 1, 0, 0, 1, 0}
	targets := []float64{1, 0, 0, 1, 1, 0}
	// tp=2 fp=1 tn=2 fn=1

	cases := map[string]float64{
		"accuracy":    4.0 / 6.0,
		"precision":   2.0 / 3.0,
		"recall":      2.0 / 3.0,
		"specificity": 2.0 / 3.0,
		"f1":          2.0 / 3.0,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := NewMetric(name, "binary", 1)
			require.NoError(t, err)
			m.Update(preds, targets)
			assert.InDelta(t, want, m.Compute(), 1e-12)

			m.Reset()
			assert.Equal(t, 0.0, m.Compute())
		})
	}
}

func TestConfusionMetricThresholdsProba(t *testing.T) {
	m, err := NewMetric("accuracy", "binary", 1)
	require.NoError(t, err)
	m.Update([]float64{0.9, 0.2, 0.51}, []float64{1, 0, 1})
	assert.InDelta(t, 1.0, m.Compute(), 1e-12)
}

func TestAUROCPerfectRanking(t *testing.T) {
	m, err := NewMetric("auroc", "binary", 1)
	require.NoError(t, err)
	m.Update([]float64{0.1, 0.2, 0.8, 0.9}, []float64{0, 0, 1, 1})
	assert.InDelta(t, 1.0, m.Compute(), 1e-12)
}

func TestAUROCReversedRanking(t *testing.T) {
	m, err := NewMetric("auroc", "binary", 1)
	require.NoError(t, err)
	m.Update([]float64{0.9, 0.8, 0.2, 0.1}, []float64{0, 0, 1, 1})
	assert.InDelta(t, 0.0, m.Compute(), 1e-12)
}

func TestAUROCTiedScores(t *testing.T) {
	m, err := NewMetric("auroc", "binary", 1)
	require.NoError(t, err)
	m.Update([]float64{0.5, 0.5, 0.5, 0.5}, []float64{0, 1, 0, 1})
	assert.InDelta(t, 0.5, m.Compute(), 1e-12)
}

func TestAUROCDegenerate(t *testing.T) {
	m, err := NewMetric("auroc", "binary", 1)
	require.NoError(t, err)
	m.Update([]float64{0.4, 0.6}, []float64{1, 1})
	assert.Equal(t, 0.0, m.Compute())
}

func TestMetricCollection(t *testing.T) {
	collection, err := NewCollectionFromNames([]string{"accuracy", "f1"}, "binary", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"accuracy", "f1"}, collection.Names())

	collection.Update([]float64{1, 0}, []float64{1, 0})
	scores := collection.Compute()
	assert.InDelta(t, 1.0, scores["accuracy"], 1e-12)
	assert.InDelta(t, 1.0, scores["f1"], 1e-12)

	collection.Reset()
	assert.Equal(t, 0.0, collection.Compute()["accuracy"])
}

func TestMetricCollectionBatchedUpdatesAccumulate(t *testing.T) {
	collection, err := NewCollectionFromNames([]string{"accuracy"}, "binary", 1)
	require.NoError(t, err)

	collection.Update([]float64{1, 1}, []float64{1, 0})
	collection.Update([]float64{0, 0}, []float64{0, 0})
	assert.InDelta(t, 0.75, collection.Compute()["accuracy"], 1e-12)
}

func TestNewCollectionDuplicate(t *testing.T) {
	a, err := NewMetric("accuracy", "binary", 1)
	require.NoError(t, err)
	b, err := NewMetric("accuracy", "binary", 1)
	require.NoError(t, err)

	_, err = NewCollection(a, b)
	assert.Error(t, err)
}
