package models

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separableData builds a linearly separable binary problem: the label is
// decided by the first feature, the rest is noise.
func separableData(t *testing.T, rows, cols int, seed int64) (*mat.Dense, []float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64())
		}
		if X.At(i, 0) > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func accuracyOf(preds, y []float64) float64 {
	correct := 0
	for i, p := range preds {
		label := 0.0
		if p >= 0.5 {
			label = 1
		}
		if label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func TestSGDClassifierLearnsSeparableData(t *testing.T) {
	X, y := separableData(t, 200, 4, 7)

	m := NewSGDClassifier()
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(preds, y), 0.85)

	proba, err := m.PredictProba(X)
	require.NoError(t, err)
	for _, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestSGDClassifierFitValidation(t *testing.T) {
	X := mat.NewDense(3, 2, nil)

	err := NewSGDClassifier().Fit(X, []float64{0, 1})
	assert.Error(t, err)
}

func TestSGDClassifierPredictBeforeFit(t *testing.T) {
	_, err := NewSGDClassifier().Predict(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

func TestSGDClassifierPredictDimensionMismatch(t *testing.T) {
	X, y := separableData(t, 50, 3, 1)
	m := NewSGDClassifier()
	require.NoError(t, m.Fit(X, y))

	_, err := m.Predict(mat.NewDense(5, 4, nil))
	assert.Error(t, err)
}

func TestSGDClassifierParams(t *testing.T) {
	m := NewSGDClassifier()
	require.NoError(t, m.SetParams(Params{"learning_rate": 0.1, "epochs": 10, "random_state": 3}))

	params := m.GetParams()
	assert.Equal(t, 0.1, params["learning_rate"])
	assert.Equal(t, 10, params["epochs"])
	assert.Equal(t, 3, params["random_state"])

	assert.Error(t, m.SetParams(Params{"nope": 1}))
	assert.Error(t, m.SetParams(Params{"epochs": "ten"}))
}

func TestSGDClassifierSaveLoad(t *testing.T) {
	X, y := separableData(t, 120, 4, 11)
	m := NewSGDClassifier()
	require.NoError(t, m.Fit(X, y))

	store := filepath.Join(t.TempDir(), "models.db")
	require.NoError(t, m.Save(store, "sgd"))

	restored := NewSGDClassifier()
	require.NoError(t, restored.Load(store, "sgd"))

	want, err := m.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestSGDClassifierSaveUnfitted(t *testing.T) {
	store := filepath.Join(t.TempDir(), "models.db")
	assert.Error(t, NewSGDClassifier().Save(store, "sgd"))
}
