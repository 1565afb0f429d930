package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDecisionTreeLearnsThresholdSplit(t *testing.T) {
	X, y := separableData(t, 150, 4, 3)

	m := NewDecisionTreeClassifier()
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(preds, y), 0.95)
}

func TestDecisionTreeNoProba(t *testing.T) {
	X, y := separableData(t, 60, 2, 5)
	m := NewDecisionTreeClassifier()
	require.NoError(t, m.Fit(X, y))

	assert.False(t, m.SupportsProba())
	_, err := m.PredictProba(X)
	assert.Error(t, err)
}

func TestDecisionTreePureLeaf(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := []float64{1, 1, 1, 1}

	m := NewDecisionTreeClassifier()
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1}, preds)
}

func TestDecisionTreeParams(t *testing.T) {
	m := NewDecisionTreeClassifier()
	require.NoError(t, m.SetParams(Params{"max_depth": 2, "min_samples_leaf": 5}))
	assert.Equal(t, Params{"max_depth": 2, "min_samples_leaf": 5}, m.GetParams())

	assert.Error(t, m.SetParams(Params{"criterion": "entropy"}))
}

func TestDecisionTreePredictBeforeFit(t *testing.T) {
	_, err := NewDecisionTreeClassifier().Predict(mat.NewDense(1, 1, nil))
	assert.Error(t, err)
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	X, y := separableData(t, 100, 3, 9)
	m := NewDecisionTreeClassifier()
	require.NoError(t, m.Fit(X, y))

	store := filepath.Join(t.TempDir(), "models.db")
	require.NoError(t, m.Save(store, "tree"))

	restored := NewDecisionTreeClassifier()
	require.NoError(t, restored.Load(store, "tree"))

	want, err := m.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
