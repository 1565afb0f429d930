package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	in := fakeState{Weights: []float64{0.1, -0.4}, Bias: 1.5}
	require.NoError(t, store.Save("sgd", in))

	var out fakeState
	require.NoError(t, store.Load("sgd", &out))
	assert.Equal(t, in, out)
}

func TestLoadMissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	var out fakeState
	err = store.Load("nope", &out)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save("sgd", fakeState{Bias: 1}))
	require.NoError(t, store.Save("sgd", fakeState{Bias: 2}))

	var out fakeState
	require.NoError(t, store.Load("sgd", &out))
	assert.Equal(t, 2.0, out.Bias)
}

func TestConvenienceWrappers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	require.NoError(t, SaveModel(path, "tree", fakeState{Bias: 3}))

	var out fakeState
	require.NoError(t, LoadModel(path, "tree", &out))
	assert.Equal(t, 3.0, out.Bias)

	err := LoadModel(path, "missing", &out)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	// bbolt tolerates closing an already closed database.
	assert.NoError(t, store.Close())
}
