package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerNotFitted(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})

	_, err := NewStandardScaler().Transform(X)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	scaler := NewStandardScaler()
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += out.At(i, 0)
	}
	assert.InDelta(t, 0, sum, 1e-9)

	// A second Transform reuses the fitted statistics.
	again, err := scaler.Transform(X)
	require.NoError(t, err)
	assert.InDelta(t, out.At(0, 0), again.At(0, 0), 1e-12)
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler()
	_, err := scaler.FitTransform(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	_, err = scaler.Transform(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})

	scaler := NewMinMaxScaler()
	_, err := scaler.Transform(X)
	assert.ErrorIs(t, err, ErrNotFitted)

	out, err := scaler.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.At(0, 0))
	assert.Equal(t, 0.5, out.At(1, 0))
	assert.Equal(t, 1.0, out.At(2, 0))
	// Constant column maps to zero.
	assert.Equal(t, 0.0, out.At(1, 1))
}
