package data

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned by Transform when a transformer has not been
// fitted yet. Callers recover by switching to FitTransform.
var ErrNotFitted = errors.New("transform is not fitted")

// Transformer is a column transform pipeline applied to feature matrices
// before fitting or prediction.
type Transformer interface {
	// Transform applies the fitted transform. Returns ErrNotFitted when the
	// transform has no fitted state yet.
	Transform(X *mat.Dense) (*mat.Dense, error)

	// FitTransform fits the transform on X and applies it.
	FitTransform(X *mat.Dense) (*mat.Dense, error)
}

// StandardScaler centers each column to zero mean and unit variance.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// NewStandardScaler creates an unfitted standard scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(X *mat.Dense) error {
	_, c := X.Dims()
	s.mean = make([]float64, c)
	s.std = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.mean[j] = mean
		s.std[j] = std
	}
	return nil
}

// Transform scales X with the fitted statistics.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	if s.mean == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(s.mean) {
		return nil, fmt.Errorf("input has %d columns, scaler was fitted on %d", c, len(s.mean))
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler on X and scales it.
func (s *StandardScaler) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// MinMaxScaler rescales each column to the [0, 1] range.
type MinMaxScaler struct {
	min []float64
	max []float64
}

// NewMinMaxScaler creates an unfitted min-max scaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit records per-column minima and maxima.
func (s *MinMaxScaler) Fit(X *mat.Dense) error {
	_, c := X.Dims()
	s.min = make([]float64, c)
	s.max = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		s.min[j] = lo
		s.max[j] = hi
	}
	return nil
}

// Transform rescales X with the fitted ranges. Constant columns map to zero.
func (s *MinMaxScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	if s.min == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(s.min) {
		return nil, fmt.Errorf("input has %d columns, scaler was fitted on %d", c, len(s.min))
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			span := s.max[j] - s.min[j]
			if span == 0 {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, (X.At(i, j)-s.min[j])/span)
		}
	}
	return out, nil
}

// FitTransform fits the scaler on X and rescales it.
func (s *MinMaxScaler) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
