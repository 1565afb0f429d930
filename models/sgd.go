package models

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/storage"
)

// SGDClassifier is a binary logistic-regression classifier trained by
// mini-batch stochastic gradient descent.
type SGDClassifier struct {
	learningRate float64
	epochs       int
	batchSize    int
	alpha        float64 // L2 penalty
	seed         int64

	weights []float64
	bias    float64
	fitted  bool
}

// NewSGDClassifier creates an SGD classifier with default hyperparameters.
func NewSGDClassifier() *SGDClassifier {
	return &SGDClassifier{
		learningRate: 0.05,
		epochs:       50,
		batchSize:    32,
		alpha:        1e-4,
	}
}

// Kind returns KindSGDClassifier.
func (m *SGDClassifier) Kind() Kind { return KindSGDClassifier }

// SupportsProba reports that probability predictions are available.
func (m *SGDClassifier) SupportsProba() bool { return true }

// GetParams returns the current hyperparameters.
func (m *SGDClassifier) GetParams() Params {
	return Params{
		"learning_rate": m.learningRate,
		"epochs":        m.epochs,
		"batch_size":    m.batchSize,
		"alpha":         m.alpha,
		"random_state":  int(m.seed),
	}
}

// SetParams overrides hyperparameters.
func (m *SGDClassifier) SetParams(p Params) error {
	for key, value := range p {
		var err error
		switch key {
		case "learning_rate":
			m.learningRate, err = asFloat(value)
		case "epochs":
			m.epochs, err = asInt(value)
		case "batch_size":
			m.batchSize, err = asInt(value)
		case "alpha":
			m.alpha, err = asFloat(value)
		case "random_state":
			var s int
			s, err = asInt(value)
			m.seed = int64(s)
		default:
			return fmt.Errorf("sgd_classifier has no parameter %q", key)
		}
		if err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
	}
	return nil
}

// Fit trains the classifier on X and binary labels y.
func (m *SGDClassifier) Fit(X *mat.Dense, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	rng := rand.New(rand.NewSource(m.seed))

	m.weights = make([]float64, cols)
	for j := range m.weights {
		m.weights[j] = rng.NormFloat64() * 0.01
	}
	m.bias = 0

	batch := m.batchSize
	if batch <= 0 || batch > rows {
		batch = rows
	}

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.epochs; epoch++ {
		rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for start := 0; start < rows; start += batch {
			end := start + batch
			if end > rows {
				end = rows
			}
			m.step(X, y, order[start:end])
		}
	}
	m.fitted = true
	return nil
}

// step applies one gradient update over the indexed rows.
func (m *SGDClassifier) step(X *mat.Dense, y []float64, idx []int) {
	cols := len(m.weights)
	gradW := make([]float64, cols)
	gradB := 0.0
	for _, i := range idx {
		row := X.RawRowView(i)
		d := sigmoid(m.score(row)) - y[i]
		for j, x := range row {
			gradW[j] += d * x
		}
		gradB += d
	}
	scale := m.learningRate / float64(len(idx))
	for j := range m.weights {
		m.weights[j] -= scale*gradW[j] + m.learningRate*m.alpha*m.weights[j]
	}
	m.bias -= scale * gradB
}

func (m *SGDClassifier) score(row []float64) float64 {
	s := m.bias
	for j, x := range row {
		s += m.weights[j] * x
	}
	return s
}

// PredictProba returns the positive-class probability for each row of X.
func (m *SGDClassifier) PredictProba(X *mat.Dense) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("sgd_classifier is not fitted")
	}
	rows, cols := X.Dims()
	if cols != len(m.weights) {
		return nil, fmt.Errorf("input has %d features, model was fitted on %d", cols, len(m.weights))
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = sigmoid(m.score(X.RawRowView(i)))
	}
	return out, nil
}

// Predict returns hard 0/1 labels for each row of X.
func (m *SGDClassifier) Predict(X *mat.Dense) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// FindBest runs hyperparameter search on X/y and refits with the winner.
func (m *SGDClassifier) FindBest(space SearchSpace, X *mat.Dense, y []float64, metric, method string) error {
	return findBestArray(m, space, X, y, metric, method)
}

// FitDataset trains on the train split of a dataset.
func (m *SGDClassifier) FitDataset(ds *data.Dataset, cfg FitConfig) error {
	return fitDataset(m, ds, cfg)
}

// FindBestDataset searches hyperparameters on the dataset's train and
// validation splits.
func (m *SGDClassifier) FindBestDataset(space SearchSpace, ds *data.Dataset, cfg FitConfig, metric, method string) error {
	return findBestDataset(m, space, ds, cfg, metric, method)
}

// PredictDataset predicts on the test split and writes the prediction
// column in place.
func (m *SGDClassifier) PredictDataset(ds *data.Dataset, cfg PredictConfig) (*data.Dataset, error) {
	return predictDataset(m, ds, cfg)
}

type sgdState struct {
	LearningRate float64   `json:"learning_rate"`
	Epochs       int       `json:"epochs"`
	BatchSize    int       `json:"batch_size"`
	Alpha        float64   `json:"alpha"`
	Seed         int64     `json:"random_state"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Save persists the fitted state under name in the store at path.
func (m *SGDClassifier) Save(path, name string) error {
	if !m.fitted {
		return fmt.Errorf("sgd_classifier is not fitted")
	}
	return storage.SaveModel(path, name, sgdState{
		LearningRate: m.learningRate,
		Epochs:       m.epochs,
		BatchSize:    m.batchSize,
		Alpha:        m.alpha,
		Seed:         m.seed,
		Weights:      m.weights,
		Bias:         m.bias,
	})
}

// Load restores fitted state saved under name in the store at path.
func (m *SGDClassifier) Load(path, name string) error {
	var state sgdState
	if err := storage.LoadModel(path, name, &state); err != nil {
		return err
	}
	if len(state.Weights) == 0 {
		return fmt.Errorf("saved state for %q has no weights", name)
	}
	m.learningRate = state.LearningRate
	m.epochs = state.Epochs
	m.batchSize = state.BatchSize
	m.alpha = state.Alpha
	m.seed = state.Seed
	m.weights = state.Weights
	m.bias = state.Bias
	m.fitted = true
	return nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
