package models

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/storage"
)

// RandomForestClassifier bags bootstrap-sampled decision trees. The
// positive-class probability is the fraction of trees voting 1.
type RandomForestClassifier struct {
	nTrees         int
	maxDepth       int
	minSamplesLeaf int
	seed           int64

	trees []*DecisionTreeClassifier
}

// NewRandomForestClassifier creates a random forest with default
// hyperparameters.
func NewRandomForestClassifier() *RandomForestClassifier {
	return &RandomForestClassifier{nTrees: 25, maxDepth: 5, minSamplesLeaf: 1}
}

// Kind returns KindRandomForest.
func (m *RandomForestClassifier) Kind() Kind { return KindRandomForest }

// SupportsProba reports that vote-fraction probabilities are available.
func (m *RandomForestClassifier) SupportsProba() bool { return true }

// GetParams returns the current hyperparameters.
func (m *RandomForestClassifier) GetParams() Params {
	return Params{
		"n_estimators":     m.nTrees,
		"max_depth":        m.maxDepth,
		"min_samples_leaf": m.minSamplesLeaf,
		"random_state":     int(m.seed),
	}
}

// SetParams overrides hyperparameters.
func (m *RandomForestClassifier) SetParams(p Params) error {
	for key, value := range p {
		var err error
		switch key {
		case "n_estimators":
			m.nTrees, err = asInt(value)
		case "max_depth":
			m.maxDepth, err = asInt(value)
		case "min_samples_leaf":
			m.minSamplesLeaf, err = asInt(value)
		case "random_state":
			var s int
			s, err = asInt(value)
			m.seed = int64(s)
		default:
			return fmt.Errorf("random_forest has no parameter %q", key)
		}
		if err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
	}
	return nil
}

// Fit trains every tree on an independent bootstrap sample of X/y.
func (m *RandomForestClassifier) Fit(X *mat.Dense, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	rng := rand.New(rand.NewSource(m.seed))

	n := m.nTrees
	if n <= 0 {
		n = 25
	}
	m.trees = make([]*DecisionTreeClassifier, 0, n)
	sampleX := mat.NewDense(rows, cols, nil)
	sampleY := make([]float64, rows)
	for t := 0; t < n; t++ {
		for i := 0; i < rows; i++ {
			src := rng.Intn(rows)
			sampleX.SetRow(i, X.RawRowView(src))
			sampleY[i] = y[src]
		}
		tree := NewDecisionTreeClassifier()
		tree.maxDepth = m.maxDepth
		tree.minSamplesLeaf = m.minSamplesLeaf
		if err := tree.Fit(sampleX, sampleY); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
		m.trees = append(m.trees, tree)
	}
	return nil
}

// PredictProba returns the fraction of trees voting 1 for each row of X.
func (m *RandomForestClassifier) PredictProba(X *mat.Dense) ([]float64, error) {
	if len(m.trees) == 0 {
		return nil, fmt.Errorf("random_forest is not fitted")
	}
	rows, _ := X.Dims()
	votes := make([]float64, rows)
	for _, tree := range m.trees {
		labels, err := tree.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, label := range labels {
			votes[i] += label
		}
	}
	for i := range votes {
		votes[i] /= float64(len(m.trees))
	}
	return votes, nil
}

// Predict returns majority-vote 0/1 labels for each row of X.
func (m *RandomForestClassifier) Predict(X *mat.Dense) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// FindBest runs hyperparameter search on X/y and refits with the winner.
func (m *RandomForestClassifier) FindBest(space SearchSpace, X *mat.Dense, y []float64, metric, method string) error {
	return findBestArray(m, space, X, y, metric, method)
}

// FitDataset trains on the train split of a dataset.
func (m *RandomForestClassifier) FitDataset(ds *data.Dataset, cfg FitConfig) error {
	return fitDataset(m, ds, cfg)
}

// FindBestDataset searches hyperparameters on the dataset's train and
// validation splits.
func (m *RandomForestClassifier) FindBestDataset(space SearchSpace, ds *data.Dataset, cfg FitConfig, metric, method string) error {
	return findBestDataset(m, space, ds, cfg, metric, method)
}

// PredictDataset predicts on the test split and writes the prediction
// column in place.
func (m *RandomForestClassifier) PredictDataset(ds *data.Dataset, cfg PredictConfig) (*data.Dataset, error) {
	return predictDataset(m, ds, cfg)
}

type forestState struct {
	NTrees         int         `json:"n_estimators"`
	MaxDepth       int         `json:"max_depth"`
	MinSamplesLeaf int         `json:"min_samples_leaf"`
	Seed           int64       `json:"random_state"`
	Roots          []*treeNode `json:"roots"`
}

// Save persists the fitted forest under name in the store at path.
func (m *RandomForestClassifier) Save(path, name string) error {
	if len(m.trees) == 0 {
		return fmt.Errorf("random_forest is not fitted")
	}
	roots := make([]*treeNode, len(m.trees))
	for i, tree := range m.trees {
		roots[i] = tree.root
	}
	return storage.SaveModel(path, name, forestState{
		NTrees:         m.nTrees,
		MaxDepth:       m.maxDepth,
		MinSamplesLeaf: m.minSamplesLeaf,
		Seed:           m.seed,
		Roots:          roots,
	})
}

// Load restores a fitted forest saved under name in the store at path.
func (m *RandomForestClassifier) Load(path, name string) error {
	var state forestState
	if err := storage.LoadModel(path, name, &state); err != nil {
		return err
	}
	if len(state.Roots) == 0 {
		return fmt.Errorf("saved state for %q has no trees", name)
	}
	m.nTrees = state.NTrees
	m.maxDepth = state.MaxDepth
	m.minSamplesLeaf = state.MinSamplesLeaf
	m.seed = state.Seed
	m.trees = make([]*DecisionTreeClassifier, len(state.Roots))
	for i, root := range state.Roots {
		m.trees[i] = &DecisionTreeClassifier{
			maxDepth:       state.MaxDepth,
			minSamplesLeaf: state.MinSamplesLeaf,
			root:           root,
		}
	}
	return nil
}
