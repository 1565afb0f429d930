package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/storage"
)

// DecisionTreeClassifier is a binary CART classifier using gini impurity.
// It produces hard labels only; SupportsProba is false, so probability
// requests fall back to plain prediction.
type DecisionTreeClassifier struct {
	maxDepth       int
	minSamplesLeaf int

	root *treeNode
}

type treeNode struct {
	Feature     int       `json:"feature"`
	Threshold   float64   `json:"threshold"`
	Left        *treeNode `json:"left,omitempty"`
	Right       *treeNode `json:"right,omitempty"`
	Leaf        bool      `json:"leaf"`
	Label       float64   `json:"label"`
	PosFraction float64   `json:"pos_fraction"`
}

// NewDecisionTreeClassifier creates a decision tree with default
// hyperparameters.
func NewDecisionTreeClassifier() *DecisionTreeClassifier {
	return &DecisionTreeClassifier{maxDepth: 5, minSamplesLeaf: 1}
}

// Kind returns KindDecisionTree.
func (m *DecisionTreeClassifier) Kind() Kind { return KindDecisionTree }

// SupportsProba reports that only hard labels are available.
func (m *DecisionTreeClassifier) SupportsProba() bool { return false }

// GetParams returns the current hyperparameters.
func (m *DecisionTreeClassifier) GetParams() Params {
	return Params{
		"max_depth":        m.maxDepth,
		"min_samples_leaf": m.minSamplesLeaf,
	}
}

// SetParams overrides hyperparameters.
func (m *DecisionTreeClassifier) SetParams(p Params) error {
	for key, value := range p {
		var err error
		switch key {
		case "max_depth":
			m.maxDepth, err = asInt(value)
		case "min_samples_leaf":
			m.minSamplesLeaf, err = asInt(value)
		default:
			return fmt.Errorf("decision_tree has no parameter %q", key)
		}
		if err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
	}
	return nil
}

// Fit grows the tree on X and binary labels y.
func (m *DecisionTreeClassifier) Fit(X *mat.Dense, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	rows, _ := X.Dims()
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	maxDepth := m.maxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}
	m.root = m.grow(X, y, idx, 0, maxDepth)
	return nil
}

func (m *DecisionTreeClassifier) grow(X *mat.Dense, y []float64, idx []int, depth, maxDepth int) *treeNode {
	pos := 0
	for _, i := range idx {
		if y[i] == 1 {
			pos++
		}
	}
	frac := float64(pos) / float64(len(idx))
	leaf := &treeNode{Leaf: true, PosFraction: frac}
	if frac >= 0.5 {
		leaf.Label = 1
	}
	if depth >= maxDepth || pos == 0 || pos == len(idx) || len(idx) < 2*m.minSamplesLeaf {
		return leaf
	}

	feature, threshold, ok := m.bestSplit(X, y, idx)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < m.minSamplesLeaf || len(right) < m.minSamplesLeaf {
		return leaf
	}

	return &treeNode{
		Feature:     feature,
		Threshold:   threshold,
		Left:        m.grow(X, y, left, depth+1, maxDepth),
		Right:       m.grow(X, y, right, depth+1, maxDepth),
		PosFraction: frac,
	}
}

// bestSplit scans midpoints between consecutive distinct feature values and
// returns the split minimizing weighted gini impurity.
func (m *DecisionTreeClassifier) bestSplit(X *mat.Dense, y []float64, idx []int) (int, float64, bool) {
	_, cols := X.Dims()
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := giniImpurity(y, idx)

	values := make([]float64, len(idx))
	for feature := 0; feature < cols; feature++ {
		for k, i := range idx {
			values[k] = X.At(i, feature)
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		prev := sorted[0]
		for _, v := range sorted[1:] {
			if v == prev {
				continue
			}
			threshold := (prev + v) / 2
			prev = v

			score, ok := splitScore(X, y, idx, feature, threshold)
			if ok && score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitScore(X *mat.Dense, y []float64, idx []int, feature int, threshold float64) (float64, bool) {
	var nLeft, posLeft, nRight, posRight float64
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			nLeft++
			posLeft += y[i]
		} else {
			nRight++
			posRight += y[i]
		}
	}
	if nLeft == 0 || nRight == 0 {
		return 0, false
	}
	total := nLeft + nRight
	return (nLeft/total)*giniBinary(posLeft/nLeft) + (nRight/total)*giniBinary(posRight/nRight), true
}

func giniBinary(p float64) float64 {
	return 2 * p * (1 - p)
}

func giniImpurity(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	pos := 0.0
	for _, i := range idx {
		pos += y[i]
	}
	return giniBinary(pos / float64(len(idx)))
}

// predictRow walks the tree for one feature vector.
func (m *DecisionTreeClassifier) predictRow(row []float64) (float64, float64, error) {
	node := m.root
	for !node.Leaf {
		if node.Feature >= len(row) {
			return 0, 0, fmt.Errorf("feature index %d out of range for %d features", node.Feature, len(row))
		}
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Label, node.PosFraction, nil
}

// Predict returns hard 0/1 labels for each row of X.
func (m *DecisionTreeClassifier) Predict(X *mat.Dense) ([]float64, error) {
	if m.root == nil {
		return nil, fmt.Errorf("decision_tree is not fitted")
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		label, _, err := m.predictRow(X.RawRowView(i))
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

// PredictProba is unsupported for decision trees.
func (m *DecisionTreeClassifier) PredictProba(X *mat.Dense) ([]float64, error) {
	return nil, fmt.Errorf("decision_tree does not support probability prediction")
}

// FindBest runs hyperparameter search on X/y and refits with the winner.
func (m *DecisionTreeClassifier) FindBest(space SearchSpace, X *mat.Dense, y []float64, metric, method string) error {
	return findBestArray(m, space, X, y, metric, method)
}

// FitDataset trains on the train split of a dataset.
func (m *DecisionTreeClassifier) FitDataset(ds *data.Dataset, cfg FitConfig) error {
	return fitDataset(m, ds, cfg)
}

// FindBestDataset searches hyperparameters on the dataset's train and
// validation splits.
func (m *DecisionTreeClassifier) FindBestDataset(space SearchSpace, ds *data.Dataset, cfg FitConfig, metric, method string) error {
	return findBestDataset(m, space, ds, cfg, metric, method)
}

// PredictDataset predicts on the test split and writes the prediction
// column in place.
func (m *DecisionTreeClassifier) PredictDataset(ds *data.Dataset, cfg PredictConfig) (*data.Dataset, error) {
	return predictDataset(m, ds, cfg)
}

type treeState struct {
	MaxDepth       int       `json:"max_depth"`
	MinSamplesLeaf int       `json:"min_samples_leaf"`
	Root           *treeNode `json:"root"`
}

// Save persists the fitted tree under name in the store at path.
func (m *DecisionTreeClassifier) Save(path, name string) error {
	if m.root == nil {
		return fmt.Errorf("decision_tree is not fitted")
	}
	return storage.SaveModel(path, name, treeState{
		MaxDepth:       m.maxDepth,
		MinSamplesLeaf: m.minSamplesLeaf,
		Root:           m.root,
	})
}

// Load restores a fitted tree saved under name in the store at path.
func (m *DecisionTreeClassifier) Load(path, name string) error {
	var state treeState
	if err := storage.LoadModel(path, name, &state); err != nil {
		return err
	}
	if state.Root == nil {
		return fmt.Errorf("saved state for %q has no tree", name)
	}
	m.maxDepth = state.MaxDepth
	m.minSamplesLeaf = state.MinSamplesLeaf
	m.root = state.Root
	return nil
}
