// Package models provides the model handles used by prediction tasks. A
// handle unifies classical tabular estimators behind a single contract
// covering fitting, prediction, hyperparameter search, persistence, and
// parameter introspection, over both raw matrices and split datasets.
package models

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/Adibvafa/cyclops/data"
)

// Kind identifies the estimator family behind a handle.
type Kind string

const (
	KindSGDClassifier      Kind = "sgd_classifier"
	KindLogisticRegression Kind = "logistic_regression"
	KindDecisionTree       Kind = "decision_tree"
	KindRandomForest       Kind = "random_forest"
)

// Params holds estimator hyperparameters keyed by name. Values come from
// YAML config files or search spaces, so numeric values may arrive as int
// or float64.
type Params map[string]any

// FitConfig carries the dataset-level fitting options threaded through by
// the task controller.
type FitConfig struct {
	FeatureColumns []string
	TargetColumns  []string
	Transforms     data.Transformer
	SplitsMapping  map[string]string
}

// PredictConfig carries the dataset-level prediction options. The handle
// writes its predictions onto the resolved split under
// PredictionColumnPrefix.ModelName.
type PredictConfig struct {
	FeatureColumns         []string
	Transforms             data.Transformer
	ModelName              string
	PredictionColumnPrefix string
	Proba                  bool
	SplitsMapping          map[string]string
}

// Model is the handle contract consumed by prediction tasks.
type Model interface {
	// Kind returns the estimator family of the handle.
	Kind() Kind

	// SupportsProba reports whether the handle can produce probability
	// predictions. Decided by the handle itself, checked by callers before
	// requesting probabilities.
	SupportsProba() bool

	// GetParams returns the current hyperparameters.
	GetParams() Params

	// SetParams overrides hyperparameters. Unknown keys are an error.
	SetParams(p Params) error

	// Fit trains on a feature matrix and binary labels.
	Fit(X *mat.Dense, y []float64) error

	// Predict returns hard 0/1 labels for each row of X.
	Predict(X *mat.Dense) ([]float64, error)

	// PredictProba returns positive-class probabilities for each row of X.
	// Handles with SupportsProba() == false return an error.
	PredictProba(X *mat.Dense) ([]float64, error)

	// FindBest searches the space for the best hyperparameters on X/y,
	// then refits the handle with the winner on the full data.
	FindBest(space SearchSpace, X *mat.Dense, y []float64, metric, method string) error

	// FitDataset trains on the train split of a dataset.
	FitDataset(ds *data.Dataset, cfg FitConfig) error

	// FindBestDataset searches hyperparameters using the train split for
	// fitting and the validation split for scoring.
	FindBestDataset(space SearchSpace, ds *data.Dataset, cfg FitConfig, metric, method string) error

	// PredictDataset predicts on the test split and writes the prediction
	// column back onto the dataset, returning it.
	PredictDataset(ds *data.Dataset, cfg PredictConfig) (*data.Dataset, error)

	// Save persists the fitted state under name in the store at path.
	Save(path, name string) error

	// Load restores fitted state saved under name in the store at path.
	Load(path, name string) error
}

// DefaultPredictionPrefix is the column prefix under which per-model
// predictions are written onto a dataset.
const DefaultPredictionPrefix = "predictions"

// trainSplitData resolves the train split and extracts the feature matrix
// and label vector, applying the transform pipeline when present. The
// transform is tried as already-fitted first and fitted on the training
// data otherwise.
func trainSplitData(ds *data.Dataset, cfg FitConfig) (*mat.Dense, []float64, error) {
	table, err := ds.Resolve("train", cfg.SplitsMapping)
	if err != nil {
		return nil, nil, err
	}
	X, err := table.Matrix(cfg.FeatureColumns...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Transforms != nil {
		X, err = applyTransforms(cfg.Transforms, X, false)
		if err != nil {
			return nil, nil, err
		}
	}
	y, err := targetVector(table, cfg.TargetColumns)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// splitData extracts features and labels from one named split without
// applying transforms.
func splitData(ds *data.Dataset, role string, mapping map[string]string, featureCols, targetCols []string) (*mat.Dense, []float64, error) {
	table, err := ds.Resolve(role, mapping)
	if err != nil {
		return nil, nil, err
	}
	X, err := table.Matrix(featureCols...)
	if err != nil {
		return nil, nil, err
	}
	y, err := targetVector(table, targetCols)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

func targetVector(table *data.Table, targetCols []string) ([]float64, error) {
	if len(targetCols) != 1 {
		return nil, fmt.Errorf("binary classification expects exactly one target column, got %v", targetCols)
	}
	return table.Column(targetCols[0])
}

// applyTransforms runs the transform pipeline with the transform-first,
// fit-on-not-fitted fallback shared by every handle.
func applyTransforms(tr data.Transformer, X *mat.Dense, warnOnFit bool) (*mat.Dense, error) {
	out, err := tr.Transform(X)
	if err == nil {
		return out, nil
	}
	if !isNotFitted(err) {
		return nil, err
	}
	if warnOnFit {
		warnFittingTransform()
	}
	return tr.FitTransform(X)
}

// fitDataset is the shared FitDataset implementation.
func fitDataset(m Model, ds *data.Dataset, cfg FitConfig) error {
	X, y, err := trainSplitData(ds, cfg)
	if err != nil {
		return err
	}
	return m.Fit(X, y)
}

// predictDataset is the shared PredictDataset implementation. It resolves
// the test split, predicts, and writes the prediction column in place.
func predictDataset(m Model, ds *data.Dataset, cfg PredictConfig) (*data.Dataset, error) {
	table, err := ds.Resolve("test", cfg.SplitsMapping)
	if err != nil {
		return nil, err
	}
	X, err := table.Matrix(cfg.FeatureColumns...)
	if err != nil {
		return nil, err
	}
	if cfg.Transforms != nil {
		X, err = applyTransforms(cfg.Transforms, X, true)
		if err != nil {
			return nil, err
		}
	}

	var preds []float64
	if cfg.Proba && m.SupportsProba() {
		preds, err = m.PredictProba(X)
	} else {
		preds, err = m.Predict(X)
	}
	if err != nil {
		return nil, err
	}

	prefix := cfg.PredictionColumnPrefix
	if prefix == "" {
		prefix = DefaultPredictionPrefix
	}
	name := cfg.ModelName
	if name == "" {
		name = string(m.Kind())
	}
	if err := table.AddColumn(prefix+"."+name, preds); err != nil {
		return nil, err
	}
	return ds, nil
}

func isNotFitted(err error) bool {
	return errors.Is(err, data.ErrNotFitted)
}

func warnFittingTransform() {
	log.Warn().Msg("transform pipeline was not fitted, fitting it on prediction data")
}

// labelsFromProba thresholds probabilities at 0.5 into hard labels.
func labelsFromProba(proba []float64) []float64 {
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func checkTrainingData(X *mat.Dense, y []float64) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("empty training matrix")
	}
	if r != len(y) {
		return fmt.Errorf("feature matrix has %d rows, labels have %d", r, len(y))
	}
	return nil
}
