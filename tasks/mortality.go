// Package tasks provides task controllers that coordinate model selection,
// training, inference, and sliced evaluation for clinical prediction
// problems over tabular data.
//
// A controller owns a named registry of model handles and tracks which of
// them have been fitted or loaded from storage. It is synchronous and not
// safe for concurrent use; independent controllers share no state.
package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/evaluate"
	"github.com/Adibvafa/cyclops/models"
)

// ErrNotFitted is returned by Predict when the resolved model has neither
// been trained nor loaded as a pretrained model.
var ErrNotFitted = errors.New("model has neither been trained nor loaded as a pretrained model")

// Default task columns for mortality prediction on clinical tabular data.
var (
	DefaultTaskFeatures = []string{"age", "sex", "admission_type", "admission_location"}
	DefaultTaskTarget   = []string{"outcome_death"}
)

// DataSource is the input to Train and Predict: either a raw feature array
// or a structured split dataset. The two variants carry exactly the fields
// their branch needs.
type DataSource interface {
	isDataSource()
}

// ArraySource feeds raw tabular features. Labels are required for training
// and ignored for prediction.
type ArraySource struct {
	Features data.Numeric
	Labels   []float64
}

func (ArraySource) isDataSource() {}

// DatasetSource feeds a structured dataset with named splits. The handle
// resolves the relevant split through the splits mapping and, for
// prediction, writes prediction columns back onto it.
type DatasetSource struct {
	Dataset *data.Dataset
}

func (DatasetSource) isDataSource() {}

// Recorder receives task-level instrumentation events. Implementations
// must be safe to call from the task's goroutine; a nil recorder disables
// instrumentation.
type Recorder interface {
	TrainingsInc()
	TrainingFailuresInc()
	TrainingDurationObserve(seconds float64)
	PredictionsInc()
	PredictionFailuresInc()
	EvaluationsInc()
	EvaluationDurationObserve(seconds float64)
	ModelsRegisteredSet(count float64)
}

// MortalityPrediction is the task controller for binary mortality
// prediction on tabular clinical data.
type MortalityPrediction struct {
	registry     *models.Registry
	taskFeatures []string
	taskTarget   []string

	trained    []string
	trainedSet map[string]bool

	pretrained    []string
	pretrainedSet map[string]bool

	recorder Recorder
}

// Option configures a task controller at construction.
type Option func(*MortalityPrediction)

// WithTaskFeatures overrides the default feature column names.
func WithTaskFeatures(columns ...string) Option {
	return func(t *MortalityPrediction) { t.taskFeatures = columns }
}

// WithTaskTarget overrides the default target column names.
func WithTaskTarget(columns ...string) Option {
	return func(t *MortalityPrediction) { t.taskTarget = columns }
}

// WithRecorder attaches an instrumentation recorder.
func WithRecorder(r Recorder) Option {
	return func(t *MortalityPrediction) { t.recorder = r }
}

// NewMortalityPrediction builds a task controller from one or more model
// specifications. Every resolved handle must belong to the permitted
// classical tabular-classification kinds.
func NewMortalityPrediction(specs []models.Spec, opts ...Option) (*MortalityPrediction, error) {
	registry, err := models.PrepareModels(specs...)
	if err != nil {
		return nil, err
	}

	t := &MortalityPrediction{
		registry:      registry,
		taskFeatures:  DefaultTaskFeatures,
		taskTarget:    DefaultTaskTarget,
		trainedSet:    make(map[string]bool),
		pretrainedSet: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := validateModels(registry); err != nil {
		return nil, err
	}
	t.recordRegistrySize()
	return t, nil
}

// validateModels checks every registered handle against the permitted
// tabular-classification model kinds.
func validateModels(registry *models.Registry) error {
	for _, name := range registry.Names() {
		m, _ := registry.Get(name)
		if !models.IsPermitted(m.Kind()) {
			return fmt.Errorf("model %q has kind %q, which is not a permitted tabular classification model", name, m.Kind())
		}
	}
	return nil
}

// TaskType returns the classification task type.
func (t *MortalityPrediction) TaskType() string { return "binary" }

// DataType returns the task data type.
func (t *MortalityPrediction) DataType() string { return "tabular" }

// ModelsCount returns the number of registered models.
func (t *MortalityPrediction) ModelsCount() int { return t.registry.Len() }

// ListModels returns the registered model names in registration order.
func (t *MortalityPrediction) ListModels() []string { return t.registry.Names() }

// ListModelParams returns every model's hyperparameters keyed by name.
func (t *MortalityPrediction) ListModelParams() map[string]models.Params {
	out := make(map[string]models.Params, t.registry.Len())
	for _, name := range t.registry.Names() {
		m, _ := t.registry.Get(name)
		out[name] = m.GetParams()
	}
	return out
}

// TrainedModels returns the names of models trained in this task.
func (t *MortalityPrediction) TrainedModels() []string {
	out := make([]string, len(t.trained))
	copy(out, t.trained)
	return out
}

// PretrainedModels returns the names of models loaded from storage.
func (t *MortalityPrediction) PretrainedModels() []string {
	out := make([]string, len(t.pretrained))
	copy(out, t.pretrained)
	return out
}

// AddModel merges the given model specs into the registry. When any name
// collides with an existing entry, or a spec is invalid, the failure is
// logged and nothing is mutated; no error is returned.
func (t *MortalityPrediction) AddModel(specs ...models.Spec) {
	incoming, err := models.PrepareModels(specs...)
	if err != nil {
		log.Error().Err(err).Msg("failed to add the model")
		return
	}
	if err := validateModels(incoming); err != nil {
		log.Error().Err(err).Msg("failed to add the model")
		return
	}
	if err := t.registry.Merge(incoming); err != nil {
		log.Error().Err(err).Msg("failed to add the model: a model with the same name already exists")
		return
	}
	t.recordRegistrySize()
	log.Info().Strs("models", incoming.Names()).Msg("added to task models")
}

// GetModel resolves a model by optional name. With a single registered
// model the name may be empty; with several it is required.
func (t *MortalityPrediction) GetModel(modelName string) (string, models.Model, error) {
	if t.registry.Len() > 1 && modelName == "" {
		return "", nil, fmt.Errorf("please specify a model from %v", t.ListModels())
	}
	if modelName != "" {
		m, ok := t.registry.Get(modelName)
		if !ok {
			return "", nil, fmt.Errorf("the model %q does not exist, add it with AddModel; available models: %v", modelName, t.ListModels())
		}
		return modelName, m, nil
	}
	name := t.registry.Names()[0]
	m, _ := t.registry.Get(name)
	return name, m, nil
}

// TrainOptions carries the optional arguments of Train. A non-nil
// SearchSpace switches training to hyperparameter search, with
// SearchMetric and SearchMethod (default "grid") selecting the winner.
type TrainOptions struct {
	ModelName     string
	Transforms    data.Transformer
	SplitsMapping map[string]string
	SearchSpace   models.SearchSpace
	SearchMetric  string
	SearchMethod  string
}

// Train fits the resolved model on the given source and records it as
// trained. Array sources require labels; dataset sources resolve their
// train and validation splits through the splits mapping.
func (t *MortalityPrediction) Train(source DataSource, opts TrainOptions) (models.Model, error) {
	modelName, model, err := t.GetModel(opts.ModelName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	switch src := source.(type) {
	case DatasetSource:
		err = t.trainDataset(model, src.Dataset, opts)
	case ArraySource:
		err = t.trainArray(model, src, opts)
	default:
		err = fmt.Errorf("unsupported data source %T", source)
	}
	if err != nil {
		if t.recorder != nil {
			t.recorder.TrainingFailuresInc()
		}
		return nil, err
	}

	if !t.trainedSet[modelName] {
		t.trainedSet[modelName] = true
		t.trained = append(t.trained, modelName)
	}
	if t.recorder != nil {
		t.recorder.TrainingsInc()
		t.recorder.TrainingDurationObserve(time.Since(start).Seconds())
	}
	log.Info().
		Str("model", modelName).
		Dur("elapsed", time.Since(start)).
		Bool("search", opts.SearchSpace != nil).
		Msg("model trained")
	return model, nil
}

func (t *MortalityPrediction) trainDataset(model models.Model, ds *data.Dataset, opts TrainOptions) error {
	mapping := opts.SplitsMapping
	if mapping == nil {
		mapping = map[string]string{"train": "train", "validation": "validation"}
	}
	cfg := models.FitConfig{
		FeatureColumns: t.taskFeatures,
		TargetColumns:  t.taskTarget,
		Transforms:     opts.Transforms,
		SplitsMapping:  mapping,
	}
	if opts.SearchSpace != nil {
		return model.FindBestDataset(opts.SearchSpace, ds, cfg, opts.SearchMetric, searchMethod(opts))
	}
	return model.FitDataset(ds, cfg)
}

func (t *MortalityPrediction) trainArray(model models.Model, src ArraySource, opts TrainOptions) error {
	if src.Labels == nil {
		return fmt.Errorf("missing data labels: provide labels when training on a raw array instead of a dataset")
	}
	X, err := src.Features.Dense()
	if err != nil {
		return err
	}
	if opts.Transforms != nil {
		X, err = opts.Transforms.Transform(X)
		if err != nil {
			if !errors.Is(err, data.ErrNotFitted) {
				return err
			}
			X, err = opts.Transforms.FitTransform(X)
			if err != nil {
				return err
			}
		}
	}
	rows, _ := X.Dims()
	if rows != len(src.Labels) {
		return fmt.Errorf("features have %d rows but labels have %d", rows, len(src.Labels))
	}
	if opts.SearchSpace != nil {
		return model.FindBest(opts.SearchSpace, X, src.Labels, opts.SearchMetric, searchMethod(opts))
	}
	return model.Fit(X, src.Labels)
}

func searchMethod(opts TrainOptions) string {
	if opts.SearchMethod == "" {
		return models.SearchMethodGrid
	}
	return opts.SearchMethod
}

// LoadPretrainedModel loads saved state into the resolved model from the
// store at path and records it as pretrained.
func (t *MortalityPrediction) LoadPretrainedModel(path, modelName string) (models.Model, error) {
	name, model, err := t.GetModel(modelName)
	if err != nil {
		return nil, err
	}
	if err := model.Load(path, name); err != nil {
		return nil, err
	}
	if !t.pretrainedSet[name] {
		t.pretrainedSet[name] = true
		t.pretrained = append(t.pretrained, name)
	}
	log.Info().Str("model", name).Str("path", path).Msg("loaded pretrained model")
	return model, nil
}

// PredictOptions carries the optional arguments of Predict.
type PredictOptions struct {
	ModelName string
	// Proba requests probability predictions; handles without probability
	// support fall back to plain predictions.
	Proba                  bool
	Transforms             data.Transformer
	PredictionColumnPrefix string
	SplitsMapping          map[string]string
}

// Prediction is the output of Predict: Values for array sources, the
// augmented Dataset for dataset sources.
type Prediction struct {
	Values  []float64
	Dataset *data.Dataset
}

// Predict runs inference with the resolved model, which must be trained or
// pretrained. Dataset sources get prediction columns written onto their
// test split; array sources return raw predictions.
func (t *MortalityPrediction) Predict(source DataSource, opts PredictOptions) (Prediction, error) {
	name, model, err := t.GetModel(opts.ModelName)
	if err != nil {
		return Prediction{}, err
	}
	if !t.trainedSet[name] && !t.pretrainedSet[name] {
		if t.recorder != nil {
			t.recorder.PredictionFailuresInc()
		}
		return Prediction{}, fmt.Errorf("%w: %s", ErrNotFitted, name)
	}
	return t.predict(name, model, source, opts)
}

// predict is the fit-state-agnostic prediction path shared with Evaluate.
func (t *MortalityPrediction) predict(name string, model models.Model, source DataSource, opts PredictOptions) (Prediction, error) {
	var out Prediction
	var err error
	switch src := source.(type) {
	case DatasetSource:
		mapping := opts.SplitsMapping
		if mapping == nil {
			mapping = map[string]string{"test": "test"}
		}
		cfg := models.PredictConfig{
			FeatureColumns:         t.taskFeatures,
			Transforms:             opts.Transforms,
			ModelName:              name,
			PredictionColumnPrefix: opts.PredictionColumnPrefix,
			Proba:                  opts.Proba,
			SplitsMapping:          mapping,
		}
		out.Dataset, err = model.PredictDataset(src.Dataset, cfg)
	case ArraySource:
		out.Values, err = t.predictArray(model, src, opts)
	default:
		err = fmt.Errorf("unsupported data source %T", source)
	}
	if err != nil {
		if t.recorder != nil {
			t.recorder.PredictionFailuresInc()
		}
		return Prediction{}, err
	}
	if t.recorder != nil {
		t.recorder.PredictionsInc()
	}
	return out, nil
}

func (t *MortalityPrediction) predictArray(model models.Model, src ArraySource, opts PredictOptions) ([]float64, error) {
	X, err := src.Features.Dense()
	if err != nil {
		return nil, err
	}
	if opts.Transforms != nil {
		X, err = opts.Transforms.Transform(X)
		if err != nil {
			if !errors.Is(err, data.ErrNotFitted) {
				return nil, err
			}
			log.Warn().Msg("fitting transform pipeline on prediction data")
			X, err = opts.Transforms.FitTransform(X)
			if err != nil {
				return nil, err
			}
		}
	}
	if opts.Proba && model.SupportsProba() {
		return model.PredictProba(X)
	}
	return model.Predict(X)
}

// MetricSpec names the metrics to evaluate: either metric names built
// through the factory, or a pre-built collection.
type MetricSpec struct {
	Names      []string
	Collection *evaluate.MetricCollection
}

// MetricNames builds a MetricSpec from factory metric names.
func MetricNames(names ...string) MetricSpec {
	return MetricSpec{Names: names}
}

// Metrics builds a MetricSpec from a pre-built collection.
func Metrics(c *evaluate.MetricCollection) MetricSpec {
	return MetricSpec{Collection: c}
}

// EvaluateOptions carries the optional arguments of Evaluate. Empty
// ModelNames evaluates every pretrained and trained model.
type EvaluateOptions struct {
	ModelNames             []string
	Transforms             data.Transformer
	PredictionColumnPrefix string
	SplitsMapping          map[string]string
	SliceSpec              *data.SliceSpec
	BatchSize              int
	RemoveColumns          []string
}

// Evaluate predicts with every selected model onto the dataset and scores
// the accumulated prediction columns against the task target, per slice.
// Unlike Predict, models that are neither trained nor pretrained only
// trigger a warning before prediction is attempted.
func (t *MortalityPrediction) Evaluate(ds *data.Dataset, metrics MetricSpec, opts EvaluateOptions) (*evaluate.Results, *data.Dataset, error) {
	collection := metrics.Collection
	if collection == nil {
		if len(metrics.Names) == 0 {
			return nil, nil, fmt.Errorf("no metrics given: provide metric names or a collection")
		}
		var err error
		collection, err = evaluate.NewCollectionFromNames(metrics.Names, t.TaskType(), len(t.taskFeatures))
		if err != nil {
			return nil, nil, err
		}
	}

	modelNames := opts.ModelNames
	if len(modelNames) == 0 {
		modelNames = append(append([]string{}, t.pretrained...), t.trained...)
	}
	if len(modelNames) == 0 {
		return nil, nil, fmt.Errorf("no trained or pretrained models to evaluate")
	}

	start := time.Now()
	for _, modelName := range modelNames {
		name, model, err := t.GetModel(modelName)
		if err != nil {
			return nil, nil, err
		}
		if !t.trainedSet[name] && !t.pretrainedSet[name] {
			log.Warn().Str("model", name).Msg("model has neither been trained nor loaded as pretrained")
		}
		_, err = t.predict(name, model, DatasetSource{Dataset: ds}, PredictOptions{
			Proba:                  true,
			Transforms:             opts.Transforms,
			PredictionColumnPrefix: opts.PredictionColumnPrefix,
			SplitsMapping:          opts.SplitsMapping,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	results, err := evaluate.Evaluate(ds, collection, t.taskTarget, evaluate.Options{
		SliceSpec:              opts.SliceSpec,
		PredictionColumnPrefix: opts.PredictionColumnPrefix,
		BatchSize:              opts.BatchSize,
		SplitsMapping:          opts.SplitsMapping,
		RemoveColumns:          opts.RemoveColumns,
	})
	if err != nil {
		return nil, nil, err
	}
	if t.recorder != nil {
		t.recorder.EvaluationsInc()
		t.recorder.EvaluationDurationObserve(time.Since(start).Seconds())
	}
	return results, ds, nil
}

func (t *MortalityPrediction) recordRegistrySize() {
	if t.recorder != nil {
		t.recorder.ModelsRegisteredSet(float64(t.registry.Len()))
	}
}
