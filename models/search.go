package models

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/evaluate"
)

// SearchSpace maps hyperparameter names to the candidate values to try.
type SearchSpace map[string][]any

const (
	// SearchMethodGrid exhaustively enumerates the space.
	SearchMethodGrid = "grid"
	// SearchMethodRandom samples up to maxRandomCandidates combinations.
	SearchMethodRandom = "random"

	maxRandomCandidates = 20
	holdoutFraction     = 0.2
)

// candidates enumerates the parameter combinations for a search method.
func (s SearchSpace) candidates(method string, rng *rand.Rand) ([]Params, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty search space")
	}
	grid := s.expand()
	switch method {
	case SearchMethodGrid, "":
		return grid, nil
	case SearchMethodRandom:
		if len(grid) <= maxRandomCandidates {
			return grid, nil
		}
		rng.Shuffle(len(grid), func(i, j int) { grid[i], grid[j] = grid[j], grid[i] })
		return grid[:maxRandomCandidates], nil
	}
	return nil, fmt.Errorf("unknown search method %q, use %q or %q", method, SearchMethodGrid, SearchMethodRandom)
}

// expand builds the cartesian product of the space in deterministic key
// order.
func (s SearchSpace) expand() []Params {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combos := []Params{{}}
	for _, key := range keys {
		var next []Params
		for _, combo := range combos {
			for _, value := range s[key] {
				grown := make(Params, len(combo)+1)
				for k, v := range combo {
					grown[k] = v
				}
				grown[key] = value
				next = append(next, grown)
			}
		}
		combos = next
	}
	return combos
}

// scoreModel evaluates a fitted model against X/y with a single named
// metric. Probability scores are used when the handle supports them so
// ranking metrics see real scores; otherwise hard labels are scored.
func scoreModel(m Model, X *mat.Dense, y []float64, metric string) (float64, error) {
	var preds []float64
	var err error
	if m.SupportsProba() {
		preds, err = m.PredictProba(X)
	} else {
		preds, err = m.Predict(X)
	}
	if err != nil {
		return 0, err
	}
	met, err := evaluate.NewMetric(metric, "binary", 1)
	if err != nil {
		return 0, err
	}
	met.Update(preds, y)
	return met.Compute(), nil
}

// findBestArray searches the space against X/y using an internal shuffled
// holdout for scoring, then refits the winner on the full data.
func findBestArray(m Model, space SearchSpace, X *mat.Dense, y []float64, metric, method string) error {
	if metric == "" {
		metric = "accuracy"
	}
	rng := rand.New(rand.NewSource(1))
	combos, err := space.candidates(method, rng)
	if err != nil {
		return err
	}

	rows, cols := X.Dims()
	holdout := int(float64(rows) * holdoutFraction)
	if holdout < 1 || rows-holdout < 1 {
		return fmt.Errorf("not enough rows (%d) for a search holdout", rows)
	}
	order := rng.Perm(rows)

	trainX := mat.NewDense(rows-holdout, cols, nil)
	trainY := make([]float64, rows-holdout)
	holdX := mat.NewDense(holdout, cols, nil)
	holdY := make([]float64, holdout)
	for k, i := range order {
		if k < holdout {
			holdX.SetRow(k, X.RawRowView(i))
			holdY[k] = y[i]
		} else {
			trainX.SetRow(k-holdout, X.RawRowView(i))
			trainY[k-holdout] = y[i]
		}
	}

	best, err := selectBest(m, combos, metric, trainX, trainY, holdX, holdY)
	if err != nil {
		return err
	}
	if err := m.SetParams(best); err != nil {
		return err
	}
	return m.Fit(X, y)
}

// findBestDataset searches the space using the train split for fitting and
// the validation split for scoring, then refits the winner on the train
// split.
func findBestDataset(m Model, space SearchSpace, ds *data.Dataset, cfg FitConfig, metric, method string) error {
	if metric == "" {
		metric = "accuracy"
	}
	rng := rand.New(rand.NewSource(1))
	combos, err := space.candidates(method, rng)
	if err != nil {
		return err
	}

	trainX, trainY, err := trainSplitData(ds, cfg)
	if err != nil {
		return err
	}
	valX, valY, err := splitData(ds, "validation", cfg.SplitsMapping, cfg.FeatureColumns, cfg.TargetColumns)
	if err != nil {
		return err
	}
	if cfg.Transforms != nil {
		valX, err = cfg.Transforms.Transform(valX)
		if err != nil {
			return err
		}
	}

	best, err := selectBest(m, combos, metric, trainX, trainY, valX, valY)
	if err != nil {
		return err
	}
	if err := m.SetParams(best); err != nil {
		return err
	}
	return m.Fit(trainX, trainY)
}

// selectBest fits every candidate on the train data and keeps the one with
// the highest metric on the scoring data.
func selectBest(m Model, combos []Params, metric string, trainX *mat.Dense, trainY []float64, scoreX *mat.Dense, scoreY []float64) (Params, error) {
	var best Params
	bestScore := 0.0
	for _, combo := range combos {
		if err := m.SetParams(combo); err != nil {
			return nil, err
		}
		if err := m.Fit(trainX, trainY); err != nil {
			return nil, err
		}
		score, err := scoreModel(m, scoreX, scoreY, metric)
		if err != nil {
			return nil, err
		}
		if best == nil || score > bestScore {
			best = combo
			bestScore = score
		}
	}

	log.Info().
		Str("model", string(m.Kind())).
		Str("metric", metric).
		Float64("score", bestScore).
		Interface("params", best).
		Int("candidates", len(combos)).
		Msg("hyperparameter search finished")

	return best, nil
}
