package evaluate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Adibvafa/cyclops/data"
)

// DefaultBatchSize is the number of rows fed to the metric collection per
// update.
const DefaultBatchSize = 1000

// OverallSlice names the implicit slice covering every row.
const OverallSlice = "overall"

// Options carries the optional arguments of Evaluate.
type Options struct {
	// SliceSpec declares extra data subsets to score; the overall slice is
	// always scored.
	SliceSpec *data.SliceSpec

	// PredictionColumnPrefix locates per-model prediction columns,
	// defaulting to "predictions".
	PredictionColumnPrefix string

	// BatchSize is the metric update batch size, defaulting to
	// DefaultBatchSize.
	BatchSize int

	// SplitsMapping maps the "test" role to the split holding the
	// predictions.
	SplitsMapping map[string]string

	// RemoveColumns are dropped from the table before evaluation.
	RemoveColumns []string
}

// Results maps model name to slice name to metric name to value.
type Results struct {
	RunID   string
	Metrics map[string]map[string]map[string]float64
}

// Evaluate scores every prediction column of the dataset's test split
// against the target column, per slice. Prediction columns are discovered
// by prefix; each one was written by a model under prefix.model.
func Evaluate(ds *data.Dataset, metrics *MetricCollection, targetColumns []string, opts Options) (*Results, error) {
	if metrics == nil {
		return nil, fmt.Errorf("no metrics to evaluate")
	}
	if len(targetColumns) != 1 {
		return nil, fmt.Errorf("binary evaluation expects exactly one target column, got %v", targetColumns)
	}
	prefix := opts.PredictionColumnPrefix
	if prefix == "" {
		prefix = "predictions"
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	table, err := ds.Resolve("test", opts.SplitsMapping)
	if err != nil {
		return nil, err
	}
	if len(opts.RemoveColumns) > 0 {
		table = table.WithoutColumns(opts.RemoveColumns...)
	}

	predColumns := table.ColumnsWithPrefix(prefix)
	if len(predColumns) == 0 {
		return nil, fmt.Errorf("no prediction columns with prefix %q, run predict first", prefix)
	}
	targets, err := table.Column(targetColumns[0])
	if err != nil {
		return nil, err
	}

	slices := []data.Slice{{Name: OverallSlice}}
	slices = append(slices, opts.SliceSpec.Slices()...)

	results := &Results{
		RunID:   uuid.NewString(),
		Metrics: make(map[string]map[string]map[string]float64, len(predColumns)),
	}
	for _, column := range predColumns {
		modelName := strings.TrimPrefix(column, prefix+".")
		preds, err := table.Column(column)
		if err != nil {
			return nil, err
		}

		perSlice := make(map[string]map[string]float64, len(slices))
		for _, slice := range slices {
			mask, err := slice.Mask(table)
			if err != nil {
				return nil, err
			}
			scores, n := scoreSlice(metrics, preds, targets, mask, batchSize)
			perSlice[slice.Name] = scores
			log.Debug().
				Str("model", modelName).
				Str("slice", slice.Name).
				Int("rows", n).
				Msg("scored slice")
		}
		results.Metrics[modelName] = perSlice
	}

	log.Info().
		Str("run_id", results.RunID).
		Int("models", len(predColumns)).
		Int("slices", len(slices)).
		Strs("metrics", metrics.Names()).
		Msg("evaluation finished")

	return results, nil
}

// scoreSlice feeds the masked rows through the collection in batches and
// computes the final values. Returns the scores and the slice row count.
func scoreSlice(metrics *MetricCollection, preds, targets []float64, mask []bool, batchSize int) (map[string]float64, int) {
	metrics.Reset()

	var slicePreds, sliceTargets []float64
	for i, keep := range mask {
		if !keep {
			continue
		}
		slicePreds = append(slicePreds, preds[i])
		sliceTargets = append(sliceTargets, targets[i])
		if len(slicePreds) == batchSize {
			metrics.Update(slicePreds, sliceTargets)
			slicePreds = slicePreds[:0]
			sliceTargets = sliceTargets[:0]
		}
	}
	if len(slicePreds) > 0 {
		metrics.Update(slicePreds, sliceTargets)
	}

	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	return metrics.Compute(), n
}
