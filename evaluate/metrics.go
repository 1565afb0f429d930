// Package evaluate provides metric computation and the sliced evaluation
// engine for binary classification tasks. Metrics are built by name through
// a factory, grouped into batch-updatable collections, and scored per data
// slice by the evaluator.
package evaluate

import (
	"fmt"
	"sort"
)

// Metric accumulates prediction/target pairs and computes a single score.
// Predictions may be probabilities; threshold-based metrics cut at 0.5.
type Metric interface {
	Name() string
	Update(preds, targets []float64)
	Compute() float64
	Reset()
}

// NewMetric builds a named metric for the given task type and label
// cardinality. Only the "binary" task is supported.
func NewMetric(name, task string, numLabels int) (Metric, error) {
	if task != "binary" {
		return nil, fmt.Errorf("unsupported task type %q, only binary classification is supported", task)
	}
	switch name {
	case "accuracy", "precision", "recall", "f1", "specificity":
		return &confusionMetric{name: name}, nil
	case "auroc":
		return &aurocMetric{}, nil
	}
	return nil, fmt.Errorf("unknown metric %q, available: accuracy, precision, recall, f1, specificity, auroc", name)
}

// confusionMetric covers every metric derivable from binary confusion
// counts.
type confusionMetric struct {
	name           string
	tp, fp, tn, fn float64
}

func (m *confusionMetric) Name() string { return m.name }

func (m *confusionMetric) Update(preds, targets []float64) {
	for i, p := range preds {
		pred := 0.0
		if p >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && targets[i] == 1:
			m.tp++
		case pred == 1 && targets[i] == 0:
			m.fp++
		case pred == 0 && targets[i] == 0:
			m.tn++
		default:
			m.fn++
		}
	}
}

func (m *confusionMetric) Compute() float64 {
	switch m.name {
	case "accuracy":
		return safeDiv(m.tp+m.tn, m.tp+m.tn+m.fp+m.fn)
	case "precision":
		return safeDiv(m.tp, m.tp+m.fp)
	case "recall":
		return safeDiv(m.tp, m.tp+m.fn)
	case "specificity":
		return safeDiv(m.tn, m.tn+m.fp)
	case "f1":
		precision := safeDiv(m.tp, m.tp+m.fp)
		recall := safeDiv(m.tp, m.tp+m.fn)
		return safeDiv(2*precision*recall, precision+recall)
	}
	return 0
}

func (m *confusionMetric) Reset() {
	m.tp, m.fp, m.tn, m.fn = 0, 0, 0, 0
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// aurocMetric computes the area under the ROC curve from accumulated
// scores, using the rank-statistic formulation with average ranks for ties.
type aurocMetric struct {
	scores  []float64
	targets []float64
}

func (m *aurocMetric) Name() string { return "auroc" }

func (m *aurocMetric) Update(preds, targets []float64) {
	m.scores = append(m.scores, preds...)
	m.targets = append(m.targets, targets...)
}

func (m *aurocMetric) Compute() float64 {
	n := len(m.scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return m.scores[order[a]] < m.scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && m.scores[order[j]] == m.scores[order[i]] {
			j++
		}
		// Tied scores share the average rank of their run.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var nPos, nNeg, rankSum float64
	for i, t := range m.targets {
		if t == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

func (m *aurocMetric) Reset() {
	m.scores = m.scores[:0]
	m.targets = m.targets[:0]
}

// MetricCollection is an ordered set of named metrics updated together.
type MetricCollection struct {
	metrics []Metric
}

// NewCollection groups metrics into a collection. Duplicate names are an
// error.
func NewCollection(metrics ...Metric) (*MetricCollection, error) {
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if seen[m.Name()] {
			return nil, fmt.Errorf("duplicate metric %q in collection", m.Name())
		}
		seen[m.Name()] = true
	}
	return &MetricCollection{metrics: metrics}, nil
}

// NewCollectionFromNames builds every named metric for the task and groups
// them.
func NewCollectionFromNames(names []string, task string, numLabels int) (*MetricCollection, error) {
	metrics := make([]Metric, 0, len(names))
	for _, name := range names {
		m, err := NewMetric(name, task, numLabels)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return NewCollection(metrics...)
}

// Update feeds one batch of predictions and targets to every metric.
func (c *MetricCollection) Update(preds, targets []float64) {
	for _, m := range c.metrics {
		m.Update(preds, targets)
	}
}

// Compute returns the current value of every metric by name.
func (c *MetricCollection) Compute() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Compute()
	}
	return out
}

// Reset clears the accumulated state of every metric.
func (c *MetricCollection) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}

// Names returns the metric names in collection order.
func (c *MetricCollection) Names() []string {
	out := make([]string, len(c.metrics))
	for i, m := range c.metrics {
		out[i] = m.Name()
	}
	return out
}
