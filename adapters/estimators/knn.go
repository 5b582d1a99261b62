package estimators

import (
	"context"
	"fmt"
	"math"
	"sort"

	"tablefit/domain/table"
	"tablefit/ports"
)

// KNN is a k-nearest-neighbour classifier over numeric features. The
// neighbour count is the tunable hyperparameter.
type KNN struct {
	k        int
	resolved bool
}

// NewKNN creates a classifier with an unresolved neighbour count
func NewKNN() KNN { return KNN{} }

// NewKNNWith creates a classifier with k bound
func NewKNNWith(k int) KNN { return KNN{k: k, resolved: true} }

func (KNN) Name() string { return "nearest_neighbor" }

func (e KNN) Params() map[string]any {
	if !e.resolved {
		return map[string]any{}
	}
	return map[string]any{"neighbors": e.k}
}

func (e KNN) WithParams(params map[string]any) (ports.Estimator, error) {
	out := e
	for name, value := range params {
		if name != "neighbors" {
			return nil, fmt.Errorf("nearest_neighbor: unknown parameter %q", name)
		}
		k, ok := toInt(value)
		if !ok || k < 1 {
			return nil, fmt.Errorf("nearest_neighbor: neighbors must be a positive integer, got %v", value)
		}
		out.k = k
		out.resolved = true
	}
	return out, nil
}

func (e KNN) Train(_ context.Context, features table.Table, outcome table.Column) (ports.Model, error) {
	if !outcome.Kind.IsCategorical() {
		return nil, fmt.Errorf("nearest_neighbor: outcome must be categorical")
	}
	k := e.k
	if !e.resolved {
		k = 5
	}
	data, names, err := featureMatrix(features)
	if err != nil {
		return nil, err
	}
	n := features.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("nearest_neighbor: empty training data")
	}
	if k > n {
		return nil, fmt.Errorf("nearest_neighbor: neighbors=%d exceeds %d training rows", k, n)
	}
	labels := make([]string, n)
	counts := make(map[string]int)
	for i, v := range outcome.Strings {
		if outcome.IsMissing(i) {
			return nil, fmt.Errorf("nearest_neighbor: outcome missing at row %d", i)
		}
		labels[i] = v
		counts[v]++
	}
	return &knnModel{
		K:        k,
		Features: names,
		Data:     data,
		Labels:   labels,
		Levels:   sortedLevels(counts),
	}, nil
}

type knnModel struct {
	K        int
	Features []string
	Data     []float64 // row-major training features
	Labels   []string
	Levels   []string
}

func (m *knnModel) Predict(features table.Table, mode ports.PredictMode) (table.Table, error) {
	if mode != ports.ModeClass && mode != ports.ModeProb {
		return table.Table{}, fmt.Errorf("nearest_neighbor: unsupported predict mode %q", mode)
	}
	query, err := alignedMatrix(features, m.Features)
	if err != nil {
		return table.Table{}, err
	}
	n := features.NumRows()
	p := len(m.Features)
	trainRows := len(m.Labels)

	classes := make([]string, n)
	probs := make(map[string][]float64, len(m.Levels))
	for _, level := range m.Levels {
		probs[level] = make([]float64, n)
	}

	type neighbor struct {
		dist  float64
		label string
	}
	for i := 0; i < n; i++ {
		neighbors := make([]neighbor, trainRows)
		for r := 0; r < trainRows; r++ {
			sum := 0.0
			for j := 0; j < p; j++ {
				d := query[i*p+j] - m.Data[r*p+j]
				sum += d * d
			}
			neighbors[r] = neighbor{dist: math.Sqrt(sum), label: m.Labels[r]}
		}
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].dist != neighbors[b].dist {
				return neighbors[a].dist < neighbors[b].dist
			}
			return neighbors[a].label < neighbors[b].label
		})

		votes := make(map[string]int)
		for _, nb := range neighbors[:m.K] {
			votes[nb.label]++
		}
		classes[i] = majorityLevel(votes, m.Levels)
		for _, level := range m.Levels {
			probs[level][i] = float64(votes[level]) / float64(m.K)
		}
	}

	if mode == ports.ModeClass {
		return table.New(table.NewNominal(ports.PredColumn, classes))
	}
	cols := make([]table.Column, len(m.Levels))
	for j, level := range m.Levels {
		cols[j] = table.NewNumeric(ports.ProbColumnPrefix+level, probs[level])
	}
	return table.New(cols...)
}

// alignedMatrix extracts the named columns in training order so query
// features line up with stored neighbours even if the table reorders
func alignedMatrix(features table.Table, names []string) ([]float64, error) {
	n := features.NumRows()
	out := make([]float64, n*len(names))
	for j, name := range names {
		col, err := features.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != table.Numeric {
			return nil, fmt.Errorf("nearest_neighbor: feature %q is not numeric", name)
		}
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				return nil, fmt.Errorf("nearest_neighbor: feature %q missing at row %d", name, i)
			}
			out[i*len(names)+j] = v
		}
	}
	return out, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}
