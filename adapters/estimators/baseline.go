// Package estimators provides reference implementations of the
// ports.Estimator plug-in interface: an intercept-only baseline, linear
// regression with an optional ridge penalty, and a k-nearest-neighbour
// classifier. The pipeline core treats them as black boxes.
package estimators

import (
	"context"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"tablefit/domain/table"
	"tablefit/ports"
)

func init() {
	gob.Register(&baselineModel{})
	gob.Register(&linearModel{})
	gob.Register(&knnModel{})
}

// Baseline is an intercept-only estimator: it predicts the training mean
// for numeric outcomes and the majority class (with training class
// frequencies as probabilities) for categorical outcomes.
type Baseline struct{}

// NewBaseline creates a baseline estimator
func NewBaseline() Baseline { return Baseline{} }

func (Baseline) Name() string { return "baseline" }

func (Baseline) Params() map[string]any { return map[string]any{} }

func (b Baseline) WithParams(params map[string]any) (ports.Estimator, error) {
	if len(params) > 0 {
		return nil, fmt.Errorf("baseline has no tunable parameters")
	}
	return b, nil
}

func (Baseline) Train(_ context.Context, features table.Table, outcome table.Column) (ports.Model, error) {
	m := &baselineModel{}
	switch outcome.Kind {
	case table.Numeric:
		observed := make([]float64, 0, len(outcome.Floats))
		for i, v := range outcome.Floats {
			if !outcome.IsMissing(i) {
				observed = append(observed, v)
			}
		}
		mean, err := stats.Mean(observed)
		if err != nil {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		m.Numeric = true
		m.Mean = mean
	default:
		counts := make(map[string]int)
		total := 0
		for i, v := range outcome.Strings {
			if outcome.IsMissing(i) {
				continue
			}
			counts[v]++
			total++
		}
		if total == 0 {
			return nil, fmt.Errorf("baseline: empty outcome column")
		}
		m.Freq = make(map[string]float64, len(counts))
		for level, n := range counts {
			m.Freq[level] = float64(n) / float64(total)
		}
		m.Levels = sortedLevels(counts)
		m.Majority = majorityLevel(counts, m.Levels)
	}
	return m, nil
}

type baselineModel struct {
	Numeric  bool
	Mean     float64
	Majority string
	Levels   []string
	Freq     map[string]float64
}

func (m *baselineModel) Predict(features table.Table, mode ports.PredictMode) (table.Table, error) {
	n := features.NumRows()
	switch mode {
	case ports.ModeNumeric:
		if !m.Numeric {
			return table.Table{}, fmt.Errorf("baseline: numeric predictions for a categorical outcome")
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = m.Mean
		}
		return table.New(table.NewNumeric(ports.PredColumn, values))
	case ports.ModeClass:
		if m.Numeric {
			return table.Table{}, fmt.Errorf("baseline: class predictions for a numeric outcome")
		}
		values := make([]string, n)
		for i := range values {
			values[i] = m.Majority
		}
		return table.New(table.NewNominal(ports.PredColumn, values))
	case ports.ModeProb:
		if m.Numeric {
			return table.Table{}, fmt.Errorf("baseline: probability predictions for a numeric outcome")
		}
		cols := make([]table.Column, len(m.Levels))
		for j, level := range m.Levels {
			values := make([]float64, n)
			for i := range values {
				values[i] = m.Freq[level]
			}
			cols[j] = table.NewNumeric(ports.ProbColumnPrefix+level, values)
		}
		return table.New(cols...)
	default:
		return table.Table{}, fmt.Errorf("baseline: unknown predict mode %q", mode)
	}
}

func sortedLevels(counts map[string]int) []string {
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// majorityLevel picks the most frequent level; ties resolve to the
// lexicographically smallest so predictions stay deterministic.
func majorityLevel(counts map[string]int, sorted []string) string {
	best, bestCount := "", -1
	for _, level := range sorted {
		if counts[level] > bestCount {
			best, bestCount = level, counts[level]
		}
	}
	return best
}

// featureMatrix flattens a baked feature table into row-major float64s,
// rejecting non-numeric columns and missing values
func featureMatrix(features table.Table) ([]float64, []string, error) {
	names := features.Names()
	n := features.NumRows()
	data := make([]float64, n*len(names))
	for j, name := range names {
		col, err := features.Column(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Kind != table.Numeric {
			return nil, nil, fmt.Errorf("feature column %q is not numeric; encode it in the recipe", name)
		}
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				return nil, nil, fmt.Errorf("feature column %q has a missing value at row %d", name, i)
			}
			data[i*len(names)+j] = v
		}
	}
	return data, names, nil
}
