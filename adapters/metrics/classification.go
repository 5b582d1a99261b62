package metrics

import (
	"fmt"

	"tablefit/domain/table"
	"tablefit/ports"
)

// Accuracy is the fraction of correct hard class predictions (higher is
// better)
type Accuracy struct{}

func (Accuracy) Name() string             { return "accuracy" }
func (Accuracy) Polarity() ports.Polarity { return ports.HigherIsBetter }
func (Accuracy) Mode() ports.PredictMode  { return ports.ModeClass }

func (Accuracy) Score(truth table.Column, predictions table.Table) (float64, error) {
	if !truth.Kind.IsCategorical() {
		return 0, fmt.Errorf("metric: truth column %q is not categorical", truth.Name)
	}
	pred, err := predictions.Column(ports.PredColumn)
	if err != nil {
		return 0, err
	}
	if pred.Len() != truth.Len() {
		return 0, fmt.Errorf("metric: %d predictions for %d truths", pred.Len(), truth.Len())
	}
	if truth.Len() == 0 {
		return 0, fmt.Errorf("metric: empty truth column")
	}
	correct := 0
	for i := range truth.Strings {
		if truth.Strings[i] == pred.Strings[i] {
			correct++
		}
	}
	return float64(correct) / float64(truth.Len()), nil
}

// Brier is the mean squared error of class probabilities against the
// one-hot truth (lower is better). A truth level with no probability
// column scores as probability zero.
type Brier struct{}

func (Brier) Name() string             { return "brier" }
func (Brier) Polarity() ports.Polarity { return ports.LowerIsBetter }
func (Brier) Mode() ports.PredictMode  { return ports.ModeProb }

func (Brier) Score(truth table.Column, predictions table.Table) (float64, error) {
	if !truth.Kind.IsCategorical() {
		return 0, fmt.Errorf("metric: truth column %q is not categorical", truth.Name)
	}
	if truth.Len() == 0 {
		return 0, fmt.Errorf("metric: empty truth column")
	}
	probCols := make(map[string]table.Column)
	for _, c := range predictions.Columns() {
		if len(c.Name) > len(ports.ProbColumnPrefix) && c.Name[:len(ports.ProbColumnPrefix)] == ports.ProbColumnPrefix {
			probCols[c.Name[len(ports.ProbColumnPrefix):]] = c
		}
	}
	if len(probCols) == 0 {
		return 0, fmt.Errorf("metric: no probability columns in predictions")
	}
	sum := 0.0
	for i := range truth.Strings {
		for level, col := range probCols {
			target := 0.0
			if truth.Strings[i] == level {
				target = 1
			}
			d := col.Floats[i] - target
			sum += d * d
		}
	}
	return sum / float64(truth.Len()), nil
}
