// Package metrics implements the ports.Metric interface for the common
// regression and classification scores.
package metrics

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"tablefit/domain/table"
	"tablefit/ports"
)

// numericPair extracts the truth values and the ".pred" column, checking
// lengths and kinds
func numericPair(truth table.Column, predictions table.Table) ([]float64, []float64, error) {
	if truth.Kind != table.Numeric {
		return nil, nil, fmt.Errorf("metric: truth column %q is not numeric", truth.Name)
	}
	pred, err := predictions.Column(ports.PredColumn)
	if err != nil {
		return nil, nil, err
	}
	if pred.Len() != truth.Len() {
		return nil, nil, fmt.Errorf("metric: %d predictions for %d truths", pred.Len(), truth.Len())
	}
	return truth.Floats, pred.Floats, nil
}

// RMSE is root mean squared error (lower is better)
type RMSE struct{}

func (RMSE) Name() string             { return "rmse" }
func (RMSE) Polarity() ports.Polarity { return ports.LowerIsBetter }
func (RMSE) Mode() ports.PredictMode  { return ports.ModeNumeric }

func (RMSE) Score(truth table.Column, predictions table.Table) (float64, error) {
	y, p, err := numericPair(truth, predictions)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range y {
		d := y[i] - p[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y))), nil
}

// MAE is mean absolute error (lower is better)
type MAE struct{}

func (MAE) Name() string             { return "mae" }
func (MAE) Polarity() ports.Polarity { return ports.LowerIsBetter }
func (MAE) Mode() ports.PredictMode  { return ports.ModeNumeric }

func (MAE) Score(truth table.Column, predictions table.Table) (float64, error) {
	y, p, err := numericPair(truth, predictions)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range y {
		sum += math.Abs(y[i] - p[i])
	}
	return sum / float64(len(y)), nil
}

// RSquared is the coefficient of determination (higher is better)
type RSquared struct{}

func (RSquared) Name() string             { return "rsq" }
func (RSquared) Polarity() ports.Polarity { return ports.HigherIsBetter }
func (RSquared) Mode() ports.PredictMode  { return ports.ModeNumeric }

func (RSquared) Score(truth table.Column, predictions table.Table) (float64, error) {
	y, p, err := numericPair(truth, predictions)
	if err != nil {
		return 0, err
	}
	mean, err := stats.Mean(y)
	if err != nil {
		return 0, err
	}
	ssRes, ssTot := 0.0, 0.0
	for i := range y {
		ssRes += (y[i] - p[i]) * (y[i] - p[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		return 0, fmt.Errorf("metric: constant truth column, r-squared undefined")
	}
	return 1 - ssRes/ssTot, nil
}
