package ports

import (
	"tablefit/domain/table"
)

// Polarity declares whether larger or smaller metric values are better
type Polarity string

const (
	HigherIsBetter Polarity = "higher"
	LowerIsBetter  Polarity = "lower"
)

// Metric scores predictions against true outcomes. Mode declares which
// prediction shape the metric consumes, so the tuner predicts each mode
// at most once per cell.
type Metric interface {
	Name() string
	Polarity() Polarity
	Mode() PredictMode
	Score(truth table.Column, predictions table.Table) (float64, error)
}
