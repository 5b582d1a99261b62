// Package ports defines the interfaces the pipeline core depends on:
// pluggable estimators, metric functions, tabular data sources, and
// trial persistence. The core never inspects an implementation's
// internals.
package ports

import (
	"context"

	"tablefit/domain/table"
)

// PredictMode selects the shape of a model's predictions
type PredictMode string

const (
	// ModeNumeric requests continuous predictions in the ".pred" column.
	ModeNumeric PredictMode = "numeric"
	// ModeClass requests hard class labels in the ".pred" column.
	ModeClass PredictMode = "class"
	// ModeProb requests one ".prob_<level>" column per class.
	ModeProb PredictMode = "prob"
)

// PredColumn is the name of the single prediction column in numeric and
// class modes.
const PredColumn = ".pred"

// ProbColumnPrefix prefixes per-class probability columns in prob mode.
const ProbColumnPrefix = ".prob_"

// Estimator is a pluggable model-fitting capability. Implementations are
// black boxes: Train consumes a fully baked feature table plus the
// outcome column and yields an immutable Model.
type Estimator interface {
	Name() string

	// Params returns the estimator's current hyperparameter bindings.
	// Unresolved tunable parameters are absent from the map.
	Params() map[string]any

	// WithParams returns a copy of the estimator with the given
	// hyperparameters bound; the receiver is unchanged.
	WithParams(params map[string]any) (Estimator, error)

	Train(ctx context.Context, features table.Table, outcome table.Column) (Model, error)
}

// Model is an opaque trained artifact, immutable after creation and
// consumed only via Predict.
type Model interface {
	Predict(features table.Table, mode PredictMode) (table.Table, error)
}
