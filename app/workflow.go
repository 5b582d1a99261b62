// Package app composes the pipeline domain into fit/predict workflows
// and hyperparameter tuning runs.
package app

import (
	"context"
	"fmt"

	"tablefit/domain/core"
	"tablefit/domain/recipe"
	"tablefit/domain/table"
	"tablefit/ports"
)

// Workflow binds one recipe and one estimator into a single fit/predict
// unit. The value is immutable: Finalize returns a new workflow.
type Workflow struct {
	Recipe    recipe.Recipe
	Estimator ports.Estimator
}

// NewWorkflow creates a workflow from a recipe and an estimator spec
func NewWorkflow(r recipe.Recipe, est ports.Estimator) Workflow {
	return Workflow{Recipe: r, Estimator: est}
}

// Finalize returns a new unfit workflow with the estimator's tunable
// parameters replaced by concrete values - used after tuning selects a
// winner.
func (w Workflow) Finalize(params map[string]any) (Workflow, error) {
	est, err := w.Estimator.WithParams(params)
	if err != nil {
		return Workflow{}, err
	}
	return Workflow{Recipe: w.Recipe, Estimator: est}, nil
}

// Fit prepares the recipe on the training table, bakes it, and trains
// the estimator on the resulting predictor and outcome columns.
func (w Workflow) Fit(ctx context.Context, train table.Table) (*FittedWorkflow, error) {
	prepared, err := w.Recipe.Prepare(train, recipe.WithRetain())
	if err != nil {
		return nil, err
	}
	baked, err := prepared.BakeTraining()
	if err != nil {
		return nil, err
	}
	outcomeName, err := prepared.Roles.Outcome()
	if err != nil {
		return nil, err
	}
	outcome, err := baked.Column(outcomeName)
	if err != nil {
		return nil, err
	}
	features, err := predictorTable(baked, prepared.Roles, outcomeName)
	if err != nil {
		return nil, err
	}
	model, err := w.Estimator.Train(ctx, features, outcome)
	if err != nil {
		return nil, core.NewEstimatorError(w.Estimator.Name(), err)
	}
	return &FittedWorkflow{
		Prepared: prepared,
		Model:    model,
		Outcome:  outcomeName,
	}, nil
}

// FittedWorkflow owns a prepared recipe and a trained model as a unit:
// predictions require the exact preprocessing that produced the training
// features, so the two are never used independently.
type FittedWorkflow struct {
	Prepared *recipe.PreparedRecipe
	Model    ports.Model
	Outcome  string
}

// Predict bakes the new table through the stored prepared recipe and
// feeds predictors to the stored model. Identifier columns are carried
// into the result alongside the prediction columns.
func (f *FittedWorkflow) Predict(newData table.Table, mode ports.PredictMode) (table.Table, error) {
	if f.Prepared == nil || f.Model == nil {
		return table.Table{}, core.NewNotFittedError("workflow")
	}
	baked, err := f.Prepared.Bake(newData)
	if err != nil {
		return table.Table{}, err
	}
	features, err := predictorTable(baked, f.Prepared.Roles, f.Outcome)
	if err != nil {
		return table.Table{}, err
	}
	preds, err := f.Model.Predict(features, mode)
	if err != nil {
		return table.Table{}, core.NewEstimatorError("predict", err)
	}
	if preds.NumRows() != baked.NumRows() {
		return table.Table{}, fmt.Errorf("%w: model returned %d predictions for %d rows",
			core.ErrEstimator, preds.NumRows(), baked.NumRows())
	}

	cols := make([]table.Column, 0, preds.NumCols()+2)
	for _, name := range f.Prepared.Roles.Identifiers(baked.Schema()) {
		id, err := baked.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		cols = append(cols, id)
	}
	cols = append(cols, preds.Columns()...)
	return table.New(cols...)
}

// predictorTable strips the outcome and identifier columns from a baked
// table; everything remaining is a predictor. The outcome column may be
// absent, as it typically is at predict time.
func predictorTable(baked table.Table, roles table.RoleMap, outcome string) (table.Table, error) {
	var names []string
	for _, f := range baked.Schema() {
		if f.Name == outcome {
			continue
		}
		if roles.Of(f.Name) == table.RoleIdentifier {
			continue
		}
		names = append(names, f.Name)
	}
	if len(names) == 0 {
		return table.Table{}, fmt.Errorf("%w: no predictor columns remain after baking", core.ErrSchema)
	}
	return baked.Select(names...)
}
