package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablefit/adapters/estimators"
	"tablefit/domain/core"
	"tablefit/domain/recipe"
	"tablefit/domain/resample"
	"tablefit/domain/table"
	"tablefit/internal/testkit"
	"tablefit/ports"
)

// pipelineRecipe encodes the nominal predictors, drops datetimes, and
// standardizes everything numeric
func pipelineRecipe(roles table.RoleMap) recipe.Recipe {
	return recipe.New(roles).
		WithStep(recipe.RemoveStep{Selector: table.ByKind(table.Datetime)}).
		WithStep(recipe.DummyStep{Selector: table.NominalPredictors(), DropFirst: true}).
		WithStep(recipe.NormalizeStep{Selector: table.NumericPredictors()})
}

func TestWorkflowEndToEnd(t *testing.T) {
	data, roles, err := testkit.Regression(testkit.DefaultRegressionConfig())
	require.NoError(t, err)

	split, err := resample.InitialSplit(data, 0.5, 1)
	require.NoError(t, err)
	train, err := data.Take(split.Train)
	require.NoError(t, err)
	holdout, err := data.Take(split.Holdout)
	require.NoError(t, err)

	wf := NewWorkflow(pipelineRecipe(roles), estimators.NewRidge(0))
	fitted, err := wf.Fit(context.Background(), train)
	require.NoError(t, err)

	preds, err := fitted.Predict(holdout, ports.ModeNumeric)
	require.NoError(t, err)

	require.Equal(t, holdout.NumRows(), preds.NumRows())
	pred, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	for i := 0; i < pred.Len(); i++ {
		assert.False(t, pred.IsMissing(i), "row %d", i)
	}

	// identifier columns ride along with the predictions
	id, err := preds.Column("id")
	require.NoError(t, err)
	wantID, err := holdout.Column("id")
	require.NoError(t, err)
	assert.Equal(t, wantID.Strings, id.Strings)

	// strong planted signal: predictions track the held-out outcome
	truth, err := holdout.Column("y")
	require.NoError(t, err)
	for i := range truth.Floats {
		assert.InDelta(t, truth.Floats[i], pred.Floats[i], 2.0, "row %d", i)
	}
}

func TestWorkflowClassification(t *testing.T) {
	data, roles, err := testkit.Classification(testkit.DefaultClassificationConfig())
	require.NoError(t, err)

	split, err := resample.StratifiedInitialSplit(data, 0.5, "class", 7)
	require.NoError(t, err)
	train, err := data.Take(split.Train)
	require.NoError(t, err)
	holdout, err := data.Take(split.Holdout)
	require.NoError(t, err)

	rec := recipe.New(roles).
		WithStep(recipe.NormalizeStep{Selector: table.NumericPredictors()})
	wf := NewWorkflow(rec, estimators.NewKNNWith(3))
	fitted, err := wf.Fit(context.Background(), train)
	require.NoError(t, err)

	preds, err := fitted.Predict(holdout, ports.ModeClass)
	require.NoError(t, err)
	pred, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)

	truth, err := holdout.Column("class")
	require.NoError(t, err)
	correct := 0
	for i := range truth.Strings {
		if truth.Strings[i] == pred.Strings[i] {
			correct++
		}
	}
	// the clusters are far apart, near-perfect accuracy is expected
	assert.Greater(t, float64(correct)/float64(truth.Len()), 0.9)
}

func TestWorkflowFinalizeBindsParams(t *testing.T) {
	data, roles, err := testkit.Regression(testkit.DefaultRegressionConfig())
	require.NoError(t, err)

	wf := NewWorkflow(pipelineRecipe(roles), estimators.NewLinear())
	assert.Empty(t, wf.Estimator.Params())

	finalized, err := wf.Finalize(map[string]any{"penalty": 0.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"penalty": 0.5}, finalized.Estimator.Params())
	// original workflow is untouched
	assert.Empty(t, wf.Estimator.Params())

	_, err = finalized.Fit(context.Background(), data)
	require.NoError(t, err)
}

func TestWorkflowFinalizeRejectsUnknownParam(t *testing.T) {
	_, roles, err := testkit.Regression(testkit.DefaultRegressionConfig())
	require.NoError(t, err)

	wf := NewWorkflow(pipelineRecipe(roles), estimators.NewLinear())
	_, err = wf.Finalize(map[string]any{"depth": 3})
	assert.Error(t, err)
}

func TestWorkflowTrainFailureIsEstimatorError(t *testing.T) {
	// two rows cannot identify slope plus intercept plus dummies
	data, err := table.New(
		table.NewNumeric("x", []float64{1, 2}),
		table.NewNumeric("z", []float64{5, 6}),
		table.NewNumeric("y", []float64{1, 2}),
	)
	require.NoError(t, err)
	roles := table.RoleMap{"y": table.RoleOutcome}

	wf := NewWorkflow(recipe.New(roles), estimators.NewRidge(0))
	_, err = wf.Fit(context.Background(), data)
	require.Error(t, err)
	assert.True(t, core.IsEstimatorError(err))
}

func TestPredictOnUnfittedWorkflow(t *testing.T) {
	data, _, err := testkit.Regression(testkit.DefaultRegressionConfig())
	require.NoError(t, err)

	var fitted FittedWorkflow
	_, err = fitted.Predict(data, ports.ModeNumeric)
	require.Error(t, err)
	assert.True(t, core.IsLifecycleError(err))
}

func TestWorkflowNoPredictorsRemaining(t *testing.T) {
	data, err := table.New(
		table.NewNumeric("x", []float64{1, 2, 3}),
		table.NewNumeric("y", []float64{1, 2, 3}),
	)
	require.NoError(t, err)
	roles := table.RoleMap{"y": table.RoleOutcome}

	rec := recipe.New(roles).
		WithStep(recipe.RemoveStep{Selector: table.ByName("x")})
	wf := NewWorkflow(rec, estimators.NewBaseline())
	_, err = wf.Fit(context.Background(), data)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}
