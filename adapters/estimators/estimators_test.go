package estimators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablefit/domain/table"
	"tablefit/ports"
)

func featureTable(t *testing.T, cols ...table.Column) table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func TestBaselineNumericPredictsTrainingMean(t *testing.T) {
	features := featureTable(t, table.NewNumeric("x", []float64{1, 2, 3, 4}))
	outcome := table.NewNumeric("y", []float64{10, 20, 30, 40})

	model, err := NewBaseline().Train(context.Background(), features, outcome)
	require.NoError(t, err)

	preds, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{5, 6})), ports.ModeNumeric)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 25}, col.Floats)
}

func TestBaselineClassPredictsMajority(t *testing.T) {
	features := featureTable(t, table.NewNumeric("x", []float64{1, 2, 3, 4}))
	outcome := table.NewNominal("y", []string{"a", "b", "b", "b"})

	model, err := NewBaseline().Train(context.Background(), features, outcome)
	require.NoError(t, err)

	preds, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{9})), ports.ModeClass)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, col.Strings)

	probs, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{9})), ports.ModeProb)
	require.NoError(t, err)
	pa, err := probs.Column(ports.ProbColumnPrefix + "a")
	require.NoError(t, err)
	pb, err := probs.Column(ports.ProbColumnPrefix + "b")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, pa.Floats[0], 1e-12)
	assert.InDelta(t, 0.75, pb.Floats[0], 1e-12)
}

func TestBaselineMajorityTieIsDeterministic(t *testing.T) {
	features := featureTable(t, table.NewNumeric("x", []float64{1, 2}))
	outcome := table.NewNominal("y", []string{"b", "a"})

	model, err := NewBaseline().Train(context.Background(), features, outcome)
	require.NoError(t, err)

	preds, err := model.Predict(features, ports.ModeClass)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.Equal(t, "a", col.Strings[0])
}

func TestBaselineRejectsParams(t *testing.T) {
	_, err := NewBaseline().WithParams(map[string]any{"anything": 1})
	assert.Error(t, err)
}

func TestLinearRecoversLine(t *testing.T) {
	// y = 2 + 3x, exactly
	x := []float64{1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2 + 3*v
	}
	features := featureTable(t, table.NewNumeric("x", x))
	outcome := table.NewNumeric("y", y)

	model, err := NewLinear().Train(context.Background(), features, outcome)
	require.NoError(t, err)

	preds, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{10})), ports.ModeNumeric)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.InDelta(t, 32.0, col.Floats[0], 1e-8)
}

func TestRidgeShrinksCoefficients(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2.1, 4.2, 5.9, 8.1, 9.8, 12.2}
	features := featureTable(t, table.NewNumeric("x", x))
	outcome := table.NewNumeric("y", y)

	probe := featureTable(t, table.NewNumeric("x", []float64{0, 1}))
	slope := func(est Linear) float64 {
		model, err := est.Train(context.Background(), features, outcome)
		require.NoError(t, err)
		preds, err := model.Predict(probe, ports.ModeNumeric)
		require.NoError(t, err)
		col, err := preds.Column(ports.PredColumn)
		require.NoError(t, err)
		return col.Floats[1] - col.Floats[0]
	}

	ols := slope(NewRidge(0))
	ridge := slope(NewRidge(100))
	assert.Greater(t, ols, ridge)
	assert.Greater(t, ridge, 0.0)
}

func TestLinearWithParamsValidation(t *testing.T) {
	_, err := NewLinear().WithParams(map[string]any{"penalty": -1.0})
	assert.Error(t, err)

	_, err = NewLinear().WithParams(map[string]any{"neighbors": 3})
	assert.Error(t, err)

	est, err := NewLinear().WithParams(map[string]any{"penalty": 0.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"penalty": 0.5}, est.Params())
}

func TestLinearUnderdetermined(t *testing.T) {
	features := featureTable(t,
		table.NewNumeric("a", []float64{1, 2}),
		table.NewNumeric("b", []float64{3, 4}),
	)
	outcome := table.NewNumeric("y", []float64{1, 2})

	_, err := NewLinear().Train(context.Background(), features, outcome)
	assert.Error(t, err)
}

func TestLinearRejectsNominalFeature(t *testing.T) {
	features := featureTable(t,
		table.NewNumeric("x", []float64{1, 2, 3}),
		table.NewNominal("color", []string{"r", "g", "b"}),
	)
	outcome := table.NewNumeric("y", []float64{1, 2, 3})

	_, err := NewLinear().Train(context.Background(), features, outcome)
	assert.Error(t, err)
}

func TestKNNVotes(t *testing.T) {
	// two tight clusters around 0 and 10
	features := featureTable(t, table.NewNumeric("x", []float64{0, 0.1, 0.2, 10, 10.1, 10.2}))
	outcome := table.NewNominal("y", []string{"lo", "lo", "lo", "hi", "hi", "hi"})

	model, err := NewKNNWith(3).Train(context.Background(), features, outcome)
	require.NoError(t, err)

	preds, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{0.05, 9.9})), ports.ModeClass)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"lo", "hi"}, col.Strings)
}

func TestKNNProbabilities(t *testing.T) {
	features := featureTable(t, table.NewNumeric("x", []float64{0, 1, 2, 10}))
	outcome := table.NewNominal("y", []string{"a", "a", "b", "b"})

	model, err := NewKNNWith(3).Train(context.Background(), features, outcome)
	require.NoError(t, err)

	probs, err := model.Predict(featureTable(t, table.NewNumeric("x", []float64{0.5})), ports.ModeProb)
	require.NoError(t, err)
	pa, err := probs.Column(ports.ProbColumnPrefix + "a")
	require.NoError(t, err)
	pb, err := probs.Column(ports.ProbColumnPrefix + "b")
	require.NoError(t, err)
	// neighbours of 0.5 are {0, 1, 2}: two a, one b
	assert.InDelta(t, 2.0/3.0, pa.Floats[0], 1e-12)
	assert.InDelta(t, 1.0/3.0, pb.Floats[0], 1e-12)
}

func TestKNNQueryColumnOrderIrrelevant(t *testing.T) {
	features := featureTable(t,
		table.NewNumeric("a", []float64{0, 0, 5, 5}),
		table.NewNumeric("b", []float64{0, 1, 0, 1}),
	)
	outcome := table.NewNominal("y", []string{"near", "near", "far", "far"})

	model, err := NewKNNWith(1).Train(context.Background(), features, outcome)
	require.NoError(t, err)

	// same query, columns swapped
	swapped := featureTable(t,
		table.NewNumeric("b", []float64{0.9}),
		table.NewNumeric("a", []float64{0.1}),
	)
	preds, err := model.Predict(swapped, ports.ModeClass)
	require.NoError(t, err)
	col, err := preds.Column(ports.PredColumn)
	require.NoError(t, err)
	assert.Equal(t, "near", col.Strings[0])
}

func TestKNNValidation(t *testing.T) {
	features := featureTable(t, table.NewNumeric("x", []float64{1, 2}))

	_, err := NewKNNWith(5).Train(context.Background(), features, table.NewNominal("y", []string{"a", "b"}))
	assert.Error(t, err, "k larger than training rows")

	_, err = NewKNNWith(1).Train(context.Background(), features, table.NewNumeric("y", []float64{1, 2}))
	assert.Error(t, err, "numeric outcome")

	_, err = NewKNN().WithParams(map[string]any{"neighbors": 0})
	assert.Error(t, err)

	_, err = NewKNN().WithParams(map[string]any{"neighbors": 2.5})
	assert.Error(t, err)
}
