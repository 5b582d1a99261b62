package estimators

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"tablefit/domain/table"
	"tablefit/ports"
)

// Linear fits least squares with an optional ridge penalty. The penalty
// is the canonical tunable hyperparameter: an unresolved Linear reports
// no params, and WithParams binds "penalty" during tuning.
type Linear struct {
	penalty  float64
	resolved bool
}

// NewLinear creates a linear regression estimator with an unresolved
// penalty (ordinary least squares until one is bound)
func NewLinear() Linear { return Linear{} }

// NewRidge creates a linear regression estimator with the penalty bound
func NewRidge(penalty float64) Linear {
	return Linear{penalty: penalty, resolved: true}
}

func (Linear) Name() string { return "linear_reg" }

func (l Linear) Params() map[string]any {
	if !l.resolved {
		return map[string]any{}
	}
	return map[string]any{"penalty": l.penalty}
}

func (l Linear) WithParams(params map[string]any) (ports.Estimator, error) {
	out := l
	for name, value := range params {
		if name != "penalty" {
			return nil, fmt.Errorf("linear_reg: unknown parameter %q", name)
		}
		penalty, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("linear_reg: penalty must be numeric, got %T", value)
		}
		if penalty < 0 {
			return nil, fmt.Errorf("linear_reg: penalty must be non-negative, got %v", penalty)
		}
		out.penalty = penalty
		out.resolved = true
	}
	return out, nil
}

func (l Linear) Train(_ context.Context, features table.Table, outcome table.Column) (ports.Model, error) {
	if outcome.Kind != table.Numeric {
		return nil, fmt.Errorf("linear_reg: outcome must be numeric")
	}
	data, names, err := featureMatrix(features)
	if err != nil {
		return nil, err
	}
	n := features.NumRows()
	p := len(names)
	if n <= p {
		return nil, fmt.Errorf("linear_reg: %d rows cannot identify %d coefficients", n, p+1)
	}

	// Design matrix with a leading intercept column.
	x := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			x.Set(i, j+1, data[i*p+j])
		}
	}
	y := mat.NewVecDense(n, nil)
	for i, v := range outcome.Floats {
		if outcome.IsMissing(i) {
			return nil, fmt.Errorf("linear_reg: outcome has a missing value at row %d", i)
		}
		y.SetVec(i, v)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	if l.penalty > 0 {
		// Ridge penalty on every coefficient except the intercept.
		for j := 1; j <= p; j++ {
			xtx.Set(j, j, xtx.At(j, j)+l.penalty)
		}
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("linear_reg: singular design matrix: %w", err)
	}

	coef := make([]float64, p+1)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	return &linearModel{Features: names, Coef: coef}, nil
}

type linearModel struct {
	Features []string // coefficient order, intercept excluded
	Coef     []float64
}

func (m *linearModel) Predict(features table.Table, mode ports.PredictMode) (table.Table, error) {
	if mode != ports.ModeNumeric {
		return table.Table{}, fmt.Errorf("linear_reg: unsupported predict mode %q", mode)
	}
	n := features.NumRows()
	values := make([]float64, n)
	for i := range values {
		values[i] = m.Coef[0]
	}
	for j, name := range m.Features {
		col, err := features.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		if col.Kind != table.Numeric {
			return table.Table{}, fmt.Errorf("linear_reg: feature %q is not numeric", name)
		}
		w := m.Coef[j+1]
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				return table.Table{}, fmt.Errorf("linear_reg: feature %q missing at row %d", name, i)
			}
			values[i] += w * v
		}
	}
	return table.New(table.NewNumeric(ports.PredColumn, values))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
