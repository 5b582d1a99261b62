package recipe

import (
	"github.com/montanaflynn/stats"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepNormalize = "normalize"

// NormalizeStep centers and scales numeric columns using the training
// mean and standard deviation. A zero-sd column fails the fit with a
// DegenerateScaleError; run the zero-variance filter first if degenerate
// columns are expected.
type NormalizeStep struct {
	Selector table.Selector
}

// NormalizeState holds per-column training mean and standard deviation
type NormalizeState struct {
	Columns []string
	Mean    map[string]float64
	SD      map[string]float64
}

func (NormalizeState) StepKind() string { return stepNormalize }

func (s NormalizeStep) Name() string { return stepNormalize }

func (s NormalizeStep) Params() map[string]any { return map[string]any{} }

func (s NormalizeStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	state := NormalizeState{
		Columns: names,
		Mean:    make(map[string]float64, len(names)),
		SD:      make(map[string]float64, len(names)),
	}
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != table.Numeric {
			return nil, core.NewColumnNotFoundError(name + " (not numeric)")
		}
		observed := make([]float64, 0, len(col.Floats))
		for i, v := range col.Floats {
			if !col.IsMissing(i) {
				observed = append(observed, v)
			}
		}
		mean, err := stats.Mean(observed)
		if err != nil {
			return nil, core.NewDegenerateScaleError(name)
		}
		sd, err := stats.StandardDeviationSample(observed)
		if err != nil || sd == 0 {
			return nil, core.NewDegenerateScaleError(name)
		}
		state.Mean[name] = mean
		state.SD[name] = sd
	}
	return state, nil
}

func (s NormalizeStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(NormalizeState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepNormalize)
	}
	out := t
	for _, name := range st.Columns {
		col, err := out.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		mean, sd := st.Mean[name], st.SD[name]
		values := make([]float64, len(col.Floats))
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				continue
			}
			values[i] = (v - mean) / sd
		}
		out, err = out.WithColumn(table.NewNumeric(name, values).WithMissing(col.Missing))
		if err != nil {
			return table.Table{}, err
		}
	}
	return out, nil
}
