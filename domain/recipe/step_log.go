package recipe

import (
	"math"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepLog = "log"

// LogStep replaces numeric columns with their elementwise logarithm.
// Base 0 means the natural logarithm. Offset is added before taking the
// log so zero-heavy counts can opt out of the domain error.
type LogStep struct {
	Selector table.Selector
	Base     float64
	Offset   float64
}

// LogState records the resolved target columns
type LogState struct {
	Columns []string
	Base    float64
	Offset  float64
}

func (LogState) StepKind() string { return stepLog }

func (s LogStep) Name() string { return stepLog }

func (s LogStep) Params() map[string]any {
	return map[string]any{"base": s.Base, "offset": s.Offset}
}

func (s LogStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if kind, _ := t.Schema().KindOf(name); kind != table.Numeric {
			return nil, core.NewColumnNotFoundError(name + " (not numeric)")
		}
	}
	return LogState{Columns: names, Base: s.Base, Offset: s.Offset}, nil
}

func (s LogStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(LogState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepLog)
	}
	logBase := 1.0
	if st.Base > 0 {
		logBase = math.Log(st.Base)
	}
	out := t
	for _, name := range st.Columns {
		col, err := out.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		values := make([]float64, len(col.Floats))
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				continue
			}
			shifted := v + st.Offset
			if shifted <= 0 {
				return table.Table{}, core.NewDomainError(stepLog, name, i, v)
			}
			values[i] = math.Log(shifted) / logBase
		}
		out, err = out.WithColumn(table.NewNumeric(name, values).WithMissing(col.Missing))
		if err != nil {
			return table.Table{}, err
		}
	}
	return out, nil
}
