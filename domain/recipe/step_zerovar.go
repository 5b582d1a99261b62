package recipe

import (
	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepZeroVar = "zero_variance"

// ZeroVarStep learns which selected columns are constant in the training
// data and drops them at apply time - on any future data, regardless of
// that data's own variance.
type ZeroVarStep struct {
	Selector table.Selector
}

// ZeroVarState names the degenerate columns to drop
type ZeroVarState struct {
	Drop []string
}

func (ZeroVarState) StepKind() string { return stepZeroVar }

func (s ZeroVarStep) Name() string { return stepZeroVar }

func (s ZeroVarStep) Params() map[string]any { return map[string]any{} }

func (s ZeroVarStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	var drop []string
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if isConstant(col) {
			drop = append(drop, name)
		}
	}
	return ZeroVarState{Drop: drop}, nil
}

func (s ZeroVarStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(ZeroVarState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepZeroVar)
	}
	return t.Drop(st.Drop...), nil
}

// isConstant reports whether every non-missing value in the column is
// identical. Columns with at most one observed value count as constant.
func isConstant(col table.Column) bool {
	switch col.Kind {
	case table.Numeric:
		seen := false
		var first float64
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				continue
			}
			if !seen {
				first, seen = v, true
			} else if v != first {
				return false
			}
		}
		return true
	case table.Datetime:
		seen := false
		var first int64
		for i, v := range col.Times {
			if col.IsMissing(i) {
				continue
			}
			if !seen {
				first, seen = v.UnixNano(), true
			} else if v.UnixNano() != first {
				return false
			}
		}
		return true
	default:
		seen := false
		var first string
		for i, v := range col.Strings {
			if col.IsMissing(i) {
				continue
			}
			if !seen {
				first, seen = v, true
			} else if v != first {
				return false
			}
		}
		return true
	}
}
