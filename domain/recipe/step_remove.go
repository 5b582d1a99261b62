package recipe

import (
	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepRemove = "remove"

// RemoveStep drops the selected columns.
type RemoveStep struct {
	Selector table.Selector
}

// RemoveState names the columns to drop
type RemoveState struct {
	Columns []string
}

func (RemoveState) StepKind() string { return stepRemove }

func (s RemoveStep) Name() string { return stepRemove }

func (s RemoveStep) Params() map[string]any { return map[string]any{} }

func (s RemoveStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	return RemoveState{Columns: names}, nil
}

func (s RemoveStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(RemoveState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepRemove)
	}
	return t.Drop(st.Columns...), nil
}
