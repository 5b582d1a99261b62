package recipe

import (
	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepUnknown = "unknown"

// DefaultUnknownLevel is the sentinel category missing values map to.
const DefaultUnknownLevel = "unknown"

// UnknownStep maps missing values in categorical columns to an explicit
// sentinel category, so downstream encoders see them as a regular level.
type UnknownStep struct {
	Selector table.Selector
	Sentinel string // DefaultUnknownLevel when empty
}

// UnknownState records the resolved target columns
type UnknownState struct {
	Columns  []string
	Sentinel string
}

func (UnknownState) StepKind() string { return stepUnknown }

func (s UnknownStep) Name() string { return stepUnknown }

func (s UnknownStep) Params() map[string]any {
	return map[string]any{"sentinel": s.sentinel()}
}

func (s UnknownStep) sentinel() string {
	if s.Sentinel == "" {
		return DefaultUnknownLevel
	}
	return s.Sentinel
}

func (s UnknownStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if kind, _ := t.Schema().KindOf(name); !kind.IsCategorical() {
			return nil, core.NewColumnNotFoundError(name + " (not categorical)")
		}
	}
	return UnknownState{Columns: names, Sentinel: s.sentinel()}, nil
}

func (s UnknownStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(UnknownState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepUnknown)
	}
	out := t
	for _, name := range st.Columns {
		col, err := out.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		if col.Missing == nil {
			continue
		}
		values := make([]string, len(col.Strings))
		copy(values, col.Strings)
		for i := range values {
			if col.IsMissing(i) {
				values[i] = st.Sentinel
			}
		}
		replaced := col
		replaced.Strings = values
		replaced.Missing = nil
		out, err = out.WithColumn(replaced)
		if err != nil {
			return table.Table{}, err
		}
	}
	return out, nil
}
