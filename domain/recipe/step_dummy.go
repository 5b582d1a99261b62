package recipe

import (
	"sort"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepDummy = "dummy"

// DummyStep one-hot encodes categorical columns. The level set is learned
// from training data in a stable sorted order; a level present only at
// apply time never creates a column - it contributes all-zero indicators.
type DummyStep struct {
	Selector  table.Selector
	DropFirst bool // drop the first level to avoid collinearity
}

// DummyState holds the per-column training level sets in emission order
type DummyState struct {
	Columns   []string
	Levels    map[string][]string
	DropFirst bool
}

func (DummyState) StepKind() string { return stepDummy }

func (s DummyStep) Name() string { return stepDummy }

func (s DummyStep) Params() map[string]any {
	return map[string]any{"drop_first": s.DropFirst}
}

func (s DummyStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	state := DummyState{
		Columns:   names,
		Levels:    make(map[string][]string, len(names)),
		DropFirst: s.DropFirst,
	}
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if !col.Kind.IsCategorical() {
			return nil, core.NewColumnNotFoundError(name + " (not categorical)")
		}
		distinct := make(map[string]bool)
		for i, v := range col.Strings {
			if !col.IsMissing(i) {
				distinct[v] = true
			}
		}
		levels := make([]string, 0, len(distinct))
		for level := range distinct {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		state.Levels[name] = levels
	}
	return state, nil
}

func (s DummyStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(DummyState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepDummy)
	}
	out := t
	for _, name := range st.Columns {
		col, err := out.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		levels := st.Levels[name]
		emit := levels
		if st.DropFirst && len(emit) > 0 {
			emit = emit[1:]
		}
		for _, level := range emit {
			indicator := make([]float64, col.Len())
			for i, v := range col.Strings {
				if !col.IsMissing(i) && v == level {
					indicator[i] = 1
				}
			}
			out, err = out.WithColumn(table.NewNumeric(name+"_"+level, indicator))
			if err != nil {
				return table.Table{}, err
			}
		}
		out = out.Drop(name)
	}
	return out, nil
}
