package recipe

import (
	"strings"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepInteract = "interact"

// InteractStep derives the elementwise product of two or more numeric
// columns. Categorical columns must be encoded before interaction terms
// reference the resulting indicator columns - step order is the caller's
// responsibility.
type InteractStep struct {
	Columns []string
	OutName string // default: columns joined with "_x_"
}

// InteractState records the validated inputs and output name
type InteractState struct {
	Columns []string
	OutName string
}

func (InteractState) StepKind() string { return stepInteract }

func (s InteractStep) Name() string { return stepInteract }

func (s InteractStep) Params() map[string]any {
	return map[string]any{"columns": strings.Join(s.Columns, ","), "out": s.outName()}
}

func (s InteractStep) outName() string {
	if s.OutName != "" {
		return s.OutName
	}
	return strings.Join(s.Columns, "_x_")
}

func (s InteractStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	if len(s.Columns) < 2 {
		return nil, core.NewColumnNotFoundError("interaction needs at least two columns")
	}
	for _, name := range s.Columns {
		kind, err := t.Schema().KindOf(name)
		if err != nil {
			return nil, err
		}
		if kind != table.Numeric {
			return nil, core.NewColumnNotFoundError(name + " (not numeric)")
		}
	}
	return InteractState{Columns: s.Columns, OutName: s.outName()}, nil
}

func (s InteractStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(InteractState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepInteract)
	}
	product := make([]float64, t.NumRows())
	for i := range product {
		product[i] = 1
	}
	var mask []bool
	for _, name := range st.Columns {
		col, err := t.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		for i, v := range col.Floats {
			if col.IsMissing(i) {
				if mask == nil {
					mask = make([]bool, t.NumRows())
				}
				mask[i] = true
				continue
			}
			product[i] *= v
		}
	}
	return t.WithColumn(table.NewNumeric(st.OutName, product).WithMissing(mask))
}
