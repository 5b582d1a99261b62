package recipe

import (
	"time"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepDate = "date"

// DateStep decomposes a datetime column into day-of-week and month
// nominal columns plus a numeric holiday indicator. The original column
// is left in place; remove it with an explicit RemoveStep.
type DateStep struct {
	Column   string
	Holidays []string // calendar dates in 2006-01-02 form
}

// DateState records the column and the holiday calendar
type DateState struct {
	Column   string
	Holidays map[string]bool
}

func (DateState) StepKind() string { return stepDate }

func (s DateStep) Name() string { return stepDate }

func (s DateStep) Params() map[string]any {
	return map[string]any{"column": s.Column, "holidays": len(s.Holidays)}
}

func (s DateStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	kind, err := t.Schema().KindOf(s.Column)
	if err != nil {
		return nil, err
	}
	if kind != table.Datetime {
		return nil, core.NewColumnNotFoundError(s.Column + " (not datetime)")
	}
	holidays := make(map[string]bool, len(s.Holidays))
	for _, d := range s.Holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, core.NewColumnNotFoundError("holiday " + d + " (bad date)")
		}
		holidays[d] = true
	}
	return DateState{Column: s.Column, Holidays: holidays}, nil
}

func (s DateStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(DateState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepDate)
	}
	col, err := t.Column(st.Column)
	if err != nil {
		return table.Table{}, err
	}
	n := col.Len()
	dow := make([]string, n)
	month := make([]string, n)
	holiday := make([]float64, n)
	for i, v := range col.Times {
		if col.IsMissing(i) {
			continue
		}
		dow[i] = v.Weekday().String()[:3]
		month[i] = v.Month().String()[:3]
		if st.Holidays[v.Format("2006-01-02")] {
			holiday[i] = 1
		}
	}
	out, err := t.WithColumn(table.NewNominal(st.Column+"_dow", dow).WithMissing(col.Missing))
	if err != nil {
		return table.Table{}, err
	}
	out, err = out.WithColumn(table.NewNominal(st.Column+"_month", month).WithMissing(col.Missing))
	if err != nil {
		return table.Table{}, err
	}
	return out.WithColumn(table.NewNumeric(st.Column+"_holiday", holiday).WithMissing(col.Missing))
}
