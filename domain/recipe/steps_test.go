package recipe

import (
	"math"
	"testing"
	"time"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

func numericTable(t *testing.T, name string, values []float64) table.Table {
	t.Helper()
	tbl, err := table.New(table.NewNumeric(name, values))
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tbl
}

func TestLogStepTransformsAndFailsOutOfDomain(t *testing.T) {
	tbl := numericTable(t, "x", []float64{1, math.E, math.E * math.E})
	step := LogStep{Selector: table.ByName("x")}

	state, err := step.Fit(tbl, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := step.Apply(tbl, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	col, _ := out.Column("x")
	for i, want := range []float64{0, 1, 2} {
		if math.Abs(col.Floats[i]-want) > 1e-12 {
			t.Errorf("row %d: expected %v, got %v", i, want, col.Floats[i])
		}
	}

	bad := numericTable(t, "x", []float64{1, 0, 2})
	if _, err := step.Apply(bad, state); !core.IsTransformError(err) {
		t.Errorf("expected domain error for log of zero, got %v", err)
	}

	// A configured offset admits the zero.
	offset := LogStep{Selector: table.ByName("x"), Offset: 1}
	st, err := offset.Fit(bad, nil)
	if err != nil {
		t.Fatalf("fit with offset: %v", err)
	}
	if _, err := offset.Apply(bad, st); err != nil {
		t.Errorf("offset should admit zero values, got %v", err)
	}
}

func TestApplyBeforeFitFails(t *testing.T) {
	tbl := numericTable(t, "x", []float64{1, 2})
	step := LogStep{Selector: table.ByName("x")}
	if _, err := step.Apply(tbl, nil); !core.IsLifecycleError(err) {
		t.Errorf("applying an unfit step must fail, got %v", err)
	}
}

func TestCollapseStepRareAndNovelLevels(t *testing.T) {
	train := table.MustNew(table.NewNominal("city", []string{
		"springfield", "springfield", "springfield", "springfield",
		"springfield", "springfield", "springfield", "shelbyville",
		"shelbyville", "ogdenville",
	}))
	step := CollapseStep{Selector: table.ByName("city"), Threshold: 0.2, Novel: NovelCollapse}

	state, err := step.Fit(train, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	apply := table.MustNew(table.NewNominal("city", []string{
		"springfield", "ogdenville", "capital_city",
	}))
	out, err := step.Apply(apply, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	col, _ := out.Column("city")
	want := []string{"springfield", "other", "other"}
	for i, w := range want {
		if col.Strings[i] != w {
			t.Errorf("row %d: expected %q, got %q", i, w, col.Strings[i])
		}
	}

	strict := CollapseStep{Selector: table.ByName("city"), Threshold: 0.2, Novel: NovelError}
	st, _ := strict.Fit(train, nil)
	if _, err := strict.Apply(apply, st); !core.IsTransformError(err) {
		t.Errorf("expected unknown level error under strict policy, got %v", err)
	}
}

func TestUnknownStepMapsMissing(t *testing.T) {
	col := table.NewNominal("color", []string{"red", "", "blue"}).
		WithMissing([]bool{false, true, false})
	tbl := table.MustNew(col)
	step := UnknownStep{Selector: table.ByName("color")}

	state, err := step.Fit(tbl, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := step.Apply(tbl, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	c, _ := out.Column("color")
	if c.Strings[1] != DefaultUnknownLevel {
		t.Errorf("expected sentinel, got %q", c.Strings[1])
	}
	if c.IsMissing(1) {
		t.Error("sentinel rows should no longer be missing")
	}
}

func TestDummyStepRoundTrip(t *testing.T) {
	train := table.MustNew(table.NewNominal("y", []string{"C", "A", "B", "A"}))
	step := DummyStep{Selector: table.ByName("y")}

	state, err := step.Fit(train, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	// A table containing only level A bakes to zero indicators for B and
	// C - never an error, never new columns.
	apply := table.MustNew(table.NewNominal("y", []string{"A", "A"}))
	out, err := step.Apply(apply, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	names := out.Names()
	want := []string{"y_A", "y_B", "y_C"}
	if len(names) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, names)
	}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("expected columns %v, got %v", want, names)
		}
	}
	for _, name := range []string{"y_B", "y_C"} {
		c, _ := out.Column(name)
		for i, v := range c.Floats {
			if v != 0 {
				t.Errorf("%s row %d: expected 0, got %v", name, i, v)
			}
		}
	}

	// An unseen level contributes all-zero indicators, no new column.
	novel := table.MustNew(table.NewNominal("y", []string{"D"}))
	out, err = step.Apply(novel, state)
	if err != nil {
		t.Fatalf("apply novel: %v", err)
	}
	if out.NumCols() != 3 {
		t.Errorf("unseen level must never create a column, got %v", out.Names())
	}
	for _, name := range want {
		c, _ := out.Column(name)
		if c.Floats[0] != 0 {
			t.Errorf("%s: expected all-zero indicators for unseen level", name)
		}
	}
}

func TestDummyStepDropFirst(t *testing.T) {
	train := table.MustNew(table.NewNominal("y", []string{"A", "B", "C"}))
	step := DummyStep{Selector: table.ByName("y"), DropFirst: true}
	state, _ := step.Fit(train, nil)
	out, err := step.Apply(train, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Has("y_A") {
		t.Error("drop-first should omit the first level's indicator")
	}
	if !out.Has("y_B") || !out.Has("y_C") {
		t.Errorf("expected y_B and y_C, got %v", out.Names())
	}
}

func TestZeroVarStepDropsOnFutureData(t *testing.T) {
	train := table.MustNew(
		table.NewNumeric("flat", []float64{5, 5, 5}),
		table.NewNumeric("x", []float64{1, 2, 3}),
	)
	step := ZeroVarStep{Selector: table.ByKind(table.Numeric)}
	state, err := step.Fit(train, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	// Future data varies in the dropped column; it is dropped anyway.
	future := table.MustNew(
		table.NewNumeric("flat", []float64{1, 9}),
		table.NewNumeric("x", []float64{4, 5}),
	)
	out, err := step.Apply(future, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Has("flat") {
		t.Error("column constant in training must be dropped regardless of future variance")
	}
	if !out.Has("x") {
		t.Error("varying training column must survive")
	}
}

func TestNormalizeStepCentersAndScales(t *testing.T) {
	train := numericTable(t, "x", []float64{2, 4, 6})
	step := NormalizeStep{Selector: table.ByName("x")}
	state, err := step.Fit(train, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := step.Apply(train, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	col, _ := out.Column("x")
	if math.Abs(col.Floats[1]) > 1e-12 {
		t.Errorf("centered mean value should be 0, got %v", col.Floats[1])
	}
	if math.Abs(col.Floats[2]-1) > 1e-12 {
		t.Errorf("one sd above mean should scale to 1, got %v", col.Floats[2])
	}
}

func TestNormalizeStepDegenerateScale(t *testing.T) {
	train := numericTable(t, "flat", []float64{3, 3, 3})
	step := NormalizeStep{Selector: table.ByName("flat")}
	if _, err := step.Fit(train, nil); !core.IsTransformError(err) {
		t.Errorf("expected degenerate scale error, got %v", err)
	}
}

func TestInteractStepProduct(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("a", []float64{2, 3}),
		table.NewNumeric("b", []float64{10, 100}),
	)
	step := InteractStep{Columns: []string{"a", "b"}}
	state, err := step.Fit(tbl, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := step.Apply(tbl, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	col, err := out.Column("a_x_b")
	if err != nil {
		t.Fatalf("interaction column missing: %v", err)
	}
	if col.Floats[0] != 20 || col.Floats[1] != 300 {
		t.Errorf("unexpected products: %v", col.Floats)
	}
}

func TestDateStepDecomposition(t *testing.T) {
	newYear := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	tuesday := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(table.NewDatetime("booked", []time.Time{newYear, tuesday}))

	step := DateStep{Column: "booked", Holidays: []string{"2024-01-01"}}
	state, err := step.Fit(tbl, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := step.Apply(tbl, state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	dow, _ := out.Column("booked_dow")
	if dow.Strings[0] != "Mon" || dow.Strings[1] != "Tue" {
		t.Errorf("unexpected weekdays: %v", dow.Strings)
	}
	month, _ := out.Column("booked_month")
	if month.Strings[0] != "Jan" || month.Strings[1] != "Jul" {
		t.Errorf("unexpected months: %v", month.Strings)
	}
	holiday, _ := out.Column("booked_holiday")
	if holiday.Floats[0] != 1 || holiday.Floats[1] != 0 {
		t.Errorf("unexpected holiday flags: %v", holiday.Floats)
	}
	if !out.Has("booked") {
		t.Error("original date column is removed by an explicit remove step, not here")
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	train := table.MustNew(
		table.NewNominal("cat", []string{"a", "b", "a", "c"}),
		table.NewNumeric("x", []float64{1, 2, 3, 4}),
	)
	steps := []Step{
		DummyStep{Selector: table.ByName("cat")},
		NormalizeStep{Selector: table.ByName("x")},
	}
	for _, step := range steps {
		state, err := step.Fit(train, nil)
		if err != nil {
			t.Fatalf("%s fit: %v", step.Name(), err)
		}
		first, err := step.Apply(train, state)
		if err != nil {
			t.Fatalf("%s apply: %v", step.Name(), err)
		}
		second, err := step.Apply(train, state)
		if err != nil {
			t.Fatalf("%s second apply: %v", step.Name(), err)
		}
		if len(first.Names()) != len(second.Names()) {
			t.Fatalf("%s: applies disagree on columns", step.Name())
		}
		for _, name := range first.Names() {
			a, _ := first.Column(name)
			b, _ := second.Column(name)
			for i := 0; i < a.Len(); i++ {
				switch a.Kind {
				case table.Numeric:
					if a.Floats[i] != b.Floats[i] {
						t.Fatalf("%s: nondeterministic numeric output in %s", step.Name(), name)
					}
				default:
					if a.Strings[i] != b.Strings[i] {
						t.Fatalf("%s: nondeterministic output in %s", step.Name(), name)
					}
				}
			}
		}
	}
}
