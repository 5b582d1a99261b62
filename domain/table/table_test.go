package table

import (
	"testing"

	"tablefit/domain/core"
)

func sampleTable(t *testing.T) Table {
	t.Helper()
	tbl, err := New(
		NewIdentifier("id", []string{"a", "b", "c", "d"}),
		NewNumeric("x", []float64{1, 2, 3, 4}),
		NewNominal("color", []string{"red", "blue", "red", "green"}),
	)
	if err != nil {
		t.Fatalf("building sample table: %v", err)
	}
	return tbl
}

func TestNewRejectsUnequalLengths(t *testing.T) {
	_, err := New(
		NewNumeric("x", []float64{1, 2, 3}),
		NewNominal("y", []string{"a", "b"}),
	)
	if !core.IsSchemaError(err) {
		t.Fatalf("expected schema error for unequal lengths, got %v", err)
	}
}

func TestSelectMissingColumnFails(t *testing.T) {
	tbl := sampleTable(t)
	_, err := tbl.Select("x", "nope")
	if !core.IsSchemaError(err) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestSelectPreservesRequestedOrder(t *testing.T) {
	tbl := sampleTable(t)
	out, err := tbl.Select("color", "x")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	names := out.Names()
	if len(names) != 2 || names[0] != "color" || names[1] != "x" {
		t.Fatalf("unexpected column order: %v", names)
	}
}

func TestFilterPreservesRowOrder(t *testing.T) {
	tbl := sampleTable(t)
	out := tbl.Filter(func(row int) bool { return row != 1 })
	if out.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.NumRows())
	}
	ids, _ := out.Column("id")
	want := []string{"a", "c", "d"}
	for i, w := range want {
		if ids.Strings[i] != w {
			t.Errorf("row %d: expected id %q, got %q", i, w, ids.Strings[i])
		}
	}
}

func TestWithColumnDoesNotMutateOriginal(t *testing.T) {
	tbl := sampleTable(t)
	derived := NewNumeric("x2", []float64{1, 4, 9, 16})
	out, err := tbl.WithColumn(derived)
	if err != nil {
		t.Fatalf("with column: %v", err)
	}
	if tbl.Has("x2") {
		t.Error("original table should not gain the derived column")
	}
	if !out.Has("x2") {
		t.Error("new table should carry the derived column")
	}
}

func TestWithColumnLengthMismatch(t *testing.T) {
	tbl := sampleTable(t)
	_, err := tbl.WithColumn(NewNumeric("short", []float64{1}))
	if !core.IsSchemaError(err) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestSplitComplement(t *testing.T) {
	tbl := sampleTable(t)
	in, out, err := tbl.Split([]int{2, 0})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	inIDs, _ := in.Column("id")
	if inIDs.Strings[0] != "c" || inIDs.Strings[1] != "a" {
		t.Errorf("split should honor index order, got %v", inIDs.Strings)
	}
	outIDs, _ := out.Column("id")
	if len(outIDs.Strings) != 2 || outIDs.Strings[0] != "b" || outIDs.Strings[1] != "d" {
		t.Errorf("complement should keep original order, got %v", outIDs.Strings)
	}
}

func TestDropUnknownColumnIsNoop(t *testing.T) {
	tbl := sampleTable(t)
	out := tbl.Drop("never_existed")
	if out.NumCols() != tbl.NumCols() {
		t.Errorf("dropping an absent column should be a no-op")
	}
}

func TestRoleMapOutcome(t *testing.T) {
	roles := RoleMap{"x": RoleOutcome, "id": RoleIdentifier}
	name, err := roles.Outcome()
	if err != nil || name != "x" {
		t.Fatalf("expected outcome x, got %q (%v)", name, err)
	}

	conflicting := RoleMap{"x": RoleOutcome, "color": RoleOutcome}
	if _, err := conflicting.Outcome(); err == nil {
		t.Error("expected error for two outcome columns")
	}

	if _, err := (RoleMap{"x": RolePredictor}).Outcome(); err == nil {
		t.Error("expected error for missing outcome")
	}
}

func TestRoleMapValidateIdempotent(t *testing.T) {
	tbl := sampleTable(t)
	roles := RoleMap{"x": RoleOutcome, "id": RoleIdentifier, "color": RolePredictor}
	if err := roles.Validate(tbl.Schema()); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	// Applying the same role map twice yields the same schema view.
	if err := roles.Validate(tbl.Schema()); err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if roles.Of("color") != RolePredictor || roles.Of("derived_later") != RolePredictor {
		t.Error("derived columns must default to the predictor role")
	}
}

func TestSelectorResolution(t *testing.T) {
	tbl := sampleTable(t)
	roles := RoleMap{"x": RoleOutcome, "id": RoleIdentifier}

	names, err := NominalPredictors().Resolve(tbl.Schema(), roles)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(names) != 1 || names[0] != "color" {
		t.Fatalf("expected [color], got %v", names)
	}

	names, err = Not(ByRole(RoleIdentifier)).Resolve(tbl.Schema(), roles)
	if err != nil {
		t.Fatalf("resolve not: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected two non-identifier columns, got %v", names)
	}

	if _, err := ByName("ghost").Resolve(tbl.Schema(), roles); !core.IsSchemaError(err) {
		t.Errorf("expected schema error for unknown name, got %v", err)
	}
}
