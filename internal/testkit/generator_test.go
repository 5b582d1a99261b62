package testkit

import (
	"testing"

	"tablefit/domain/table"
)

func TestRegressionDeterministic(t *testing.T) {
	cfg := DefaultRegressionConfig()
	first, _, err := Regression(cfg)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	second, _, err := Regression(cfg)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	x1, _ := first.Column("x")
	x2, _ := second.Column("x")
	for i := range x1.Floats {
		if x1.Floats[i] != x2.Floats[i] {
			t.Fatalf("row %d differs between generations: %v vs %v", i, x1.Floats[i], x2.Floats[i])
		}
	}
}

func TestRegressionShape(t *testing.T) {
	tbl, roles, err := Regression(DefaultRegressionConfig())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	if tbl.NumRows() != 100 {
		t.Errorf("expected 100 rows, got %d", tbl.NumRows())
	}
	if err := roles.Validate(tbl.Schema()); err != nil {
		t.Errorf("roles do not validate: %v", err)
	}
	outcome, err := roles.Outcome()
	if err != nil || outcome != "y" {
		t.Errorf("expected outcome y, got %q (%v)", outcome, err)
	}

	kind, _ := tbl.Schema().KindOf("segment")
	if kind != table.Nominal {
		t.Errorf("expected segment to be nominal, got %s", kind)
	}
}

func TestRegressionSignal(t *testing.T) {
	cfg := DefaultRegressionConfig()
	cfg.Noise = 0
	tbl, _, err := Regression(cfg)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	x, _ := tbl.Column("x")
	y, _ := tbl.Column("y")
	for i := range x.Floats {
		want := cfg.Intercept + cfg.Slope*x.Floats[i]
		if diff := y.Floats[i] - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("row %d: y=%v, want %v", i, y.Floats[i], want)
		}
	}
}

func TestClassificationBalance(t *testing.T) {
	cfg := DefaultClassificationConfig()
	cfg.Rows = 200
	cfg.Positive = 0.25
	tbl, roles, err := Classification(cfg)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	class, _ := tbl.Column("class")
	positives := 0
	for _, v := range class.Strings {
		if v == "pos" {
			positives++
		}
	}
	if positives != 50 {
		t.Errorf("expected 50 positives, got %d", positives)
	}
	if err := roles.Validate(tbl.Schema()); err != nil {
		t.Errorf("roles do not validate: %v", err)
	}
}

func TestClassificationRejectsBadConfig(t *testing.T) {
	cfg := DefaultClassificationConfig()
	cfg.Positive = 1.5
	if _, _, err := Classification(cfg); err == nil {
		t.Error("expected error for positive fraction above 1")
	}

	cfg = DefaultClassificationConfig()
	cfg.Rows = 1
	if _, _, err := Classification(cfg); err == nil {
		t.Error("expected error for single-row table")
	}
}
