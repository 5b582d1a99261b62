// Package testkit generates seeded synthetic tables with known planted
// relationships, so pipeline tests can assert that fitting recovers
// them.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"tablefit/domain/table"
)

// RegressionConfig configures the synthetic regression table generator
type RegressionConfig struct {
	Rows      int
	Intercept float64
	Slope     float64
	Noise     float64 // stddev of Gaussian noise added to the outcome
	Segments  []string
	Seed      int64
}

// DefaultRegressionConfig returns a small table with a strong linear
// signal
func DefaultRegressionConfig() RegressionConfig {
	return RegressionConfig{
		Rows:      100,
		Intercept: 2,
		Slope:     3,
		Noise:     0.25,
		Segments:  []string{"retail", "wholesale", "online"},
		Seed:      42,
	}
}

// Regression generates a table with columns id (identifier), x
// (numeric), segment (nominal), signup (datetime) and outcome y where
// y = intercept + slope*x + noise. Same config, same table.
func Regression(cfg RegressionConfig) (table.Table, table.RoleMap, error) {
	if cfg.Rows < 1 {
		return table.Table{}, nil, fmt.Errorf("testkit: rows must be positive, got %d", cfg.Rows)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	ids := make([]string, cfg.Rows)
	xs := make([]float64, cfg.Rows)
	segments := make([]string, cfg.Rows)
	signups := make([]time.Time, cfg.Rows)
	ys := make([]float64, cfg.Rows)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < cfg.Rows; i++ {
		ids[i] = fmt.Sprintf("row_%04d", i+1)
		xs[i] = rng.Float64() * 10
		segments[i] = cfg.Segments[rng.Intn(len(cfg.Segments))]
		signups[i] = start.AddDate(0, 0, rng.Intn(365))
		ys[i] = cfg.Intercept + cfg.Slope*xs[i] + rng.NormFloat64()*cfg.Noise
	}

	tbl, err := table.New(
		table.NewIdentifier("id", ids),
		table.NewNumeric("x", xs),
		table.NewNominal("segment", segments),
		table.NewDatetime("signup", signups),
		table.NewNumeric("y", ys),
	)
	if err != nil {
		return table.Table{}, nil, err
	}
	roles := table.RoleMap{
		"id": table.RoleIdentifier,
		"y":  table.RoleOutcome,
	}
	return tbl, roles, nil
}

// ClassificationConfig configures the synthetic classification table
// generator
type ClassificationConfig struct {
	Rows       int
	Separation float64 // distance between the class centers
	Spread     float64 // stddev within a class
	Positive   float64 // fraction of rows in class "pos"
	Seed       int64
}

// DefaultClassificationConfig returns two well-separated clusters
func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		Rows:       100,
		Separation: 6,
		Spread:     1,
		Positive:   0.5,
		Seed:       42,
	}
}

// Classification generates a table with numeric columns a and b and a
// nominal outcome class in {"pos", "neg"}, where the classes form two
// Gaussian clusters separated along both axes.
func Classification(cfg ClassificationConfig) (table.Table, table.RoleMap, error) {
	if cfg.Rows < 2 {
		return table.Table{}, nil, fmt.Errorf("testkit: rows must be at least 2, got %d", cfg.Rows)
	}
	if cfg.Positive <= 0 || cfg.Positive >= 1 {
		return table.Table{}, nil, fmt.Errorf("testkit: positive fraction must be in (0,1), got %v", cfg.Positive)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	positives := int(math.Round(float64(cfg.Rows) * cfg.Positive))
	if positives == 0 {
		positives = 1
	}
	if positives == cfg.Rows {
		positives = cfg.Rows - 1
	}

	as := make([]float64, cfg.Rows)
	bs := make([]float64, cfg.Rows)
	classes := make([]string, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		center := 0.0
		classes[i] = "neg"
		if i < positives {
			center = cfg.Separation
			classes[i] = "pos"
		}
		as[i] = center + rng.NormFloat64()*cfg.Spread
		bs[i] = center + rng.NormFloat64()*cfg.Spread
	}

	tbl, err := table.New(
		table.NewNumeric("a", as),
		table.NewNumeric("b", bs),
		table.NewNominal("class", classes),
	)
	if err != nil {
		return table.Table{}, nil, err
	}
	return tbl, table.RoleMap{"class": table.RoleOutcome}, nil
}
