// Package tune holds the data shapes of a hyperparameter search: grids,
// per-cell scores, aggregated summaries, and run lifecycle states.
package tune

import (
	"fmt"
	"sort"
	"strings"

	"tablefit/domain/core"
)

// RunState is the tuner lifecycle
type RunState string

const (
	StateConfigured RunState = "configured"
	StateRunning    RunState = "running"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// GridEntry is one concrete hyperparameter value combination
type GridEntry map[string]any

// Key returns a stable identity for the entry, independent of map order
func (e GridEntry) Key() core.Hash {
	return core.ComputeGridEntryHash(e)
}

// String renders the entry with sorted parameter names
func (e GridEntry) String() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, e[k])
	}
	return strings.Join(parts, " ")
}

// Clone returns an independent copy of the entry
func (e GridEntry) Clone() GridEntry {
	out := make(GridEntry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// RegularGrid expands per-parameter candidate value sets into their full
// factorial crossing. Parameters expand in sorted name order so the
// entry order is reproducible.
func RegularGrid(candidates map[string][]any) []GridEntry {
	if len(candidates) == 0 {
		return nil
	}
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := []GridEntry{{}}
	for _, name := range names {
		values := candidates[name]
		next := make([]GridEntry, 0, len(entries)*len(values))
		for _, entry := range entries {
			for _, v := range values {
				expanded := entry.Clone()
				expanded[name] = v
				next = append(next, expanded)
			}
		}
		entries = next
	}
	return entries
}

// Summary aggregates one metric for one grid entry across folds
type Summary struct {
	Mean   float64
	StdErr float64
	N      int // folds that produced a score
}

// CellError records a fold x entry cell whose fit or scoring failed
type CellError struct {
	Fold int
	Err  string
}

// TrialResult is the scored outcome of one grid entry
type TrialResult struct {
	ID      core.TrialID
	Entry   GridEntry
	Metrics map[string]Summary
	// Failed is set when every fold failed for this entry; the entry is
	// then excluded from selection.
	Failed bool
	Errors []CellError
}

// RunRecord captures one tuning run for persistence
type RunRecord struct {
	ID        core.RunID
	State     RunState
	GridSize  int
	FoldCount int
	Metrics   []string
}
