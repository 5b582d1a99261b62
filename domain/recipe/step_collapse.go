package recipe

import (
	"tablefit/domain/core"
	"tablefit/domain/table"
)

const stepCollapse = "collapse"

// DefaultOtherLevel is the sentinel category rare and novel levels
// collapse into.
const DefaultOtherLevel = "other"

// NovelPolicy decides what happens when apply-time data carries a
// categorical level never seen during training.
type NovelPolicy string

const (
	// NovelCollapse folds unseen levels into the "other" category.
	NovelCollapse NovelPolicy = "collapse"
	// NovelError aborts the apply with an UnknownLevelError.
	NovelError NovelPolicy = "error"
)

// CollapseStep pools infrequent categorical levels into a single "other"
// category. The level frequency table is learned from training data only.
type CollapseStep struct {
	Selector  table.Selector
	Threshold float64 // minimum training fraction for a level to survive
	Novel     NovelPolicy
	Other     string // sentinel level, DefaultOtherLevel when empty
}

// CollapseState holds the surviving levels per column
type CollapseState struct {
	Keep  map[string]map[string]bool
	Seen  map[string]map[string]bool
	Other string
	Novel NovelPolicy
}

func (CollapseState) StepKind() string { return stepCollapse }

func (s CollapseStep) Name() string { return stepCollapse }

func (s CollapseStep) Params() map[string]any {
	return map[string]any{"threshold": s.Threshold, "novel": string(s.Novel), "other": s.other()}
}

func (s CollapseStep) other() string {
	if s.Other == "" {
		return DefaultOtherLevel
	}
	return s.Other
}

func (s CollapseStep) Fit(t table.Table, roles table.RoleMap) (FitState, error) {
	names, err := s.Selector.Resolve(t.Schema(), roles)
	if err != nil {
		return nil, err
	}
	state := CollapseState{
		Keep:  make(map[string]map[string]bool, len(names)),
		Seen:  make(map[string]map[string]bool, len(names)),
		Other: s.other(),
		Novel: s.Novel,
	}
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if !col.Kind.IsCategorical() {
			return nil, core.NewColumnNotFoundError(name + " (not categorical)")
		}
		counts := make(map[string]int)
		total := 0
		for i, v := range col.Strings {
			if col.IsMissing(i) {
				continue
			}
			counts[v]++
			total++
		}
		keep := make(map[string]bool)
		seen := make(map[string]bool, len(counts))
		for level, n := range counts {
			seen[level] = true
			if total > 0 && float64(n)/float64(total) >= s.Threshold {
				keep[level] = true
			}
		}
		state.Keep[name] = keep
		state.Seen[name] = seen
	}
	return state, nil
}

func (s CollapseStep) Apply(t table.Table, state FitState) (table.Table, error) {
	st, ok := state.(CollapseState)
	if !ok {
		return table.Table{}, core.NewNotFittedError(stepCollapse)
	}
	out := t
	for name, keep := range st.Keep {
		col, err := out.Column(name)
		if err != nil {
			return table.Table{}, err
		}
		values := make([]string, len(col.Strings))
		for i, v := range col.Strings {
			if col.IsMissing(i) {
				values[i] = v
				continue
			}
			switch {
			case keep[v]:
				values[i] = v
			case st.Seen[name][v]:
				// Below-threshold training level.
				values[i] = st.Other
			case st.Novel == NovelCollapse:
				values[i] = st.Other
			default:
				return table.Table{}, core.NewUnknownLevelError(name, v)
			}
		}
		replaced := col
		replaced.Strings = values
		out, err = out.WithColumn(replaced)
		if err != nil {
			return table.Table{}, err
		}
	}
	return out, nil
}
