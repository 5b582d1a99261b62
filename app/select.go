package app

import (
	"fmt"

	"tablefit/domain/core"
	"tablefit/domain/tune"
	"tablefit/ports"
)

// Result holds the scored trials of one tuning run, in grid order
type Result struct {
	RunID  core.RunID
	Trials []tune.TrialResult

	metrics []ports.Metric
}

// TieBreak decides between two grid entries whose mean metric ties.
// It reports whether a is preferred over b. Selection requires an
// explicit rule so ties never fall back to iteration order.
type TieBreak func(a, b tune.GridEntry) bool

// PreferSmaller breaks ties toward the smaller value of a numeric
// parameter (e.g. the simpler model)
func PreferSmaller(param string) TieBreak {
	return func(a, b tune.GridEntry) bool {
		return paramValue(a, param) < paramValue(b, param)
	}
}

// PreferLarger breaks ties toward the larger value of a numeric
// parameter (e.g. the more regularized model)
func PreferLarger(param string) TieBreak {
	return func(a, b tune.GridEntry) bool {
		return paramValue(a, param) > paramValue(b, param)
	}
}

func paramValue(e tune.GridEntry, param string) float64 {
	switch v := e[param].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// SelectBest returns the grid entry with the best mean for the named
// metric, honoring the metric's polarity. Entries marked failed are
// excluded. Exact mean ties are resolved by the supplied tie-break rule.
func (r *Result) SelectBest(metric string, tieBreak TieBreak) (tune.GridEntry, error) {
	if tieBreak == nil {
		return nil, fmt.Errorf("select best: tie-break rule is required")
	}
	var polarity ports.Polarity
	found := false
	for _, m := range r.metrics {
		if m.Name() == metric {
			polarity = m.Polarity()
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("select best: unknown metric %q", metric)
	}

	better := func(a, b float64) bool { return a > b }
	if polarity == ports.LowerIsBetter {
		better = func(a, b float64) bool { return a < b }
	}

	var best *tune.TrialResult
	var bestMean float64
	for i := range r.Trials {
		trial := &r.Trials[i]
		if trial.Failed {
			continue
		}
		summary, ok := trial.Metrics[metric]
		if !ok {
			continue
		}
		switch {
		case best == nil:
			best, bestMean = trial, summary.Mean
		case summary.Mean == bestMean:
			if tieBreak(trial.Entry, best.Entry) {
				best = trial
			}
		case better(summary.Mean, bestMean):
			best, bestMean = trial, summary.Mean
		}
	}
	if best == nil {
		return nil, core.ErrNoCandidates
	}
	return best.Entry.Clone(), nil
}
