package app

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"tablefit/domain/core"
	"tablefit/domain/resample"
	"tablefit/domain/table"
	"tablefit/domain/tune"
	"tablefit/internal"
	"tablefit/ports"
)

// Tuner drives a hyperparameter search: every grid entry is fit and
// scored on every fold, cells run concurrently on a bounded worker pool,
// and per-entry metric summaries are aggregated order-independently.
type Tuner struct {
	workflow Workflow
	grid     []tune.GridEntry
	folds    []resample.Fold
	metrics  []ports.Metric

	workers int64
	store   ports.TrialStore
	log     *internal.Logger

	mu    sync.Mutex
	state tune.RunState
}

// TunerOption configures a Tuner
type TunerOption func(*Tuner)

// WithWorkers bounds the number of concurrently evaluated cells
func WithWorkers(n int) TunerOption {
	return func(t *Tuner) {
		if n > 0 {
			t.workers = int64(n)
		}
	}
}

// WithStore persists the run and its trials after completion
func WithStore(store ports.TrialStore) TunerOption {
	return func(t *Tuner) { t.store = store }
}

// WithLogger overrides the default logger
func WithLogger(log *internal.Logger) TunerOption {
	return func(t *Tuner) { t.log = log }
}

// NewTuner creates a configured tuner
func NewTuner(wf Workflow, grid []tune.GridEntry, folds []resample.Fold, metrics []ports.Metric, opts ...TunerOption) *Tuner {
	t := &Tuner{
		workflow: wf,
		grid:     grid,
		folds:    folds,
		metrics:  metrics,
		workers:  4,
		log:      internal.DefaultLogger.Named("tuner"),
		state:    tune.StateConfigured,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the tuner lifecycle state
func (t *Tuner) State() tune.RunState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tuner) setState(s tune.RunState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// cellScore is the outcome of one grid entry x fold evaluation
type cellScore struct {
	entry  int
	fold   int
	scores map[string]float64
	err    error
}

// Run evaluates the full grid over all folds of the given table. A cell
// whose fit or scoring fails is recorded as a missing score, not a fatal
// abort; an entry is marked failed only when every fold failed. The run
// as a whole fails only when no entry produced a score.
func (t *Tuner) Run(ctx context.Context, data table.Table) (*Result, error) {
	if len(t.grid) == 0 {
		return nil, core.ErrEmptyGrid
	}
	if len(t.folds) == 0 {
		return nil, fmt.Errorf("%w: no folds", core.ErrBadSplit)
	}
	if len(t.metrics) == 0 {
		return nil, fmt.Errorf("%w: no metrics", core.ErrBadSplit)
	}
	t.setState(tune.StateRunning)
	runID := core.NewRunID()
	t.log.Info("run %s: %d entries x %d folds, %d workers",
		runID, len(t.grid), len(t.folds), t.workers)

	sem := semaphore.NewWeighted(t.workers)
	results := make(chan cellScore, len(t.grid)*len(t.folds))
	var wg sync.WaitGroup

	for ei := range t.grid {
		for fi := range t.folds {
			wg.Add(1)
			go func(ei, fi int) {
				defer wg.Done()
				// Cooperative cancellation is checked between cells,
				// never mid-fit.
				if err := sem.Acquire(ctx, 1); err != nil {
					results <- cellScore{entry: ei, fold: fi, err: err}
					return
				}
				defer sem.Release(1)
				scores, err := t.evaluateCell(ctx, data, t.grid[ei], t.folds[fi])
				results <- cellScore{entry: ei, fold: fi, scores: scores, err: err}
			}(ei, fi)
		}
	}
	wg.Wait()
	close(results)

	trials, anySucceeded := t.aggregate(results)
	result := &Result{RunID: runID, Trials: trials, metrics: t.metrics}

	if !anySucceeded {
		t.setState(tune.StateFailed)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, core.ErrNoCandidates
	}
	t.setState(tune.StateCompleted)

	if t.store != nil {
		record := tune.RunRecord{
			ID:        runID,
			State:     tune.StateCompleted,
			GridSize:  len(t.grid),
			FoldCount: len(t.folds),
			Metrics:   metricNames(t.metrics),
		}
		if err := t.store.SaveRun(ctx, record); err != nil {
			t.log.Warn("persisting run %s: %v", runID, err)
		} else if err := t.store.SaveTrials(ctx, runID.String(), trials); err != nil {
			t.log.Warn("persisting trials for %s: %v", runID, err)
		}
	}
	return result, nil
}

// evaluateCell fits the workflow with one hyperparameter binding on one
// fold's train partition and scores its predictions on the validation
// partition
func (t *Tuner) evaluateCell(ctx context.Context, data table.Table, entry tune.GridEntry, fold resample.Fold) (map[string]float64, error) {
	wf, err := t.workflow.Finalize(entry)
	if err != nil {
		return nil, err
	}
	train, err := data.Take(fold.Train)
	if err != nil {
		return nil, err
	}
	validation, err := data.Take(fold.Validation)
	if err != nil {
		return nil, err
	}
	fitted, err := wf.Fit(ctx, train)
	if err != nil {
		return nil, err
	}
	truth, err := validation.Column(fitted.Outcome)
	if err != nil {
		return nil, err
	}

	// Predict each required mode once, then score every metric.
	predictions := make(map[ports.PredictMode]table.Table)
	for _, m := range t.metrics {
		if _, done := predictions[m.Mode()]; done {
			continue
		}
		preds, err := fitted.Predict(validation, m.Mode())
		if err != nil {
			return nil, err
		}
		predictions[m.Mode()] = preds
	}
	scores := make(map[string]float64, len(t.metrics))
	for _, m := range t.metrics {
		score, err := m.Score(truth, predictions[m.Mode()])
		if err != nil {
			return nil, err
		}
		scores[m.Name()] = score
	}
	return scores, nil
}

// aggregate reduces cell results into per-entry trial summaries. The
// reduction is commutative: cells arrive in arbitrary completion order
// but land in slots keyed by entry and fold index.
func (t *Tuner) aggregate(results <-chan cellScore) ([]tune.TrialResult, bool) {
	perEntry := make([]map[string][]float64, len(t.grid))
	errs := make([][]tune.CellError, len(t.grid))
	for i := range perEntry {
		perEntry[i] = make(map[string][]float64)
	}
	for cell := range results {
		if cell.err != nil {
			t.log.Debug("cell entry=%d fold=%d failed: %v", cell.entry, cell.fold, cell.err)
			errs[cell.entry] = append(errs[cell.entry], tune.CellError{
				Fold: cell.fold,
				Err:  cell.err.Error(),
			})
			continue
		}
		for name, score := range cell.scores {
			perEntry[cell.entry][name] = append(perEntry[cell.entry][name], score)
		}
	}

	anySucceeded := false
	trials := make([]tune.TrialResult, len(t.grid))
	for i, entry := range t.grid {
		trial := tune.TrialResult{
			ID:      core.NewTrialID(),
			Entry:   entry.Clone(),
			Metrics: make(map[string]tune.Summary),
			Errors:  errs[i],
		}
		for _, m := range t.metrics {
			scores := perEntry[i][m.Name()]
			if len(scores) == 0 {
				continue
			}
			trial.Metrics[m.Name()] = summarize(scores)
		}
		trial.Failed = len(trial.Metrics) == 0
		if !trial.Failed {
			anySucceeded = true
		}
		trials[i] = trial
	}
	return trials, anySucceeded
}

// summarize computes the fold mean and its standard error
func summarize(scores []float64) tune.Summary {
	mean, _ := stats.Mean(scores)
	stderr := 0.0
	if len(scores) > 1 {
		sd, err := stats.StandardDeviationSample(scores)
		if err == nil {
			stderr = sd / math.Sqrt(float64(len(scores)))
		}
	}
	return tune.Summary{Mean: mean, StdErr: stderr, N: len(scores)}
}

func metricNames(metrics []ports.Metric) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Name()
	}
	return names
}
