package ports

import (
	"context"

	"tablefit/domain/tune"
)

// TrialStore persists tuning runs and their scored trials. A nil store
// keeps results in memory only.
type TrialStore interface {
	SaveRun(ctx context.Context, run tune.RunRecord) error
	SaveTrials(ctx context.Context, runID string, trials []tune.TrialResult) error
	LoadTrials(ctx context.Context, runID string) ([]tune.TrialResult, error)
}
