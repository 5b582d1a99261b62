// Package recipe implements the declarative preprocessing pipeline: an
// ordered list of fit/apply steps plus column-role metadata. Steps learn
// quantities from training data only; baking replays the learned
// transformations on any compatible table without re-estimating anything.
package recipe

import (
	"encoding/gob"

	"tablefit/domain/table"
)

// FitState holds the quantities a step learned from training data. A fit
// state is immutable once produced; applying a step never updates it.
type FitState interface {
	// StepKind names the step kind that produced the state, used to
	// reject states handed to the wrong step.
	StepKind() string
}

// Step is one named, parameterized preprocessing transformation with a
// two-phase contract. Fit must read only the table it is given - that is
// the whole leakage guarantee. Apply is deterministic and side-effect
// free: the same state and input always produce identical output.
type Step interface {
	Name() string
	// Params returns the step's configuration for fingerprinting.
	Params() map[string]any
	Fit(t table.Table, roles table.RoleMap) (FitState, error)
	Apply(t table.Table, state FitState) (table.Table, error)
}

func init() {
	// Concrete steps and states travel through gob when a fitted
	// workflow is persisted as an artifact.
	gob.Register(LogStep{})
	gob.Register(LogState{})
	gob.Register(CollapseStep{})
	gob.Register(CollapseState{})
	gob.Register(UnknownStep{})
	gob.Register(UnknownState{})
	gob.Register(DummyStep{})
	gob.Register(DummyState{})
	gob.Register(ZeroVarStep{})
	gob.Register(ZeroVarState{})
	gob.Register(NormalizeStep{})
	gob.Register(NormalizeState{})
	gob.Register(InteractStep{})
	gob.Register(InteractState{})
	gob.Register(DateStep{})
	gob.Register(DateState{})
	gob.Register(RemoveStep{})
	gob.Register(RemoveState{})
}
