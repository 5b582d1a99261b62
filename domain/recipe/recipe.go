package recipe

import (
	"tablefit/domain/core"
	"tablefit/domain/table"
)

// Recipe is an immutable ordered composition of steps plus column role
// metadata. WithStep returns a new value, so a base recipe can branch
// into several model variants without aliasing surprises.
type Recipe struct {
	steps []Step
	roles table.RoleMap
}

// New creates an empty recipe with the given role assignments
func New(roles table.RoleMap) Recipe {
	return Recipe{roles: roles.Clone()}
}

// WithStep returns a new recipe with the step appended
func (r Recipe) WithStep(s Step) Recipe {
	steps := make([]Step, len(r.steps), len(r.steps)+1)
	copy(steps, r.steps)
	return Recipe{steps: append(steps, s), roles: r.roles}
}

// Steps returns the configured steps in execution order
func (r Recipe) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Roles returns the recipe's role map
func (r Recipe) Roles() table.RoleMap {
	return r.roles.Clone()
}

// PrepareOption configures Prepare behavior
type PrepareOption func(*prepareOptions)

type prepareOptions struct {
	retain bool
}

// WithRetain keeps the fully transformed training table on the prepared
// recipe so BakeTraining can return it without recomputation
func WithRetain() PrepareOption {
	return func(o *prepareOptions) { o.retain = true }
}

// Prepare fits every step in sequence, each step seeing the output of
// the previous step's fit-and-apply on the training data. The returned
// artifact holds only quantities learned from that training table.
func (r Recipe) Prepare(train table.Table, opts ...PrepareOption) (*PreparedRecipe, error) {
	var options prepareOptions
	for _, opt := range opts {
		opt(&options)
	}
	if err := r.roles.Validate(train.Schema()); err != nil {
		return nil, err
	}

	current := train
	states := make([]FitState, 0, len(r.steps))
	for _, step := range r.steps {
		state, err := step.Fit(current, r.roles)
		if err != nil {
			return nil, err
		}
		current, err = step.Apply(current, state)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	prepared := &PreparedRecipe{
		Steps:       r.Steps(),
		States:      states,
		Roles:       r.roles.Clone(),
		Fingerprint: r.fingerprint(),
	}
	if options.retain {
		prepared.Retained = &current
	}
	return prepared, nil
}

func (r Recipe) fingerprint() core.Fingerprint {
	names := make([]string, len(r.steps))
	params := make([]map[string]any, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name()
		params[i] = s.Params()
	}
	return core.ComputeFingerprint(names, params)
}

// PreparedRecipe is the immutable artifact Prepare produces: the steps,
// their learned fit states, and optionally the transformed training
// table. Fields are exported for gob persistence; treat the value as
// read-only.
type PreparedRecipe struct {
	Steps       []Step
	States      []FitState
	Roles       table.RoleMap
	Retained    *table.Table
	Fingerprint core.Fingerprint
}

// Bake applies every step's learned transformation, in original order,
// to the given table. No quantity used here was computed from that
// table - that is what rules out train/test leakage by construction.
func (p *PreparedRecipe) Bake(t table.Table) (table.Table, error) {
	if len(p.States) != len(p.Steps) {
		return table.Table{}, core.NewNotFittedError("recipe")
	}
	current := t
	for i, step := range p.Steps {
		var err error
		current, err = step.Apply(current, p.States[i])
		if err != nil {
			return table.Table{}, err
		}
	}
	return current, nil
}

// BakeTraining returns the cached transformed training table
func (p *PreparedRecipe) BakeTraining() (table.Table, error) {
	if p.Retained == nil {
		return table.Table{}, core.ErrNotRetained
	}
	return *p.Retained, nil
}
