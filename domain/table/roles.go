package table

import (
	"fmt"

	"tablefit/domain/core"
)

// Role classifies how a column participates in a supervised pipeline
type Role string

const (
	RoleOutcome    Role = "outcome"
	RolePredictor  Role = "predictor"
	RoleIdentifier Role = "identifier"
	RoleUnassigned Role = "unassigned"
)

// RoleMap assigns each column name exactly one role. Columns absent from
// the map are treated as predictors: transformation steps derive new
// columns (indicator columns, interactions) that are predictors by
// construction and never appear in the caller's map.
type RoleMap map[string]Role

// Of returns the role assigned to a column name
func (r RoleMap) Of(name string) Role {
	if role, ok := r[name]; ok {
		return role
	}
	return RolePredictor
}

// Outcome returns the single outcome column name
func (r RoleMap) Outcome() (string, error) {
	name := ""
	for col, role := range r {
		if role != RoleOutcome {
			continue
		}
		if name != "" {
			return "", fmt.Errorf("%w: multiple outcome columns %q and %q", core.ErrRoleConflict, name, col)
		}
		name = col
	}
	if name == "" {
		return "", fmt.Errorf("%w: no outcome column assigned", core.ErrRoleConflict)
	}
	return name, nil
}

// Identifiers returns the identifier column names in schema order
func (r RoleMap) Identifiers(s Schema) []string {
	var names []string
	for _, f := range s {
		if r.Of(f.Name) == RoleIdentifier {
			names = append(names, f.Name)
		}
	}
	return names
}

// Validate checks the role map against a schema: every assigned name must
// exist and exactly one outcome must be present
func (r RoleMap) Validate(s Schema) error {
	for name := range r {
		if !s.Has(name) {
			return core.NewColumnNotFoundError(name)
		}
	}
	_, err := r.Outcome()
	return err
}

// Clone returns an independent copy of the role map
func (r RoleMap) Clone() RoleMap {
	out := make(RoleMap, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
