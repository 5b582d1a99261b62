package table

import (
	"fmt"

	"tablefit/domain/core"
)

// SelectorOp is the variant tag of a Selector
type SelectorOp string

const (
	SelByName SelectorOp = "name"
	SelByRole SelectorOp = "role"
	SelByKind SelectorOp = "kind"
	SelAnd    SelectorOp = "and"
	SelOr     SelectorOp = "or"
	SelNot    SelectorOp = "not"
)

// Selector picks target columns for a preprocessing step. It is resolved
// once at fit time against the training schema into a concrete name set,
// so later bakes never re-evaluate it against possibly different data.
// Fields are exported for gob serialization of fitted steps.
type Selector struct {
	Op       SelectorOp
	Names    []string
	Role     Role
	Kind     Kind
	Children []Selector
}

// ByName selects explicit column names. Resolution fails if any name is
// absent from the schema.
func ByName(names ...string) Selector {
	return Selector{Op: SelByName, Names: names}
}

// ByRole selects every column with the given role
func ByRole(role Role) Selector {
	return Selector{Op: SelByRole, Role: role}
}

// ByKind selects every column with the given declared kind
func ByKind(kind Kind) Selector {
	return Selector{Op: SelByKind, Kind: kind}
}

// And selects columns matched by every child selector
func And(children ...Selector) Selector {
	return Selector{Op: SelAnd, Children: children}
}

// Or selects columns matched by any child selector
func Or(children ...Selector) Selector {
	return Selector{Op: SelOr, Children: children}
}

// Not selects columns not matched by the child selector
func Not(child Selector) Selector {
	return Selector{Op: SelNot, Children: []Selector{child}}
}

// NominalPredictors selects nominal columns carrying the predictor role,
// the usual target of encoding steps
func NominalPredictors() Selector {
	return And(ByKind(Nominal), ByRole(RolePredictor))
}

// NumericPredictors selects numeric columns carrying the predictor role,
// the usual target of scale transforms
func NumericPredictors() Selector {
	return And(ByKind(Numeric), ByRole(RolePredictor))
}

// Resolve evaluates the selector against a schema and role map, returning
// matched column names in schema order
func (s Selector) Resolve(sch Schema, roles RoleMap) ([]string, error) {
	match, err := s.matches(sch, roles)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range sch {
		if match[f.Name] {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

func (s Selector) matches(sch Schema, roles RoleMap) (map[string]bool, error) {
	out := make(map[string]bool)
	switch s.Op {
	case SelByName:
		for _, name := range s.Names {
			if !sch.Has(name) {
				return nil, core.NewColumnNotFoundError(name)
			}
			out[name] = true
		}
	case SelByRole:
		for _, f := range sch {
			if roles.Of(f.Name) == s.Role {
				out[f.Name] = true
			}
		}
	case SelByKind:
		for _, f := range sch {
			if f.Kind == s.Kind {
				out[f.Name] = true
			}
		}
	case SelAnd:
		for i, child := range s.Children {
			m, err := child.matches(sch, roles)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				out = m
				continue
			}
			for name := range out {
				if !m[name] {
					delete(out, name)
				}
			}
		}
	case SelOr:
		for _, child := range s.Children {
			m, err := child.matches(sch, roles)
			if err != nil {
				return nil, err
			}
			for name := range m {
				out[name] = true
			}
		}
	case SelNot:
		if len(s.Children) != 1 {
			return nil, fmt.Errorf("selector: not requires exactly one child")
		}
		m, err := s.Children[0].matches(sch, roles)
		if err != nil {
			return nil, err
		}
		for _, f := range sch {
			if !m[f.Name] {
				out[f.Name] = true
			}
		}
	default:
		return nil, fmt.Errorf("selector: unknown op %q", s.Op)
	}
	return out, nil
}
