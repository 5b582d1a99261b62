package table

import (
	"time"
)

// Kind declares the semantic type of a column
type Kind string

const (
	Numeric    Kind = "numeric"
	Nominal    Kind = "nominal"
	Ordinal    Kind = "ordinal"
	Datetime   Kind = "datetime"
	Identifier Kind = "identifier"
)

// IsCategorical reports whether the kind carries string levels
func (k Kind) IsCategorical() bool {
	return k == Nominal || k == Ordinal
}

// Column is a named, typed sequence of scalar values. Exactly one of the
// value slices is populated, selected by Kind. Missing is an optional NA
// mask; nil means no missing values. Columns are immutable by convention:
// operations return new columns and never write through shared slices.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Times   []time.Time
	Missing []bool
}

// NewNumeric creates a numeric column
func NewNumeric(name string, values []float64) Column {
	return Column{Name: name, Kind: Numeric, Floats: values}
}

// NewNominal creates a nominal (unordered categorical) column
func NewNominal(name string, values []string) Column {
	return Column{Name: name, Kind: Nominal, Strings: values}
}

// NewOrdinal creates an ordinal (ordered categorical) column
func NewOrdinal(name string, values []string) Column {
	return Column{Name: name, Kind: Ordinal, Strings: values}
}

// NewDatetime creates a datetime column
func NewDatetime(name string, values []time.Time) Column {
	return Column{Name: name, Kind: Datetime, Times: values}
}

// NewIdentifier creates an identifier column carried through unmodified
func NewIdentifier(name string, values []string) Column {
	return Column{Name: name, Kind: Identifier, Strings: values}
}

// Len returns the number of rows in the column
func (c Column) Len() int {
	switch c.Kind {
	case Numeric:
		return len(c.Floats)
	case Datetime:
		return len(c.Times)
	default:
		return len(c.Strings)
	}
}

// IsMissing reports whether row i holds a missing value
func (c Column) IsMissing(i int) bool {
	return c.Missing != nil && i < len(c.Missing) && c.Missing[i]
}

// WithMissing returns a copy of the column carrying the given NA mask
func (c Column) WithMissing(mask []bool) Column {
	out := c
	out.Missing = mask
	return out
}

// Renamed returns a copy of the column under a new name
func (c Column) Renamed(name string) Column {
	out := c
	out.Name = name
	return out
}

// take returns a new column holding the rows at the given indices, in
// the given order.
func (c Column) take(indices []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Numeric:
		out.Floats = make([]float64, len(indices))
		for j, i := range indices {
			out.Floats[j] = c.Floats[i]
		}
	case Datetime:
		out.Times = make([]time.Time, len(indices))
		for j, i := range indices {
			out.Times[j] = c.Times[i]
		}
	default:
		out.Strings = make([]string, len(indices))
		for j, i := range indices {
			out.Strings[j] = c.Strings[i]
		}
	}
	if c.Missing != nil {
		out.Missing = make([]bool, len(indices))
		for j, i := range indices {
			out.Missing[j] = c.Missing[i]
		}
	}
	return out
}
