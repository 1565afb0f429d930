package data

import "fmt"

// Filter restricts a slice to rows matching a condition on one column.
// Exactly one of Value or the Min/Max pair should be set; Min is inclusive,
// Max exclusive.
type Filter struct {
	Column string
	Value  *float64
	Min    *float64
	Max    *float64
}

// Eq builds a filter keeping rows whose column equals v.
func Eq(column string, v float64) Filter {
	return Filter{Column: column, Value: &v}
}

// Between builds a filter keeping rows whose column is in [lo, hi).
func Between(column string, lo, hi float64) Filter {
	return Filter{Column: column, Min: &lo, Max: &hi}
}

// AtLeast builds a filter keeping rows whose column is >= lo.
func AtLeast(column string, lo float64) Filter {
	return Filter{Column: column, Min: &lo}
}

func (f Filter) match(v float64) bool {
	if f.Value != nil {
		return v == *f.Value
	}
	if f.Min != nil && v < *f.Min {
		return false
	}
	if f.Max != nil && v >= *f.Max {
		return false
	}
	return true
}

// Slice names a subset of rows defined by the conjunction of its filters.
type Slice struct {
	Name    string
	Filters []Filter
}

// Mask evaluates the slice against a table, returning one bool per row.
func (s Slice) Mask(t *Table) ([]bool, error) {
	mask := make([]bool, t.NumRows())
	for i := range mask {
		mask[i] = true
	}
	for _, f := range s.Filters {
		values, err := t.Column(f.Column)
		if err != nil {
			return nil, fmt.Errorf("slice %q: %w", s.Name, err)
		}
		for i, v := range values {
			if mask[i] && !f.match(v) {
				mask[i] = false
			}
		}
	}
	return mask, nil
}

// SliceSpec declares data subsets for disaggregated evaluation. The overall
// slice covering every row is always evaluated in addition to the declared
// ones.
type SliceSpec struct {
	slices []Slice
}

// NewSliceSpec builds a slice specification from the given slices. Unnamed
// slices get a generated name from their position.
func NewSliceSpec(slices ...Slice) *SliceSpec {
	spec := &SliceSpec{}
	for i, s := range slices {
		if s.Name == "" {
			s.Name = fmt.Sprintf("slice_%d", i)
		}
		spec.slices = append(spec.slices, s)
	}
	return spec
}

// Slices returns the declared slices.
func (s *SliceSpec) Slices() []Slice {
	if s == nil {
		return nil
	}
	return s.slices
}
