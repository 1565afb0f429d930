package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	require.NoError(t, table.AddColumn("age", []float64{30, 65, 80, 45}))
	require.NoError(t, table.AddColumn("sex", []float64{0, 1, 1, 0}))
	return table
}

func TestSliceMaskEq(t *testing.T) {
	table := sliceTable(t)

	mask, err := Slice{Name: "female", Filters: []Filter{Eq("sex", 1)}}.Mask(table)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, mask)
}

func TestSliceMaskRange(t *testing.T) {
	table := sliceTable(t)

	mask, err := Slice{Name: "senior", Filters: []Filter{Between("age", 60, 80)}}.Mask(table)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, false}, mask)

	mask, err = Slice{Name: "adult", Filters: []Filter{AtLeast("age", 45)}}.Mask(table)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, true}, mask)
}

func TestSliceMaskConjunction(t *testing.T) {
	table := sliceTable(t)

	slice := Slice{Name: "senior_female", Filters: []Filter{AtLeast("age", 60), Eq("sex", 1)}}
	mask, err := slice.Mask(table)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, mask)
}

func TestSliceMaskUnknownColumn(t *testing.T) {
	table := sliceTable(t)

	_, err := Slice{Name: "bad", Filters: []Filter{Eq("weight", 1)}}.Mask(table)
	assert.Error(t, err)
}

func TestNewSliceSpecNames(t *testing.T) {
	spec := NewSliceSpec(
		Slice{Filters: []Filter{Eq("sex", 0)}},
		Slice{Name: "named", Filters: []Filter{Eq("sex", 1)}},
	)
	slices := spec.Slices()
	require.Len(t, slices, 2)
	assert.Equal(t, "slice_0", slices[0].Name)
	assert.Equal(t, "named", slices[1].Name)

	var nilSpec *SliceSpec
	assert.Nil(t, nilSpec.Slices())
}
