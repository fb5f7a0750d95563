package bbi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeIntoIdenticalSpan(t *testing.T) {
	first, second, third, overhang := mergeInto(Value{0, 10, 2}, Value{0, 10, 3})
	require.Equal(t, Value{0, 10, 5}, first)
	require.Nil(t, second)
	require.Nil(t, third)
	require.Nil(t, overhang)
}

func TestMergeIntoSameStartShorterFirst(t *testing.T) {
	first, second, third, overhang := mergeInto(Value{0, 5, 2}, Value{0, 10, 3})
	require.Equal(t, Value{0, 5, 5}, first)
	require.Nil(t, second)
	require.Nil(t, third)
	require.NotNil(t, overhang)
	require.Equal(t, Value{5, 10, 3}, *overhang)
}

func TestMergeIntoStaggered(t *testing.T) {
	first, second, third, overhang := mergeInto(Value{0, 10, 1}, Value{5, 15, 2})
	require.Equal(t, Value{0, 5, 1}, first)
	require.NotNil(t, second)
	require.Equal(t, Value{5, 10, 3}, *second)
	require.Nil(t, third)
	require.NotNil(t, overhang)
	require.Equal(t, Value{10, 15, 2}, *overhang)
}

func TestMergeIntoContainment(t *testing.T) {
	// two fully inside one, with one.Start < two.Start < two.End < one.End
	first, second, third, overhang := mergeInto(Value{0, 20, 1}, Value{5, 10, 2})
	require.Equal(t, Value{0, 5, 1}, first)
	require.NotNil(t, second)
	require.Equal(t, Value{5, 10, 3}, *second)
	require.NotNil(t, third)
	require.Equal(t, Value{10, 20, 1}, *third)
	require.Nil(t, overhang)
}

func TestMergeIntoPanicsOnNonOverlap(t *testing.T) {
	require.Panics(t, func() {
		mergeInto(Value{0, 5, 1}, Value{5, 10, 1})
	})
}

func TestMergeValuesTwoStreams(t *testing.T) {
	a := []Value{{0, 10, 1}}
	b := []Value{{5, 15, 2}}

	merged := MergeValues([][]Value{a, b})

	var total float32
	for _, v := range merged {
		total += v.Value * float32(v.End-v.Start)
	}
	require.InDelta(t, float32(1*10+2*10), total, 1e-3)

	for i := 1; i < len(merged); i++ {
		require.GreaterOrEqual(t, merged[i].Start, merged[i-1].End)
	}
}

func TestMergeValuesEmpty(t *testing.T) {
	require.Empty(t, MergeValues(nil))
	require.Empty(t, MergeValues([][]Value{{}, {}}))
}

func TestMergeValuesSingleStreamPassthrough(t *testing.T) {
	a := []Value{{0, 10, 1}, {20, 30, 2}}
	merged := MergeValues([][]Value{a})
	require.Equal(t, a, merged)
}
