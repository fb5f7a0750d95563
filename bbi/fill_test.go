package bbi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillGapsBetweenOnly(t *testing.T) {
	values := []Value{{10, 20, 1}, {30, 40, 2}}
	got := Fill(values)
	require.Equal(t, []Value{
		{10, 20, 1},
		{20, 30, 0},
		{30, 40, 2},
	}, got)
}

func TestFillNoGaps(t *testing.T) {
	values := []Value{{0, 10, 1}, {10, 20, 2}}
	require.Equal(t, values, Fill(values))
}

func TestFillEmpty(t *testing.T) {
	require.Empty(t, Fill(nil))
}

func TestFillStartToEndPadsBothEnds(t *testing.T) {
	values := []Value{{10, 20, 1}}
	got := FillStartToEnd(values, 0, 30)
	require.Equal(t, []Value{
		{0, 10, 0},
		{10, 20, 1},
		{20, 30, 0},
	}, got)
}

func TestFillStartToEndStartPastFirstValue(t *testing.T) {
	values := []Value{{10, 20, 1}}
	got := FillStartToEnd(values, 15, 30)
	require.Equal(t, []Value{
		{10, 20, 1},
		{20, 30, 0},
	}, got)
}

func TestFillStartToEndEmptyInput(t *testing.T) {
	got := FillStartToEnd(nil, 0, 10)
	require.Equal(t, []Value{{0, 10, 0}}, got)
}
