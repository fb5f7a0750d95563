package bbi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAverageOverBed(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{
			{Start: 0, End: 10, Value: 2},
			{Start: 10, End: 20, Value: 4},
		}},
	}
	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	stats, err := AverageOverBed(rd, "geneA", "chr1", 5, 25)
	require.NoError(t, err)
	require.Equal(t, "geneA", stats.Name)
	require.Equal(t, uint32(20), stats.Size)
	require.Equal(t, uint32(15), stats.Covered) // [5,10)+[10,20) = 15 bases
	require.InDelta(t, 2*5+4*10, stats.Sum, 1e-6)
	require.InDelta(t, stats.Sum/20, stats.Mean0, 1e-6)
	require.InDelta(t, stats.Sum/15, stats.Mean, 1e-6)
}

func TestAverageOverBedNoCoverage(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{Start: 0, End: 10, Value: 1}}},
	}
	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	stats, err := AverageOverBed(rd, "geneB", "chr1", 100, 200)
	require.NoError(t, err)
	require.Equal(t, uint32(0), stats.Covered)
	require.Equal(t, float64(0), stats.Mean)
	require.Equal(t, float64(0), stats.Mean0)
}
