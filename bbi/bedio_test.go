package bbi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBedGraphLine(t *testing.T) {
	chrom, v, err := ParseBedGraphLine("chr1\t100\t200\t3.5")
	require.NoError(t, err)
	require.Equal(t, "chr1", chrom)
	require.Equal(t, Value{Start: 100, End: 200, Value: 3.5}, v)
}

func TestParseBedGraphLineTooFewFields(t *testing.T) {
	_, _, err := ParseBedGraphLine("chr1\t100")
	require.Error(t, err)
}

func TestParseBedLineKeepsRest(t *testing.T) {
	chrom, e, err := ParseBedLine("chr1\t100\t200\tgeneA\t0\t+")
	require.NoError(t, err)
	require.Equal(t, "chr1", chrom)
	require.Equal(t, BedEntry{Start: 100, End: 200, Rest: "geneA\t0\t+"}, e)
}

func TestReadBedGraphGroupsByChromInOrder(t *testing.T) {
	input := "chr2\t0\t10\t1\nchr1\t0\t5\t2\nchr2\t10\t20\t3\n"
	order, byChrom, err := ReadBedGraph(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"chr2", "chr1"}, order)
	require.Len(t, byChrom["chr2"], 2)
	require.Len(t, byChrom["chr1"], 1)
}

func TestWriteBedGraphLineRoundTrip(t *testing.T) {
	line := WriteBedGraphLine("chr1", Value{Start: 10, End: 20, Value: 1.5})
	chrom, v, err := ParseBedGraphLine(line)
	require.NoError(t, err)
	require.Equal(t, "chr1", chrom)
	require.Equal(t, Value{Start: 10, End: 20, Value: 1.5}, v)
}

func TestWriteBedLineRoundTrip(t *testing.T) {
	line := WriteBedLine("chr1", BedEntry{Start: 10, End: 20, Rest: "geneA"})
	chrom, e, err := ParseBedLine(line)
	require.NoError(t, err)
	require.Equal(t, "chr1", chrom)
	require.Equal(t, BedEntry{Start: 10, End: 20, Rest: "geneA"}, e)
}
