package bbi

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChromTreeRoundTrip(t *testing.T) {
	chroms := []ChromInfo{
		{Name: "chr1", ID: 0, Length: 248956422},
		{Name: "chr2", ID: 1, Length: 242193529},
		{Name: "chr6", ID: 2, Length: 170805979},
		{Name: "chr17", ID: 3, Length: 83257441},
		{Name: "chrX", ID: 4, Length: 156040895},
	}
	sorted := append([]ChromInfo(nil), chroms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteChromTree(&buf, order, sorted, 2, 0)) // force multiple internal levels

	got, err := ReadChromTree(bytes.NewReader(buf.Bytes()), order, 0)
	require.NoError(t, err)
	require.ElementsMatch(t, sorted, got)
}

func TestChromTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteChromTree(&buf, order, nil, 256, 0))

	got, err := ReadChromTree(bytes.NewReader(buf.Bytes()), order, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestChromTreeBadMagic(t *testing.T) {
	raw := make([]byte, 64)
	_, err := ReadChromTree(bytes.NewReader(raw), binary.LittleEndian, 0)
	require.Error(t, err)
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
}
