package bbi

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeLeaves(n int) []RTreeLeaf {
	leaves := make([]RTreeLeaf, n)
	for i := 0; i < n; i++ {
		start := uint32(i * 100)
		end := start + 100
		leaves[i] = NewRTreeLeaf(0, start, 0, end, Block{Offset: uint64(i) * 1000, Size: 500})
	}
	return leaves
}

func TestRTreeRoundTripSingleLevel(t *testing.T) {
	leaves := makeLeaves(4)

	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteRTree(&buf, order, leaves, 256, 512, 0))

	blocks, err := SearchRTree(bytes.NewReader(buf.Bytes()), order, 0, 0, 0, 0, 400)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
}

func TestRTreeRoundTripMultiLevel(t *testing.T) {
	leaves := makeLeaves(50)

	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteRTree(&buf, order, leaves, 4, 512, 0)) // force several internal levels

	blocks, err := SearchRTree(bytes.NewReader(buf.Bytes()), order, 0, 0, 0, 0, 5000)
	require.NoError(t, err)
	require.Len(t, blocks, 50)

	got := make(map[uint64]bool)
	for _, b := range blocks {
		got[b.Offset] = true
	}
	for i := 0; i < 50; i++ {
		require.True(t, got[uint64(i)*1000], "missing leaf block %d", i)
	}
}

func TestRTreeSearchNarrowRange(t *testing.T) {
	leaves := makeLeaves(50)

	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteRTree(&buf, order, leaves, 4, 512, 0))

	// Query [1000,1300) against leaves 9..13 ([900,1000)..[1300,1400)).
	// The non-strict bounds comparison (compare(qStart,b.end) <= 0 AND
	// compare(qEnd,b.start) >= 0) also counts leaves that only touch the
	// query range at a shared endpoint, so leaf 9 (ending at 1000) and
	// leaf 13 (starting at 1300) are included alongside 10..12.
	blocks, err := SearchRTree(bytes.NewReader(buf.Bytes()), order, 0, 0, 1000, 0, 1300)
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	got := make(map[uint64]bool)
	for _, b := range blocks {
		got[b.Offset] = true
	}
	for _, i := range []int{9, 10, 11, 12, 13} {
		require.True(t, got[uint64(i)*1000], "missing leaf block %d", i)
	}
}

func TestRTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, WriteRTree(&buf, order, nil, 256, 512, 0))

	blocks, err := SearchRTree(bytes.NewReader(buf.Bytes()), order, 0, 0, 0, 0, 1000)
	require.NoError(t, err)
	require.Empty(t, blocks)
}

func TestRTreeAtNonZeroBaseOffset(t *testing.T) {
	leaves := makeLeaves(20)

	var buf bytes.Buffer
	// Pad the buffer so the tree starts partway through the file, the
	// way it does embedded in a real BigWig (after the header and
	// chromosome tree).
	pad := make([]byte, 128)
	buf.Write(pad)

	order := binary.LittleEndian
	require.NoError(t, WriteRTree(&buf, order, leaves, 4, 512, 128))

	blocks, err := SearchRTree(bytes.NewReader(buf.Bytes()), order, 128, 0, 0, 0, 5000)
	require.NoError(t, err)
	require.Len(t, blocks, 20)
}
