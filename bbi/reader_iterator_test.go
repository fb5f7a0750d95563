package bbi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValuesIterMatchesBulkValues(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{
			{Start: 0, End: 10, Value: 1},
			{Start: 10, End: 20, Value: 2},
			{Start: 50, End: 60, Value: 3},
		}},
	}

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	it, err := rd.ValuesIter("chr1", 0, 1000)
	require.NoError(t, err)

	var got []Value
	for {
		v, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, chroms[0].Values, got)
}

func TestValuesIterResumesAfterExhaustion(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{Start: 0, End: 10, Value: 1}}},
	}

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	it, err := rd.ValuesIter("chr1", 0, 1000)
	require.NoError(t, err)

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	// Exhausted: further calls keep reporting ok=false, not an error.
	for i := 0; i < 3; i++ {
		_, ok, err := it.Next()
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestBlockCursorSkipsRedundantSeek(t *testing.T) {
	rec := &seekCountingSeeker{}
	rd := &Reader{r: rec, header: &Header{Endianness: defaultOrder, UncompressBufSize: 0}}

	blocks := []Block{
		{Offset: 0, Size: 4},
		{Offset: 4, Size: 4}, // immediately follows the first block on disk
	}
	rec.data = []byte{1, 2, 3, 4, 5, 6, 7, 8}

	c := &blockCursor{rd: rd, blocks: blocks}

	_, ok, err := c.next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, rec.seeks)

	_, ok, err = c.next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, rec.seeks, "second block is contiguous with the first, so no seek should occur")

	_, ok, err = c.next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValuesIterContinuesAfterBlockDecodeError(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{
			{Start: 0, End: 10, Value: 1},
			{Start: 500, End: 510, Value: 2},
		}},
	}

	opts := DefaultWriterOptions()
	opts.ItemsPerSlot = 1 // force each value into its own data section/block

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, opts, chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	it, err := rd.ValuesIter("chr1", 0, 1000)
	require.NoError(t, err)

	// Corrupt the cursor's first block so it fails to decompress, while
	// leaving the second block (and thus its value) intact.
	it.cursor.blocks[0].Size = 1

	var got []Value
	var sawErr bool
	for {
		v, ok, err := it.Next()
		if !ok {
			break
		}
		if err != nil {
			sawErr = true
			continue
		}
		got = append(got, v)
	}
	require.True(t, sawErr, "expected the corrupted block to surface a decode error")
	require.Equal(t, []Value{{Start: 500, End: 510, Value: 2}}, got)
}

// seekCountingSeeker is a minimal io.ReadSeeker over an in-memory byte
// slice that counts how many times Seek actually repositions, so tests
// can assert that a contiguous block read skips the seek.
type seekCountingSeeker struct {
	data  []byte
	pos   int64
	seeks int
}

func (s *seekCountingSeeker) Read(p []byte) (int, error) {
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *seekCountingSeeker) Seek(offset int64, whence int) (int64, error) {
	s.seeks++
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}
