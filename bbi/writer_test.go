package bbi

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// seekBuffer is an in-memory io.WriteSeeker backing WriteBigWig/WriteBigBed
// in tests, where a real file would normally be seeked back to offset 0 to
// patch in the header once every section's offset is known.
type seekBuffer struct {
	buf []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func TestWriteBigWigSingleChromRoundTrip(t *testing.T) {
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

	got, err := rd.Values("chr1", 0, 1000)
	require.NoError(t, err)
	require.Equal(t, chroms[0].Values, got)
}

func TestWriteBigWigMultiChromCounts(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{0, 100, 1}}},
		{Chrom: ChromInfo{Name: "chr2", Length: 2000}, Values: []Value{{0, 50, 2}, {50, 100, 3}}},
	}

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)
	require.Len(t, rd.Chroms(), 2)

	v1, err := rd.Values("chr1", 0, 1000)
	require.NoError(t, err)
	require.Len(t, v1, 1)

	v2, err := rd.Values("chr2", 0, 2000)
	require.NoError(t, err)
	require.Len(t, v2, 2)
}

func TestWriteBigWigRangeFilter(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{
			{0, 10, 1}, {20, 30, 2}, {40, 50, 3},
		}},
	}

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	got, err := rd.Values("chr1", 15, 45)
	require.NoError(t, err)
	require.Equal(t, []Value{{20, 30, 2}, {40, 50, 3}}, got)
}

func TestWriteBigWigUnknownChromErrors(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{0, 10, 1}}},
	}
	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	_, err = rd.Values("chrZ", 0, 10)
	require.Error(t, err)
	var chromErr *InvalidChromosomeError
	require.ErrorAs(t, err, &chromErr)
}

func TestWriteBigWigManyChromsForcesMultiLevelTrees(t *testing.T) {
	var chroms []ChromValues
	for i := 0; i < 40; i++ {
		name := string(rune('a'+i%26)) + string(rune('A'+i/26))
		chroms = append(chroms, ChromValues{
			Chrom:  ChromInfo{Name: name, Length: 1000},
			Values: []Value{{0, 100, float32(i)}},
		})
	}

	opts := DefaultWriterOptions()
	opts.BlockSize = 4 // force several internal B+-tree/R-tree levels

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, opts, chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)
	require.Len(t, rd.Chroms(), 40)

	for _, cv := range chroms {
		got, err := rd.Values(cv.Chrom.Name, 0, 1000)
		require.NoError(t, err)
		require.Equal(t, cv.Values, got)
	}
}

func TestWriteBigBedRoundTrip(t *testing.T) {
	entries := []ChromBedEntries{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Entries: []BedEntry{
			{Start: 0, End: 10, Rest: "geneA\t0\t+"},
			{Start: 20, End: 30, Rest: "geneB\t0\t-"},
		}},
	}

	var buf seekBuffer
	require.NoError(t, WriteBigBed(&buf, DefaultWriterOptions(), 6, entries))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigBed)
	require.NoError(t, err)

	got, err := rd.BedEntries("chr1", 0, 1000)
	require.NoError(t, err)
	require.Equal(t, entries[0].Entries, got)
}

func TestWriteBigWigZoomSummaryMatchesRawAggregate(t *testing.T) {
	var values []Value
	for i := uint32(0); i < 200; i++ {
		values = append(values, Value{Start: i * 10, End: i*10 + 10, Value: float32(i % 7)})
	}
	chroms := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 100000}, Values: values}}

	opts := DefaultWriterOptions()
	opts.ZoomBaseReduction = 100

	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, opts, chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)
	require.NotEmpty(t, rd.Header().ZoomHeaders)

	reduction := rd.Header().ZoomHeaders[0].ReductionLevel
	zoomRecs, err := rd.GetZoomInterval("chr1", 0, 2000, reduction)
	require.NoError(t, err)

	var zoomBases uint64
	var zoomSum float64
	for _, r := range zoomRecs {
		zoomBases += r.Summary.BasesCovered
		zoomSum += r.Summary.Sum
	}

	rawValues, err := rd.Values("chr1", 0, 2000)
	require.NoError(t, err)
	var rawBases uint64
	var rawSum float64
	for _, v := range rawValues {
		bases := uint64(v.End - v.Start)
		rawBases += bases
		rawSum += float64(v.Value) * float64(bases)
	}

	require.Equal(t, rawBases, zoomBases)
	require.InDelta(t, rawSum, zoomSum, 1e-3)
}

func TestMergeReadersRoundTrip(t *testing.T) {
	chromsA := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{0, 10, 1}}}}
	chromsB := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{5, 15, 2}}}}

	var bufA, bufB seekBuffer
	require.NoError(t, WriteBigWig(&bufA, DefaultWriterOptions(), chromsA))
	require.NoError(t, WriteBigWig(&bufB, DefaultWriterOptions(), chromsB))

	rdA, err := Open(bytes.NewReader(bufA.buf), TypeBigWig)
	require.NoError(t, err)
	rdB, err := Open(bytes.NewReader(bufB.buf), TypeBigWig)
	require.NoError(t, err)

	merged, err := MergeReaders([]*Reader{rdA, rdB})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, "chr1", merged[0].Chrom.Name)

	var total float32
	for _, v := range merged[0].Values {
		total += v.Value * float32(v.End-v.Start)
	}
	require.InDelta(t, float32(1*10+2*10), total, 1e-3)
}

func TestMergeReadersMismatchedChromLength(t *testing.T) {
	chromsA := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{0, 10, 1}}}}
	chromsB := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 2000}, Values: []Value{{0, 10, 1}}}}

	var bufA, bufB seekBuffer
	require.NoError(t, WriteBigWig(&bufA, DefaultWriterOptions(), chromsA))
	require.NoError(t, WriteBigWig(&bufB, DefaultWriterOptions(), chromsB))

	rdA, err := Open(bytes.NewReader(bufA.buf), TypeBigWig)
	require.NoError(t, err)
	rdB, err := Open(bytes.NewReader(bufB.buf), TypeBigWig)
	require.NoError(t, err)

	_, err = MergeReaders([]*Reader{rdA, rdB})
	require.Error(t, err)
}

func TestWriteBigWigUnsortedValuesErrors(t *testing.T) {
	chroms := []ChromValues{
		{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{10, 20, 1}, {0, 5, 1}}},
	}
	var buf seekBuffer
	err := WriteBigWig(&buf, DefaultWriterOptions(), chroms)
	require.Error(t, err)
	var notSorted *NotSortedError
	require.ErrorAs(t, err, &notSorted)
}

func TestReaderInfoAndAutoSQL(t *testing.T) {
	chroms := []ChromValues{{Chrom: ChromInfo{Name: "chr1", Length: 1000}, Values: []Value{{0, 10, 1}}}}
	var buf seekBuffer
	require.NoError(t, WriteBigWig(&buf, DefaultWriterOptions(), chroms))

	rd, err := Open(bytes.NewReader(buf.buf), TypeBigWig)
	require.NoError(t, err)

	info := rd.Info()
	require.Equal(t, TypeBigWig, info.Type)
	require.Equal(t, 1, info.ChromCount)
	require.True(t, info.Compressed)

	sql, err := rd.AutoSQL()
	require.NoError(t, err)
	require.Empty(t, sql)
}
