package bbi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunChromosomeHarnessPreservesOrder(t *testing.T) {
	jobs := []ChromJob{
		{Chrom: ChromInfo{Name: "chr3"}, Process: func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("c\n")), nil
		}},
		{Chrom: ChromInfo{Name: "chr1"}, Process: func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("a\n")), nil
		}},
		{Chrom: ChromInfo{Name: "chr2"}, Process: func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("b\n")), nil
		}},
	}

	var out bytes.Buffer
	require.NoError(t, RunChromosomeHarness(context.Background(), jobs, 2, &out))
	require.Equal(t, "c\na\nb\n", out.String())
}

func TestRunChromosomeHarnessPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	jobs := []ChromJob{
		{Chrom: ChromInfo{Name: "chr1"}, Process: func(ctx context.Context) (io.ReadCloser, error) {
			return nil, boom
		}},
		{Chrom: ChromInfo{Name: "chr2"}, Process: func(ctx context.Context) (io.ReadCloser, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	}

	var out bytes.Buffer
	err := RunChromosomeHarness(context.Background(), jobs, 2, &out)
	require.Error(t, err)
}

func TestIndexBedStreamRecordsFirstLinePerChrom(t *testing.T) {
	input := "chr1\t0\t10\nchr1\t10\t20\nchr2\t0\t5\n"
	offsets, err := IndexBedStream(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []ChromOffset{
		{Chrom: "chr1", Offset: 0},
		{Chrom: "chr2", Offset: int64(len("chr1\t0\t10\nchr1\t10\t20\n"))},
	}, offsets)
}
