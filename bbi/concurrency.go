package bbi

import (
	"bufio"
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkerCount is how many chromosomes the concurrency harness
// processes at once when the caller does not specify a pool size.
const DefaultWorkerCount = 6

// ChromJob is one chromosome's worth of work for RunChromosomeHarness:
// Process must seek its own input to the chromosome's recorded offset,
// process it to completion, and return a handle whose bytes are the
// chromosome's contribution to the final output.
// Process should check ctx periodically so a sibling's failure can
// cancel it promptly.
type ChromJob struct {
	Chrom   ChromInfo
	Process func(ctx context.Context) (io.ReadCloser, error)
}

type chromResult struct {
	rc  io.ReadCloser
	err error
}

// RunChromosomeHarness dispatches jobs to a worker pool of size
// numWorkers (DefaultWorkerCount if <= 0), then drains their results in
// the original jobs order — regardless of completion order — copying
// each into output. The first error from any worker
// or from copying a result cancels the shared context, so workers still
// running can observe it and stop early; RunChromosomeHarness then
// returns that error once every worker has exited.
func RunChromosomeHarness(ctx context.Context, jobs []ChromJob, numWorkers int, output io.Writer) error {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount
	}

	results := make([]chan chromResult, len(jobs))
	for i := range results {
		results[i] = make(chan chromResult, 1)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, numWorkers)

	for idx, job := range jobs {
		idx, job := idx, job
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				results[idx] <- chromResult{err: gctx.Err()}
				return gctx.Err()
			}
			defer func() { <-sem }()

			rc, err := job.Process(gctx)
			results[idx] <- chromResult{rc: rc, err: err}
			return err
		})
	}

	var consumeErr error
	for _, ch := range results {
		res := <-ch
		if res.err != nil {
			if consumeErr == nil {
				consumeErr = res.err
			}
			break
		}
		_, copyErr := io.Copy(output, res.rc)
		res.rc.Close()
		if copyErr != nil && consumeErr == nil {
			consumeErr = copyErr
			cancel()
			break
		}
	}

	if err := g.Wait(); err != nil && consumeErr == nil {
		consumeErr = err
	}
	return consumeErr
}

// ChromOffset records where a chromosome's first line begins in a
// BED/bedGraph stream, as produced by IndexBedStream.
type ChromOffset struct {
	Chrom  string
	Offset int64
}

// IndexBedStream scans r once, recording the byte offset of the first
// line of every run of same-chromosome lines. Lines are tab- or
// whitespace-delimited BED/bedGraph records; the chromosome name is the
// first field.
func IndexBedStream(r io.Reader) ([]ChromOffset, error) {
	var offsets []ChromOffset
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var offset int64
	var lastChrom string
	haveChrom := false

	for scanner.Scan() {
		line := scanner.Text()
		lineLen := int64(len(line)) + 1

		if line != "" {
			chrom := firstField(line)
			if !haveChrom || chrom != lastChrom {
				offsets = append(offsets, ChromOffset{Chrom: chrom, Offset: offset})
				lastChrom, haveChrom = chrom, true
			}
		}

		offset += lineLen
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return offsets, nil
}

func firstField(line string) string {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}
