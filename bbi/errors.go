package bbi

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel/typed errors covering the format's failure modes: bad magic
// numbers, unknown chromosomes, structural corruption, and malformed
// writer input.
var (
	// ErrUnknownMagic is returned when the bytes at an expected magic-number
	// position do not match any format this package understands.
	ErrUnknownMagic = errors.New("bbi: unknown magic number")

	// ErrReductionLevelNotFound is returned by zoom queries that reference a
	// reduction level absent from the file's zoom headers.
	ErrReductionLevelNotFound = errors.New("bbi: reduction level not found")
)

// InvalidChromosomeError reports a query against a chromosome name absent
// from the file's chromosome B+-tree.
type InvalidChromosomeError struct {
	Name string
}

func (e *InvalidChromosomeError) Error() string {
	return fmt.Sprintf("bbi: invalid chromosome %q", e.Name)
}

// InvalidFileError reports structural corruption: a nested magic mismatch,
// invalid UTF-8 in a chromosome name, an impossible count, a zero-zero
// sentinel record, and similar.
type InvalidFileError struct {
	Reason string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("bbi: invalid file: %s", e.Reason)
}

// BedValueError reports malformed text input encountered while writing.
type BedValueError struct {
	Reason string
}

func (e *BedValueError) Error() string {
	return fmt.Sprintf("bbi: malformed bed value: %s", e.Reason)
}

// NotSortedError reports a writer input violating the ordering contract
// of records must arrive sorted by (chrom_id, start) with
// no per-chromosome overlaps.
type NotSortedError struct {
	Reason string
}

func (e *NotSortedError) Error() string {
	return fmt.Sprintf("bbi: input not sorted: %s", e.Reason)
}

func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
