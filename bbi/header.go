package bbi

import (
	"encoding/binary"
	"io"
)

// headerSize is the fixed size, in bytes, of the BBI file header:
// magic(4) + version(2) + zoomLevels(2) + 5*u64(40) +
// fieldCount(2) + definedFieldCount(2) + bufSize(4) + reserved(8) = 64.
const headerSize = 64

// zoomHeaderSize is the on-disk size of one ZoomHeader record:
// reductionLevel(4) + reserved(4) + dataOffset(8) + indexOffset(8).
const zoomHeaderSize = 24

// summarySize is the on-disk size of the total-summary block:
// basesCovered(8) + min/max/sum/sumSquares(4*8) = 40.
const summarySize = 40

// ReadHeader parses the fixed header, zoom headers, and (if present)
// total-summary block from the start of a BBI file. r must be
// positioned at offset 0. The returned Header.Endianness governs every
// subsequent read from this file.
func ReadHeader(r io.ReadSeeker, want FileType) (*Header, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, wrapf(err, "reading magic")
	}
	order, filetype, err := DetectEndianness(magic)
	if err != nil {
		return nil, err
	}
	if filetype != want {
		return nil, &InvalidFileError{Reason: "magic does not match expected file type"}
	}

	h := &Header{Endianness: order}

	fields := []struct {
		dst interface{}
	}{
		{&h.Version},
		{&h.ZoomLevels},
		{&h.ChromosomeTreeOffset},
		{&h.FullDataOffset},
		{&h.FullIndexOffset},
		{&h.FieldCount},
		{&h.DefinedFieldCount},
		{&h.AutoSQLOffset},
		{&h.TotalSummaryOffset},
		{&h.UncompressBufSize},
	}
	for _, f := range fields {
		if err := binary.Read(r, order, f.dst); err != nil {
			return nil, wrapf(err, "reading header field")
		}
	}
	var reserved uint64
	if err := binary.Read(r, order, &reserved); err != nil {
		return nil, wrapf(err, "reading header reserved field")
	}

	h.ZoomHeaders, err = readZoomHeaders(r, order, h.ZoomLevels)
	if err != nil {
		return nil, wrapf(err, "reading zoom headers")
	}

	if h.TotalSummaryOffset > 0 {
		if _, err := r.Seek(int64(h.TotalSummaryOffset), io.SeekStart); err != nil {
			return nil, wrapf(err, "seeking to total summary")
		}
		h.TotalSummary, err = readSummary(r, order)
		if err != nil {
			return nil, wrapf(err, "reading total summary")
		}
	}

	return h, nil
}

func readZoomHeaders(r io.Reader, order Endianness, nLevels uint16) ([]ZoomHeader, error) {
	if nLevels == 0 {
		return nil, nil
	}
	headers := make([]ZoomHeader, nLevels)
	for i := range headers {
		if err := binary.Read(r, order, &headers[i].ReductionLevel); err != nil {
			return nil, err
		}
		var reserved uint32
		if err := binary.Read(r, order, &reserved); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &headers[i].DataOffset); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &headers[i].IndexOffset); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

func readSummary(r io.Reader, order Endianness) (Summary, error) {
	var s Summary
	if err := binary.Read(r, order, &s.BasesCovered); err != nil {
		return s, err
	}
	if err := binary.Read(r, order, &s.MinVal); err != nil {
		return s, err
	}
	if err := binary.Read(r, order, &s.MaxVal); err != nil {
		return s, err
	}
	if err := binary.Read(r, order, &s.Sum); err != nil {
		return s, err
	}
	if err := binary.Read(r, order, &s.SumSquares); err != nil {
		return s, err
	}
	return s, nil
}

// WriteHeader writes the fixed header, zoom headers, and total-summary
// block at the current position of w (normally offset 0, on the final
// pass of the writer pipeline once every offset is known).
func WriteHeader(w io.Writer, t FileType, h *Header) error {
	order := h.Endianness
	if _, err := w.Write(magicFor(t, order)); err != nil {
		return err
	}
	fields := []interface{}{
		h.Version,
		h.ZoomLevels,
		h.ChromosomeTreeOffset,
		h.FullDataOffset,
		h.FullIndexOffset,
		h.FieldCount,
		h.DefinedFieldCount,
		h.AutoSQLOffset,
		h.TotalSummaryOffset,
		h.UncompressBufSize,
		uint64(0), // reserved
	}
	for _, f := range fields {
		if err := binary.Write(w, order, f); err != nil {
			return wrapf(err, "writing header field")
		}
	}
	for _, zh := range h.ZoomHeaders {
		if err := binary.Write(w, order, zh.ReductionLevel); err != nil {
			return err
		}
		if err := binary.Write(w, order, uint32(0)); err != nil {
			return err
		}
		if err := binary.Write(w, order, zh.DataOffset); err != nil {
			return err
		}
		if err := binary.Write(w, order, zh.IndexOffset); err != nil {
			return err
		}
	}
	return writeSummary(w, order, h.TotalSummary)
}

func writeSummary(w io.Writer, order Endianness, s Summary) error {
	fields := []interface{}{s.BasesCovered, s.MinVal, s.MaxVal, s.Sum, s.SumSquares}
	for _, f := range fields {
		if err := binary.Write(w, order, f); err != nil {
			return err
		}
	}
	return nil
}
