package bbi

import (
	"io"
	"sort"
)

// WriterOptions configures a Writer's sectioning, compression, and zoom
// pyramid behavior.
type WriterOptions struct {
	// BlockSize is the max fanout of both the chromosome B+-tree and
	// every R-tree this writer builds.
	BlockSize uint32
	// ItemsPerSlot is the max number of records packed into one data
	// section before it is flushed.
	ItemsPerSlot uint32
	// ZoomBaseReduction is the bin width of the first zoom level. Zero
	// selects a width derived from the total genome length.
	ZoomBaseReduction uint32
	// Compress deflates every data and zoom block with zlib.
	Compress bool
}

// DefaultWriterOptions returns the options a plain `bedGraphToBigWig`-
// style invocation would use.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		BlockSize:    DefaultBlockSize,
		ItemsPerSlot: DefaultItemsPerSlot,
		Compress:     true,
	}
}

// ChromValues is one chromosome's worth of BigWig input: its metadata
// and its records, already coordinate-sorted and non-overlapping.
type ChromValues struct {
	Chrom  ChromInfo
	Values []Value
}

// ChromBedEntries is one chromosome's worth of BigBed input.
type ChromBedEntries struct {
	Chrom   ChromInfo
	Entries []BedEntry
}

// countingWriter tracks how many bytes have been written through it, so
// the writer pipeline can record block/section offsets without issuing
// a Seek (and its syscall) after every write.
type countingWriter struct {
	w   io.Writer
	pos int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pos += int64(n)
	return n, err
}

// WriteBigWig builds a complete BigWig file from chroms, in the order
// given (that order assigns chromosome ids), writing it to w. Each
// ChromValues.Values must already be sorted by Start with no
// per-chromosome overlaps; violations return a NotSortedError.
func WriteBigWig(w io.WriteSeeker, opts WriterOptions, chroms []ChromValues) error {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.ItemsPerSlot == 0 {
		opts.ItemsPerSlot = DefaultItemsPerSlot
	}

	chromInfos := make([]ChromInfo, len(chroms))
	var totalLen uint64
	for i, cv := range chroms {
		if err := checkValuesSorted(cv.Values); err != nil {
			return err
		}
		chromInfos[i] = ChromInfo{Name: cv.Chrom.Name, ID: uint32(i), Length: cv.Chrom.Length}
		totalLen += uint64(cv.Chrom.Length)
	}

	order := defaultOrder
	reductions := zoomReductionLadder(opts.ZoomBaseReduction, totalLen)

	cw := &countingWriter{w: w}
	headerRegionSize := int64(headerSize) + int64(len(reductions))*int64(zoomHeaderSize) + int64(summarySize)
	if _, err := cw.Write(make([]byte, headerRegionSize)); err != nil {
		return wrapf(err, "reserving header region")
	}

	chromTreeOffset := uint64(cw.pos)
	sortedChroms := append([]ChromInfo(nil), chromInfos...)
	sort.Slice(sortedChroms, func(i, j int) bool { return sortedChroms[i].Name < sortedChroms[j].Name })
	if err := WriteChromTree(cw, order, sortedChroms, opts.BlockSize, chromTreeOffset); err != nil {
		return wrapf(err, "writing chromosome tree")
	}

	fullDataOffset := uint64(cw.pos)
	var dataLeaves []RTreeLeaf
	var total Summary
	perLevelRecords := make([][]ZoomRecord, len(reductions))

	for _, cv := range chroms {
		id := chromIDOf(chromInfos, cv.Chrom.Name)
		leaves, err := writeValueSections(cw, order, id, cv.Values, opts.ItemsPerSlot, opts.Compress)
		if err != nil {
			return wrapf(err, "writing data sections for %s", cv.Chrom.Name)
		}
		dataLeaves = append(dataLeaves, leaves...)

		for _, v := range cv.Values {
			total.merge(valueSummary(v))
		}
		for lvl, reduction := range reductions {
			recs := reduceToZoom(id, cv.Values, reduction)
			perLevelRecords[lvl] = append(perLevelRecords[lvl], recs...)
		}
	}

	fullIndexOffset := uint64(cw.pos)
	sortLeaves(dataLeaves)
	if err := WriteRTree(cw, order, dataLeaves, opts.BlockSize, opts.ItemsPerSlot, fullIndexOffset); err != nil {
		return wrapf(err, "writing r-tree")
	}

	zoomHeaders := make([]ZoomHeader, len(reductions))
	for lvl, reduction := range reductions {
		records := perLevelRecords[lvl]
		sort.Slice(records, func(i, j int) bool {
			if records[i].Chrom != records[j].Chrom {
				return records[i].Chrom < records[j].Chrom
			}
			return records[i].Start < records[j].Start
		})

		dataOffset := uint64(cw.pos)
		leaves, err := writeZoomSections(cw, order, records, opts.Compress)
		if err != nil {
			return wrapf(err, "writing zoom level %d data", lvl)
		}
		indexOffset := uint64(cw.pos)
		sortLeaves(leaves)
		if err := WriteRTree(cw, order, leaves, opts.BlockSize, opts.ItemsPerSlot, indexOffset); err != nil {
			return wrapf(err, "writing zoom level %d index", lvl)
		}
		zoomHeaders[lvl] = ZoomHeader{ReductionLevel: reduction, DataOffset: dataOffset, IndexOffset: indexOffset}
	}

	totalSummaryOffset := uint64(cw.pos)
	if err := writeSummary(cw, order, total); err != nil {
		return wrapf(err, "writing total summary")
	}

	uncompressBufSize := uint32(0)
	if opts.Compress {
		uncompressBufSize = opts.ItemsPerSlot*12 + sectionHeaderSize
	}

	h := &Header{
		Endianness:           order,
		Version:              4,
		ZoomLevels:           uint16(len(reductions)),
		ChromosomeTreeOffset: chromTreeOffset,
		FullDataOffset:       fullDataOffset,
		FullIndexOffset:      fullIndexOffset,
		TotalSummaryOffset:   totalSummaryOffset,
		UncompressBufSize:    uncompressBufSize,
		ZoomHeaders:          zoomHeaders,
		TotalSummary:         total,
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return WriteHeader(w, TypeBigWig, h)
}

// WriteBigBed builds a complete BigBed file from chroms, with every
// record sharing fieldCount BED fields.
func WriteBigBed(w io.WriteSeeker, opts WriterOptions, fieldCount uint16, chroms []ChromBedEntries) error {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.ItemsPerSlot == 0 {
		opts.ItemsPerSlot = DefaultItemsPerSlot
	}

	chromInfos := make([]ChromInfo, len(chroms))
	var totalLen uint64
	for i, ce := range chroms {
		if err := checkEntriesSorted(ce.Entries); err != nil {
			return err
		}
		chromInfos[i] = ChromInfo{Name: ce.Chrom.Name, ID: uint32(i), Length: ce.Chrom.Length}
		totalLen += uint64(ce.Chrom.Length)
	}

	order := defaultOrder
	reductions := zoomReductionLadder(opts.ZoomBaseReduction, totalLen)

	cw := &countingWriter{w: w}
	headerRegionSize := int64(headerSize) + int64(len(reductions))*int64(zoomHeaderSize) + int64(summarySize)
	if _, err := cw.Write(make([]byte, headerRegionSize)); err != nil {
		return wrapf(err, "reserving header region")
	}

	chromTreeOffset := uint64(cw.pos)
	sortedChroms := append([]ChromInfo(nil), chromInfos...)
	sort.Slice(sortedChroms, func(i, j int) bool { return sortedChroms[i].Name < sortedChroms[j].Name })
	if err := WriteChromTree(cw, order, sortedChroms, opts.BlockSize, chromTreeOffset); err != nil {
		return wrapf(err, "writing chromosome tree")
	}

	fullDataOffset := uint64(cw.pos)
	var dataLeaves []RTreeLeaf
	var total Summary
	perLevelRecords := make([][]ZoomRecord, len(reductions))

	for _, ce := range chroms {
		id := chromIDOf(chromInfos, ce.Chrom.Name)
		leaves, err := writeBedSections(cw, order, id, ce.Entries, opts.ItemsPerSlot, opts.Compress)
		if err != nil {
			return wrapf(err, "writing data sections for %s", ce.Chrom.Name)
		}
		dataLeaves = append(dataLeaves, leaves...)

		values := make([]Value, len(ce.Entries))
		for i, e := range ce.Entries {
			values[i] = Value{Start: e.Start, End: e.End, Value: 1}
		}
		for _, v := range values {
			total.merge(valueSummary(v))
		}
		for lvl, reduction := range reductions {
			recs := reduceToZoom(id, values, reduction)
			perLevelRecords[lvl] = append(perLevelRecords[lvl], recs...)
		}
	}

	fullIndexOffset := uint64(cw.pos)
	sortLeaves(dataLeaves)
	if err := WriteRTree(cw, order, dataLeaves, opts.BlockSize, opts.ItemsPerSlot, fullIndexOffset); err != nil {
		return wrapf(err, "writing r-tree")
	}

	zoomHeaders := make([]ZoomHeader, len(reductions))
	for lvl, reduction := range reductions {
		records := perLevelRecords[lvl]
		sort.Slice(records, func(i, j int) bool {
			if records[i].Chrom != records[j].Chrom {
				return records[i].Chrom < records[j].Chrom
			}
			return records[i].Start < records[j].Start
		})

		dataOffset := uint64(cw.pos)
		leaves, err := writeZoomSections(cw, order, records, opts.Compress)
		if err != nil {
			return wrapf(err, "writing zoom level %d data", lvl)
		}
		indexOffset := uint64(cw.pos)
		sortLeaves(leaves)
		if err := WriteRTree(cw, order, leaves, opts.BlockSize, opts.ItemsPerSlot, indexOffset); err != nil {
			return wrapf(err, "writing zoom level %d index", lvl)
		}
		zoomHeaders[lvl] = ZoomHeader{ReductionLevel: reduction, DataOffset: dataOffset, IndexOffset: indexOffset}
	}

	totalSummaryOffset := uint64(cw.pos)
	if err := writeSummary(cw, order, total); err != nil {
		return wrapf(err, "writing total summary")
	}

	uncompressBufSize := uint32(0)
	if opts.Compress {
		uncompressBufSize = opts.ItemsPerSlot*12 + sectionHeaderSize
	}

	h := &Header{
		Endianness:           order,
		Version:              4,
		ZoomLevels:           uint16(len(reductions)),
		ChromosomeTreeOffset: chromTreeOffset,
		FullDataOffset:       fullDataOffset,
		FullIndexOffset:      fullIndexOffset,
		FieldCount:           fieldCount,
		DefinedFieldCount:    fieldCount,
		TotalSummaryOffset:   totalSummaryOffset,
		UncompressBufSize:    uncompressBufSize,
		ZoomHeaders:          zoomHeaders,
		TotalSummary:         total,
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return WriteHeader(w, TypeBigBed, h)
}

func chromIDOf(chroms []ChromInfo, name string) uint32 {
	for _, c := range chroms {
		if c.Name == name {
			return c.ID
		}
	}
	return 0
}

func checkValuesSorted(values []Value) error {
	for i := 1; i < len(values); i++ {
		if values[i].Start < values[i-1].Start {
			return &NotSortedError{Reason: "values are not sorted by start"}
		}
		if values[i].Start < values[i-1].End {
			return &NotSortedError{Reason: "values overlap"}
		}
	}
	return nil
}

func checkEntriesSorted(entries []BedEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i].Start < entries[i-1].Start {
			return &NotSortedError{Reason: "entries are not sorted by start"}
		}
	}
	return nil
}

func valueSummary(v Value) Summary {
	bases := uint64(v.End - v.Start)
	val := float64(v.Value)
	return Summary{
		BasesCovered: bases,
		MinVal:       val,
		MaxVal:       val,
		Sum:          val * float64(bases),
		SumSquares:   val * val * float64(bases),
		TotalItems:   1,
	}
}

// zoomReductionLadder returns the sequence of zoom bin widths a writer
// should build, starting at base (or a width derived from totalLen if
// base is zero) and scaling by zoomResizeRatio at each step, stopping
// once MaxZoomLevels is reached or the width would exceed the genome.
func zoomReductionLadder(base uint32, totalLen uint64) []uint32 {
	if base == 0 {
		base = uint32(totalLen / 512)
		if base < 10 {
			base = 10
		}
	}
	var reductions []uint32
	reduction := base
	for i := 0; i < MaxZoomLevels && uint64(reduction) < totalLen; i++ {
		reductions = append(reductions, reduction)
		reduction *= zoomResizeRatio
	}
	return reductions
}

// writeValueSections packs values into sections of up to itemsPerSlot
// records, compresses (if requested) and writes each, and returns one
// RTreeLeaf per section.
func writeValueSections(cw *countingWriter, order Endianness, chromID uint32, values []Value, itemsPerSlot uint32, compress bool) ([]RTreeLeaf, error) {
	var leaves []RTreeLeaf
	for start := 0; start < len(values); start += int(itemsPerSlot) {
		end := start + int(itemsPerSlot)
		if end > len(values) {
			end = len(values)
		}
		chunk := values[start:end]

		raw := EncodeBedGraphSection(order, chromID, chunk)
		block, err := writeCompressedBlock(cw, raw, compress)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, NewRTreeLeaf(chromID, chunk[0].Start, chromID, chunk[len(chunk)-1].End, block))
	}
	return leaves, nil
}

func writeBedSections(cw *countingWriter, order Endianness, chromID uint32, entries []BedEntry, itemsPerSlot uint32, compress bool) ([]RTreeLeaf, error) {
	var leaves []RTreeLeaf
	for start := 0; start < len(entries); start += int(itemsPerSlot) {
		end := start + int(itemsPerSlot)
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]

		raw := EncodeBigBedEntries(order, chromID, chunk)
		block, err := writeCompressedBlock(cw, raw, compress)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, NewRTreeLeaf(chromID, chunk[0].Start, chromID, chunk[len(chunk)-1].End, block))
	}
	return leaves, nil
}

func writeZoomSections(cw *countingWriter, order Endianness, records []ZoomRecord, compress bool) ([]RTreeLeaf, error) {
	var leaves []RTreeLeaf
	for start := 0; start < len(records); start += zoomDataBlockSize {
		end := start + zoomDataBlockSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		raw := EncodeZoomRecords(order, chunk)
		block, err := writeCompressedBlock(cw, raw, compress)
		if err != nil {
			return nil, err
		}
		first, last := chunk[0], chunk[len(chunk)-1]
		leaves = append(leaves, NewRTreeLeaf(first.Chrom, first.Start, last.Chrom, last.End, block))
	}
	return leaves, nil
}

func writeCompressedBlock(cw *countingWriter, raw []byte, compress bool) (Block, error) {
	payload := raw
	if compress {
		var err error
		payload, err = compressBlock(raw)
		if err != nil {
			return Block{}, err
		}
	}
	offset := uint64(cw.pos)
	if _, err := cw.Write(payload); err != nil {
		return Block{}, err
	}
	return Block{Offset: offset, Size: uint64(len(payload))}, nil
}
