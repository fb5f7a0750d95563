package bbi

import (
	"io"
	"sort"
)

// Reader opens a BigWig or BigBed file for querying. It is not safe for
// concurrent use: every query seeks and reads its single underlying
// ReadSeeker. Concurrent queries need one Reader per goroutine, each
// opened on its own file handle.
type Reader struct {
	r      io.ReadSeeker
	header *Header
	ftype  FileType
	chroms []ChromInfo
	byName map[string]ChromInfo
}

// Open parses the header, chromosome tree, and total summary of r and
// returns a Reader ready for queries. want selects whether r is
// expected to be a BigWig or BigBed file; a mismatch is reported as
// InvalidFileError.
func Open(r io.ReadSeeker, want FileType) (*Reader, error) {
	h, err := ReadHeader(r, want)
	if err != nil {
		return nil, err
	}
	chroms, err := ReadChromTree(r, h.Endianness, h.ChromosomeTreeOffset)
	if err != nil {
		return nil, wrapf(err, "reading chromosome tree")
	}

	byName := make(map[string]ChromInfo, len(chroms))
	for _, c := range chroms {
		byName[c.Name] = c
	}

	return &Reader{r: r, header: h, ftype: want, chroms: chroms, byName: byName}, nil
}

// Header returns the file's parsed header, including zoom headers and
// the total-summary block.
func (rd *Reader) Header() *Header { return rd.header }

// Chroms returns every chromosome named by the file's chromosome
// B+-tree, sorted by name.
func (rd *Reader) Chroms() []ChromInfo { return rd.chroms }

// ChromID resolves name to its writer-assigned id, or
// InvalidChromosomeError if the file has no such chromosome.
func (rd *Reader) ChromID(name string) (uint32, error) {
	c, ok := rd.byName[name]
	if !ok {
		return 0, &InvalidChromosomeError{Name: name}
	}
	return c.ID, nil
}

// blockCursor walks a fixed list of leaf Blocks in search order,
// carrying the last file offset actually read so that a block
// immediately following the previous one on disk skips a redundant
// seek.
type blockCursor struct {
	rd          *Reader
	blocks      []Block
	idx         int
	haveOffset  bool
	knownOffset uint64
}

// next returns the decompressed bytes of the next block. ok is false
// once every block has been consumed; err reports a seek/read/inflate
// failure for the block just walked, in which case raw is nil but the
// cursor remains usable for a subsequent call.
func (c *blockCursor) next() (raw []byte, ok bool, err error) {
	if c.idx >= len(c.blocks) {
		return nil, false, nil
	}
	b := c.blocks[c.idx]
	c.idx++
	raw, err = c.rd.readBlock(b, c.haveOffset, c.knownOffset)
	c.haveOffset = true
	c.knownOffset = b.Offset + b.Size
	return raw, true, err
}

// ValueIterator is a lazy, block-at-a-time sequence of BigWig Values
// produced by Reader.ValuesIter. It carries the underlying blockCursor's
// last-known offset across Next calls, so consecutive blocks already
// positioned correctly avoid a redundant seek. A block that fails to
// read or decode is terminal only for that block: Next reports the
// error once, and later calls resume with the next block in the search
// order.
type ValueIterator struct {
	rd         *Reader
	cursor     *blockCursor
	chromID    uint32
	start, end uint32
	pending    []Value
}

// ValuesIter returns a ValueIterator over every BigWig Value overlapping
// the half-open range [start, end) on chrom, in block-visitation order.
// It is an error to call ValuesIter on a BigBed reader.
func (rd *Reader) ValuesIter(chrom string, start, end uint32) (*ValueIterator, error) {
	if rd.ftype != TypeBigWig {
		return nil, &InvalidFileError{Reason: "ValuesIter called on a non-BigWig file"}
	}
	chromID, err := rd.ChromID(chrom)
	if err != nil {
		return nil, err
	}
	blocks, err := SearchRTree(rd.r, rd.header.Endianness, rd.header.FullIndexOffset, chromID, start, chromID, end)
	if err != nil {
		return nil, err
	}
	return &ValueIterator{
		rd:      rd,
		cursor:  &blockCursor{rd: rd, blocks: blocks},
		chromID: chromID,
		start:   start,
		end:     end,
	}, nil
}

// Next returns the iterator's next Value. ok is false once the
// sequence is exhausted. A non-nil err means the block currently being
// decoded failed; Next can still be called again afterward to resume
// with later blocks.
func (it *ValueIterator) Next() (Value, bool, error) {
	for {
		if len(it.pending) > 0 {
			v := it.pending[0]
			it.pending = it.pending[1:]
			return v, true, nil
		}
		raw, ok, err := it.cursor.next()
		if !ok {
			return Value{}, false, nil
		}
		if err != nil {
			return Value{}, true, err
		}
		sections, err := DecodeBigWigSection(raw, it.rd.header.Endianness)
		if err != nil {
			return Value{}, true, err
		}
		for _, v := range sections[it.chromID] {
			if v.End > it.start && v.Start < it.end {
				it.pending = append(it.pending, v)
			}
		}
	}
}

// Values returns every BigWig Value overlapping the half-open range
// [start, end) on chrom, in ascending Start order. It is an error to
// call Values on a BigBed reader. A block that fails to decode does not
// discard values already collected from earlier blocks: it is recorded
// as the returned error, and scanning continues through the remaining
// blocks.
func (rd *Reader) Values(chrom string, start, end uint32) ([]Value, error) {
	it, err := rd.ValuesIter(chrom, start, end)
	if err != nil {
		return nil, err
	}

	var out []Value
	var firstErr error
	for {
		v, ok, err := it.Next()
		if !ok {
			break
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, firstErr
}

// BedEntryIterator is the BigBed analog of ValueIterator: a lazy,
// block-at-a-time sequence of BedEntry records produced by
// Reader.BedEntriesIter, with the same last-known-offset and
// terminal-per-block error semantics.
type BedEntryIterator struct {
	rd         *Reader
	cursor     *blockCursor
	chromID    uint32
	start, end uint32
	pending    []BedEntry
}

// BedEntriesIter returns a BedEntryIterator over every BedEntry
// overlapping [start, end) on chrom. It is an error to call
// BedEntriesIter on a BigWig reader.
func (rd *Reader) BedEntriesIter(chrom string, start, end uint32) (*BedEntryIterator, error) {
	if rd.ftype != TypeBigBed {
		return nil, &InvalidFileError{Reason: "BedEntriesIter called on a non-BigBed file"}
	}
	chromID, err := rd.ChromID(chrom)
	if err != nil {
		return nil, err
	}
	blocks, err := SearchRTree(rd.r, rd.header.Endianness, rd.header.FullIndexOffset, chromID, start, chromID, end)
	if err != nil {
		return nil, err
	}
	return &BedEntryIterator{
		rd:      rd,
		cursor:  &blockCursor{rd: rd, blocks: blocks},
		chromID: chromID,
		start:   start,
		end:     end,
	}, nil
}

// Next returns the iterator's next BedEntry, with the same ok/err
// contract as ValueIterator.Next.
func (it *BedEntryIterator) Next() (BedEntry, bool, error) {
	for {
		if len(it.pending) > 0 {
			e := it.pending[0]
			it.pending = it.pending[1:]
			return e, true, nil
		}
		raw, ok, err := it.cursor.next()
		if !ok {
			return BedEntry{}, false, nil
		}
		if err != nil {
			return BedEntry{}, true, err
		}
		entries, err := DecodeBigBedEntries(raw, it.rd.header.Endianness)
		if err != nil {
			return BedEntry{}, true, err
		}
		for _, e := range entries {
			if e.End > it.start && e.Start < it.end {
				it.pending = append(it.pending, e)
			}
		}
	}
}

// BedEntries returns every BedEntry overlapping [start, end) on chrom,
// in ascending Start order, with the same partial-results-on-error
// behavior as Values.
func (rd *Reader) BedEntries(chrom string, start, end uint32) ([]BedEntry, error) {
	it, err := rd.BedEntriesIter(chrom, start, end)
	if err != nil {
		return nil, err
	}

	var out []BedEntry
	var firstErr error
	for {
		e, ok, err := it.Next()
		if !ok {
			break
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, firstErr
}

// ZoomRecordIterator is the zoom-pyramid analog of ValueIterator: a
// lazy, block-at-a-time sequence of ZoomRecords produced by
// Reader.ZoomRecordsIter or Reader.GetZoomIntervalIter, with the same
// last-known-offset and terminal-per-block error semantics.
type ZoomRecordIterator struct {
	rd         *Reader
	cursor     *blockCursor
	chromID    uint32
	start, end uint32
	pending    []ZoomRecord
}

func (rd *Reader) zoomRecordsIterAt(indexOffset uint64, chromID, start, end uint32) (*ZoomRecordIterator, error) {
	blocks, err := SearchRTree(rd.r, rd.header.Endianness, indexOffset, chromID, start, chromID, end)
	if err != nil {
		return nil, err
	}
	return &ZoomRecordIterator{
		rd:      rd,
		cursor:  &blockCursor{rd: rd, blocks: blocks},
		chromID: chromID,
		start:   start,
		end:     end,
	}, nil
}

// ZoomRecordsIter returns a ZoomRecordIterator over every ZoomRecord
// overlapping [start, end) on chrom at the zoom level whose reduction
// level is closest to (without exceeding, when possible) maxReduction.
func (rd *Reader) ZoomRecordsIter(chrom string, start, end, maxReduction uint32) (*ZoomRecordIterator, error) {
	chromID, err := rd.ChromID(chrom)
	if err != nil {
		return nil, err
	}
	zh, err := rd.selectZoomLevel(maxReduction)
	if err != nil {
		return nil, err
	}
	return rd.zoomRecordsIterAt(zh.IndexOffset, chromID, start, end)
}

// GetZoomIntervalIter returns a ZoomRecordIterator over every ZoomRecord
// overlapping [start, end) on chrom at exactly reductionLevel, returning
// ErrReductionLevelNotFound if no zoom header in this file carries that
// reduction level.
func (rd *Reader) GetZoomIntervalIter(chrom string, start, end, reductionLevel uint32) (*ZoomRecordIterator, error) {
	chromID, err := rd.ChromID(chrom)
	if err != nil {
		return nil, err
	}

	var zh *ZoomHeader
	for i := range rd.header.ZoomHeaders {
		if rd.header.ZoomHeaders[i].ReductionLevel == reductionLevel {
			zh = &rd.header.ZoomHeaders[i]
			break
		}
	}
	if zh == nil {
		return nil, ErrReductionLevelNotFound
	}

	return rd.zoomRecordsIterAt(zh.IndexOffset, chromID, start, end)
}

// Next returns the iterator's next ZoomRecord, with the same ok/err
// contract as ValueIterator.Next.
func (it *ZoomRecordIterator) Next() (ZoomRecord, bool, error) {
	for {
		if len(it.pending) > 0 {
			rec := it.pending[0]
			it.pending = it.pending[1:]
			return rec, true, nil
		}
		raw, ok, err := it.cursor.next()
		if !ok {
			return ZoomRecord{}, false, nil
		}
		if err != nil {
			return ZoomRecord{}, true, err
		}
		records, err := DecodeZoomRecords(raw, it.rd.header.Endianness)
		if err != nil {
			return ZoomRecord{}, true, err
		}
		for _, rec := range records {
			if rec.Chrom == it.chromID && rec.End > it.start && rec.Start < it.end {
				it.pending = append(it.pending, rec)
			}
		}
	}
}

func drainZoomRecords(it *ZoomRecordIterator) ([]ZoomRecord, error) {
	var out []ZoomRecord
	var firstErr error
	for {
		rec, ok, err := it.Next()
		if !ok {
			break
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, firstErr
}

// ZoomRecords returns every ZoomRecord overlapping [start, end) on
// chrom at the zoom level whose reduction level is closest to (without
// exceeding, when possible) maxReduction, with the same
// partial-results-on-error behavior as Values.
func (rd *Reader) ZoomRecords(chrom string, start, end, maxReduction uint32) ([]ZoomRecord, error) {
	it, err := rd.ZoomRecordsIter(chrom, start, end, maxReduction)
	if err != nil {
		return nil, err
	}
	return drainZoomRecords(it)
}

// GetZoomInterval returns every ZoomRecord overlapping [start, end) on
// chrom at exactly reductionLevel, returning ErrReductionLevelNotFound
// if no zoom header in this file carries that reduction level. It
// shares Values' partial-results-on-error behavior.
func (rd *Reader) GetZoomInterval(chrom string, start, end, reductionLevel uint32) ([]ZoomRecord, error) {
	it, err := rd.GetZoomIntervalIter(chrom, start, end, reductionLevel)
	if err != nil {
		return nil, err
	}
	return drainZoomRecords(it)
}

// FileInfo summarizes a BBI file's header fields, the payload of
// Reader.Info and the `bigwiginfo` CLI subcommand.
type FileInfo struct {
	Type       FileType
	Version    uint16
	ZoomLevels uint16
	ChromCount int
	Compressed bool
	Summary    Summary
}

// Info summarizes this file's header for display, matching the fields
// the `bigwiginfo` subcommand prints.
func (rd *Reader) Info() FileInfo {
	return FileInfo{
		Type:       rd.ftype,
		Version:    rd.header.Version,
		ZoomLevels: rd.header.ZoomLevels,
		ChromCount: len(rd.chroms),
		Compressed: rd.header.Compressed(),
		Summary:    rd.header.TotalSummary,
	}
}

// AutoSQL returns the NUL-terminated autoSQL schema string stored at
// BBIHeader.AutoSQLOffset, or "" if the file has none.
func (rd *Reader) AutoSQL() (string, error) {
	if rd.header.AutoSQLOffset == 0 {
		return "", nil
	}
	if _, err := rd.r.Seek(int64(rd.header.AutoSQLOffset), io.SeekStart); err != nil {
		return "", wrapf(err, "seeking to autoSql")
	}
	br, ok := rd.r.(io.ByteReader)
	if !ok {
		br = &byteSeeker{rd.r}
	}
	var sb []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if b == 0 {
			break
		}
		sb = append(sb, b)
	}
	return string(sb), nil
}

// byteSeeker adapts an io.ReadSeeker without ReadByte into an
// io.ByteReader by reading one byte at a time.
type byteSeeker struct {
	r io.Reader
}

func (b *byteSeeker) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// selectZoomLevel returns the zoom header whose reduction level is the
// largest one not exceeding maxReduction, falling back to the smallest
// available level if none qualify.
func (rd *Reader) selectZoomLevel(maxReduction uint32) (ZoomHeader, error) {
	if len(rd.header.ZoomHeaders) == 0 {
		return ZoomHeader{}, ErrReductionLevelNotFound
	}
	best := rd.header.ZoomHeaders[0]
	haveCandidate := false
	for _, zh := range rd.header.ZoomHeaders {
		if zh.ReductionLevel <= maxReduction && (!haveCandidate || zh.ReductionLevel > best.ReductionLevel) {
			best = zh
			haveCandidate = true
		}
	}
	if !haveCandidate {
		for _, zh := range rd.header.ZoomHeaders {
			if zh.ReductionLevel < best.ReductionLevel {
				best = zh
			}
		}
	}
	return best, nil
}

// readBlock reads and decompresses b. If haveOffset is true and
// knownOffset already equals b.Offset — the file position left by the
// previous block read by the same blockCursor — the seek is skipped.
func (rd *Reader) readBlock(b Block, haveOffset bool, knownOffset uint64) ([]byte, error) {
	if !haveOffset || knownOffset != b.Offset {
		if _, err := rd.r.Seek(int64(b.Offset), io.SeekStart); err != nil {
			return nil, err
		}
	}
	raw := make([]byte, b.Size)
	if _, err := io.ReadFull(rd.r, raw); err != nil {
		return nil, err
	}
	return decompressBlock(raw, rd.header.UncompressBufSize)
}
