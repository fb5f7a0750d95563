package bbi

import (
	"bytes"
	"encoding/binary"
)

// zoomRecordSize is the fixed on-disk size of one ZoomRecord: chromId(4)
// + start(4) + end(4) + basesCovered(4) + minVal/maxVal/sum/sumSquares
// (4 each, stored as float32) = 32 bytes.
const zoomRecordSize = 32

// DecodeZoomRecords decodes one (already decompressed) zoom data block
// into its ZoomRecords.
func DecodeZoomRecords(raw []byte, order Endianness) ([]ZoomRecord, error) {
	if len(raw)%zoomRecordSize != 0 {
		return nil, &InvalidFileError{Reason: "zoom block size is not a multiple of 32"}
	}
	n := len(raw) / zoomRecordSize
	records := make([]ZoomRecord, 0, n)
	r := bytes.NewReader(raw)
	for i := 0; i < n; i++ {
		var rec ZoomRecord
		var basesCovered uint32
		var minVal, maxVal, sum, sumSquares float32
		if err := binary.Read(r, order, &rec.Chrom); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &rec.Start); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &rec.End); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &basesCovered); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &minVal); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &maxVal); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &sum); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &sumSquares); err != nil {
			return nil, err
		}
		rec.Summary = Summary{
			BasesCovered: uint64(basesCovered),
			MinVal:       float64(minVal),
			MaxVal:       float64(maxVal),
			Sum:          float64(sum),
			SumSquares:   float64(sumSquares),
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeZoomRecords serializes records into one zoom data block body.
func EncodeZoomRecords(order Endianness, records []ZoomRecord) []byte {
	var buf bytes.Buffer
	for _, rec := range records {
		binary.Write(&buf, order, rec.Chrom)
		binary.Write(&buf, order, rec.Start)
		binary.Write(&buf, order, rec.End)
		binary.Write(&buf, order, uint32(rec.Summary.BasesCovered))
		binary.Write(&buf, order, float32(rec.Summary.MinVal))
		binary.Write(&buf, order, float32(rec.Summary.MaxVal))
		binary.Write(&buf, order, float32(rec.Summary.Sum))
		binary.Write(&buf, order, float32(rec.Summary.SumSquares))
	}
	return buf.Bytes()
}

// BuildZoomLevels computes the cascading zoom pyramid for a single
// chromosome's base-pair values, starting at baseReduction and scaling
// by zoomResizeRatio (4x) at each successive level until either
// MaxZoomLevels is reached or the reduction would exceed the
// chromosome's length.
func BuildZoomLevels(chromID uint32, chromLen uint32, values []Value, baseReduction uint32) [][]ZoomRecord {
	if baseReduction == 0 {
		baseReduction = 1
	}

	var levels [][]ZoomRecord
	reduction := baseReduction
	for i := 0; i < MaxZoomLevels && reduction < chromLen; i++ {
		levels = append(levels, reduceToZoom(chromID, values, reduction))
		reduction *= zoomResizeRatio
	}
	return levels
}

// reduceToZoom bins values into fixed-width windows of size binSize and
// returns one ZoomRecord per non-empty bin, in ascending start order.
func reduceToZoom(chromID uint32, values []Value, binSize uint32) []ZoomRecord {
	var records []ZoomRecord
	var cur *ZoomRecord
	binStart := func(pos uint32) uint32 { return (pos / binSize) * binSize }

	flush := func() {
		if cur != nil {
			records = append(records, *cur)
			cur = nil
		}
	}

	for _, v := range values {
		start := v.Start
		for start < v.End {
			bStart := binStart(start)
			bEnd := bStart + binSize
			if bEnd > v.End {
				bEnd = v.End
			}

			if cur == nil || cur.Start != bStart {
				flush()
				cur = &ZoomRecord{Chrom: chromID, Start: bStart, End: bStart + binSize}
			}

			covered := uint64(bEnd - start)
			cur.Summary.BasesCovered += covered
			cur.Summary.Sum += float64(v.Value) * float64(covered)
			cur.Summary.SumSquares += float64(v.Value) * float64(v.Value) * float64(covered)
			cur.Summary.TotalItems++
			if cur.Summary.BasesCovered == covered {
				cur.Summary.MinVal, cur.Summary.MaxVal = float64(v.Value), float64(v.Value)
			} else {
				if float64(v.Value) < cur.Summary.MinVal {
					cur.Summary.MinVal = float64(v.Value)
				}
				if float64(v.Value) > cur.Summary.MaxVal {
					cur.Summary.MaxVal = float64(v.Value)
				}
			}

			start = bEnd
		}
	}
	flush()
	return records
}

// zoomDataBlockSize caps how many ZoomRecords are grouped into a single
// compressed zoom data block, mirroring the itemsPerSlot used for base
// data blocks.
const zoomDataBlockSize = 1024
