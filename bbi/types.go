package bbi

// Value is a single BigWig record: a half-open interval [Start, End)
// carrying a floating point signal value.
type Value struct {
	Start uint32
	End   uint32
	Value float32
}

// BedEntry is a single BigBed record: a half-open interval plus an
// opaque, NUL-terminated tab-delimited tail.
type BedEntry struct {
	Start uint32
	End   uint32
	Rest  string
}

// ChromInfo describes one chromosome: its name, its dense writer-assigned
// id, and its length in bases. Equality is by name only.
type ChromInfo struct {
	Name   string
	ID     uint32
	Length uint32
}

// Equal reports whether two ChromInfos name the same chromosome,
// ignoring ID and Length.
func (c ChromInfo) Equal(o ChromInfo) bool {
	return c.Name == o.Name
}

// Summary is a running aggregate of values over some interval: the
// payload of a ZoomRecord and of the file-level total summary block.
type Summary struct {
	BasesCovered uint64
	MinVal       float64
	MaxVal       float64
	Sum          float64
	SumSquares   float64
	TotalItems   uint64
}

// Mean returns Sum / BasesCovered, or 0 if nothing is covered.
func (s Summary) Mean() float64 {
	if s.BasesCovered == 0 {
		return 0
	}
	return s.Sum / float64(s.BasesCovered)
}

// merge folds another summary's statistics into s in place.
func (s *Summary) merge(o Summary) {
	if s.BasesCovered == 0 {
		s.MinVal, s.MaxVal = o.MinVal, o.MaxVal
	} else if o.BasesCovered > 0 {
		if o.MinVal < s.MinVal {
			s.MinVal = o.MinVal
		}
		if o.MaxVal > s.MaxVal {
			s.MaxVal = o.MaxVal
		}
	}
	s.BasesCovered += o.BasesCovered
	s.Sum += o.Sum
	s.SumSquares += o.SumSquares
	s.TotalItems += o.TotalItems
}

// ZoomRecord is one bin of a zoom pyramid level: the aggregate Summary
// over [Start, End) on chromosome Chrom.
type ZoomRecord struct {
	Chrom   uint32
	Start   uint32
	End     uint32
	Summary Summary
}

// ZoomHeader describes one zoom pyramid level's on-disk location and
// bin width.
type ZoomHeader struct {
	ReductionLevel uint32
	DataOffset     uint64
	IndexOffset    uint64
}

// Block addresses a contiguous, possibly-compressed region of the file.
type Block struct {
	Offset uint64
	Size   uint64
}

// Header is the fixed 64-byte BBI file header plus the zoom headers and
// total-summary block that follow it.
type Header struct {
	Endianness        Endianness
	Version           uint16
	ZoomLevels        uint16
	ChromosomeTreeOffset uint64
	FullDataOffset    uint64
	FullIndexOffset   uint64
	FieldCount        uint16
	DefinedFieldCount uint16
	AutoSQLOffset     uint64
	TotalSummaryOffset uint64
	UncompressBufSize uint32

	ZoomHeaders []ZoomHeader
	TotalSummary Summary
}

// Compressed reports whether data blocks in this file are zlib-deflated.
func (h *Header) Compressed() bool {
	return h.UncompressBufSize > 0
}
