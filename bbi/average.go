package bbi

// BedStats is one bed entry's signal statistics over a BigWig, the
// output record of AverageOverBed.
type BedStats struct {
	Name    string
	Size    uint32  // bed interval length (end - start)
	Covered uint32  // bases within the interval that have a defined value
	Sum     float64 // sum of value * overlap length, over covered bases
	Mean0   float64 // Sum / Size (uncovered bases count as zero)
	Mean    float64 // Sum / Covered (uncovered bases excluded)
}

// AverageOverBed computes signal statistics for one bed interval
// against an open BigWig reader.
func AverageOverBed(rd *Reader, name, chrom string, start, end uint32) (BedStats, error) {
	values, err := rd.Values(chrom, start, end)
	if err != nil {
		return BedStats{}, err
	}

	stats := BedStats{Name: name, Size: end - start}
	for _, v := range values {
		s, e := v.Start, v.End
		if s < start {
			s = start
		}
		if e > end {
			e = end
		}
		if e <= s {
			continue
		}
		overlap := uint32(e - s)
		stats.Covered += overlap
		stats.Sum += float64(v.Value) * float64(overlap)
	}

	if stats.Size > 0 {
		stats.Mean0 = stats.Sum / float64(stats.Size)
	}
	if stats.Covered > 0 {
		stats.Mean = stats.Sum / float64(stats.Covered)
	}
	return stats, nil
}
