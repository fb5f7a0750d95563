package bbi

import "sort"

// ChromIntersect reconciles the chromosome tables of several open
// readers into one, the way a merge tool must before combining their
// data: a chromosome present in more than one file must have the same
// length everywhere it appears, and the result lists every chromosome
// in first-appearance order across readers.
func ChromIntersect(readers []*Reader) ([]ChromInfo, error) {
	var order []string
	lengths := make(map[string]uint32)
	seen := make(map[string]bool)

	for _, rd := range readers {
		for _, c := range rd.Chroms() {
			if existing, ok := lengths[c.Name]; ok {
				if existing != c.Length {
					return nil, &InvalidFileError{Reason: "chromosome '" + c.Name + "' has mismatched lengths across inputs"}
				}
				continue
			}
			lengths[c.Name] = c.Length
			if !seen[c.Name] {
				order = append(order, c.Name)
				seen[c.Name] = true
			}
		}
	}

	out := make([]ChromInfo, len(order))
	for i, name := range order {
		out[i] = ChromInfo{Name: name, ID: uint32(i), Length: lengths[name]}
	}
	return out, nil
}

// Intersect returns the portions of a that overlap some entry of b,
// clipped to the overlapping region, carrying a's value. Both a and b must already be coordinate-sorted.
func Intersect(a, b []Value) []Value {
	var out []Value
	j := 0
	for _, av := range a {
		for j < len(b) && b[j].End <= av.Start {
			j++
		}
		for k := j; k < len(b) && b[k].Start < av.End; k++ {
			s, e := av.Start, av.End
			if b[k].Start > s {
				s = b[k].Start
			}
			if b[k].End < e {
				e = b[k].End
			}
			if e > s {
				out = append(out, Value{Start: s, End: e, Value: av.Value})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// IntersectBed is the BedEntry analogue of Intersect: the portions of a
// whose interval overlaps some entry of b, clipped to the overlap and
// carrying a's Rest field.
func IntersectBed(a, b []BedEntry) []BedEntry {
	var out []BedEntry
	j := 0
	for _, ae := range a {
		for j < len(b) && b[j].End <= ae.Start {
			j++
		}
		for k := j; k < len(b) && b[k].Start < ae.End; k++ {
			s, e := ae.Start, ae.End
			if b[k].Start > s {
				s = b[k].Start
			}
			if b[k].End < e {
				e = b[k].End
			}
			if e > s {
				out = append(out, BedEntry{Start: s, End: e, Rest: ae.Rest})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
