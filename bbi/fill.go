package bbi

// Fill inserts explicit zero-valued Values into the gaps between
// consecutive entries of values (which must be coordinate-sorted and
// non-overlapping), without padding before the first or after the last
// entry.
func Fill(values []Value) []Value {
	return fillBetween(values, 0, 0, false)
}

// FillStartToEnd behaves like Fill but also pads [start, values[0].Start)
// and [last.End, end) with zero-valued Values, so the result fully
// covers [start, end). If start is past the first value's start, that
// value (and anything before it) is left untouched.
func FillStartToEnd(values []Value, start, end uint32) []Value {
	return fillBetween(values, start, end, true)
}

func fillBetween(values []Value, start, end uint32, pad bool) []Value {
	if len(values) == 0 {
		if pad && start < end {
			return []Value{{Start: start, End: end, Value: 0}}
		}
		return nil
	}

	out := make([]Value, 0, len(values)*2)
	if pad && start < values[0].Start {
		out = append(out, Value{Start: start, End: values[0].Start, Value: 0})
	}

	out = append(out, values[0])
	lastEnd := values[0].End
	for _, v := range values[1:] {
		if v.Start > lastEnd {
			out = append(out, Value{Start: lastEnd, End: v.Start, Value: 0})
		}
		out = append(out, v)
		lastEnd = v.End
	}

	if pad && lastEnd < end {
		out = append(out, Value{Start: lastEnd, End: end, Value: 0})
	}
	return out
}
