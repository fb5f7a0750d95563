package bbi

import (
	"math"
	"sort"
)

// float32Epsilon is the smallest representable gap above 1.0 for
// IEEE-754 single precision (2^-23).
const float32Epsilon = 1.1920929e-7

// float32Equal reports whether a and b are close enough to be treated as
// the same run-length-encoded value.
func float32Equal(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) < float64(float32Epsilon)
}

// mergeInto resolves two overlapping Values into up to three
// non-overlapping pieces plus an optional overhang that continues past
// one.End, such that the union of every returned piece covers exactly
// one∪two and each base's value is the sum of the inputs covering it.
// The case split is exhaustive over the relative ordering of one and
// two's endpoints, with shortcuts that skip emitting a piece when one
// side's value is zero.
//
// mergeInto panics if one and two do not overlap (one.End <= two.Start);
// callers only ever invoke it once they have already established
// overlap.
func mergeInto(one, two Value) (first Value, second, third, overhang *Value) {
	if one.End <= two.Start {
		panic("bbi: mergeInto called on non-overlapping values")
	}

	switch {
	case one.Start == two.Start:
		switch {
		case one.End == two.End:
			return Value{one.Start, one.End, one.Value + two.Value}, nil, nil, nil
		case one.End < two.End:
			ov := Value{one.End, two.End, two.Value}
			return Value{one.Start, one.End, one.Value + two.Value}, nil, nil, &ov
		default:
			if two.Value == 0 {
				return one, nil, nil, nil
			}
			second := Value{two.End, one.End, one.Value}
			return Value{two.Start, two.End, one.Value + two.Value}, &second, nil, nil
		}

	case one.Start < two.Start:
		switch {
		case one.End == two.End:
			if two.Value == 0 {
				return Value{one.Start, one.End, one.Value}, nil, nil, nil
			}
			second := Value{two.Start, two.End, one.Value + two.Value}
			return Value{one.Start, two.Start, one.Value}, &second, nil, nil
		case one.End < two.End:
			switch {
			case one.Value == 0 && two.Value == 0:
				ov := Value{one.End, two.End, 0}
				return one, nil, nil, &ov
			case one.Value == 0:
				second := Value{two.Start, one.End, two.Value}
				ov := Value{one.End, two.End, two.Value}
				return Value{one.Start, two.Start, 0}, &second, nil, &ov
			case two.Value == 0:
				ov := Value{one.End, two.End, 0}
				return one, nil, nil, &ov
			default:
				second := Value{two.Start, one.End, one.Value + two.Value}
				ov := Value{one.End, two.End, two.Value}
				return Value{one.Start, two.Start, one.Value}, &second, nil, &ov
			}
		default:
			if two.Value == 0 {
				return one, nil, nil, nil
			}
			second := Value{two.Start, two.End, one.Value + two.Value}
			third := Value{two.End, one.End, one.Value}
			return Value{one.Start, two.Start, one.Value}, &second, &third, nil
		}

	default: // one.Start > two.Start
		switch {
		case one.End == two.End:
			if one.Value == 0 {
				return two, nil, nil, nil
			}
			second := Value{one.Start, one.End, one.Value + two.Value}
			return Value{two.Start, one.Start, two.Value}, &second, nil, nil
		case one.End < two.End:
			if one.Value == 0 {
				return two, nil, nil, nil
			}
			second := Value{one.Start, one.End, one.Value + two.Value}
			ov := Value{one.End, two.End, two.Value}
			return Value{two.Start, one.Start, two.Value}, &second, nil, &ov
		default:
			switch {
			case one.Value == 0 && two.Value == 0:
				return Value{two.Start, one.End, 0}, nil, nil, nil
			case one.Value == 0:
				second := Value{two.End, one.End, one.Value}
				return two, &second, nil, nil
			case two.Value == 0:
				second := Value{one.Start, one.End, one.Value}
				return Value{two.Start, one.Start, 0}, &second, nil, nil
			default:
				second := Value{one.Start, two.End, one.Value + two.Value}
				third := Value{two.End, one.End, one.Value}
				return Value{two.Start, one.Start, two.Value}, &second, &third, nil
			}
		}
	}
}

// insertIntoQueue inserts val into queue (kept sorted, non-overlapping,
// ascending by Start), splitting and summing with whatever it overlaps
// via mergeInto, and recursing on any overhang.
func insertIntoQueue(queue []Value, val Value) []Value {
	for {
		if len(queue) == 0 || queue[len(queue)-1].End <= val.Start {
			return append(queue, val)
		}

		inserted := false
		var overhang *Value
		for idx := 0; idx < len(queue); idx++ {
			queued := queue[idx]

			if val.End <= queued.Start {
				queue = append(queue, Value{})
				copy(queue[idx+1:], queue[idx:])
				queue[idx] = val
				inserted = true
				break
			}
			if queued.End <= val.Start {
				continue
			}

			first, second, third, oh := mergeInto(queued, val)
			queue[idx] = first
			insertPos := idx + 1
			if second != nil {
				queue = insertAt(queue, insertPos, *second)
				insertPos++
			}
			if third != nil {
				queue = insertAt(queue, insertPos, *third)
			}

			overhang = oh
			inserted = true
			break
		}

		if !inserted {
			panic("bbi: insertIntoQueue found no overlapping or trailing slot")
		}
		if overhang == nil {
			return queue
		}
		val = *overhang
	}
}

func insertAt(s []Value, idx int, v Value) []Value {
	s = append(s, Value{})
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

// mergeWindowSize is the width, in bases, of the accumulator window used
// by MergeValues.
const mergeWindowSize = 50000

// sectionCursor walks one coordinate-sorted input stream, carrying a
// pending value across window boundaries the way ValueIter's
// `(I, Option<Value>)` pairs do.
type sectionCursor struct {
	values  []Value
	idx     int
	pending *Value
}

func (c *sectionCursor) next() (Value, bool) {
	if c.pending != nil {
		v := *c.pending
		c.pending = nil
		return v, true
	}
	if c.idx >= len(c.values) {
		return Value{}, false
	}
	v := c.values[c.idx]
	c.idx++
	return v, true
}

func (c *sectionCursor) stash(v Value) { c.pending = &v }

// MergeValues merges K coordinate-sorted, same-chromosome Value streams
// into one coordinate-sorted, non-overlapping stream whose per-base
// value is the sum of every input's per-base value. It processes the
// genome in fixed-size windows, accumulating each input's contribution
// into a flat per-base buffer before re-encoding it as runs, rather than
// merging the streams value-by-value.
func MergeValues(sections [][]Value) []Value {
	cursors := make([]*sectionCursor, len(sections))
	minStart := ^uint32(0)
	haveAny := false
	for i, s := range sections {
		cursors[i] = &sectionCursor{values: s}
		if len(s) > 0 && s[0].Start < minStart {
			minStart = s[0].Start
			haveAny = true
		}
	}
	if !haveAny {
		return nil
	}

	var out []Value
	var lastVal *Value
	windowStart := (minStart / mergeWindowSize) * mergeWindowSize

	for {
		data := make([]float32, mergeWindowSize)
		allNone := true

		for _, cur := range cursors {
			for {
				v, ok := cur.next()
				if !ok {
					break
				}
				allNone = false

				dataStart := int64(v.Start) - int64(windowStart)
				if dataStart < 0 {
					dataStart = 0
				}
				if dataStart >= mergeWindowSize {
					cur.stash(v)
					break
				}
				dataEnd := int64(v.End) - int64(windowStart)
				if dataEnd > mergeWindowSize {
					dataEnd = mergeWindowSize
				}
				for i := dataStart; i < dataEnd; i++ {
					data[i] += v.Value
				}
				if int64(v.End)-int64(windowStart) >= mergeWindowSize {
					cur.stash(v)
					break
				}
			}
		}

		var nextSections []Value
		var runStart, runEnd uint32
		var runVal float32
		haveRun := false
		flush := func() {
			if haveRun && runVal != 0 {
				nextSections = append(nextSections, Value{Start: runStart, End: runEnd, Value: runVal})
			}
			haveRun = false
		}
		for i, v := range data {
			pos := windowStart + uint32(i)
			if !haveRun {
				runStart, runEnd, runVal, haveRun = pos, pos+1, v, true
				continue
			}
			if float32Equal(v, runVal) {
				runEnd = pos + 1
				continue
			}
			flush()
			runStart, runEnd, runVal, haveRun = pos, pos+1, v, true
		}
		flush()

		if lastVal != nil {
			nextSections = insertIntoQueue(nextSections, *lastVal)
			lastVal = nil
		}
		if len(nextSections) > 0 {
			last := nextSections[len(nextSections)-1]
			lastVal = &last
			nextSections = nextSections[:len(nextSections)-1]
		}

		out = append(out, nextSections...)

		if allNone {
			if lastVal != nil {
				out = append(out, *lastVal)
			}
			break
		}
		windowStart += mergeWindowSize
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// MergeReaders merges the BigWig signal of several open readers into
// one coordinate-sorted, non-overlapping ChromValues stream per
// chromosome, the way the `bigwigmerge` subcommand combines N source
// files. Chromosomes present in more than one reader must agree on
// length; ChromIntersect enforces that and fixes the output's
// chromosome order.
func MergeReaders(readers []*Reader) ([]ChromValues, error) {
	chroms, err := ChromIntersect(readers)
	if err != nil {
		return nil, err
	}

	out := make([]ChromValues, len(chroms))
	for i, c := range chroms {
		var sections [][]Value
		for _, rd := range readers {
			if _, err := rd.ChromID(c.Name); err != nil {
				continue
			}
			values, err := rd.Values(c.Name, 0, c.Length)
			if err != nil {
				return nil, err
			}
			if len(values) > 0 {
				sections = append(sections, values)
			}
		}
		out[i] = ChromValues{Chrom: c, Values: MergeValues(sections)}
	}
	return out, nil
}
