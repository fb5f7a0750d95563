package bbi

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParseBedGraphLine parses one bedGraph line ("chrom start end value")
// into its chromosome name and Value.
func ParseBedGraphLine(line string) (string, Value, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", Value{}, &BedValueError{Reason: "bedGraph line has fewer than 4 fields"}
	}
	start, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return "", Value{}, &BedValueError{Reason: "bad start: " + err.Error()}
	}
	end, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return "", Value{}, &BedValueError{Reason: "bad end: " + err.Error()}
	}
	val, err := strconv.ParseFloat(fields[3], 32)
	if err != nil {
		return "", Value{}, &BedValueError{Reason: "bad value: " + err.Error()}
	}
	return fields[0], Value{Start: uint32(start), End: uint32(end), Value: float32(val)}, nil
}

// ParseBedLine parses one BED line ("chrom start end ...") into its
// chromosome name and BedEntry; any fields after start/end are kept
// verbatim (tab-joined) as BedEntry.Rest.
func ParseBedLine(line string) (string, BedEntry, error) {
	fields := strings.SplitN(line, "\t", 4)
	if len(fields) < 3 {
		return "", BedEntry{}, &BedValueError{Reason: "bed line has fewer than 3 fields"}
	}
	start, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return "", BedEntry{}, &BedValueError{Reason: "bad start: " + err.Error()}
	}
	end, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return "", BedEntry{}, &BedValueError{Reason: "bad end: " + err.Error()}
	}
	rest := ""
	if len(fields) == 4 {
		rest = fields[3]
	}
	return fields[0], BedEntry{Start: uint32(start), End: uint32(end), Rest: rest}, nil
}

// ReadBedGraph reads every line of r as bedGraph, grouping Values by
// chromosome and returning the chromosome names in first-appearance
// order (the order a Writer should assign ids in).
func ReadBedGraph(r io.Reader) ([]string, map[string][]Value, error) {
	order := make([]string, 0)
	byChrom := make(map[string][]Value)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		chrom, v, err := ParseBedGraphLine(line)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := byChrom[chrom]; !ok {
			order = append(order, chrom)
		}
		byChrom[chrom] = append(byChrom[chrom], v)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return order, byChrom, nil
}

// ReadBed reads every line of r as BED, grouping BedEntry records by
// chromosome and returning the chromosome names in first-appearance
// order.
func ReadBed(r io.Reader) ([]string, map[string][]BedEntry, error) {
	order := make([]string, 0)
	byChrom := make(map[string][]BedEntry)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		chrom, e, err := ParseBedLine(line)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := byChrom[chrom]; !ok {
			order = append(order, chrom)
		}
		byChrom[chrom] = append(byChrom[chrom], e)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return order, byChrom, nil
}

// WriteBedGraphLine formats v for chrom as one bedGraph line, without a
// trailing newline.
func WriteBedGraphLine(chrom string, v Value) string {
	var sb strings.Builder
	sb.WriteString(chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(v.Start), 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(v.End), 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatFloat(float64(v.Value), 'g', -1, 32))
	return sb.String()
}

// WriteBedLine formats e for chrom as one BED line, without a trailing
// newline.
func WriteBedLine(chrom string, e BedEntry) string {
	var sb strings.Builder
	sb.WriteString(chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(e.Start), 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(e.End), 10))
	if e.Rest != "" {
		sb.WriteByte('\t')
		sb.WriteString(e.Rest)
	}
	return sb.String()
}
