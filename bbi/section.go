package bbi

import (
	"bytes"
	"encoding/binary"
	"io"
)

// sectionHeaderSize is chromId(4) + start(4) + end(4) + step(4) +
// span(4) + type(1) + reserved(1) + itemCount(2) = 24 bytes, shared by
// every BigWig data section.
const sectionHeaderSize = 24

// sectionHeader is the fixed-size prefix of one BigWig data section.
type sectionHeader struct {
	ChromID   uint32
	Start     uint32
	End       uint32
	Step      uint32
	Span      uint32
	Type      uint8
	ItemCount uint16
}

func readSectionHeader(r io.Reader, order Endianness) (sectionHeader, error) {
	var h sectionHeader
	var reserved uint8
	for _, dst := range []interface{}{&h.ChromID, &h.Start, &h.End, &h.Step, &h.Span} {
		if err := binary.Read(r, order, dst); err != nil {
			return h, err
		}
	}
	if err := binary.Read(r, order, &h.Type); err != nil {
		return h, err
	}
	if err := binary.Read(r, order, &reserved); err != nil {
		return h, err
	}
	if err := binary.Read(r, order, &h.ItemCount); err != nil {
		return h, err
	}
	return h, nil
}

func writeSectionHeader(w io.Writer, order Endianness, h sectionHeader) error {
	fields := []interface{}{h.ChromID, h.Start, h.End, h.Step, h.Span, h.Type, uint8(0), h.ItemCount}
	for _, f := range fields {
		if err := binary.Write(w, order, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBigWigSection decodes one (already decompressed) BigWig data
// block, which may hold several sections back-to-back, into the
// per-chromosome Values it carries, keyed by each section's chromosome
// id. Every section is kept; callers pick the chromosome they need (a
// block never mixes chromosomes in files this package writes, but this
// decoder tolerates files that do).
func DecodeBigWigSection(raw []byte, order Endianness) (map[uint32][]Value, error) {
	r := bytes.NewReader(raw)
	out := make(map[uint32][]Value)

	for r.Len() > 0 {
		h, err := readSectionHeader(r, order)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		values := make([]Value, 0, h.ItemCount)
		switch h.Type {
		case SectionBedGraph:
			for i := 0; i < int(h.ItemCount); i++ {
				var start, end uint32
				var val float32
				if err := binary.Read(r, order, &start); err != nil {
					return nil, err
				}
				if err := binary.Read(r, order, &end); err != nil {
					return nil, err
				}
				if err := binary.Read(r, order, &val); err != nil {
					return nil, err
				}
				values = append(values, Value{Start: start, End: end, Value: val})
			}
		case SectionVariableStep:
			for i := 0; i < int(h.ItemCount); i++ {
				var start uint32
				var val float32
				if err := binary.Read(r, order, &start); err != nil {
					return nil, err
				}
				if err := binary.Read(r, order, &val); err != nil {
					return nil, err
				}
				values = append(values, Value{Start: start, End: start + h.Span, Value: val})
			}
		case SectionFixedStep:
			start := h.Start
			for i := 0; i < int(h.ItemCount); i++ {
				var val float32
				if err := binary.Read(r, order, &val); err != nil {
					return nil, err
				}
				values = append(values, Value{Start: start, End: start + h.Span, Value: val})
				start += h.Step
			}
		default:
			return nil, &InvalidFileError{Reason: "unknown section type"}
		}

		out[h.ChromID] = append(out[h.ChromID], values...)
	}
	return out, nil
}

// EncodeBedGraphSection serializes values (already belonging to a single
// chromosome and sorted by Start) as one bedGraph-type section.
func EncodeBedGraphSection(order Endianness, chromID uint32, values []Value) []byte {
	var buf bytes.Buffer
	h := sectionHeader{
		ChromID:   chromID,
		Start:     values[0].Start,
		End:       values[len(values)-1].End,
		Type:      SectionBedGraph,
		ItemCount: uint16(len(values)),
	}
	writeSectionHeader(&buf, order, h)
	for _, v := range values {
		binary.Write(&buf, order, v.Start)
		binary.Write(&buf, order, v.End)
		binary.Write(&buf, order, v.Value)
	}
	return buf.Bytes()
}

// DecodeBigBedEntries decodes one (already decompressed) BigBed data
// block into the BedEntry records it carries. A record
// whose chrom_start and chrom_end are both zero is treated as a
// hard file-format error.
func DecodeBigBedEntries(raw []byte, order Endianness) ([]BedEntry, error) {
	r := bytes.NewReader(raw)
	var entries []BedEntry

	for r.Len() > 0 {
		var chromID, start, end uint32
		if err := binary.Read(r, order, &chromID); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if err := binary.Read(r, order, &start); err != nil {
			return nil, err
		}
		if err := binary.Read(r, order, &end); err != nil {
			return nil, err
		}
		if start == 0 && end == 0 {
			return nil, &InvalidFileError{Reason: "chrom start and end both equal 0"}
		}

		rest, err := readCString(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, BedEntry{Start: start, End: end, Rest: rest})
	}
	return entries, nil
}

// EncodeBigBedEntries serializes entries for chromID into one BigBed
// data block body.
func EncodeBigBedEntries(order Endianness, chromID uint32, entries []BedEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		binary.Write(&buf, order, chromID)
		binary.Write(&buf, order, e.Start)
		binary.Write(&buf, order, e.End)
		buf.WriteString(e.Rest)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func readCString(r *bytes.Reader) (string, error) {
	var sb bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return sb.String(), nil
			}
			return "", err
		}
		if b == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}
