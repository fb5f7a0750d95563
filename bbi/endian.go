package bbi

import (
	"encoding/binary"
)

// defaultOrder is the byte order new files are written in. The format
// itself is endianness-agnostic (see DetectEndianness); little-endian
// matches every writer in the surrounding toolchain.
var defaultOrder Endianness = binary.LittleEndian

// Endianness is the on-disk byte order of a BBI file. It is chosen once,
// at open time, by inspecting the header magic, and is fixed for the
// rest of that file's lifetime — every subsequent multi-byte integer
// and float in the file uses it.
type Endianness = binary.ByteOrder

// DetectEndianness inspects the four raw magic bytes at the start of a
// BBI file and returns the byte order and file type they imply, by
// comparing the magic against both the little- and big-endian encodings
// of the two known magic constants.
func DetectEndianness(raw [4]byte) (Endianness, FileType, error) {
	le := binary.LittleEndian.Uint32(raw[:])
	switch le {
	case BigWigMagic:
		return binary.LittleEndian, TypeBigWig, nil
	case BigBedMagic:
		return binary.LittleEndian, TypeBigBed, nil
	}

	be := binary.BigEndian.Uint32(raw[:])
	switch be {
	case BigWigMagic:
		return binary.BigEndian, TypeBigWig, nil
	case BigBedMagic:
		return binary.BigEndian, TypeBigBed, nil
	}

	return nil, 0, ErrUnknownMagic
}

// magicFor returns the raw 4-byte encoding of the file's leading magic
// number for the given file type and byte order, for use by the writer.
func magicFor(t FileType, order Endianness) []byte {
	var v uint32
	switch t {
	case TypeBigWig:
		v = BigWigMagic
	case TypeBigBed:
		v = BigBedMagic
	}
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return buf
}
