package bbi

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectEndiannessLittle(t *testing.T) {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], BigWigMagic)

	order, ftype, err := DetectEndianness(raw)
	require.NoError(t, err)
	require.Equal(t, binary.LittleEndian, order)
	require.Equal(t, TypeBigWig, ftype)
}

func TestDetectEndiannessBig(t *testing.T) {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], BigBedMagic)

	order, ftype, err := DetectEndianness(raw)
	require.NoError(t, err)
	require.Equal(t, binary.BigEndian, order)
	require.Equal(t, TypeBigBed, ftype)
}

func TestDetectEndiannessUnknown(t *testing.T) {
	_, _, err := DetectEndianness([4]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownMagic)
}
