package bbi

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"unicode/utf8"
)

// chromTreeHeaderSize is the fixed size of the chromosome B+-tree header:
// magic(4) + blockSize(4) + keySize(4) + valSize(4) +
// itemCount(8) + reserved(8).
const chromTreeHeaderSize = 32

// chromValSize is the fixed on-disk size of a leaf value: id(4) + length(4).
const chromValSize = 8

// ReadChromTree walks the chromosome B+-tree rooted at offset and returns
// every chromosome it names, sorted by name.
// Callers that need lookup by name build their own map from this slice
// (Open does so for Reader.ChromID).
func ReadChromTree(r io.ReadSeeker, order Endianness, offset uint64) ([]ChromInfo, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, wrapf(err, "seeking to chromosome tree")
	}

	var magic uint32
	if err := binary.Read(r, order, &magic); err != nil {
		return nil, err
	}
	if magic != ChromTreeMagic {
		return nil, &InvalidFileError{Reason: "bad chromosome tree magic"}
	}

	var blockSize, keySize, valSize uint32
	var itemCount, reserved uint64
	for _, dst := range []interface{}{&blockSize, &keySize, &valSize} {
		if err := binary.Read(r, order, dst); err != nil {
			return nil, err
		}
	}
	if err := binary.Read(r, order, &itemCount); err != nil {
		return nil, err
	}
	if err := binary.Read(r, order, &reserved); err != nil {
		return nil, err
	}
	if valSize != chromValSize {
		return nil, &InvalidFileError{Reason: "chromosome tree value size is not 8"}
	}

	chroms := make([]ChromInfo, 0, itemCount)
	if err := readChromNode(r, order, keySize, &chroms); err != nil {
		return nil, err
	}
	if uint64(len(chroms)) != itemCount {
		return nil, &InvalidFileError{Reason: "chromosome count mismatch"}
	}

	sort.Slice(chroms, func(i, j int) bool { return chroms[i].Name < chroms[j].Name })
	return chroms, nil
}

func readChromNode(r io.ReadSeeker, order Endianness, keySize uint32, out *[]ChromInfo) error {
	var isLeaf, reserved uint8
	var count uint16
	if err := binary.Read(r, order, &isLeaf); err != nil {
		return err
	}
	if err := binary.Read(r, order, &reserved); err != nil {
		return err
	}
	if err := binary.Read(r, order, &count); err != nil {
		return err
	}

	if isLeaf != 0 {
		for i := 0; i < int(count); i++ {
			key := make([]byte, keySize)
			if _, err := io.ReadFull(r, key); err != nil {
				return err
			}
			var id, length uint32
			if err := binary.Read(r, order, &id); err != nil {
				return err
			}
			if err := binary.Read(r, order, &length); err != nil {
				return err
			}
			name := bytes.TrimRight(key, "\x00")
			if !utf8.Valid(name) {
				return &InvalidFileError{Reason: "chromosome name is not valid UTF-8"}
			}
			*out = append(*out, ChromInfo{
				Name:   string(name),
				ID:     id,
				Length: length,
			})
		}
		return nil
	}

	children := make([]uint64, count)
	for i := range children {
		key := make([]byte, keySize)
		if _, err := io.ReadFull(r, key); err != nil {
			return err
		}
		var childOffset uint64
		if err := binary.Read(r, order, &childOffset); err != nil {
			return err
		}
		children[i] = childOffset
	}
	for _, child := range children {
		if _, err := r.Seek(int64(child), io.SeekStart); err != nil {
			return err
		}
		if err := readChromNode(r, order, keySize, out); err != nil {
			return err
		}
	}
	return nil
}

// WriteChromTree writes a balanced chromosome B+-tree for chroms (which
// must already be sorted by name) at the current position of w, using
// blockSize as the maximum fanout per node. baseOffset is the absolute file offset w is positioned at
// when this call begins (0 for a standalone tree); the root node is
// serialized immediately after the 32-byte tree header, at
// baseOffset+chromTreeHeaderSize, matching what ReadChromTree expects.
func WriteChromTree(w io.Writer, order Endianness, chroms []ChromInfo, blockSize uint32, baseOffset uint64) error {
	keySize := uint32(1)
	for _, c := range chroms {
		if n := uint32(len(c.Name)); n > keySize {
			keySize = n
		}
	}

	body := buildChromTreeBody(order, chroms, keySize, blockSize, baseOffset+chromTreeHeaderSize)

	if err := binary.Write(w, order, ChromTreeMagic); err != nil {
		return err
	}
	for _, v := range []uint32{blockSize, keySize, chromValSize} {
		if err := binary.Write(w, order, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, uint64(len(chroms))); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint64(0)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// buildChromTreeBody bulk-loads chroms bottom-up into leaf and internal
// levels (bulktree.go), then serializes the whole tree root-first with
// every child offset resolved to its absolute position in the file,
// starting at bodyBase.
func buildChromTreeBody(order Endianness, chroms []ChromInfo, keySize, blockSize uint32, bodyBase uint64) []byte {
	leafEntrySize := int(keySize) + chromValSize
	internalEntrySize := int(keySize) + 8

	var leaves []bulkNode
	if len(chroms) == 0 {
		leaves = append(leaves, bulkNode{
			size: 4,
			encode: func([]uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 1, 0)
				return buf.Bytes()
			},
		})
	}
	for start := 0; start < len(chroms); start += int(blockSize) {
		end := start + int(blockSize)
		if end > len(chroms) {
			end = len(chroms)
		}
		chunk := chroms[start:end]
		leaves = append(leaves, bulkNode{
			size:   4 + len(chunk)*leafEntrySize,
			meta:   chunk[0].Name,
			encode: func([]uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 1, uint16(len(chunk)))
				for _, c := range chunk {
					buf.Write(paddedKey(c.Name, keySize))
					binary.Write(&buf, order, c.ID)
					binary.Write(&buf, order, c.Length)
				}
				return buf.Bytes()
			},
		})
	}

	levels := buildBulkLevels(leaves, blockSize, func(children []bulkNode, childIdx []int) bulkNode {
		firstKey := children[0].meta.(string)
		return bulkNode{
			size:     4 + len(children)*internalEntrySize,
			children: childIdx,
			meta:     firstKey,
			encode: func(childOffsets []uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 0, uint16(len(children)))
				for i, c := range children {
					buf.Write(paddedKey(c.meta.(string), keySize))
					binary.Write(&buf, order, childOffsets[i])
				}
				return buf.Bytes()
			},
		}
	})

	return encodeBulkTree(levels, bodyBase)
}

func writeNodeHeader(w io.Writer, order Endianness, isLeaf uint8, count uint16) {
	binary.Write(w, order, isLeaf)
	binary.Write(w, order, uint8(0))
	binary.Write(w, order, count)
}

func paddedKey(name string, keySize uint32) []byte {
	key := make([]byte, keySize)
	copy(key, name)
	return key
}
