package bbi

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
)

// rTreeHeaderSize is the fixed size of the CIR-tree header:
// magic(4) + blockSize(4) + itemCount(8) + startChrom(4) + startBase(4) +
// endChrom(4) + endBase(4) + endFileOffset(8) + itemsPerSlot(4) +
// reserved(4).
const rTreeHeaderSize = 48

// rTreeLeafEntrySize is bounds(16) + dataOffset(8) + dataSize(8).
const rTreeLeafEntrySize = 32

// rTreeInternalEntrySize is bounds(16) + childOffset(8).
const rTreeInternalEntrySize = 24

// rTreeBounds is the lexicographic (chromIx, base) interval carried by
// every R-tree entry: [startChrom:startBase, endChrom:endBase).
type rTreeBounds struct {
	startChrom, startBase uint32
	endChrom, endBase     uint32
}

// overlaps reports whether the query range [qStartChrom:qStartBase,
// qEndChrom:qEndBase) intersects b, using lexicographic (chrom, base)
// comparison: compare(qStart, b.end) <= 0 AND compare(qEnd, b.start) >= 0.
func (b rTreeBounds) overlaps(qStartChrom, qStartBase, qEndChrom, qEndBase uint32) bool {
	if compareChromPos(qStartChrom, qStartBase, b.endChrom, b.endBase) > 0 {
		return false
	}
	if compareChromPos(qEndChrom, qEndBase, b.startChrom, b.startBase) < 0 {
		return false
	}
	return true
}

func compareChromPos(aChrom, aBase, bChrom, bBase uint32) int {
	if aChrom != bChrom {
		if aChrom < bChrom {
			return -1
		}
		return 1
	}
	switch {
	case aBase < bBase:
		return -1
	case aBase > bBase:
		return 1
	default:
		return 0
	}
}

// SearchRTree walks the CIR-tree rooted at offset and returns every leaf
// Block whose bounds overlap the query range [startChrom:startBase,
// endChrom:endBase), including blocks that only touch it at an endpoint
// (see rTreeBounds.overlaps).
func SearchRTree(r io.ReadSeeker, order Endianness, offset uint64, startChrom, startBase, endChrom, endBase uint32) ([]Block, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, wrapf(err, "seeking to r-tree")
	}
	var magic uint32
	if err := binary.Read(r, order, &magic); err != nil {
		return nil, err
	}
	if magic != CIRTreeMagic {
		return nil, &InvalidFileError{Reason: "bad r-tree magic"}
	}

	var blockSize uint32
	var itemCount uint64
	var hdrStartChrom, hdrStartBase, hdrEndChrom, hdrEndBase uint32
	var endFileOffset uint64
	var itemsPerSlot, reserved uint32

	for _, dst := range []interface{}{
		&blockSize, &itemCount,
		&hdrStartChrom, &hdrStartBase, &hdrEndChrom, &hdrEndBase,
		&endFileOffset, &itemsPerSlot, &reserved,
	} {
		if err := binary.Read(r, order, dst); err != nil {
			return nil, err
		}
	}

	var blocks []Block
	rootPos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if err := searchRTreeNode(r, order, uint64(rootPos), startChrom, startBase, endChrom, endBase, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func searchRTreeNode(r io.ReadSeeker, order Endianness, offset uint64, qStartChrom, qStartBase, qEndChrom, qEndBase uint32, out *[]Block) error {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
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
			b, err := readRTreeBounds(r, order)
			if err != nil {
				return err
			}
			var dataOffset, dataSize uint64
			if err := binary.Read(r, order, &dataOffset); err != nil {
				return err
			}
			if err := binary.Read(r, order, &dataSize); err != nil {
				return err
			}
			if b.overlaps(qStartChrom, qStartBase, qEndChrom, qEndBase) {
				*out = append(*out, Block{Offset: dataOffset, Size: dataSize})
			}
		}
		return nil
	}

	type child struct {
		bounds rTreeBounds
		offset uint64
	}
	children := make([]child, count)
	for i := range children {
		b, err := readRTreeBounds(r, order)
		if err != nil {
			return err
		}
		var childOffset uint64
		if err := binary.Read(r, order, &childOffset); err != nil {
			return err
		}
		children[i] = child{bounds: b, offset: childOffset}
	}
	for _, c := range children {
		if !c.bounds.overlaps(qStartChrom, qStartBase, qEndChrom, qEndBase) {
			continue
		}
		if err := searchRTreeNode(r, order, c.offset, qStartChrom, qStartBase, qEndChrom, qEndBase, out); err != nil {
			return err
		}
	}
	return nil
}

func readRTreeBounds(r io.Reader, order Endianness) (rTreeBounds, error) {
	var b rTreeBounds
	for _, dst := range []*uint32{&b.startChrom, &b.startBase, &b.endChrom, &b.endBase} {
		if err := binary.Read(r, order, dst); err != nil {
			return b, err
		}
	}
	return b, nil
}

// RTreeLeaf is one input record to WriteRTree: a data Block tagged with
// the lexicographic bounds it covers.
type RTreeLeaf struct {
	Bounds rTreeBounds
	Block  Block
}

// NewRTreeLeaf builds an RTreeLeaf spanning [startChrom:startBase,
// endChrom:endBase) for the given data block.
func NewRTreeLeaf(startChrom, startBase, endChrom, endBase uint32, block Block) RTreeLeaf {
	return RTreeLeaf{Bounds: rTreeBounds{startChrom, startBase, endChrom, endBase}, Block: block}
}

// WriteRTree bulk-indexes leaves (already in ascending (chromIx, base)
// order, one per compressed data block written by the writer) into a
// balanced CIR-tree at the current position of w (baseOffset), using
// blockSize as the max fanout per node and itemsPerSlot recorded only
// for header fidelity.
func WriteRTree(w io.Writer, order Endianness, leaves []RTreeLeaf, blockSize, itemsPerSlot uint32, baseOffset uint64) error {
	overall := rTreeBounds{}
	if len(leaves) > 0 {
		overall = leaves[0].Bounds
		for _, l := range leaves[1:] {
			overall = unionBounds(overall, l.Bounds)
		}
	}
	var endFileOffset uint64
	for _, l := range leaves {
		end := l.Block.Offset + l.Block.Size
		if end > endFileOffset {
			endFileOffset = end
		}
	}

	body := buildRTreeBody(order, leaves, blockSize, baseOffset+rTreeHeaderSize)

	if err := binary.Write(w, order, CIRTreeMagic); err != nil {
		return err
	}
	if err := binary.Write(w, order, blockSize); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint64(len(leaves))); err != nil {
		return err
	}
	fields := []interface{}{
		overall.startChrom, overall.startBase, overall.endChrom, overall.endBase,
		endFileOffset, itemsPerSlot, uint32(0),
	}
	for _, f := range fields {
		if err := binary.Write(w, order, f); err != nil {
			return err
		}
	}
	_, err := w.Write(body)
	return err
}

func unionBounds(a, b rTreeBounds) rTreeBounds {
	u := a
	if compareChromPos(b.startChrom, b.startBase, u.startChrom, u.startBase) < 0 {
		u.startChrom, u.startBase = b.startChrom, b.startBase
	}
	if compareChromPos(b.endChrom, b.endBase, u.endChrom, u.endBase) > 0 {
		u.endChrom, u.endBase = b.endChrom, b.endBase
	}
	return u
}

// buildRTreeBody bulk-loads leaves bottom-up into leaf and internal
// levels (bulktree.go), then serializes the whole tree root-first with
// every child offset resolved to its absolute position in the file,
// starting at bodyBase.
func buildRTreeBody(order Endianness, leaves []RTreeLeaf, blockSize uint32, bodyBase uint64) []byte {
	if blockSize < 2 {
		blockSize = DefaultBlockSize
	}

	var nodes []bulkNode
	if len(leaves) == 0 {
		nodes = append(nodes, bulkNode{
			size: 4,
			meta: rTreeBounds{},
			encode: func([]uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 1, 0)
				return buf.Bytes()
			},
		})
	}
	for start := 0; start < len(leaves); start += int(blockSize) {
		end := start + int(blockSize)
		if end > len(leaves) {
			end = len(leaves)
		}
		chunk := leaves[start:end]
		bounds := chunk[0].Bounds
		for _, l := range chunk[1:] {
			bounds = unionBounds(bounds, l.Bounds)
		}
		nodes = append(nodes, bulkNode{
			size: 4 + len(chunk)*rTreeLeafEntrySize,
			meta: bounds,
			encode: func([]uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 1, uint16(len(chunk)))
				for _, l := range chunk {
					writeRTreeBounds(&buf, order, l.Bounds)
					binary.Write(&buf, order, l.Block.Offset)
					binary.Write(&buf, order, l.Block.Size)
				}
				return buf.Bytes()
			},
		})
	}

	levels := buildBulkLevels(nodes, blockSize, func(children []bulkNode, childIdx []int) bulkNode {
		bounds := children[0].meta.(rTreeBounds)
		for _, c := range children[1:] {
			bounds = unionBounds(bounds, c.meta.(rTreeBounds))
		}
		return bulkNode{
			size:     4 + len(children)*rTreeInternalEntrySize,
			children: childIdx,
			meta:     bounds,
			encode: func(childOffsets []uint64) []byte {
				var buf bytes.Buffer
				writeNodeHeader(&buf, order, 0, uint16(len(children)))
				for i, c := range children {
					writeRTreeBounds(&buf, order, c.meta.(rTreeBounds))
					binary.Write(&buf, order, childOffsets[i])
				}
				return buf.Bytes()
			},
		}
	})

	return encodeBulkTree(levels, bodyBase)
}

func writeRTreeBounds(w io.Writer, order Endianness, b rTreeBounds) {
	binary.Write(w, order, b.startChrom)
	binary.Write(w, order, b.startBase)
	binary.Write(w, order, b.endChrom)
	binary.Write(w, order, b.endBase)
}

// sortLeaves orders leaves by ascending (startChrom, startBase), the
// order WriteRTree and the data section writer both require.
func sortLeaves(leaves []RTreeLeaf) {
	sort.Slice(leaves, func(i, j int) bool {
		return compareChromPos(
			leaves[i].Bounds.startChrom, leaves[i].Bounds.startBase,
			leaves[j].Bounds.startChrom, leaves[j].Bounds.startBase,
		) < 0
	})
}
