package bbi

// bulkNode is one pending node of a bottom-up bulk-loaded tree. Both the
// chromosome B+-tree and the CIR R-tree build this way: group a flat,
// sorted list of leaf entries into block_size-sized leaves, then
// repeatedly group the parent level the same way until a single root
// remains.
//
// Readers descend a tree starting with the node immediately following
// its header (readChromNode, searchRTreeNode), so the root must be
// serialized first — but an internal node's encoding embeds its
// children's absolute file offsets, which aren't known until every
// node's size in the whole tree is fixed. encodeBulkTree resolves this
// in two passes: offsets first (node size never depends on its own
// offset), then encoding.
type bulkNode struct {
	size     int
	children []int       // indices into the level below; nil for leaves
	meta     interface{} // tree-specific summary for this subtree, read by its parent (a name for the B+-tree, a bounding box for the R-tree)
	encode   func(childOffsets []uint64) []byte
}

// buildBulkLevels groups leaves into blockSize-sized parent levels
// bottom-up using buildInternal, stopping once a single root remains.
// levels[0] is the leaf level; levels[len(levels)-1] is always exactly
// one node, the root.
func buildBulkLevels(leaves []bulkNode, blockSize uint32, buildInternal func(children []bulkNode, childIdx []int) bulkNode) [][]bulkNode {
	if blockSize < 2 {
		blockSize = DefaultBlockSize
	}

	levels := [][]bulkNode{leaves}
	level := leaves
	for len(level) > 1 {
		var next []bulkNode
		for start := 0; start < len(level); start += int(blockSize) {
			end := start + int(blockSize)
			if end > len(level) {
				end = len(level)
			}
			idx := make([]int, end-start)
			for i := range idx {
				idx[i] = start + i
			}
			next = append(next, buildInternal(level[start:end], idx))
		}
		levels = append(levels, next)
		level = next
	}
	return levels
}

// encodeBulkTree lays levels out root-first (levels[last] first,
// leaves last) starting at bodyBase — the absolute file offset of the
// first byte after the tree's fixed header — and returns the
// concatenated, fully-resolved bytes.
func encodeBulkTree(levels [][]bulkNode, bodyBase uint64) []byte {
	offsets := make([][]uint64, len(levels))
	running := bodyBase
	for lvl := len(levels) - 1; lvl >= 0; lvl-- {
		offsets[lvl] = make([]uint64, len(levels[lvl]))
		for idx, node := range levels[lvl] {
			offsets[lvl][idx] = running
			running += uint64(node.size)
		}
	}

	var buf []byte
	for lvl := len(levels) - 1; lvl >= 0; lvl-- {
		for _, node := range levels[lvl] {
			var childOffsets []uint64
			if node.children != nil {
				childOffsets = make([]uint64, len(node.children))
				for i, c := range node.children {
					childOffsets[i] = offsets[lvl-1][c]
				}
			}
			buf = append(buf, node.encode(childOffsets)...)
		}
	}
	return buf
}
