// Package huffman builds static Huffman trees and code tables for the
// fixed 256-symbol alphabets SRLA uses to code raw and sum-delta LPC
// coefficients, grounded on
// original_source/libs/static_huffman/src/static_huffman.c.
package huffman

import (
	"github.com/srla-audio/srla/internal/bitstream"
)

// maxSymbols bounds the alphabet size: LPC coefficients are signed 8-bit
// values zig-zag mapped to an unsigned byte, so the alphabet never exceeds
// 256 symbols.
const maxSymbols = 256

// node is an internal tree node; leaves are symbol indices below
// numLeafs, internal nodes are indices at or above it.
type node struct {
	left, right int32 // unused for leaf indices
}

// Code is a single symbol's canonical code: the low Count bits of Bits,
// MSB-first.
type Code struct {
	Bits  uint32
	Count uint8
}

// Tree is a compiled static Huffman tree with a codebook for encoding and
// the node array for bit-by-bit decoding.
type Tree struct {
	codes    []Code
	nodes    []node
	root     int32
	numLeafs int32
}

// NewTree builds a Huffman tree from a symbol-frequency table. Zero
// frequencies are promoted to 1 so every symbol receives a code, matching
// StaticHuffman_NormalizeSymbolCounts / BuildHuffmanTree.
func NewTree(freq []uint32) *Tree {
	n := len(freq)
	counts := make([]uint64, n)
	for i, f := range freq {
		if f == 0 {
			f = 1
		}
		counts[i] = uint64(f)
	}

	// live holds the index of each not-yet-merged node (leaf or internal)
	// together with its aggregate weight.
	type live struct {
		idx    int32
		weight uint64
	}
	pool := make([]live, n)
	for i := range pool {
		pool[i] = live{idx: int32(i), weight: counts[i]}
	}

	nodes := make([]node, n, 2*n)
	freeNode := int32(n)

	for len(pool) > 1 {
		// Find two lowest-weight live entries.
		i0, i1 := 0, 1
		if pool[i1].weight < pool[i0].weight {
			i0, i1 = i1, i0
		}
		for i := 2; i < len(pool); i++ {
			switch {
			case pool[i].weight < pool[i0].weight:
				i1 = i0
				i0 = i
			case pool[i].weight < pool[i1].weight:
				i1 = i
			}
		}

		merged := live{idx: freeNode, weight: pool[i0].weight + pool[i1].weight}
		nodes = append(nodes, node{left: pool[i0].idx, right: pool[i1].idx})
		freeNode++

		// Remove the two merged entries (higher index first) and push the
		// merged internal node.
		hi, lo := i0, i1
		if lo > hi {
			hi, lo = lo, hi
		}
		pool = append(pool[:hi], pool[hi+1:]...)
		pool = append(pool[:lo], pool[lo+1:]...)
		pool = append(pool, merged)
	}

	t := &Tree{nodes: nodes, root: freeNode - 1, numLeafs: int32(n)}
	t.codes = make([]Code, n)
	t.assignCodes(t.root, 0, 0)
	return t
}

func (t *Tree) assignCodes(idx int32, code uint32, depth uint8) {
	if idx < t.numLeafs {
		t.codes[idx] = Code{Bits: code, Count: depth}
		return
	}
	nd := t.nodes[idx]
	t.assignCodes(nd.left, code<<1, depth+1)
	t.assignCodes(nd.right, code<<1|1, depth+1)
}

// Code returns the codeword assigned to symbol sym.
func (t *Tree) Code(sym int) Code {
	return t.codes[sym]
}

// PutCode writes the codeword for sym to w.
func (t *Tree) PutCode(w *bitstream.Writer, sym int) error {
	c := t.codes[sym]
	return w.PutBits(uint64(c.Bits), c.Count)
}

// GetCode reads one symbol by walking the tree bit by bit from the root.
func (t *Tree) GetCode(r *bitstream.Reader) (int, error) {
	idx := t.root
	for idx >= t.numLeafs {
		bit, err := r.GetBits(1)
		if err != nil {
			return 0, err
		}
		nd := t.nodes[idx]
		if bit == 0 {
			idx = nd.left
		} else {
			idx = nd.right
		}
	}
	return int(idx), nil
}
