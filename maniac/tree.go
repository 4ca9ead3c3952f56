// Package maniac implements FLIF's MANIAC (Meta-Adaptive Near-zero Integer
// Arithmetic Coding) context tree: a decision tree over per-pixel property
// values whose leaves are the rac.ChanceContext bundles used to decode pixel
// residuals.
//
// The tree itself is grounded on the teacher's jpeg2000/t2.TagTree /
// TagTreeDecoder: a growable, index-addressed node array (no pointers
// between nodes, just integer child indices) that the decoder grows and
// mutates in place as it reads. MANIAC generalizes that shape from a fixed
// 2D tag grid to an arbitrary binary split tree, and adds a second,
// independently-growable array of leaves that is populated lazily the first
// time a given tree path is visited (teacher's tag tree instead pre-sizes
// to the known leaf grid).
//
// The exact node/stack layout and the lazy-leaf-split algorithm are ported
// from the reference decoder (original_source/libavcodec/
// flif16_rangecoder.c: ff_flif16_read_maniac_tree, ff_flif16_maniac_findleaf,
// ff_flif16_maniac_read_int).
package maniac

import "github.com/cocosip/flif16/rac"

// MinCount and MaxCount bound the leaf "count" field read while building a
// tree: a node with a positive count is a leaf-in-waiting that splits once
// its count reaches zero.
const (
	MinCount = 1
	MaxCount = 512

	baseSize = 1600
)

// Node is one entry of a Tree, addressed by array index rather than
// pointer. Property == -1 marks a leaf node.
type Node struct {
	Property int32
	Count    int32
	SplitVal int32
	ChildID  int32
	LeafID   int32
}

// Tree is one plane's (or property channel's) MANIAC context tree: a node
// array plus the chance-context leaves those nodes eventually resolve to.
type Tree struct {
	Nodes  []Node
	Leaves []*rac.ChanceContext
}

// Walk descends the tree for the given property vector. A node that still
// acts as a leaf decrements its count while the count is positive; reached
// with a count of zero it splits in two (duplicating its chance context),
// exactly as the reference decoder's findleaf does. It returns
// the ChanceContext to use for decoding this pixel's residual.
func (t *Tree) Walk(properties []int32) *rac.ChanceContext {
	if len(t.Leaves) == 0 {
		t.Leaves = append(t.Leaves, rac.NewChanceContext())
	}
	pos := 0
	for t.Nodes[pos].Property != -1 {
		n := &t.Nodes[pos]
		switch {
		case n.Count < 0:
			if properties[n.Property] > n.SplitVal {
				pos = int(n.ChildID)
			} else {
				pos = int(n.ChildID) + 1
			}
		case n.Count > 0:
			n.Count--
			return t.Leaves[n.LeafID]
		default: // count == 0: split this leaf
			n.Count--
			oldLeaf := n.LeafID
			newLeaf := int32(len(t.Leaves))
			t.Leaves = append(t.Leaves, t.Leaves[oldLeaf].Clone())
			t.Nodes[n.ChildID].LeafID = oldLeaf
			t.Nodes[n.ChildID+1].LeafID = newLeaf
			if properties[n.Property] > n.SplitVal {
				return t.Leaves[oldLeaf]
			}
			return t.Leaves[newLeaf]
		}
	}
	return t.Leaves[t.Nodes[pos].LeafID]
}

// PropRange is the [min, max] bound of one property, used while building a
// tree to know the legal range for a split_val read.
type PropRange struct {
	Min, Max int32
}
