package maniac

import (
	"testing"

	"github.com/cocosip/flif16/rac"
)

func TestTreeWalkSingleLeaf(t *testing.T) {
	tree := &Tree{Nodes: []Node{{Property: -1}}}
	ctx := tree.Walk([]int32{1, 2, 3})
	if ctx == nil {
		t.Fatal("expected a non-nil chance context")
	}
	// Walking again for a single-leaf tree must return the same leaf: the
	// root node's count is never touched because Property == -1.
	ctx2 := tree.Walk([]int32{1, 2, 3})
	if ctx != ctx2 {
		t.Fatalf("single-leaf tree should always resolve to the same context")
	}
}

func TestTreeWalkSplitsWhenCountIsZero(t *testing.T) {
	tree := &Tree{
		Nodes: []Node{{Property: -1, Count: 0, LeafID: 0}},
	}
	tree.Nodes[0].Property = -1
	// Force the count==0 split branch manually to exercise Walk's leaf-split
	// bookkeeping without a full tree-building decode.
	tree.Nodes = []Node{
		{Property: 0, Count: 0, SplitVal: 5, ChildID: 1, LeafID: 0},
		{Property: -1},
		{Property: -1},
	}
	before := len(tree.Leaves)
	_ = before
	ctx := tree.Walk([]int32{10})
	if ctx == nil {
		t.Fatal("expected a context")
	}
	if len(tree.Leaves) != 2 {
		t.Fatalf("expected tree to have split into 2 leaves, got %d", len(tree.Leaves))
	}
	if tree.Nodes[1].LeafID == tree.Nodes[2].LeafID {
		t.Fatalf("children should not share a leaf after split")
	}
}

func TestIntReaderTrivialRange(t *testing.T) {
	d := rac.New()
	tree := &Tree{Nodes: []Node{{Property: -1}}}
	val, err := ReadInt(d, tree, nil, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 3 {
		t.Fatalf("val = %d, want 3", val)
	}
}

func TestNewTreeBuilderInitialState(t *testing.T) {
	b := NewTreeBuilder([]PropRange{{Min: 0, Max: 10}})
	if len(b.tree.Nodes) != 1 {
		t.Fatalf("expected a single root node, got %d", len(b.tree.Nodes))
	}
	if len(b.stack) != 1 {
		t.Fatalf("expected a single stack frame, got %d", len(b.stack))
	}
}

func TestForestReturnsCachedTree(t *testing.T) {
	f := NewForest(2)
	if f.Tree(0) != nil {
		t.Fatalf("expected no tree yet")
	}
	tree := &Tree{Nodes: []Node{{Property: -1}}}
	f.trees[0] = tree
	got, err := f.BuildChannel(rac.New(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != tree {
		t.Fatalf("expected cached tree to be returned without building")
	}
}
