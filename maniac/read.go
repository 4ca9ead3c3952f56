package maniac

import "github.com/cocosip/flif16/rac"

// IntReader decodes one pixel residual against a Tree, given the pixel's
// property vector. It mirrors ff_flif16_maniac_read_int: trivial min==max
// values are returned without touching the tree or the bitstream at all;
// otherwise the tree is walked once (possibly splitting a leaf) and the
// resulting ChanceContext feeds a GNZ integer read.
type IntReader struct {
	tree       *Tree
	properties []int32
	min, max   int64

	ctx      *rac.ChanceContext
	resolved bool
	inner    *rac.GNZReader
}

// NewIntReader starts a residual decode using tree over the given
// properties and bounds.
func NewIntReader(tree *Tree, properties []int32, min, max int64) *IntReader {
	return &IntReader{tree: tree, properties: properties, min: min, max: max}
}

// Step advances the decode as far as buffered input allows.
func (r *IntReader) Step(d *rac.Decoder) (int64, bool, error) {
	if r.min == r.max {
		return r.min, true, nil
	}
	if !r.resolved {
		r.ctx = r.tree.Walk(r.properties)
		r.inner = rac.NewGNZReader(r.min, r.max)
		r.resolved = true
	}
	return r.inner.Step(d, r.ctx)
}

// ReadInt is a convenience wrapper for callers that don't need to persist
// resumable state themselves (the tree walk itself is not resumable mid-walk
// since it never reads bits — only the trailing GNZ read can suspend).
func ReadInt(d *rac.Decoder, tree *Tree, properties []int32, min, max int64) (int64, error) {
	r := NewIntReader(tree, properties, min, max)
	val, _, err := r.Step(d)
	return val, err
}
