package maniac

import (
	"github.com/cocosip/flif16/rac"
	"golang.org/x/exp/slices"
)

// Forest owns one Tree per coded channel (plane), matching the reference
// decoder's FLIF16MANIACContext.forest array indexed by channel.
type Forest struct {
	trees   []*Tree
	pending []*TreeBuilder // nil once a channel's tree has finished building
}

// NewForest allocates a Forest for the given number of channels.
func NewForest(numChannels int) *Forest {
	return &Forest{
		trees:   make([]*Tree, numChannels),
		pending: make([]*TreeBuilder, numChannels),
	}
}

// Grow extends the forest to cover at least numChannels channels, used when
// a transform late in the chain (e.g. FrameLookback) adds a plane after the
// forest was first sized.
func (f *Forest) Grow(numChannels int) {
	if numChannels <= len(f.trees) {
		return
	}
	f.trees = slices.Grow(f.trees, numChannels-len(f.trees))[:numChannels]
	f.pending = slices.Grow(f.pending, numChannels-len(f.pending))[:numChannels]
}

// BuildChannel makes progress building channel's tree from propRanges. It is
// idempotent and resumable: calling it again after ErrNeedMoreInput resumes
// the same in-flight build. Once the tree is complete it is stored and later
// calls return immediately.
func (f *Forest) BuildChannel(d *rac.Decoder, channel int, propRanges []PropRange) (*Tree, error) {
	if f.trees[channel] != nil {
		return f.trees[channel], nil
	}
	if f.pending[channel] == nil {
		f.pending[channel] = NewTreeBuilder(propRanges)
	}
	tree, done, err := f.pending[channel].Step(d)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, rac.ErrNeedMoreInput
	}
	f.trees[channel] = tree
	f.pending[channel] = nil
	return tree, nil
}

// Tree returns the already-built tree for channel, or nil if it hasn't been
// built yet.
func (f *Forest) Tree(channel int) *Tree {
	return f.trees[channel]
}
