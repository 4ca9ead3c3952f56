// Package transform implements FLIF's reversible colour/structural
// transform chain (spec §4.3): a sequence of tagged transforms, each
// narrowing the per-plane value ranges and, for most tags, supplying a
// reverse step applied to decoded pixel data before output.
//
// The tag-keyed Register/New shape is grounded on the teacher's
// codec.Registry (string-keyed Codec lookup); here the key is FLIF's
// integer transform tag instead of a codec name/UID, because the
// bitstream selects transforms by a small integer read from the RAC, not by
// a string.
package transform

import (
	"fmt"
	"sync"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
	"github.com/cocosip/flif16/ranges"
)

// Tags, matching spec §4.3's table. 2, 8 and 9 are reserved and must be
// rejected.
const (
	TagChannelCompact = 0
	TagYCoCg          = 1
	TagPermutePlanes  = 3
	TagBounds         = 4
	TagPaletteAlpha   = 5
	TagPalette        = 6
	TagColorBuckets   = 7
	TagDuplicateFrame = 10
	TagFrameShape     = 11
	TagFrameLookback  = 12
)

// Context is the shared state transforms read and narrow while their
// parameters stream in: the image's still-being-finalized geometry and the
// range stack every transform layers onto.
type Context struct {
	Width, Height, NumFrames int
	NumPlanes                int
	Alpha                    bool
	Ranges                   *ranges.Stack

	// ForceFillAlpha and ForceConstantAlpha record a storage-mode override
	// spec §4.3 calls for that the plain min==max rule can't express on its
	// own: ChannelCompact forces FILL on a still-varying alpha plane, while
	// PaletteAlpha forces CONSTANT on one whose every value in fact comes
	// from a per-pixel palette lookup performed in Reverse, not from MANIAC.
	ForceFillAlpha     bool
	ForceConstantAlpha bool
}

// Transform is one layer of the chain. ReadParams is called while the
// transform's own parameters are still being streamed; it may be invoked
// repeatedly (resumable — no bit is read twice) until it reports done=true,
// narrowing ctx.Ranges as its parameters become known. Reverse is applied,
// in LIFO order, once all pixel data has been decoded.
type Transform interface {
	Tag() int
	Name() string
	ReadParams(d *rac.Decoder, ctx *Context) (done bool, err error)
	Reverse(store *frame.Store)
}

var (
	mu       sync.RWMutex
	registry = map[int]func() Transform{}
)

// Register adds a transform constructor under its tag. Called from each
// transform's init().
func Register(tag int, name string, ctor func() Transform) {
	mu.Lock()
	defer mu.Unlock()
	registry[tag] = ctor
}

// ErrUnsupportedTag is returned by New for a reserved or unknown tag.
type ErrUnsupportedTag struct{ Tag int }

func (e ErrUnsupportedTag) Error() string {
	return fmt.Sprintf("transform: unsupported tag %d", e.Tag)
}

// New constructs the transform registered under tag, or ErrUnsupportedTag.
func New(tag int) (Transform, error) {
	mu.RLock()
	ctor, ok := registry[tag]
	mu.RUnlock()
	if !ok {
		return nil, ErrUnsupportedTag{Tag: tag}
	}
	return ctor(), nil
}

// Chain is the ordered stack of transforms applied to one image, along with
// the range bounds they produced.
type Chain struct {
	Transforms []Transform
	Ranges     *ranges.Stack
}

// ReverseAll runs every transform's Reverse in LIFO order (last parsed,
// first reversed), matching how each transform was layered on top of the
// previous one while parsing.
func (c *Chain) ReverseAll(store *frame.Store) {
	for i := len(c.Transforms) - 1; i >= 0; i-- {
		c.Transforms[i].Reverse(store)
	}
}

// Stamper is implemented by the two structural transforms
// (DuplicateFrame, FrameShape) whose effect is metadata the
// pixel decoders need *before* decoding starts, not a per-pixel value
// reversal applied after. Unlike Reverse (LIFO, post-decode), StampAll runs
// in parse order immediately after frame.Store is allocated.
type Stamper interface {
	Stamp(store *frame.Store)
}

// StampAll runs every transform's Stamp (if it implements Stamper) in parse
// order.
func (c *Chain) StampAll(store *frame.Store) {
	for _, t := range c.Transforms {
		if s, ok := t.(Stamper); ok {
			s.Stamp(store)
		}
	}
}

// ChainReader drives spec §6's "transform chain" framing: repeatedly a
// 1-bit "continue" flag, a uniform integer tag in [0,13], then that
// transform's own ReadParams. It is a resumable state machine like
// maniac.TreeBuilder: a segment field plus at most one in-flight sub-reader,
// so a suspension anywhere (the continue bit, the tag read, or partway
// through one transform's own parameters) resumes exactly where it left
// off.
type ChainReader struct {
	ctx   *Context
	chain Chain

	segment int // 0: continue bit, 1: tag, 2: transform params
	tagRdr  *rac.UniformReader
	current Transform

	done bool
}

// NewChainReader starts reading a transform chain into ctx (ctx.Ranges must
// already hold the raw per-plane bounds).
func NewChainReader(ctx *Context) *ChainReader {
	return &ChainReader{ctx: ctx, chain: Chain{Ranges: ctx.Ranges}}
}

// Step advances the chain read as far as buffered input allows.
func (r *ChainReader) Step(d *rac.Decoder) (*Chain, bool, error) {
	if r.done {
		return &r.chain, true, nil
	}
	for {
		if r.segment == 0 {
			bit, err := d.ReadEvenBit()
			if err != nil {
				return nil, false, err
			}
			if bit == 0 {
				r.done = true
				return &r.chain, true, nil
			}
			r.segment = 1
		}

		if r.segment == 1 {
			if r.tagRdr == nil {
				r.tagRdr = rac.NewUniformReader(0, 13)
			}
			tag, ok, err := r.tagRdr.Step(d)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, rac.ErrNeedMoreInput
			}
			r.tagRdr = nil
			t, err := New(int(tag))
			if err != nil {
				return nil, false, err
			}
			r.current = t
			r.segment = 2
		}

		if r.segment == 2 {
			done, err := r.current.ReadParams(d, r.ctx)
			if err != nil {
				return nil, false, err
			}
			if !done {
				return nil, false, rac.ErrNeedMoreInput
			}
			r.chain.Transforms = append(r.chain.Transforms, r.current)
			r.current = nil
			r.segment = 0
		}
	}
}
