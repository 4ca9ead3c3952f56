package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// duplicateFrame implements tag 10: per animation frame, an optional
// "seen_before" reference to an earlier frame this one is a byte-for-byte
// alias of. It carries no range change and Reverse is a no-op; Stamp
// records store.SeenBefore before pixel decoding so the pixel decoders skip
// coding aliased frames and the decoder outputs the referenced frame's
// pixels for them. The frame store still allocates storage for every frame,
// aliased ones included.
type duplicateFrame struct {
	ctx   *rac.ChanceContext
	frame int
	seq   *ParamSeq
	vals  []int32
}

func newDuplicateFrame() Transform { return &duplicateFrame{ctx: rac.NewChanceContext()} }

func (t *duplicateFrame) Tag() int     { return TagDuplicateFrame }
func (t *duplicateFrame) Name() string { return "DuplicateFrame" }

func (t *duplicateFrame) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	for t.frame < ctx.NumFrames {
		if t.seq == nil {
			f := t.frame
			t.seq = NewParamSeq(t.ctx, fixedCount(1, -1, int64(f-1)))
		}
		vals, done, err := t.seq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		sb := int32(vals[0])
		if int(sb) >= t.frame {
			return false, fmt.Errorf("transform: DuplicateFrame frame %d references %d (not yet decoded): %w", t.frame, sb, ErrInvalidData)
		}
		t.vals = append(t.vals, sb)
		t.seq = nil
		t.frame++
	}
	return true, nil
}

func (t *duplicateFrame) Reverse(store *frame.Store) {}

// Stamp sets store.SeenBefore before pixel decoding starts, per spec §4.3:
// DuplicateFrame's effect ("stamps seen_before on frames") must be visible
// to the pixel decoder, not deferred to the post-decode Reverse pass.
func (t *duplicateFrame) Stamp(store *frame.Store) {
	if store.SeenBefore == nil {
		return
	}
	for f, sb := range t.vals {
		if f < len(store.SeenBefore) {
			store.SeenBefore[f] = int(sb)
		}
	}
}

func init() {
	Register(TagDuplicateFrame, "DuplicateFrame", newDuplicateFrame)
}
