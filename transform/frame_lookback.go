package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// frameLookback implements tag 12: adds a synthetic 5th plane, Lookback,
// whose value at a pixel is how many frames back to copy that pixel from.
// Its range is [0, lookback]; it drives pixel lookup rather than being
// reversed, and is always allocated FILL (spec §4.3).
type frameLookback struct {
	ctx  *rac.ChanceContext
	seq  *ParamSeq
	have bool
	dist int32
}

func newFrameLookback() Transform { return &frameLookback{ctx: rac.NewChanceContext()} }

func (t *frameLookback) Tag() int     { return TagFrameLookback }
func (t *frameLookback) Name() string { return "FrameLookback" }

func (t *frameLookback) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	if !t.have {
		if t.seq == nil {
			if ctx.NumFrames < 2 {
				return false, fmt.Errorf("transform: FrameLookback needs at least 2 frames, have %d: %w", ctx.NumFrames, ErrInvalidData)
			}
			t.seq = NewParamSeq(t.ctx, fixedCount(1, 1, int64(ctx.NumFrames-1)))
		}
		vals, done, err := t.seq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		t.dist = int32(vals[0])
		t.have = true
	}
	if ctx.NumPlanes <= frame.PlaneLookback {
		ctx.NumPlanes = frame.PlaneLookback + 1
	}
	return true, nil
}

// MaxLookback reports the maximum lookback distance, used when allocating
// the Lookback plane's range.
func (t *frameLookback) MaxLookback() int32 { return t.dist }

// Lookbacker is implemented by FrameLookback so callers outside this
// package (the top-level decoder, sizing the Lookback plane) can read the
// decoded distance without depending on the unexported type.
type Lookbacker interface {
	MaxLookback() int32
}

var _ Lookbacker = (*frameLookback)(nil)

func (t *frameLookback) Reverse(store *frame.Store) {}

func init() {
	Register(TagFrameLookback, "FrameLookback", newFrameLookback)
}
