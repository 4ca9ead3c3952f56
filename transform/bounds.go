package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// bounds implements tag 4: a tighter per-plane (min,max) clip over the
// current ranges. It never touches pixel data (Reverse is a no-op) and, if
// the wrapped range was already static, stays static — ctx.Ranges already
// has that property since Bounds only ever narrows plain Entry values, it
// never installs a dynamic hook of its own.
type bounds struct {
	ctx *rac.ChanceContext
	seq *ParamSeq

	plane int
}

func newBounds() Transform { return &bounds{ctx: rac.NewChanceContext()} }

func (b *bounds) Tag() int     { return TagBounds }
func (b *bounds) Name() string { return "Bounds" }

func (b *bounds) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	for b.plane < ctx.NumPlanes {
		if b.seq == nil {
			lo, hi := int64(ctx.Ranges.Min(b.plane)), int64(ctx.Ranges.Max(b.plane))
			b.seq = NewParamSeq(b.ctx, func(done []int64) (int64, int64, bool) {
				switch len(done) {
				case 0:
					return lo, hi, true
				case 1:
					return done[0], hi, true
				default:
					return 0, 0, false
				}
			})
		}
		vals, done, err := b.seq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		newMin, newMax := int32(vals[0]), int32(vals[1])
		if newMin > newMax {
			return false, fmt.Errorf("transform: Bounds plane %d: min %d > max %d: %w", b.plane, newMin, newMax, ErrInvalidData)
		}
		ctx.Ranges.Set(b.plane, rngEntry(newMin, newMax))
		b.seq = nil
		b.plane++
	}
	return true, nil
}

func (b *bounds) Reverse(store *frame.Store) {}

func init() {
	Register(TagBounds, "Bounds", newBounds)
}
