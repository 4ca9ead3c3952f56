package transform

import (
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// channelCompact implements tag 0: each plane's sparse set of distinct
// colours actually used is read as a strictly increasing palette and the
// plane's coded range collapses to [0, nb_colors-1]; Reverse maps the
// decoded index back to the original colour.
type channelCompact struct {
	ctx      *rac.ChanceContext
	palettes [][]int32

	plane int
	seq   *ParamSeq
	count int64
	wantN bool
}

func newChannelCompact() Transform {
	return &channelCompact{ctx: rac.NewChanceContext()}
}

func (c *channelCompact) Tag() int     { return TagChannelCompact }
func (c *channelCompact) Name() string { return "ChannelCompact" }

func (c *channelCompact) ReadParams(d *rac.Decoder, tctx *Context) (bool, error) {
	for c.plane < tctx.NumPlanes {
		if c.seq == nil {
			lo, hi := tctx.Ranges.Min(c.plane), tctx.Ranges.Max(c.plane)
			width := int64(hi) - int64(lo) + 1
			oldLo, oldHi := int64(lo), int64(hi)
			c.seq = NewParamSeq(c.ctx, func(done []int64) (int64, int64, bool) {
				if len(done) == 0 {
					return 1, width, true // nb_colors
				}
				n := int(done[0])
				i := len(done) - 1
				if i >= n {
					return 0, 0, false
				}
				lo := oldLo
				if i > 0 {
					lo = done[len(done)-1] + 1
				}
				hi := oldHi - int64(n-1-i)
				return lo, hi, true
			})
		}
		vals, done, err := c.seq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		n := int(vals[0])
		palette := make([]int32, n)
		for i, v := range vals[1:] {
			palette[i] = int32(v)
		}
		c.palettes = append(c.palettes, palette)
		tctx.Ranges.Set(c.plane, rngEntry(0, int32(n-1)))
		c.seq = nil
		c.plane++
	}
	if tctx.NumPlanes > frame.PlaneAlpha {
		tctx.ForceFillAlpha = true
	}
	return true, nil
}

func (c *channelCompact) Reverse(store *frame.Store) {
	for plane, palette := range c.palettes {
		if plane >= store.NumPlanes() {
			continue
		}
		p := store.Planes[plane]
		for f := 0; f < store.Frames; f++ {
			for y := 0; y < store.Height; y++ {
				for x := 0; x < store.Width; x++ {
					idx := p.Get(f, x, y)
					if int(idx) >= 0 && int(idx) < len(palette) {
						p.Set(f, x, y, palette[idx])
					}
				}
			}
		}
	}
}

func init() {
	Register(TagChannelCompact, "ChannelCompact", newChannelCompact)
}
