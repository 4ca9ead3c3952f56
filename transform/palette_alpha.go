package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// paletteAlpha implements tag 5: a palette of (A, Y, Co, Cg) quads. Like
// palette (tag 6) the index is carried in the Co plane; Y, Cg and Alpha are
// forced to the trivial [0,0] range and filled in from the palette entry
// during Reverse.
type paletteAlpha struct {
	ctx *rac.ChanceContext

	haveFlag       bool
	alphaZeroSpec  bool
	sizeSeq        *ParamSeq
	haveSize       bool
	size           int
	entrySeq       *ParamSeq
	entries        [][4]int32
	aRange, yRange [2]int32
	cgRange        [2]int32
}

func newPaletteAlpha() Transform { return &paletteAlpha{ctx: rac.NewChanceContext()} }

func (p *paletteAlpha) Tag() int     { return TagPaletteAlpha }
func (p *paletteAlpha) Name() string { return "PaletteAlpha" }

func (p *paletteAlpha) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	if !p.haveFlag {
		bit, err := d.ReadEvenBit()
		if err != nil {
			return false, err
		}
		p.alphaZeroSpec = bit == 1
		p.haveFlag = true
	}

	if !p.haveSize {
		if p.sizeSeq == nil {
			maxSize := int64(ctx.Ranges.Entry(frame.PlaneY).Width()) *
				int64(ctx.Ranges.Entry(frame.PlaneCo).Width()) *
				int64(ctx.Ranges.Entry(frame.PlaneCg).Width())
			p.sizeSeq = NewParamSeq(p.ctx, fixedCount(1, 1, maxSize))
		}
		vals, done, err := p.sizeSeq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		p.size = int(vals[0])
		if p.size <= 0 {
			return false, fmt.Errorf("transform: PaletteAlpha size %d: %w", p.size, ErrInvalidData)
		}
		p.haveSize = true
		p.aRange = [2]int32{ctx.Ranges.Min(frame.PlaneAlpha), ctx.Ranges.Max(frame.PlaneAlpha)}
		p.yRange = [2]int32{ctx.Ranges.Min(frame.PlaneY), ctx.Ranges.Max(frame.PlaneY)}
		p.cgRange = [2]int32{ctx.Ranges.Min(frame.PlaneCg), ctx.Ranges.Max(frame.PlaneCg)}
	}

	if p.entrySeq == nil {
		coLo, coHi := int64(ctx.Ranges.Min(frame.PlaneCo)), int64(ctx.Ranges.Max(frame.PlaneCo))
		p.entrySeq = NewParamSeq(p.ctx, func(done []int64) (int64, int64, bool) {
			if len(done) >= p.size*4 {
				return 0, 0, false
			}
			switch len(done) % 4 {
			case 0:
				return int64(p.aRange[0]), int64(p.aRange[1]), true
			case 1:
				return int64(p.yRange[0]), int64(p.yRange[1]), true
			case 2:
				return coLo, coHi, true
			default:
				return int64(p.cgRange[0]), int64(p.cgRange[1]), true
			}
		})
	}
	vals, done, err := p.entrySeq.Step(d)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	p.entries = make([][4]int32, p.size)
	for i := range p.entries {
		p.entries[i] = [4]int32{
			int32(vals[4*i]), int32(vals[4*i+1]), int32(vals[4*i+2]), int32(vals[4*i+3]),
		}
	}

	ctx.Ranges.Set(frame.PlaneAlpha, rngEntry(0, 0))
	ctx.Ranges.Set(frame.PlaneY, rngEntry(0, 0))
	ctx.Ranges.Set(frame.PlaneCo, rngEntry(0, int32(p.size-1)))
	ctx.Ranges.Set(frame.PlaneCg, rngEntry(0, 0))
	ctx.ForceConstantAlpha = true
	return true, nil
}

func (p *paletteAlpha) Reverse(store *frame.Store) {
	ap := store.Planes[frame.PlaneAlpha]
	yp := store.Planes[frame.PlaneY]
	cop := store.Planes[frame.PlaneCo]
	cgp := store.Planes[frame.PlaneCg]
	for f := 0; f < store.Frames; f++ {
		for y := 0; y < store.Height; y++ {
			for x := 0; x < store.Width; x++ {
				idx := cop.Get(f, x, y)
				if int(idx) < 0 || int(idx) >= len(p.entries) {
					continue
				}
				e := p.entries[idx]
				ap.Set(f, x, y, e[0])
				yp.Set(f, x, y, e[1])
				cop.Set(f, x, y, e[2])
				cgp.Set(f, x, y, e[3])
			}
		}
	}
}

func init() {
	Register(TagPaletteAlpha, "PaletteAlpha", newPaletteAlpha)
}
