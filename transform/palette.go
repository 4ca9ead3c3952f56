package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// palette implements tag 6: a palette of (Y, Co, Cg) triples. The index is
// decoded in the Co plane ([0, N-1]); Y and Cg are forced to the trivial
// [0,0] range ("fixed to 0", per spec's transform table) so MANIAC spends
// zero bits on them — Reverse then fills in their real values from the
// palette entry the now-fully-decoded Co index selects, same trick used by
// paletteAlpha.
type palette struct {
	ctx      *rac.ChanceContext
	sizeSeq  *ParamSeq
	size     int
	haveSize bool
	entrySeq *ParamSeq
	entries  [][3]int32

	yRange, cgRange [2]int32
}

func newPalette() Transform { return &palette{ctx: rac.NewChanceContext()} }

func (p *palette) Tag() int     { return TagPalette }
func (p *palette) Name() string { return "Palette" }

func (p *palette) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	if !p.haveSize {
		if p.sizeSeq == nil {
			p.sizeSeq = NewParamSeq(p.ctx, fixedCount(1, 1, int64(ctx.Ranges.Entry(frame.PlaneY).Width()*ctx.Ranges.Entry(frame.PlaneCo).Width()*ctx.Ranges.Entry(frame.PlaneCg).Width())))
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
			return false, fmt.Errorf("transform: Palette size %d: %w", p.size, ErrInvalidData)
		}
		p.haveSize = true
		p.yRange = [2]int32{ctx.Ranges.Min(frame.PlaneY), ctx.Ranges.Max(frame.PlaneY)}
		p.cgRange = [2]int32{ctx.Ranges.Min(frame.PlaneCg), ctx.Ranges.Max(frame.PlaneCg)}
	}

	if p.entrySeq == nil {
		coLo, coHi := int64(ctx.Ranges.Min(frame.PlaneCo)), int64(ctx.Ranges.Max(frame.PlaneCo))
		p.entrySeq = NewParamSeq(p.ctx, func(done []int64) (int64, int64, bool) {
			if len(done) >= p.size*3 {
				return 0, 0, false
			}
			switch len(done) % 3 {
			case 0:
				return int64(p.yRange[0]), int64(p.yRange[1]), true
			case 1:
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
	p.entries = make([][3]int32, p.size)
	for i := range p.entries {
		p.entries[i] = [3]int32{int32(vals[3*i]), int32(vals[3*i+1]), int32(vals[3*i+2])}
	}

	ctx.Ranges.Set(frame.PlaneY, rngEntry(0, 0))
	ctx.Ranges.Set(frame.PlaneCo, rngEntry(0, int32(p.size-1)))
	ctx.Ranges.Set(frame.PlaneCg, rngEntry(0, 0))
	return true, nil
}

func (p *palette) Reverse(store *frame.Store) {
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
				yp.Set(f, x, y, e[0])
				cop.Set(f, x, y, e[1])
				cgp.Set(f, x, y, e[2])
			}
		}
	}
}

func init() {
	Register(TagPalette, "Palette", newPalette)
}
