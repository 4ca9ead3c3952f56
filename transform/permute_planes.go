package transform

import (
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// permutePlanes implements tag 3: a permutation of the three colour planes
// (Y, Co, Cg), optionally followed by subtracting plane 0 (post-permutation)
// from Co and Cg so they carry differences instead of absolute values —
// usually a cheaper MANIAC target when colours are close to grey.
type permutePlanes struct {
	ctx *rac.ChanceContext

	haveSubtract bool
	subtract     bool
	perm         []int32
	seq          *ParamSeq

	origMin, origMax [3]int32
}

func newPermutePlanes() Transform {
	return &permutePlanes{ctx: rac.NewChanceContext()}
}

func (p *permutePlanes) Tag() int     { return TagPermutePlanes }
func (p *permutePlanes) Name() string { return "PermutePlanes" }

func (p *permutePlanes) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	if !p.haveSubtract {
		bit, err := d.ReadEvenBit()
		if err != nil {
			return false, err
		}
		p.subtract = bit == 1
		p.haveSubtract = true
	}

	if p.seq == nil {
		p.seq = NewParamSeq(p.ctx, fixedCount(3, 0, 2))
	}
	vals, done, err := p.seq.Step(d)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	p.perm = make([]int32, 3)
	for i, v := range vals {
		p.perm[i] = int32(v)
	}

	for i := 0; i < 3; i++ {
		p.origMin[i] = ctx.Ranges.Min(i)
		p.origMax[i] = ctx.Ranges.Max(i)
	}
	newEntries := make([]int32, 0, 6)
	for _, src := range p.perm {
		newEntries = append(newEntries, p.origMin[src], p.origMax[src])
	}
	for i := 0; i < 3; i++ {
		ctx.Ranges.Set(i, rngEntry(newEntries[2*i], newEntries[2*i+1]))
	}
	if p.subtract {
		base := ctx.Ranges.Entry(0)
		for i := 1; i < 3; i++ {
			e := ctx.Ranges.Entry(i)
			ctx.Ranges.Set(i, rngEntry(e.Min-base.Max, e.Max-base.Min))
		}
	}
	return true, nil
}

func (p *permutePlanes) Reverse(store *frame.Store) {
	for f := 0; f < store.Frames; f++ {
		for y := 0; y < store.Height; y++ {
			for x := 0; x < store.Width; x++ {
				var vals [3]int32
				for i := 0; i < 3; i++ {
					vals[i] = store.Planes[i].Get(f, x, y)
				}
				if p.subtract {
					for i := 1; i < 3; i++ {
						vals[i] += vals[0]
					}
				}
				var out [3]int32
				for i, src := range p.perm {
					out[src] = vals[i]
				}
				for i := 0; i < 3; i++ {
					store.Planes[i].Set(f, x, y, out[i])
				}
			}
		}
	}
}

func init() {
	Register(TagPermutePlanes, "PermutePlanes", newPermutePlanes)
}
