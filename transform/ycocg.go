package transform

import (
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
	"github.com/cocosip/flif16/ranges"
)

// ycocg implements tag 1: the reversible YCoCg-R colour transform. It has no
// header parameters (ReadParams returns done immediately) but narrows the
// three colour planes' ranges, with Co and Cg bounded by a band that
// depends on the already-decoded Y (and, for Cg, Co) value at the same
// pixel — the dynamic range spec §3 calls out explicitly for this
// transform.
type ycocg struct {
	origmax4 int32 // FFMAX3(max(Y),max(Co),max(Cg))/4 + 1, over the source ranges
}

func newYCoCg() Transform { return &ycocg{} }

func (y *ycocg) Tag() int     { return TagYCoCg }
func (y *ycocg) Name() string { return "YCoCg" }

func (y *ycocg) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	maxY := ctx.Ranges.Max(frame.PlaneY)
	maxCo := ctx.Ranges.Max(frame.PlaneCo)
	maxCgIn := ctx.Ranges.Max(frame.PlaneCg)
	m := maxY
	if maxCo > m {
		m = maxCo
	}
	if maxCgIn > m {
		m = maxCgIn
	}
	y.origmax4 = m/4 + 1
	m4 := y.origmax4

	ctx.Ranges.Set(frame.PlaneY, rngEntry(0, 4*m4-1))

	ctx.Ranges.Set(frame.PlaneCo, rngEntry(-4*m4+1, 4*m4-1))
	ctx.Ranges.SetDynamic(frame.PlaneCo,
		func(s *ranges.Stack, prev []int32) (int32, int32) {
			yv := prev[frame.PlaneY]
			return minCo(m4, yv), maxCo32(m4, yv)
		},
		func(s *ranges.Stack, prev []int32, v int32) int32 {
			yv := prev[frame.PlaneY]
			return clamp32(v, minCo(m4, yv), maxCo32(m4, yv))
		},
	)

	ctx.Ranges.Set(frame.PlaneCg, rngEntry(-4*m4+1, 4*m4-1))
	ctx.Ranges.SetDynamic(frame.PlaneCg,
		func(s *ranges.Stack, prev []int32) (int32, int32) {
			yv, co := prev[frame.PlaneY], prev[frame.PlaneCo]
			return minCg(m4, yv, co), maxCg(m4, yv, co)
		},
		func(s *ranges.Stack, prev []int32, v int32) int32 {
			yv, co := prev[frame.PlaneY], prev[frame.PlaneCo]
			return clamp32(v, minCg(m4, yv, co), maxCg(m4, yv, co))
		},
	)
	return true, nil
}

// minCo and maxCo are ff_get_min_co/ff_get_max_co ported verbatim: the
// piecewise Co band for a given Y, tightest near the luma extremes (where
// Y itself already bounds how far Co can stray) and widest through the
// middle half (origmax4-1 <= Y < 3*origmax4).
func minCo(origmax4, yval int32) int32 {
	switch {
	case yval < origmax4-1:
		return -3 - 4*yval
	case yval >= 3*origmax4:
		return 4 * (1 + yval - 4*origmax4)
	default:
		return -4*origmax4 + 1
	}
}

func maxCo32(origmax4, yval int32) int32 {
	switch {
	case yval < origmax4-1:
		return 3 + 4*yval
	case yval >= 3*origmax4:
		return 4*origmax4 - 4*(1+yval-3*origmax4)
	default:
		return 4*origmax4 - 1
	}
}

// minCg and maxCg are ff_get_min_cg/ff_get_max_cg ported verbatim: Cg's
// band additionally narrows with the already-decoded Co value in the outer
// two cases and the middle band picks whichever of two candidate bounds is
// tighter.
func minCg(origmax4, yval, coval int32) int32 {
	switch {
	case yval < origmax4-1:
		return -(2*yval + 1)
	case yval >= 3*origmax4:
		return -(2*(4*origmax4-1-yval) - ((1+abs32(coval))/2)*2)
	default:
		a := 2*origmax4 - 1 + (yval-origmax4+1)*2
		b := 2*origmax4 + (3*origmax4-1-yval)*2 - ((1+abs32(coval))/2)*2
		return -min32(a, b)
	}
}

func maxCg(origmax4, yval, coval int32) int32 {
	switch {
	case yval < origmax4-1:
		return 1 + 2*yval - 2*(abs32(coval)/2)
	case yval >= 3*origmax4:
		return 2 * (4*origmax4 - 1 - yval)
	default:
		a := -4*origmax4 + (1+yval-2*origmax4)*2
		b := -2*origmax4 - (yval-origmax4)*2 - 1 + (abs32(coval)/2)*2
		return -max32(a, b)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func clamp32(v, lo, hi int32) int32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func (y *ycocg) Reverse(store *frame.Store) {
	for f := 0; f < store.Frames; f++ {
		for py := 0; py < store.Height; py++ {
			for px := 0; px < store.Width; px++ {
				yp := store.Planes[frame.PlaneY]
				cop := store.Planes[frame.PlaneCo]
				cgp := store.Planes[frame.PlaneCg]

				Y := yp.Get(f, px, py)
				Co := cop.Get(f, px, py)
				Cg := cgp.Get(f, px, py)

				t := Y - (Cg >> 1)
				g := Cg + t
				b := t - (Co >> 1)
				r := b + Co

				yp.Set(f, px, py, r)
				cop.Set(f, px, py, g)
				cgp.Set(f, px, py, b)
			}
		}
	}
}

func init() {
	Register(TagYCoCg, "YCoCg", newYCoCg)
}
