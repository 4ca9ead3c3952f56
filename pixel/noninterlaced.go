package pixel

import (
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/maniac"
	"github.com/cocosip/flif16/rac"
	"github.com/cocosip/flif16/ranges"
)

// Ranges is the subset of ranges.Stack the pixel decoders need: static and
// dynamic per-plane bounds plus snap. Declared as an interface so tests can
// supply a fake without building a full transform chain.
type Ranges interface {
	Min(c int) int32
	Max(c int) int32
	MinMax(c int, prev []int32) (int32, int32)
	Snap(c int, prev []int32, v int32) int32
}

var _ Ranges = (*ranges.Stack)(nil)

// AlphaZeroMode selects how invisible (alpha==0) pixels on Y/Co/Cg are
// handled on non-interlaced streams, per spec §6's "invisible-pixel
// predictor": 0 predicts the same way a coded pixel's guess would, 1 always
// predicts from the left neighbour, 2 always from the top.
type AlphaZeroMode int

// NonInterlaced decodes one animation's worth of frames in scanline order
// (spec §4.4). It is a resumable state machine: Step persists its position
// (frame, row, column, which plane within the current pixel) so a suspend
// at any RAC read resumes at the exact same pixel and plane.
type NonInterlaced struct {
	Store       *frame.Store
	Ranges      Ranges
	Forest      *maniac.Forest
	HasAlpha    bool
	AlphaZero   bool
	IPP         AlphaZeroMode
	MaxLookback int32

	planes []int // active (non-skipped) DecodeOrder-ordered plane indices

	frame, row, col int
	planeIdx        int
	lbVal           int32
	lbResolved      bool

	propRanges map[int][]maniac.PropRange
	inflight   *maniac.IntReader

	done bool
}

// NewNonInterlaced prepares a scanline decoder over an already-allocated
// store. activePlanes lists, in frame.DecodeOrder order, the plane indices
// that actually need coding (others are skipped: absent, or Constant mode).
func NewNonInterlaced(store *frame.Store, rng Ranges, forest *maniac.Forest, activePlanes []int, hasAlpha, alphaZero bool, maxLookback int32) *NonInterlaced {
	return &NonInterlaced{
		Store:       store,
		Ranges:      rng,
		Forest:      forest,
		HasAlpha:    hasAlpha,
		AlphaZero:   alphaZero,
		MaxLookback: maxLookback,
		planes:      activePlanes,
		propRanges:  map[int][]maniac.PropRange{},
	}
}

// neighbour reads a same-frame, same-plane pixel, substituting 0 for
// out-of-bounds coordinates (the border case, exactly as the reference
// predictor treats the edge of the image).
func (n *NonInterlaced) neighbour(plane, f, x, y int) int32 {
	if x < 0 || y < 0 || x >= n.Store.Width || y >= n.Store.Height {
		return 0
	}
	return n.Store.Planes[plane].Get(f, x, y)
}

func (n *NonInterlaced) colRange(f int) (int, int) {
	if n.Store.ColBegin == nil || f >= len(n.Store.ColBegin) || n.Store.ColBegin[f] == nil {
		return 0, n.Store.Width
	}
	return n.Store.ColBegin[f][n.row], n.Store.ColEnd[f][n.row]
}

// Step advances decoding as far as buffered input allows, returning
// (true, nil) once every frame is fully decoded.
func (n *NonInterlaced) Step(d *rac.Decoder) (bool, error) {
	if n.done {
		return true, nil
	}
	for n.frame < n.Store.Frames {
		if n.Store.SeenBefore != nil && n.Store.SeenBefore[n.frame] >= 0 {
			n.frame++
			n.row, n.col, n.planeIdx = 0, 0, 0
			continue
		}
		for n.row < n.Store.Height {
			begin, end := n.colRange(n.frame)
			if n.col < begin {
				n.copyBorderPixel(n.col)
				n.col++
				continue
			}
			if n.col >= end {
				if n.col < n.Store.Width {
					n.copyBorderPixel(n.col)
					n.col++
					continue
				}
				n.row++
				n.col = 0
				continue
			}

			for n.planeIdx < len(n.planes) {
				plane := n.planes[n.planeIdx]
				ok, err := n.decodePixelPlane(d, plane)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
				n.planeIdx++
			}
			n.planeIdx = 0
			n.lbResolved = false
			n.col++
		}
		n.row = 0
		n.frame++
	}
	n.done = true
	return true, nil
}

// copyBorderPixel fills a column outside the frame's coded shape from the
// logical previous frame, per spec §4.4 step 2.
func (n *NonInterlaced) copyBorderPixel(x int) {
	if n.frame == 0 {
		return
	}
	for _, plane := range n.planes {
		p := n.Store.Planes[plane]
		p.Set(n.frame, x, n.row, p.Get(n.frame-1, x, n.row))
	}
}

func (n *NonInterlaced) decodePixelPlane(d *rac.Decoder, plane int) (bool, error) {
	f, x, y := n.frame, n.col, n.row

	if plane == PlaneLookback {
		lo, hi := n.Ranges.Min(plane), n.Ranges.Max(plane)
		if hi > int32(f) {
			hi = int32(f)
		}
		if lo == hi {
			n.lbVal = lo
			n.Store.Planes[plane].Set(f, x, y, n.lbVal)
			n.lbResolved = true
			return true, nil
		}
		val, ok, err := n.decodeResidual(d, plane, nil, int64(lo), int64(hi), 0)
		if err != nil || !ok {
			return false, err
		}
		n.lbVal = int32(val)
		n.Store.Planes[plane].Set(f, x, y, n.lbVal)
		n.lbResolved = true
		return true, nil
	}

	if n.lbResolved && n.lbVal > 0 {
		src := f - int(n.lbVal)
		if src < 0 {
			src = 0
		}
		n.Store.Planes[plane].Set(f, x, y, n.Store.Planes[plane].Get(src, x, y))
		return true, nil
	}

	alphaVal := int32(0)
	if n.HasAlpha {
		alphaVal = n.Store.Planes[PlaneAlpha].Get(f, x, y)
	}
	invisible := n.AlphaZero && n.HasAlpha && plane != PlaneAlpha && plane != PlaneLookback && alphaVal == 0

	left := n.neighbour(plane, f, x-1, y)
	top := n.neighbour(plane, f, x, y-1)
	topleft := n.neighbour(plane, f, x-1, y-1)

	prev := n.prevPlaneValues(plane, f, x, y)
	snap := func(v int32) int32 { return n.Ranges.Snap(plane, prev, v) }

	if invisible {
		guess := n.invisibleGuess(plane, left, top, topleft, snap)
		n.Store.Planes[plane].Set(f, x, y, guess)
		return true, nil
	}

	guess, which := nonInterlacedPredict(left, top, topleft, snap)
	lo, hi := n.Ranges.MinMax(plane, prev)
	props := n.buildProperties(plane, prev, alphaVal, guess, which, left, top, topleft, f, x, y)

	residual, ok, err := n.decodeResidual(d, plane, props, int64(lo)-int64(guess), int64(hi)-int64(guess), 0)
	if err != nil || !ok {
		return false, err
	}
	n.Store.Planes[plane].Set(f, x, y, guess+int32(residual))
	return true, nil
}

func (n *NonInterlaced) invisibleGuess(plane int, left, top, topleft int32, snap func(int32) int32) int32 {
	switch n.IPP {
	case 1:
		return snap(left)
	case 2:
		return snap(top)
	default:
		guess, _ := nonInterlacedPredict(left, top, topleft, snap)
		return guess
	}
}

// prevPlaneValues gathers the already-decoded colour-plane values at (x,y)
// needed by Ranges.MinMax/Snap, indexed the same way frame.Store is (Y, Co,
// Cg, Alpha, Lookback). Only Y and, for Cg, Co as well precede another plane
// in frame.DecodeOrder (Lookback, Alpha, Y, Co, Cg); priorPlaneCount bounds
// how many of out's entries buildProperties actually reads.
func (n *NonInterlaced) prevPlaneValues(plane, f, x, y int) []int32 {
	out := make([]int32, PlaneLookback+1)
	for p := 0; p < priorPlaneCount(plane); p++ {
		out[p] = n.Store.Planes[p].Get(f, x, y)
	}
	return out
}

func (n *NonInterlaced) buildProperties(plane int, prev []int32, alphaVal, guess, which, left, top, topleft int32, f, x, y int) []int32 {
	var props []int32
	for p := 0; p < priorPlaneCount(plane); p++ {
		props = append(props, prev[p])
	}
	if n.HasAlpha && plane != PlaneAlpha {
		props = append(props, alphaVal)
	}
	props = append(props, guess, which)
	topright := n.neighbour(plane, f, x+1, y-1)
	lefttop2 := n.neighbour(plane, f, x-2, y)
	toptop := n.neighbour(plane, f, x, y-2)
	props = append(props,
		left-topleft,
		topleft-top,
		top-topright,
		left-lefttop2,
		top-toptop,
	)
	return props
}

func (n *NonInterlaced) decodeResidual(d *rac.Decoder, plane int, props []int32, lo, hi int64, _ int) (int64, bool, error) {
	if lo == hi {
		return lo, true, nil
	}
	if n.inflight == nil {
		tree, err := n.currentTree(plane, props)
		if err != nil {
			return 0, false, err
		}
		n.inflight = maniac.NewIntReader(tree, props, lo, hi)
	}
	val, ok, err := n.inflight.Step(d)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	n.inflight = nil
	return val, true, nil
}

func (n *NonInterlaced) currentTree(plane int, props []int32) (*maniac.Tree, error) {
	tree := n.Forest.Tree(plane)
	if tree != nil {
		return tree, nil
	}
	// Building the tree is driven by the top-level decoder's MANIAC state,
	// not here; by the time pixel decode starts every channel's tree must
	// already be built (spec §2's HEADER→...→MANIAC→PIXELDATA ordering).
	return nil, errMissingTree{plane}
}

type errMissingTree struct{ plane int }

func (e errMissingTree) Error() string {
	return "pixel: MANIAC tree for plane not built before pixel decode"
}
