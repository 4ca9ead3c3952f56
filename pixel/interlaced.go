package pixel

import (
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/maniac"
	"github.com/cocosip/flif16/rac"
)

// zoomPitch returns the row and column pitch of zoomlevel z, per spec §4.5:
// row pitch 2^((z+1)/2), column pitch 2^(z/2).
func zoomPitch(z int) (rowPitch, colPitch int) {
	return 1 << uint((z+1)/2), 1 << uint(z/2)
}

// maxZoomLevel is the coarsest zoomlevel needed to cover a width x height
// image: the smallest z at which both pitches reach or exceed the
// corresponding dimension.
func maxZoomLevel(width, height int) int {
	z := 0
	for {
		rp, cp := zoomPitch(z)
		if rp >= height && cp >= width {
			return z
		}
		z++
	}
}

// Interlaced decodes one animation's worth of frames Adam7-style (spec
// §4.5): a sparse top-level pixel per frame, a "rough" pass down to a coded
// cutoff zoomlevel using a blank (never-split) MANIAC forest, then the real
// per-plane forest (built by the caller once the rough pass completes)
// finishes the remaining zoomlevels. Like NonInterlaced it is a resumable
// row/column state machine, sharing predictor and residual-decode shape
// with it but walking a strided grid instead of every pixel.
//
// Plane/zoomlevel interleaving, predictor-mode selection granularity and
// the gradient predictor's exact formula are not pinned down precisely by
// the distilled spec; this implementation picks the simplest self-consistent
// reading rather than guessing at the reference decoder's bit-for-bit
// behaviour.
type Interlaced struct {
	Store     *frame.Store
	Ranges    Ranges
	HasAlpha  bool
	AlphaZero bool
	IPP       AlphaZeroMode

	planes  []int
	maxZoom int

	roughTrees map[int]*maniac.Tree
	forest     *maniac.Forest

	lbDone    bool
	lbFrame   int
	lbRow     int
	lbCol     int
	lbInflight *maniac.IntReader

	seedDone  bool
	seedFrame int
	seedPlane int
	seedInflight *rac.UniformReader

	roughZLDone bool
	roughZL     int
	roughZLSeq  *rac.UniformReader

	// defaultOrder is read but not acted on: this decoder always walks
	// planes in frame.DecodeOrder regardless of its value (explicit
	// per-step plane-index ordering is not implemented).
	defaultOrder     bool
	defaultOrderDone bool

	predMode    map[int]int32 // resolved per-plane mode, -1 if read per zoomlevel
	predModeSeq map[int]*rac.UniformReader
	predModeSet map[int]bool

	zl       int
	frame    int
	planeIdx int
	y, x     int
	posInit  bool

	zlModeSeq map[int]*rac.UniformReader // per-plane, read once per (plane, zoomlevel) when predMode[plane]==-1
	zlMode    map[int]int32

	inflight *maniac.IntReader

	roughPhase bool
	roughDone  bool
	done       bool
}

// NewInterlaced prepares a zoomlevel decoder. activePlanes lists, in
// frame.DecodeOrder order, the plane indices that actually need coding.
func NewInterlaced(store *frame.Store, rng Ranges, activePlanes []int, hasAlpha, alphaZero bool) *Interlaced {
	in := &Interlaced{
		Store:       store,
		Ranges:      rng,
		HasAlpha:    hasAlpha,
		AlphaZero:   alphaZero,
		planes:      activePlanes,
		maxZoom:     maxZoomLevel(store.Width, store.Height),
		roughTrees:  map[int]*maniac.Tree{},
		predMode:    map[int]int32{},
		predModeSeq: map[int]*rac.UniformReader{},
		predModeSet: map[int]bool{},
		zlModeSeq:   map[int]*rac.UniformReader{},
		zlMode:      map[int]int32{},
	}
	for _, p := range activePlanes {
		if p == PlaneLookback {
			continue
		}
		in.roughTrees[p] = blankTree()
	}
	return in
}

func blankTree() *maniac.Tree { return &maniac.Tree{Nodes: []maniac.Node{{Property: -1}}} }

// MaxZoomLevel reports the coarsest zoomlevel this image needs.
func (in *Interlaced) MaxZoomLevel() int { return in.maxZoom }

// PropRanges seeds the MANIAC property bounds for plane's interlaced
// decode, for the caller to build the real forest with once the rough
// pass has finished.
func (in *Interlaced) PropRanges(plane int) []maniac.PropRange {
	return PropRangesInterlaced(plane, in.HasAlpha, func(p int) (int32, int32) {
		return in.Ranges.Min(p), in.Ranges.Max(p)
	}, in.maxZoom)
}

// SetForest installs the real, fully-built MANIAC forest used to finish
// decoding after the rough pass (and its cutoff zoomlevel) completes.
func (in *Interlaced) SetForest(f *maniac.Forest) { in.forest = f }

// RoughDone reports whether the rough pass (lookback plane, seed pixels,
// and zoomlevels down to the coded cutoff) has finished.
func (in *Interlaced) RoughDone() bool { return in.roughDone }

// RoughZoomLevel reports the coded rough/real cutoff zoomlevel, valid once
// RoughDone reports true.
func (in *Interlaced) RoughZoomLevel() int { return in.roughZL }

func (in *Interlaced) hasPlane(p int) bool {
	for _, q := range in.planes {
		if q == p {
			return true
		}
	}
	return false
}

// StepRough advances the lookback plane, per-frame seed pixels, and the
// rough zoomlevel pass (down to and including the coded cutoff) as far as
// buffered input allows.
func (in *Interlaced) StepRough(d *rac.Decoder) (bool, error) {
	if in.roughDone {
		return true, nil
	}
	if !in.lbDone {
		ok, err := in.stepLookback(d)
		if err != nil || !ok {
			return false, err
		}
	}
	if !in.seedDone {
		ok, err := in.stepSeed(d)
		if err != nil || !ok {
			return false, err
		}
	}
	if !in.roughZLDone {
		if in.roughZLSeq == nil {
			in.roughZLSeq = rac.NewUniformReader(0, int64(in.maxZoom))
		}
		val, ok, err := in.roughZLSeq.Step(d)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		in.roughZL = int(val)
		in.roughZLDone = true
		in.zl = in.maxZoom
	}
	if !in.defaultOrderDone {
		bit, err := d.ReadEvenBit()
		if err != nil {
			return false, err
		}
		in.defaultOrder = bit != 0
		in.defaultOrderDone = true
	}

	for in.zl >= in.roughZL {
		ok, err := in.stepZoomLevel(d, true)
		if err != nil || !ok {
			return false, err
		}
		in.zl--
		in.planeIdx = 0
		in.posInit = false
	}
	in.roughDone = true
	in.zl = in.roughZL - 1
	return true, nil
}

// StepReal advances the remaining zoomlevels (the cutoff's exclusive,
// down to and including 0) against the real forest installed by SetForest.
// Call only after RoughDone and SetForest.
func (in *Interlaced) StepReal(d *rac.Decoder) (bool, error) {
	if in.done {
		return true, nil
	}
	for in.zl >= 0 {
		ok, err := in.stepZoomLevel(d, false)
		if err != nil || !ok {
			return false, err
		}
		in.zl--
		in.planeIdx = 0
		in.posInit = false
	}
	in.done = true
	return true, nil
}

func (in *Interlaced) stepLookback(d *rac.Decoder) (bool, error) {
	if !in.hasPlane(PlaneLookback) {
		in.lbDone = true
		return true, nil
	}
	lo, hi := in.Ranges.Min(PlaneLookback), in.Ranges.Max(PlaneLookback)
	for in.lbFrame < in.Store.Frames {
		if in.Store.SeenBefore != nil && in.Store.SeenBefore[in.lbFrame] >= 0 {
			in.lbFrame++
			in.lbRow, in.lbCol = 0, 0
			continue
		}
		frameHi := hi
		if frameHi > int32(in.lbFrame) {
			frameHi = int32(in.lbFrame)
		}
		for in.lbRow < in.Store.Height {
			for in.lbCol < in.Store.Width {
				if lo == frameHi {
					in.Store.Planes[PlaneLookback].Set(in.lbFrame, in.lbCol, in.lbRow, lo)
					in.lbCol++
					continue
				}
				if in.lbInflight == nil {
					in.lbInflight = maniac.NewIntReader(in.roughTreeOrFallback(PlaneLookback), nil, int64(lo), int64(frameHi))
				}
				val, ok, err := in.lbInflight.Step(d)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
				in.lbInflight = nil
				in.Store.Planes[PlaneLookback].Set(in.lbFrame, in.lbCol, in.lbRow, int32(val))
				in.lbCol++
			}
			in.lbCol = 0
			in.lbRow++
		}
		in.lbRow = 0
		in.lbFrame++
	}
	in.lbDone = true
	return true, nil
}

func (in *Interlaced) roughTreeOrFallback(plane int) *maniac.Tree {
	if t, ok := in.roughTrees[plane]; ok {
		return t
	}
	return blankTree()
}

func (in *Interlaced) stepSeed(d *rac.Decoder) (bool, error) {
	for in.seedFrame < in.Store.Frames {
		if in.Store.SeenBefore != nil && in.Store.SeenBefore[in.seedFrame] >= 0 {
			in.seedFrame++
			in.seedPlane = 0
			continue
		}
		if in.lookbackSkipsSeed(in.seedFrame) {
			in.seedFrame++
			in.seedPlane = 0
			continue
		}
		for in.seedPlane < len(in.planes) {
			plane := in.planes[in.seedPlane]
			if plane == PlaneLookback {
				in.seedPlane++
				continue
			}
			prev := in.priorValues(plane, in.seedFrame, 0, 0)
			lo, hi := in.Ranges.MinMax(plane, prev)
			if lo == hi {
				in.Store.Planes[plane].Set(in.seedFrame, 0, 0, lo)
				in.seedPlane++
				continue
			}
			if in.seedInflight == nil {
				in.seedInflight = rac.NewUniformReader(int64(lo), int64(hi))
			}
			val, ok, err := in.seedInflight.Step(d)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			in.seedInflight = nil
			in.Store.Planes[plane].Set(in.seedFrame, 0, 0, int32(val))
			in.seedPlane++
		}
		in.seedPlane = 0
		in.seedFrame++
	}
	in.seedDone = true
	return true, nil
}

// lookbackSkipsSeed reports whether the lookback plane already resolved
// frame f's top-left pixel to a copy from an earlier frame, making a fresh
// seed read unnecessary.
func (in *Interlaced) lookbackSkipsSeed(f int) bool {
	if !in.hasPlane(PlaneLookback) {
		return false
	}
	lb := in.Store.Planes[PlaneLookback].Get(f, 0, 0)
	if lb <= 0 {
		return false
	}
	src := f - int(lb)
	if src < 0 {
		src = 0
	}
	for _, plane := range in.planes {
		if plane == PlaneLookback {
			continue
		}
		in.Store.Planes[plane].Set(f, 0, 0, in.Store.Planes[plane].Get(src, 0, 0))
	}
	return true
}

// priorValues gathers the already-decoded colour-plane values at (x,y),
// the same shape NonInterlaced.prevPlaneValues produces.
func (in *Interlaced) priorValues(plane, f, x, y int) []int32 {
	out := make([]int32, PlaneLookback+1)
	for p := 0; p < priorPlaneCount(plane); p++ {
		out[p] = in.Store.Planes[p].Get(f, x, y)
	}
	return out
}

func (in *Interlaced) neighbour(plane, f, x, y int) (int32, bool) {
	if x < 0 || y < 0 || x >= in.Store.Width || y >= in.Store.Height {
		return 0, false
	}
	return in.Store.Planes[plane].Get(f, x, y), true
}

// stepZoomLevel decodes every active plane's new pixels at the current
// zoomlevel, for every frame. rough selects the blank, context-free forest
// versus the real one installed by SetForest.
func (in *Interlaced) stepZoomLevel(d *rac.Decoder, rough bool) (bool, error) {
	z := in.zl
	rowPitch, colPitch := zoomPitch(z)

	for in.frame < in.Store.Frames {
		if in.Store.SeenBefore != nil && in.Store.SeenBefore[in.frame] >= 0 {
			in.frame++
			in.planeIdx, in.y, in.x = 0, 0, 0
			in.posInit = false
			continue
		}
		for in.planeIdx < len(in.planes) {
			plane := in.planes[in.planeIdx]
			if plane == PlaneLookback {
				in.planeIdx++
				continue
			}
			ok, err := in.stepPlaneZoom(d, plane, z, rowPitch, colPitch, rough)
			if err != nil || !ok {
				return false, err
			}
			in.planeIdx++
			in.posInit = false
		}
		in.planeIdx = 0
		in.frame++
	}
	in.frame = 0
	return true, nil
}

// stepPlaneZoom decodes one plane's new pixels at zoomlevel z for the
// current frame, resuming mid-scan via in.y/in.x.
func (in *Interlaced) stepPlaneZoom(d *rac.Decoder, plane, z, rowPitch, colPitch int, rough bool) (bool, error) {
	width, height := in.Store.Width, in.Store.Height
	f := in.frame

	coarsest := z == in.maxZoom
	var yStart, yStep, xStart, xStep int
	rowFill := z%2 == 0

	switch {
	case coarsest:
		yStart, yStep = 0, rowPitch
		xStart, xStep = 0, colPitch
	case rowFill:
		yStart, yStep = rowPitch, 2*rowPitch
		xStart, xStep = 0, colPitch
	default:
		yStart, yStep = 0, rowPitch
		xStart, xStep = colPitch, 2*colPitch
	}

	if !in.posInit {
		in.y, in.x = yStart, xStart
		in.posInit = true
	}
	if in.y < yStart {
		in.y = yStart
	}

	for y := in.y; y < height; y += yStep {
		for x := in.x; x < width; x += xStep {
			if coarsest && x == 0 && y == 0 {
				in.x = x + xStep
				continue
			}
			ok, err := in.decodeZoomPixel(d, plane, z, f, x, y, rowFill, coarsest, rowPitch, colPitch, rough)
			if err != nil {
				return false, err
			}
			if !ok {
				in.y, in.x = y, x
				return false, nil
			}
			in.x = x + xStep
		}
		in.x = xStart
		in.y = y + yStep
	}
	in.y, in.x = yStart, xStart
	return true, nil
}

func (in *Interlaced) decodeZoomPixel(d *rac.Decoder, plane, z, f, x, y int, rowFill, coarsest bool, rowPitch, colPitch int, rough bool) (bool, error) {
	alphaVal := int32(0)
	if in.HasAlpha {
		alphaVal = in.Store.Planes[PlaneAlpha].Get(f, x, y)
	}
	invisible := in.AlphaZero && in.HasAlpha && plane != PlaneAlpha && alphaVal == 0

	var a, b, c int32
	var haveC bool
	switch {
	case coarsest:
		left, okL := in.neighbour(plane, f, x-colPitch, y)
		top, okT := in.neighbour(plane, f, x, y-rowPitch)
		topleft, okTL := in.neighbour(plane, f, x-colPitch, y-rowPitch)
		switch {
		case okL && okT:
			a, b, c, haveC = left, top, topleft, okTL
		case okL:
			a, b = left, left
		case okT:
			a, b = top, top
		}
	case rowFill:
		top, _ := in.neighbour(plane, f, x, y-rowPitch)
		bottom, okB := in.neighbour(plane, f, x, y+rowPitch)
		left, okLeft := in.neighbour(plane, f, x-colPitch, y)
		if !okB {
			bottom = top
		}
		a, b, c, haveC = top, bottom, left, okLeft
	default:
		left, _ := in.neighbour(plane, f, x-colPitch, y)
		right, okR := in.neighbour(plane, f, x+colPitch, y)
		top, okTop := in.neighbour(plane, f, x, y-rowPitch)
		if !okR {
			right = left
		}
		a, b, c, haveC = left, right, top, okTop
	}

	prev := in.priorValues(plane, f, x, y)
	snap := func(v int32) int32 { return in.Ranges.Snap(plane, prev, v) }

	mode, err := in.predictorMode(d, plane, z)
	if err != nil {
		return false, err
	}
	if mode == maniacPending {
		return false, nil
	}

	if invisible {
		guess := snap(zoomGuess(mode, a, b, c, haveC))
		in.Store.Planes[plane].Set(f, x, y, guess)
		return true, nil
	}

	guess := snap(zoomGuess(mode, a, b, c, haveC))
	lo, hi := in.Ranges.MinMax(plane, prev)

	var props []int32
	var tree *maniac.Tree
	if rough {
		tree = in.roughTreeOrFallback(plane)
	} else {
		tree = in.forest.Tree(plane)
		if tree == nil {
			return false, errMissingTree{plane}
		}
		props = in.buildZoomProperties(plane, prev, alphaVal, guess, mode, a, b, z)
	}

	if in.inflight == nil {
		if lo == hi {
			in.Store.Planes[plane].Set(f, x, y, lo)
			return true, nil
		}
		in.inflight = maniac.NewIntReader(tree, props, int64(lo)-int64(guess), int64(hi)-int64(guess))
	}
	val, ok, ierr := in.inflight.Step(d)
	if ierr != nil {
		return false, ierr
	}
	if !ok {
		return false, nil
	}
	in.inflight = nil
	in.Store.Planes[plane].Set(f, x, y, guess+int32(val))
	return true, nil
}

const maniacPending int32 = -99

// predictorMode resolves the predictor mode to use for plane at zoomlevel
// z: a fixed per-plane choice read once (spec §4.5's "[0,2]"), or read
// fresh per zoomlevel when the per-plane choice is -1 ("read per
// zoomlevel").
func (in *Interlaced) predictorMode(d *rac.Decoder, plane, z int) (int32, error) {
	if !in.predModeSet[plane] {
		if in.predModeSeq[plane] == nil {
			in.predModeSeq[plane] = rac.NewUniformReader(-1, 2)
		}
		val, ok, err := in.predModeSeq[plane].Step(d)
		if err != nil {
			return 0, err
		}
		if !ok {
			return maniacPending, nil
		}
		in.predMode[plane] = int32(val)
		in.predModeSet[plane] = true
	}
	if in.predMode[plane] != -1 {
		return in.predMode[plane], nil
	}
	key := plane*64 + z
	if m, ok := in.zlMode[key]; ok {
		return m, nil
	}
	if in.zlModeSeq[key] == nil {
		in.zlModeSeq[key] = rac.NewUniformReader(0, 2)
	}
	val, ok, err := in.zlModeSeq[key].Step(d)
	if err != nil {
		return 0, err
	}
	if !ok {
		return maniacPending, nil
	}
	in.zlMode[key] = int32(val)
	delete(in.zlModeSeq, key)
	return int32(val), nil
}

// zoomGuess computes the zoomed-grid predictor: mode 0 is the mean of the
// two neighbours straddling the new pixel along the fill axis, mode 1 a
// gradient estimate using the same-pass neighbour c, mode 2 the straight
// median of a, b and c.
func zoomGuess(mode int32, a, b, c int32, haveC bool) int32 {
	switch mode {
	case 0:
		return (a + b) / 2
	case 1:
		if haveC {
			return median3(a, b, a+b-c)
		}
		return (a + b) / 2
	default:
		if haveC {
			return median3(a, b, c)
		}
		return (a + b) / 2
	}
}

func (in *Interlaced) buildZoomProperties(plane int, prev []int32, alphaVal, guess, mode, a, b int32, z int) []int32 {
	var props []int32
	for p := 0; p < priorPlaneCount(plane); p++ {
		props = append(props, prev[p])
	}
	if in.HasAlpha && plane != PlaneAlpha {
		props = append(props, alphaVal)
	}
	props = append(props, guess, mode, int32(z), a-b)
	return props
}
