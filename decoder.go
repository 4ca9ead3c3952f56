// Package flif16 implements a FLIF16 image/animation decoder: the outer
// container framing, the RAC-coded secondary header and transform chain,
// the MANIAC-coded pixel data (scanline or zoomlevel scan), and the final
// packing into gray/RGB/RGBA output buffers.
//
// Decoder is a single-threaded, cooperative state machine: every method
// that might need bytes that haven't arrived yet returns ErrNeedMoreInput
// instead of blocking, so a caller can Feed more input and call Step again
// without losing any already-decoded state.
package flif16

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/google/uuid"

	"github.com/cocosip/flif16/container"
	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/maniac"
	"github.com/cocosip/flif16/pack"
	"github.com/cocosip/flif16/pixel"
	"github.com/cocosip/flif16/rac"
	"github.com/cocosip/flif16/ranges"
	"github.com/cocosip/flif16/transform"
)

type state int

const (
	stHeader state = iota
	stMetadata
	stInitRAC
	stSecondary
	stChain
	stAlloc
	stRoughPixels
	stManiac
	stRealPixels
	stPixels // non-interlaced pixel data
	stReverse
	stOutput
	stChecksumBit
	stChecksumVal
	stDone
)

// EventKind distinguishes the three outcomes Decoder.Step reports.
type EventKind int

const (
	// NeedMoreInput means Step made all the progress it could with the
	// buffered bytes; Feed more and call Step again.
	NeedMoreInput EventKind = iota
	// Yield means Frame holds one freshly packed, ready-to-display frame.
	Yield
	// EndOfStream means decoding finished; Step's error return is io.EOF.
	EndOfStream
)

// Event is what Decoder.Step reports on each call.
type Event struct {
	Kind  EventKind
	Frame *OutputFrame
}

// OutputFrame is one packed, ready-to-display frame plus its animation
// timing.
type OutputFrame struct {
	Index    int
	Width    int
	Height   int
	Format   pack.Format
	Pixels   []byte
	DelayMS  int
}

// secondaryHeader holds the RAC-coded fields spec §6's "Secondary header"
// names, read once right after Init and before the transform chain (the
// chain's own ParamSeq reads need the chance table this phase installs).
type secondaryHeader struct {
	bpc        []int32 // per-plane, only populated when header.BPCCode == BPCCustom
	alphaZero  bool
	loops      int
	frameDelay []int // per frame, ms

	customAlpha bool
	cut         int32
	alpha       uint32

	custombc bool
}

// Decoder is FLIF16's top-level state machine (spec §5). SessionID tags
// the instance the way a request ID tags a server request; it has no
// effect on decoding and exists purely so callers can correlate logs
// across a long-running animation decode.
type Decoder struct {
	SessionID uuid.UUID
	opts      Options

	cr            *container.Reader
	containerDone bool

	rd *rac.Decoder

	st state

	header    container.Header
	secondary secondaryHeader
	secPlane  int
	secFrame  int
	secSeq    *rac.UniformReader

	secAlphaZeroRead  bool
	haveLoops         bool
	secCustomAlphaRead bool
	secCustomBCRead    bool

	chainCtx *transform.Context
	chainRdr *transform.ChainReader
	chain    *transform.Chain

	store        *frame.Store
	activePlanes []int
	hasAlpha     bool
	maxLookback  int32

	forest        *maniac.Forest
	forestPlaneAt int // index into activePlanes, next channel to build

	nonInt *pixel.NonInterlaced
	inter  *pixel.Interlaced

	outputIdx int

	wantChecksum bool
	checksum     uint32
	checksumSeq  *rac.UniformReader

	finishedErr error
}

// NewDecoder prepares a decoder bound to opts. Feed the raw byte stream
// (in any chunking) and call Step in a loop.
func NewDecoder(opts Options) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		SessionID: uuid.New(),
		opts:      opts,
		cr:        container.NewReader(),
		rd:        rac.New(),
	}, nil
}

// Feed appends newly-arrived bytes. Bytes still belonging to the unframed
// container stage (header, metadata) go to the container reader; once
// that stage has finished, everything goes straight to the range decoder.
func (d *Decoder) Feed(b []byte) {
	if d.containerDone {
		d.rd.Feed(b)
		return
	}
	d.cr.Feed(b)
}

// Step advances decoding as far as the currently buffered input allows.
func (d *Decoder) Step() (Event, error) {
	if d.finishedErr != nil {
		if errors.Is(d.finishedErr, io.EOF) {
			return Event{Kind: EndOfStream}, io.EOF
		}
		return Event{}, d.finishedErr
	}
	ev, err := d.step()
	if errors.Is(err, rac.ErrNeedMoreInput) || errors.Is(err, container.ErrNeedMoreInput) {
		return ev, fmt.Errorf("%w: %w", ErrNeedMoreInput, err)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			err = fmt.Errorf("decoder %s: %w", d.SessionID, err)
		}
		d.finishedErr = err
	}
	return ev, err
}

func (d *Decoder) step() (Event, error) {
	for {
		switch d.st {
		case stHeader:
			h, err := d.cr.ReadHeader()
			if err != nil {
				if errors.Is(err, container.ErrBadMagic) || errors.Is(err, container.ErrInvalidHeader) {
					return Event{}, fmt.Errorf("flif16: %w: %v", ErrInvalidData, err)
				}
				return Event{}, err
			}
			if err := d.opts.checkDimensions(h.Width, h.Height, h.NumFrames); err != nil {
				return Event{}, err
			}
			d.header = h
			d.st = stMetadata

		case stMetadata:
			if _, err := d.cr.ReadMetadata(); err != nil {
				if !errors.Is(err, container.ErrNeedMoreInput) {
					return Event{}, fmt.Errorf("flif16: %w: %v", ErrInvalidData, err)
				}
				return Event{}, err
			}
			d.rd.Feed(d.cr.Remaining())
			d.containerDone = true
			d.st = stInitRAC

		case stInitRAC:
			if err := d.rd.Init(); err != nil {
				return Event{}, err
			}
			d.rd.SetChanceTable(rac.NewChanceTable(rac.DefaultAlpha, rac.DefaultCut))
			d.st = stSecondary

		case stSecondary:
			done, err := d.stepSecondary()
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			if d.secondary.customAlpha {
				d.rd.SetChanceTable(rac.NewChanceTable(d.secondary.alpha, uint8(d.secondary.cut)))
			}
			d.chainCtx = d.newTransformContext()
			d.chainRdr = transform.NewChainReader(d.chainCtx)
			d.st = stChain

		case stChain:
			chain, done, err := d.chainRdr.Step(d.rd)
			if err != nil {
				var tagErr transform.ErrUnsupportedTag
				switch {
				case errors.As(err, &tagErr):
					return Event{}, fmt.Errorf("flif16: %w: %v", ErrUnsupported, err)
				case errors.Is(err, transform.ErrInvalidData):
					return Event{}, fmt.Errorf("flif16: %w: %v", ErrInvalidData, err)
				}
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.chain = chain
			d.st = stAlloc

		case stAlloc:
			if err := d.allocateStore(); err != nil {
				return Event{}, err
			}
			if d.header.Interlaced() {
				d.inter = pixel.NewInterlaced(d.store, d.chainCtx.Ranges, d.activePlanes, d.hasAlpha, d.secondary.alphaZero)
				d.st = stRoughPixels
			} else {
				d.forest = maniac.NewForest(d.store.NumPlanes())
				d.nonInt = pixel.NewNonInterlaced(d.store, d.chainCtx.Ranges, d.forest, d.activePlanes, d.hasAlpha, d.secondary.alphaZero, d.maxLookback)
				d.st = stPixels
			}

		case stRoughPixels:
			done, err := d.inter.StepRough(d.rd)
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.forest = maniac.NewForest(d.store.NumPlanes())
			d.inter.SetForest(d.forest)
			d.st = stManiac

		case stManiac:
			done, err := d.stepManiac(func(plane int) []maniac.PropRange {
				return d.inter.PropRanges(plane)
			})
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.st = stRealPixels

		case stRealPixels:
			done, err := d.inter.StepReal(d.rd)
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.st = stReverse

		case stPixels:
			if d.forestPlaneAt < len(d.activePlanes) {
				done, err := d.stepManiac(func(plane int) []maniac.PropRange {
					return d.nonInterlacedPropRanges(plane)
				})
				if err != nil {
					return Event{}, err
				}
				if !done {
					return Event{}, rac.ErrNeedMoreInput
				}
				continue
			}
			done, err := d.nonInt.Step(d.rd)
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.st = stReverse

		case stReverse:
			d.chain.ReverseAll(d.store)
			d.st = stOutput

		case stOutput:
			if d.outputIdx >= d.store.Frames {
				d.st = stChecksumBit
				continue
			}
			f := d.outputIdx
			src := f // a DuplicateFrame alias outputs the frame it refers to
			for d.store.SeenBefore != nil && d.store.SeenBefore[src] >= 0 {
				src = d.store.SeenBefore[src]
			}
			format, err := pack.ChooseFormat(d.header.NumPlanes, d.outputBPC())
			if err != nil {
				return Event{}, err
			}
			delay := 0
			if f < len(d.secondary.frameDelay) {
				delay = d.secondary.frameDelay[f]
			}
			out := &OutputFrame{
				Index:   f,
				Width:   d.store.Width,
				Height:  d.store.Height,
				Format:  format,
				Pixels:  pack.Frame(d.store, src, format),
				DelayMS: delay,
			}
			d.outputIdx++
			return Event{Kind: Yield, Frame: out}, nil

		case stChecksumBit:
			bit, err := d.rd.ReadEvenBit()
			if err != nil {
				return Event{}, err
			}
			d.wantChecksum = bit == 1
			if !d.wantChecksum {
				d.st = stDone
				continue
			}
			d.st = stChecksumVal

		case stChecksumVal:
			if d.checksumSeq == nil {
				d.checksumSeq = rac.NewUniformReader(0, 0xFFFFFFFF)
			}
			val, done, err := d.checksumSeq.Step(d.rd)
			if err != nil {
				return Event{}, err
			}
			if !done {
				return Event{}, rac.ErrNeedMoreInput
			}
			d.checksum = uint32(val)
			if got := d.frameZeroChecksum(); got != d.checksum {
				return Event{}, fmt.Errorf("flif16: checksum mismatch (want %08x, got %08x): %w", d.checksum, got, ErrInvalidData)
			}
			d.st = stDone

		case stDone:
			return Event{Kind: EndOfStream}, io.EOF
		}
	}
}

// stepSecondary drives the secondary-header field sequence, per spec §6.
func (d *Decoder) stepSecondary() (bool, error) {
	if d.header.BPCCode == container.BPCCustom && d.secondary.bpc == nil {
		d.secondary.bpc = make([]int32, 0, d.header.NumPlanes)
	}
	for d.header.BPCCode == container.BPCCustom && d.secPlane < d.header.NumPlanes {
		if d.secSeq == nil {
			d.secSeq = rac.NewUniformReader(1, 16)
		}
		val, done, err := d.secSeq.Step(d.rd)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		d.secondary.bpc = append(d.secondary.bpc, int32(val))
		d.secSeq = nil
		d.secPlane++
	}

	if d.header.NumPlanes > 3 && !d.secAlphaZeroRead {
		bit, err := d.rd.ReadEvenBit()
		if err != nil {
			return false, err
		}
		d.secondary.alphaZero = bit == 1
		d.secAlphaZeroRead = true
	}

	if d.header.Animated() {
		if !d.haveLoops {
			if d.secSeq == nil {
				d.secSeq = rac.NewUniformReader(0, 100)
			}
			val, done, err := d.secSeq.Step(d.rd)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			d.secondary.loops = int(val)
			d.haveLoops = true
			d.secSeq = nil
		}
		for d.secFrame < d.header.NumFrames {
			if d.secSeq == nil {
				d.secSeq = rac.NewUniformReader(0, 60000)
			}
			val, done, err := d.secSeq.Step(d.rd)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			d.secondary.frameDelay = append(d.secondary.frameDelay, int(val))
			d.secSeq = nil
			d.secFrame++
		}
	}

	if !d.secCustomAlphaRead {
		bit, err := d.rd.ReadEvenBit()
		if err != nil {
			return false, err
		}
		d.secondary.customAlpha = bit == 1
		d.secCustomAlphaRead = true
	}
	if d.secondary.customAlpha {
		if d.secondary.cut == 0 {
			if d.secSeq == nil {
				d.secSeq = rac.NewUniformReader(1, 128)
			}
			val, done, err := d.secSeq.Step(d.rd)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			d.secondary.cut = int32(val)
			d.secSeq = nil
		}
		if d.secondary.alpha == 0 {
			if d.secSeq == nil {
				d.secSeq = rac.NewUniformReader(2, 128)
			}
			val, done, err := d.secSeq.Step(d.rd)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			d.secondary.alpha = 0xFFFFFFFF / uint32(val)
			d.secSeq = nil
		}
	}

	if !d.secCustomBCRead {
		bit, err := d.rd.ReadEvenBit()
		if err != nil {
			return false, err
		}
		d.secondary.custombc = bit == 1
		d.secCustomBCRead = true
		if d.secondary.custombc {
			return false, fmt.Errorf("flif16: custombc=1: %w", ErrInvalidData)
		}
	}

	return true, nil
}

// newTransformContext seeds the transform chain's starting per-plane bit
// depths from the header (or the secondary header's per-plane override),
// per spec §3's "each plane's initial range is [0, 2^bpc - 1]".
func (d *Decoder) newTransformContext() *transform.Context {
	entries := make([]ranges.Entry, d.header.NumPlanes)
	for p := range entries {
		bpc := d.bpcFor(p)
		entries[p] = ranges.Entry{Min: 0, Max: (int32(1) << uint(bpc)) - 1}
	}
	return &transform.Context{
		Width:     d.header.Width,
		Height:    d.header.Height,
		NumFrames: d.header.NumFrames,
		NumPlanes: d.header.NumPlanes,
		Alpha:     d.header.NumPlanes > frame.PlaneAlpha,
		Ranges:    ranges.NewStack(entries),
	}
}

func (d *Decoder) bpcFor(plane int) int32 {
	switch d.header.BPCCode {
	case container.BPCCustom:
		return d.secondary.bpc[plane]
	case container.BPC16:
		return 16
	default:
		return 8
	}
}

// allocateStore builds the frame.Store the fully-parsed transform chain
// calls for: one Plane per channel, in Normal/Constant/Fill mode per spec
// §4.3's storage-mode rule (min == max collapses to Constant; Lookback and
// alpha forced by ChannelCompact/PaletteAlpha use Fill or Constant
// overrides the plain rule can't express on its own).
func (d *Decoder) allocateStore() error {
	numPlanes := d.chainCtx.NumPlanes
	if numPlanes > 4 {
		return fmt.Errorf("flif16: %d planes on output: %w", numPlanes, ErrInvalidData)
	}
	d.store = frame.NewStore(d.header.Width, d.header.Height, d.header.NumFrames)
	d.store.Planes = make([]*frame.Plane, numPlanes)

	w, h, fr := d.header.Width, d.header.Height, d.header.NumFrames
	rng := d.chainCtx.Ranges
	for p := 0; p < numPlanes; p++ {
		switch {
		case p == frame.PlaneLookback:
			d.store.Planes[p] = frame.NewFillPlane(w, h, fr)
		case p == frame.PlaneAlpha && d.chainCtx.ForceConstantAlpha:
			d.store.Planes[p] = frame.NewConstantPlane(w, h, fr, rng.Min(p))
		case p == frame.PlaneAlpha && d.chainCtx.ForceFillAlpha:
			d.store.Planes[p] = frame.NewFillPlane(w, h, fr)
		case rng.Min(p) == rng.Max(p):
			d.store.Planes[p] = frame.NewConstantPlane(w, h, fr, rng.Min(p))
		default:
			d.store.Planes[p] = frame.NewNormalPlane(w, h, fr)
		}
	}

	d.activePlanes = d.activePlanes[:0]
	for _, p := range frame.DecodeOrder {
		if p < numPlanes && d.store.Planes[p].Mode != frame.Constant {
			d.activePlanes = append(d.activePlanes, p)
		}
	}
	d.hasAlpha = numPlanes > frame.PlaneAlpha

	for _, t := range d.chain.Transforms {
		if lb, ok := t.(transform.Lookbacker); ok {
			d.maxLookback = lb.MaxLookback()
		}
	}

	d.chain.StampAll(d.store)
	return nil
}

// stepManiac advances the MANIAC forest build for every plane in
// activePlanes, calling propRanges to get each plane's property bounds the
// first time it's built.
func (d *Decoder) stepManiac(propRanges func(plane int) []maniac.PropRange) (bool, error) {
	for d.forestPlaneAt < len(d.activePlanes) {
		plane := d.activePlanes[d.forestPlaneAt]
		_, err := d.forest.BuildChannel(d.rd, plane, propRanges(plane))
		if err != nil {
			if errors.Is(err, rac.ErrNeedMoreInput) {
				return false, nil
			}
			return false, err
		}
		d.forestPlaneAt++
	}
	return true, nil
}

func (d *Decoder) nonInterlacedPropRanges(plane int) []maniac.PropRange {
	bounds := func(p int) (int32, int32) {
		return d.chainCtx.Ranges.Min(p), d.chainCtx.Ranges.Max(p)
	}
	return pixel.PropRangesNonInterlaced(plane, d.hasAlpha, bounds)
}

// outputBPC reports the bit depth pack.ChooseFormat should assume: 16 when
// the header (or any per-plane override) calls for it, 8 otherwise.
func (d *Decoder) outputBPC() int {
	switch d.header.BPCCode {
	case container.BPC16:
		return 16
	case container.BPCCustom:
		max := int32(8)
		for _, b := range d.secondary.bpc {
			if b > max {
				max = b
			}
		}
		return int(max)
	default:
		return 8
	}
}

// frameZeroChecksum recomputes the CRC-32 of frame 0's packed pixel bytes,
// checked against the stream's optional checksum field.
func (d *Decoder) frameZeroChecksum() uint32 {
	format, err := pack.ChooseFormat(d.header.NumPlanes, d.outputBPC())
	if err != nil {
		return 0
	}
	return crc32.ChecksumIEEE(pack.Frame(d.store, 0, format))
}
