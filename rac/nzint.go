package rac

// NZReader decodes one signed integer in a range [min, max] that contains
// zero, using the stream's adaptive "near zero" chance scheme (spec §4.1's
// NZ integer coder): a ZERO flag, then (if nonzero) a SIGN bit, then an
// exponent read as a unary prefix, then a mantissa read bit by bit with
// bound-aware pruning so bits that are already implied by [min, max] are
// never spent.
//
// Like UniformReader this is a resumable state machine: Step can suspend at
// any single-bit boundary and resume later without re-reading a bit.
//
// The reference FFmpeg FLIF16 decoder (original_source/libavcodec/
// flif16_rangecoder.c) only ships the encoder side of this coder
// (ff_flif16_rac_enc_write_nz_int in flif16_rangecoder_enc.c); the decoder
// body was not present in the retrieved source. The bit layout below is the
// structural inverse of that encoder: ZERO, then SIGN, then an EXP unary
// prefix, then MANT bits pruned against [min, max] exactly as the encoder's
// write side prunes them. Where the encoder was ambiguous (it writes a
// constant ZERO-context bit of 0 unconditionally before even checking
// whether the value is zero, which looks like unfinished WIP rather than
// intended behavior) this reader takes the documented position: a decoded
// ZERO bit of 0 means the value is zero, 1 means nonzero.
type NZReader struct {
	min, max int64

	step int // 0:zero 1:sign 2:exp 3:mant 4:done
	sign int
	amin, amax int64
	exponent   int
	mantAcc    int64
	mantPos    int // next mantissa bit position to decide, counting down

	val  int64
	done bool
}

// NewNZReader starts a signed-integer decode over [min, max]. min must be
// <= 0 <= max; use NewGNZReader when zero is outside the range.
func NewNZReader(min, max int64) *NZReader {
	return &NZReader{min: min, max: max}
}

func highBit(v int64) int {
	n := -1
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

const maxMantIdx = 17

// Step advances the decode as far as buffered input allows.
func (n *NZReader) Step(d *Decoder, ctx *ChanceContext) (int64, bool, error) {
	if n.done {
		return n.val, true, nil
	}
	if n.min == n.max {
		n.val, n.done = n.min, true
		return n.val, true, nil
	}

	if n.step == 0 {
		bit, err := d.ReadChanceBit(ctx, idxZero)
		if err != nil {
			return 0, false, err
		}
		if bit == 0 {
			n.val, n.done = 0, true
			return n.val, true, nil
		}
		n.step = 1
	}

	if n.step == 1 {
		switch {
		case n.min >= 0:
			n.sign = 1
			n.amin, n.amax = max64(n.min, 1), n.max
			n.step = 2
		case n.max <= 0:
			n.sign = 0
			n.amin, n.amax = 1, -n.min
			n.step = 2
		default:
			bit, err := d.ReadChanceBit(ctx, idxSign)
			if err != nil {
				return 0, false, err
			}
			n.sign = bit // 1 == positive, 0 == negative (matches SIGN chance meaning "is positive")
			if n.sign == 1 {
				n.amin, n.amax = 1, n.max
			} else {
				n.amin, n.amax = 1, -n.min
			}
			n.step = 2
		}
		n.exponent = highBit(n.amin)
	}

	if n.step == 2 {
		emax := highBit(n.amax)
		for n.exponent < emax {
			bit, err := d.ReadChanceBit(ctx, idxExp(2*n.exponent+n.sign))
			if err != nil {
				return 0, false, err
			}
			if bit == 0 {
				break
			}
			n.exponent++
		}
		n.mantPos = n.exponent - 1
		n.mantAcc = 0
		n.step = 3
	}

	if n.step == 3 {
		base := int64(1) << uint(n.exponent)
		minMant, maxMant := int64(0), base-1
		if n.exponent > 0 {
			if base == int64(1)<<uint(highBit(n.amin)) && n.amin > base {
				minMant = n.amin - base
			}
			if n.amax < base*2-1 {
				maxMant = n.amax - base
			}
		}
		for n.mantPos >= 0 {
			half := int64(1) << uint(n.mantPos)
			lowIfZero, highIfZero := n.mantAcc, n.mantAcc+half-1
			lowIfOne, highIfOne := n.mantAcc+half, n.mantAcc+2*half-1
			canZero := highIfZero >= minMant && lowIfZero <= maxMant
			canOne := highIfOne >= minMant && lowIfOne <= maxMant
			if canZero && canOne {
				idx := n.mantPos
				if idx > maxMantIdx {
					idx = maxMantIdx
				}
				bit, err := d.ReadChanceBit(ctx, idxMant2(idx))
				if err != nil {
					return 0, false, err
				}
				if bit == 1 {
					n.mantAcc += half
				}
			} else if canOne {
				n.mantAcc += half
			}
			n.mantPos--
		}
		abs := base + n.mantAcc
		if n.exponent == 0 {
			abs = 1
		}
		if n.sign == 1 {
			n.val = abs
		} else {
			n.val = -abs
		}
		n.done = true
		n.step = 4
	}

	return n.val, true, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ReadNZInt is a convenience wrapper for callers that don't need to persist
// resumable state themselves.
func (d *Decoder) ReadNZInt(ctx *ChanceContext, min, max int64) (int64, error) {
	r := NewNZReader(min, max)
	val, _, err := r.Step(d, ctx)
	return val, err
}
