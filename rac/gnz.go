package rac

// GNZReader decodes a signed integer over an arbitrary [min, max] that may
// not contain zero, by translating the interval so it does and delegating
// to an NZReader. The translation mirrors the reference encoder's
// ff_flif16_rac_enc_write_gnz_int (original_source/libavcodec/
// flif16_rangecoder_enc.c): shift down by min when min > 0, shift up by max
// when max < 0, otherwise no shift at all.
type GNZReader struct {
	shift int64
	inner *NZReader
}

// NewGNZReader starts a general signed-integer decode over [min, max].
func NewGNZReader(min, max int64) *GNZReader {
	switch {
	case min > 0:
		return &GNZReader{shift: min, inner: NewNZReader(0, max-min)}
	case max < 0:
		return &GNZReader{shift: max, inner: NewNZReader(min-max, 0)}
	default:
		return &GNZReader{shift: 0, inner: NewNZReader(min, max)}
	}
}

// Step advances the decode as far as buffered input allows.
func (g *GNZReader) Step(d *Decoder, ctx *ChanceContext) (int64, bool, error) {
	val, done, err := g.inner.Step(d, ctx)
	if err != nil || !done {
		return 0, false, err
	}
	return val + g.shift, true, nil
}

// ReadGNZInt is a convenience wrapper for callers that don't need to persist
// resumable state themselves.
func (d *Decoder) ReadGNZInt(ctx *ChanceContext, min, max int64) (int64, error) {
	r := NewGNZReader(min, max)
	val, _, err := r.Step(d, ctx)
	return val, err
}
