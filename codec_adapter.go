package flif16

import (
	"errors"
	"fmt"
	"io"

	"github.com/cocosip/flif16/codec"
	"github.com/cocosip/flif16/container"
	"github.com/cocosip/flif16/pack"
	"github.com/cocosip/flif16/rac"
)

// Codec adapts Decoder to the teacher-style codec.Codec interface
// (package codec, mirrored from the pack's JPEG/JPEG2000/JPEG-LS codecs) so
// FLIF16 can be registered and driven the same way: one Decode call, given
// the whole compressed buffer, returning a codec.DecodeResult.
//
// Encode always fails with ErrUnsupported: encoding is out of scope (spec
// §1 Non-goals) the same way the teacher's decode-only comparison tools
// reject Encode.
type Codec struct {
	opts Options
}

var _ codec.Codec = (*Codec)(nil)

// NewCodec builds a Codec bound to opts. A zero Options is unbounded.
func NewCodec(opts Options) *Codec {
	return &Codec{opts: opts}
}

func init() {
	codec.Register(NewCodec(Options{}))
}

// UID returns a FourCC-style identifier, the FLIF16 analogue of the
// teacher's DICOM transfer-syntax UID strings.
func (c *Codec) UID() string { return "FLIF16" }

// Name returns a human-readable name, registered alongside UID through
// codec.Register.
func (c *Codec) Name() string { return "FLIF16" }

// Encode always returns ErrUnsupported: this repository implements the
// FLIF16 decoder core only (spec §1 Non-goals).
func (c *Codec) Encode(codec.EncodeParams) ([]byte, error) {
	return nil, fmt.Errorf("flif16: encode: %w", ErrUnsupported)
}

// Decode drives a full Decoder session over an in-memory buffer, the
// one-shot convenience wrapper callers reach for instead of the streaming
// Feed/Step loop when they already hold the whole file. It returns the
// first decoded frame, matching codec.DecodeResult's single-frame shape;
// callers who need every frame of an animation should drive Decoder
// directly instead.
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	d, err := NewDecoder(c.opts)
	if err != nil {
		return nil, err
	}
	d.Feed(data)
	for {
		ev, err := d.Step()
		switch {
		case err == nil:
			if ev.Kind == Yield {
				return frameToResult(ev.Frame), nil
			}
		case errors.Is(err, rac.ErrNeedMoreInput), errors.Is(err, container.ErrNeedMoreInput):
			return nil, fmt.Errorf("flif16: truncated input: %w", ErrInvalidData)
		case err == io.EOF:
			return nil, fmt.Errorf("flif16: no frame produced: %w", ErrInvalidData)
		default:
			return nil, err
		}
	}
}

func frameToResult(f *OutputFrame) *codec.DecodeResult {
	components := 1
	bitDepth := 8
	switch f.Format {
	case pack.Gray16:
		bitDepth = 16
	case pack.RGB24:
		components = 3
	case pack.RGB48:
		components, bitDepth = 3, 16
	case pack.RGBA32:
		components = 4
	case pack.RGBA64:
		components, bitDepth = 4, 16
	}
	return &codec.DecodeResult{
		PixelData:  f.Pixels,
		Width:      f.Width,
		Height:     f.Height,
		Components: components,
		BitDepth:   bitDepth,
	}
}
