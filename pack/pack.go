// Package pack turns a decoded frame.Store into the packed pixel formats
// spec §6 names: gray8/gray16/RGB24/RGB48/RGBA32/RGBA64, one []byte per
// frame in row-major, interleaved-channel order.
package pack

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
)

// Format identifies one of the packed output pixel layouts.
type Format int

const (
	Gray8 Format = iota
	Gray16
	RGB24
	RGB48
	RGBA32
	RGBA64
)

// String names a Format, e.g. for log lines in cmd/flif16dec.
func (f Format) String() string {
	switch f {
	case Gray8:
		return "gray8"
	case Gray16:
		return "gray16"
	case RGB24:
		return "rgb24"
	case RGB48:
		return "rgb48"
	case RGBA32:
		return "rgba32"
	case RGBA64:
		return "rgba64"
	default:
		return "unknown"
	}
}

// ChooseFormat maps (numPlanes, bpc) to the packed layout spec §6 requires;
// numPlanes outside [1,4] is rejected, matching the InvalidData taxonomy
// entry "num_planes > 4 on output".
func ChooseFormat(numPlanes int, bpc int) (Format, error) {
	if numPlanes < 1 || numPlanes > 4 {
		return 0, fmt.Errorf("pack: num_planes %d out of range", numPlanes)
	}
	sixteen := bpc > 8
	switch {
	case numPlanes <= 2 && !sixteen:
		return Gray8, nil
	case numPlanes <= 2 && sixteen:
		return Gray16, nil
	case numPlanes == 3 && !sixteen:
		return RGB24, nil
	case numPlanes == 3 && sixteen:
		return RGB48, nil
	case numPlanes == 4 && !sixteen:
		return RGBA32, nil
	default:
		return RGBA64, nil
	}
}

// BytesPerPixel reports the packed byte stride of one pixel in Format.
func (f Format) BytesPerPixel() int {
	switch f {
	case Gray8:
		return 1
	case Gray16:
		return 2
	case RGB24:
		return 3
	case RGB48:
		return 6
	case RGBA32:
		return 4
	case RGBA64:
		return 8
	default:
		return 0
	}
}

// Frame packs one frame of store into Format, converting the internal
// YCoCg-ish Y/Co/Cg planes back to RGB only insofar as the transform chain
// already reversed them (Frame operates purely on whatever values
// store.Planes hold at pack time, which by then are already raw channel
// values per spec §6). Pixels with alpha == 0 have their colour planes
// cleared to 0 before packing, per spec §6's "Pixels with alpha=0 ... are
// cleared on the Y/Co/Cg planes before packing".
func Frame(store *frame.Store, f int, format Format) []byte {
	width, height := store.Width, store.Height
	out := make([]byte, width*height*format.BytesPerPixel())
	hasAlpha := format == RGBA32 || format == RGBA64
	sixteen := format == Gray16 || format == RGB48 || format == RGBA64

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var alpha int32 = 0xffff
			if hasAlpha {
				alpha = store.Planes[frame.PlaneAlpha].Get(f, x, y)
			}
			cleared := hasAlpha && alpha == 0

			switch format {
			case Gray8, Gray16:
				v := store.Planes[frame.PlaneY].Get(f, x, y)
				if cleared {
					v = 0
				}
				i = putSample(out, i, v, sixteen)
			default:
				y0 := store.Planes[frame.PlaneY].Get(f, x, y)
				co := store.Planes[frame.PlaneCo].Get(f, x, y)
				cg := store.Planes[frame.PlaneCg].Get(f, x, y)
				if cleared {
					y0, co, cg = 0, 0, 0
				}
				i = putSample(out, i, y0, sixteen)
				i = putSample(out, i, co, sixteen)
				i = putSample(out, i, cg, sixteen)
				if hasAlpha {
					i = putSample(out, i, alpha, sixteen)
				}
			}
		}
	}
	return out
}

func putSample(out []byte, i int, v int32, sixteen bool) int {
	if sixteen {
		out[i] = byte(v >> 8)
		out[i+1] = byte(v)
		return i + 2
	}
	out[i] = byte(v)
	return i + 1
}
