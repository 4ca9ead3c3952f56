// Package pixel implements FLIF16's two pixel-scan decoders (spec §4.4,
// §4.5): non-interlaced scanline decode with a median-of-3 predictor, and
// interlaced Adam7-like zoomlevel decode with horizontal/vertical
// predictors. Both drive the same maniac.Forest/IntReader machinery as
// their hot per-pixel path and both are resumable row/column state
// machines, grounded on jpegls/lossless.Decoder.decodeComponent's row-major
// "for y, for x" structure with a per-pixel mode branch (spec §4.4 DESIGN
// note).
package pixel

import "github.com/cocosip/flif16/maniac"

// Plane channel indices, re-exported from frame for convenience (avoids
// every caller importing both packages just for a constant).
const (
	PlaneY        = 0
	PlaneCo       = 1
	PlaneCg       = 2
	PlaneAlpha    = 3
	PlaneLookback = 4
)

const numDeltaFeatures = 5

// priorPlaneCount is how many already-decoded colour planes (Y, Co) feed
// into the current plane's property vector: Y has none, Co has Y, Cg has
// Y and Co.
func priorPlaneCount(plane int) int {
	switch plane {
	case PlaneY:
		return 0
	case PlaneCo:
		return 1
	case PlaneCg:
		return 2
	default:
		return 0
	}
}

// PlaneBounds reports a plane's static [min,max], used only to seed
// property ranges (the pixel values themselves may additionally be
// narrowed dynamically by the active transform chain; see
// transform.Context/ranges.Stack).
type PlaneBounds func(plane int) (min, max int32)

// PropRangesNonInterlaced seeds the MANIAC property bounds for one plane,
// per spec §4.2's prop_ranges_init: values of prior planes use those
// planes' own [min,max]; the alpha value (when present) uses alpha's
// [min,max]; guess uses this plane's own [min,max]; which-predictor is a
// small enum; delta features are signed differences bounded by the
// plane's width in both directions.
func PropRangesNonInterlaced(plane int, hasAlpha bool, bounds PlaneBounds) []maniac.PropRange {
	var out []maniac.PropRange
	for p := 0; p < priorPlaneCount(plane); p++ {
		lo, hi := bounds(p)
		out = append(out, maniac.PropRange{Min: lo, Max: hi})
	}
	if hasAlpha && plane != PlaneAlpha {
		lo, hi := bounds(PlaneAlpha)
		out = append(out, maniac.PropRange{Min: lo, Max: hi})
	}
	lo, hi := bounds(plane)
	out = append(out, maniac.PropRange{Min: lo, Max: hi}) // guess
	out = append(out, maniac.PropRange{Min: 0, Max: 2})   // which predictor
	width := hi - lo
	for i := 0; i < numDeltaFeatures; i++ {
		out = append(out, maniac.PropRange{Min: -width, Max: width})
	}
	return out
}

// PropRangesInterlaced mirrors PropRangesNonInterlaced for the zoomlevel
// decoder's property vector: prior planes, optional alpha, guess,
// predictor mode, zoomlevel index and one neighbour delta.
func PropRangesInterlaced(plane int, hasAlpha bool, bounds PlaneBounds, maxZoom int) []maniac.PropRange {
	var out []maniac.PropRange
	for p := 0; p < priorPlaneCount(plane); p++ {
		lo, hi := bounds(p)
		out = append(out, maniac.PropRange{Min: lo, Max: hi})
	}
	if hasAlpha && plane != PlaneAlpha {
		lo, hi := bounds(PlaneAlpha)
		out = append(out, maniac.PropRange{Min: lo, Max: hi})
	}
	lo, hi := bounds(plane)
	out = append(out, maniac.PropRange{Min: lo, Max: hi})         // guess
	out = append(out, maniac.PropRange{Min: 0, Max: 2})           // predictor mode
	out = append(out, maniac.PropRange{Min: 0, Max: int32(maxZoom)}) // zoomlevel
	width := hi - lo
	out = append(out, maniac.PropRange{Min: -width, Max: width}) // neighbour delta
	return out
}
