package pixel

import "golang.org/x/exp/constraints"

// median3 returns the median of three values, used by both decoders as the
// base predictor.
func median3[T constraints.Signed](a, b, c T) T {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}

// nonInterlacedPredict computes spec §4.4's predictor: the median of left,
// top and gradientTL = left + top - topleft, snapped to the plane's legal
// set. which reports the branch the median picked (0: gradientTL, 1: left,
// 2: top), checked in that priority order on a tie, for use as a MANIAC
// property — the tie-break order and numbering must match the reference
// decoder's flif16_ni_predict_calcprops exactly, since MANIAC's tree was
// trained against that exact property value.
func nonInterlacedPredict(left, top, topleft int32, snap func(int32) int32) (guess int32, which int32) {
	grad := left + top - topleft
	guess = median3(grad, left, top)
	guess = snap(guess)
	switch {
	case guess == grad:
		which = 0
	case guess == left:
		which = 1
	default:
		which = 2
	}
	return guess, which
}
