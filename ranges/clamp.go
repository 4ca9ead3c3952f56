package ranges

import "golang.org/x/exp/constraints"

// clamp restricts v to [lo, hi]; Snap uses it when no SnapFunc is installed.
func clamp[T constraints.Signed](v, lo, hi T) T {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
