// Package ranges tracks the per-channel value bounds ([min, max] pairs) of
// an image as it moves through FLIF's transform chain.
//
// Each transform narrows or reinterprets one or more channels (RGB becomes
// YCoCg, a palette replaces RGB with a single index channel, ...). Rather
// than a chain of pointer-linked wrapper objects, a Stack is one flat slice
// of Entry values (one per channel) plus optional per-channel MinMax/Snap
// hooks; a transform overwrites the entries and hooks of the channels it
// changes in place. The bounds of earlier layers are not kept, and entries
// carry no link to the layer they replaced.
package ranges

import "golang.org/x/exp/slices"

// Entry is the [min, max] bound of one channel at one point in the
// transform chain.
type Entry struct {
	Min, Max int32
}

// Width reports how many distinct values the channel can take.
func (e Entry) Width() int64 {
	return int64(e.Max) - int64(e.Min) + 1
}

// DynamicFunc narrows a channel's bound given the already-decoded values of
// earlier channels at the current pixel ("prev planes"), per spec §3's
// "minmax(p, prev_plane_values)". Channels whose legal set does not depend
// on prev (the common case) leave this nil and use Entry directly.
type DynamicFunc func(s *Stack, prev []int32) (min, max int32)

// SnapFunc clamps (or otherwise maps) a candidate value onto a channel's
// legal set given prev planes, per spec §3's "snap(p, prev, &v)". Channels
// with no SnapFunc just clamp to MinMax(c, prev).
type SnapFunc func(s *Stack, prev []int32, v int32) int32

// Stack holds the current per-channel bounds for every channel of an image,
// updated in place as each transform's parameters are read.
type Stack struct {
	entries []Entry
	dynamic []DynamicFunc
	snap    []SnapFunc
}

// NewStack starts a bounds stack from the raw per-channel bit depths.
func NewStack(entries []Entry) *Stack {
	s := &Stack{entries: slices.Clone(entries)}
	s.dynamic = make([]DynamicFunc, len(entries))
	s.snap = make([]SnapFunc, len(entries))
	return s
}

// NumChannels reports the current channel count.
func (s *Stack) NumChannels() int { return len(s.entries) }

// Min returns the current lower bound of channel c.
func (s *Stack) Min(c int) int32 { return s.entries[c].Min }

// Max returns the current upper bound of channel c.
func (s *Stack) Max(c int) int32 { return s.entries[c].Max }

// Entry returns the current bound of channel c.
func (s *Stack) Entry(c int) Entry { return s.entries[c] }

// Entries returns a copy of the full per-channel bound slice, e.g. to snapshot
// before pushing a new transform layer.
func (s *Stack) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Replace overwrites the bounds with a new set, as produced by a transform
// that changes the channel count (e.g. a palette transform collapsing RGB
// into a single index channel). Any per-channel dynamic hooks are cleared;
// callers that still need one re-install it with SetDynamic.
func (s *Stack) Replace(entries []Entry) {
	s.entries = slices.Clone(entries)
	s.dynamic = make([]DynamicFunc, len(entries))
	s.snap = make([]SnapFunc, len(entries))
}

// Set narrows (or widens) a single channel's static bound in place. It does
// not touch any dynamic hook installed on the channel.
func (s *Stack) Set(c int, e Entry) {
	s.entries[c] = e
}

// SetDynamic installs a context-dependent bound and/or snap rule on channel
// c, per spec §3's "a range object is static if minmax is independent of
// prev". Passing a nil fn clears a previously-installed hook.
func (s *Stack) SetDynamic(c int, fn DynamicFunc, snap SnapFunc) {
	s.dynamic[c] = fn
	s.snap[c] = snap
}

// Static reports whether channel c's MinMax ignores prev entirely (a Snap
// hook installed on the channel may still read prev).
func (s *Stack) Static(c int) bool {
	return s.dynamic[c] == nil
}

// MinMax returns the legal [lo, hi] interval for channel c given the
// already-decoded values of earlier channels at this pixel. For a static
// channel prev is ignored and this is equivalent to (Min(c), Max(c)).
func (s *Stack) MinMax(c int, prev []int32) (int32, int32) {
	if fn := s.dynamic[c]; fn != nil {
		return fn(s, prev)
	}
	return s.entries[c].Min, s.entries[c].Max
}

// Snap clamps v onto channel c's legal set given prev planes.
func (s *Stack) Snap(c int, prev []int32, v int32) int32 {
	if fn := s.snap[c]; fn != nil {
		return fn(s, prev, v)
	}
	lo, hi := s.MinMax(c, prev)
	return clamp(v, lo, hi)
}
