package transform

import "github.com/cocosip/flif16/rac"

// ParamSeq sequences a data-dependent list of GNZ integer reads, resumable
// across suspensions the same way maniac.TreeBuilder sequences its
// property/count/split_val reads: at most one rac.GNZReader is ever
// in-flight, so Step can be called again after ErrNeedMoreInput without
// re-reading any bit.
type ParamSeq struct {
	ctx    *rac.ChanceContext
	bounds func(done []int64) (min, max int64, more bool)

	vals     []int64
	inflight *rac.GNZReader
	done     bool
}

// NewParamSeq starts a sequence whose i'th read's (min, max) bound is
// computed by bounds from the values read so far; bounds returns more=false
// once the sequence is complete (its min/max are then ignored).
func NewParamSeq(ctx *rac.ChanceContext, bounds func(done []int64) (min, max int64, more bool)) *ParamSeq {
	return &ParamSeq{ctx: ctx, bounds: bounds}
}

// Step advances the sequence as far as buffered input allows.
func (s *ParamSeq) Step(d *rac.Decoder) ([]int64, bool, error) {
	if s.done {
		return s.vals, true, nil
	}
	for {
		if s.inflight == nil {
			min, max, more := s.bounds(s.vals)
			if !more {
				s.done = true
				return s.vals, true, nil
			}
			s.inflight = rac.NewGNZReader(min, max)
		}
		val, ok, err := s.inflight.Step(d, s.ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, rac.ErrNeedMoreInput
		}
		s.vals = append(s.vals, val)
		s.inflight = nil
	}
}

// fixedCount returns a bounds function for reading exactly n integers, each
// over the same [min, max].
func fixedCount(n int, min, max int64) func(done []int64) (int64, int64, bool) {
	return func(done []int64) (int64, int64, bool) {
		if len(done) >= n {
			return 0, 0, false
		}
		return min, max, true
	}
}
