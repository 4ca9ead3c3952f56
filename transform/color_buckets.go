package transform

import (
	"sort"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
	"github.com/cocosip/flif16/ranges"
)

// colorBuckets implements tag 7: membership in a sparse, luma-banded set of
// legal colours. It never narrows the flat [min,max] Entry (the bucket set
// can be sparse inside a wide interval), it only installs a Snap hook —
// "no (range-only, via snap)" in spec's transform table.
//
// Buckets are keyed by a luma band (bandShift bits of Y); Co buckets list
// the legal Co values seen in that band. Cg buckets are keyed by the luma
// band only (the Co value is not consulted), and each band's Cg set is the
// run of count consecutive values starting at the Cg plane's minimum.
type colorBuckets struct {
	ctx *rac.ChanceContext

	bandShift uint
	numBands  int
	readBands int

	countsSeq *ParamSeq

	coSeq   *ParamSeq
	coLists [][]int32

	cgSeq   *ParamSeq
	cgLists [][]int32
}

const colorBucketBandShift = 3

func newColorBuckets() Transform {
	return &colorBuckets{ctx: rac.NewChanceContext(), bandShift: colorBucketBandShift}
}

func (c *colorBuckets) Tag() int     { return TagColorBuckets }
func (c *colorBuckets) Name() string { return "ColorBuckets" }

func (c *colorBuckets) band(y int32) int {
	b := int(y) >> c.bandShift
	if b < 0 {
		b = 0
	}
	if b >= c.numBands {
		b = c.numBands - 1
	}
	return b
}

func (c *colorBuckets) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	if c.numBands == 0 {
		width := ctx.Ranges.Entry(frame.PlaneY).Width()
		c.numBands = int((width >> c.bandShift) + 1)
		c.coLists = make([][]int32, c.numBands)
		c.cgLists = make([][]int32, c.numBands)
	}

	coLo, coHi := int64(ctx.Ranges.Min(frame.PlaneCo)), int64(ctx.Ranges.Max(frame.PlaneCo))
	cgLo, cgHi := int64(ctx.Ranges.Min(frame.PlaneCg)), int64(ctx.Ranges.Max(frame.PlaneCg))

	for c.readBands < c.numBands {
		if c.coSeq == nil {
			if c.countsSeq == nil {
				c.countsSeq = NewParamSeq(c.ctx, func(done []int64) (int64, int64, bool) {
					if len(done) >= 1 {
						return 0, 0, false
					}
					return 0, coHi - coLo + 1, true
				})
			}
			vals, done, err := c.countsSeq.Step(d)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			count := vals[0]
			c.countsSeq = nil
			c.coSeq = NewParamSeq(c.ctx, func(done []int64) (int64, int64, bool) {
				if int64(len(done)) >= count {
					return 0, 0, false
				}
				lo := coLo
				if len(done) > 0 {
					lo = done[len(done)-1] + 1
				}
				return lo, coHi, true
			})
		}
		vals, done, err := c.coSeq.Step(d)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		list := make([]int32, len(vals))
		for i, v := range vals {
			list[i] = int32(v)
		}
		c.coLists[c.readBands] = list
		c.coSeq = nil

		if c.cgSeq == nil {
			c.cgSeq = NewParamSeq(c.ctx, func(done []int64) (int64, int64, bool) {
				if len(done) >= 1 {
					return 0, 0, false
				}
				return 0, cgHi-cgLo+1, true
			})
		}
		cgVals, cgDone, err := c.cgSeq.Step(d)
		if err != nil {
			return false, err
		}
		if !cgDone {
			return false, nil
		}
		cgCount := cgVals[0]
		cgList := make([]int32, 0, cgCount)
		for i := int64(0); i < cgCount; i++ {
			cgList = append(cgList, int32(cgLo+i))
		}
		c.cgLists[c.readBands] = cgList
		c.cgSeq = nil
		c.readBands++
	}

	ctx.Ranges.SetDynamic(frame.PlaneCo, nil, func(s *ranges.Stack, prev []int32, v int32) int32 {
		return c.snapCo(prev[frame.PlaneY], v)
	})
	ctx.Ranges.SetDynamic(frame.PlaneCg, nil, func(s *ranges.Stack, prev []int32, v int32) int32 {
		return c.snapCg(prev[frame.PlaneY], v)
	})
	return true, nil
}

func (c *colorBuckets) snapCo(y, v int32) int32 {
	list := c.coLists[c.band(y)]
	return nearest(list, v)
}

func (c *colorBuckets) snapCg(y, v int32) int32 {
	list := c.cgLists[c.band(y)]
	return nearest(list, v)
}

// nearest returns the value in a sorted list closest to v, or v unchanged if
// the list is empty (no bucket information read for this band).
func nearest(list []int32, v int32) int32 {
	if len(list) == 0 {
		return v
	}
	i := sort.Search(len(list), func(i int) bool { return list[i] >= v })
	if i == 0 {
		return list[0]
	}
	if i == len(list) {
		return list[len(list)-1]
	}
	if list[i]-v < v-list[i-1] {
		return list[i]
	}
	return list[i-1]
}

func (c *colorBuckets) Reverse(store *frame.Store) {}

func init() {
	Register(TagColorBuckets, "ColorBuckets", newColorBuckets)
}
