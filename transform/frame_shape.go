package transform

import (
	"fmt"

	"github.com/cocosip/flif16/frame"
	"github.com/cocosip/flif16/rac"
)

// frameShape implements tag 11: per (frame, row) a [col_begin, col_end)
// interval limiting which columns are actually coded. An interval is read
// for every frame, DuplicateFrame aliases included. Columns outside a
// frame's own shape copy from the logical previous frame at decode time
// (spec §4.4 step 2). Like duplicateFrame its effect is structural and must
// be visible before pixel decoding, so it stamps rather than reverses.
type frameShape struct {
	ctx   *rac.ChanceContext
	frame int
	row   int
	width int

	rowSeq   *ParamSeq
	begins   [][]int32
	ends     [][]int32
	curBegin []int32
	curEnd   []int32
}

func newFrameShape() Transform { return &frameShape{ctx: rac.NewChanceContext()} }

func (t *frameShape) Tag() int     { return TagFrameShape }
func (t *frameShape) Name() string { return "FrameShape" }

func (t *frameShape) ReadParams(d *rac.Decoder, ctx *Context) (bool, error) {
	t.width = ctx.Width
	for t.frame < ctx.NumFrames {
		if t.curBegin == nil {
			t.curBegin = make([]int32, 0, ctx.Height)
			t.curEnd = make([]int32, 0, ctx.Height)
		}
		for t.row < ctx.Height {
			if t.rowSeq == nil {
				w := int64(ctx.Width)
				t.rowSeq = NewParamSeq(t.ctx, func(done []int64) (int64, int64, bool) {
					switch len(done) {
					case 0:
						return 0, w, true
					case 1:
						return done[0] + 1, w, true
					default:
						return 0, 0, false
					}
				})
			}
			vals, done, err := t.rowSeq.Step(d)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			begin, end := int32(vals[0]), int32(vals[1])
			if end <= begin {
				return false, fmt.Errorf("transform: FrameShape frame %d row %d: end %d <= begin %d: %w", t.frame, t.row, end, begin, ErrInvalidData)
			}
			t.curBegin = append(t.curBegin, begin)
			t.curEnd = append(t.curEnd, end)
			t.rowSeq = nil
			t.row++
		}
		t.begins = append(t.begins, t.curBegin)
		t.ends = append(t.ends, t.curEnd)
		t.curBegin, t.curEnd = nil, nil
		t.row = 0
		t.frame++
	}
	return true, nil
}

func (t *frameShape) Reverse(store *frame.Store) {}

// Stamp copies the decoded per-row shape into store.ColBegin/ColEnd.
func (t *frameShape) Stamp(store *frame.Store) {
	if store.ColBegin == nil {
		return
	}
	for f := range t.begins {
		if f >= len(store.ColBegin) {
			break
		}
		begin := make([]int, len(t.begins[f]))
		end := make([]int, len(t.ends[f]))
		for r := range begin {
			begin[r] = int(t.begins[f][r])
			end[r] = int(t.ends[f][r])
		}
		store.ColBegin[f] = begin
		store.ColEnd[f] = end
	}
}

func init() {
	Register(TagFrameShape, "FrameShape", newFrameShape)
}
