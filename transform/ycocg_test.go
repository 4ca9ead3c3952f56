package transform

import (
	"testing"

	"github.com/cocosip/flif16/ranges"
)

// TestYCoCgCoBand checks minCo/maxCo against hand-computed values for
// origmax4=4 (a source bit depth narrow enough to hand-verify all three
// branches of the piecewise band).
func TestYCoCgCoBand(t *testing.T) {
	const m4 = 4
	wantMax := []int32{3, 7, 11, 15, 15, 15, 15, 15, 15, 15, 15, 15, 12, 8, 4, 0}
	for y := int32(0); y < int32(len(wantMax)); y++ {
		gotMax := maxCo32(m4, y)
		if gotMax != wantMax[y] {
			t.Errorf("maxCo32(%d, %d) = %d, want %d", m4, y, gotMax, wantMax[y])
		}
		gotMin := minCo(m4, y)
		if gotMin != -wantMax[y] {
			t.Errorf("minCo(%d, %d) = %d, want %d", m4, y, gotMin, -wantMax[y])
		}
	}
}

// TestYCoCgCgBand checks minCg/maxCg against hand-computed values for
// origmax4=4 at Co=0 (the Cg band's own three branches, independent of the
// /2 narrowing a nonzero Co value would add).
func TestYCoCgCgBand(t *testing.T) {
	const m4 = 4
	tests := []struct {
		y, co            int32
		wantMin, wantMax int32
	}{
		{y: 0, co: 0, wantMin: -1, wantMax: 1},
		{y: 1, co: 0, wantMin: -3, wantMax: 3},
		{y: 2, co: 0, wantMin: -5, wantMax: 5},
		{y: 3, co: 0, wantMin: -7, wantMax: 7},   // first middle-band row, FFMIN/FFMAX of two candidates
		{y: 7, co: 0, wantMin: -15, wantMax: 15}, // middle of the middle band
		{y: 12, co: 0, wantMin: -6, wantMax: 6},  // first row of the upper band
		{y: 15, co: 0, wantMin: 0, wantMax: 0},
	}
	for _, tt := range tests {
		if got := minCg(m4, tt.y, tt.co); got != tt.wantMin {
			t.Errorf("minCg(%d, %d, %d) = %d, want %d", m4, tt.y, tt.co, got, tt.wantMin)
		}
		if got := maxCg(m4, tt.y, tt.co); got != tt.wantMax {
			t.Errorf("maxCg(%d, %d, %d) = %d, want %d", m4, tt.y, tt.co, got, tt.wantMax)
		}
	}
}

// TestYCoCgOrigmax4 checks the /4 scale in ReadParams: an 8-bit source
// (plane max 255 on all three colour channels) must produce origmax4=64,
// not 256.
func TestYCoCgOrigmax4(t *testing.T) {
	y := &ycocg{}
	ctx := &Context{Ranges: ranges.NewStack([]ranges.Entry{
		{Min: 0, Max: 255}, // Y
		{Min: 0, Max: 255}, // Co
		{Min: 0, Max: 255}, // Cg
	})}
	if _, err := y.ReadParams(nil, ctx); err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if y.origmax4 != 64 {
		t.Fatalf("origmax4 = %d, want 64", y.origmax4)
	}
	if got, want := ctx.Ranges.Max(0), int32(4*64-1); got != want {
		t.Fatalf("Y max = %d, want %d", got, want)
	}
}
