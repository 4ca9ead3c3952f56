package rac

import "testing"

func TestDecoderInitResumable(t *testing.T) {
	d := New()
	d.Feed([]byte{0x12})
	if err := d.Init(); err != ErrNeedMoreInput {
		t.Fatalf("Init with 1/3 bytes: got %v, want ErrNeedMoreInput", err)
	}
	d.Feed([]byte{0x34, 0x56})
	if err := d.Init(); err != nil {
		t.Fatalf("Init with 3/3 bytes: %v", err)
	}
	if d.low != 0x123456 {
		t.Fatalf("low = %#x, want 0x123456", d.low)
	}
	if d.rng != maxRange {
		t.Fatalf("rng = %#x, want %#x", d.rng, maxRange)
	}
	// Init is idempotent once initialized.
	if err := d.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestUniformReaderTrivialRange(t *testing.T) {
	d := New()
	val, err := d.ReadUniformInt(5, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 5 {
		t.Fatalf("val = %d, want 5", val)
	}
}

func TestUniformReaderResumes(t *testing.T) {
	d := New()
	d.Feed([]byte{0, 0, 0})
	if err := d.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	d.SetChanceTable(NewChanceTable(DefaultAlpha, DefaultCut))

	// 20 even bits: the first 8 take range from 2^24 down to 2^16, so the
	// 9th needs a renormalization byte the three init bytes don't supply.
	r := NewUniformReader(0, 1<<20-1)
	_, done, err := r.Step(d)
	if err == nil && !done {
		t.Fatalf("expected either progress or an error")
	}
	if err != nil && err != ErrNeedMoreInput {
		t.Fatalf("unexpected error: %v", err)
	}
	// Feed the rest of the stream and make sure Step eventually finishes
	// without the earlier partial progress being discarded.
	d.Feed([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	for i := 0; i < 64; i++ {
		_, done, err = r.Step(d)
		if err != nil && err != ErrNeedMoreInput {
			t.Fatalf("unexpected error: %v", err)
		}
		if done {
			return
		}
	}
	t.Fatalf("UniformReader never finished")
}

func TestNZReaderTrivialRange(t *testing.T) {
	d := New()
	ctx := NewChanceContext()
	val, err := d.ReadNZInt(ctx, 7, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 7 {
		t.Fatalf("val = %d, want 7", val)
	}
}

func TestGNZReaderShiftsPositiveRange(t *testing.T) {
	g := NewGNZReader(10, 20)
	if g.shift != 10 {
		t.Fatalf("shift = %d, want 10", g.shift)
	}
	if g.inner.min != 0 || g.inner.max != 10 {
		t.Fatalf("inner range = [%d,%d], want [0,10]", g.inner.min, g.inner.max)
	}
}

func TestGNZReaderShiftsNegativeRange(t *testing.T) {
	g := NewGNZReader(-20, -10)
	if g.shift != -10 {
		t.Fatalf("shift = %d, want -10", g.shift)
	}
	if g.inner.min != -10 || g.inner.max != 0 {
		t.Fatalf("inner range = [%d,%d], want [-10,0]", g.inner.min, g.inner.max)
	}
}

func TestGNZReaderNoShiftWhenZeroInRange(t *testing.T) {
	g := NewGNZReader(-5, 5)
	if g.shift != 0 {
		t.Fatalf("shift = %d, want 0", g.shift)
	}
}

func TestChanceTableZeroStateNonZero(t *testing.T) {
	table := NewChanceTable(DefaultAlpha, DefaultCut)
	for _, p := range []int{1, 100, 2048, 4000, 4095} {
		if table.ZeroState[p] == 0 && p != 0 {
			t.Errorf("ZeroState[%d] unexpectedly 0", p)
		}
	}
}

func TestHighBit(t *testing.T) {
	cases := map[int64]int{1: 0, 2: 1, 3: 1, 4: 2, 7: 2, 8: 3, 255: 7, 256: 8}
	for v, want := range cases {
		if got := highBit(v); got != want {
			t.Errorf("highBit(%d) = %d, want %d", v, got, want)
		}
	}
}
