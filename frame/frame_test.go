package frame

import "testing"

func TestNormalPlaneGetSet(t *testing.T) {
	p := NewNormalPlane(4, 3, 2)
	p.Set(1, 2, 1, 42)
	if got := p.Get(1, 2, 1); got != 42 {
		t.Fatalf("Get = %d, want 42", got)
	}
	if got := p.Get(0, 2, 1); got != 0 {
		t.Fatalf("other frame leaked write: Get = %d, want 0", got)
	}
}

func TestConstantPlaneIgnoresSet(t *testing.T) {
	p := NewConstantPlane(4, 3, 2, 99)
	p.Set(0, 0, 0, 1)
	if got := p.Get(0, 0, 0); got != 99 {
		t.Fatalf("Get = %d, want 99 (constant plane must ignore Set)", got)
	}
}

func TestFillPlaneSharedAcrossFrames(t *testing.T) {
	p := NewFillPlane(4, 3, 5)
	p.Set(0, 1, 1, 7)
	if got := p.Get(4, 1, 1); got != 7 {
		t.Fatalf("Get on different frame = %d, want 7 (fill plane is frame-shared)", got)
	}
}

func TestStoreDecodeOrder(t *testing.T) {
	if len(DecodeOrder) != 5 {
		t.Fatalf("DecodeOrder length = %d, want 5", len(DecodeOrder))
	}
	if DecodeOrder[0] != PlaneLookback || DecodeOrder[2] != PlaneY {
		t.Fatalf("unexpected DecodeOrder: %v", DecodeOrder)
	}
}

func TestNewStoreSeenBeforeDefaultsToMinusOne(t *testing.T) {
	s := NewStore(10, 10, 3)
	for f, v := range s.SeenBefore {
		if v != -1 {
			t.Fatalf("SeenBefore[%d] = %d, want -1", f, v)
		}
	}
}
