package flif16

import (
	"errors"
	"testing"

	"github.com/cocosip/flif16/container"
	"github.com/cocosip/flif16/rac"
)

// minimalStream builds the bytes for a 1x1, grayscale (numPlanes=1), 8bpc,
// non-interlaced, non-animated, metadata-free, transform-free stream up
// into the MANIAC read of the first plane's context tree — spec §6's
// "Magic and header" plus "Secondary header" plus the empty "Transform
// chain".
//
// The three RAC-coded control bits this stream carries (customAlpha,
// custombc, transform-continue) are read with rac.ReadEvenBit (chance
// exactly 0x800): starting from range=2^24, each even-bit split halves the
// range, and low=0x1E0000 stays below 2^21, so all three decode as 0
// without a renormalization. The next bit, the tree's adaptive "is this a
// leaf" bit (chance 1000 at range 2^21, split 512000), decodes as 1 because
// low >= 2^21-512000, so the root is an inner node; reading its property,
// count and split value then runs the range down until renormalization
// needs bytes the stream does not have, leaving the decoder suspended
// inside the tree build. (With low=0 every bit decodes as 0, the tree is a
// single leaf and the whole 1x1 image decodes from these bytes alone.)
func minimalStream(trailing ...byte) []byte {
	b := []byte{
		'F', 'L', 'I', 'F',
		0x31, // mode=3 (still, non-interlaced), num_planes=1
		0x31, // bpc_code='1' (8-bit)
		0x00, // width-1 = 0
		0x00, // height-1 = 0
		0x00, // metadata terminator (no chunks)
		0x1E, 0x00, 0x00, // RAC init (low=0x1E0000)
	}
	return append(b, trailing...)
}

func TestDecoderReachesManiacStage(t *testing.T) {
	d, err := NewDecoder(Options{})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	d.Feed(minimalStream(0x00))
	ev, err := d.Step()
	if !errors.Is(err, rac.ErrNeedMoreInput) {
		t.Fatalf("Step error = %v, want rac.ErrNeedMoreInput", err)
	}
	if ev.Kind != NeedMoreInput {
		t.Fatalf("Kind = %v, want NeedMoreInput", ev.Kind)
	}
	if d.secondary.customAlpha {
		t.Fatal("customAlpha decoded true, want false")
	}
	if d.secondary.custombc {
		t.Fatal("custombc decoded true, want false")
	}
	if d.st != stPixels {
		t.Fatalf("state = %v, want stPixels (suspended inside MANIAC build)", d.st)
	}
	if len(d.activePlanes) != 1 || d.activePlanes[0] != 0 {
		t.Fatalf("activePlanes = %v, want [0]", d.activePlanes)
	}
}

// TestDecoderResumableAcrossFeeds checks spec §8's resumability property
// for this prefix: feeding the same bytes in two chunks must reach the
// same suspended state as feeding them all at once, and must not consume
// (or re-consume) any byte twice.
func TestDecoderResumableAcrossFeeds(t *testing.T) {
	whole := minimalStream(0x00)

	oneShot, err := NewDecoder(Options{})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	oneShot.Feed(whole)
	if _, err := oneShot.Step(); !errors.Is(err, rac.ErrNeedMoreInput) {
		t.Fatalf("one-shot Step error = %v, want NeedMoreInput", err)
	}

	for k := 1; k < len(whole); k++ {
		chunked, err := NewDecoder(Options{})
		if err != nil {
			t.Fatalf("NewDecoder: %v", err)
		}
		chunked.Feed(whole[:k])
		if _, err := chunked.Step(); err != nil &&
			!errors.Is(err, rac.ErrNeedMoreInput) &&
			!errors.Is(err, container.ErrNeedMoreInput) {
			t.Fatalf("chunk split at %d: first Step error = %v, want a NeedMoreInput variant", k, err)
		}
		chunked.Feed(whole[k:])
		_, err = chunked.Step()
		if !errors.Is(err, rac.ErrNeedMoreInput) {
			t.Fatalf("chunk split at %d: final Step error = %v, want NeedMoreInput", k, err)
		}
		if chunked.secondary.customAlpha != oneShot.secondary.customAlpha ||
			chunked.secondary.custombc != oneShot.secondary.custombc {
			t.Fatalf("chunk split at %d: secondary header = %+v, want %+v", k, chunked.secondary, oneShot.secondary)
		}
	}
}

func TestDecoderRejectsBadMagic(t *testing.T) {
	d, err := NewDecoder(Options{})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	d.Feed([]byte{'N', 'O', 'P', 'E', 0x31, 0x31, 0, 0, 0})
	_, err = d.Step()
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("Step error = %v, want ErrInvalidData", err)
	}
	// The decoder is terminal after any non-NeedMoreInput error.
	if _, err := d.Step(); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("second Step error = %v, want ErrInvalidData again", err)
	}
}

func TestDecoderRejectsDimensionsOverOptions(t *testing.T) {
	d, err := NewDecoder(Options{MaxWidth: 1})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	d.Feed([]byte{
		'F', 'L', 'I', 'F',
		0x31, 0x31,
		0x01, // width-1 = 1 -> width = 2, exceeds MaxWidth=1
		0x00,
	})
	_, err = d.Step()
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Step error = %v, want ErrOutOfMemory", err)
	}
}
