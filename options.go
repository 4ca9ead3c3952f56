package flif16

import "fmt"

// Options bounds decode-time resource usage, the FLIF16 analogue of the
// teacher's codec.BaseOptions — but with no quality knob to carry over
// (FLIF16 has no lossy encode path in this repo; spec §1 Non-goals).
type Options struct {
	// MaxWidth and MaxHeight reject (as ErrOutOfMemory) any header claiming
	// a larger image than the caller is willing to allocate for. Zero means
	// unbounded.
	MaxWidth, MaxHeight int

	// MaxFrames bounds an animation's frame count the same way. Zero means
	// unbounded.
	MaxFrames int
}

// Validate checks that Options itself is internally consistent.
func (o Options) Validate() error {
	if o.MaxWidth < 0 || o.MaxHeight < 0 || o.MaxFrames < 0 {
		return fmt.Errorf("flif16: negative Options limit")
	}
	return nil
}

func (o Options) checkDimensions(width, height, frames int) error {
	if o.MaxWidth > 0 && width > o.MaxWidth {
		return fmt.Errorf("flif16: width %d exceeds MaxWidth %d: %w", width, o.MaxWidth, ErrOutOfMemory)
	}
	if o.MaxHeight > 0 && height > o.MaxHeight {
		return fmt.Errorf("flif16: height %d exceeds MaxHeight %d: %w", height, o.MaxHeight, ErrOutOfMemory)
	}
	if o.MaxFrames > 0 && frames > o.MaxFrames {
		return fmt.Errorf("flif16: frames %d exceeds MaxFrames %d: %w", frames, o.MaxFrames, ErrOutOfMemory)
	}
	return nil
}
