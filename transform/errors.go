package transform

import "errors"

// ErrInvalidData marks a transform parameter that violates spec §7's
// InvalidData taxonomy (palette size 0, Bounds min>max, FrameShape end<=begin,
// a DuplicateFrame reference at or after the current frame, ...).
var ErrInvalidData = errors.New("transform: invalid data")
