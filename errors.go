package flif16

import "errors"

// Error taxonomy, per spec §7. All but ErrNeedMoreInput are terminal: once
// returned, the Decoder must be discarded. ErrNeedMoreInput is fully
// recoverable; EndOfStream is reported as io.EOF, reusing the stdlib
// sentinel exactly as the teacher's decoders reuse io.EOF for "no more
// markers" rather than minting their own "done" error.
var (
	// ErrInvalidData covers every taxonomy entry spec §7 lists under
	// InvalidData: bad magic, out-of-range header fields, inconsistent
	// transform parameters, custombc=1, num_planes > 4 on output.
	ErrInvalidData = errors.New("flif16: invalid data")

	// ErrUnsupported covers reserved transform tags (and encoding). A
	// custom-bitchance stream (custombc=1) is reported as ErrInvalidData, and
	// per-plane depths above 16 bits cannot occur: they are read from [1,16].
	ErrUnsupported = errors.New("flif16: unsupported feature")

	// ErrOutOfMemory covers allocation failures (dimensions/frame counts
	// past the configured Options limits).
	ErrOutOfMemory = errors.New("flif16: out of memory")

	// ErrNeedMoreInput is returned by Decoder.Step when the buffered input
	// doesn't yet cover the next state; Feed more bytes and call Step again.
	ErrNeedMoreInput = errors.New("flif16: need more input")
)
