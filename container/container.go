// Package container implements FLIF16's outer framing (spec §6 "Magic and
// header"): the 4-byte magic, the mode/bit-depth header bytes, the varint
// dimension fields, and the metadata-chunk list that follows them. None of
// this is range-coded; it is read directly from the byte stream before the
// RAC-coded secondary header begins.
package container

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Magic is the FLIF16 file signature.
var Magic = [4]byte{'F', 'L', 'I', 'F'}

// Interlacing and animation mode, packed into the header's high nibble.
const (
	ModeStill           = 3 // non-interlaced, single frame
	ModeStillInterlaced = 4 // interlaced, single frame
	ModeAnim            = 5 // non-interlaced, animation
	ModeAnimInterlaced  = 6 // interlaced, animation
)

// BPC codes, the header's bpc_code byte.
const (
	BPCCustom = '0' // per-plane custom, read from the secondary header
	BPC8      = '1'
	BPC16     = '2'
)

var (
	// ErrBadMagic reports a byte stream that doesn't start with "FLIF".
	ErrBadMagic = errors.New("container: bad magic")
	// ErrInvalidHeader reports a header field outside its legal range.
	ErrInvalidHeader = errors.New("container: invalid header field")
)

// Header is the fixed-layout part of the outer framing, read in full
// before any RAC-coded state begins.
type Header struct {
	Mode      int // one of the Mode* constants
	NumPlanes int
	BPCCode   byte
	Width     int
	Height    int
	NumFrames int // 1 unless Mode is one of the animation modes
}

// Interlaced reports whether Mode calls for the zoomlevel pixel decoder.
func (h Header) Interlaced() bool {
	return h.Mode == ModeStillInterlaced || h.Mode == ModeAnimInterlaced
}

// Animated reports whether Mode calls for more than one frame.
func (h Header) Animated() bool {
	return h.Mode == ModeAnim || h.Mode == ModeAnimInterlaced
}

// Reader incrementally parses the outer framing from a byte cursor,
// matching the rest of this module's "feed bytes, get NeedMoreInput until
// done" shape even though none of this stage is range-coded: callers that
// already buffer the whole file can just call ReadHeader/ReadMetadata
// directly; Reader exists for callers assembling a stream a chunk at a
// time.
type Reader struct {
	buf []byte
}

// NewReader starts a container reader over an initially empty buffer.
func NewReader() *Reader { return &Reader{} }

// Feed appends newly-arrived bytes to the internal buffer.
func (r *Reader) Feed(b []byte) { r.buf = append(r.buf, b...) }

// Remaining returns and clears whatever bytes are still buffered but
// unconsumed, once the caller has read everything it needs from the
// unframed container stage (header plus metadata chunks): those bytes
// belong to the RAC-coded stage that follows.
func (r *Reader) Remaining() []byte {
	b := r.buf
	r.buf = nil
	return b
}

// ErrNeedMoreInput is returned when the buffered bytes don't yet cover a
// full field.
var ErrNeedMoreInput = errors.New("container: need more input")

// ReadHeader parses the magic, mode/bit-depth bytes and the varint
// dimension fields. It consumes the parsed bytes from the internal buffer
// only on success.
func (r *Reader) ReadHeader() (Header, error) {
	br := bytes.NewReader(r.buf)
	h, n, err := parseHeader(br)
	if err != nil {
		return Header{}, err
	}
	r.buf = r.buf[n:]
	return h, nil
}

func parseHeader(br *bytes.Reader) (Header, int, error) {
	start := br.Len()
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return Header{}, 0, ErrNeedMoreInput
	}
	if magic != Magic {
		return Header{}, 0, ErrBadMagic
	}
	modeByte, err := br.ReadByte()
	if err != nil {
		return Header{}, 0, ErrNeedMoreInput
	}
	mode := int(modeByte >> 4)
	numPlanes := int(modeByte & 0x0f)
	if mode < ModeStill || mode > ModeAnimInterlaced {
		return Header{}, 0, fmt.Errorf("%w: mode %d", ErrInvalidHeader, mode)
	}
	if numPlanes < 1 || numPlanes > 4 {
		return Header{}, 0, fmt.Errorf("%w: num_planes %d", ErrInvalidHeader, numPlanes)
	}
	bpc, err := br.ReadByte()
	if err != nil {
		return Header{}, 0, ErrNeedMoreInput
	}
	if bpc != BPCCustom && bpc != BPC8 && bpc != BPC16 {
		return Header{}, 0, fmt.Errorf("%w: bpc_code %q", ErrInvalidHeader, bpc)
	}

	widthM1, err := readVarint(br)
	if err != nil {
		return Header{}, 0, err
	}
	heightM1, err := readVarint(br)
	if err != nil {
		return Header{}, 0, err
	}
	h := Header{
		Mode:      mode,
		NumPlanes: numPlanes,
		BPCCode:   bpc,
		Width:     int(widthM1) + 1,
		Height:    int(heightM1) + 1,
		NumFrames: 1,
	}
	if h.Animated() {
		framesM2, err := readVarint(br)
		if err != nil {
			return Header{}, 0, err
		}
		h.NumFrames = int(framesM2) + 2
	}
	return h, start - br.Len(), nil
}

// readVarint reads FLIF16's little-endian base-128 varint: each byte
// contributes 7 bits, MSB set means "more bytes follow".
func readVarint(br *bytes.Reader) (uint64, error) {
	var val uint64
	for shift := uint(0); ; shift += 7 {
		b, err := br.ReadByte()
		if err != nil {
			return 0, ErrNeedMoreInput
		}
		val |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return val, nil
		}
	}
}

// MetadataChunk is one tag/payload pair from the chunk list following the
// header, decompressed if it was zlib-compressed on disk.
type MetadataChunk struct {
	Tag     [3]byte
	Payload []byte
}

// ReadMetadata parses the chunk list terminated by a zero tag-length byte,
// per spec §6: "while next byte ≠ 0, consume 3 ASCII tag bytes then a
// varint length then skip that many (optionally zlib-compressed) bytes."
// A chunk is treated as zlib-compressed when its payload begins with the
// zlib magic (0x78); this mirrors how the reference tooling distinguishes
// raw metadata from compressed metadata without a dedicated flag bit.
func (r *Reader) ReadMetadata() ([]MetadataChunk, error) {
	br := bytes.NewReader(r.buf)
	var chunks []MetadataChunk
	for {
		next, err := br.ReadByte()
		if err != nil {
			return nil, ErrNeedMoreInput
		}
		if next == 0 {
			break
		}
		if err := br.UnreadByte(); err != nil {
			return nil, err
		}
		var tag [3]byte
		if _, err := io.ReadFull(br, tag[:]); err != nil {
			return nil, ErrNeedMoreInput
		}
		length, err := readVarint(br)
		if err != nil {
			return nil, err
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, ErrNeedMoreInput
		}
		payload, err = maybeInflate(payload)
		if err != nil {
			return nil, fmt.Errorf("container: metadata chunk %q: %w", tag, err)
		}
		chunks = append(chunks, MetadataChunk{Tag: tag, Payload: payload})
	}
	r.buf = r.buf[len(r.buf)-br.Len():]
	return chunks, nil
}

func maybeInflate(payload []byte) ([]byte, error) {
	if len(payload) < 2 || payload[0] != 0x78 {
		return payload, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return payload, nil
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return out, nil
}
