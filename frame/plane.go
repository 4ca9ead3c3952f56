// Package frame holds decoded pixel data: one Store per FLIF16 image, made
// of one Plane per channel (Y/Co/Cg/Alpha/Lookback), each plane holding one
// 2D pixel array per frame of an animation.
//
// The table-of-units-plus-per-unit-state shape is grounded on the teacher's
// jpegls/lossless.ContextTable wrapping many Context values; here the "unit"
// is a whole plane's raster instead of one JPEG-LS context, and the mode
// field (Normal/Constant/Fill) captures the storage optimization spec §4.3
// requires once transform parsing fixes a plane's value range.
package frame

// Mode selects how a Plane's pixel data is actually stored.
type Mode int

const (
	// Normal stores one value per pixel per frame.
	Normal Mode = iota
	// Constant stores a single value shared by the whole plane across all
	// frames (min == max after transform parsing).
	Constant
	// Fill stores one value per pixel but shared across frames (used for
	// Lookback, and for alpha when ChannelCompact forces it).
	Fill
)

// Plane is one channel's pixel data across every frame of the image.
type Plane struct {
	Mode   Mode
	Width  int
	Height int
	Frames int

	constant int32
	fillRows [][]int32 // one row slice per (row) shared across frames, Fill mode
	data     [][]int32 // [frame][y*Width+x], Normal mode
}

// NewNormalPlane allocates a plane with independent per-frame pixel data.
func NewNormalPlane(width, height, frames int) *Plane {
	p := &Plane{Mode: Normal, Width: width, Height: height, Frames: frames}
	p.data = make([][]int32, frames)
	for f := range p.data {
		p.data[f] = make([]int32, width*height)
	}
	return p
}

// NewConstantPlane allocates a plane whose every pixel is value v.
func NewConstantPlane(width, height, frames int, v int32) *Plane {
	return &Plane{Mode: Constant, Width: width, Height: height, Frames: frames, constant: v}
}

// NewFillPlane allocates a plane shared across frames but varying per pixel.
func NewFillPlane(width, height, frames int) *Plane {
	p := &Plane{Mode: Fill, Width: width, Height: height, Frames: frames}
	p.fillRows = make([][]int32, height)
	for y := range p.fillRows {
		p.fillRows[y] = make([]int32, width)
	}
	return p
}

// Get reads the pixel at (frame, x, y).
func (p *Plane) Get(frame, x, y int) int32 {
	switch p.Mode {
	case Constant:
		return p.constant
	case Fill:
		return p.fillRows[y][x]
	default:
		return p.data[frame][y*p.Width+x]
	}
}

// Set writes the pixel at (frame, x, y). Writing to a Constant plane is a
// caller error (the value was already fixed when the plane was allocated)
// and is ignored.
func (p *Plane) Set(frame, x, y int, v int32) {
	switch p.Mode {
	case Constant:
		return
	case Fill:
		p.fillRows[y][x] = v
	default:
		p.data[frame][y*p.Width+x] = v
	}
}
