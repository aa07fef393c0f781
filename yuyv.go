package yuyv

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/deepteams/yuyv/internal/kernel"
	"github.com/deepteams/yuyv/internal/pool"
)

// Errors returned when a pass is rejected. They are wrapped with the
// offending values; test with errors.Is.
var (
	ErrInvalidSize   = errors.New("yuyv: invalid dimensions")
	ErrOddWidth      = errors.New("yuyv: output width must be even")
	ErrFrameTooSmall = errors.New("yuyv: frame smaller than configuration")
	ErrDestSize      = errors.New("yuyv: destination size does not match configuration")
	ErrLegacyWidth   = errors.New("yuyv: legacy mode needs an output width of at least 8")
	ErrInvalidMode   = errors.New("yuyv: unknown mode")
)

// Mode selects the boundary arithmetic of the chroma filter.
type Mode int

const (
	// ModeStandard clamps right-edge taps to the last cell of the row.
	ModeStandard Mode = iota

	// ModeLegacy reproduces frames from the legacy RenderScript camera
	// converter, including its right-edge column formula (width>>2) and its
	// exchanged -1/+1 filter taps. Use it to compare against reference
	// captures; it needs Width >= 8.
	ModeLegacy
)

// String returns the mode name.
func (m Mode) String() string {
	return kernel.Mode(m).String()
}

// ParseMode parses "standard" or "legacy".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "standard", "":
		return ModeStandard, nil
	case "legacy":
		return ModeLegacy, nil
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidMode, s)
}

// Cell is one packed input sample: two luma values sharing a chroma pair.
type Cell struct {
	Y0, U, Y1, V uint8
}

// Frame is the input sample grid: Rows rows of Cols packed cells. Cell
// (i, y) occupies Pix[y*Stride+4*i : y*Stride+4*i+4] as Y0, U, Y1, V.
//
// A Frame also satisfies image.Image with bounds 2*Cols x Rows; At returns
// the raw sample with the cell's chroma (no interpolation).
type Frame struct {
	Pix    []byte
	Stride int
	Cols   int
	Rows   int

	pooled bool
}

// NewFrame allocates a zeroed frame of cols x rows cells.
func NewFrame(cols, rows int) *Frame {
	return &Frame{
		Pix:    make([]byte, 4*cols*rows),
		Stride: 4 * cols,
		Cols:   cols,
		Rows:   rows,
	}
}

// FrameFromBytes wraps a tightly packed YUYV buffer for an image of
// width x height pixels. The bytes are not copied.
func FrameFromBytes(pix []byte, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width&1 != 0 {
		return nil, fmt.Errorf("%w (width %d)", ErrOddWidth, width)
	}
	if need := 2 * width * height; len(pix) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrFrameTooSmall, len(pix), need)
	}
	return &Frame{
		Pix:    pix,
		Stride: 2 * width,
		Cols:   width / 2,
		Rows:   height,
	}, nil
}

// newPooledFrame returns a tightly packed frame backed by a pooled buffer.
func newPooledFrame(width, height int) *Frame {
	return &Frame{
		Pix:    pool.Get(2 * width * height),
		Stride: 2 * width,
		Cols:   width / 2,
		Rows:   height,
		pooled: true,
	}
}

// Release hands a pooled buffer back for reuse. The frame must not be used
// afterwards. Release is a no-op for frames that do not own a pooled buffer.
func (f *Frame) Release() {
	if f == nil || !f.pooled {
		return
	}
	pool.Put(f.Pix)
	f.Pix = nil
	f.pooled = false
}

// Width returns the output width of the frame, two pixels per cell.
func (f *Frame) Width() int {
	return 2 * f.Cols
}

// Row returns the packed cells of row y.
func (f *Frame) Row(y int) []byte {
	off := y * f.Stride
	return f.Pix[off : off+4*f.Cols]
}

// Cell returns cell (i, y).
func (f *Frame) Cell(i, y int) Cell {
	c := f.Pix[y*f.Stride+4*i:]
	return Cell{Y0: c[0], U: c[1], Y1: c[2], V: c[3]}
}

// SetCell stores cell (i, y).
func (f *Frame) SetCell(i, y int, c Cell) {
	p := f.Pix[y*f.Stride+4*i:]
	p[0], p[1], p[2], p[3] = c.Y0, c.U, c.Y1, c.V
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model {
	return color.YCbCrModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, 2*f.Cols, f.Rows)
}

// At implements image.Image. Odd columns use the cell's Y1 with the cell's
// own chroma; use Convert for interpolated chroma.
func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(f.Bounds())) {
		return color.YCbCr{}
	}
	c := f.Cell(x>>1, y)
	if x&1 == 0 {
		return color.YCbCr{Y: c.Y0, Cb: c.U, Cr: c.V}
	}
	return color.YCbCr{Y: c.Y1, Cb: c.U, Cr: c.V}
}

// Config describes one conversion pass. It is a plain value: the same
// Config may be shared by any number of concurrent passes.
type Config struct {
	Width  int // output width in pixels, even
	Height int // output height in pixels
	Mode   Mode
}

// ConfigFor returns the standard-mode configuration covering all of f.
func ConfigFor(f *Frame) Config {
	return Config{Width: f.Width(), Height: f.Rows}
}

// Validate checks the configuration on its own.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}
	if c.Width&1 != 0 {
		return fmt.Errorf("%w (width %d)", ErrOddWidth, c.Width)
	}
	switch c.Mode {
	case ModeStandard:
	case ModeLegacy:
		if c.Width < kernel.MinLegacyWidth {
			return fmt.Errorf("%w (width %d)", ErrLegacyWidth, c.Width)
		}
	default:
		return fmt.Errorf("%w %d", ErrInvalidMode, int(c.Mode))
	}
	return nil
}

// check validates c against an input frame.
func (c Config) check(src *Frame) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameTooSmall)
	}
	cols := c.Width / 2
	if src.Cols < cols || src.Rows < c.Height {
		return fmt.Errorf("%w: frame has %dx%d cells, need %dx%d",
			ErrFrameTooSmall, src.Cols, src.Rows, cols, c.Height)
	}
	if src.Stride < 4*src.Cols {
		return fmt.Errorf("%w: stride %d shorter than %d cells", ErrInvalidSize, src.Stride, src.Cols)
	}
	if need := (c.Height-1)*src.Stride + 4*cols; len(src.Pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrFrameTooSmall, len(src.Pix), need)
	}
	return nil
}
