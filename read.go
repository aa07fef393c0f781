package yuyv

import (
	"fmt"
	"io"
)

// ReadFrame reads one tightly packed width x height YUYV frame from r into a
// pooled buffer. Call Release on the frame when done with it.
//
// The error wraps io.EOF if r was already exhausted and
// io.ErrUnexpectedEOF if it ended mid-frame.
func ReadFrame(r io.Reader, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width&1 != 0 {
		return nil, fmt.Errorf("%w (width %d)", ErrOddWidth, width)
	}
	f := newPooledFrame(width, height)
	if _, err := io.ReadFull(r, f.Pix); err != nil {
		f.Release()
		return nil, fmt.Errorf("yuyv: reading %dx%d frame: %w", width, height, err)
	}
	return f, nil
}

// WriteFrame writes the cells of f to w as a tightly packed YUYV frame,
// dropping any row padding.
func WriteFrame(w io.Writer, f *Frame) error {
	if f.Stride == 4*f.Cols {
		_, err := w.Write(f.Pix[:f.Rows*f.Stride])
		return err
	}
	for y := 0; y < f.Rows; y++ {
		if _, err := w.Write(f.Row(y)); err != nil {
			return err
		}
	}
	return nil
}
