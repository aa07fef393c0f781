package yuyv

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzConvert checks that any accepted configuration converts without
// panicking, that every pixel is opaque and that the pass agrees with At.
func FuzzConvert(f *testing.F) {
	f.Add(bytes.Repeat([]byte{235, 128, 235, 128}, 8), uint8(3), false)
	f.Add(gradientFrame().Pix, uint8(7), true)
	f.Add(gradientFrame().Pix, uint8(7), false)
	f.Add([]byte{0, 0, 0, 0}, uint8(0), false)
	f.Add(make([]byte, 24), uint8(2), true)

	f.Fuzz(func(t *testing.T, data []byte, cols uint8, legacy bool) {
		width := 2 * (int(cols%32) + 1)
		height := len(data) / (2 * width)
		if height == 0 {
			return
		}
		if height > 64 {
			height = 64
		}
		src, err := FrameFromBytes(data, width, height)
		if err != nil {
			t.Fatalf("FrameFromBytes(%d bytes, %d, %d): %v", len(data), width, height, err)
		}
		cfg := ConfigFor(src)
		if legacy {
			cfg.Mode = ModeLegacy
		}

		img, err := ConvertImage(src, cfg)
		if legacy && width < 8 {
			if !errors.Is(err, ErrLegacyWidth) {
				t.Fatalf("legacy width %d: error = %v", width, err)
			}
			return
		}
		if err != nil {
			t.Fatal(err)
		}
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 255 {
				t.Fatalf("alpha at byte %d = %d", i, img.Pix[i])
			}
		}
		for _, x := range []int{0, 1, width / 2, width - 2, width - 1} {
			y := height - 1
			if got, want := At(src, cfg, x, y), img.RGBAAt(x, y); got != want {
				t.Fatalf("At(%d,%d) = %v, pass gave %v", x, y, got, want)
			}
		}
	})
}
