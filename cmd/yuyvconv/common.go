package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/deepteams/yuyv"
	"github.com/deepteams/yuyv/camera"
)

// frameFlags are the frame geometry and conversion flags shared by every
// command that converts frames.
type frameFlags struct {
	width    *int
	height   *int
	legacy   *bool
	workers  *int
	strategy *string
	batch    *int
	verbose  *bool
}

func addFrameFlags(fs *flag.FlagSet) *frameFlags {
	return &frameFlags{
		width:    fs.Int("w", 640, "frame width in pixels (even)"),
		height:   fs.Int("h", 480, "frame height in pixels"),
		legacy:   fs.Bool("legacy", false, "reproduce the legacy RenderScript converter's edge handling"),
		workers:  fs.Int("workers", 0, "conversion workers (0 = GOMAXPROCS)"),
		strategy: fs.String("strategy", "rows", "work split: rows, atomic, batched or serial"),
		batch:    fs.Int("batch", 16, "rows claimed at a time with -strategy batched"),
		verbose:  fs.Bool("v", false, "debug logging"),
	}
}

// config returns the pass configuration selected by the flags.
func (f *frameFlags) config() (yuyv.Config, error) {
	cfg := yuyv.Config{Width: *f.width, Height: *f.height}
	if *f.legacy {
		cfg.Mode = yuyv.ModeLegacy
	}
	return cfg, cfg.Validate()
}

// converter starts a converter with the selected worker options.
func (f *frameFlags) converter() (*yuyv.Converter, error) {
	s, err := yuyv.ParseStrategy(*f.strategy)
	if err != nil {
		return nil, err
	}
	return yuyv.NewConverter(&yuyv.Options{
		Workers:   *f.workers,
		Strategy:  s,
		BatchRows: *f.batch,
	})
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned.
// controlSetting is one -ctrl name=value flag.
type controlSetting struct {
	name  string
	value int32
}

// controlFlags collects repeated -ctrl flags in order.
type controlFlags []controlSetting

func (c *controlFlags) String() string {
	parts := make([]string, len(*c))
	for i, s := range *c {
		parts[i] = fmt.Sprintf("%s=%d", s.name, s.value)
	}
	return strings.Join(parts, ",")
}

func (c *controlFlags) Set(s string) error {
	name, value, err := camera.ParseControl(s)
	if err != nil {
		return err
	}
	*c = append(*c, controlSetting{name, value})
	return nil
}

func addControlFlags(fs *flag.FlagSet) *controlFlags {
	c := new(controlFlags)
	fs.Var(c, "ctrl", "set a camera control as name=value, e.g. gain=40 or white_balance_temperature=4600 (repeatable)")
	return c
}

func (c controlFlags) apply(cam *camera.Camera) error {
	for _, s := range c {
		if err := cam.SetControl(s.name, s.value); err != nil {
			return err
		}
		log.Debug().Str("control", s.name).Int32("value", s.value).Msg("set camera control")
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// parseSize parses "WxH". Either side may be 0 to keep the aspect ratio.
func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w < 0 || h < 0 || w+h == 0 {
		return 0, 0, fmt.Errorf("size %q: out of range", s)
	}
	return w, h, nil
}

// scale resizes img to w x h with bilinear filtering. Zero sizes return img.
func scale(img image.Image, w, h int) image.Image {
	if w == 0 && h == 0 {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

// detectOutputFormat returns the image format from the flag or extension.
func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		return strings.ToLower(fmtFlag)
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".jpg", ".jpeg":
			return "jpeg"
		case ".bmp":
			return "bmp"
		case ".tif", ".tiff":
			return "tiff"
		}
	}
	return "png"
}

// formatExt returns the file extension for an output format.
func formatExt(format string) string {
	switch format {
	case "jpeg", "jpg":
		return ".jpg"
	case "bmp":
		return ".bmp"
	case "tiff", "tif":
		return ".tiff"
	case "raw", "yuv":
		return ".yuv"
	default:
		return ".png"
	}
}

func checkFormat(format string) error {
	switch format {
	case "png", "jpeg", "jpg", "bmp", "tiff", "tif":
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff", "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// writeFile creates path and calls write on it, removing the file if
// anything fails.
func writeFile(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
