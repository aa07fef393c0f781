package yuyv

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/deepteams/yuyv/internal/kernel"
	"github.com/deepteams/yuyv/internal/workerpool"
)

// Strategy selects how a pass is split across workers. Every strategy
// produces identical output.
type Strategy int

const (
	// StrategyRows gives each worker one contiguous band of rows.
	StrategyRows Strategy = iota
	// StrategyAtomic lets workers claim rows one at a time.
	StrategyAtomic
	// StrategyBatched lets workers claim BatchRows rows at a time.
	StrategyBatched
	// StrategySerial converts on the calling goroutine.
	StrategySerial
)

var strategyNames = [...]string{"rows", "atomic", "batched", "serial"}

// String returns the strategy name.
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return "unknown"
	}
	return strategyNames[s]
}

// ParseStrategy parses a strategy name as printed by String.
func ParseStrategy(s string) (Strategy, error) {
	for i, name := range strategyNames {
		if s == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("yuyv: unknown strategy %q", s)
}

// Options configures a Converter.
type Options struct {
	// Workers is the number of pool goroutines. <= 0 selects GOMAXPROCS.
	Workers int
	// Strategy selects the work split.
	Strategy Strategy
	// BatchRows is the claim size for StrategyBatched (default 16).
	BatchRows int
}

// DefaultOptions returns row-band splitting on GOMAXPROCS workers.
func DefaultOptions() *Options {
	return &Options{
		Strategy:  StrategyRows,
		BatchRows: 16,
	}
}

// Converter runs conversion passes on a persistent worker pool. It is safe
// for concurrent use; concurrent passes share the pool.
type Converter struct {
	opts Options
	pool *workerpool.Pool
}

// NewConverter starts a converter. nil opts selects DefaultOptions.
func NewConverter(opts *Options) (*Converter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Strategy < StrategyRows || o.Strategy > StrategySerial {
		return nil, fmt.Errorf("yuyv: invalid strategy %d", int(o.Strategy))
	}
	if o.BatchRows <= 0 {
		o.BatchRows = 16
	}
	c := &Converter{opts: o}
	if o.Strategy != StrategySerial {
		c.pool = workerpool.New(o.Workers)
	}
	return c, nil
}

// Workers returns the pool size, 1 for a serial converter.
func (c *Converter) Workers() int {
	if c.pool == nil {
		return 1
	}
	return c.pool.Workers()
}

// Close stops the worker pool. A closed converter keeps working on the
// calling goroutine. Close is idempotent and may be called while passes
// are running.
func (c *Converter) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// Convert writes the RGBA conversion of src into dst. dst must have exactly
// cfg.Width x cfg.Height bounds; src must hold at least cfg.Width/2 cells in
// each of cfg.Height rows. On error nothing is written.
func (c *Converter) Convert(dst *image.RGBA, src *Frame, cfg Config) error {
	if err := cfg.check(src); err != nil {
		return err
	}
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrDestSize)
	}
	if dx, dy := dst.Rect.Dx(), dst.Rect.Dy(); dx != cfg.Width || dy != cfg.Height {
		return fmt.Errorf("%w: have %dx%d, want %dx%d", ErrDestSize, dx, dy, cfg.Width, cfg.Height)
	}
	c.pass(dst, src, cfg)
	return nil
}

// ConvertImage allocates a cfg.Width x cfg.Height image and converts src
// into it.
func (c *Converter) ConvertImage(src *Frame, cfg Config) (*image.RGBA, error) {
	if err := cfg.check(src); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	c.pass(dst, src, cfg)
	return dst, nil
}

func (c *Converter) pass(dst *image.RGBA, src *Frame, cfg Config) {
	mode := kernel.Mode(cfg.Mode)
	width := cfg.Width
	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
			kernel.ConvertRow(dst.Pix[off:off+4*width], src.Pix[y*src.Stride:], width, mode)
		}
	}

	if c.pool == nil {
		rows(0, cfg.Height)
		return
	}
	switch c.opts.Strategy {
	case StrategyAtomic:
		c.pool.ParallelForAtomic(cfg.Height, func(y int) { rows(y, y+1) })
	case StrategyBatched:
		c.pool.ParallelForAtomicBatched(cfg.Height, c.opts.BatchRows, rows)
	default:
		c.pool.ParallelFor(cfg.Height, rows)
	}
}

var (
	sharedOnce sync.Once
	shared     *Converter
)

func sharedConverter() *Converter {
	sharedOnce.Do(func() {
		shared, _ = NewConverter(nil)
	})
	return shared
}

// Convert converts src into dst on a shared converter.
func Convert(dst *image.RGBA, src *Frame, cfg Config) error {
	return sharedConverter().Convert(dst, src, cfg)
}

// ConvertImage converts src into a new image on a shared converter.
func ConvertImage(src *Frame, cfg Config) (*image.RGBA, error) {
	return sharedConverter().ConvertImage(src, cfg)
}

// At returns output pixel (x, y) of the conversion of src. It panics if cfg
// does not describe src or (x, y) lies outside cfg.Width x cfg.Height.
func At(src *Frame, cfg Config, x, y int) color.RGBA {
	if err := cfg.check(src); err != nil {
		panic(err)
	}
	if x < 0 || x >= cfg.Width || y < 0 || y >= cfg.Height {
		panic(fmt.Sprintf("yuyv: pixel (%d, %d) outside %dx%d", x, y, cfg.Width, cfg.Height))
	}
	p := kernel.Pixel(src.Pix, src.Stride, x, y, cfg.Width, kernel.Mode(cfg.Mode))
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}
