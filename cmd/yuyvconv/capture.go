package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deepteams/yuyv"
	"github.com/deepteams/yuyv/camera"
)

func runCapture(args []string) error {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	ff := addFrameFlags(fs)
	device := fs.String("dev", camera.DefaultDevice, "V4L2 capture device")
	count := fs.Int("n", 1, "frames to capture")
	skip := fs.Int("skip", 0, "frames to discard first while exposure settles")
	dir := fs.String("o", ".", "output directory")
	fmtFlag := fs.String("fmt", "png", "output format: png, jpeg, bmp, tiff, or raw for the unconverted YUYV frame")
	quality := fs.Int("q", 90, "JPEG quality 1-100")
	ctrls := addControlFlags(fs)
	listCtrls := fs.Bool("list-ctrl", false, "print the device's controls and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*ff.verbose)
	if *count < 1 {
		return fmt.Errorf("capture: -n must be at least 1")
	}
	raw := *fmtFlag == "raw" || *fmtFlag == "yuv"
	if !raw {
		if err := checkFormat(*fmtFlag); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cam, err := camera.Open(*device, *ff.width, *ff.height)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer cam.Close()

	if *listCtrls {
		for _, c := range cam.Controls() {
			fmt.Printf("%-32s [%d, %d]\n", c.Name, c.Min, c.Max)
		}
		return nil
	}
	if err := ctrls.apply(cam); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	w, h := cam.Size()
	if w != *ff.width || h != *ff.height {
		log.Warn().Int("w", w).Int("h", h).Msg("device picked a different frame size")
	}
	cfg, err := ff.config()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	cfg.Width, cfg.Height = w, h
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	conv, err := ff.converter()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer conv.Close()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	for i := 0; i < *skip; i++ {
		f, err := cam.Next(ctx)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		f.Release()
	}

	for i := 0; i < *count; i++ {
		f, err := cam.Next(ctx)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		path := filepath.Join(*dir, fmt.Sprintf("frame_%04d%s", i, formatExt(*fmtFlag)))
		start := time.Now()
		err = saveCaptured(path, f, conv, cfg, *fmtFlag, *quality)
		f.Release()
		if err != nil {
			return fmt.Errorf("capture: %s: %w", path, err)
		}
		log.Info().Str("out", path).Dur("dur", time.Since(start)).Msg("captured")
	}
	return nil
}

func saveCaptured(path string, f *yuyv.Frame, conv *yuyv.Converter, cfg yuyv.Config, format string, quality int) error {
	if format == "raw" || format == "yuv" {
		return writeFile(path, func(w io.Writer) error {
			return yuyv.WriteFrame(w, f)
		})
	}
	img, err := conv.ConvertImage(f, cfg)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return encodeImage(w, img, format, quality)
	})
}
