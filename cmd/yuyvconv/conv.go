package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/deepteams/yuyv"
)

func runConv(args []string) error {
	fs := flag.NewFlagSet("conv", flag.ContinueOnError)
	ff := addFrameFlags(fs)
	output := fs.String("o", "", `output file for one input, directory for several ("-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, jpeg, bmp, tiff (auto-detect from extension if omitted)")
	quality := fs.Int("q", 90, "JPEG quality 1-100")
	resizeFlag := fs.String("resize", "", "scale the output to WxH; 0 on one side keeps the aspect ratio")
	all := fs.Bool("all", false, "convert every frame of each input instead of only the first")
	jobs := fs.Int("j", runtime.GOMAXPROCS(0), "inputs converted concurrently")

	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*ff.verbose)
	if fs.NArg() < 1 {
		return fmt.Errorf("conv: missing input file\nUsage: yuyvconv conv [options] <in.yuv>...")
	}
	inputs := fs.Args()

	cfg, err := ff.config()
	if err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	job := &convJob{cfg: cfg, quality: *quality, all: *all}
	job.format = detectOutputFormat(*fmtFlag, *output)
	if err := checkFormat(job.format); err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	if *resizeFlag != "" {
		if job.resizeW, job.resizeH, err = parseSize(*resizeFlag); err != nil {
			return fmt.Errorf("conv: %w", err)
		}
	}
	if *output == "-" && (len(inputs) > 1 || *all) {
		return errors.New("conv: -o - takes a single frame of a single input")
	}

	job.conv, err = ff.converter()
	if err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	defer job.conv.Close()

	if len(inputs) == 1 {
		return job.run(inputs[0], *output)
	}

	dir := *output
	if dir == "" {
		dir = "."
	}
	outputs, err := outputPaths(inputs, dir, formatExt(job.format))
	if err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*jobs, 1))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return job.run(in, outputs[i])
		})
	}
	return g.Wait()
}

// convJob converts the frames of one raw input file. It is shared by the
// concurrent inputs of a conv run.
type convJob struct {
	cfg     yuyv.Config
	conv    *yuyv.Converter
	format  string
	quality int
	resizeW int
	resizeH int
	all     bool
}

func (j *convJob) run(inputPath, outputPath string) error {
	in, err := openInput(inputPath)
	if err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	defer in.Close()

	if outputPath == "" {
		outputPath = stem(inputPath) + formatExt(j.format)
	}

	start := time.Now()
	frames := 0
	for {
		f, err := yuyv.ReadFrame(in, j.cfg.Width, j.cfg.Height)
		if err != nil {
			if frames > 0 && errors.Is(err, io.EOF) {
				break
			}
			if frames > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
				log.Warn().Str("file", inputPath).Int("frames", frames).Msg("ignoring trailing partial frame")
				break
			}
			return fmt.Errorf("conv: %s: %w", inputPath, err)
		}

		t := time.Now()
		img, err := j.conv.ConvertImage(f, j.cfg)
		f.Release()
		if err != nil {
			return fmt.Errorf("conv: %s: %w", inputPath, err)
		}
		log.Debug().Str("file", inputPath).Int("frame", frames).Dur("dur", time.Since(t)).Msg("converted")

		path := outputPath
		if j.all {
			path = numbered(outputPath, frames)
		}
		if err := j.write(path, img); err != nil {
			return fmt.Errorf("conv: %s: %w", path, err)
		}
		frames++
		if !j.all {
			break
		}
	}

	log.Info().
		Str("file", inputPath).
		Str("out", outputPath).
		Int("frames", frames).
		Dur("dur", time.Since(start)).
		Msg("done")
	return nil
}

func (j *convJob) write(path string, img *image.RGBA) error {
	out := scale(img, j.resizeW, j.resizeH)
	if path == "-" {
		return encodeImage(os.Stdout, out, j.format, j.quality)
	}
	return writeFile(path, func(w io.Writer) error {
		return encodeImage(w, out, j.format, j.quality)
	})
}

// outputPaths maps each input to stem+ext inside dir. Inputs whose outputs
// would collide are rejected, as is stdin.
func outputPaths(inputs []string, dir, ext string) ([]string, error) {
	paths := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		if in == "-" {
			return nil, errors.New("stdin cannot be mixed with other inputs")
		}
		name := stem(in) + ext
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", prev, in, name)
		}
		seen[name] = in
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// stem returns the base name of path without its extension.
func stem(path string) string {
	if path == "-" {
		return "output"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// numbered inserts a zero-padded frame index before the extension.
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(path, ext), n, ext)
}
