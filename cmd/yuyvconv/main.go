// Command yuyvconv converts packed YUYV 4:2:2 camera frames to RGB images.
//
// Usage:
//
//	yuyvconv conv [options] <in.yuv>...   raw YUYV → PNG/JPEG/BMP/TIFF (use "-" for stdin)
//	yuyvconv capture [options]            grab frames from a V4L2 camera
//	yuyvconv serve [options]              live JPEG preview over WebSocket
//	yuyvconv info                         CPU features and row converter in use
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogging(false)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "conv":
		err = runConv(os.Args[2:])
	case "capture":
		err = runCapture(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "yuyvconv: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("cmd", os.Args[1]).Msg("yuyvconv failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  yuyvconv conv [options] <in.yuv>...   Convert raw YUYV frames to PNG, JPEG, BMP or TIFF
  yuyvconv capture [options]            Capture frames from a V4L2 camera
  yuyvconv serve [options]              Stream a live JPEG preview over WebSocket
  yuyvconv info                         Show CPU features and the active row converter

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "yuyvconv <command> -h" for command-specific options.
`)
}

// setupLogging installs a console logger on stderr.
func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}
