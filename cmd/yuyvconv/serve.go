package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/deepteams/yuyv"
	"github.com/deepteams/yuyv/camera"
	"github.com/deepteams/yuyv/internal/kernel"
	"github.com/deepteams/yuyv/internal/metrics"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	ff := addFrameFlags(fs)
	addr := fs.String("addr", ":8080", "HTTP listen address")
	device := fs.String("dev", camera.DefaultDevice, "V4L2 capture device")
	file := fs.String("file", "", "replay a raw YUYV file in a loop instead of using a camera")
	fps := fs.Int("fps", 15, "preview frames per second")
	quality := fs.Int("q", 75, "JPEG quality 1-100")
	ctrls := addControlFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*ff.verbose)
	if *fps < 1 {
		return fmt.Errorf("serve: -fps must be at least 1")
	}

	cfg, err := ff.config()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	var src frameSource
	source := "file"
	if *file != "" {
		fd, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		src = &fileSource{r: fd, c: fd, width: cfg.Width, height: cfg.Height}
	} else {
		cam, err := camera.Open(*device, cfg.Width, cfg.Height)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		cfg.Width, cfg.Height = cam.Size()
		if err := cfg.Validate(); err != nil {
			cam.Close()
			return fmt.Errorf("serve: %w", err)
		}
		if err := ctrls.apply(cam); err != nil {
			cam.Close()
			return fmt.Errorf("serve: %w", err)
		}
		src, source = cam, "camera"
	}
	defer src.Close()

	conv, err := ff.converter()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer conv.Close()

	ps := newPreviewServer(src, source, conv, cfg, metrics.New())
	ps.quality = *quality
	ps.interval = time.Second / time.Duration(*fps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           ps,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ps.run(ctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", *addr).Str("source", source).Int("w", cfg.Width).Int("h", cfg.Height).Msg("serving preview")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ps.closeClients()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info().Msg("preview stopped")
	return nil
}

// frameSource yields frames for the preview loop. Frames are released by
// the caller.
type frameSource interface {
	Next(ctx context.Context) (*yuyv.Frame, error)
	Close() error
}

// fileSource replays a raw YUYV file, rewinding at its end.
type fileSource struct {
	r      io.ReadSeeker
	c      io.Closer
	width  int
	height int
}

func (s *fileSource) Next(ctx context.Context) (*yuyv.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := yuyv.ReadFrame(s.r, s.width, s.height)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if _, serr := s.r.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		f, err = yuyv.ReadFrame(s.r, s.width, s.height)
	}
	return f, err
}

func (s *fileSource) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// previewServer converts frames at a fixed rate and fans the JPEG-encoded
// result out to WebSocket clients.
type previewServer struct {
	src      frameSource
	source   string
	conv     *yuyv.Converter
	cfg      yuyv.Config
	quality  int
	interval time.Duration
	metrics  *metrics.Registry
	upgrader websocket.Upgrader
	started  time.Time

	frames atomic.Int64

	mu      sync.Mutex
	clients map[uuid.UUID]chan []byte
	closed  bool
}

func newPreviewServer(src frameSource, source string, conv *yuyv.Converter, cfg yuyv.Config, reg *metrics.Registry) *previewServer {
	return &previewServer{
		src:      src,
		source:   source,
		conv:     conv,
		cfg:      cfg,
		quality:  75,
		interval: time.Second / 15,
		metrics:  reg,
		started:  time.Now(),
		clients:  make(map[uuid.UUID]chan []byte),
	}
}

func (s *previewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		s.handleStatus(w, r)
	case "/ws":
		s.handleWS(w, r)
	case "/metrics":
		s.metrics.Handler().ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

type previewStatus struct {
	App      string `json:"app"`
	Source   string `json:"source"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Mode     string `json:"mode"`
	RowImpl  string `json:"row_impl"`
	Workers  int    `json:"workers"`
	Clients  int    `json:"clients"`
	Frames   int64  `json:"frames"`
	UptimeMS int64  `json:"uptime_ms"`
}

func (s *previewServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	clients := len(s.clients)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(previewStatus{
		App:      "yuyvconv",
		Source:   s.source,
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		Mode:     s.cfg.Mode.String(),
		RowImpl:  kernel.Implementation(),
		Workers:  s.conv.Workers(),
		Clients:  clients,
		Frames:   s.frames.Load(),
		UptimeMS: time.Since(s.started).Milliseconds(),
	})
}

func (s *previewServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	id := uuid.New()
	logger := log.With().Str("client", id.String()).Logger()
	frames, ok := s.subscribe(id)
	if !ok {
		return
	}
	defer s.unsubscribe(id)
	logger.Info().Str("remote", r.RemoteAddr).Msg("preview client connected")

	// The client sends nothing; reading notices when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logger.Info().Msg("preview client disconnected")
			return
		case data, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				logger.Warn().Err(err).Msg("preview write failed")
				return
			}
		}
	}
}

func (s *previewServer) subscribe(id uuid.UUID) (<-chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	ch := make(chan []byte, 1)
	s.clients[id] = ch
	s.metrics.ClientConnected()
	return ch, true
}

func (s *previewServer) unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(ch)
		s.metrics.ClientDisconnected()
	}
}

// closeClients ends every client session and refuses new ones.
func (s *previewServer) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.clients {
		delete(s.clients, id)
		close(ch)
		s.metrics.ClientDisconnected()
	}
}

// broadcast hands data to every client whose previous frame has been sent.
// It returns the number of clients served.
func (s *previewServer) broadcast(data []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ch := range s.clients {
		select {
		case ch <- data:
			n++
		default:
			s.metrics.FrameDropped()
		}
	}
	return n
}

func (s *previewServer) hasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}

// run converts one frame per interval until ctx is done.
func (s *previewServer) run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	dst := image.NewRGBA(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := s.step(ctx, dst, &buf); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (s *previewServer) step(ctx context.Context, dst *image.RGBA, buf *bytes.Buffer) error {
	f, err := s.src.Next(ctx)
	if err != nil {
		s.metrics.FrameError(s.source)
		return err
	}
	start := time.Now()
	err = s.conv.Convert(dst, f, s.cfg)
	f.Release()
	if err != nil {
		s.metrics.FrameError(s.source)
		return err
	}
	s.metrics.ObservePass(s.source, s.cfg.Width, s.cfg.Height, time.Since(start))
	s.frames.Add(1)

	if !s.hasClients() {
		return nil
	}
	buf.Reset()
	if err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: s.quality}); err != nil {
		return err
	}
	n := s.broadcast(bytes.Clone(buf.Bytes()))
	log.Debug().Int("clients", n).Int("bytes", buf.Len()).Msg("preview frame sent")
	return nil
}
