package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePass(t *testing.T) {
	r := New()
	r.ObservePass("file", 640, 480, 2*time.Millisecond)
	r.ObservePass("file", 640, 480, 3*time.Millisecond)
	r.ObservePass("camera", 320, 240, time.Millisecond)
	r.FrameError("camera")

	if got := testutil.ToFloat64(r.frames.WithLabelValues("file")); got != 2 {
		t.Errorf("file frames = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.frames.WithLabelValues("camera")); got != 1 {
		t.Errorf("camera frames = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.errors.WithLabelValues("camera")); got != 1 {
		t.Errorf("camera errors = %v, want 1", got)
	}
	if got, want := testutil.ToFloat64(r.pixels), float64(2*640*480+320*240); got != want {
		t.Errorf("pixels = %v, want %v", got, want)
	}
	if n := testutil.CollectAndCount(r.duration); n != 1 {
		t.Errorf("duration collectors = %d, want 1", n)
	}
}

func TestClients(t *testing.T) {
	r := New()
	r.ClientConnected()
	r.ClientConnected()
	r.ClientDisconnected()
	r.FrameDropped()
	if got := testutil.ToFloat64(r.clients); got != 1 {
		t.Errorf("clients = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.dropped); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObservePass("file", 4, 2, time.Microsecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		`yuyv_frames_converted_total{source="file"} 1`,
		"yuyv_pixels_converted_total 8",
		"yuyv_conversion_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition lacks %q", name)
		}
	}
}
