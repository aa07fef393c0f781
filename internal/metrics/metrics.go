// Package metrics holds the Prometheus collectors of the conversion
// pipeline. Collectors live on a Registry rather than the global default so
// that tests and several pipelines in one process stay independent.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yuyv"

// Registry groups the pipeline collectors.
type Registry struct {
	reg *prometheus.Registry

	frames   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration prometheus.Histogram
	pixels   prometheus.Counter
	clients  prometheus.Gauge
	dropped  prometheus.Counter
}

// New creates a registry with the pipeline collectors and the Go runtime
// and process collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_converted_total",
			Help:      "Frames converted to RGBA, by source.",
		}, []string{"source"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Frames that could not be read or converted, by source.",
		}, []string{"source"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_seconds",
			Help:      "Wall time of one conversion pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		pixels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixels_converted_total",
			Help:      "Output pixels produced.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_clients",
			Help:      "Connected preview clients.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_frames_dropped_total",
			Help:      "Preview frames skipped because a client was slow.",
		}),
	}
	r.reg.MustRegister(
		r.frames, r.errors, r.duration, r.pixels, r.clients, r.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObservePass records one successful conversion of width x height pixels.
func (r *Registry) ObservePass(source string, width, height int, d time.Duration) {
	r.frames.WithLabelValues(source).Inc()
	r.pixels.Add(float64(width * height))
	r.duration.Observe(d.Seconds())
}

// FrameError records a frame that failed to read or convert.
func (r *Registry) FrameError(source string) {
	r.errors.WithLabelValues(source).Inc()
}

// ClientConnected and ClientDisconnected track preview clients.
func (r *Registry) ClientConnected() { r.clients.Inc() }

func (r *Registry) ClientDisconnected() { r.clients.Dec() }

// FrameDropped records a preview frame skipped for a slow client.
func (r *Registry) FrameDropped() { r.dropped.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
