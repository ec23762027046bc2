// Package metrics exposes Prometheus instrumentation for the ticket
// lifecycle, the directory feed and HTTP traffic.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
)

const namespace = "chamados"

// Recorder implements ports.MetricsRecorder on a dedicated registry.
type Recorder struct {
	registry *prometheus.Registry

	ticketsCreated   *prometheus.CounterVec
	ticketsClosed    *prometheus.CounterVec
	resolution       prometheus.Histogram
	ticketsReset     prometheus.Counter
	directoryReloads *prometheus.CounterVec
	directoryEntries prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder registers every collector on a fresh registry together with
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ticketsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "created_total",
			Help:      "Tickets opened, labeled by reason",
		}, []string{"reason"}),
		ticketsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "closed_total",
			Help:      "Tickets closed, labeled by reason",
		}, []string{"reason"}),
		resolution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "resolution_seconds",
			Help:      "Elapsed time between opening and closing a ticket",
			Buckets:   []float64{300, 900, 1800, 3600, 7200, 14400, 28800, 86400, 259200},
		}),
		ticketsReset: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "reset_deleted_total",
			Help:      "Tickets removed by administrative resets",
		}),
		directoryReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "reloads_total",
			Help:      "Directory feed loads, labeled by result",
		}, []string{"status"}),
		directoryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "entries",
			Help:      "Rows in the current directory snapshot",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, labeled by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// knownReasons bounds the reason label. Free-text reasons typed under
// ReasonOther are counted as ReasonOther.
var knownReasons = func() map[string]bool {
	set := make(map[string]bool)
	for _, reason := range domain.PredefinedReasons() {
		set[reason] = true
	}
	return set
}()

func reasonLabel(reason string) string {
	if knownReasons[reason] {
		return reason
	}
	return domain.ReasonOther
}

func (r *Recorder) TicketCreated(reason string) {
	if r == nil {
		return
	}
	r.ticketsCreated.WithLabelValues(reasonLabel(reason)).Inc()
}

func (r *Recorder) TicketClosed(reason string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ticketsClosed.WithLabelValues(reasonLabel(reason)).Inc()
	r.resolution.Observe(elapsed.Seconds())
}

func (r *Recorder) TicketsReset(count int64) {
	if r == nil {
		return
	}
	r.ticketsReset.Add(float64(count))
}

func (r *Recorder) DirectoryReloaded(success bool, entries int) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	r.directoryReloads.WithLabelValues(status).Inc()
	r.directoryEntries.Set(float64(entries))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(sw.status)).Inc()
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack supports the websocket upgrade behind this middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
