// Package metrics exports footfall counts and engine statistics to
// Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
)

// Metrics holds the Prometheus collectors updated after each processed frame
type Metrics struct {
	registry *prometheus.Registry

	entries     prometheus.Gauge
	exits       prometheus.Gauge
	occupancy   prometheus.Gauge
	liveTracks  prometheus.Gauge
	frames      prometheus.Counter
	dropped     prometheus.Counter
	crossings   *prometheus.CounterVec
	procTime    prometheus.Histogram
	procTimeNow prometheus.Gauge
}

// New creates the collectors and registers them on a new registry.  When
// procTimeBuckets is nil the Prometheus default buckets are used
func New(procTimeBuckets []float64) *Metrics {

	if procTimeBuckets == nil {
		procTimeBuckets = prometheus.DefBuckets
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "footfall_entries",
			Help: "Number of people counted entering.",
		}),
		exits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "footfall_exits",
			Help: "Number of people counted exiting.",
		}),
		occupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "footfall_occupancy",
			Help: "Entries minus exits.",
		}),
		liveTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "footfall_live_tracks",
			Help: "Number of tracks currently live.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "footfall_frames_processed_total",
			Help: "Number of frames processed.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "footfall_dropped_detections_total",
			Help: "Number of malformed detections discarded.",
		}),
		crossings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footfall_crossings_total",
			Help: "Number of line crossings by kind.",
		}, []string{"kind"}),
		procTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "footfall_processing_time_ms_histogram",
			Help:    "Histogram of frame processing times.",
			Buckets: procTimeBuckets,
		}),
		procTimeNow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "footfall_processing_time_ms",
			Help: "Gauge of the last frame processing time.",
		}),
	}

	m.registry.MustRegister(
		m.entries,
		m.exits,
		m.occupancy,
		m.liveTracks,
		m.frames,
		m.dropped,
		m.crossings,
		m.procTime,
		m.procTimeNow,
	)

	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records the outcome of a processed frame and how long it took
func (m *Metrics) Observe(res footfall.FrameResult, liveTracks int, took time.Duration) {

	m.frames.Inc()
	m.dropped.Add(float64(res.Dropped))

	for _, ev := range res.Events {
		m.crossings.WithLabelValues(ev.Kind.String()).Inc()
	}

	m.SetCounts(res.Counts)
	m.liveTracks.Set(float64(liveTracks))

	ms := float64(took) / float64(time.Millisecond)
	m.procTime.Observe(ms)
	m.procTimeNow.Set(ms)
}

// SetCounts sets the count gauges, used after a count reset
func (m *Metrics) SetCounts(s counter.Snapshot) {
	m.entries.Set(float64(s.Entries))
	m.exits.Set(float64(s.Exits))
	m.occupancy.Set(float64(s.Occupancy))
}

// ParseBuckets parses a comma separated string of bucket values.  An empty
// string returns nil so the default buckets are used
func ParseBuckets(s string) ([]float64, error) {

	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var buckets []float64

	for _, p := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)

		if err != nil {
			return nil, fmt.Errorf("error parsing bucket value '%s': %w", p, err)
		}

		if n := len(buckets); n > 0 && f <= buckets[n-1] {
			return nil, fmt.Errorf("bucket value %v is not increasing", f)
		}

		buckets = append(buckets, f)
	}

	return buckets, nil
}
