package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion outcomes used as the result label.
const (
	resultOK             = "ok"
	resultNotModified    = "not_modified"
	resultParseError     = "parse_error"
	resultInvalidOptions = "invalid_options"
	resultTooLarge       = "too_large"
	resultReadError      = "read_error"
	resultEncodeError    = "encode_error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpx2geojson",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpx2geojson",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpx2geojson",
		Subsystem: "convert",
		Name:      "requests_total",
		Help:      "Conversion requests by outcome",
	}, []string{"result"})

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gpx2geojson",
		Subsystem: "convert",
		Name:      "duration_seconds",
		Help:      "Time spent reading, parsing and converting a GPX upload",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	featuresEmitted = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gpx2geojson",
		Subsystem: "convert",
		Name:      "features",
		Help:      "Number of features per successful conversion",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)

func observeConversion(result string, start time.Time, features int) {
	conversionsTotal.WithLabelValues(result).Inc()
	if result != resultOK {
		return
	}

	conversionDuration.Observe(time.Since(start).Seconds())
	featuresEmitted.Observe(float64(features))
}
