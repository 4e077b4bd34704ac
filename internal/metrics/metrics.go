package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LocationChecksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "areapicker_location_checks_total",
		Help: "Total number of location checks",
	})
	MatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "areapicker_matches_total",
		Help: "Location checks that matched a service area, by area",
	}, []string{"area"})
	NoMatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "areapicker_no_match_total",
		Help: "Location checks outside of every service area",
	})
	SelectionsQueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "areapicker_selections_queued_total",
		Help: "Selections queued for delivery to the host platform",
	})
	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "areapicker_deliveries_total",
		Help: "Host platform delivery attempts by status",
	}, []string{"status"})
	DeliveryDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "areapicker_delivery_duration_ms",
		Help:    "Host platform delivery duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "areapicker_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"path", "status"})
)

func init() {
	prometheus.MustRegister(LocationChecksTotal)
	prometheus.MustRegister(MatchesTotal)
	prometheus.MustRegister(NoMatchTotal)
	prometheus.MustRegister(SelectionsQueuedTotal)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDurationMs)
	prometheus.MustRegister(HTTPRequestDurationMs)
}

func newQueueDepth(fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "areapicker_queue_depth",
		Help: "Selections waiting for delivery; -1 when the queue is unreachable",
	}, fn)
}

// RegisterQueueDepth exposes the length of the selection queue, read on every scrape.
func RegisterQueueDepth(fn func() float64) error {
	return prometheus.Register(newQueueDepth(fn))
}

// Handler exposes the registered collectors for scraping at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
