// Package metrics exposes Prometheus collectors for the sync engine.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	comicRunsTotal             *prometheus.CounterVec
	newsItemsTotal             *prometheus.CounterVec
	scrapeFailuresTotal        *prometheus.CounterVec
	scrapeDurationSeconds      *prometheus.HistogramVec
	pendingRefreshes           prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the Prometheus collectors. It is safe to call multiple
// times; recording functions are no-ops until it has been called.
func Init() {
	once.Do(func() {
		comicRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comicsync_comic_runs_total",
				Help: "Total comic updater iterations, labeled by result.",
			},
			[]string{"result"},
		)

		newsItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comicsync_news_items_total",
				Help: "Total news items processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scrapeFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comicsync_scrape_failures_total",
				Help: "Total scrape failures, labeled by page kind.",
			},
			[]string{"page"},
		)

		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "comicsync_scrape_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by page kind.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"page"},
		)

		pendingRefreshes = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "comicsync_pending_refreshes",
				Help: "Comic ids currently awaiting a news refresh.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comicsync_http_requests_total",
				Help: "Total HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "comicsync_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// RecordComicRun counts one comic updater iteration by result.
func RecordComicRun(result string) {
	if comicRunsTotal == nil {
		return
	}
	comicRunsTotal.WithLabelValues(result).Inc()
}

// RecordNewsItem counts one processed news item by outcome.
func RecordNewsItem(outcome string) {
	if newsItemsTotal == nil {
		return
	}
	newsItemsTotal.WithLabelValues(outcome).Inc()
}

// RecordScrapeFailure counts one failed fetch or parse by page kind.
func RecordScrapeFailure(page string) {
	if scrapeFailuresTotal == nil {
		return
	}
	scrapeFailuresTotal.WithLabelValues(page).Inc()
}

// ObserveScrape records a successful page fetch duration.
func ObserveScrape(page string, d time.Duration) {
	if scrapeDurationSeconds == nil {
		return
	}
	scrapeDurationSeconds.WithLabelValues(page).Observe(d.Seconds())
}

// SetPendingRefreshes updates the pending refresh gauge.
func SetPendingRefreshes(n int) {
	if pendingRefreshes == nil {
		return
	}
	pendingRefreshes.Set(float64(n))
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
