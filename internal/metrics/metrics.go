// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import metrics
	ImportedGamesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlboard_import_games_total",
		Help: "The total number of games inserted from logfiles",
	})
	ImportSkippedLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlboard_import_skipped_lines_total",
		Help: "The total number of logfile lines skipped as non-vanilla or blacklisted",
	})
	ImportFailedLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlboard_import_failed_lines_total",
		Help: "The total number of logfile lines that could not be parsed",
	})

	// Fetch metrics
	FetchFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawlboard_fetch_files_total",
		Help: "The total number of logfile downloads by outcome",
	}, []string{"status"})

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawlboard_http_requests_total",
		Help: "The total number of HTTP requests by route and status code",
	}, []string{"route", "code"})
	HTTPRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawlboard_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
