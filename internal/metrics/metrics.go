package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Correlation pipeline metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deathwatch_runs_total",
			Help: "Total number of correlation runs",
		},
		[]string{"status"},
	)

	MatchesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deathwatch_enemy_kill_matches_total",
			Help: "Total number of enemy kill matches emitted",
		},
	)

	// Scraper metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deathwatch_fetches_total",
			Help: "Total number of character page fetches",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deathwatch_fetch_duration_seconds",
			Help:    "Duration of character page fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PageCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deathwatch_page_cache_hits_total",
			Help: "Total number of character page cache hits",
		},
	)

	// Report metrics
	ReportsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deathwatch_reports_published_total",
			Help: "Total number of reports published",
		},
		[]string{"report"},
	)

	ReportDeleteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deathwatch_report_delete_errors_total",
			Help: "Total number of failed deletions of prior report messages",
		},
	)
)
