package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalscout_messages_scanned_total",
			Help: "Messages pulled from sources",
		},
		[]string{"channel"},
	)

	SignalsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalscout_signals_extracted_total",
			Help: "Messages that yielded a signal candidate",
		},
		[]string{"channel", "tier"},
	)

	SignalsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalscout_signals_resolved_total",
			Help: "Signals moved out of PENDING",
		},
		[]string{"channel", "outcome"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalscout_fetch_errors_total",
			Help: "Source fetch failures, timeouts included",
		},
		[]string{"channel"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signalscout_scan_duration_seconds",
			Help:    "Wall time of one full scan pass",
			Buckets: prometheus.DefBuckets,
		},
	)
)
