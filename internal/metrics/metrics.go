// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine
var (
	IntentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_intents_submitted_total",
		Help: "Intents accepted into the pending queue",
	}, []string{"kind"})

	IntentsSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfid_intents_superseded_total",
		Help: "Pending intents replaced by a newer submission for the same card",
	})

	TriggersPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_triggers_published_total",
		Help: "Action trigger publishes, by kind and reason (submit, status)",
	}, []string{"kind", "reason"})

	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_commits_total",
		Help: "Intents committed to the ledger",
	}, []string{"kind"})

	CommitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfid_commit_failures_total",
		Help: "Ledger commits that failed and left the intent queued",
	})

	DeviceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfid_device_errors_total",
		Help: "Pending intents discarded because the reader reported an error",
	})

	PassiveSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_passive_syncs_total",
		Help: "Balance events with no pending intent, by outcome",
	}, []string{"outcome"})

	PendingIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rfid_pending_intents",
		Help: "Cards with an intent waiting for the reader",
	})

	CommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfid_commit_duration_seconds",
		Help:    "Ledger commit latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// Bus and broadcast
var (
	BusMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_bus_messages_total",
		Help: "Inbound bus messages, by topic role and whether they parsed",
	}, []string{"role", "parsed"})

	BusPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfid_bus_publish_errors_total",
		Help: "Trigger publishes the broker did not accept",
	})

	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfid_broadcast_dropped_total",
		Help: "Broadcast messages dropped for slow observers",
	})

	Observers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rfid_broadcast_observers",
		Help: "Connected WebSocket observers",
	})
)

// HTTP
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfid_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})
)
