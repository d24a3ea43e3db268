package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_http_requests_total",
		Help: "HTTP requests by method, route pattern, and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripsplit_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// The ledger silently excludes bad references instead of failing the
	// summary; these counters make the exclusions visible.
	ledgerIgnoredPayers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_ledger_ignored_payers_total",
		Help: "Receipts whose payer named nobody known, summed over summary computations.",
	})
	ledgerIgnoredParticipants = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_ledger_ignored_participants_total",
		Help: "Item participant entries naming nobody known, summed over summary computations.",
	})
	ledgerUnassignedItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_ledger_unassigned_items_total",
		Help: "Items with no participants, excluded from consumption, summed over summary computations.",
	})

	qrDecodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_qr_decode_requests_total",
		Help: "QR decode proxy requests by outcome.",
	}, []string{"outcome"})
)
