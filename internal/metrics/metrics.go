// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry at package init via
// promauto, so promhttp.Handler() picks them up without extra wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skillswap"

// HTTP traffic, recorded by middleware.Metrics. The route label is the chi
// route pattern ("/api/swaps/{id}"), never the raw path, to keep cardinality
// bounded.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Domain events, recorded by the services after a successful write.
var (
	UsersRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Accounts created, by sign-up method.",
	}, []string{"method"})

	SwapsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swaps_created_total",
		Help:      "Swap requests created.",
	})

	SwapStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swap_status_changes_total",
		Help:      "Swap request status updates, by new status.",
	}, []string{"status"})

	SwapsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swaps_deleted_total",
		Help:      "Swap requests deleted by their requester.",
	})
)

// Sign-up methods used as the UsersRegistered label.
const (
	MethodPassword = "password"
	MethodGitHub   = "github"
)
