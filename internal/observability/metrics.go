// README: Prometheus counters for the dispatch core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "glide", Name: "rides_created_total", Help: "Rides created, by ride type"},
		[]string{"type"},
	)
	AssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "glide", Name: "assignments_total", Help: "Successful driver assignments"})
	NoDriverTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "glide", Name: "no_driver_total", Help: "Assignment attempts that found no eligible driver"})
	SweepRunsTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "glide", Name: "sweep_runs_total", Help: "Scheduled-ride sweeper runs"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "glide", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
)
