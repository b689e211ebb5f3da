package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_http_requests_total",
		Help: "HTTP requests served, by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_evaluations_total",
		Help: "Matrix evaluations, by whether the criteria weights were valid.",
	}, []string{"weights_valid"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tally_evaluation_duration_seconds",
		Help:    "Time to load and evaluate a matrix.",
		Buckets: prometheus.DefBuckets,
	})
)
