package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_jobs_enqueued_total",
			Help: "Generation jobs handed to the bus by outcome (accepted, duplicate, error)",
		},
		[]string{"bus", "outcome"},
	)
	jobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_jobs_processed_total",
			Help: "Generation job deliveries by outcome (ok, retry, failed)",
		},
		[]string{"bus", "outcome"},
	)
	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scaffold_job_duration_seconds",
			Help:    "Generation job handler duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"bus"},
	)
)
