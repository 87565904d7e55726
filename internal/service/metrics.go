package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartq_completion_calls_total",
			Help: "Completion provider calls by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chartq_completion_duration_seconds",
			Help:    "Completion provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"step"},
	)
)
