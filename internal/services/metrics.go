package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bulkEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grading_bulk_entries_total",
		Help: "Bulk grading entries by outcome (applied, skipped, rejected).",
	}, []string{"outcome"})

	bulkBatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grading_bulk_batch_seconds",
		Help:    "Wall time spent applying one bulk grading batch.",
		Buckets: prometheus.DefBuckets,
	})

	compositesRecomputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grading_composites_recomputed_total",
		Help: "Composite grade recomputations triggered by writes.",
	})
)
