package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_events_ingested_total",
		Help: "Total number of events accepted into the in-memory store.",
	})

	OrchestrationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_orchestrations_started_total",
		Help: "Total number of orchestration runs started.",
	})

	OrchestrationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_orchestrations_completed_total",
		Help: "Total number of orchestration runs reaching processing_complete.",
	})

	OrchestrationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_orchestrations_rejected_total",
		Help: "Total number of batches rejected by the size/emptiness checks.",
	})

	SubBatchesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_sub_batches_dispatched_total",
		Help: "Total number of sub-batches dispatched to the analyzer.",
	})

	SubBatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpulse_sub_batch_failures_total",
		Help: "Total number of failed sub-batch dispatches, labelled by failure class.",
	}, []string{"class"})

	InsightsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_insights_merged_total",
		Help: "Total number of insights merged across all orchestration runs.",
	})

	OrchestrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retailpulse_orchestration_duration_ms",
		Help:    "End-to-end orchestration run latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	SearchQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_search_queries_total",
		Help: "Total number of semantic search queries served.",
	})

	DocumentsIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retailpulse_documents_indexed",
		Help: "Number of documents in the current retrieval index.",
	})

	KPIAggregations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_kpi_aggregations_total",
		Help: "Total number of KPI aggregation runs.",
	})

	DispatchQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retailpulse_dispatch_queue_utilization_ratio",
		Help: "Current orchestration dispatch queue utilization (0–1).",
	})
)
