// Package orchestrator fans an incoming event batch out into fixed-size
// sub-batches, dispatches them sequentially to the pattern analyzer
// collaborator, merges the returned insights, triggers KPI aggregation
// and keeps an audit ledger of every call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"retailpulse/internal/client"
	"retailpulse/internal/event"
	"retailpulse/internal/kpi"
	"retailpulse/internal/metrics"
	"retailpulse/internal/pattern"
)

const insightsPreviewLen = 3

// Analyzer is the pattern-analysis collaborator a sub-batch is
// dispatched to.
type Analyzer interface {
	Analyze(ctx context.Context, events []event.Event) ([]pattern.Insight, error)
}

// KPIFetcher is the KPI-aggregation collaborator consulted after a
// successful analysis phase.
type KPIFetcher interface {
	FetchKPIs(ctx context.Context) ([]kpi.StoreKPI, error)
}

// Settings are the tunables of a run. They are swapped atomically on
// config hot-reload.
type Settings struct {
	MaxBatchEvents  int
	SubBatchSize    int
	AnalyzerTimeout time.Duration
	KPITimeout      time.Duration
}

// Result is the terminal, fully populated outcome of one orchestration
// call; there is no "still processing" response.
type Result struct {
	BatchID          string          `json:"batch_id"`
	Status           string          `json:"status"`
	Message          string          `json:"message,omitempty"`
	InsightsCount    int             `json:"insights_count"`
	BatchesProcessed int             `json:"batches_processed"`
	BatchesFailed    int             `json:"batches_failed"`
	Errors           []SubBatchError `json:"errors,omitempty"`
}

// ErrQueueFull is returned when the dispatch queue has no room for
// another orchestration run.
var ErrQueueFull = errors.New("orchestration queue full")

// Orchestrator runs the batch pipeline. All runs are serialized through
// a single dispatch worker.
type Orchestrator struct {
	analyzer Analyzer
	kpis     KPIFetcher
	ledger   *Ledger
	settings atomic.Pointer[Settings]
	queue    *dispatchQueue
}

// New creates an Orchestrator and starts its dispatch worker. The
// worker stops when ctx is cancelled; queueDepth bounds how many runs
// may wait.
func New(ctx context.Context, analyzer Analyzer, kpis KPIFetcher, ledger *Ledger, s Settings, queueDepth int) *Orchestrator {
	o := &Orchestrator{
		analyzer: analyzer,
		kpis:     kpis,
		ledger:   ledger,
	}
	o.settings.Store(&s)
	o.queue = newDispatchQueue(ctx, queueDepth, func(ctx context.Context, j *job) {
		j.resultC <- o.process(ctx, j.events)
	})
	return o
}

// SwapSettings atomically replaces the run tunables (hot-reload).
func (o *Orchestrator) SwapSettings(s Settings) {
	o.settings.Store(&s)
}

// Ledger exposes the audit ledger.
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// QueueUtilization returns dispatch queue used / capacity (0–1).
func (o *Orchestrator) QueueUtilization() float64 {
	if o.queue.QueueCap() == 0 {
		return 0
	}
	return float64(o.queue.QueueLen()) / float64(o.queue.QueueCap())
}

// Drain stops accepting runs and waits for the worker to finish.
func (o *Orchestrator) Drain() { o.queue.Drain() }

// Run validates the batch, enqueues it on the dispatch queue and waits
// for the terminal result. Size validation happens before enqueueing:
// a rejected batch never occupies the queue.
func (o *Orchestrator) Run(ctx context.Context, events []event.Event) (Result, error) {
	s := o.settings.Load()

	if len(events) == 0 {
		return o.reject(len(events), s, "No events provided"), nil
	}
	if len(events) > s.MaxBatchEvents {
		msg := fmt.Sprintf("Too many events (%d). Maximum allowed: %d events per batch.",
			len(events), s.MaxBatchEvents)
		return o.reject(len(events), s, msg), nil
	}

	j := &job{events: events, resultC: make(chan Result, 1)}
	if !o.queue.Submit(j) {
		return Result{}, ErrQueueFull
	}
	select {
	case res := <-j.resultC:
		return res, nil
	case <-ctx.Done():
		// The run itself is not cancellable; only this caller stops
		// waiting for it.
		return Result{}, ctx.Err()
	}
}

func (o *Orchestrator) reject(eventCount int, s *Settings, msg string) Result {
	metrics.OrchestrationsRejected.Inc()
	rec := &AuditRecord{
		BatchID:      uuid.New().String(),
		TS:           time.Now().UTC(),
		Status:       StatusRejected,
		EventsCount:  eventCount,
		BatchSize:    s.SubBatchSize,
		Errors:       []SubBatchError{},
	}
	o.ledger.Put(rec)
	return Result{BatchID: rec.BatchID, Status: StatusRejected, Message: msg}
}

// process runs one orchestration call to its terminal state. It runs on
// the single dispatch worker and never returns early on sub-batch
// failure.
func (o *Orchestrator) process(ctx context.Context, events []event.Event) Result {
	start := time.Now()
	s := o.settings.Load()
	batchID := uuid.New().String()
	subBatches := partition(events, s.SubBatchSize)

	metrics.OrchestrationsStarted.Inc()
	slog.Info("orchestration started",
		"batch_id", batchID, "events", len(events), "sub_batches", len(subBatches))

	rec := &AuditRecord{
		BatchID:      batchID,
		TS:           time.Now().UTC(),
		Status:       StatusReceived,
		EventsCount:  len(events),
		BatchesCount: len(subBatches),
		BatchSize:    s.SubBatchSize,
		Errors:       []SubBatchError{},
	}
	o.ledger.Put(rec)

	var merged []pattern.Insight
	failed := 0
	for i, sub := range subBatches {
		insights, err := o.dispatch(ctx, sub, s.AnalyzerTimeout)
		metrics.SubBatchesDispatched.Inc()
		if err != nil {
			ce := client.Classify(err)
			failed++
			metrics.SubBatchFailures.WithLabelValues(ce.Class).Inc()
			slog.Warn("sub-batch failed",
				"batch_id", batchID, "sub_batch", i+1, "class", ce.Class, "err", ce.Message)
			o.ledger.Update(batchID, func(r *AuditRecord) {
				r.Errors = append(r.Errors, SubBatchError{
					SubBatch: i + 1,
					Class:    ce.Class,
					Message:  fmt.Sprintf("Batch %d: %s", i+1, ce.Message),
				})
			})
			continue
		}
		merged = append(merged, insights...)
	}

	if len(merged) == 0 {
		o.ledger.Update(batchID, func(r *AuditRecord) { r.Status = StatusAnalyzerFailed })
		res := Result{
			BatchID: batchID,
			Status:  StatusAnalyzerFailed,
			Message: fmt.Sprintf("Failed to generate any insights. %d/%d batches failed.",
				failed, len(subBatches)),
		}
		rec, _ := o.ledger.Get(batchID)
		res.Errors = rec.Errors
		metrics.OrchestrationDuration.Observe(float64(time.Since(start).Milliseconds()))
		return res
	}

	metrics.InsightsMerged.Add(float64(len(merged)))
	preview := merged
	if len(preview) > insightsPreviewLen {
		preview = preview[:insightsPreviewLen]
	}
	o.ledger.Update(batchID, func(r *AuditRecord) {
		r.Status = StatusAnalyzed
		r.Analyzer = &AnalyzerStage{
			Count:            len(merged),
			InsightsPreview:  append([]pattern.Insight(nil), preview...),
			BatchesProcessed: len(subBatches),
			BatchesFailed:    failed,
		}
	})

	o.fetchKPIs(ctx, batchID, s.KPITimeout)

	succeeded := len(subBatches) - failed
	o.ledger.Update(batchID, func(r *AuditRecord) {
		r.Status = StatusComplete
		r.Report = &BatchReport{
			BatchID:       batchID,
			InsightsCount: len(merged),
			Message: fmt.Sprintf("Successfully processed %d/%d batches",
				succeeded, len(subBatches)),
		}
	})
	metrics.OrchestrationsCompleted.Inc()
	metrics.OrchestrationDuration.Observe(float64(time.Since(start).Milliseconds()))
	slog.Info("orchestration complete",
		"batch_id", batchID, "insights", len(merged), "failed_sub_batches", failed)

	return Result{
		BatchID:          batchID,
		Status:           StatusComplete,
		InsightsCount:    len(merged),
		BatchesProcessed: succeeded,
		BatchesFailed:    failed,
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, sub []event.Event, timeout time.Duration) ([]pattern.Insight, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.analyzer.Analyze(callCtx, sub)
}

// fetchKPIs degrades the audit status on failure but never discards the
// already-merged insights.
func (o *Orchestrator) fetchKPIs(ctx context.Context, batchID string, timeout time.Duration) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	kpis, err := o.kpis.FetchKPIs(callCtx)
	if err != nil {
		ce := client.Classify(err)
		status := StatusKPIWarning
		if ce.Class == client.ClassHTTPStatus {
			status = StatusKPIFailed
		}
		slog.Warn("kpi aggregation failed", "batch_id", batchID, "class", ce.Class, "err", ce.Message)
		o.ledger.Update(batchID, func(r *AuditRecord) {
			r.Status = status
			r.KPIError = ce.Message
		})
		return
	}
	o.ledger.Update(batchID, func(r *AuditRecord) {
		r.Status = StatusKPIUpdated
		r.KPIResults = kpis
	})
}

// partition splits events into sub-batches of size n, preserving order;
// the last sub-batch may be smaller.
func partition(events []event.Event, n int) [][]event.Event {
	if n <= 0 {
		n = 1
	}
	var out [][]event.Event
	for i := 0; i < len(events); i += n {
		end := i + n
		if end > len(events) {
			end = len(events)
		}
		out = append(out, events[i:end])
	}
	return out
}
