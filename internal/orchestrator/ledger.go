package orchestrator

import (
	"sync"
	"time"

	"retailpulse/internal/kpi"
	"retailpulse/internal/pattern"
)

// Audit statuses, in lifecycle order. Every non-rejected run ends at
// StatusComplete regardless of partial or total failure.
const (
	StatusRejected       = "rejected"
	StatusReceived       = "received"
	StatusAnalyzed       = "analyzed"
	StatusAnalyzerFailed = "analyzer_failed"
	StatusKPIUpdated     = "kpi_updated"
	StatusKPIFailed      = "kpi_failed"
	StatusKPIWarning     = "kpi_warning"
	StatusComplete       = "processing_complete"
)

// SubBatchError is a structured per-sub-batch failure entry.
type SubBatchError struct {
	SubBatch int    `json:"sub_batch"`
	Class    string `json:"class"`
	Message  string `json:"message"`
}

// AnalyzerStage summarizes the analysis phase of a run.
type AnalyzerStage struct {
	Count            int               `json:"count"`
	InsightsPreview  []pattern.Insight `json:"insights_preview"`
	BatchesProcessed int               `json:"batches_processed"`
	BatchesFailed    int               `json:"batches_failed"`
}

// BatchReport is the closing summary attached to a completed run.
type BatchReport struct {
	BatchID       string `json:"batch_id"`
	InsightsCount int    `json:"insights_count"`
	Message       string `json:"message"`
}

// AuditRecord tracks one orchestration call. It is created at run start
// and mutated in place as stages complete.
type AuditRecord struct {
	BatchID      string          `json:"batch_id"`
	TS           time.Time       `json:"ts"`
	Status       string          `json:"status"`
	EventsCount  int             `json:"events_count"`
	BatchesCount int             `json:"batches_count"`
	BatchSize    int             `json:"batch_size"`
	Errors       []SubBatchError `json:"errors"`
	Analyzer     *AnalyzerStage  `json:"analyzer,omitempty"`
	KPIResults   []kpi.StoreKPI  `json:"kpi_results,omitempty"`
	KPIError     string          `json:"error_kpi,omitempty"`
	Report       *BatchReport    `json:"report,omitempty"`
}

// Ledger is the capacity-bounded in-memory audit store, keyed by batch
// id. When the capacity is exceeded the oldest record is evicted.
type Ledger struct {
	mu       sync.RWMutex
	capacity int
	records  map[string]*AuditRecord
	order    []string
}

// NewLedger creates a ledger retaining at most capacity records.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ledger{
		capacity: capacity,
		records:  make(map[string]*AuditRecord),
	}
}

// Put inserts a record, evicting the oldest when over capacity.
func (l *Ledger) Put(rec *AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.records[rec.BatchID]; !exists {
		l.order = append(l.order, rec.BatchID)
	}
	l.records[rec.BatchID] = rec
	for len(l.order) > l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.records, oldest)
	}
}

// Update mutates the record for batchID under the ledger lock.
func (l *Ledger) Update(batchID string, fn func(*AuditRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[batchID]; ok {
		fn(rec)
	}
}

// Get returns a copy of one audit record.
func (l *Ledger) Get(batchID string) (AuditRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[batchID]
	if !ok {
		return AuditRecord{}, false
	}
	return *rec, true
}

// List returns copies of all records, most recent first.
func (l *Ledger) List() []AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AuditRecord, 0, len(l.order))
	for i := len(l.order) - 1; i >= 0; i-- {
		out = append(out, *l.records[l.order[i]])
	}
	return out
}

// Len returns the number of retained records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
