package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retailpulse/internal/config"
	"retailpulse/internal/event"
	"retailpulse/internal/kpi"
	"retailpulse/internal/metrics"
	"retailpulse/internal/orchestrator"
	"retailpulse/internal/pattern"
	"retailpulse/internal/search"
	"retailpulse/internal/store"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	events   *store.EventStore
	engine   *search.Engine
	analyzer *pattern.Analyzer
	snapshot *kpi.Snapshot
	orch     *orchestrator.Orchestrator
	loader   *config.Loader
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(events *store.EventStore, engine *search.Engine, analyzer *pattern.Analyzer,
	snapshot *kpi.Snapshot, orch *orchestrator.Orchestrator, loader *config.Loader) http.Handler {

	h := &Handler{
		events:   events,
		engine:   engine,
		analyzer: analyzer,
		snapshot: snapshot,
		orch:     orch,
		loader:   loader,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvents)
	h.mux.HandleFunc("POST /v1/orchestrate", h.orchestrate)
	h.mux.HandleFunc("GET /v1/audits", h.listAudits)
	h.mux.HandleFunc("GET /v1/audits/{id}", h.getAudit)
	h.mux.HandleFunc("POST /v1/search/index", h.rebuildIndex)
	h.mux.HandleFunc("POST /v1/search", h.search)
	h.mux.HandleFunc("GET /v1/search/stats", h.searchStats)
	h.mux.HandleFunc("POST /v1/analyze", h.analyze)
	h.mux.HandleFunc("POST /v1/cross-sell", h.crossSell)
	h.mux.HandleFunc("GET /v1/kpis", h.kpis)
	h.mux.HandleFunc("GET /v1/kpis/{store_id}", h.kpiForStore)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — append a batch of raw events to the in-memory store.
func (h *Handler) ingestEvents(w http.ResponseWriter, r *http.Request) {
	var events []event.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	maxBatch := h.loader.Config().Ingest.MaxBatch
	if len(events) > maxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatch))
		return
	}
	for i := range events {
		if events[i].EventID == "" {
			events[i].EventID = uuid.New().String()
		}
	}
	total := h.events.Append(events)
	metrics.EventsIngested.Add(float64(len(events)))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":     len(events),
		"total_events": total,
	})
}

type orchestrateRequest struct {
	Events []event.Event `json:"events"`
}

// POST /v1/orchestrate — run the full batch pipeline on the supplied
// events. Always returns a terminal result; 429 when the dispatch queue
// is full.
func (h *Handler) orchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	res, err := h.orch.Run(r.Context(), req.Events)
	if err != nil {
		if errors.Is(err, orchestrator.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/audits — full ledger, most recent first.
func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Ledger().List())
}

// GET /v1/audits/{id} — one audit record.
func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.orch.Ledger().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no audit record for batch id")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// POST /v1/search/index — rebuild the retrieval index from the stored
// events, wholesale.
func (h *Handler) rebuildIndex(w http.ResponseWriter, r *http.Request) {
	count := h.engine.Index(h.events.All())
	metrics.DocumentsIndexed.Set(float64(count))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents_indexed": count,
		"ready":             h.engine.Ready(),
	})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// POST /v1/search — ranked retrieval over the indexed events. Indexes
// stored events on demand when the engine is not ready yet.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	if !h.engine.Ready() && h.events.Len() > 0 {
		count := h.engine.Index(h.events.All())
		metrics.DocumentsIndexed.Set(float64(count))
	}
	topK := req.TopK
	if topK <= 0 {
		topK = h.loader.Config().Search.DefaultTopK
	}
	results := h.engine.Search(req.Query, topK)
	metrics.SearchQueries.Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":         req.Query,
		"results":       results,
		"total_matches": len(results),
	})
}

// GET /v1/search/stats — fitted-index diagnostics.
func (h *Handler) searchStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// POST /v1/analyze — seasonality analysis over the supplied events.
// This is the analyzer-collaborator surface the orchestrator dispatches
// sub-batches to, so the response carries insights_list.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var events []event.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "no events provided")
		return
	}
	report := h.analyzer.DetectSeasonality(events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"insights":        len(report.Insights),
		"insights_list":   report.Insights,
		"recommendations": report.Recommendations,
		"summary":         report.Summary,
	})
}

// POST /v1/cross-sell — product bundling opportunities.
func (h *Handler) crossSell(w http.ResponseWriter, r *http.Request) {
	var events []event.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	pairs := search.CrossSell(events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": pairs,
		"total":         len(pairs),
	})
}

// GET /v1/kpis — aggregate the stored events into per-store KPIs.
func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	kpis := kpi.Aggregate(h.events.All())
	h.snapshot.Set(kpis)
	metrics.KPIAggregations.Inc()
	writeJSON(w, http.StatusOK, kpis)
}

// GET /v1/kpis/{store_id} — one store's KPI record from the latest
// aggregation, computing it when none exists yet.
func (h *Handler) kpiForStore(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("store_id")
	if len(h.snapshot.Latest()) == 0 {
		h.snapshot.Set(kpi.Aggregate(h.events.All()))
		metrics.KPIAggregations.Inc()
	}
	rec, ok := h.snapshot.ForStore(storeID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("store %s not found", storeID))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"batches_processed": h.orch.Ledger().Len(),
	})
}

// GET /readyz — 503 if the dispatch queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.orch.QueueUtilization()
	metrics.DispatchQueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
