package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"retailpulse/internal/config"
	"retailpulse/internal/event"
	"retailpulse/internal/kpi"
	"retailpulse/internal/orchestrator"
	"retailpulse/internal/pattern"
	"retailpulse/internal/search"
	"retailpulse/internal/store"
)

type passthroughAnalyzer struct{}

func (passthroughAnalyzer) Analyze(_ context.Context, events []event.Event) ([]pattern.Insight, error) {
	insights := make([]pattern.Insight, len(events))
	for i, ev := range events {
		insights[i] = pattern.Insight{Season: "winter", Product: ev.EventID}
	}
	return insights, nil
}

type fixedKPIs struct{}

func (fixedKPIs) FetchKPIs(context.Context) ([]kpi.StoreKPI, error) {
	return []kpi.StoreKPI{{StoreID: "s1"}}, nil
}

func testLoader(t *testing.T) *config.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	return loader
}

func newTestServer(t *testing.T) (*httptest.Server, *store.EventStore) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events := store.NewEventStore(100)
	orch := orchestrator.New(ctx, passthroughAnalyzer{}, fixedKPIs{}, orchestrator.NewLedger(50),
		orchestrator.Settings{
			MaxBatchEvents:  20,
			SubBatchSize:    3,
			AnalyzerTimeout: time.Second,
			KPITimeout:      time.Second,
		}, 8)

	h := New(events, search.NewEngine(), pattern.NewAnalyzer(), kpi.NewSnapshot(), orch, testLoader(t))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, events
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func saleEvents(n int) []event.Event {
	events := make([]event.Event, n)
	for i := range events {
		events[i] = event.Event{
			EventID:   fmt.Sprintf("evt-%d", i),
			StoreID:   "s1",
			TS:        "2024-01-15T10:00:00Z",
			EventType: event.TypeSale,
			Payload: map[string]interface{}{
				"amount": 50.0,
				"items":  []interface{}{"soup", "bread"},
				"season": "winter",
			},
		}
	}
	return events
}

func TestIngestEvents(t *testing.T) {
	srv, events := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/events", saleEvents(3))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	out := decodeMap(t, resp)
	if out["accepted"].(float64) != 3 || out["total_events"].(float64) != 3 {
		t.Errorf("response = %v", out)
	}
	if events.Len() != 3 {
		t.Errorf("store has %d events, want 3", events.Len())
	}
}

func TestIngestAssignsMissingEventIDs(t *testing.T) {
	srv, events := newTestServer(t)

	batch := saleEvents(1)
	batch[0].EventID = ""
	resp := postJSON(t, srv.URL+"/v1/events", batch)
	resp.Body.Close()

	if got := events.All(); got[0].EventID == "" {
		t.Error("event stored without an id")
	}
}

func TestIngestRejectsEmptyAndInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/events", []event.Event{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", resp.StatusCode)
	}

	resp, err := http.Post(srv.URL+"/v1/events", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestOrchestrateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/orchestrate", map[string]interface{}{"events": saleEvents(5)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decodeMap(t, resp)
	if out["status"] != "processing_complete" {
		t.Errorf("status = %v, want processing_complete", out["status"])
	}
	if out["insights_count"].(float64) != 5 {
		t.Errorf("insights_count = %v, want 5", out["insights_count"])
	}

	// The run must be auditable afterwards.
	batchID := out["batch_id"].(string)
	audit, err := http.Get(srv.URL + "/v1/audits/" + batchID)
	if err != nil {
		t.Fatal(err)
	}
	if audit.StatusCode != http.StatusOK {
		t.Fatalf("audit status = %d, want 200", audit.StatusCode)
	}
	rec := decodeMap(t, audit)
	if rec["status"] != "processing_complete" {
		t.Errorf("audit record status = %v", rec["status"])
	}
}

func TestOrchestrateRejectsOversizedBatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/orchestrate", map[string]interface{}{"events": saleEvents(21)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with rejected body", resp.StatusCode)
	}
	out := decodeMap(t, resp)
	if out["status"] != "rejected" {
		t.Errorf("status = %v, want rejected", out["status"])
	}
}

func TestAuditNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/audits/no-such-batch")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSearchFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/events", saleEvents(4))
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/search/index", struct{}{})
	out := decodeMap(t, resp)
	if out["documents_indexed"].(float64) != 4 {
		t.Fatalf("documents_indexed = %v, want 4", out["documents_indexed"])
	}

	resp = postJSON(t, srv.URL+"/v1/search", map[string]interface{}{"query": "season_winter product_soup"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}
	out = decodeMap(t, resp)
	if out["total_matches"].(float64) == 0 {
		t.Error("no matches for an indexed term")
	}
	if out["query"] != "season_winter product_soup" {
		t.Errorf("query echoed as %v", out["query"])
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/search", map[string]interface{}{"query": "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchIndexesStoredEventsOnDemand(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/events", saleEvents(2))
	resp.Body.Close()

	// No explicit index rebuild: the search handler indexes lazily.
	resp = postJSON(t, srv.URL+"/v1/search", map[string]interface{}{"query": "product_soup"})
	out := decodeMap(t, resp)
	if out["total_matches"].(float64) == 0 {
		t.Error("lazy indexing did not run")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/analyze", saleEvents(2))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeMap(t, resp)
	if _, ok := out["insights_list"]; !ok {
		t.Error("response missing insights_list")
	}
	if out["status"] != "ok" {
		t.Errorf("status = %v", out["status"])
	}
}

func TestCrossSellEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/cross-sell", saleEvents(3))
	out := decodeMap(t, resp)
	if out["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1 bundle (soup+bread three times)", out["total"])
	}
}

func TestKPIEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/events", saleEvents(2))
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/kpis")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var kpis []kpi.StoreKPI
	if err := json.NewDecoder(resp.Body).Decode(&kpis); err != nil {
		t.Fatal(err)
	}
	if len(kpis) != 1 || kpis[0].StoreID != "s1" {
		t.Fatalf("kpis = %+v", kpis)
	}

	single, err := http.Get(srv.URL + "/v1/kpis/s1")
	if err != nil {
		t.Fatal(err)
	}
	rec := decodeMap(t, single)
	if rec["store_id"] != "s1" {
		t.Errorf("store kpi = %v", rec)
	}

	missing, err := http.Get(srv.URL + "/v1/kpis/s999")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing store status = %d, want 404", missing.StatusCode)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeMap(t, resp)
	if out["status"] != "healthy" {
		t.Errorf("healthz = %v", out)
	}

	ready, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	ready.Body.Close()
	if ready.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d, want 200 when idle", ready.StatusCode)
	}
}
