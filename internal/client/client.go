// Package client holds the HTTP collaborators the orchestrator talks
// to: the pattern analyzer and the KPI aggregator. Every failure is
// converted into a classified CallError; nothing raises across the
// collaborator boundary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"retailpulse/internal/event"
	"retailpulse/internal/kpi"
	"retailpulse/internal/pattern"
)

// Failure classes recorded per dispatched sub-batch.
const (
	ClassTimeout    = "timeout"
	ClassConnection = "connection"
	ClassHTTPStatus = "http_status"
	ClassUnexpected = "unexpected"
)

// maxBodyEcho bounds how much of an error response body is carried
// into the audit ledger.
const maxBodyEcho = 200

// CallError is a classified collaborator failure.
type CallError struct {
	Class   string
	Status  int
	Message string
}

func (e *CallError) Error() string { return e.Message }

// Classify maps any error from a collaborator call into a CallError.
func Classify(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Class: ClassTimeout, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &CallError{Class: ClassTimeout, Message: err.Error()}
		}
		return &CallError{Class: ClassConnection, Message: err.Error()}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &CallError{Class: ClassConnection, Message: err.Error()}
	}
	return &CallError{Class: ClassUnexpected, Message: err.Error()}
}

// AnalyzerClient dispatches sub-batches to the pattern analyzer
// collaborator and decodes its insights list.
type AnalyzerClient struct {
	url  string
	http *http.Client
}

func NewAnalyzerClient(url string) *AnalyzerClient {
	return &AnalyzerClient{url: url, http: &http.Client{}}
}

type analyzeResponse struct {
	InsightsList []pattern.Insight `json:"insights_list"`
}

// Analyze posts events to the analyzer and returns its insights. The
// caller bounds the call through ctx.
func (c *AnalyzerClient) Analyze(ctx context.Context, events []event.Event) ([]pattern.Insight, error) {
	body, err := json.Marshal(events)
	if err != nil {
		return nil, &CallError{Class: ClassUnexpected, Message: fmt.Sprintf("encode sub-batch: %s", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Class: ClassUnexpected, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("analyzer", resp)
	}
	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &CallError{Class: ClassUnexpected, Message: fmt.Sprintf("decode analyzer response: %s", err)}
	}
	return decoded.InsightsList, nil
}

// KPIClient requests the per-store KPI snapshot from the aggregator
// collaborator.
type KPIClient struct {
	url  string
	http *http.Client
}

func NewKPIClient(url string) *KPIClient {
	return &KPIClient{url: url, http: &http.Client{}}
}

// FetchKPIs returns the collaborator's KPI records.
func (c *KPIClient) FetchKPIs(ctx context.Context) ([]kpi.StoreKPI, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &CallError{Class: ClassUnexpected, Message: err.Error()}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("kpi", resp)
	}
	var kpis []kpi.StoreKPI
	if err := json.NewDecoder(resp.Body).Decode(&kpis); err != nil {
		return nil, &CallError{Class: ClassUnexpected, Message: fmt.Sprintf("decode kpi response: %s", err)}
	}
	return kpis, nil
}

func statusError(collaborator string, resp *http.Response) *CallError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyEcho))
	return &CallError{
		Class:   ClassHTTPStatus,
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("%s returned status %d - %s", collaborator, resp.StatusCode, body),
	}
}
