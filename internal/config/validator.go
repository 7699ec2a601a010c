package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the config for:
//   - Required fields (version, collaborator URLs)
//   - Well-formed collaborator URLs
//   - Positive sizes, depths, capacities and timeouts
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Pipeline.MaxBatchEvents < 1 {
		errs = append(errs, "pipeline.max_batch_events must be >= 1")
	}
	if cfg.Pipeline.SubBatchSize < 1 {
		errs = append(errs, "pipeline.sub_batch_size must be >= 1")
	}
	if cfg.Pipeline.QueueDepth < 1 {
		errs = append(errs, "pipeline.queue_depth must be >= 1")
	}
	if cfg.Pipeline.AnalyzerTimeoutMs < 1 {
		errs = append(errs, "pipeline.analyzer_timeout_ms must be >= 1")
	}
	if cfg.Pipeline.KPITimeoutMs < 1 {
		errs = append(errs, "pipeline.kpi_timeout_ms must be >= 1")
	}
	if cfg.Pipeline.AuditCapacity < 1 {
		errs = append(errs, "pipeline.audit_capacity must be >= 1")
	}
	urls := []struct {
		name string
		raw  string
	}{
		{"pipeline.analyzer_url", cfg.Pipeline.AnalyzerURL},
		{"pipeline.kpi_url", cfg.Pipeline.KPIURL},
	}
	for _, u := range urls {
		if u.raw == "" {
			errs = append(errs, fmt.Sprintf("%s is required", u.name))
			continue
		}
		if parsed, err := url.Parse(u.raw); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Sprintf("%s: %q is not an absolute URL", u.name, u.raw))
		}
	}
	if cfg.Ingest.MaxBatch < 1 {
		errs = append(errs, "ingest.max_batch must be >= 1")
	}
	if cfg.Ingest.StoreCapacity < 1 {
		errs = append(errs, "ingest.store_capacity must be >= 1")
	}
	if cfg.Search.DefaultTopK < 1 {
		errs = append(errs, "search.default_top_k must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
