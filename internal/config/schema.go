package config

// Config is the top-level YAML structure.
type Config struct {
	Version  string       `yaml:"version"`
	Pipeline PipelineConf `yaml:"pipeline"`
	Ingest   IngestConf   `yaml:"ingest"`
	Search   SearchConf   `yaml:"search"`
}

// PipelineConf holds the batch orchestration tunables and collaborator
// endpoints.
type PipelineConf struct {
	MaxBatchEvents    int    `yaml:"max_batch_events"`
	SubBatchSize      int    `yaml:"sub_batch_size"`
	QueueDepth        int    `yaml:"queue_depth"`
	AnalyzerURL       string `yaml:"analyzer_url"`
	KPIURL            string `yaml:"kpi_url"`
	AnalyzerTimeoutMs int    `yaml:"analyzer_timeout_ms"`
	KPITimeoutMs      int    `yaml:"kpi_timeout_ms"`
	AuditCapacity     int    `yaml:"audit_capacity"`
}

// IngestConf bounds the in-memory event store.
type IngestConf struct {
	MaxBatch      int `yaml:"max_batch"`
	StoreCapacity int `yaml:"store_capacity"`
}

// SearchConf holds retrieval defaults.
type SearchConf struct {
	DefaultTopK int `yaml:"default_top_k"`
}
