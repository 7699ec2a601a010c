package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on
// file changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Log and continue with old config.
						continue
					}
					l.mu.Lock()
					l.current = cfg
					callbacks := make([]func(*Config), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the documented defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Pipeline.MaxBatchEvents == 0 {
		cfg.Pipeline.MaxBatchEvents = 20
	}
	if cfg.Pipeline.SubBatchSize == 0 {
		cfg.Pipeline.SubBatchSize = 3
	}
	if cfg.Pipeline.QueueDepth == 0 {
		cfg.Pipeline.QueueDepth = 16
	}
	if cfg.Pipeline.AnalyzerURL == "" {
		cfg.Pipeline.AnalyzerURL = "http://localhost:8080/v1/analyze"
	}
	if cfg.Pipeline.KPIURL == "" {
		cfg.Pipeline.KPIURL = "http://localhost:8080/v1/kpis"
	}
	if cfg.Pipeline.AnalyzerTimeoutMs == 0 {
		cfg.Pipeline.AnalyzerTimeoutMs = 300000
	}
	if cfg.Pipeline.KPITimeoutMs == 0 {
		cfg.Pipeline.KPITimeoutMs = 120000
	}
	if cfg.Pipeline.AuditCapacity == 0 {
		cfg.Pipeline.AuditCapacity = 1000
	}
	if cfg.Ingest.MaxBatch == 0 {
		cfg.Ingest.MaxBatch = 100
	}
	if cfg.Ingest.StoreCapacity == 0 {
		cfg.Ingest.StoreCapacity = 10000
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
}
