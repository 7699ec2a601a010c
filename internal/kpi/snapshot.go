package kpi

import "sync"

// Snapshot retains the latest aggregation so single-store lookups do
// not force a full recomputation. It is replaced wholesale on every
// aggregation call.
type Snapshot struct {
	mu   sync.RWMutex
	kpis []StoreKPI
}

func NewSnapshot() *Snapshot { return &Snapshot{} }

// Set replaces the snapshot contents.
func (s *Snapshot) Set(kpis []StoreKPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kpis = kpis
}

// Latest returns a copy of the last aggregation, possibly empty.
func (s *Snapshot) Latest() []StoreKPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StoreKPI, len(s.kpis))
	copy(out, s.kpis)
	return out
}

// ForStore returns the KPI record for one store from the last
// aggregation.
func (s *Snapshot) ForStore(storeID string) (StoreKPI, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.kpis {
		if k.StoreID == storeID {
			return k, true
		}
	}
	return StoreKPI{}, false
}
