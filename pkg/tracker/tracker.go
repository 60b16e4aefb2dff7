// Package tracker counts the control events emitted per layer.
package tracker

import (
	"sync"
	"sync/atomic"

	"layerctl/pkg/surface"
)

// Tracker tracks emitted control events per layer name.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*LayerStats
}

// LayerStats holds the counters of one layer.
// Fields are accessed atomically.
type LayerStats struct {
	OverlayAdds     int64 `json:"overlay_adds"`
	OverlayRemoves  int64 `json:"overlay_removes"`
	BaseLayerChange int64 `json:"base_layer_changes"`
	FilterChanges   int64 `json:"filter_changes"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*LayerStats),
	}
}

// getStats returns the stats object for a layer, creating it if needed.
func (t *Tracker) getStats(name string) *LayerStats {
	t.mu.RLock()
	s, ok := t.stats[name]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[name]; ok {
		return s
	}
	s = &LayerStats{}
	t.stats[name] = s
	return s
}

// Track increments the counter matching the event type. Unknown types are
// ignored.
func (t *Tracker) Track(eventType, name string) {
	switch eventType {
	case surface.EventOverlayAdd:
		t.TrackOverlayAdd(name)
	case surface.EventOverlayRemove:
		t.TrackOverlayRemove(name)
	case surface.EventBaseLayerChange:
		t.TrackBaseLayerChange(name)
	}
}

func (t *Tracker) TrackOverlayAdd(name string) {
	atomic.AddInt64(&t.getStats(name).OverlayAdds, 1)
}

func (t *Tracker) TrackOverlayRemove(name string) {
	atomic.AddInt64(&t.getStats(name).OverlayRemoves, 1)
}

func (t *Tracker) TrackBaseLayerChange(name string) {
	atomic.AddInt64(&t.getStats(name).BaseLayerChange, 1)
}

// TrackFilterChange counts a filter selection or cancellation.
func (t *Tracker) TrackFilterChange(name string) {
	atomic.AddInt64(&t.getStats(name).FilterChanges, 1)
}

// Reset zeroes all counters. Known layers stay in the snapshot.
func (t *Tracker) Reset() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.stats {
		atomic.StoreInt64(&s.OverlayAdds, 0)
		atomic.StoreInt64(&s.OverlayRemoves, 0)
		atomic.StoreInt64(&s.BaseLayerChange, 0)
		atomic.StoreInt64(&s.FilterChanges, 0)
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]LayerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]LayerStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = LayerStats{
			OverlayAdds:     atomic.LoadInt64(&v.OverlayAdds),
			OverlayRemoves:  atomic.LoadInt64(&v.OverlayRemoves),
			BaseLayerChange: atomic.LoadInt64(&v.BaseLayerChange),
			FilterChanges:   atomic.LoadInt64(&v.FilterChanges),
		}
	}
	return result
}
