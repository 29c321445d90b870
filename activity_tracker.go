package promptvault

import (
	"sync"
	"time"
)

// ──────────────────────────────────────────────
// Activity Tracker — bounded event log with intervention signal
// ──────────────────────────────────────────────

// ActionType tags a tracked user action.
type ActionType string

const (
	ActionEdit    ActionType = "edit"
	ActionSave    ActionType = "save"
	ActionDelete  ActionType = "delete"
	ActionEnhance ActionType = "enhance"
	ActionView    ActionType = "view"
)

// ActivityEvent is one recorded user action. Append-only; the tracker
// owns eviction.
type ActivityEvent struct {
	Action    ActionType             `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ActivitySummary aggregates the events currently inside the window.
type ActivitySummary struct {
	Counts       map[ActionType]int `json:"counts"`
	TotalSeconds float64            `json:"total_seconds"`
	TopCategory  string             `json:"top_category,omitempty"`
	Events       int                `json:"events"`
}

// ActivityTracker keeps a sliding window of events and decides when to
// emit an intervention signal. This is the engine's only mutable,
// session-scoped state; a mutex keeps the window and cooldown
// invariants intact under concurrent callers.
type ActivityTracker struct {
	store *ConfigStore

	mu               sync.Mutex
	events           []ActivityEvent
	lastIntervention time.Time

	now func() time.Time // injectable clock for tests
}

// NewActivityTracker creates a tracker reading limits from store.
func NewActivityTracker(store *ConfigStore) *ActivityTracker {
	return &ActivityTracker{store: store, now: time.Now}
}

// Track appends an event and evicts everything outside the window or
// beyond the capacity bound. Oldest events go first.
func (t *ActivityTracker) Track(action ActionType, metadata map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, ActivityEvent{
		Action:    action,
		Timestamp: t.now(),
		Metadata:  metadata,
	})
	t.evictLocked(t.now())
}

// ShouldIntervene reports whether accumulated activity duration within
// the window exceeds the configured threshold. It returns true at most
// once per cooldown period: a true return resets the cooldown clock.
func (t *ActivityTracker) ShouldIntervene() bool {
	cfg := t.store.Bundle().Tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.lastIntervention.IsZero() &&
		now.Sub(t.lastIntervention) < time.Duration(cfg.CooldownSeconds)*time.Second {
		return false
	}
	t.evictLocked(now)

	total := 0.0
	for _, ev := range t.events {
		total += eventSeconds(ev, cfg)
	}
	if total <= float64(cfg.ThresholdSeconds) {
		return false
	}
	t.lastIntervention = now
	return true
}

// Summary returns the aggregates for the current window.
func (t *ActivityTracker) Summary() ActivitySummary {
	cfg := t.store.Bundle().Tracker
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked(t.now())

	summary := ActivitySummary{Counts: make(map[ActionType]int)}
	categories := make(map[string]int)
	for _, ev := range t.events {
		summary.Counts[ev.Action]++
		summary.TotalSeconds += eventSeconds(ev, cfg)
		if cat, ok := ev.Metadata["category"].(string); ok && cat != "" {
			categories[cat]++
		}
	}
	summary.Events = len(t.events)

	best := 0
	for cat, n := range categories {
		// ties break lexicographically
		if n > best || (n == best && best > 0 && cat < summary.TopCategory) {
			best = n
			summary.TopCategory = cat
		}
	}
	return summary
}

// Reset clears the event log and the cooldown clock.
func (t *ActivityTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.lastIntervention = time.Time{}
}

// evictLocked drops events older than the window, then trims to the
// capacity bound. Caller must hold t.mu.
func (t *ActivityTracker) evictLocked(now time.Time) {
	cfg := t.store.Bundle().Tracker
	cutoff := now.Add(-time.Duration(cfg.WindowSeconds) * time.Second)
	start := 0
	for start < len(t.events) && t.events[start].Timestamp.Before(cutoff) {
		start++
	}
	if start > 0 {
		t.events = append(t.events[:0:0], t.events[start:]...)
	}
	if over := len(t.events) - cfg.Capacity; over > 0 {
		t.events = append(t.events[:0:0], t.events[over:]...)
	}
}

// eventSeconds reads an event's duration from metadata, falling back to
// the configured default for untimed events.
func eventSeconds(ev ActivityEvent, cfg TrackerConfig) float64 {
	switch v := ev.Metadata["duration_seconds"].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return float64(cfg.DefaultEventSeconds)
}
