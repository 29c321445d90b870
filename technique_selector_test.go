package promptvault

import "testing"

// selectorStore builds a store with a controlled technique table.
func selectorStore(t *testing.T, techniques string) *ConfigStore {
	t.Helper()
	src := testSource()
	src.Techniques = []byte(techniques)
	store, _ := NewConfigStore(src, nil)
	return store
}

func TestSelector_StealthOrderWithIDTieBreak(t *testing.T) {
	store := selectorStore(t, `{"techniques": [
		{"id": "c", "stealth_score": 0.8, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "a", "stealth_score": 0.8, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "b", "stealth_score": 0.9, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}}
	]}`)
	s := NewTechniqueSelector(store)

	got := s.Select("neutral", 0.5, 3)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSelector_ConflictFreedom(t *testing.T) {
	store := selectorStore(t, `{"techniques": [
		{"id": "top", "stealth_score": 0.9, "min_load": 0, "max_load": 1, "conflicts": ["mid"], "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "mid", "stealth_score": 0.8, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "low", "stealth_score": 0.7, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}}
	]}`)
	s := NewTechniqueSelector(store)

	got := s.Select("neutral", 0.5, 3)
	bundle := store.Bundle()
	for i, id := range got {
		for _, other := range got[i+1:] {
			if bundle.Technique(id).ConflictsWith(other) {
				t.Fatalf("selection %v contains conflicting pair %s/%s", got, id, other)
			}
		}
	}
	// "mid" loses to "top" and "low" fills the remaining slot.
	if len(got) != 2 || got[0] != "top" || got[1] != "low" {
		t.Fatalf("got %v, want [top low]", got)
	}
}

func TestSelector_ApplicabilityBounds(t *testing.T) {
	store := selectorStore(t, `{"techniques": [
		{"id": "high-load", "stealth_score": 0.9, "min_load": 0.7, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "calm-only", "stealth_score": 0.8, "applicable_tones": ["calm"], "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}},
		{"id": "anytone", "stealth_score": 0.7, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}}
	]}`)
	s := NewTechniqueSelector(store)

	got := s.Select("urgency", 0.3, 5)
	if len(got) != 1 || got[0] != "anytone" {
		t.Fatalf("got %v, want [anytone]", got)
	}

	got = s.Select("calm", 0.8, 5)
	if len(got) != 3 {
		t.Fatalf("at load 0.8 with calm tone all three apply, got %v", got)
	}
}

func TestSelector_MaxTechniquesCap(t *testing.T) {
	s := NewTechniqueSelector(newTestStore(t))

	got := s.Select("neutral", 0.5, 1)
	if len(got) != 1 {
		t.Fatalf("cap 1 violated: %v", got)
	}

	// Zero falls back to the configured cap (3).
	got = s.Select("neutral", 0.5, 0)
	if len(got) > 3 {
		t.Fatalf("configured cap violated: %v", got)
	}
}

func TestSelector_EmptyCandidatesEmptyResult(t *testing.T) {
	store := selectorStore(t, `{"techniques": []}`)
	s := NewTechniqueSelector(store)

	if got := s.Select("urgency", 0.5, 3); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", got)
	}
}

func TestSelector_Deterministic(t *testing.T) {
	s := NewTechniqueSelector(newTestStore(t))

	first := s.Select("urgency", 0.4, 3)
	for i := 0; i < 10; i++ {
		again := s.Select("urgency", 0.4, 3)
		if len(again) != len(first) {
			t.Fatalf("selection changed between calls: %v vs %v", first, again)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("selection order changed: %v vs %v", first, again)
			}
		}
	}
}

func TestSelector_LoadClampedBeforeFiltering(t *testing.T) {
	store := selectorStore(t, `{"techniques": [
		{"id": "full-range", "stealth_score": 0.9, "min_load": 0, "max_load": 1, "transform_kind": "pacing-insertion", "parameters": {"phrase": "x"}}
	]}`)
	s := NewTechniqueSelector(store)

	// Out-of-range loads clamp into [0,1] rather than excluding everything.
	if got := s.Select("neutral", 1.7, 3); len(got) != 1 {
		t.Fatalf("load 1.7 should clamp to 1.0, got %v", got)
	}
	if got := s.Select("neutral", -0.3, 3); len(got) != 1 {
		t.Fatalf("load -0.3 should clamp to 0.0, got %v", got)
	}
}
