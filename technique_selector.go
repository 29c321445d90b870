package promptvault

import "sort"

// ──────────────────────────────────────────────
// Technique Selector — stealth-ranked, conflict-free subset
// ──────────────────────────────────────────────

// TechniqueSelector picks an ordered, non-conflicting subset of the
// configured techniques for one enhancement pass.
type TechniqueSelector struct {
	store *ConfigStore
}

// NewTechniqueSelector creates a selector reading from store.
func NewTechniqueSelector(store *ConfigStore) *TechniqueSelector {
	return &TechniqueSelector{store: store}
}

// Select returns technique ids in acceptance order.
//
// Candidates are techniques whose applicable tones include tone (or are
// unrestricted) and whose load interval contains load. They are ranked
// by descending stealth score, ties by ascending id, then accepted
// greedily unless they conflict with an already-accepted technique,
// until maxTechniques are accepted. maxTechniques <= 0 falls back to
// the configured cap. Deterministic for identical inputs and bundle.
func (s *TechniqueSelector) Select(tone string, load float64, maxTechniques int) []string {
	bundle := s.store.Bundle()
	load = clamp01(load)
	if maxTechniques <= 0 {
		maxTechniques = bundle.Selector.MaxTechniques
	}

	candidates := make([]*Technique, 0, len(bundle.Techniques))
	for _, t := range bundle.Techniques {
		if t.AppliesTo(tone, load) {
			candidates = append(candidates, t)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StealthScore != candidates[j].StealthScore {
			return candidates[i].StealthScore > candidates[j].StealthScore
		}
		return candidates[i].ID < candidates[j].ID
	})

	accepted := make([]string, 0, maxTechniques)
	acceptedSet := make(map[string]bool, maxTechniques)
	for _, cand := range candidates {
		if len(accepted) >= maxTechniques {
			break
		}
		if acceptedSet[cand.ID] {
			continue
		}
		conflict := false
		for _, id := range accepted {
			if cand.ConflictsWith(id) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		accepted = append(accepted, cand.ID)
		acceptedSet[cand.ID] = true
	}
	return accepted
}
