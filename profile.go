package promptvault

import (
	"sort"
	"strings"
)

// ──────────────────────────────────────────────
// Profile detection — keyword tables, category override
// ──────────────────────────────────────────────

// DetectProfile picks the emotional profile for a piece of content.
//
// Resolution order: an explicit profile named by category (if a profile
// with that name exists), then the first profile whose keyword table
// matches the content, then the bundle's default profile. Keyword
// tables are walked in the configured tone order first, remaining
// profiles alphabetically, so detection is deterministic.
func DetectProfile(bundle *ConfigBundle, content, category string) *EmotionalProfile {
	if category != "" {
		if p, ok := bundle.Profiles[strings.ToLower(category)]; ok {
			return p
		}
	}

	lower := strings.ToLower(content)
	for _, name := range profileOrder(bundle) {
		for _, kw := range bundle.ProfileKeywords[name] {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				if p, ok := bundle.Profiles[name]; ok {
					return p
				}
			}
		}
	}
	return bundle.Profile(bundle.DefaultProfile)
}

// profileOrder yields profile names with keyword tables in a stable
// order: declared tone order first, the rest alphabetically.
func profileOrder(bundle *ConfigBundle) []string {
	seen := make(map[string]bool, len(bundle.ProfileKeywords))
	var order []string
	for _, tone := range bundle.ToneOrder {
		if _, ok := bundle.ProfileKeywords[tone]; ok && !seen[tone] {
			order = append(order, tone)
			seen[tone] = true
		}
	}
	var rest []string
	for name := range bundle.ProfileKeywords {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
