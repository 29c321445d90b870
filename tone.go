package promptvault

import (
	"sort"
	"strings"
	"unicode"
)

// ──────────────────────────────────────────────
// Tone Classifier — lexicon-based weighted scoring
// ──────────────────────────────────────────────

// Match modes for lexicon lookups.
const (
	MatchWholeWord = "whole-word"
	MatchSubstring = "substring"
)

// AnalysisResult is the immutable outcome of analyzing one text.
// Produced fresh per call, never cached across inputs.
type AnalysisResult struct {
	Tone       string             `json:"tone"`
	Engagement float64            `json:"engagement"` // 0.0-1.0
	Load       float64            `json:"load"`       // 0.0-1.0
	Scores     map[string]float64 `json:"scores,omitempty"` // raw per-tone weight sums
}

// ToneClassifier maps raw text to a discrete tone label plus an
// engagement score. Pure function of text + bundle; no hidden state.
type ToneClassifier struct {
	store *ConfigStore
}

// NewToneClassifier creates a classifier reading from store.
func NewToneClassifier(store *ConfigStore) *ToneClassifier {
	return &ToneClassifier{store: store}
}

// Classify scores the text against every configured tone lexicon.
// The highest aggregate weight wins; ties break by the configured tone
// order, first listed wins. Empty or lexicon-free text yields the
// neutral tone with engagement 0.
//
// overrides, if non-nil, layers profile-specific weight adjustments on
// top of the base lexicons without touching the shared bundle.
func (c *ToneClassifier) Classify(text string, overrides map[string]Lexicon) (string, float64, map[string]float64) {
	bundle := c.store.Bundle()
	scores := make(map[string]float64, len(bundle.Lexicons))

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return bundle.NeutralTone, 0, scores
	}

	lower := strings.ToLower(trimmed)
	var counts map[string]int
	if bundle.Classifier.MatchMode == MatchWholeWord {
		counts = wordCounts(lower)
	}

	for tone, lex := range bundle.Lexicons {
		merged := lex
		if ov, ok := overrides[tone]; ok {
			merged = mergeLexicon(lex, ov)
		}
		scores[tone] = scoreLexicon(lower, counts, merged)
	}
	for tone, ov := range overrides {
		if _, ok := scores[tone]; !ok && len(ov) > 0 {
			scores[tone] = scoreLexicon(lower, counts, ov)
		}
	}

	winner, winning := bundle.NeutralTone, 0.0
	for _, tone := range bundle.ToneOrder {
		if s := scores[tone]; s > winning {
			winner, winning = tone, s
		}
	}
	// Override-only tones sit after the declared order.
	if extra := extraTones(scores, bundle.ToneOrder); len(extra) > 0 {
		for _, tone := range extra {
			if s := scores[tone]; s > winning {
				winner, winning = tone, s
			}
		}
	}

	if winning <= 0 {
		return bundle.NeutralTone, 0, scores
	}
	return winner, clamp01(winning / bundle.Classifier.Saturation), scores
}

// scoreLexicon sums entry weights found in the text. Multi-word phrases
// always match by substring; single words honor the configured mode.
func scoreLexicon(lower string, counts map[string]int, lex Lexicon) float64 {
	total := 0.0
	for entry, weight := range lex {
		if counts != nil && !strings.ContainsAny(entry, " \t") {
			total += float64(counts[entry]) * weight
			continue
		}
		total += float64(strings.Count(lower, entry)) * weight
	}
	return total
}

// wordCounts tokenizes on non-letter/digit boundaries.
func wordCounts(lower string) map[string]int {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		counts[w]++
	}
	return counts
}

func mergeLexicon(base, overrides Lexicon) Lexicon {
	merged := make(Lexicon, len(base)+len(overrides))
	for w, weight := range base {
		merged[w] = weight
	}
	for w, weight := range overrides {
		if weight <= 0 {
			delete(merged, strings.ToLower(w))
			continue
		}
		merged[strings.ToLower(w)] = weight
	}
	return merged
}

func extraTones(scores map[string]float64, order []string) []string {
	known := make(map[string]bool, len(order))
	for _, t := range order {
		known[t] = true
	}
	var extra []string
	for t := range scores {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return extra
}
