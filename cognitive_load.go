package promptvault

import (
	"strings"
	"unicode"
)

// ──────────────────────────────────────────────
// Cognitive Load Estimator — structural complexity scoring
// ──────────────────────────────────────────────

// LoadEstimator computes a 0.0-1.0 complexity score from structural and
// lexical features. Deterministic, no randomness, no hidden state.
type LoadEstimator struct {
	store *ConfigStore
}

// NewLoadEstimator creates an estimator reading from store.
func NewLoadEstimator(store *ConfigStore) *LoadEstimator {
	return &LoadEstimator{store: store}
}

// Estimate blends three clamped sub-scores via the configured weights:
// average sentence length vs the reference length, distinct-word ratio
// vs the reference ratio, and complexity-marker density. Empty text
// scores 0.
func (e *LoadEstimator) Estimate(text string) float64 {
	bundle := e.store.Bundle()
	cfg := bundle.Estimator

	words := tokenize(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	sentences := splitSentences(text)
	sentenceCount := len(sentences)
	if sentenceCount == 0 {
		sentenceCount = 1
	}
	avgSentence := float64(len(words)) / float64(sentenceCount)
	sentenceScore := clamp01(avgSentence / cfg.ReferenceSentence)

	distinct := make(map[string]bool, len(words))
	for _, w := range words {
		distinct[w] = true
	}
	diversity := float64(len(distinct)) / float64(len(words))
	diversityScore := clamp01(diversity / cfg.ReferenceDiversity)

	markerHits := 0
	for _, m := range cfg.Markers {
		if ml := strings.ToLower(m); ml != "" {
			markerHits += strings.Count(strings.ToLower(text), ml)
		}
	}
	markerScore := clamp01((float64(markerHits) / float64(len(words))) / cfg.MarkerDensity)

	totalWeight := cfg.SentenceWeight + cfg.DiversityWeight + cfg.MarkerWeight
	load := (sentenceScore*cfg.SentenceWeight +
		diversityScore*cfg.DiversityWeight +
		markerScore*cfg.MarkerWeight) / totalWeight
	return clamp01(load)
}

// tokenize splits lowercase text into word tokens.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// splitSentences cuts text on terminal punctuation, dropping blanks.
// Shared by the estimator and the transformation pipeline so both see
// the same sentence boundaries.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
