package promptvault

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// ──────────────────────────────────────────────
// Transformation Pipeline — ordered technique application
// ──────────────────────────────────────────────

// TechniqueEffect records what one technique did to the text.
type TechniqueEffect struct {
	TechniqueID string        `json:"technique_id"`
	Kind        TransformKind `json:"transform_kind"`
	Applied     bool          `json:"applied"`
	Detail      string        `json:"detail,omitempty"` // skip reason or change summary
	BeforeLen   int           `json:"before_len"`
	AfterLen    int           `json:"after_len"`
}

// Pipeline applies selected techniques strictly in selection order.
// Each step consumes the previous step's output as an immutable value;
// the caller's original text is never mutated.
type Pipeline struct {
	store  *ConfigStore
	logger *zap.Logger
}

// NewPipeline creates a pipeline reading from store.
func NewPipeline(store *ConfigStore, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: store, logger: logger}
}

// Apply runs the techniques identified by ids over text, in order.
// A technique with missing parameters, a degenerate (empty) result, or
// no effect on the text is skipped and excluded from the applied list;
// the pipeline continues with the remaining techniques. Apply never
// fails: worst case the input text comes back unchanged.
func (p *Pipeline) Apply(text string, ids []string, profile *EmotionalProfile) (string, []string, []TechniqueEffect) {
	bundle := p.store.Bundle()
	current := text
	applied := make([]string, 0, len(ids))
	effects := make([]TechniqueEffect, 0, len(ids))

	for _, id := range ids {
		tech := bundle.Technique(id)
		effect := TechniqueEffect{TechniqueID: id, BeforeLen: len(current)}
		if tech == nil {
			// Stale id (e.g. from an older bundle) — never re-applied.
			effect.Detail = "unknown technique"
			effect.AfterLen = len(current)
			effects = append(effects, effect)
			continue
		}
		effect.Kind = tech.Kind

		next, detail := p.runTechnique(current, tech, text, profile, bundle)
		effect.Detail = detail
		if next == "" || next == current {
			if next == current && detail == "" {
				effect.Detail = "no effect"
			}
			effect.AfterLen = len(current)
			effects = append(effects, effect)
			p.logger.Debug("technique skipped",
				zap.String("technique", id),
				zap.String("reason", effect.Detail))
			continue
		}

		current = next
		effect.Applied = true
		effect.AfterLen = len(current)
		effects = append(effects, effect)
		applied = append(applied, id)
	}
	return current, applied, effects
}

// runTechnique dispatches on the transform kind. It returns the next
// text (empty or unchanged means skip) plus a human-readable detail.
// original is the pipeline's untouched input, used only for seeding so
// determinism does not depend on which earlier techniques applied.
func (p *Pipeline) runTechnique(current string, tech *Technique, original string, profile *EmotionalProfile, bundle *ConfigBundle) (string, string) {
	switch tech.Kind {
	case KindLexicalSubstitution:
		return applyLexicalSubstitution(current, tech, original)
	case KindStructuralTemplate:
		return applyStructuralTemplate(current, tech, profile, bundle)
	case KindSentenceRestructure:
		return applySentenceRestructure(current, tech)
	case KindPacingInsertion:
		return applyPacingInsertion(current, tech)
	case KindScripted:
		return applyScripted(current, tech)
	}
	return current, "unsupported kind"
}

// ─── lexical-substitution ───

// Parameters:
//
//	"substitutions": {"trigger": "synonym"} or {"trigger": ["a", "b"]}
//	"mode": "first" (default) or "random"
//
// Random mode stays reproducible: the PRNG is seeded from the original
// input text and the technique id, never from the clock.
func applyLexicalSubstitution(text string, tech *Technique, original string) (string, string) {
	subs := paramStringLists(tech.Parameters, "substitutions")
	if len(subs) == 0 {
		return text, "missing substitutions parameter"
	}

	var rng *rand.Rand
	if paramString(tech.Parameters, "mode", "first") == "random" {
		seed := xxhash.Sum64String(original) ^ xxhash.Sum64String(tech.ID)
		rng = rand.New(rand.NewSource(int64(seed)))
	}

	replaced := 0
	out := replaceWords(text, func(word string) string {
		options, ok := subs[strings.ToLower(word)]
		if !ok || len(options) == 0 {
			return word
		}
		pick := options[0]
		if rng != nil {
			pick = options[rng.Intn(len(options))]
		}
		replaced++
		return matchCase(word, pick)
	})
	if replaced == 0 {
		return text, "no trigger words present"
	}
	return out, ""
}

// replaceWords rewrites each word token via fn, preserving all
// punctuation and whitespace between tokens.
func replaceWords(text string, fn func(string) string) string {
	var out strings.Builder
	out.Grow(len(text))
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			out.WriteString(fn(word.String()))
			word.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			word.WriteRune(r)
			continue
		}
		flush()
		out.WriteRune(r)
	}
	flush()
	return out.String()
}

// matchCase copies leading-capital casing from the source word.
func matchCase(src, repl string) string {
	if src == "" || repl == "" {
		return repl
	}
	r := []rune(src)
	if unicode.IsUpper(r[0]) {
		rr := []rune(repl)
		rr[0] = unicode.ToUpper(rr[0])
		return string(rr)
	}
	return repl
}

// ─── structural-template ───

// Parameters:
//
//	"template": id of a configured structural template
//	"opening" / "body" / "closing": inline slot overrides
//
// The body slot must contain {content}; a missing body defaults to the
// bare placeholder so the original text always survives.
func applyStructuralTemplate(text string, tech *Technique, profile *EmotionalProfile, bundle *ConfigBundle) (string, string) {
	tmplID := paramString(tech.Parameters, "template", "")
	if tmplID == "" && profile != nil {
		tmplID = profile.InteractionMode
	}

	var tmpl StructuralTemplate
	found := false
	if tmplID != "" {
		tmpl, found = bundle.Templates[tmplID]
	}
	if o := paramString(tech.Parameters, "opening", ""); o != "" {
		tmpl.Opening = o
		found = true
	}
	if b := paramString(tech.Parameters, "body", ""); b != "" {
		tmpl.Body = b
		found = true
	}
	if c := paramString(tech.Parameters, "closing", ""); c != "" {
		tmpl.Closing = c
		found = true
	}
	if !found {
		return text, "no template configured"
	}

	body := tmpl.Body
	if body == "" {
		body = "{content}"
	}
	if !strings.Contains(body, "{content}") {
		return text, "template body lacks {content} slot"
	}

	parts := make([]string, 0, 3)
	if tmpl.Opening != "" {
		parts = append(parts, tmpl.Opening)
	}
	parts = append(parts, strings.ReplaceAll(body, "{content}", text))
	if tmpl.Closing != "" {
		parts = append(parts, tmpl.Closing)
	}
	return strings.Join(parts, "\n\n"), ""
}

// ─── sentence-restructure ───

// Parameters:
//
//	"pattern": "lead-with-conclusion" | "split-long" | "merge-short"
//	"max_words": split threshold for split-long (default 15)
//	"min_words": merge threshold for merge-short (default 4)
func applySentenceRestructure(text string, tech *Technique) (string, string) {
	pattern := paramString(tech.Parameters, "pattern", "")
	if pattern == "" {
		return text, "missing pattern parameter"
	}
	sentences := splitSentencesKeep(text)
	if len(sentences) < 2 {
		return text, "too few sentences"
	}

	switch pattern {
	case "lead-with-conclusion":
		reordered := make([]sentence, 0, len(sentences))
		reordered = append(reordered, sentences[len(sentences)-1])
		reordered = append(reordered, sentences[:len(sentences)-1]...)
		return joinSentences(reordered), ""

	case "split-long":
		maxWords := paramInt(tech.Parameters, "max_words", 15)
		if maxWords < 2 {
			maxWords = 2
		}
		var out []sentence
		for _, s := range sentences {
			words := strings.Fields(s.text)
			if len(words) <= maxWords {
				out = append(out, s)
				continue
			}
			mid := len(words) / 2
			out = append(out,
				sentence{text: strings.Join(words[:mid], " "), terminator: "."},
				sentence{text: strings.Join(words[mid:], " "), terminator: s.terminator})
		}
		return joinSentences(out), ""

	case "merge-short":
		minWords := paramInt(tech.Parameters, "min_words", 4)
		var out []sentence
		for _, s := range sentences {
			n := len(out)
			if n > 0 && len(strings.Fields(out[n-1].text)) < minWords {
				out[n-1].text += ", " + lowerFirst(s.text)
				out[n-1].terminator = s.terminator
				continue
			}
			out = append(out, s)
		}
		return joinSentences(out), ""
	}
	return text, "unknown pattern"
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// ─── pacing-insertion ───

// Parameters:
//
//	"phrase": transition/pause phrase to insert
//	"every": insert after every Nth sentence (default 2)
func applyPacingInsertion(text string, tech *Technique) (string, string) {
	phrase := paramString(tech.Parameters, "phrase", "")
	if phrase == "" {
		return text, "missing phrase parameter"
	}
	every := paramInt(tech.Parameters, "every", 2)
	if every < 1 {
		every = 1
	}
	sentences := splitSentencesKeep(text)
	if len(sentences) < every {
		return text, "too few sentences"
	}

	var out strings.Builder
	for i, s := range sentences {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(s.text)
		out.WriteString(s.terminator)
		if (i+1)%every == 0 {
			out.WriteString(" ")
			out.WriteString(strings.TrimSpace(phrase))
		}
	}
	return strings.TrimSpace(out.String()), ""
}

// ─── sentence segmentation with terminators ───

type sentence struct {
	text       string
	terminator string // ".", "!", "?", possibly repeated; "" for a trailing fragment
}

// splitSentencesKeep cuts text on terminal punctuation, keeping each
// sentence's terminator so transforms can rebuild faithful output.
func splitSentencesKeep(text string) []sentence {
	var out []sentence
	var b strings.Builder
	var term strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			t := term.String()
			if t == "" {
				t = "."
			}
			out = append(out, sentence{text: s, terminator: t})
		}
		b.Reset()
		term.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			term.WriteRune(r)
		default:
			if term.Len() > 0 {
				flush()
			}
			b.WriteRune(r)
		}
	}
	if term.Len() > 0 || b.Len() > 0 {
		flush()
	}
	return out
}

func joinSentences(sentences []sentence) string {
	var out strings.Builder
	for i, s := range sentences {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(s.text)
		out.WriteString(s.terminator)
	}
	return out.String()
}

// ─── parameter helpers ───

// Technique parameters arrive as opaque JSON values; these helpers
// coerce them defensively so a malformed entry degrades to a skip
// instead of a panic.

func paramString(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// paramStringLists reads a map of string -> string-or-string-list,
// lowercasing keys for case-insensitive trigger matching.
func paramStringLists(params map[string]interface{}, key string) map[string][]string {
	raw, ok := params[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			if val != "" {
				out[strings.ToLower(k)] = []string{val}
			}
		case []interface{}:
			var list []string
			for _, item := range val {
				if s, ok := item.(string); ok && s != "" {
					list = append(list, s)
				}
			}
			if len(list) > 0 {
				out[strings.ToLower(k)] = list
			}
		}
	}
	return out
}
