package promptvault

// ──────────────────────────────────────────────
// Configuration Bundle — typed, immutable lookup tables
// ──────────────────────────────────────────────

// TransformKind identifies the fixed semantics of a technique.
type TransformKind string

const (
	KindLexicalSubstitution TransformKind = "lexical-substitution"
	KindStructuralTemplate  TransformKind = "structural-template"
	KindSentenceRestructure TransformKind = "sentence-restructure"
	KindPacingInsertion     TransformKind = "pacing-insertion"
	KindScripted            TransformKind = "scripted"
)

// KnownTransformKinds lists every kind the pipeline can execute.
var KnownTransformKinds = map[TransformKind]bool{
	KindLexicalSubstitution: true,
	KindStructuralTemplate:  true,
	KindSentenceRestructure: true,
	KindPacingInsertion:     true,
	KindScripted:            true,
}

// Lexicon maps a lowercase word or phrase to its weight within one tone.
type Lexicon map[string]float64

// Technique is a configured text-transformation rule.
// Loaded once per bundle and identified by ID everywhere else.
type Technique struct {
	ID              string                 `json:"id"`
	StealthScore    float64                `json:"stealth_score"`    // 0.0-1.0, higher = preferred
	ApplicableTones []string               `json:"applicable_tones"` // empty = any tone
	MinLoad         float64                `json:"min_load"`
	MaxLoad         float64                `json:"max_load"`
	Conflicts       []string               `json:"conflicts"` // symmetric after normalization
	Kind            TransformKind          `json:"transform_kind"`
	Parameters      map[string]interface{} `json:"parameters"`
}

// AppliesTo reports whether the technique is a candidate for the given
// tone and load. An empty ApplicableTones set matches any tone.
func (t *Technique) AppliesTo(tone string, load float64) bool {
	if load < t.MinLoad || load > t.MaxLoad {
		return false
	}
	if len(t.ApplicableTones) == 0 {
		return true
	}
	for _, at := range t.ApplicableTones {
		if at == tone {
			return true
		}
	}
	return false
}

// ConflictsWith reports whether other is listed in this technique's
// conflict set. Normalization makes the relation symmetric, so checking
// one direction is enough once a bundle is loaded.
func (t *Technique) ConflictsWith(other string) bool {
	for _, c := range t.Conflicts {
		if c == other {
			return true
		}
	}
	return false
}

// StructuralTemplate re-frames content with named slots.
// A missing Body slot defaults to the bare {content} placeholder.
type StructuralTemplate struct {
	Opening string `json:"opening"`
	Body    string `json:"body"` // must contain {content}
	Closing string `json:"closing"`
}

// Theme holds per-tone UI hints (color keys, opaque to the engine).
type Theme map[string]string

// EmotionalProfile bundles lexicon overrides, target states for the
// pipeline, and tone themes under one selectable name.
type EmotionalProfile struct {
	Name             string             `json:"name"`
	TargetTone       string             `json:"target_tone"`       // substitution emotion
	CognitiveState   string             `json:"cognitive_state"`   // restructure target
	InteractionMode  string             `json:"interaction_mode"`  // template id hint
	LexiconOverrides map[string]Lexicon `json:"lexicon_overrides"` // tone -> word -> weight
	Themes           map[string]Theme   `json:"themes"`
}

// ClassifierConfig tunes the tone classifier.
type ClassifierConfig struct {
	MatchMode  string  `json:"match_mode"` // "whole-word" (default) or "substring"
	Saturation float64 `json:"saturation"` // engagement = winning sum / saturation
}

// EstimatorConfig tunes the cognitive load estimator.
type EstimatorConfig struct {
	SentenceWeight     float64  `json:"sentence_weight"`
	DiversityWeight    float64  `json:"diversity_weight"`
	MarkerWeight       float64  `json:"marker_weight"`
	ReferenceSentence  float64  `json:"reference_sentence_length"` // words per sentence at load 1.0
	ReferenceDiversity float64  `json:"reference_diversity"`       // distinct-word ratio at load 1.0
	MarkerDensity      float64  `json:"marker_density"`            // markers-per-word ratio at load 1.0
	Markers            []string `json:"markers"`                   // complexity marker words
	DefaultLoad        float64  `json:"default_load"`              // returned when the subsystem is off
}

// SelectorConfig tunes technique selection.
type SelectorConfig struct {
	MaxTechniques int `json:"max_techniques"` // default cap when the caller passes 0
}

// TrackerConfig tunes the activity tracker.
type TrackerConfig struct {
	WindowSeconds       int `json:"window_seconds"`        // sliding window length
	Capacity            int `json:"capacity"`              // max retained events
	ThresholdSeconds    int `json:"threshold_seconds"`     // summed duration that triggers intervention
	CooldownSeconds     int `json:"cooldown_seconds"`      // min gap between interventions
	DefaultEventSeconds int `json:"default_event_seconds"` // duration assumed for untimed events
}

// ConfigBundle is the validated, immutable configuration snapshot shared
// by every engine component. Reload swaps the whole bundle atomically;
// nothing ever mutates a published bundle.
type ConfigBundle struct {
	NeutralTone string
	ToneOrder   []string // tie-break priority, first listed wins
	Lexicons    map[string]Lexicon

	Classifier ClassifierConfig
	Estimator  EstimatorConfig
	Selector   SelectorConfig
	Tracker    TrackerConfig

	Techniques map[string]*Technique
	Templates  map[string]StructuralTemplate
	Profiles   map[string]*EmotionalProfile
	// ProfileKeywords maps profile name -> trigger words for detection.
	ProfileKeywords map[string][]string
	DefaultProfile  string
	Themes          map[string]Theme
}

// Technique returns the technique for id, or nil if absent.
func (b *ConfigBundle) Technique(id string) *Technique {
	return b.Techniques[id]
}

// Lexicon returns the lexicon for a tone category, or nil if absent.
func (b *ConfigBundle) Lexicon(tone string) Lexicon {
	return b.Lexicons[tone]
}

// ThemeFor returns the theme for a tone, falling back to the neutral theme.
func (b *ConfigBundle) ThemeFor(tone string) Theme {
	if th, ok := b.Themes[tone]; ok {
		return th
	}
	return b.Themes[b.NeutralTone]
}

// Profile returns a named profile, falling back to the default profile.
func (b *ConfigBundle) Profile(name string) *EmotionalProfile {
	if p, ok := b.Profiles[name]; ok {
		return p
	}
	return b.Profiles[b.DefaultProfile]
}

// DefaultBundle synthesizes the minimal built-in bundle used when a
// configuration source is missing or corrupt: a small fixed lexicon,
// zero techniques, one neutral profile. The engine stays operable.
func DefaultBundle() *ConfigBundle {
	neutral := "neutral"
	return &ConfigBundle{
		NeutralTone: neutral,
		ToneOrder:   []string{"urgency", "calm", "curiosity"},
		Lexicons: map[string]Lexicon{
			"urgency":   {"now": 2, "immediately": 3, "urgent": 2, "asap": 2},
			"calm":      {"gently": 2, "relax": 2, "steady": 1},
			"curiosity": {"explore": 2, "wonder": 2, "why": 1},
		},
		Classifier: ClassifierConfig{MatchMode: MatchWholeWord, Saturation: 6},
		Estimator: EstimatorConfig{
			SentenceWeight:     0.34,
			DiversityWeight:    0.33,
			MarkerWeight:       0.33,
			ReferenceSentence:  20,
			ReferenceDiversity: 0.7,
			MarkerDensity:      0.1,
			Markers:            []string{"algorithm", "architecture", "framework", "heuristic", "paradigm"},
			DefaultLoad:        0.5,
		},
		Selector: SelectorConfig{MaxTechniques: 3},
		Tracker: TrackerConfig{
			WindowSeconds:       600,
			Capacity:            256,
			ThresholdSeconds:    300,
			CooldownSeconds:     300,
			DefaultEventSeconds: 30,
		},
		Techniques: map[string]*Technique{},
		Templates:  map[string]StructuralTemplate{},
		Profiles: map[string]*EmotionalProfile{
			neutral: {Name: neutral},
		},
		ProfileKeywords: map[string][]string{},
		DefaultProfile:  neutral,
		Themes: map[string]Theme{
			neutral: {"accent": "#4CAF50", "background": "#2b2b2b"},
		},
	}
}
