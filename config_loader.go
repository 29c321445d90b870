package promptvault

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ──────────────────────────────────────────────
// Configuration Store — fail-soft loading, atomic swap
// ──────────────────────────────────────────────

// LoadStatus is the explicit outcome of a load attempt. There is no
// error path out of LoadBundle: a bad source degrades to defaults.
type LoadStatus string

const (
	StatusLoaded    LoadStatus = "loaded"
	StatusDefaulted LoadStatus = "defaulted"
)

// Source supplies the two raw configuration documents. Implementations
// own all file mechanics; the loader only ever sees bytes.
type Source interface {
	LexiconDocument() ([]byte, error)
	TechniqueDocument() ([]byte, error)
}

// FileSource reads the documents from disk, mirroring the classic
// config.json / techniques.json pair.
type FileSource struct {
	ConfigPath     string
	TechniquesPath string
}

func (s FileSource) LexiconDocument() ([]byte, error)   { return os.ReadFile(s.ConfigPath) }
func (s FileSource) TechniqueDocument() ([]byte, error) { return os.ReadFile(s.TechniquesPath) }

// BytesSource serves in-memory documents. Useful for tests and embedding.
type BytesSource struct {
	Config     []byte
	Techniques []byte
}

func (s BytesSource) LexiconDocument() ([]byte, error)   { return s.Config, nil }
func (s BytesSource) TechniqueDocument() ([]byte, error) { return s.Techniques, nil }

// ─── Raw document shapes ───

type rawConfigDoc struct {
	NeutralTone     string                        `json:"neutral_tone"`
	ToneOrder       []string                      `json:"tone_order"`
	Lexicons        map[string]map[string]float64 `json:"lexicons"`
	Classifier      ClassifierConfig              `json:"classifier"`
	Estimator       EstimatorConfig               `json:"estimator"`
	Selector        SelectorConfig                `json:"selector"`
	Tracker         TrackerConfig                 `json:"tracker"`
	Templates       map[string]StructuralTemplate `json:"structural_templates"`
	Profiles        map[string]*EmotionalProfile  `json:"profiles"`
	ProfileKeywords map[string][]string           `json:"profile_keywords"`
	DefaultProfile  string                        `json:"default_profile"`
	Themes          map[string]Theme              `json:"themes"`
}

type rawTechniqueDoc struct {
	Techniques []*Technique `json:"techniques"`
}

// LoadBundle parses and validates a configuration source.
//
// It is a total function: missing files, unreadable sources, and
// malformed JSON all degrade to DefaultBundle() and StatusDefaulted.
// Malformed individual records are dropped at this boundary so the
// analysis components never see invalid data.
func LoadBundle(src Source) (*ConfigBundle, LoadStatus) {
	if src == nil {
		return DefaultBundle(), StatusDefaulted
	}

	bundle := DefaultBundle()
	status := StatusLoaded

	data, err := src.LexiconDocument()
	var doc rawConfigDoc
	if err != nil || json.Unmarshal(data, &doc) != nil {
		status = StatusDefaulted
	} else {
		applyConfigDoc(bundle, &doc)
	}

	tdata, terr := src.TechniqueDocument()
	var tdoc rawTechniqueDoc
	if terr != nil || json.Unmarshal(tdata, &tdoc) != nil {
		status = StatusDefaulted
	} else {
		bundle.Techniques = normalizeTechniques(tdoc.Techniques)
	}

	normalizeBundle(bundle)
	return bundle, status
}

func applyConfigDoc(bundle *ConfigBundle, doc *rawConfigDoc) {
	if doc.NeutralTone != "" {
		bundle.NeutralTone = doc.NeutralTone
	}
	if len(doc.ToneOrder) > 0 {
		bundle.ToneOrder = doc.ToneOrder
	}
	if len(doc.Lexicons) > 0 {
		bundle.Lexicons = make(map[string]Lexicon, len(doc.Lexicons))
		for tone, words := range doc.Lexicons {
			lex := make(Lexicon, len(words))
			for word, weight := range words {
				if weight <= 0 {
					continue // non-positive weights can never win
				}
				lex[strings.ToLower(word)] = weight
			}
			if len(lex) > 0 {
				bundle.Lexicons[tone] = lex
			}
		}
	}
	if doc.Classifier.MatchMode != "" || doc.Classifier.Saturation > 0 {
		bundle.Classifier = doc.Classifier
	}
	if doc.Estimator.SentenceWeight > 0 || doc.Estimator.DiversityWeight > 0 || doc.Estimator.MarkerWeight > 0 {
		bundle.Estimator = doc.Estimator
	}
	if doc.Selector.MaxTechniques > 0 {
		bundle.Selector = doc.Selector
	}
	if doc.Tracker.WindowSeconds > 0 {
		bundle.Tracker = doc.Tracker
	}
	if len(doc.Templates) > 0 {
		bundle.Templates = doc.Templates
	}
	if len(doc.Profiles) > 0 {
		bundle.Profiles = doc.Profiles
		for name, p := range bundle.Profiles {
			if p != nil && p.Name == "" {
				p.Name = name
			}
		}
	}
	if len(doc.ProfileKeywords) > 0 {
		bundle.ProfileKeywords = doc.ProfileKeywords
	}
	if doc.DefaultProfile != "" {
		bundle.DefaultProfile = doc.DefaultProfile
	}
	if len(doc.Themes) > 0 {
		bundle.Themes = doc.Themes
	}
}

// normalizeTechniques drops records the pipeline could not honor and
// clamps numeric fields into range. Duplicate ids keep the first record.
func normalizeTechniques(list []*Technique) map[string]*Technique {
	out := make(map[string]*Technique, len(list))
	for _, t := range list {
		if t == nil || t.ID == "" {
			continue
		}
		if _, dup := out[t.ID]; dup {
			continue
		}
		if !KnownTransformKinds[t.Kind] {
			continue
		}
		t.StealthScore = clamp01(t.StealthScore)
		t.MinLoad = clamp01(t.MinLoad)
		t.MaxLoad = clamp01(t.MaxLoad)
		if t.MaxLoad < t.MinLoad {
			t.MinLoad, t.MaxLoad = t.MaxLoad, t.MinLoad
		}
		out[t.ID] = t
	}

	// Symmetrize conflicts and drop references to unknown ids.
	for id, t := range out {
		kept := t.Conflicts[:0]
		for _, c := range t.Conflicts {
			other, ok := out[c]
			if !ok || c == id {
				continue
			}
			kept = append(kept, c)
			if !other.ConflictsWith(id) {
				other.Conflicts = append(other.Conflicts, id)
			}
		}
		t.Conflicts = kept
	}
	return out
}

// normalizeBundle enforces the cross-table invariants every component
// relies on: a resolvable neutral tone, a total deterministic tone
// order, sane classifier/estimator constants, a valid default profile.
func normalizeBundle(b *ConfigBundle) {
	if b.NeutralTone == "" {
		b.NeutralTone = "neutral"
	}
	delete(b.Lexicons, b.NeutralTone) // neutral is the absence of a match

	// Tones present in the lexicon but missing from the declared order
	// are appended alphabetically so ties stay deterministic.
	seen := make(map[string]bool, len(b.ToneOrder))
	order := make([]string, 0, len(b.Lexicons))
	for _, tone := range b.ToneOrder {
		if _, ok := b.Lexicons[tone]; ok && !seen[tone] {
			order = append(order, tone)
			seen[tone] = true
		}
	}
	var rest []string
	for tone := range b.Lexicons {
		if !seen[tone] {
			rest = append(rest, tone)
		}
	}
	sort.Strings(rest)
	b.ToneOrder = append(order, rest...)

	if b.Classifier.MatchMode != MatchSubstring {
		b.Classifier.MatchMode = MatchWholeWord
	}
	if b.Classifier.Saturation <= 0 {
		b.Classifier.Saturation = 6
	}

	est := &b.Estimator
	if est.SentenceWeight < 0 {
		est.SentenceWeight = 0
	}
	if est.DiversityWeight < 0 {
		est.DiversityWeight = 0
	}
	if est.MarkerWeight < 0 {
		est.MarkerWeight = 0
	}
	if est.SentenceWeight+est.DiversityWeight+est.MarkerWeight == 0 {
		est.SentenceWeight, est.DiversityWeight, est.MarkerWeight = 0.34, 0.33, 0.33
	}
	if est.ReferenceSentence <= 0 {
		est.ReferenceSentence = 20
	}
	if est.ReferenceDiversity <= 0 || est.ReferenceDiversity > 1 {
		est.ReferenceDiversity = 0.7
	}
	if est.MarkerDensity <= 0 {
		est.MarkerDensity = 0.1
	}
	est.DefaultLoad = clamp01(est.DefaultLoad)

	if b.Selector.MaxTechniques <= 0 {
		b.Selector.MaxTechniques = 3
	}

	tr := &b.Tracker
	if tr.WindowSeconds <= 0 {
		tr.WindowSeconds = 600
	}
	if tr.Capacity <= 0 {
		tr.Capacity = 256
	}
	if tr.ThresholdSeconds <= 0 {
		tr.ThresholdSeconds = 300
	}
	if tr.CooldownSeconds <= 0 {
		tr.CooldownSeconds = 300
	}
	if tr.DefaultEventSeconds <= 0 {
		tr.DefaultEventSeconds = 30
	}

	if b.Profiles == nil {
		b.Profiles = map[string]*EmotionalProfile{}
	}
	if _, ok := b.Profiles[b.DefaultProfile]; !ok {
		b.DefaultProfile = b.NeutralTone
		if _, ok := b.Profiles[b.DefaultProfile]; !ok {
			b.Profiles[b.DefaultProfile] = &EmotionalProfile{Name: b.DefaultProfile}
		}
	}
	if b.Themes == nil {
		b.Themes = map[string]Theme{}
	}
	if _, ok := b.Themes[b.NeutralTone]; !ok {
		b.Themes[b.NeutralTone] = Theme{}
	}
}

// ─── ConfigStore ───

// ConfigStore owns the current bundle behind an atomic pointer.
// Readers always observe a complete bundle; Reload swaps wholesale.
type ConfigStore struct {
	bundle *atomic.Pointer[ConfigBundle]
	logger *zap.Logger
}

// NewConfigStore loads src immediately (falling back to defaults) and
// returns the store plus the initial load status.
func NewConfigStore(src Source, logger *zap.Logger) (*ConfigStore, LoadStatus) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle, status := LoadBundle(src)
	logger.Debug("configuration loaded",
		zap.String("status", string(status)),
		zap.Int("techniques", len(bundle.Techniques)),
		zap.Int("tones", len(bundle.Lexicons)))
	return &ConfigStore{
		bundle: atomic.NewPointer(bundle),
		logger: logger,
	}, status
}

// Bundle returns the current immutable bundle.
func (s *ConfigStore) Bundle() *ConfigBundle {
	return s.bundle.Load()
}

// Reload re-reads src and swaps the bundle atomically. Concurrent
// readers keep the bundle they already hold; nobody ever observes a
// partially-updated table.
func (s *ConfigStore) Reload(src Source) LoadStatus {
	bundle, status := LoadBundle(src)
	s.bundle.Store(bundle)
	s.logger.Debug("configuration reloaded",
		zap.String("status", string(status)),
		zap.Int("techniques", len(bundle.Techniques)))
	return status
}

// GetTechnique looks up a technique by id in the current bundle.
func (s *ConfigStore) GetTechnique(id string) (*Technique, bool) {
	t := s.Bundle().Technique(id)
	return t, t != nil
}

// TechniqueFilter narrows ListTechniques. Zero value matches everything.
type TechniqueFilter struct {
	Tone string        // only techniques applicable to this tone
	Kind TransformKind // only techniques of this kind
}

// ListTechniques returns matching techniques sorted by id.
func (s *ConfigStore) ListTechniques(filter TechniqueFilter) []*Technique {
	bundle := s.Bundle()
	var out []*Technique
	for _, t := range bundle.Techniques {
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Tone != "" && len(t.ApplicableTones) > 0 && !containsTone(t.ApplicableTones, filter.Tone) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsTone(tones []string, tone string) bool {
	for _, t := range tones {
		if t == tone {
			return true
		}
	}
	return false
}

// GetLexicon returns the lexicon for a tone category in the current bundle.
func (s *ConfigStore) GetLexicon(tone string) Lexicon {
	return s.Bundle().Lexicon(tone)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
