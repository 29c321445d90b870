package promptvault

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ──────────────────────────────────────────────
// Engine — analysis and enhancement facade
// ──────────────────────────────────────────────

// Features toggles the engine subsystems. A disabled subsystem yields
// its neutral baseline instead of erroring.
type Features struct {
	Emotional  bool // tone classification
	Cognitive  bool // load estimation
	Behavioral bool // activity tracking + interventions
}

// AllFeatures enables everything.
func AllFeatures() Features {
	return Features{Emotional: true, Cognitive: true, Behavioral: true}
}

// CognitiveMetadata is persisted alongside an enhanced prompt.
type CognitiveMetadata struct {
	ComplexityScore   float64  `json:"complexity_score"`
	TechniquesApplied []string `json:"techniques_applied"`
}

// EnhancementResult is the artifact of one enhancement pass. It is a
// derived copy: the caller's original content is untouched.
type EnhancementResult struct {
	EnhancedContent   string            `json:"enhanced_content"`
	TechniquesApplied []string          `json:"techniques_applied"`
	EmotionalMetadata AnalysisResult    `json:"emotional_metadata"`
	CognitiveMetadata CognitiveMetadata `json:"cognitive_metadata"`
	Effects           []TechniqueEffect `json:"effects,omitempty"`
	Profile           string            `json:"profile"`
	StealthScore      float64           `json:"stealth_score"` // mean stealth of applied techniques
	OriginalLength    int               `json:"original_length"`
	EnhancedLength    int               `json:"enhanced_length"`
}

// EnhanceOptions tunes one Enhance call. Zero value uses configured
// defaults and automatic profile detection.
type EnhanceOptions struct {
	MaxTechniques int    // 0 = configured cap
	Profile       string // named profile override; "" = detect
}

// Engine wires the analysis components over one shared ConfigStore.
//
// Everything except the activity tracker is a stateless pure function
// of its inputs and the current bundle; calls may interleave freely.
type Engine struct {
	store      *ConfigStore
	classifier *ToneClassifier
	estimator  *LoadEstimator
	selector   *TechniqueSelector
	pipeline   *Pipeline
	tracker    *ActivityTracker
	logger     *zap.Logger

	mu       sync.RWMutex
	features Features
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithLogger attaches a structured logger. Default is a nop logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFeatures sets the initial feature toggles. Default is all on.
func WithFeatures(f Features) EngineOption {
	return func(e *Engine) { e.features = f }
}

// NewEngine creates an engine over an already-constructed store.
func NewEngine(store *ConfigStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		logger:   zap.NewNop(),
		features: AllFeatures(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.classifier = NewToneClassifier(store)
	e.estimator = NewLoadEstimator(store)
	e.selector = NewTechniqueSelector(store)
	e.pipeline = NewPipeline(store, e.logger)
	e.tracker = NewActivityTracker(store)
	return e
}

// SetFeatures swaps the feature toggles at runtime.
func (e *Engine) SetFeatures(f Features) {
	e.mu.Lock()
	e.features = f
	e.mu.Unlock()
}

// FeatureState returns the current toggles.
func (e *Engine) FeatureState() Features {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.features
}

// Analyze classifies tone and estimates cognitive load for text.
// Always returns a well-formed result; disabled subsystems contribute
// their baselines (neutral tone / configured default load).
func (e *Engine) Analyze(text string) AnalysisResult {
	bundle := e.store.Bundle()
	features := e.FeatureState()

	result := AnalysisResult{Tone: bundle.NeutralTone}
	if features.Emotional {
		result.Tone, result.Engagement, result.Scores = e.classifier.Classify(text, nil)
	}
	if features.Cognitive {
		result.Load = e.estimator.Estimate(text)
	} else {
		result.Load = bundle.Estimator.DefaultLoad
	}
	return result
}

// Enhance selects and applies techniques to text, returning the
// enhanced variant plus the decision trail. Invalid input (empty or
// whitespace text) and an empty candidate set both yield a well-formed
// no-op result; Enhance never fails the caller.
func (e *Engine) Enhance(text, category string, opts EnhanceOptions) EnhancementResult {
	bundle := e.store.Bundle()

	result := EnhancementResult{
		EnhancedContent: text,
		Profile:         bundle.DefaultProfile,
		OriginalLength:  len(text),
		EnhancedLength:  len(text),
		EmotionalMetadata: AnalysisResult{
			Tone: bundle.NeutralTone,
			Load: bundle.Estimator.DefaultLoad,
		},
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	var profile *EmotionalProfile
	if opts.Profile != "" {
		profile = bundle.Profile(opts.Profile)
	} else {
		profile = DetectProfile(bundle, text, category)
	}
	result.Profile = profile.Name

	features := e.FeatureState()
	analysis := AnalysisResult{Tone: bundle.NeutralTone, Load: bundle.Estimator.DefaultLoad}
	if features.Emotional {
		analysis.Tone, analysis.Engagement, analysis.Scores = e.classifier.Classify(text, profile.LexiconOverrides)
	}
	if features.Cognitive {
		analysis.Load = e.estimator.Estimate(text)
	}
	result.EmotionalMetadata = analysis

	ids := e.selector.Select(analysis.Tone, analysis.Load, opts.MaxTechniques)
	enhanced, applied, effects := e.pipeline.Apply(text, ids, profile)

	result.EnhancedContent = enhanced
	result.TechniquesApplied = applied
	result.Effects = effects
	result.EnhancedLength = len(enhanced)
	result.StealthScore = meanStealth(bundle, applied)
	result.CognitiveMetadata = CognitiveMetadata{
		ComplexityScore:   analysis.Load,
		TechniquesApplied: applied,
	}

	e.logger.Debug("enhancement complete",
		zap.String("tone", analysis.Tone),
		zap.Float64("load", analysis.Load),
		zap.Strings("selected", ids),
		zap.Strings("applied", applied))
	return result
}

// TrackActivity records a user action for behavioral analysis.
// No-op while the behavioral subsystem is disabled.
func (e *Engine) TrackActivity(action ActionType, metadata map[string]interface{}) {
	if !e.FeatureState().Behavioral {
		return
	}
	e.tracker.Track(action, metadata)
}

// ShouldIntervene reports whether the tracker recommends a pause.
// Always false while the behavioral subsystem is disabled.
func (e *Engine) ShouldIntervene() bool {
	if !e.FeatureState().Behavioral {
		return false
	}
	return e.tracker.ShouldIntervene()
}

// ActivitySummary exposes the tracker's window aggregates for display.
func (e *Engine) ActivitySummary() ActivitySummary {
	return e.tracker.Summary()
}

// ReloadConfiguration re-reads the source and swaps the bundle
// atomically. The returned status is the only soft warning the engine
// ever reports.
func (e *Engine) ReloadConfiguration(src Source) LoadStatus {
	return e.store.Reload(src)
}

// ThemeFor returns the UI theme hints for a tone.
func (e *Engine) ThemeFor(tone string) Theme {
	return e.store.Bundle().ThemeFor(tone)
}

func meanStealth(bundle *ConfigBundle, applied []string) float64 {
	if len(applied) == 0 {
		return 0
	}
	total := 0.0
	for _, id := range applied {
		if t := bundle.Technique(id); t != nil {
			total += t.StealthScore
		}
	}
	return clamp01(total / float64(len(applied)))
}
