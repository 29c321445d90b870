package promptvault

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// Prompt records — persisted library entries
// ──────────────────────────────────────────────

// PromptRecord is one stored prompt. The psychological fields are
// optional: records written before analysis existed simply lack them,
// which means "not yet analyzed", never an error.
type PromptRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	LastModified time.Time `json:"last_modified"`

	EmotionalMetadata *AnalysisResult     `json:"emotional_metadata,omitempty"`
	CognitiveMetadata *CognitiveMetadata  `json:"cognitive_metadata,omitempty"`
	Enhancements      []EnhancementResult `json:"enhancements,omitempty"`
}

// NewPromptRecord creates a record with a fresh id.
func NewPromptRecord(title, content, category string) *PromptRecord {
	return &PromptRecord{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      content,
		Category:     category,
		LastModified: time.Now(),
	}
}

// Analyzed reports whether the record carries analysis metadata.
func (r *PromptRecord) Analyzed() bool {
	return r.EmotionalMetadata != nil && r.CognitiveMetadata != nil
}

// AttachAnalysis stores an analysis snapshot on the record.
func (r *PromptRecord) AttachAnalysis(a AnalysisResult) {
	snapshot := a
	r.EmotionalMetadata = &snapshot
	r.CognitiveMetadata = &CognitiveMetadata{ComplexityScore: a.Load}
}

// AttachEnhancement appends a derived variant. Content is never
// overwritten: the original prompt stays retrievable alongside every
// enhancement ever produced for it.
func (r *PromptRecord) AttachEnhancement(res EnhancementResult) {
	r.Enhancements = append(r.Enhancements, res)
	snapshot := res.EmotionalMetadata
	r.EmotionalMetadata = &snapshot
	cog := res.CognitiveMetadata
	r.CognitiveMetadata = &cog
	r.LastModified = time.Now()
}

// LatestEnhancement returns the most recent variant, or nil.
func (r *PromptRecord) LatestEnhancement() *EnhancementResult {
	if len(r.Enhancements) == 0 {
		return nil
	}
	return &r.Enhancements[len(r.Enhancements)-1]
}
