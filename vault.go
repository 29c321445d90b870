package promptvault

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ──────────────────────────────────────────────
// Vault — prompt library operations over a pluggable store
// ──────────────────────────────────────────────

// DefaultCategory always exists and cannot be removed.
const DefaultCategory = "General"

// VaultStore persists prompt records and categories. Implementations
// live in the store subpackage (in-memory, JSON file, Redis).
type VaultStore interface {
	SavePrompt(ctx context.Context, record *PromptRecord) error
	GetPrompt(ctx context.Context, id string) (*PromptRecord, error)
	DeletePrompt(ctx context.Context, id string) error
	ListPrompts(ctx context.Context, category string) ([]*PromptRecord, error)

	SaveCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]string, error)

	Close() error
}

// Vault manages the prompt library and routes content through the
// engine for analysis and enhancement.
type Vault struct {
	store  VaultStore
	engine *Engine
	logger *zap.Logger
}

// NewVault wires a vault over a store and an engine. logger may be nil.
func NewVault(store VaultStore, engine *Engine, logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{store: store, engine: engine, logger: logger}
}

// SavePrompt creates or updates a record, analyzing its content and
// tracking the action. An empty category lands in DefaultCategory.
func (v *Vault) SavePrompt(ctx context.Context, record *PromptRecord) error {
	if record == nil {
		return fmt.Errorf("save prompt: nil record")
	}
	if strings.TrimSpace(record.Title) == "" || strings.TrimSpace(record.Content) == "" {
		return fmt.Errorf("save prompt: title and content are required")
	}
	if record.Category == "" {
		record.Category = DefaultCategory
	}
	record.LastModified = time.Now()

	if v.engine != nil {
		record.AttachAnalysis(v.engine.Analyze(record.Content))
	}
	if err := v.store.SaveCategory(ctx, record.Category); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	if err := v.store.SavePrompt(ctx, record); err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}
	if v.engine != nil {
		v.engine.TrackActivity(ActionSave, map[string]interface{}{
			"category":       record.Category,
			"content_length": len(record.Content),
		})
	}
	return nil
}

// GetPrompt fetches a record by id.
func (v *Vault) GetPrompt(ctx context.Context, id string) (*PromptRecord, error) {
	return v.store.GetPrompt(ctx, id)
}

// ListPrompts returns the records in a category.
func (v *Vault) ListPrompts(ctx context.Context, category string) ([]*PromptRecord, error) {
	return v.store.ListPrompts(ctx, category)
}

// DeletePrompt removes a record by id.
func (v *Vault) DeletePrompt(ctx context.Context, id string) error {
	if err := v.store.DeletePrompt(ctx, id); err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if v.engine != nil {
		v.engine.TrackActivity(ActionDelete, nil)
	}
	return nil
}

// EnhancePrompt runs the engine over a stored record and attaches the
// result as a derived variant. The stored original content is never
// replaced.
func (v *Vault) EnhancePrompt(ctx context.Context, id string, opts EnhanceOptions) (*PromptRecord, error) {
	if v.engine == nil {
		return nil, fmt.Errorf("enhance prompt: no engine attached")
	}
	record, err := v.store.GetPrompt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("enhance prompt: %w", err)
	}
	result := v.engine.Enhance(record.Content, record.Category, opts)
	record.AttachEnhancement(result)
	if err := v.store.SavePrompt(ctx, record); err != nil {
		return nil, fmt.Errorf("enhance prompt: %w", err)
	}
	v.engine.TrackActivity(ActionEnhance, map[string]interface{}{
		"category":   record.Category,
		"techniques": len(result.TechniquesApplied),
	})
	return record, nil
}

// AddCategory registers a new category name.
func (v *Vault) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("add category: empty name")
	}
	return v.store.SaveCategory(ctx, name)
}

// RemoveCategory deletes a category and its prompts. DefaultCategory
// is protected.
func (v *Vault) RemoveCategory(ctx context.Context, name string) error {
	if name == DefaultCategory {
		return fmt.Errorf("remove category: %q cannot be removed", DefaultCategory)
	}
	return v.store.DeleteCategory(ctx, name)
}

// Categories lists known category names.
func (v *Vault) Categories(ctx context.Context) ([]string, error) {
	return v.store.ListCategories(ctx)
}

// ─── Export / import ───

// Snapshot is the interchange format for export and import.
// Categories maps category name -> prompt id -> record.
type Snapshot struct {
	Categories map[string]map[string]*PromptRecord `json:"categories"`
}

// Export serializes the whole library.
func (v *Vault) Export(ctx context.Context) ([]byte, error) {
	snap := Snapshot{Categories: make(map[string]map[string]*PromptRecord)}
	categories, err := v.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	for _, cat := range categories {
		prompts, err := v.store.ListPrompts(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", cat, err)
		}
		snap.Categories[cat] = make(map[string]*PromptRecord, len(prompts))
		for _, p := range prompts {
			snap.Categories[cat][p.ID] = p
		}
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import loads a snapshot produced by Export. The format is validated
// up front; a snapshot without a categories table is rejected before
// anything is written.
func (v *Vault) Import(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if snap.Categories == nil {
		return fmt.Errorf("import: invalid database format")
	}
	for cat, prompts := range snap.Categories {
		if err := v.store.SaveCategory(ctx, cat); err != nil {
			return fmt.Errorf("import category %q: %w", cat, err)
		}
		for id, record := range prompts {
			if record == nil {
				continue
			}
			if record.ID == "" {
				record.ID = id
			}
			record.Category = cat
			if err := v.store.SavePrompt(ctx, record); err != nil {
				return fmt.Errorf("import prompt %q: %w", id, err)
			}
		}
	}
	v.logger.Debug("import complete", zap.Int("categories", len(snap.Categories)))
	return nil
}
