package promptvault_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	promptvault "github.com/TaoishTechy/PromptVault"
	"github.com/TaoishTechy/PromptVault/store"
)

func newTestVault(t *testing.T) *promptvault.Vault {
	t.Helper()
	src := promptvault.BytesSource{
		Config: []byte(`{
			"tone_order": ["urgency", "calm"],
			"lexicons": {
				"urgency": {"now": 2, "immediately": 3, "urgent": 2},
				"calm": {"gently": 2}
			},
			"classifier": {"match_mode": "whole-word", "saturation": 6},
			"selector": {"max_techniques": 3}
		}`),
		Techniques: []byte(`{
			"techniques": [
				{"id": "pace", "stealth_score": 0.9, "min_load": 0, "max_load": 1,
				 "transform_kind": "pacing-insertion", "parameters": {"phrase": "—", "every": 1}}
			]
		}`),
	}
	cfg, status := promptvault.NewConfigStore(src, nil)
	if status != promptvault.StatusLoaded {
		t.Fatalf("config status %s", status)
	}
	engine := promptvault.NewEngine(cfg)
	return promptvault.NewVault(store.NewMemoryVaultStore(), engine, nil)
}

func TestVault_SaveAnalyzesAndDefaultsCategory(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	record := promptvault.NewPromptRecord("deploy", "Do it now immediately.", "")
	if err := v.SavePrompt(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	if record.Category != promptvault.DefaultCategory {
		t.Fatalf("empty category must default, got %q", record.Category)
	}

	got, err := v.GetPrompt(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Analyzed() {
		t.Fatal("saved record must carry analysis metadata")
	}
	if got.EmotionalMetadata.Tone != "urgency" {
		t.Fatalf("analysis tone = %q", got.EmotionalMetadata.Tone)
	}
}

func TestVault_SaveValidation(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if err := v.SavePrompt(ctx, nil); err == nil {
		t.Fatal("nil record must be rejected")
	}
	if err := v.SavePrompt(ctx, promptvault.NewPromptRecord("", "content", "")); err == nil {
		t.Fatal("empty title must be rejected")
	}
	if err := v.SavePrompt(ctx, promptvault.NewPromptRecord("title", "   ", "")); err == nil {
		t.Fatal("blank content must be rejected")
	}
}

func TestVault_EnhancePreservesOriginalContent(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	original := "Ship the fix now. Tell everyone immediately."
	record := promptvault.NewPromptRecord("hotfix", original, "Ops")
	if err := v.SavePrompt(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	enhanced, err := v.EnhancePrompt(ctx, record.ID, promptvault.EnhanceOptions{})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if enhanced.Content != original {
		t.Fatalf("original content must never be replaced, got %q", enhanced.Content)
	}
	variant := enhanced.LatestEnhancement()
	if variant == nil {
		t.Fatal("enhancement must be attached")
	}
	if variant.EnhancedContent == original {
		t.Fatal("variant should differ from the original")
	}

	// The stored copy reflects the attachment.
	stored, err := v.GetPrompt(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Enhancements) != 1 {
		t.Fatalf("stored record enhancements = %d", len(stored.Enhancements))
	}
}

func TestVault_EnhanceMissingPrompt(t *testing.T) {
	v := newTestVault(t)
	if _, err := v.EnhancePrompt(context.Background(), "ghost", promptvault.EnhanceOptions{}); err == nil {
		t.Fatal("enhancing a missing prompt must error")
	}
}

func TestVault_DeletePrompt(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	record := promptvault.NewPromptRecord("tmp", "throwaway text", "")
	if err := v.SavePrompt(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := v.DeletePrompt(ctx, record.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := v.GetPrompt(ctx, record.ID); err == nil {
		t.Fatal("deleted prompt must not resolve")
	}
}

func TestVault_CategoryLifecycle(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if err := v.AddCategory(ctx, "Research"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := v.AddCategory(ctx, "  "); err == nil {
		t.Fatal("blank category name must be rejected")
	}
	if err := v.RemoveCategory(ctx, promptvault.DefaultCategory); err == nil {
		t.Fatal("default category is protected")
	}
	if err := v.RemoveCategory(ctx, "Research"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	categories, err := v.Categories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, c := range categories {
		if c == "Research" {
			t.Fatal("removed category still listed")
		}
	}
}

func TestVault_ExportImportRoundtrip(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	a := promptvault.NewPromptRecord("a", "calm and steady words", "Writing")
	b := promptvault.NewPromptRecord("b", "act now immediately", "Ops")
	for _, r := range []*promptvault.PromptRecord{a, b} {
		if err := v.SavePrompt(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.Title, err)
		}
	}

	data, err := v.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var snap promptvault.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if _, ok := snap.Categories["Writing"]; !ok {
		t.Fatalf("export missing category, got %v", snap.Categories)
	}

	fresh := newTestVault(t)
	if err := fresh.Import(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, err := fresh.GetPrompt(ctx, a.ID)
	if err != nil {
		t.Fatalf("imported prompt missing: %v", err)
	}
	if got.Content != a.Content || got.Category != "Writing" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestVault_ImportRejectsInvalidFormat(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if err := v.Import(ctx, []byte(`not json`)); err == nil {
		t.Fatal("malformed json must be rejected")
	}
	err := v.Import(ctx, []byte(`{"something_else": {}}`))
	if err == nil || !strings.Contains(err.Error(), "invalid database format") {
		t.Fatalf("snapshot without categories must be rejected, got %v", err)
	}
}
