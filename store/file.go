package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	promptvault "github.com/TaoishTechy/PromptVault"
)

// FileVaultStore persists the whole library as one JSON document,
// compatible with the Vault export snapshot:
//
//	{"categories": {"General": {"<id>": {...record...}}}}
type FileVaultStore struct {
	path string
	mu   sync.Mutex
}

type fileSnapshot struct {
	Categories map[string]map[string]*promptvault.PromptRecord `json:"categories"`
}

// NewFileVaultStore opens (or lazily creates) the store at path.
func NewFileVaultStore(path string) *FileVaultStore {
	return &FileVaultStore{path: path}
}

// load reads the snapshot; a missing or corrupt file yields an empty
// library with the default category, matching the engine's fail-soft
// posture.
func (s *FileVaultStore) load() *fileSnapshot {
	snap := &fileSnapshot{Categories: map[string]map[string]*promptvault.PromptRecord{
		promptvault.DefaultCategory: {},
	}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return snap
	}
	var parsed fileSnapshot
	if json.Unmarshal(data, &parsed) != nil || parsed.Categories == nil {
		return snap
	}
	if _, ok := parsed.Categories[promptvault.DefaultCategory]; !ok {
		parsed.Categories[promptvault.DefaultCategory] = map[string]*promptvault.PromptRecord{}
	}
	return &parsed
}

func (s *FileVaultStore) save(snap *fileSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *FileVaultStore) SavePrompt(_ context.Context, record *promptvault.PromptRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("file store: record without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()

	// A record may have moved category; drop any previous placement.
	for _, prompts := range snap.Categories {
		delete(prompts, record.ID)
	}
	if snap.Categories[record.Category] == nil {
		snap.Categories[record.Category] = map[string]*promptvault.PromptRecord{}
	}
	copied := *record
	snap.Categories[record.Category][record.ID] = &copied
	return s.save(snap)
}

func (s *FileVaultStore) GetPrompt(_ context.Context, id string) (*promptvault.PromptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	for _, prompts := range snap.Categories {
		if record, ok := prompts[id]; ok {
			copied := *record
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("file store: prompt %s not found", id)
}

func (s *FileVaultStore) DeletePrompt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	for _, prompts := range snap.Categories {
		delete(prompts, id)
	}
	return s.save(snap)
}

func (s *FileVaultStore) ListPrompts(_ context.Context, category string) ([]*promptvault.PromptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	prompts := snap.Categories[category]
	out := make([]*promptvault.PromptRecord, 0, len(prompts))
	for _, record := range prompts {
		copied := *record
		out = append(out, &copied)
	}
	sortRecords(out)
	return out, nil
}

func (s *FileVaultStore) SaveCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	if snap.Categories[name] == nil {
		snap.Categories[name] = map[string]*promptvault.PromptRecord{}
	}
	return s.save(snap)
}

func (s *FileVaultStore) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	delete(snap.Categories, name)
	return s.save(snap)
}

func (s *FileVaultStore) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.load()
	out := make([]string, 0, len(snap.Categories))
	for name := range snap.Categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileVaultStore) Close() error { return nil }

// Compile-time interface check.
var _ promptvault.VaultStore = (*FileVaultStore)(nil)
