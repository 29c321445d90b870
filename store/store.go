// Package store provides VaultStore backends for the prompt library:
// an in-memory store for tests and embedding, a JSON file store, and a
// Redis store.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	promptvault "github.com/TaoishTechy/PromptVault"
)

// MemoryVaultStore is a thread-safe, in-memory VaultStore.
// Data is lost on restart.
type MemoryVaultStore struct {
	mu         sync.RWMutex
	prompts    map[string]*promptvault.PromptRecord
	categories map[string]bool
}

// NewMemoryVaultStore creates an empty in-memory store with the
// default category registered.
func NewMemoryVaultStore() *MemoryVaultStore {
	return &MemoryVaultStore{
		prompts:    make(map[string]*promptvault.PromptRecord),
		categories: map[string]bool{promptvault.DefaultCategory: true},
	}
}

func (s *MemoryVaultStore) SavePrompt(_ context.Context, record *promptvault.PromptRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("memory store: record without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.prompts[record.ID] = &copied
	s.categories[record.Category] = true
	return nil
}

func (s *MemoryVaultStore) GetPrompt(_ context.Context, id string) (*promptvault.PromptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.prompts[id]
	if !ok {
		return nil, fmt.Errorf("memory store: prompt %s not found", id)
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryVaultStore) DeletePrompt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prompts, id)
	return nil
}

func (s *MemoryVaultStore) ListPrompts(_ context.Context, category string) ([]*promptvault.PromptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*promptvault.PromptRecord
	for _, record := range s.prompts {
		if record.Category == category {
			copied := *record
			out = append(out, &copied)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryVaultStore) SaveCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[name] = true
	return nil
}

func (s *MemoryVaultStore) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, name)
	for id, record := range s.prompts {
		if record.Category == name {
			delete(s.prompts, id)
		}
	}
	return nil
}

func (s *MemoryVaultStore) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.categories))
	for name := range s.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryVaultStore) Close() error { return nil }

// sortRecords orders newest first, ties by id for determinism.
func sortRecords(records []*promptvault.PromptRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].LastModified.Equal(records[j].LastModified) {
			return records[i].LastModified.After(records[j].LastModified)
		}
		return records[i].ID < records[j].ID
	})
}

// Compile-time interface check.
var _ promptvault.VaultStore = (*MemoryVaultStore)(nil)
