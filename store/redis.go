package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	promptvault "github.com/TaoishTechy/PromptVault"
)

// RedisVaultStore persists prompt records in Redis.
//
// Key layout:
//
//	{prefix}:prompt:{id}     JSON-encoded record
//	{prefix}:category:{name} set of prompt ids
//	{prefix}:categories      set of category names
type RedisVaultStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisVaultConfig configures the Redis store.
type RedisVaultConfig struct {
	Prefix string // key prefix, default "vault"
}

// NewRedisVaultStore creates a VaultStore backed by Redis.
func NewRedisVaultStore(client redis.UniversalClient, config ...RedisVaultConfig) *RedisVaultStore {
	cfg := RedisVaultConfig{Prefix: "vault"}
	if len(config) > 0 && config[0].Prefix != "" {
		cfg = config[0]
	}
	return &RedisVaultStore{client: client, prefix: cfg.Prefix}
}

func (s *RedisVaultStore) promptKey(id string) string {
	return fmt.Sprintf("%s:prompt:%s", s.prefix, id)
}

func (s *RedisVaultStore) categoryKey(name string) string {
	return fmt.Sprintf("%s:category:%s", s.prefix, name)
}

func (s *RedisVaultStore) categoriesKey() string {
	return s.prefix + ":categories"
}

func (s *RedisVaultStore) SavePrompt(ctx context.Context, record *promptvault.PromptRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("redis store: record without id")
	}

	// Drop the previous placement if the record changed category.
	if existing, err := s.GetPrompt(ctx, record.ID); err == nil && existing.Category != record.Category {
		if err := s.client.SRem(ctx, s.categoryKey(existing.Category), record.ID).Err(); err != nil {
			return fmt.Errorf("redis store: move category: %w", err)
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis store: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.promptKey(record.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: set: %w", err)
	}
	if err := s.client.SAdd(ctx, s.categoriesKey(), record.Category).Err(); err != nil {
		return fmt.Errorf("redis store: register category: %w", err)
	}
	if err := s.client.SAdd(ctx, s.categoryKey(record.Category), record.ID).Err(); err != nil {
		return fmt.Errorf("redis store: index prompt: %w", err)
	}
	return nil
}

func (s *RedisVaultStore) GetPrompt(ctx context.Context, id string) (*promptvault.PromptRecord, error) {
	data, err := s.client.Get(ctx, s.promptKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis store: prompt %s not found", id)
		}
		return nil, fmt.Errorf("redis store: get: %w", err)
	}
	var record promptvault.PromptRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("redis store: unmarshal: %w", err)
	}
	return &record, nil
}

func (s *RedisVaultStore) DeletePrompt(ctx context.Context, id string) error {
	if record, err := s.GetPrompt(ctx, id); err == nil {
		if err := s.client.SRem(ctx, s.categoryKey(record.Category), id).Err(); err != nil {
			return fmt.Errorf("redis store: unindex: %w", err)
		}
	}
	if err := s.client.Del(ctx, s.promptKey(id)).Err(); err != nil {
		return fmt.Errorf("redis store: del: %w", err)
	}
	return nil
}

func (s *RedisVaultStore) ListPrompts(ctx context.Context, category string) ([]*promptvault.PromptRecord, error) {
	ids, err := s.client.SMembers(ctx, s.categoryKey(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: members: %w", err)
	}
	out := make([]*promptvault.PromptRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetPrompt(ctx, id)
		if err != nil {
			continue // stale index entry
		}
		out = append(out, record)
	}
	sortRecords(out)
	return out, nil
}

func (s *RedisVaultStore) SaveCategory(ctx context.Context, name string) error {
	if err := s.client.SAdd(ctx, s.categoriesKey(), name).Err(); err != nil {
		return fmt.Errorf("redis store: add category: %w", err)
	}
	return nil
}

func (s *RedisVaultStore) DeleteCategory(ctx context.Context, name string) error {
	ids, err := s.client.SMembers(ctx, s.categoryKey(name)).Result()
	if err != nil {
		return fmt.Errorf("redis store: members: %w", err)
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, s.promptKey(id)).Err(); err != nil {
			return fmt.Errorf("redis store: del prompt: %w", err)
		}
	}
	if err := s.client.Del(ctx, s.categoryKey(name)).Err(); err != nil {
		return fmt.Errorf("redis store: del index: %w", err)
	}
	if err := s.client.SRem(ctx, s.categoriesKey(), name).Err(); err != nil {
		return fmt.Errorf("redis store: unregister: %w", err)
	}
	return nil
}

func (s *RedisVaultStore) ListCategories(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.categoriesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: categories: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisVaultStore) Close() error { return s.client.Close() }

// Compile-time interface check.
var _ promptvault.VaultStore = (*RedisVaultStore)(nil)
