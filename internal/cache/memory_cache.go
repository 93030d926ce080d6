package cache

import (
	"context"
	"sync"
	"time"

	"adaptivequiz/internal/model"
)

// MemorySelectionCache is a process-local SelectionCache. Expired entries are
// dropped when read; nothing sweeps in the background.
type MemorySelectionCache struct {
	entries sync.Map // string -> *model.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySelectionCache creates an empty in-process cache
func NewMemorySelectionCache(ttl time.Duration) *MemorySelectionCache {
	return &MemorySelectionCache{ttl: ttl, now: time.Now}
}

func (c *MemorySelectionCache) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, nil
	}
	entry := v.(*model.CacheEntry)
	if entry.Expired(c.now(), c.ttl) {
		c.entries.CompareAndDelete(key, entry)
		return nil, nil
	}
	out := *entry
	out.SelectedQuestions = append([]model.Question(nil), entry.SelectedQuestions...)
	return &out, nil
}

func (c *MemorySelectionCache) Set(_ context.Context, key string, questions []model.Question) error {
	c.entries.Store(key, &model.CacheEntry{
		Key:               key,
		SelectedQuestions: append([]model.Question(nil), questions...),
		CreatedAt:         c.now(),
	})
	return nil
}

// Len counts stored entries, expired or not
func (c *MemorySelectionCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
