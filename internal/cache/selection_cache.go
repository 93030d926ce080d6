package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adaptivequiz/internal/model"

	"github.com/redis/go-redis/v9"
)

// SelectionCache memoizes engine selections keyed by request fingerprint.
// Get returns nil, nil on a miss or when the entry is older than the TTL.
type SelectionCache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, key string, questions []model.Question) error
}

type selectionCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewSelectionCache creates a Redis backed selection cache
func NewSelectionCache(client *redis.Client, ttl time.Duration) SelectionCache {
	return &selectionCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *selectionCache) key(fingerprint string) string {
	return fmt.Sprintf("adaptive:selection:%s", fingerprint)
}

func (c *selectionCache) Set(ctx context.Context, key string, questions []model.Question) error {
	entry := model.CacheEntry{
		Key:               key,
		SelectedQuestions: questions,
		CreatedAt:         c.now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

func (c *selectionCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	// Redis expiry is coarse; the stored timestamp is authoritative
	if entry.Expired(c.now(), c.ttl) {
		return nil, nil
	}
	return &entry, nil
}
