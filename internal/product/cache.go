package product

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CachingStore decorates a Store with Redis caching for the read paths.
// Writes go straight through and invalidate the affected entries. A nil
// Redis client bypasses the cache entirely.
type CachingStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachingStore decorates a Store with Redis caching.
// If ttl is 0, it defaults to 5 minutes.
func NewCachingStore(rdb *redis.Client, ttl time.Duration, inner Store) *CachingStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingStore{inner: inner, rdb: rdb, ttl: ttl}
}

func listKey(userID uuid.UUID) string {
	return fmt.Sprintf("products:user:%s", userID)
}

func itemKey(id uuid.UUID) string {
	return fmt.Sprintf("products:id:%s", id)
}

// Create inserts via the inner store and invalidates the owner's list.
func (c *CachingStore) Create(ctx context.Context, p *Product) (*Product, error) {
	created, err := c.inner.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, created.UserID, created.ID)
	return created, nil
}

// ListByUser checks the cache first, falling back to the database.
func (c *CachingStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	if c.rdb == nil {
		return c.inner.ListByUser(ctx, userID)
	}

	key := listKey(userID)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []Product
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Drop corrupted cache entries
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err() // Best effort
	}

	return out, nil
}

// GetByID checks the cache first, falling back to the database.
func (c *CachingStore) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	if c.rdb == nil {
		return c.inner.GetByID(ctx, id)
	}

	key := itemKey(id)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		out := new(Product)
		if err := json.Unmarshal(b, out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Update writes through and invalidates both the item and the owner's list.
func (c *CachingStore) Update(ctx context.Context, p *Product) (*Product, error) {
	updated, err := c.inner.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, updated.UserID, updated.ID)
	return updated, nil
}

// Delete removes the row and invalidates cache entries. The owner is looked
// up from the cache-or-db copy before deletion so the list key can be
// dropped too.
func (c *CachingStore) Delete(ctx context.Context, id uuid.UUID) error {
	var ownerID uuid.UUID
	if p, err := c.GetByID(ctx, id); err == nil {
		ownerID = p.UserID
	}

	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, id)
	return nil
}

// invalidate drops the cache entries affected by a write. Best effort:
// a failed invalidation only means a stale read until the TTL expires.
func (c *CachingStore) invalidate(ctx context.Context, userID, id uuid.UUID) {
	if c.rdb == nil {
		return
	}
	keys := []string{itemKey(id)}
	if userID != uuid.Nil {
		keys = append(keys, listKey(userID))
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
