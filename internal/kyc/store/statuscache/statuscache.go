// Package statuscache caches computed aggregate statuses. Entries carry the
// generation stamp of the document set they were computed from; readers
// compare it against the store before trusting an entry.
package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
)

// DefaultTTL bounds how long an unused entry lingers.
const DefaultTTL = 15 * time.Minute

const keyPrefix = "kyc:aggregate:"

// Key addresses one cached aggregate.
type Key struct {
	OwnerID        id.OwnerID
	Purpose        models.Purpose
	CatalogVersion string
}

func (k Key) field() string {
	return string(k.Purpose) + "|" + k.CatalogVersion
}

func ownerKey(owner id.OwnerID) string {
	return keyPrefix + owner.String()
}

// Redis keeps one hash per owner so invalidation is a single DEL.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key Key) (*models.AggregateStatus, bool, error) {
	raw, err := c.client.HGet(ctx, ownerKey(key.OwnerID), key.field()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached aggregate: %w", err)
	}
	var status models.AggregateStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, false, fmt.Errorf("decode cached aggregate: %w", err)
	}
	return &status, true, nil
}

func (c *Redis) Set(ctx context.Context, key Key, status models.AggregateStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, ownerKey(key.OwnerID), key.field(), raw)
	pipe.Expire(ctx, ownerKey(key.OwnerID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cached aggregate: %w", err)
	}
	return nil
}

// Invalidate drops every cached aggregate of the owner.
func (c *Redis) Invalidate(ctx context.Context, owner id.OwnerID) error {
	if err := c.client.Del(ctx, ownerKey(owner)).Err(); err != nil {
		return fmt.Errorf("invalidate cached aggregate: %w", err)
	}
	return nil
}

type memEntry struct {
	status    models.AggregateStatus
	expiresAt time.Time
}

// Memory is an in-process cache with the same semantics as Redis.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[id.OwnerID]map[string]memEntry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, items: make(map[id.OwnerID]map[string]memEntry)}
}

func (m *Memory) Get(_ context.Context, key Key) (*models.AggregateStatus, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.items[key.OwnerID][key.field()]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.items[key.OwnerID], key.field())
		return nil, false, nil
	}
	status := entry.status.Clone()
	return &status, true, nil
}

func (m *Memory) Set(_ context.Context, key Key, status models.AggregateStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.items[key.OwnerID]
	if !ok {
		fields = make(map[string]memEntry)
		m.items[key.OwnerID] = fields
	}
	fields[key.field()] = memEntry{status: status.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, owner id.OwnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, owner)
	return nil
}
