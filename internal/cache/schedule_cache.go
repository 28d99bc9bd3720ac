package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

const keyPrefix = "schedule:"

// ScheduleCache keeps schedule records, summary counters included, in redis.
// Entries are dropped whenever the ledger changes.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScheduleCache(client *redis.Client, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{client: client, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get returns the cached schedule, or nil without error on a miss.
func (c *ScheduleCache) Get(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, customError.WrapCacheError(err)
	}

	var schedule domain.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, customError.WrapCacheError(fmt.Errorf("decode %s: %w", key(id), err))
	}
	return &schedule, nil
}

func (c *ScheduleCache) Set(ctx context.Context, schedule *domain.Schedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return customError.WrapCacheError(err)
	}

	if err := c.client.Set(ctx, key(schedule.ID), data, c.ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *ScheduleCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}
