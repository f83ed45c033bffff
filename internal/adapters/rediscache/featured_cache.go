package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "listing:"
	featuredKey   = "featured:"
	scanBatchSize = 100
)

// Stats - счетчики обращений к кешу
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// FeaturedCache - cache-aside для выборки featured, один ключ на limit
type FeaturedCache struct {
	client redis.UniversalClient
	prefix string
	stats  Stats
}

var _ port.FeaturedCachePort = (*FeaturedCache)(nil)

func NewFeaturedCache(client redis.UniversalClient, prefix string) (*FeaturedCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &FeaturedCache{client: client, prefix: prefix}, nil
}

func (c *FeaturedCache) key(limit int) string {
	return c.prefix + featuredKey + strconv.Itoa(limit)
}

func (c *FeaturedCache) GetFeatured(ctx context.Context, limit int) ([]domain.Property, bool, error) {
	data, err := c.client.Get(ctx, c.key(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			return nil, false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var items []domain.Property
	if err := json.Unmarshal(data, &items); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		// Битая запись - считаем промахом и убираем
		_ = c.client.Del(ctx, c.key(limit)).Err()
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return items, true, nil
}

func (c *FeaturedCache) SetFeatured(ctx context.Context, limit int, items []domain.Property, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if items == nil {
		items = []domain.Property{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.key(limit), data, ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}
	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

// InvalidateFeatured удаляет все варианты выборки (по всем limit)
func (c *FeaturedCache) InvalidateFeatured(ctx context.Context) error {
	pattern := c.prefix + featuredKey + "*"
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			atomic.AddUint64(&c.stats.Errors, 1)
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				atomic.AddUint64(&c.stats.Errors, 1)
				return fmt.Errorf("cache delete error: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	atomic.AddUint64(&c.stats.Deletes, uint64(deleted))
	contextkeys.LoggerFromContext(ctx).Debug("Featured cache invalidated", port.Fields{
		"component": "FeaturedCache",
		"keys":      deleted,
	})
	return nil
}

func (c *FeaturedCache) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadUint64(&c.stats.Hits),
		Misses:  atomic.LoadUint64(&c.stats.Misses),
		Sets:    atomic.LoadUint64(&c.stats.Sets),
		Deletes: atomic.LoadUint64(&c.stats.Deletes),
		Errors:  atomic.LoadUint64(&c.stats.Errors),
	}
}
