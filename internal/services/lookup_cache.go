package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CustomerLookupCache caches the phone -> customer id mapping resolved by
// the order matcher. The mapping is stable, unlike delivery eligibility,
// which is always recomputed from live data and never cached here.
type CustomerLookupCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCustomerLookupCache creates a lookup cache. A nil redis client
// disables caching without changing behavior.
func NewCustomerLookupCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *CustomerLookupCache {
	if ttl == 0 {
		ttl = 6 * time.Hour
	}
	return &CustomerLookupCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CustomerLookupCache) key(nationalNumber string) string {
	return fmt.Sprintf("returns:customer:%s", nationalNumber)
}

// Get returns the cached customer id for a canonical national number.
// Cache errors degrade to a miss.
func (c *CustomerLookupCache) Get(ctx context.Context, nationalNumber string) (int64, bool) {
	if c.redis == nil || nationalNumber == "" {
		return 0, false
	}

	val, err := c.redis.Get(ctx, c.key(nationalNumber)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("customer lookup cache get failed", zap.Error(err))
		}
		return 0, false
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Set stores a resolved customer id.
func (c *CustomerLookupCache) Set(ctx context.Context, nationalNumber string, customerID int64) {
	if c.redis == nil || nationalNumber == "" {
		return
	}

	if err := c.redis.Set(ctx, c.key(nationalNumber), strconv.FormatInt(customerID, 10), c.ttl).Err(); err != nil {
		c.logger.Warn("customer lookup cache set failed", zap.Error(err))
	}
}
