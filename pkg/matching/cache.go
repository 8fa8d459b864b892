package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/jasmine/pkg/redis"
)

// RedisRankingCache stores rankings in Redis under a key derived from the
// viewer and the fingerprint of their normalized preferences. A preference
// change rotates the fingerprint, so stale rankings age out on their own.
type RedisRankingCache struct {
	client *redis.Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewRedisRankingCache creates a ranking cache with the given TTL
func NewRedisRankingCache(client *redis.Client, logger ectologger.Logger, ttl time.Duration) *RedisRankingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisRankingCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// GetRanking fetches a cached ranking. Cache failures degrade to a miss;
// scoring from scratch is always a valid fallback.
func (c *RedisRankingCache) GetRanking(ctx context.Context, viewerID, fingerprint string) (*RankedList, bool) {
	raw, err := c.client.Get(ctx, rankingKey(viewerID, fingerprint))
	if err != nil {
		if !redis.IsMiss(err) {
			c.logger.WithContext(ctx).WithError(err).Warn("Ranking cache read failed")
		}
		return nil, false
	}

	var list RankedList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Discarding undecodable cached ranking")
		return nil, false
	}

	return &list, true
}

// SetRanking stores a ranking for the configured TTL. Write failures are
// logged and ignored; the next request simply re-scores.
func (c *RedisRankingCache) SetRanking(ctx context.Context, viewerID, fingerprint string, list *RankedList) {
	payload, err := json.Marshal(list)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to encode ranking for cache")
		return
	}

	if err := c.client.Set(ctx, rankingKey(viewerID, fingerprint), payload, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Ranking cache write failed")
	}
}

func rankingKey(viewerID, fingerprint string) string {
	return fmt.Sprintf("jasmine:ranking:%s:%s", viewerID, fingerprint)
}
