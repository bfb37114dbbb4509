// Package cache keeps the anonymous tag list in Redis. Every method is safe on a nil
// *TagCache and on a cache built without a client, so callers never branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"feedback-board-api/internal/dto"
)

const (
	generationKey = "feedback:tags:gen"
	opTimeout     = 200 * time.Millisecond
)

// TagCache stores tag list pages under a generation number. Invalidate bumps the
// generation so every cached page goes stale at once and expires on its own TTL.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTagCache returns a cache backed by client. A nil client yields a cache that always misses.
func NewTagCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TagCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagCache{client: client, ttl: ttl, logger: logger}
}

func (c *TagCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *TagCache) pageKey(ctx context.Context, search string, page int) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("feedback:tags:v%d:p%d:%s", gen, page, search), nil
}

// GetPage returns a cached tag page, or false on a miss or any Redis failure
func (c *TagCache) GetPage(ctx context.Context, search string, page int) (*dto.PageResponse[dto.TagResponse], bool) {
	if !c.enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key, err := c.pageKey(ctx, search, page)
	if err != nil {
		c.logger.Debug("Tag cache unavailable", zap.Error(err))
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Tag cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var resp dto.PageResponse[dto.TagResponse]
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("Discarding malformed tag cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// SetPage stores a tag page. Failures are logged and otherwise ignored.
func (c *TagCache) SetPage(ctx context.Context, search string, page int, resp *dto.PageResponse[dto.TagResponse]) {
	if !c.enabled() || resp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key, err := c.pageKey(ctx, search, page)
	if err != nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("Tag cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate makes every cached page stale
func (c *TagCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("Tag cache invalidation failed", zap.Error(err))
	}
}
