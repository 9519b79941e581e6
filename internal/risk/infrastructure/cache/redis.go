package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/loanloey/internal/risk/domain"
	pkgcache "github.com/wyfcoding/loanloey/pkg/cache"
)

// levelCache Redis 风险评级缓存
type levelCache struct {
	cache *pkgcache.RedisCache
	ttl   time.Duration
}

func NewLevelCache(cache *pkgcache.RedisCache, ttl time.Duration) domain.LevelCache {
	return &levelCache{cache: cache, ttl: ttl}
}

func levelKey(userID uint64) string {
	return fmt.Sprintf("risk:level:%d", userID)
}

func (c *levelCache) Get(ctx context.Context, userID uint64) (domain.Level, bool, error) {
	var level string
	err := c.cache.Get(ctx, levelKey(userID), &level)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, err
	}
	return domain.Level(level), true, nil
}

func (c *levelCache) Set(ctx context.Context, userID uint64, level domain.Level) error {
	return c.cache.Set(ctx, levelKey(userID), string(level), c.ttl)
}

// noopCache 在未启用 Redis 时使用，每次读取都会落到重算路径
type noopCache struct{}

func NewNoopCache() domain.LevelCache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, userID uint64) (domain.Level, bool, error) {
	return "", false, nil
}

func (noopCache) Set(ctx context.Context, userID uint64, level domain.Level) error {
	return nil
}
