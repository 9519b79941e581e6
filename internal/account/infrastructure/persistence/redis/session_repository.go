package redis

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/loanloey/internal/account/domain"
	pkgcache "github.com/wyfcoding/loanloey/pkg/cache"
)

// sessionRepository Redis 会话仓储，TTL 与会话过期时间对齐
type sessionRepository struct {
	cache *pkgcache.RedisCache
}

func NewSessionRepository(cache *pkgcache.RedisCache) domain.SessionRepository {
	return &sessionRepository{cache: cache}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, sessionKey(session.Token), session, ttl)
}

func (r *sessionRepository) Find(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := r.cache.Get(ctx, sessionKey(token), &session)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	return r.cache.Delete(ctx, sessionKey(token))
}
