package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-accounts/internal/config"
	"github.com/iliyamo/user-accounts/internal/model"
)

// CachedUserRepo caches the public projection served by FindPublicByID,
// which the request authenticator hits on every protected call. Only the
// projection is cached; records carrying the password hash or refresh token
// always come from the underlying store.
type CachedUserRepo struct {
	UserStore
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// NewCachedUserRepo wraps inner. When caching is disabled or rdb is nil the
// inner store is returned unchanged.
func NewCachedUserRepo(inner UserStore, rdb *redis.Client, cfg config.UserCacheConfig, log *slog.Logger) UserStore {
	if !cfg.Enabled || rdb == nil {
		return inner
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedUserRepo{UserStore: inner, rdb: rdb, ttl: ttl, prefix: cfg.Prefix, log: log}
}

func (r *CachedUserRepo) key(id string) string { return r.prefix + ":user:" + id }

func (r *CachedUserRepo) tombstoneKey(id string) string { return r.prefix + ":user-deleted:" + id }

// fillScript writes the projection unless the user was deleted meanwhile.
// KEYS[1] = cache key, KEYS[2] = deletion marker, ARGV[1] = payload, ARGV[2] = ttl in ms.
var fillScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
    return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// FindPublicByID serves from Redis when possible. Redis failures degrade to
// the underlying store.
func (r *CachedUserRepo) FindPublicByID(ctx context.Context, id string) (*model.PublicUser, error) {
	key := r.key(id)
	bs, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p model.PublicUser
		if jsonErr := json.Unmarshal(bs, &p); jsonErr == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.WarnContext(ctx, "user cache read failed", "user_id", id, "err", err)
	}

	p, err := r.UserStore.FindPublicByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(p); err == nil {
		err := fillScript.Run(ctx, r.rdb, []string{key, r.tombstoneKey(id)}, payload, r.ttl.Milliseconds()).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "user cache write failed", "user_id", id, "err", err)
		}
	}
	return p, nil
}

// Delete removes the user, then marks the id deleted and evicts the cached
// projection in one transaction. The marker stops a lookup that read the row
// before the delete from filling the cache afterwards. Eviction errors are
// returned to the caller.
func (r *CachedUserRepo) Delete(ctx context.Context, id string) error {
	if err := r.UserStore.Delete(ctx, id); err != nil {
		return err
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tombstoneKey(id), "1", r.ttl)
		pipe.Del(ctx, r.key(id))
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "user cache evict failed", "user_id", id, "err", err)
		return fmt.Errorf("evict cached user: %w", err)
	}
	return nil
}
