package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

const (
	profileKeyPrefix   = "accounthub:profile:v1:"
	tombstoneKeyPrefix = "accounthub:profile-tomb:v1:"
)

func ProfileKey(userID string) string {
	return profileKeyPrefix + userID
}

func tombstoneKey(userID string) string {
	return tombstoneKeyPrefix + userID
}

// Cached profiles never hold the password hash; the service reads the
// store directly whenever it needs one.
//
// Invalidate drops the entry and leaves a tombstone for one TTL. Fill is a
// no-op while the tombstone lives, so a read that started before a write
// cannot put the old record back.

type MemoryProfiles struct {
	mu         sync.Mutex // makes tombstone check + fill atomic against Invalidate
	entries    *TTL[user.User]
	tombstones *TTL[struct{}]
}

func NewMemoryProfiles(ttl time.Duration) *MemoryProfiles {
	return &MemoryProfiles{
		entries:    NewTTL[user.User](ttl),
		tombstones: NewTTL[struct{}](ttl),
	}
}

func (p *MemoryProfiles) Get(_ context.Context, id string) (user.User, bool) {
	return p.entries.Get(ProfileKey(id))
}

func (p *MemoryProfiles) Fill(_ context.Context, u user.User) {
	u.PasswordHash = ""

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, gone := p.tombstones.Get(tombstoneKey(u.ID)); gone {
		return
	}
	p.entries.Set(ProfileKey(u.ID), u)
}

func (p *MemoryProfiles) Invalidate(_ context.Context, id string) error {
	p.mu.Lock()
	p.tombstones.Set(tombstoneKey(id), struct{}{})
	p.entries.Delete(ProfileKey(id))
	p.mu.Unlock()
	return nil
}

// fillScript sets KEYS[1] unless the tombstone KEYS[2] exists.
var fillScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// RedisProfiles shares the profile cache across API replicas. Read and fill
// errors degrade to cache misses; Invalidate errors are returned.
type RedisProfiles struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisProfiles(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisProfiles {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisProfiles{rdb: rdb, ttl: ttl, log: log}
}

func (p *RedisProfiles) Get(ctx context.Context, id string) (user.User, bool) {
	raw, err := p.rdb.Get(ctx, ProfileKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.WarnContext(ctx, "profile cache get failed", "user_id", id, "err", err)
		}
		return user.User{}, false
	}

	var u user.User
	if err := json.Unmarshal(raw, &u); err != nil {
		p.log.WarnContext(ctx, "profile cache entry unreadable", "user_id", id, "err", err)
		return user.User{}, false
	}

	return u, true
}

func (p *RedisProfiles) Fill(ctx context.Context, u user.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}

	keys := []string{ProfileKey(u.ID), tombstoneKey(u.ID)}
	if err := fillScript.Run(ctx, p.rdb, keys, raw, p.ttl.Milliseconds()).Err(); err != nil {
		p.log.WarnContext(ctx, "profile cache fill failed", "user_id", u.ID, "err", err)
	}
}

func (p *RedisProfiles) Invalidate(ctx context.Context, id string) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tombstoneKey(id), 1, p.ttl)
		pipe.Del(ctx, ProfileKey(id))
		return nil
	})
	return err
}
