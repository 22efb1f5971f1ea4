package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vibegate/internal/registry"
	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

const (
	nullifierKeyPrefix = "vibegate:nullifier:"
	verifiedSetKey     = "vibegate:verified"
	revokedSetKey      = "vibegate:revoked"
)

// bindScriptText binds the nullifier to the address only if unbound, returning
// the address it is bound to afterwards plus a created flag. Running as a
// single script keeps the check-then-act atomic under concurrent submitters.
// Every key the script touches must appear in KEYS; undeclared access is
// rejected under cluster slot validation.
const bindScriptText = `
local existing = redis.call('GET', KEYS[1])
if existing then
  return {existing, 0}
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('HSET', KEYS[3], 'verified_at', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[1])
return {ARGV[1], 1}
`

var bindScript = redis.NewScript(bindScriptText)

// bindKeys lists the keys the bind script operates on, in KEYS order.
func bindKeys(nullifier domain.Nullifier) []string {
	key := nullifierKeyPrefix + nullifier.String()
	return []string{key, verifiedSetKey, key + ":meta"}
}

// RedisStore persists identity records in Redis. Suitable for deployments
// where the registry must be shared across engine replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Bind(ctx context.Context, nullifier domain.Nullifier, address domain.Address, at time.Time) (registry.BindResult, error) {
	raw, err := bindScript.Run(ctx, s.client, bindKeys(nullifier), address.String(), at.UTC().Format(time.RFC3339Nano)).Slice()
	if err != nil {
		return registry.BindResult{}, fmt.Errorf("bind nullifier: %w", err)
	}
	if len(raw) != 2 {
		return registry.BindResult{}, fmt.Errorf("bind nullifier: unexpected script reply %v", raw)
	}

	bound, ok := raw[0].(string)
	if !ok {
		return registry.BindResult{}, fmt.Errorf("bind nullifier: unexpected address reply %T", raw[0])
	}
	created, ok := raw[1].(int64)
	if !ok {
		return registry.BindResult{}, fmt.Errorf("bind nullifier: unexpected created reply %T", raw[1])
	}

	return registry.BindResult{
		BoundAddress: domain.Address(bound),
		Created:      created == 1,
	}, nil
}

func (s *RedisStore) IsVerified(ctx context.Context, address domain.Address) (bool, error) {
	verified, err := s.client.SIsMember(ctx, verifiedSetKey, address.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check verified set: %w", err)
	}
	if !verified {
		return false, nil
	}
	revoked, err := s.client.SIsMember(ctx, revokedSetKey, address.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked set: %w", err)
	}
	return !revoked, nil
}

func (s *RedisStore) Find(ctx context.Context, nullifier domain.Nullifier) (registry.IdentityRecord, error) {
	key := nullifierKeyPrefix + nullifier.String()
	bound, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return registry.IdentityRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.IdentityRecord{}, fmt.Errorf("find nullifier: %w", err)
	}

	record := registry.IdentityRecord{
		Nullifier:    nullifier,
		BoundAddress: domain.Address(bound),
	}
	if raw, err := s.client.HGet(ctx, key+":meta", "verified_at").Result(); err == nil {
		if at, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			record.VerifiedAt = at
		}
	}
	return record, nil
}
