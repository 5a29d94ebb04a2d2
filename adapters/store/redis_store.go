package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playsolmates/warden/core"
	"github.com/redis/go-redis/v9"
)

const (
	noncePrefix   = "warden:nonce:"
	accountPrefix = "warden:account:"
	emailPrefix   = "warden:email:"
)

// consumeScript atomically loads a nonce record and marks it used. Returning
// the previous record to the caller and rewriting it in one script ensures
// that of any number of concurrent consumers exactly one observes used=false.
// Expiry is rechecked in the service layer; the key TTL only handles physical
// deletion.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
  return false
end
local rec = cjson.decode(raw)
if rec.used then
  return false
end
rec.used = true
local ttl = redis.call("TTL", KEYS[1])
if ttl > 0 then
  redis.call("SET", KEYS[1], cjson.encode(rec), "EX", ttl)
else
  redis.call("SET", KEYS[1], cjson.encode(rec))
end
return raw
`)

// RedisStore implements NonceStore and AccountStore on a shared redis client.
// Nonce records carry their expiry both as a field (checked on consume) and
// as a key TTL (physical purge); correctness never depends on purge timing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores a new challenge. The nonce must not already exist.
func (s *RedisStore) Put(ctx context.Context, challenge *core.Challenge) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: challenge already expired", core.ErrStoreFailed)
	}

	ok, err := s.client.SetNX(ctx, noncePrefix+challenge.Nonce, raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	if !ok {
		return fmt.Errorf("%w: duplicate nonce", core.ErrStoreFailed)
	}

	return nil
}

// Consume marks the nonce used and returns the stored challenge. Unknown,
// expired, or already-used nonces fail with core.ErrChallengeInvalid.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (*core.Challenge, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{noncePrefix + nonce}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrChallengeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, core.ErrChallengeInvalid
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(raw), &challenge); err != nil {
		return nil, fmt.Errorf("%w: corrupt challenge record: %v", core.ErrStoreFailed, err)
	}

	// The key may outlive the expiry briefly; a time-elapsed record is
	// invalid regardless of purge timing.
	if challenge.Expired(time.Now()) {
		return nil, core.ErrChallengeInvalid
	}

	return &challenge, nil
}

// FindOrCreateByWallet returns the account for the wallet, inserting fresh if
// none exists. SETNX resolves creation races: the loser re-reads the winner's
// record.
func (s *RedisStore) FindOrCreateByWallet(ctx context.Context, wallet string, fresh *core.Account) (*core.Account, error) {
	raw, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}

	created, err := s.client.SetNX(ctx, accountPrefix+wallet, raw, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	if created {
		if fresh.Email != "" {
			if err := s.indexEmail(ctx, fresh.Email, wallet); err != nil {
				return nil, err
			}
		}
		return fresh, nil
	}

	return s.FindByWallet(ctx, wallet)
}

// FindByWallet returns the account stored for the wallet.
func (s *RedisStore) FindByWallet(ctx context.Context, wallet string) (*core.Account, error) {
	raw, err := s.client.Get(ctx, accountPrefix+wallet).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}

	var account core.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil {
		return nil, fmt.Errorf("%w: corrupt account record: %v", core.ErrStoreFailed, err)
	}

	return &account, nil
}

// FindByEmail looks up the wallet indexed under the lowercased email, then
// loads the account.
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*core.Account, error) {
	wallet, err := s.client.Get(ctx, emailPrefix+strings.ToLower(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}

	return s.FindByWallet(ctx, wallet)
}

// TouchLogin updates the stored account's last-login timestamp.
func (s *RedisStore) TouchLogin(ctx context.Context, wallet string) error {
	account, err := s.FindByWallet(ctx, wallet)
	if err != nil {
		return err
	}

	account.LastLoginAt = time.Now().UTC()
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	if err := s.client.Set(ctx, accountPrefix+wallet, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}

	return nil
}

func (s *RedisStore) indexEmail(ctx context.Context, email, wallet string) error {
	if err := s.client.Set(ctx, emailPrefix+strings.ToLower(email), wallet, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	return nil
}
