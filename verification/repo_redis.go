package verification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "verify:token:" // value -> token payload
	userKeyPrefix  = "verify:user:"  // user id -> outstanding token value
	usedKeyPrefix  = "verify:used:"  // consumed marker, kept until original expiry
)

var _ TokenStore = (*RedisTokenStore)(nil)

// RedisTokenStore keeps verification tokens in redis with native TTL expiry.
// Redis reaps expired entries itself, so an expired token surfaces as
// ErrTokenNotFound here; the two outcomes are surfaced identically to
// callers anyway.
type RedisTokenStore struct {
	client  *redis.Client
	nowFunc func() time.Time
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, nowFunc: time.Now}
}

type redisToken struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisTokenStore) Put(ctx context.Context, token Token) error {
	ttl := token.ExpiresAt.Sub(s.nowFunc())
	if ttl <= 0 {
		return errors.New("[RedisTokenStore.Put] token already expired")
	}

	// Supersede any outstanding token for the user before storing the new one.
	prior, err := s.client.GetDel(ctx, userKeyPrefix+token.UserID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrap(err, "[RedisTokenStore.Put] GetDel user key")
	}
	if prior != "" {
		if err := s.client.Del(ctx, tokenKeyPrefix+prior).Err(); err != nil {
			return errors.Wrap(err, "[RedisTokenStore.Put] Del prior token")
		}
	}

	payload, err := json.Marshal(redisToken{
		UserID:    token.UserID,
		Username:  token.Username,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return errors.Wrap(err, "[RedisTokenStore.Put] Marshal")
	}

	if err := s.client.Set(ctx, tokenKeyPrefix+token.Value, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisTokenStore.Put] Set token")
	}
	if err := s.client.Set(ctx, userKeyPrefix+token.UserID, token.Value, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisTokenStore.Put] Set user index")
	}
	return nil
}

func (s *RedisTokenStore) Get(ctx context.Context, value string) (*Token, error) {
	payload, err := s.client.Get(ctx, tokenKeyPrefix+value).Result()
	if errors.Is(err, redis.Nil) {
		return nil, s.missingErr(ctx, value)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisTokenStore.Get] Get")
	}
	return s.decode(value, payload)
}

func (s *RedisTokenStore) Consume(ctx context.Context, value string) (*Token, error) {
	// GetDel makes the consume atomic: of two racing calls exactly one
	// observes the payload.
	payload, err := s.client.GetDel(ctx, tokenKeyPrefix+value).Result()
	if errors.Is(err, redis.Nil) {
		return nil, s.missingErr(ctx, value)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisTokenStore.Consume] GetDel")
	}

	token, err := s.decode(value, payload)
	if err != nil {
		return nil, err
	}

	if err := s.client.Del(ctx, userKeyPrefix+token.UserID).Err(); err != nil {
		return nil, errors.Wrap(err, "[RedisTokenStore.Consume] Del user index")
	}
	if ttl := token.ExpiresAt.Sub(s.nowFunc()); ttl > 0 {
		if err := s.client.Set(ctx, usedKeyPrefix+value, "1", ttl).Err(); err != nil {
			return nil, errors.Wrap(err, "[RedisTokenStore.Consume] Set used marker")
		}
	}
	return token, nil
}

func (s *RedisTokenStore) DeleteForUser(ctx context.Context, userID string) error {
	value, err := s.client.GetDel(ctx, userKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[RedisTokenStore.DeleteForUser] GetDel")
	}
	if err := s.client.Del(ctx, tokenKeyPrefix+value).Err(); err != nil {
		return errors.Wrap(err, "[RedisTokenStore.DeleteForUser] Del token")
	}
	return nil
}

func (s *RedisTokenStore) decode(value, payload string) (*Token, error) {
	var rt redisToken
	if err := json.Unmarshal([]byte(payload), &rt); err != nil {
		return nil, errors.Wrap(err, "[RedisTokenStore] Unmarshal")
	}
	if rt.ExpiresAt.Before(s.nowFunc()) {
		// TTL should have reaped it already; treat as expired regardless.
		return nil, ErrTokenExpired
	}
	return &Token{
		Value:     value,
		UserID:    rt.UserID,
		Username:  rt.Username,
		IssuedAt:  rt.IssuedAt,
		ExpiresAt: rt.ExpiresAt,
	}, nil
}

func (s *RedisTokenStore) missingErr(ctx context.Context, value string) error {
	used, err := s.client.Exists(ctx, usedKeyPrefix+value).Result()
	if err == nil && used > 0 {
		return ErrTokenAlreadyUsed
	}
	return ErrTokenNotFound
}
