package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "booking_session:"

// RedisSessionStore stores sessions as JSON with a TTL derived from the expiry policy,
// so Redis evicts abandoned sessions without a sweep.
type RedisSessionStore struct {
	redis  *redis.Client
	policy ExpiryPolicy
	maxAge time.Duration
	now    func() time.Time
	tracer trace.Tracer
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, policy ExpiryPolicy, maxAge time.Duration) *RedisSessionStore {
	if client == nil {
		panic("booking: redis client cannot be nil")
	}
	return &RedisSessionStore{
		redis:  client,
		policy: policy,
		maxAge: maxAge,
		now:    time.Now,
		tracer: otel.Tracer("medconsult.internal.booking.sessions"),
	}
}

func (r *RedisSessionStore) Put(ctx context.Context, s *Session) error {
	ctx, span := r.tracer.Start(ctx, "booking.session_put")
	defer span.End()

	data, err := json.Marshal(s)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to marshal session: %w", err)
	}

	var ttl time.Duration
	if r.maxAge > 0 {
		ttl = r.policy.Anchor(s).Add(r.maxAge).Sub(r.now())
		if ttl <= 0 {
			// Already past its age limit; make sure no stale copy survives.
			return r.redis.Del(ctx, sessionKey(s.ConversationID)).Err()
		}
	}
	if err := r.redis.Set(ctx, sessionKey(s.ConversationID), data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to persist session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "booking.session_get")
	defer span.End()

	data, err := r.redis.Get(ctx, sessionKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to load session: %w", err)
	}
	return decodeSession(data)
}

func (r *RedisSessionStore) Take(ctx context.Context, conversationID string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "booking.session_take")
	defer span.End()

	data, err := r.redis.GetDel(ctx, sessionKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to take session: %w", err)
	}
	return decodeSession(data)
}

// ExpiredIDs scans session keys for sessions past maxAge. TTLs normally make this
// empty; it matters when maxAge is shorter than the TTL used at write time.
func (r *RedisSessionStore) ExpiredIDs(ctx context.Context, maxAge time.Duration, now time.Time) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "booking.session_sweep")
	defer span.End()

	var ids []string
	iter := r.redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		s, err := r.load(ctx, key)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return ids, err
		}
		if r.policy.Expired(s, maxAge, now) {
			ids = append(ids, strings.TrimPrefix(key, sessionKeyPrefix))
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return ids, fmt.Errorf("booking: session scan failed: %w", err)
	}
	return ids, nil
}

func (r *RedisSessionStore) DeleteIfExpired(ctx context.Context, conversationID string, maxAge time.Duration, now time.Time) (bool, error) {
	key := sessionKey(conversationID)
	s, err := r.load(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !r.policy.Expired(s, maxAge, now) {
		return false, nil
	}
	n, err := r.redis.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("booking: failed to delete session %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisSessionStore) load(ctx context.Context, key string) (*Session, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("booking: failed to load session %s: %w", key, err)
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("booking: failed to decode session: %w", err)
	}
	return &s, nil
}

func sessionKey(conversationID string) string {
	return sessionKeyPrefix + conversationID
}
