package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStoreOpts holds parameters for creating a RedisStore.
type RedisStoreOpts struct {
	Client    RedisClient
	KeyPrefix string
	// TTL is the idle expiry applied on every Put. Zero means no expiry.
	TTL time.Duration
}

// RedisStore keeps dialogue state in Redis as JSON so several concierge
// processes can share sessions. Idle eviction is the key TTL.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(opts RedisStoreOpts) (*RedisStore, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("dialogue: redis store: client is required")
	}
	return &RedisStore{client: opts.Client, prefix: opts.KeyPrefix, ttl: opts.TTL}, nil
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// Get loads the session's state.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dialogue: redis get %s: %w", sessionID, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("dialogue: decode state %s: %w", sessionID, err)
	}
	return &st, nil
}

// Put stores the session's state and resets its TTL.
func (r *RedisStore) Put(ctx context.Context, sessionID string, st *State) error {
	c := st.Clone()
	c.UpdatedAt = time.Now()
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("dialogue: encode state %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("dialogue: redis set %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes the session's state.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("dialogue: redis del %s: %w", sessionID, err)
	}
	return nil
}
