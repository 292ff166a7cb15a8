package flowstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/refactron/auth-front/internal/config"
)

// DeviceCodeTTL bounds how long a device user code is carried across a
// login redirect before it is discarded as stale.
const DeviceCodeTTL = 30 * time.Minute

// Ensure RedisStore implements the Store interface
var _ Store = (*RedisStore)(nil)

// RedisStore keeps flow slots in Redis. Expiry rides on native key TTLs, so
// no sweep is needed and slots are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg config.FlowStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: string(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisStore{client: client}, nil
}

func flowKey(sessionID string) string {
	return "authfront:flow:" + sessionID
}

func deviceKey(sessionID string) string {
	return "authfront:device:" + sessionID
}

// PutFlow stores the pending flow for a session, replacing any previous one
func (s *RedisStore) PutFlow(ctx context.Context, sessionID string, state FlowState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling flow state: %w", err)
	}
	if err := s.client.Set(ctx, flowKey(sessionID), data, StateTTL).Err(); err != nil {
		return fmt.Errorf("storing flow state: %w", err)
	}
	return nil
}

// GetFlow returns the pending flow for a session
func (s *RedisStore) GetFlow(ctx context.Context, sessionID string) (*FlowState, error) {
	data, err := s.client.Get(ctx, flowKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFlowNotFound
		}
		return nil, fmt.Errorf("reading flow state: %w", err)
	}

	var state FlowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling flow state: %w", err)
	}
	return &state, nil
}

// ClearFlow removes the pending flow for a session
func (s *RedisStore) ClearFlow(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, flowKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing flow state: %w", err)
	}
	return nil
}

// PutDeviceCode stores a device user code to survive a login redirect
func (s *RedisStore) PutDeviceCode(ctx context.Context, sessionID, userCode string) error {
	if err := s.client.Set(ctx, deviceKey(sessionID), userCode, DeviceCodeTTL).Err(); err != nil {
		return fmt.Errorf("storing device code: %w", err)
	}
	return nil
}

// TakeDeviceCode returns and clears the carried device user code
func (s *RedisStore) TakeDeviceCode(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.GetDel(ctx, deviceKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("taking device code: %w", err)
	}
	return code, nil
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
