package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/presence"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "presence:"

// RedisStore implements presence.Store using Redis. Two structures per
// project: a roster hash holding the last known status of every user,
// and a per-user lease key with a TTL. An online user whose lease has
// expired is rendered offline, which covers crashed clients.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore creates a presence store on an existing Redis client.
// The caller retains ownership of the client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

// SetOnline marks the user online and starts the lease
func (s *RedisStore) SetOnline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	status.State = presence.StateOnline

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal presence status: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.rosterKey(projectID), status.UserID.String(), data)
	pipe.Set(ctx, s.leaseKey(projectID, status.UserID), "1", s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user online: %w", err)
	}
	return nil
}

// Heartbeat refreshes the lease of an online user. A heartbeat for a
// user whose lease already expired is a no-op, the client is expected
// to reconnect.
func (s *RedisStore) Heartbeat(ctx context.Context, projectID, userID uuid.UUID) error {
	if err := s.client.Expire(ctx, s.leaseKey(projectID, userID), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh presence lease: %w", err)
	}
	return nil
}

// SetOffline records the disconnect and drops the lease
func (s *RedisStore) SetOffline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	status.State = presence.StateOffline

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal presence status: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.rosterKey(projectID), status.UserID.String(), data)
	pipe.Del(ctx, s.leaseKey(projectID, status.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user offline: %w", err)
	}
	return nil
}

// List returns the presence records of every user known on the project
func (s *RedisStore) List(ctx context.Context, projectID uuid.UUID) ([]presence.Status, error) {
	entries, err := s.client.HGetAll(ctx, s.rosterKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence roster: %w", err)
	}

	statuses := make([]presence.Status, 0, len(entries))
	for _, raw := range entries {
		var status presence.Status
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			continue
		}

		if status.Online() {
			alive, err := s.client.Exists(ctx, s.leaseKey(projectID, status.UserID)).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to check presence lease: %w", err)
			}
			if alive == 0 {
				status.State = presence.StateOffline
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *RedisStore) rosterKey(projectID uuid.UUID) string {
	return fmt.Sprintf("%sproject:%s", s.keyPrefix, projectID)
}

func (s *RedisStore) leaseKey(projectID, userID uuid.UUID) string {
	return fmt.Sprintf("%sproject:%s:user:%s", s.keyPrefix, projectID, userID)
}

// Ensure RedisStore implements presence.Store
var _ presence.Store = (*RedisStore)(nil)
