package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultSnapshotChannel = "goalkit:board:snapshots"
	defaultCloseTimeout    = 5 * time.Second
)

// SnapshotMessage is the wire format for cross-instance board change
// notifications. The payload carries no board data, subscribers refetch
// the snapshot through the regular read path.
type SnapshotMessage struct {
	ProjectID string `json:"project_id"`
	Timestamp int64  `json:"timestamp"`
}

// RedisSnapshotBroadcaster relays board change notifications across
// server instances over Redis Pub/Sub. Notify publishes to the channel,
// Subscribe feeds received notifications into a callback, typically the
// local SnapshotHub.
type RedisSnapshotBroadcaster struct {
	client    *redis.Client
	channel   string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// RedisSnapshotBroadcasterOption is a functional option for configuring the broadcaster
type RedisSnapshotBroadcasterOption func(*RedisSnapshotBroadcaster)

// WithSnapshotChannel sets the Pub/Sub channel name
func WithSnapshotChannel(channel string) RedisSnapshotBroadcasterOption {
	return func(b *RedisSnapshotBroadcaster) {
		b.channel = channel
	}
}

// WithSnapshotLogger sets the logger for the broadcaster
func WithSnapshotLogger(logger *zap.Logger) RedisSnapshotBroadcasterOption {
	return func(b *RedisSnapshotBroadcaster) {
		b.logger = logger
	}
}

// NewRedisSnapshotBroadcaster creates a broadcaster on an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisSnapshotBroadcaster(client *redis.Client, opts ...RedisSnapshotBroadcasterOption) *RedisSnapshotBroadcaster {
	broadcaster := &RedisSnapshotBroadcaster{
		client:  client,
		channel: defaultSnapshotChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(broadcaster)
	}

	return broadcaster
}

// Notify publishes a board change notification for the given project
func (b *RedisSnapshotBroadcaster) Notify(ctx context.Context, projectID uuid.UUID) error {
	msg := SnapshotMessage{
		ProjectID: projectID.String(),
		Timestamp: time.Now().UnixNano(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot message: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish snapshot message",
			zap.String("channel", b.channel),
			zap.String("project_id", msg.ProjectID),
			zap.Error(err))
		return fmt.Errorf("failed to publish snapshot message: %w", err)
	}

	b.logger.Debug("published snapshot message",
		zap.String("project_id", msg.ProjectID),
		zap.String("channel", b.channel))

	return nil
}

// Subscribe starts listening for board change notifications and invokes
// the callback for each one. This method blocks and should be called in
// a goroutine; it returns when the context is cancelled or Close is called.
func (b *RedisSnapshotBroadcaster) Subscribe(ctx context.Context, callback func(projectID uuid.UUID)) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("subscribed to snapshot channel",
		zap.String("channel", b.channel))

	ch := pubsub.Channel()

	for {
		select {
		case <-subCtx.Done():
			b.logger.Info("snapshot subscription stopped")
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("snapshot channel closed")
				b.mu.Lock()
				b.isRunning = false
				b.mu.Unlock()
				b.markDone()
				return nil
			}

			var snapshotMsg SnapshotMessage
			if err := json.Unmarshal([]byte(msg.Payload), &snapshotMsg); err != nil {
				b.logger.Error("failed to unmarshal snapshot message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			projectID, err := uuid.Parse(snapshotMsg.ProjectID)
			if err != nil {
				b.logger.Error("snapshot message carries invalid project id",
					zap.String("project_id", snapshotMsg.ProjectID),
					zap.Error(err))
				continue
			}

			callback(projectID)
		}
	}
}

func (b *RedisSnapshotBroadcaster) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close stops the subscription loop if one is running
func (b *RedisSnapshotBroadcaster) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("timeout waiting for snapshot subscription to stop")
		}
	}
	return nil
}
