package event

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many pending notifications a single
// snapshot subscriber can lag behind before further ones are dropped.
// Dropping is safe: a notification only tells the client to refetch,
// so one queued signal is as good as ten.
const subscriberBuffer = 4

// SnapshotHub fans board change notifications out to in-process
// subscribers, one subscription per open snapshot stream. It also
// implements the notifier interface the board services publish to,
// which makes it sufficient on its own for single-instance deployments.
type SnapshotHub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan uuid.UUID]struct{}
}

// NewSnapshotHub creates a new snapshot hub
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{
		subs: make(map[uuid.UUID]map[chan uuid.UUID]struct{}),
	}
}

// Notify broadcasts a change notification for the given project
func (h *SnapshotHub) Notify(ctx context.Context, projectID uuid.UUID) error {
	h.Broadcast(projectID)
	return nil
}

// Broadcast delivers a notification to every subscriber of the project.
// Slow subscribers with a full buffer are skipped.
func (h *SnapshotHub) Broadcast(projectID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[projectID] {
		select {
		case ch <- projectID:
		default:
		}
	}
}

// Subscribe registers interest in a project's change notifications.
// The returned cancel function must be called to release the subscription.
func (h *SnapshotHub) Subscribe(projectID uuid.UUID) (<-chan uuid.UUID, func()) {
	ch := make(chan uuid.UUID, subscriberBuffer)

	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan uuid.UUID]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[projectID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, projectID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of open subscriptions for a project
func (h *SnapshotHub) SubscriberCount(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}
