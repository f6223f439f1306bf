package presence

import (
	"context"
	"sync"
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/presence"
	"github.com/google/uuid"
)

type inMemoryEntry struct {
	status   presence.Status
	expireAt time.Time
}

// InMemoryStore implements presence.Store with process-local state.
// Suitable for single-instance deployments and tests, mirrors the lease
// semantics of the Redis store.
type InMemoryStore struct {
	mu      sync.RWMutex
	rosters map[uuid.UUID]map[uuid.UUID]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryStore creates a new in-memory presence store
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		rosters: make(map[uuid.UUID]map[uuid.UUID]inMemoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetOnline marks the user online and starts the lease
func (s *InMemoryStore) SetOnline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	status.State = presence.StateOnline

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rosters[projectID] == nil {
		s.rosters[projectID] = make(map[uuid.UUID]inMemoryEntry)
	}
	s.rosters[projectID][status.UserID] = inMemoryEntry{
		status:   status,
		expireAt: s.now().Add(s.ttl),
	}
	return nil
}

// Heartbeat refreshes the lease of an online user
func (s *InMemoryStore) Heartbeat(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.rosters[projectID][userID]
	if !ok || !entry.status.Online() || s.now().After(entry.expireAt) {
		return nil
	}
	entry.expireAt = s.now().Add(s.ttl)
	s.rosters[projectID][userID] = entry
	return nil
}

// SetOffline records the disconnect and drops the lease
func (s *InMemoryStore) SetOffline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	status.State = presence.StateOffline

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rosters[projectID] == nil {
		s.rosters[projectID] = make(map[uuid.UUID]inMemoryEntry)
	}
	s.rosters[projectID][status.UserID] = inMemoryEntry{status: status}
	return nil
}

// List returns the presence records of every user known on the project
func (s *InMemoryStore) List(ctx context.Context, projectID uuid.UUID) ([]presence.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	statuses := make([]presence.Status, 0, len(s.rosters[projectID]))
	for _, entry := range s.rosters[projectID] {
		status := entry.status
		if status.Online() && now.After(entry.expireAt) {
			status.State = presence.StateOffline
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Ensure InMemoryStore implements presence.Store
var _ presence.Store = (*InMemoryStore)(nil)
