package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/presence"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SetOnline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	args := m.Called(ctx, projectID, status)
	return args.Error(0)
}

func (m *MockStore) Heartbeat(ctx context.Context, projectID, userID uuid.UUID) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MockStore) SetOffline(ctx context.Context, projectID uuid.UUID, status presence.Status) error {
	args := m.Called(ctx, projectID, status)
	return args.Error(0)
}

func (m *MockStore) List(ctx context.Context, projectID uuid.UUID) ([]presence.Status, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]presence.Status), args.Error(1)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*board.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]board.Project, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]board.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *board.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMarkerCleaner struct {
	mock.Mock
}

func (m *MockMarkerCleaner) ClearMarkersFor(ctx context.Context, projectID uuid.UUID, displayName string) error {
	args := m.Called(ctx, projectID, displayName)
	return args.Error(0)
}

type presenceFixture struct {
	service *Service
	store   *MockStore
	repo    *MockProjectRepository
	markers *MockMarkerCleaner
	actor   appboard.Actor
	project *board.Project
	now     time.Time
}

func newPresenceFixture(t *testing.T) *presenceFixture {
	t.Helper()

	actor := appboard.Actor{UserID: uuid.New(), DisplayName: "Alice"}
	project, err := board.NewProject(actor.UserID, actor.DisplayName, "Team Board")
	require.NoError(t, err)
	project.ClearDomainEvents()

	store := new(MockStore)
	repo := new(MockProjectRepository)
	markers := new(MockMarkerCleaner)

	service := NewService(store, repo, markers, zap.NewNop())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	return &presenceFixture{
		service: service,
		store:   store,
		repo:    repo,
		markers: markers,
		actor:   actor,
		project: project,
		now:     now,
	}
}

func TestPresenceConnect(t *testing.T) {
	t.Run("marks member online with current timestamp", func(t *testing.T) {
		f := newPresenceFixture(t)
		f.repo.On("FindByID", mock.Anything, f.project.ID).Return(f.project, nil)
		f.store.On("SetOnline", mock.Anything, f.project.ID, mock.MatchedBy(func(status presence.Status) bool {
			return status.UserID == f.actor.UserID &&
				status.DisplayName == "Alice" &&
				status.LastChanged.Equal(f.now)
		})).Return(nil)

		err := f.service.Connect(context.Background(), f.actor, f.project.ID)

		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})

	t.Run("rejects non member", func(t *testing.T) {
		f := newPresenceFixture(t)
		outsider := appboard.Actor{UserID: uuid.New(), DisplayName: "Mallory"}
		f.repo.On("FindByID", mock.Anything, f.project.ID).Return(f.project, nil)

		err := f.service.Connect(context.Background(), outsider, f.project.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
		f.store.AssertNotCalled(t, "SetOnline", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown project", func(t *testing.T) {
		f := newPresenceFixture(t)
		f.repo.On("FindByID", mock.Anything, f.project.ID).Return(nil, shared.ErrNotFound)

		err := f.service.Connect(context.Background(), f.actor, f.project.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PROJECT_NOT_FOUND", domainErr.Code)
	})
}

func TestPresenceHeartbeat(t *testing.T) {
	f := newPresenceFixture(t)
	f.store.On("Heartbeat", mock.Anything, f.project.ID, f.actor.UserID).Return(nil)

	err := f.service.Heartbeat(context.Background(), f.actor, f.project.ID)

	require.NoError(t, err)
	f.store.AssertExpectations(t)
}

func TestPresenceDisconnect(t *testing.T) {
	t.Run("marks offline and clears drag markers", func(t *testing.T) {
		f := newPresenceFixture(t)
		f.store.On("SetOffline", mock.Anything, f.project.ID, mock.MatchedBy(func(status presence.Status) bool {
			return status.UserID == f.actor.UserID && status.LastChanged.Equal(f.now)
		})).Return(nil)
		f.markers.On("ClearMarkersFor", mock.Anything, f.project.ID, "Alice").Return(nil)

		err := f.service.Disconnect(context.Background(), f.actor, f.project.ID)

		require.NoError(t, err)
		f.store.AssertExpectations(t)
		f.markers.AssertExpectations(t)
	})

	t.Run("still clears markers when the store write fails", func(t *testing.T) {
		f := newPresenceFixture(t)
		f.store.On("SetOffline", mock.Anything, f.project.ID, mock.Anything).Return(errors.New("redis down"))
		f.markers.On("ClearMarkersFor", mock.Anything, f.project.ID, "Alice").Return(nil)

		err := f.service.Disconnect(context.Background(), f.actor, f.project.ID)

		require.NoError(t, err)
		f.markers.AssertExpectations(t)
	})
}

func TestPresenceList(t *testing.T) {
	t.Run("returns roster for member", func(t *testing.T) {
		f := newPresenceFixture(t)
		lastChanged := f.now.Add(-5 * time.Minute)
		f.repo.On("FindByID", mock.Anything, f.project.ID).Return(f.project, nil)
		f.store.On("List", mock.Anything, f.project.ID).Return([]presence.Status{
			{UserID: f.actor.UserID, DisplayName: "Alice", State: presence.StateOnline, LastChanged: f.now},
			{UserID: uuid.New(), DisplayName: "Bob", State: presence.StateOffline, LastChanged: lastChanged},
		}, nil)

		statuses, err := f.service.List(context.Background(), f.actor, f.project.ID)

		require.NoError(t, err)
		require.Len(t, statuses, 2)
		assert.Equal(t, "online", statuses[0].State)
		assert.Equal(t, "offline", statuses[1].State)
		assert.Equal(t, lastChanged, statuses[1].LastChanged)
	})

	t.Run("rejects non member", func(t *testing.T) {
		f := newPresenceFixture(t)
		outsider := appboard.Actor{UserID: uuid.New(), DisplayName: "Mallory"}
		f.repo.On("FindByID", mock.Anything, f.project.ID).Return(f.project, nil)

		_, err := f.service.List(context.Background(), outsider, f.project.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})
}
