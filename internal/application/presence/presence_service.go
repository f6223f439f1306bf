package presence

import (
	"context"
	"errors"
	"time"

	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/presence"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MarkerCleaner releases the drag markers a user left behind. Satisfied
// by the board drag service.
type MarkerCleaner interface {
	ClearMarkersFor(ctx context.Context, projectID uuid.UUID, displayName string) error
}

// Service tracks who is connected to which board. Disconnects also
// release the leaving user's drag markers so their locks do not outlive
// the connection.
type Service struct {
	store       presence.Store
	projectRepo board.ProjectRepository
	markers     MarkerCleaner
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates a new presence service
func NewService(
	store presence.Store,
	projectRepo board.ProjectRepository,
	markers MarkerCleaner,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:       store,
		projectRepo: projectRepo,
		markers:     markers,
		now:         time.Now,
		logger:      logger,
	}
}

// Connect marks the actor online on the project
func (s *Service) Connect(ctx context.Context, actor appboard.Actor, projectID uuid.UUID) error {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return err
	}

	status := presence.Status{
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		State:       presence.StateOnline,
		LastChanged: s.now(),
	}
	if err := s.store.SetOnline(ctx, projectID, status); err != nil {
		s.logger.Error("failed to mark user online",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", actor.UserID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update presence")
	}

	s.logger.Info("user connected",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", actor.UserID.String()))
	return nil
}

// Heartbeat refreshes the actor's presence lease
func (s *Service) Heartbeat(ctx context.Context, actor appboard.Actor, projectID uuid.UUID) error {
	if err := s.store.Heartbeat(ctx, projectID, actor.UserID); err != nil {
		s.logger.Warn("failed to refresh presence lease",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", actor.UserID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to refresh presence")
	}
	return nil
}

// Disconnect marks the actor offline and releases their drag markers.
// Called from the websocket read pump on any connection teardown, so it
// must tolerate repositories that no longer know the project.
func (s *Service) Disconnect(ctx context.Context, actor appboard.Actor, projectID uuid.UUID) error {
	status := presence.Status{
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		State:       presence.StateOffline,
		LastChanged: s.now(),
	}
	if err := s.store.SetOffline(ctx, projectID, status); err != nil {
		s.logger.Error("failed to mark user offline",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", actor.UserID.String()),
			zap.Error(err))
	}

	if err := s.markers.ClearMarkersFor(ctx, projectID, actor.DisplayName); err != nil {
		s.logger.Error("failed to clear drag markers on disconnect",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", actor.UserID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("user disconnected",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", actor.UserID.String()))
	return nil
}

// List returns the presence roster of the project
func (s *Service) List(ctx context.Context, actor appboard.Actor, projectID uuid.UUID) ([]StatusResponse, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}

	statuses, err := s.store.List(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list presence",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list presence")
	}

	return toStatusResponses(statuses), nil
}

func (s *Service) requireMember(ctx context.Context, actor appboard.Actor, projectID uuid.UUID) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("PROJECT_NOT_FOUND", "Project not found")
		}
		s.logger.Error("failed to load project",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to load project")
	}
	if !project.IsMember(actor.UserID) {
		return shared.NewDomainError("FORBIDDEN", "Not a member of this project")
	}
	return nil
}
