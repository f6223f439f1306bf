package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DragService coordinates drag gestures and reorder commits. It owns
// two guards the domain layer cannot express on its own:
//
//   - single flight: one reorder commit per (project, user) at a time,
//     a second commit arriving while the first is still being applied
//     is rejected with COMMIT_IN_FLIGHT
//   - stale view: every reorder request names the item the client saw
//     at the source position; if the board has changed underneath the
//     client the ids no longer line up and the commit is rejected with
//     STALE_VIEW instead of scrambling someone else's move
type DragService struct {
	projectRepo board.ProjectRepository
	eventBus    shared.EventPublisher
	snapshots   SnapshotNotifier
	leaseTTL    time.Duration
	now         func() time.Time
	inFlight    sync.Map
	logger      *zap.Logger
}

// NewDragService creates a new drag coordination service
func NewDragService(
	projectRepo board.ProjectRepository,
	eventBus shared.EventPublisher,
	snapshots SnapshotNotifier,
	leaseTTL time.Duration,
	logger *zap.Logger,
) *DragService {
	return &DragService{
		projectRepo: projectRepo,
		eventBus:    eventBus,
		snapshots:   snapshots,
		leaseTTL:    leaseTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// BeginDrag places the caller's advisory marker on a list or card and
// refreshes its lease if one is already present
func (s *DragService) BeginDrag(ctx context.Context, actor Actor, projectID uuid.UUID, req BeginDragRequest) (*ProjectResponse, error) {
	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if err := project.BeginDrag(board.DragKind(req.Kind), req.ItemID, actor.DisplayName, s.now()); err != nil {
		return nil, err
	}

	return s.commit(ctx, project)
}

// EndDrag removes the caller's marker. Ending a drag that is not in
// progress succeeds without touching the board.
func (s *DragService) EndDrag(ctx context.Context, actor Actor, projectID uuid.UUID, req EndDragRequest) (*ProjectResponse, error) {
	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if err := project.EndDrag(board.DragKind(req.Kind), req.ItemID, actor.DisplayName); err != nil {
		return nil, err
	}

	return s.commit(ctx, project)
}

// MoveList commits a list reorder. A nil destination means the list
// was dropped outside any target; the board is returned unchanged.
func (s *DragService) MoveList(ctx context.Context, actor Actor, projectID uuid.UUID, req MoveListRequest) (*ProjectResponse, error) {
	release, err := s.acquire(projectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if req.Destination == nil {
		return ToProjectResponse(project), nil
	}

	if id, ok := project.ListAt(req.Source); !ok || id != req.ListID {
		s.logger.Warn("Rejected stale list reorder",
			zap.String("project_id", projectID.String()),
			zap.String("list_id", req.ListID),
			zap.Int("source", req.Source))
		return nil, shared.ErrStaleView
	}

	if err := project.MoveList(req.Source, *req.Destination, actor.DisplayName); err != nil {
		return nil, err
	}

	return s.commit(ctx, project)
}

// MoveCard commits a card move within or across lists. A nil
// destination index means the card was dropped outside any target.
func (s *DragService) MoveCard(ctx context.Context, actor Actor, projectID uuid.UUID, req MoveCardRequest) (*ProjectResponse, error) {
	release, err := s.acquire(projectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if req.DestIndex == nil {
		return ToProjectResponse(project), nil
	}
	if req.DestListID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Destination list is required")
	}

	if id, ok := project.CardAt(req.SourceListID, req.SourceIndex); !ok || id != req.CardID {
		s.logger.Warn("Rejected stale card move",
			zap.String("project_id", projectID.String()),
			zap.String("card_id", req.CardID),
			zap.String("source_list", req.SourceListID),
			zap.Int("source_index", req.SourceIndex))
		return nil, shared.ErrStaleView
	}

	if err := project.MoveCard(req.SourceListID, req.SourceIndex, req.DestListID, *req.DestIndex, actor.DisplayName); err != nil {
		return nil, err
	}

	return s.commit(ctx, project)
}

// MoveAllCards appends every card of the source list onto the
// destination list
func (s *DragService) MoveAllCards(ctx context.Context, actor Actor, projectID uuid.UUID, req MoveAllCardsRequest) (*ProjectResponse, error) {
	release, err := s.acquire(projectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if err := project.MoveAllCards(req.SourceListID, req.DestListID, actor.DisplayName); err != nil {
		return nil, err
	}

	return s.commit(ctx, project)
}

// ClearMarkersFor drops every marker the user holds on the board.
// Invoked by the presence layer when the user's connection drops.
func (s *DragService) ClearMarkersFor(ctx context.Context, projectID uuid.UUID, displayName string) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		s.logger.Error("Failed to find project", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to find project")
	}

	if removed := project.ClearMarkersFor(displayName); removed == 0 {
		return nil
	}

	s.logger.Info("Cleared drag markers after disconnect",
		zap.String("project_id", projectID.String()),
		zap.String("user", displayName))

	_, err = s.commit(ctx, project)
	return err
}

func (s *DragService) commit(ctx context.Context, project *board.Project) (*ProjectResponse, error) {
	if err := s.projectRepo.Save(ctx, project); err != nil {
		s.logger.Error("Failed to save project",
			zap.String("project_id", project.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save project")
	}

	events := project.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to publish domain events", zap.Error(err))
		}
		project.ClearDomainEvents()
	}

	if s.snapshots != nil {
		if err := s.snapshots.Notify(ctx, project.ID); err != nil {
			s.logger.Error("Failed to notify snapshot streams", zap.Error(err))
		}
	}

	return ToProjectResponse(project), nil
}

func (s *DragService) loadForMember(ctx context.Context, actor Actor, projectID uuid.UUID) (*board.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROJECT_NOT_FOUND", "Project not found")
		}
		s.logger.Error("Failed to find project", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find project")
	}
	if !project.IsMember(actor.UserID) {
		return nil, shared.NewDomainError("FORBIDDEN", "Not a member of this project")
	}
	return project, nil
}

// acquire takes the single-flight slot for (project, user). The
// returned release must be deferred by the caller.
func (s *DragService) acquire(projectID, userID uuid.UUID) (func(), error) {
	key := projectID.String() + ":" + userID.String()
	if _, loaded := s.inFlight.LoadOrStore(key, struct{}{}); loaded {
		return nil, shared.ErrCommitInFlight
	}
	return func() { s.inFlight.Delete(key) }, nil
}
