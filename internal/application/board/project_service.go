package board

import (
	"context"
	"errors"
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/identity"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotNotifier fans a changed board out to every subscribed
// snapshot stream. Implementations must be safe for concurrent use.
type SnapshotNotifier interface {
	Notify(ctx context.Context, projectID uuid.UUID) error
}

// ProjectService handles board CRUD operations
type ProjectService struct {
	projectRepo board.ProjectRepository
	userRepo    identity.UserRepository
	eventBus    shared.EventPublisher
	snapshots   SnapshotNotifier
	leaseTTL    time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo board.ProjectRepository,
	userRepo identity.UserRepository,
	eventBus shared.EventPublisher,
	snapshots SnapshotNotifier,
	leaseTTL time.Duration,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		eventBus:    eventBus,
		snapshots:   snapshots,
		leaseTTL:    leaseTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// CreateProject creates a new board owned by the acting user
func (s *ProjectService) CreateProject(ctx context.Context, actor Actor, req CreateProjectRequest) (*ProjectResponse, error) {
	s.logger.Info("Creating project",
		zap.String("title", req.Title),
		zap.String("owner", actor.UserID.String()))

	project, err := board.NewProject(actor.UserID, actor.DisplayName, req.Title)
	if err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create project")
	}

	s.afterWrite(ctx, project)

	return ToProjectResponse(project), nil
}

// GetProject returns the full board snapshot. Markers whose lease has
// expired are pruned on the way out so an abandoned drag never pins an
// item forever.
func (s *ProjectService) GetProject(ctx context.Context, actor Actor, projectID uuid.UUID) (*ProjectResponse, error) {
	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if removed := project.PruneStaleMarkers(s.now(), s.leaseTTL); removed > 0 {
		s.logger.Info("Pruned stale drag markers",
			zap.String("project_id", projectID.String()),
			zap.Int("removed", removed))
		if err := s.projectRepo.Save(ctx, project); err != nil {
			s.logger.Error("Failed to persist marker prune", zap.Error(err))
			// Non-blocking: the pruned snapshot is still returned
		} else {
			s.afterWrite(ctx, project)
		}
	}

	return ToProjectResponse(project), nil
}

// ListProjects returns every board the user is a member of
func (s *ProjectService) ListProjects(ctx context.Context, actor Actor, filter shared.Filter) (*ProjectListResponse, error) {
	projects, err := s.projectRepo.FindAllForUser(ctx, actor.UserID, filter)
	if err != nil {
		s.logger.Error("Failed to list projects", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list projects")
	}

	total, err := s.projectRepo.CountForUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to count projects", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to count projects")
	}

	resp := &ProjectListResponse{
		Projects: make([]ProjectSummary, 0, len(projects)),
		Total:    total,
	}
	for i := range projects {
		resp.Projects = append(resp.Projects, ToProjectSummary(&projects[i]))
	}
	return resp, nil
}

// RenameProject changes the board title
func (s *ProjectService) RenameProject(ctx context.Context, actor Actor, projectID uuid.UUID, req RenameProjectRequest) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.Rename(req.Title, actor.DisplayName)
	})
}

// DeleteProject removes the board. Only the owner may delete.
func (s *ProjectService) DeleteProject(ctx context.Context, actor Actor, projectID uuid.UUID) error {
	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != actor.UserID {
		return shared.NewDomainError("FORBIDDEN", "Only the project owner can delete the project")
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		s.logger.Error("Failed to delete project", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete project")
	}

	s.logger.Info("Project deleted", zap.String("project_id", projectID.String()))

	if s.snapshots != nil {
		if err := s.snapshots.Notify(ctx, projectID); err != nil {
			s.logger.Error("Failed to notify snapshot streams", zap.Error(err))
		}
	}
	return nil
}

// AddMember grants another user access to the board
func (s *ProjectService) AddMember(ctx context.Context, actor Actor, projectID uuid.UUID, req AddMemberRequest) (*ProjectResponse, error) {
	user, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User to add does not exist")
		}
		s.logger.Error("Failed to find user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find user")
	}

	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		p.AddMember(user.ID, actor.DisplayName)
		return nil
	})
}

// AddList appends a new list to the board
func (s *ProjectService) AddList(ctx context.Context, actor Actor, projectID uuid.UUID, req AddListRequest) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		_, err := p.AddList(req.Title, actor.DisplayName)
		return err
	})
}

// RenameList changes a list title
func (s *ProjectService) RenameList(ctx context.Context, actor Actor, projectID uuid.UUID, listID string, req RenameListRequest) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.RenameList(listID, req.Title, actor.DisplayName)
	})
}

// RemoveList deletes a list unless another member is dragging it
func (s *ProjectService) RemoveList(ctx context.Context, actor Actor, projectID uuid.UUID, listID string) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.RemoveList(listID, actor.DisplayName, s.now(), s.leaseTTL)
	})
}

// AddCard appends a new card to a list
func (s *ProjectService) AddCard(ctx context.Context, actor Actor, projectID uuid.UUID, listID string, req AddCardRequest) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		_, err := p.AddCard(listID, req.Title, actor.DisplayName)
		return err
	})
}

// UpdateCard applies a partial update to a card
func (s *ProjectService) UpdateCard(ctx context.Context, actor Actor, projectID uuid.UUID, cardID string, req UpdateCardRequest) (*ProjectResponse, error) {
	patch := board.CardPatch{
		Title:       req.Title,
		Time:        req.Time,
		Description: req.Description,
		Owners:      req.Owners,
		TagIDs:      req.TagIDs,
		Complete:    req.Complete,
	}
	if req.Todos != nil {
		todos := toDomainTodos(*req.Todos)
		patch.Todos = &todos
	}
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.UpdateCard(cardID, patch, actor.DisplayName)
	})
}

// RemoveCard deletes a card unless another member is dragging it
func (s *ProjectService) RemoveCard(ctx context.Context, actor Actor, projectID uuid.UUID, cardID string) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.RemoveCard(cardID, actor.DisplayName, s.now(), s.leaseTTL)
	})
}

// AddTag creates a board tag
func (s *ProjectService) AddTag(ctx context.Context, actor Actor, projectID uuid.UUID, req AddTagRequest) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		_, err := p.AddTag(req.Name, req.ColorHex, actor.DisplayName)
		return err
	})
}

// RemoveTag deletes a tag and strips it from every card
func (s *ProjectService) RemoveTag(ctx context.Context, actor Actor, projectID uuid.UUID, tagID string) (*ProjectResponse, error) {
	return s.mutate(ctx, actor, projectID, func(p *board.Project) error {
		return p.RemoveTag(tagID, actor.DisplayName)
	})
}

// mutate loads the board, applies the change, saves and fans out
func (s *ProjectService) mutate(ctx context.Context, actor Actor, projectID uuid.UUID, change func(*board.Project) error) (*ProjectResponse, error) {
	project, err := s.loadForMember(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	if err := change(project); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, project); err != nil {
		s.logger.Error("Failed to save project",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save project")
	}

	s.afterWrite(ctx, project)

	return ToProjectResponse(project), nil
}

func (s *ProjectService) loadForMember(ctx context.Context, actor Actor, projectID uuid.UUID) (*board.Project, error) {
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

// afterWrite publishes domain events and pushes the new snapshot to
// subscribers. Both are non-blocking for the caller's operation.
func (s *ProjectService) afterWrite(ctx context.Context, project *board.Project) {
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
}
