package board

import (
	"context"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectRepository defines the interface for board document persistence
type ProjectRepository interface {
	// FindByID loads the full project document
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindAllForUser finds all projects the user is a member of
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Project, error)

	// Save writes the full project document, replacing the nested
	// list/card/tag/marker columns in one atomic update
	Save(ctx context.Context, project *Project) error

	// Delete removes the project document
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForUser counts projects the user is a member of
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
