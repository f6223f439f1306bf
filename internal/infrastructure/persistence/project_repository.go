package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// projectOrderColumns whitelists sortable columns for project listings
var projectOrderColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

// GormProjectRepository implements board.ProjectRepository using GORM.
// The project row is a document: lists, tags and drag markers live in
// JSON columns and are written back whole on every Save.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID loads the full project document by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*board.Project, error) {
	var project board.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// FindAllForUser finds all projects the user is a member of.
// Membership is matched against the serialized members column so the
// query works on both postgres jsonb and the sqlite text used in tests.
func (r *GormProjectRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]board.Project, error) {
	var projects []board.Project

	query := r.memberScope(ctx, userID)
	query = applyProjectFilter(query, filter)

	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Save writes the full project document in a single row update
func (r *GormProjectRepository) Save(ctx context.Context, project *board.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes the project document
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&board.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForUser counts projects the user is a member of
func (r *GormProjectRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.memberScope(ctx, userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProjectRepository) memberScope(ctx context.Context, userID uuid.UUID) *gorm.DB {
	pattern := fmt.Sprintf(`%%"%s"%%`, userID.String())
	return r.db.WithContext(ctx).
		Model(&board.Project{}).
		Where("CAST(members AS TEXT) LIKE ?", pattern)
}

func applyProjectFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("title LIKE ?", "%"+filter.Search+"%")
	}

	orderBy := filter.OrderBy
	if !projectOrderColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.OrderDir == "asc" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
