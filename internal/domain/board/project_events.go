package board

import (
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProject = "Project"

// Event type constants
const (
	EventTypeProjectCreated = "ProjectCreated"
	EventTypeProjectChanged = "ProjectChanged"
	EventTypeListsReordered = "ListsReordered"
	EventTypeCardMoved      = "CardMoved"
	EventTypeCardsBulkMoved = "CardsBulkMoved"
	EventTypeDragStarted    = "DragStarted"
	EventTypeDragEnded      = "DragEnded"
)

// ProjectCreatedEvent is published when a new board is created
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	OwnerID   uuid.UUID `json:"owner_id"`
}

// NewProjectCreatedEvent creates a new ProjectCreatedEvent
func NewProjectCreatedEvent(project *Project, actor string) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		Title:           project.Title,
		OwnerID:         project.OwnerID,
	}
}

// ProjectChangedEvent is published for document mutations that do not have
// a more specific event: CRUD on lists, cards, tags and members. Field
// names the document column that changed.
type ProjectChangedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Field     string    `json:"field"`
}

// NewProjectChangedEvent creates a new ProjectChangedEvent
func NewProjectChangedEvent(project *Project, actor, field string) *ProjectChangedEvent {
	return &ProjectChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectChanged, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		Field:           field,
	}
}

// ListsReorderedEvent is published when a board-level list move commits
type ListsReorderedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	FromIndex int       `json:"from_index"`
	ToIndex   int       `json:"to_index"`
}

// NewListsReorderedEvent creates a new ListsReorderedEvent
func NewListsReorderedEvent(project *Project, actor string, from, to int) *ListsReorderedEvent {
	return &ListsReorderedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeListsReordered, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		FromIndex:       from,
		ToIndex:         to,
	}
}

// CardMovedEvent is published when a card move commits
type CardMovedEvent struct {
	shared.BaseDomainEvent
	ProjectID  uuid.UUID `json:"project_id"`
	CardID     string    `json:"card_id"`
	FromListID string    `json:"from_list_id"`
	ToListID   string    `json:"to_list_id"`
}

// NewCardMovedEvent creates a new CardMovedEvent
func NewCardMovedEvent(project *Project, actor, cardID, fromListID, toListID string) *CardMovedEvent {
	return &CardMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCardMoved, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		CardID:          cardID,
		FromListID:      fromListID,
		ToListID:        toListID,
	}
}

// CardsBulkMovedEvent is published when every card of a list is moved at once
type CardsBulkMovedEvent struct {
	shared.BaseDomainEvent
	ProjectID  uuid.UUID `json:"project_id"`
	FromListID string    `json:"from_list_id"`
	ToListID   string    `json:"to_list_id"`
	TotalCards int       `json:"total_cards"`
}

// NewCardsBulkMovedEvent creates a new CardsBulkMovedEvent
func NewCardsBulkMovedEvent(project *Project, actor, fromListID, toListID string, total int) *CardsBulkMovedEvent {
	return &CardsBulkMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCardsBulkMoved, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		FromListID:      fromListID,
		ToListID:        toListID,
		TotalCards:      total,
	}
}

// DragStartedEvent is published when a drag marker is added
type DragStartedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Kind      DragKind  `json:"kind"`
	ItemID    string    `json:"item_id"`
}

// NewDragStartedEvent creates a new DragStartedEvent
func NewDragStartedEvent(project *Project, actor string, kind DragKind, itemID string) *DragStartedEvent {
	return &DragStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDragStarted, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		Kind:            kind,
		ItemID:          itemID,
	}
}

// DragEndedEvent is published when drag markers are removed, including the
// disconnect-triggered cleanup where ItemID is empty
type DragEndedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Kind      DragKind  `json:"kind"`
	ItemID    string    `json:"item_id,omitempty"`
}

// NewDragEndedEvent creates a new DragEndedEvent
func NewDragEndedEvent(project *Project, actor string, kind DragKind, itemID string) *DragEndedEvent {
	return &DragEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDragEnded, AggregateTypeProject, project.ID, actor),
		ProjectID:       project.ID,
		Kind:            kind,
		ItemID:          itemID,
	}
}
