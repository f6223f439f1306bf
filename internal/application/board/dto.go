package board

import (
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/google/uuid"
)

// Actor identifies the authenticated user performing an operation.
// DisplayName is what gets stamped on drag markers so other members
// can see who is holding an item.
type Actor struct {
	UserID      uuid.UUID
	DisplayName string
}

// CreateProjectRequest contains the input for creating a project
type CreateProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameProjectRequest contains the input for renaming a project
type RenameProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

// AddMemberRequest contains the input for adding a project member
type AddMemberRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

// AddListRequest contains the input for adding a list
type AddListRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameListRequest contains the input for renaming a list
type RenameListRequest struct {
	Title string `json:"title" binding:"required"`
}

// AddCardRequest contains the input for adding a card to a list
type AddCardRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateCardRequest contains the patch for a card. Nil fields are
// left untouched.
type UpdateCardRequest struct {
	Title       *string      `json:"title"`
	Time        *string      `json:"time"`
	Description *string      `json:"description"`
	Owners      *[]string    `json:"owners"`
	TagIDs      *[]string    `json:"tagIds"`
	Complete    *bool        `json:"complete"`
	Todos       *[]TodoInput `json:"todos"`
}

// TodoInput is a single todo entry in a card patch
type TodoInput struct {
	ID       string `json:"id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Complete bool   `json:"complete"`
}

// AddTagRequest contains the input for creating a board tag
type AddTagRequest struct {
	Name     string `json:"name" binding:"required"`
	ColorHex string `json:"colorHex" binding:"required"`
}

// MoveListRequest reorders a list within the board. ListID is the id
// of the list the client saw at Source; it is how a reorder computed
// against an outdated snapshot gets detected. A nil Destination means
// the drag was dropped outside any target and the move is a no-op.
type MoveListRequest struct {
	ListID      string `json:"listId" binding:"required"`
	Source      int    `json:"source"`
	Destination *int   `json:"destination"`
}

// MoveCardRequest moves a card within or across lists. CardID is the
// id of the card the client saw at SourceIndex of SourceListID.
type MoveCardRequest struct {
	CardID       string `json:"cardId" binding:"required"`
	SourceListID string `json:"sourceListId" binding:"required"`
	SourceIndex  int    `json:"sourceIndex"`
	DestListID   string `json:"destListId"`
	DestIndex    *int   `json:"destIndex"`
}

// MoveAllCardsRequest appends every card of one list onto another
type MoveAllCardsRequest struct {
	SourceListID string `json:"sourceListId" binding:"required"`
	DestListID   string `json:"destListId" binding:"required"`
}

// BeginDragRequest places an advisory marker on a list or card
type BeginDragRequest struct {
	Kind   string `json:"kind" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
}

// EndDragRequest removes the caller's marker from a list or card
type EndDragRequest struct {
	Kind   string `json:"kind" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
}

// TodoResponse is a todo entry in a card
type TodoResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Complete bool   `json:"complete"`
}

// CardResponse is a card within a list
type CardResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Time        string         `json:"time,omitempty"`
	Description string         `json:"description,omitempty"`
	Owners      []string       `json:"owners"`
	TagIDs      []string       `json:"tagIds"`
	Complete    bool           `json:"complete"`
	Todos       []TodoResponse `json:"todos"`
}

// ListResponse is an ordered column of cards
type ListResponse struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Cards []CardResponse `json:"cards"`
}

// TagResponse is a board-level tag
type TagResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
}

// MarkerResponse is an advisory drag marker
type MarkerResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	StartedAt   time.Time `json:"startedAt"`
}

// ProjectResponse is the full board snapshot
type ProjectResponse struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	OwnerID       uuid.UUID        `json:"ownerId"`
	Members       []string         `json:"members"`
	Lists         []ListResponse   `json:"lists"`
	Tags          []TagResponse    `json:"tags"`
	DraggingLists []MarkerResponse `json:"draggingLists"`
	DraggingCards []MarkerResponse `json:"draggingCards"`
	Version       int              `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ProjectSummary is the list-view shape of a project
type ProjectSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Members   []string  `json:"members"`
	ListCount int       `json:"listCount"`
	CardCount int       `json:"cardCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectListResponse is a page of project summaries
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
	Total    int64            `json:"total"`
}

// ToProjectResponse converts a project aggregate to its API shape
func ToProjectResponse(p *board.Project) *ProjectResponse {
	resp := &ProjectResponse{
		ID:            p.ID,
		Title:         p.Title,
		OwnerID:       p.OwnerID,
		Members:       append([]string{}, p.Members...),
		Lists:         make([]ListResponse, 0, len(p.Lists)),
		Tags:          make([]TagResponse, 0, len(p.Tags)),
		DraggingLists: toMarkerResponses(p.DraggingLists),
		DraggingCards: toMarkerResponses(p.DraggingCards),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, list := range p.Lists {
		resp.Lists = append(resp.Lists, toListResponse(list))
	}
	for _, tag := range p.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: tag.ID, Name: tag.Name, ColorHex: tag.ColorHex})
	}
	return resp
}

// ToProjectSummary converts a project to its list-view shape
func ToProjectSummary(p *board.Project) ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Title:     p.Title,
		OwnerID:   p.OwnerID,
		Members:   append([]string{}, p.Members...),
		ListCount: len(p.Lists),
		CardCount: p.TotalCards(),
		UpdatedAt: p.UpdatedAt,
	}
}

func toListResponse(list board.List) ListResponse {
	resp := ListResponse{
		ID:    list.ID,
		Title: list.Title,
		Cards: make([]CardResponse, 0, len(list.Cards)),
	}
	for _, card := range list.Cards {
		resp.Cards = append(resp.Cards, toCardResponse(card))
	}
	return resp
}

func toCardResponse(card board.Card) CardResponse {
	resp := CardResponse{
		ID:          card.ID,
		Title:       card.Title,
		Time:        card.Time,
		Description: card.Description,
		Owners:      append([]string{}, card.Owners...),
		TagIDs:      append([]string{}, card.TagIDs...),
		Complete:    card.Complete,
		Todos:       make([]TodoResponse, 0, len(card.Todos)),
	}
	for _, todo := range card.Todos {
		resp.Todos = append(resp.Todos, TodoResponse{ID: todo.ID, Title: todo.Text, Complete: todo.Done})
	}
	return resp
}

func toMarkerResponses(markers board.MarkerArray) []MarkerResponse {
	out := make([]MarkerResponse, 0, len(markers))
	for _, m := range markers {
		out = append(out, MarkerResponse{ID: m.ID, DisplayName: m.DisplayName, StartedAt: m.StartedAt})
	}
	return out
}

func toDomainTodos(todos []TodoInput) []board.Todo {
	out := make([]board.Todo, 0, len(todos))
	for _, t := range todos {
		out = append(out, board.Todo{ID: t.ID, Text: t.Title, Done: t.Complete})
	}
	return out
}
