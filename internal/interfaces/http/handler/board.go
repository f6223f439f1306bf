package handler

import (
	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/gin-gonic/gin"
)

// BoardHandler handles list, card and tag mutations plus the drag
// coordination endpoints of a single project
type BoardHandler struct {
	BaseHandler
	projectService *appboard.ProjectService
	dragService    *appboard.DragService
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(projectService *appboard.ProjectService, dragService *appboard.DragService) *BoardHandler {
	return &BoardHandler{
		projectService: projectService,
		dragService:    dragService,
	}
}

// AddList appends a new list to the board
func (h *BoardHandler) AddList(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.AddListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.AddList(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// RenameList changes a list title
func (h *BoardHandler) RenameList(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.RenameListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.RenameList(c.Request.Context(), actor, projectID, c.Param("listId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// RemoveList deletes a list unless another member is dragging it
func (h *BoardHandler) RemoveList(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	project, err := h.projectService.RemoveList(c.Request.Context(), actor, projectID, c.Param("listId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// AddCard appends a new card to a list
func (h *BoardHandler) AddCard(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.AddCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.AddCard(c.Request.Context(), actor, projectID, c.Param("listId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// UpdateCard applies a partial update to a card
func (h *BoardHandler) UpdateCard(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateCard(c.Request.Context(), actor, projectID, c.Param("cardId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// RemoveCard deletes a card unless another member is dragging it
func (h *BoardHandler) RemoveCard(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	project, err := h.projectService.RemoveCard(c.Request.Context(), actor, projectID, c.Param("cardId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// AddTag creates a board tag
func (h *BoardHandler) AddTag(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.AddTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.AddTag(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// RemoveTag deletes a tag and strips it from every card
func (h *BoardHandler) RemoveTag(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	project, err := h.projectService.RemoveTag(c.Request.Context(), actor, projectID, c.Param("tagId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// BeginDrag places the caller's advisory marker on a list or card
func (h *BoardHandler) BeginDrag(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.BeginDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.dragService.BeginDrag(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// EndDrag removes the caller's marker from a list or card
func (h *BoardHandler) EndDrag(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.EndDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.dragService.EndDrag(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// MoveList commits a list reorder
func (h *BoardHandler) MoveList(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.MoveListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.dragService.MoveList(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// MoveCard commits a card move within or across lists
func (h *BoardHandler) MoveCard(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.dragService.MoveCard(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// MoveAllCards appends every card of one list onto another
func (h *BoardHandler) MoveAllCards(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.MoveAllCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.dragService.MoveAllCards(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}
