package handler

import (
	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ProjectHandler handles project lifecycle and membership requests
type ProjectHandler struct {
	BaseHandler
	projectService *appboard.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *appboard.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create creates a new project owned by the caller
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appboard.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// List returns a page of projects the caller is a member of
func (h *ProjectHandler) List(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	result, err := h.projectService.ListProjects(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Projects, result.Total, filter.Page, filter.PageSize)
}

// Get returns the full board snapshot
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Rename changes the project title
func (h *ProjectHandler) Rename(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.RenameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.RenameProject(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Delete removes the project. Owner only.
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), actor, projectID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddMember grants another user access to the project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	var req appboard.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.AddMember(c.Request.Context(), actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}
